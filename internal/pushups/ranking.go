package pushups

import "math"

const (
	worldPopulation = 8_000_000_000
	minPercentile   = 0.00001

	// every repetition pushes the body up roughly half a meter
	metersPerPushUp = 0.5
)

// Landmark is a real-world height used for the comparative progress
// display.
type Landmark struct {
	Name         string  `json:"name"`
	HeightMeters float64 `json:"heightMeters"`
}

var Landmarks = []Landmark{
	{Name: "Burj Khalifa", HeightMeters: 828},
	{Name: "Mt. Fuji", HeightMeters: 3776},
	{Name: "Mt. Everest", HeightMeters: 8848},
}

// Ranking is the estimated standing among the world population. A
// gamification gimmick with a precise formula, not statistics.
type Ranking struct {
	Power      int     `json:"power"`
	Percentile float64 `json:"percentile"`
	Rank       int64   `json:"rank"`
}

// WorldRanking blends daily volume and consistency into a power score,
// then maps it onto a decaying percentile of the world population.
func WorldRanking(avgDailyCount int, currentStreak int) Ranking {
	power := float64(avgDailyCount) * (1 + float64(currentStreak)*0.05)

	percentile := 100.0
	if power > 0 {
		percentile = 50 * math.Exp(-0.01*power)
	}
	if percentile < minPercentile {
		percentile = minPercentile
	}

	return Ranking{
		Power:      int(math.Floor(power)),
		Percentile: percentile,
		Rank:       int64(math.Floor(percentile / 100 * worldPopulation)),
	}
}

// LandmarkProgress is the percentage of the landmark's height climbed
// by the given lifetime repetition total.
func LandmarkProgress(totalPushUps int, landmark Landmark) float64 {
	return float64(totalPushUps) * metersPerPushUp / landmark.HeightMeters * 100
}
