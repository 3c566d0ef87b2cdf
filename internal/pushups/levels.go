package pushups

import "math"

const XPPerPushUp = 1

// LevelForXP derives the level from experience points. The level is
// never stored independently in a way that can drift from this curve.
func LevelForXP(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return int(math.Floor(math.Sqrt(float64(xp)/100))) + 1
}

// XPCeilingForLevel is the experience required to complete the given
// level.
func XPCeilingForLevel(level int) int {
	return level * level * 100
}
