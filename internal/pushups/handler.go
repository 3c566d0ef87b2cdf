package pushups

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/2beens/pushstats/internal/middleware"
	"github.com/2beens/pushstats/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// Handler is the HTTP surface over the tracker and the synchronizer.
type Handler struct {
	tracker      *Tracker
	synchronizer *Synchronizer
}

func NewHandler(tracker *Tracker, synchronizer *Synchronizer) *Handler {
	return &Handler{
		tracker:      tracker,
		synchronizer: synchronizer,
	}
}

func (h *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/me", h.handleGetMe).Methods("GET", "OPTIONS")
	router.HandleFunc("/me/reload", h.handleReload).Methods("POST", "OPTIONS")
	router.HandleFunc("/me/settings", h.handleUpdateSettings).Methods("PUT", "OPTIONS")
	router.HandleFunc("/logs", h.handleGetLogs).Methods("GET", "OPTIONS")
	router.HandleFunc("/sets", h.handleRecordSet).Methods("POST", "OPTIONS")
	router.HandleFunc("/stats", h.handleGetStats).Methods("GET", "OPTIONS")
	router.HandleFunc("/achievements", h.handleGetAchievements).Methods("GET", "OPTIONS")
	router.HandleFunc("/variations", h.handleGetVariations).Methods("GET", "OPTIONS")
	router.HandleFunc("/export", h.handleExport).Methods("GET", "OPTIONS")
}

// loadedProfile returns the held profile and logs when they belong to
// the requesting user. The synchronizer may still be loading or may
// hold a different identity, both are "not ready" for this request.
func (h *Handler) loadedProfile(r *http.Request) (*UserProfile, []DailyLog, error) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		return nil, nil, errors.New("no user in request context")
	}
	profile, logs := h.tracker.Snapshot()
	if profile == nil || profile.ID != userID {
		return nil, nil, ErrNoProfileLoaded
	}
	return profile, logs, nil
}

type meResponse struct {
	State     State        `json:"state"`
	Profile   *UserProfile `json:"profile,omitempty"`
	XPCeiling int          `json:"xpCeiling,omitempty"`
}

func (h *Handler) handleGetMe(w http.ResponseWriter, r *http.Request) {
	resp := meResponse{
		State: h.synchronizer.State(),
	}
	if profile, _, err := h.loadedProfile(r); err == nil {
		resp.Profile = profile
		resp.XPCeiling = XPCeilingForLevel(profile.Level)
	}
	writeJSON(w, resp, http.StatusOK)
}

func (h *Handler) handleReload(w http.ResponseWriter, r *http.Request) {
	h.synchronizer.Reload()
	writeJSON(w, h.synchronizer.State(), http.StatusOK)
}

func (h *Handler) handleGetLogs(w http.ResponseWriter, r *http.Request) {
	_, logs, err := h.loadedProfile(r)
	if err != nil {
		http.Error(w, "profile not loaded", http.StatusConflict)
		return
	}
	writeJSON(w, logs, http.StatusOK)
}

type recordSetRequest struct {
	Count   int         `json:"count"`
	Details []SetDetail `json:"details,omitempty"`
}

func (h *Handler) handleRecordSet(w http.ResponseWriter, r *http.Request) {
	if _, _, err := h.loadedProfile(r); err != nil {
		http.Error(w, "profile not loaded", http.StatusConflict)
		return
	}

	var req recordSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	result, err := h.tracker.RecordSet(r.Context(), req.Count, req.Details)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCount):
			http.Error(w, "count must be positive", http.StatusBadRequest)
		case errors.Is(err, ErrNoProfileLoaded):
			http.Error(w, "profile not loaded", http.StatusConflict)
		default:
			log.Errorf("record set: %s", err)
			http.Error(w, "failed to record set", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, result, http.StatusCreated)
}

func (h *Handler) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	if _, _, err := h.loadedProfile(r); err != nil {
		http.Error(w, "profile not loaded", http.StatusConflict)
		return
	}

	var update SettingsUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	profile, err := h.tracker.UpdateSettings(r.Context(), update)
	if err != nil {
		if errors.Is(err, ErrNoProfileLoaded) {
			http.Error(w, "profile not loaded", http.StatusConflict)
			return
		}
		log.Errorf("update settings: %s", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, profile, http.StatusOK)
}

type landmarkProgress struct {
	Landmark
	Progress float64 `json:"progress"`
}

type statsResponse struct {
	Summary   Summary            `json:"summary"`
	Ranking   Ranking            `json:"ranking"`
	Landmarks []landmarkProgress `json:"landmarks"`
}

func (h *Handler) handleGetStats(w http.ResponseWriter, r *http.Request) {
	profile, logs, err := h.loadedProfile(r)
	if err != nil {
		http.Error(w, "profile not loaded", http.StatusConflict)
		return
	}

	summary := Summarize(logs)
	resp := statsResponse{
		Summary: summary,
		Ranking: WorldRanking(summary.AvgCount, profile.CurrentStreak),
	}
	for _, l := range Landmarks {
		resp.Landmarks = append(resp.Landmarks, landmarkProgress{
			Landmark: l,
			Progress: LandmarkProgress(profile.TotalPushUps, l),
		})
	}

	writeJSON(w, resp, http.StatusOK)
}

func (h *Handler) handleGetAchievements(w http.ResponseWriter, r *http.Request) {
	profile, logs, err := h.loadedProfile(r)
	if err != nil {
		http.Error(w, "profile not loaded", http.StatusConflict)
		return
	}
	writeJSON(w, EvaluateAchievements(profile, logs), http.StatusOK)
}

func (h *Handler) handleGetVariations(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, Variations, http.StatusOK)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	_, logs, err := h.loadedProfile(r)
	if err != nil {
		http.Error(w, "profile not loaded", http.StatusConflict)
		return
	}

	w.Header().Set(
		"Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", ExportFilename(time.Now())),
	)
	pkg.WriteResponse(w, pkg.ContentType.CSV, ExportCSV(logs), http.StatusOK)
}

func writeJSON(w http.ResponseWriter, payload any, statusCode int) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("marshal response: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, data, statusCode)
}
