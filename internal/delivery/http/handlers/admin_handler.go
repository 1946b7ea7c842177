package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/medunigraz/mfa-sync-service/internal/domain"
)

type Config struct {
	// ReadToken grants listing; UnlockToken additionally grants the
	// unlock action and manual task triggers.
	ReadToken   string
	UnlockToken string
	Base        string
	Interval    string
	DryRun      bool
}

// AdminHandler is the operator surface: it inspects lock records and
// enqueues jobs, it never touches the directory itself.
type AdminHandler struct {
	locked domain.LockedUserRepository
	jobs   domain.JobPublisherPort
	logger *slog.Logger
	cfg    Config
}

func NewAdminHandler(locked domain.LockedUserRepository, jobs domain.JobPublisherPort, logger *slog.Logger, cfg Config) *AdminHandler {
	return &AdminHandler{locked: locked, jobs: jobs, logger: logger, cfg: cfg}
}

func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/locked-users", h.requireToken(h.cfg.ReadToken, h.listLockedUsers))
	r.Post("/locked-users/unlock", h.requireToken(h.cfg.UnlockToken, h.unlockUsers))
	r.Post("/tasks/sync", h.requireToken(h.cfg.UnlockToken, h.triggerSync))
	r.Post("/tasks/enrollment-timeout", h.requireToken(h.cfg.UnlockToken, h.triggerSweep))
	return r
}

func (h *AdminHandler) requireToken(token string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token == "" {
			writeError(w, http.StatusForbidden, "endpoint disabled")
			return
		}

		header := r.Header.Get("Authorization")
		got, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next(w, r)
	}
}

type lockedUserResponse struct {
	ID       string     `json:"id"`
	Username string     `json:"username"`
	Locked   *time.Time `json:"locked,omitempty"`
	Unlocked *time.Time `json:"unlocked,omitempty"`
}

func (h *AdminHandler) listLockedUsers(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 50)
	all := r.URL.Query().Get("all") == "true"

	records, total, err := h.locked.List(r.Context(), !all, page, limit)
	if err != nil {
		h.logger.Error("could not list locked users", "error", err)
		writeError(w, http.StatusInternalServerError, "could not list locked users")
		return
	}

	users := make([]lockedUserResponse, len(records))
	for i, rec := range records {
		users[i] = lockedUserResponse{
			ID:       rec.ID,
			Username: rec.Username,
			Locked:   rec.Locked,
			Unlocked: rec.Unlocked,
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

type unlockRequest struct {
	RecordIDs []string `json:"record_ids"`
	DryRun    bool     `json:"dry_run"`
}

func (h *AdminHandler) unlockUsers(w http.ResponseWriter, r *http.Request) {
	var req unlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.RecordIDs) == 0 {
		writeError(w, http.StatusBadRequest, "record_ids is required")
		return
	}

	queued := 0
	for _, id := range req.RecordIDs {
		job := domain.Job{Name: domain.JobUnlock, RecordID: id, DryRun: req.DryRun || h.cfg.DryRun}
		if err := h.jobs.Enqueue(r.Context(), job); err != nil {
			h.logger.Error("could not enqueue unlock job", "record_id", id, "error", err)
			continue
		}
		queued++
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{"queued": queued})
}

func (h *AdminHandler) triggerSync(w http.ResponseWriter, r *http.Request) {
	job := domain.Job{Name: domain.JobBulkSync, Base: h.cfg.Base, DryRun: h.cfg.DryRun}
	if err := h.jobs.Enqueue(r.Context(), job); err != nil {
		h.logger.Error("could not enqueue bulk sync", "error", err)
		writeError(w, http.StatusInternalServerError, "could not enqueue bulk sync")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{"queued": 1})
}

func (h *AdminHandler) triggerSweep(w http.ResponseWriter, r *http.Request) {
	job := domain.Job{
		Name:     domain.JobEnrollmentSweep,
		Base:     h.cfg.Base,
		Interval: h.cfg.Interval,
		DryRun:   h.cfg.DryRun,
	}
	if err := h.jobs.Enqueue(r.Context(), job); err != nil {
		h.logger.Error("could not enqueue enrollment sweep", "error", err)
		writeError(w, http.StatusInternalServerError, "could not enqueue enrollment sweep")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{"queued": 1})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return fallback
	}
	return v
}
