package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"geo-reminders/internal/model"
	"geo-reminders/internal/service"

	"github.com/sirupsen/logrus"
)

type ReminderService interface {
	HealthCheck(ctx context.Context) *service.HealthError
	CreateReminder(ctx context.Context, r *model.Reminder) error
	ListReminders(ctx context.Context, page, pageSize int) ([]model.Reminder, error)
	GetReminderByID(ctx context.Context, id string) (*model.Reminder, error)
	UpdateReminder(ctx context.Context, id string, upd model.ReminderUpdate) (*model.Reminder, error)
	DeleteReminder(ctx context.Context, id string) error
	ReportLocation(ctx context.Context, req model.LocationRequest) (model.LocationResponse, error)
	GetTriggerStats(ctx context.Context, minutes int) (int, error)
}

type Handler struct {
	logger       *logrus.Logger
	service      ReminderService
	statsMinutes int
}

func NewHandler(logger *logrus.Logger, svc ReminderService, statsMinutes int) *Handler {
	return &Handler{
		logger:       logger,
		service:      svc,
		statsMinutes: statsMinutes,
	}
}

func (h *Handler) RemindersHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createReminder(w, r)
	case http.MethodGet:
		h.listReminders(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) createReminder(w http.ResponseWriter, r *http.Request) {
	var rem model.Reminder
	if err := json.NewDecoder(r.Body).Decode(&rem); err != nil {
		h.logger.WithError(err).Info("invalid request body in RemindersHandler")
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	if err := h.service.CreateReminder(r.Context(), &rem); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, rem)
}

func (h *Handler) listReminders(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", 50)

	items, err := h.service.ListReminders(r.Context(), page, pageSize)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"items":     items,
		"page":      page,
		"page_size": pageSize,
	})
}

func (h *Handler) ReminderByIDHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/reminders/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "invalid reminder id", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getReminder(w, r, id)
	case http.MethodPatch:
		h.updateReminder(w, r, id)
	case http.MethodDelete:
		h.deleteReminder(w, r, id)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) getReminder(w http.ResponseWriter, r *http.Request, id string) {
	rem, err := h.service.GetReminderByID(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if rem == nil {
		http.Error(w, "reminder not found", http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, rem)
}

func (h *Handler) updateReminder(w http.ResponseWriter, r *http.Request, id string) {
	var upd model.ReminderUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		h.logger.WithError(err).Info("invalid request body in ReminderByIDHandler")
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	rem, err := h.service.UpdateReminder(r.Context(), id, upd)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rem)
}

func (h *Handler) deleteReminder(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.service.DeleteReminder(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) LocationHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req model.LocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WithError(err).Info("invalid request body in LocationHandler")
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	resp, err := h.service.ReportLocation(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	minutes := queryInt(r, "minutes", h.statsMinutes)
	count, err := h.service.GetTriggerStats(r.Context(), minutes)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"window_minutes": minutes,
		"triggers":       count,
	})
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	herr := h.service.HealthCheck(r.Context())

	status := "ok"
	db := "ok"
	redisStatus := "ok"
	if herr != nil {
		status = "degraded"
		if herr.DBError != nil {
			db = "error"
		}
		if herr.RedisError != nil {
			redisStatus = "error"
		}
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"status": status,
		"db":     db,
		"redis":  redisStatus,
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, model.ErrNotFound):
		http.Error(w, "reminder not found", http.StatusNotFound)
	case errors.Is(err, model.ErrRegionLimitExceeded):
		http.Error(w, "too many active reminders for region monitoring", http.StatusUnprocessableEntity)
	default:
		h.logger.WithError(err).Error("request failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.WithError(err).Error("write response")
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
