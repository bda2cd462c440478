package service

import (
	"context"
	"fmt"
	"time"

	"geo-reminders/internal/geocode"
	"geo-reminders/internal/model"

	"github.com/sirupsen/logrus"
)

type Storage interface {
	Create(ctx context.Context, r *model.Reminder) (string, error)
	GetAll(ctx context.Context) ([]model.Reminder, error)
	List(ctx context.Context, page, pageSize int) ([]model.Reminder, error)
	GetByID(ctx context.Context, id string) (*model.Reminder, error)
	Update(ctx context.Context, id string, upd model.ReminderUpdate) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

type Geocoder interface {
	Lookup(ctx context.Context, lat, lon float64) (string, error)
}

type RegionSyncer interface {
	SynchronizeRegions(ctx context.Context, reminders []model.Reminder) error
}

// LocationSource accepts device position reports and returns the ids of
// the monitored regions containing the point.
type LocationSource interface {
	UpdateLocation(lat, lon float64) []string
}

type TriggerStats interface {
	CountTriggersSince(ctx context.Context, since time.Time) (int, error)
	Ping(ctx context.Context) error
}

type HealthError struct {
	DBError    error
	RedisError error
}

type ReminderService struct {
	storage  Storage
	geocoder Geocoder
	pipeline RegionSyncer
	monitor  LocationSource
	stats    TriggerStats
	logger   *logrus.Logger
}

func NewReminderService(storage Storage, geocoder Geocoder, pipeline RegionSyncer, monitor LocationSource, stats TriggerStats, logger *logrus.Logger) *ReminderService {
	return &ReminderService{
		storage:  storage,
		geocoder: geocoder,
		pipeline: pipeline,
		monitor:  monitor,
		stats:    stats,
		logger:   logger,
	}
}

// CreateReminder validates, geocodes and persists a new reminder, then
// re-registers the monitored regions. A failed region sync does not undo
// the write; only the region-limit condition is surfaced to the caller.
func (rs *ReminderService) CreateReminder(ctx context.Context, r *model.Reminder) error {
	if r.Title == "" {
		return fmt.Errorf("%w: title is required", model.ErrValidation)
	}
	if r.NotificationTitle == "" || r.NotificationBody == "" {
		return fmt.Errorf("%w: notification title and body are required", model.ErrValidation)
	}

	r.RadiusM = clampRadius(r.RadiusM)
	r.Active = true

	if r.Address == "" {
		r.Address = rs.resolveAddress(ctx, r.Latitude, r.Longitude)
	}

	if _, err := rs.storage.Create(ctx, r); err != nil {
		rs.logger.WithError(err).Warn("failed to create reminder")
		return err
	}

	return rs.resync(ctx)
}

func (rs *ReminderService) GetReminders(ctx context.Context) ([]model.Reminder, error) {
	return rs.storage.GetAll(ctx)
}

func (rs *ReminderService) ListReminders(ctx context.Context, page, pageSize int) ([]model.Reminder, error) {
	return rs.storage.List(ctx, page, pageSize)
}

func (rs *ReminderService) GetReminderByID(ctx context.Context, id string) (*model.Reminder, error) {
	return rs.storage.GetByID(ctx, id)
}

// UpdateReminder applies a partial update and re-registers the monitored
// regions. Moving the coordinate without supplying an address re-resolves
// it.
func (rs *ReminderService) UpdateReminder(ctx context.Context, id string, upd model.ReminderUpdate) (*model.Reminder, error) {
	if upd.Title != nil && *upd.Title == "" {
		return nil, fmt.Errorf("%w: title is required", model.ErrValidation)
	}
	if upd.RadiusM != nil {
		clamped := clampRadius(*upd.RadiusM)
		upd.RadiusM = &clamped
	}

	if (upd.Latitude != nil || upd.Longitude != nil) && upd.Address == nil {
		current, err := rs.storage.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, model.ErrNotFound
		}
		lat, lon := current.Latitude, current.Longitude
		if upd.Latitude != nil {
			lat = *upd.Latitude
		}
		if upd.Longitude != nil {
			lon = *upd.Longitude
		}
		addr := rs.resolveAddress(ctx, lat, lon)
		upd.Address = &addr
	}

	if err := rs.storage.Update(ctx, id, upd); err != nil {
		return nil, err
	}

	if err := rs.resync(ctx); err != nil {
		return nil, err
	}
	return rs.storage.GetByID(ctx, id)
}

func (rs *ReminderService) DeleteReminder(ctx context.Context, id string) error {
	if err := rs.storage.Delete(ctx, id); err != nil {
		return err
	}
	return rs.resync(ctx)
}

// ReportLocation feeds a device position into the region monitor and
// returns the ids of the regions it falls in.
func (rs *ReminderService) ReportLocation(ctx context.Context, req model.LocationRequest) (model.LocationResponse, error) {
	ids := rs.monitor.UpdateLocation(req.Latitude, req.Longitude)
	return model.LocationResponse{
		LocationRequest: req,
		RegionIDs:       ids,
	}, nil
}

func (rs *ReminderService) GetTriggerStats(ctx context.Context, minutes int) (int, error) {
	since := time.Now().UTC().Add(-time.Duration(minutes) * time.Minute)
	return rs.stats.CountTriggersSince(ctx, since)
}

func (rs *ReminderService) HealthCheck(ctx context.Context) *HealthError {
	dbErr := rs.storage.Ping(ctx)
	var redisErr error
	if rs.stats != nil {
		redisErr = rs.stats.Ping(ctx)
	}
	if dbErr == nil && redisErr == nil {
		return nil
	}
	return &HealthError{DBError: dbErr, RedisError: redisErr}
}

// Resync pushes the current active set to the region monitor. Called once
// at bootstrap and after every mutation.
func (rs *ReminderService) Resync(ctx context.Context) error {
	return rs.resync(ctx)
}

func (rs *ReminderService) resync(ctx context.Context) error {
	reminders, err := rs.storage.GetAll(ctx)
	if err != nil {
		return err
	}
	return rs.pipeline.SynchronizeRegions(ctx, reminders)
}

func (rs *ReminderService) resolveAddress(ctx context.Context, lat, lon float64) string {
	addr, err := rs.geocoder.Lookup(ctx, lat, lon)
	if err != nil {
		rs.logger.WithError(err).Warn("reverse geocoding failed, falling back to coordinates")
		return geocode.FormatCoordinates(lat, lon)
	}
	return addr
}

func clampRadius(radius int) int {
	if radius < model.MinRadiusM {
		return model.MinRadiusM
	}
	if radius > model.MaxRadiusM {
		return model.MaxRadiusM
	}
	return radius
}
