package geofence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"geo-reminders/internal/model"

	"github.com/sirupsen/logrus"
)

type Store interface {
	GetByID(ctx context.Context, id string) (*model.Reminder, error)
	MarkTriggered(ctx context.Context, id string) error
}

type Dispatcher interface {
	Dispatch(ctx context.Context, title, body string, data map[string]string) (string, error)
}

type RegionMonitor interface {
	Replace(regions []model.GeofenceRegion) error
}

// TriggerRecorder keeps the recent-trigger window backing the stats
// endpoint.
type TriggerRecorder interface {
	RecordTrigger(ctx context.Context, reminderID string, at time.Time) error
}

// Pipeline keeps the monitored-region set synchronized with the active
// reminders and converts region-enter events into notifications.
type Pipeline struct {
	store      Store
	dispatcher Dispatcher
	monitor    RegionMonitor
	recorder   TriggerRecorder
	logger     *logrus.Logger
}

func NewPipeline(store Store, dispatcher Dispatcher, monitor RegionMonitor, recorder TriggerRecorder, logger *logrus.Logger) *Pipeline {
	return &Pipeline{
		store:      store,
		dispatcher: dispatcher,
		monitor:    monitor,
		recorder:   recorder,
		logger:     logger,
	}
}

// SynchronizeRegions replaces the monitored set with the projection of
// every active reminder. Full replace, no diffing: the monitored set can
// never drift from the active set. Missing location permission is a logged
// no-op; exceeding the region ceiling is surfaced to the caller.
func (p *Pipeline) SynchronizeRegions(ctx context.Context, reminders []model.Reminder) error {
	regions := make([]model.GeofenceRegion, 0, len(reminders))
	for _, r := range reminders {
		if !r.Active {
			continue
		}
		regions = append(regions, model.GeofenceRegion{
			ID:        r.ID,
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
			RadiusM:   r.RadiusM,
		})
	}

	err := p.monitor.Replace(regions)
	switch {
	case errors.Is(err, model.ErrPermissionDenied):
		p.logger.Warn("location permission not granted, skipping region registration")
		return nil
	case errors.Is(err, model.ErrRegionLimitExceeded):
		p.logger.WithField("regions", len(regions)).Error("active reminders exceed the monitored-region limit")
		return err
	case err != nil:
		return fmt.Errorf("replace monitored regions: %w", err)
	}

	p.logger.WithField("regions", len(regions)).Info("monitored regions synchronized")
	return nil
}

// OnRegionEnter handles a region-enter event from the monitor. The
// platform may redeliver events, so the handler is idempotent per call and
// never propagates failures: an unhandled error here could kill the
// background execution context that invoked it.
func (p *Pipeline) OnRegionEnter(ctx context.Context, regionID string) {
	rem, err := p.store.GetByID(ctx, regionID)
	if err != nil {
		p.logger.WithError(err).WithField("region_id", regionID).Error("lookup reminder for region enter")
		return
	}
	if rem == nil || !rem.Active {
		p.logger.WithField("region_id", regionID).Debug("dropping enter event for unknown or inactive reminder")
		return
	}

	if _, err := p.dispatcher.Dispatch(ctx, rem.NotificationTitle, rem.NotificationBody, map[string]string{"reminder_id": rem.ID}); err != nil {
		p.logger.WithError(err).WithField("reminder_id", rem.ID).Error("dispatch reminder notification")
	}

	if err := p.store.MarkTriggered(ctx, regionID); err != nil {
		p.logger.WithError(err).WithField("reminder_id", rem.ID).Error("mark reminder triggered")
	}

	if p.recorder != nil {
		if err := p.recorder.RecordTrigger(ctx, regionID, time.Now().UTC()); err != nil {
			p.logger.WithError(err).WithField("reminder_id", rem.ID).Warn("record trigger event")
		}
	}
}
