package geofence

import (
	"sync"

	"geo-reminders/internal/model"

	"github.com/sirupsen/logrus"
)

// Monitor tracks reported device locations against the registered region
// set and fires the enter handler on every outside→inside transition. It
// stands in for the platform region-monitoring service: registration is a
// batch replace, enter events are delivered at least once, and both the
// permission gate and the concurrent-region ceiling are enforced here.
type Monitor struct {
	mu      sync.Mutex
	granted bool
	limit   int
	regions map[string]model.GeofenceRegion
	inside  map[string]bool
	handler func(regionID string)
	logger  *logrus.Logger
}

func NewMonitor(limit int, granted bool, logger *logrus.Logger) *Monitor {
	return &Monitor{
		granted: granted,
		limit:   limit,
		regions: make(map[string]model.GeofenceRegion),
		inside:  make(map[string]bool),
		logger:  logger,
	}
}

// SetEnterHandler registers the callback invoked with a region id on each
// entry event. The callback runs on the location-report path and must not
// block for long.
func (m *Monitor) SetEnterHandler(fn func(regionID string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = fn
}

// Replace swaps the monitored set for exactly the given regions. Inside
// state carries over for ids that stay registered, so re-registering does
// not re-fire regions the device is already in.
func (m *Monitor) Replace(regions []model.GeofenceRegion) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.granted {
		return model.ErrPermissionDenied
	}
	if len(regions) > m.limit {
		return model.ErrRegionLimitExceeded
	}

	next := make(map[string]model.GeofenceRegion, len(regions))
	nextInside := make(map[string]bool, len(regions))
	for _, r := range regions {
		next[r.ID] = r
		if m.inside[r.ID] {
			nextInside[r.ID] = true
		}
	}

	m.regions = next
	m.inside = nextInside
	return nil
}

// SetPermission flips the region-monitoring permission state. Revoking
// clears the monitored set, matching the platform dropping registrations
// when authorization is withdrawn.
func (m *Monitor) SetPermission(granted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.granted = granted
	if !granted {
		m.regions = make(map[string]model.GeofenceRegion)
		m.inside = make(map[string]bool)
	}
}

// UpdateLocation reports a device position and returns the ids of all
// regions containing it. Enter handlers fire for regions the device just
// moved into.
func (m *Monitor) UpdateLocation(lat, lon float64) []string {
	m.mu.Lock()

	var contained []string
	var entered []string
	for id, region := range m.regions {
		in := haversineMeters(lat, lon, region.Latitude, region.Longitude) <= float64(region.RadiusM)
		if in {
			contained = append(contained, id)
			if !m.inside[id] {
				entered = append(entered, id)
			}
		}
		m.inside[id] = in
	}
	handler := m.handler
	m.mu.Unlock()

	for _, id := range entered {
		m.logger.WithField("region_id", id).Info("region entered")
		if handler != nil {
			handler(id)
		}
	}
	return contained
}
