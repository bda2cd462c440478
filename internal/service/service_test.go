package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"geo-reminders/internal/model"

	"github.com/sirupsen/logrus"
)

type fakeStorage struct {
	reminders map[string]*model.Reminder
	order     []string
	pingErr   error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{reminders: map[string]*model.Reminder{}}
}

func (f *fakeStorage) Create(ctx context.Context, r *model.Reminder) (string, error) {
	r.ID = "r" + time.Now().Format("150405.000000000")
	r.CreatedAt = time.Now().UTC()
	cp := *r
	f.reminders[r.ID] = &cp
	f.order = append(f.order, r.ID)
	return r.ID, nil
}

func (f *fakeStorage) GetAll(ctx context.Context) ([]model.Reminder, error) {
	var out []model.Reminder
	for i := len(f.order) - 1; i >= 0; i-- {
		if r, ok := f.reminders[f.order[i]]; ok {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeStorage) List(ctx context.Context, page, pageSize int) ([]model.Reminder, error) {
	return f.GetAll(ctx)
}

func (f *fakeStorage) GetByID(ctx context.Context, id string) (*model.Reminder, error) {
	r, ok := f.reminders[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (f *fakeStorage) Update(ctx context.Context, id string, upd model.ReminderUpdate) error {
	r, ok := f.reminders[id]
	if !ok {
		return model.ErrNotFound
	}
	if upd.Title != nil {
		r.Title = *upd.Title
	}
	if upd.Latitude != nil {
		r.Latitude = *upd.Latitude
	}
	if upd.Longitude != nil {
		r.Longitude = *upd.Longitude
	}
	if upd.RadiusM != nil {
		r.RadiusM = *upd.RadiusM
	}
	if upd.Address != nil {
		r.Address = *upd.Address
	}
	if upd.Active != nil {
		r.Active = *upd.Active
	}
	return nil
}

func (f *fakeStorage) Delete(ctx context.Context, id string) error {
	delete(f.reminders, id)
	return nil
}

func (f *fakeStorage) Ping(ctx context.Context) error { return f.pingErr }

type fakeGeocoder struct {
	addr string
	err  error
}

func (f *fakeGeocoder) Lookup(ctx context.Context, lat, lon float64) (string, error) {
	return f.addr, f.err
}

type fakeSyncer struct {
	synced [][]model.Reminder
}

func (f *fakeSyncer) SynchronizeRegions(ctx context.Context, reminders []model.Reminder) error {
	f.synced = append(f.synced, reminders)
	return nil
}

type fakeLocations struct{ ids []string }

func (f *fakeLocations) UpdateLocation(lat, lon float64) []string { return f.ids }

type fakeStats struct {
	count   int
	pingErr error
}

func (f *fakeStats) CountTriggersSince(ctx context.Context, since time.Time) (int, error) {
	return f.count, nil
}

func (f *fakeStats) Ping(ctx context.Context) error { return f.pingErr }

func newTestService(storage *fakeStorage, geocoder *fakeGeocoder, syncer *fakeSyncer) *ReminderService {
	return NewReminderService(storage, geocoder, syncer, &fakeLocations{}, &fakeStats{}, logrus.New())
}

func validReminder() *model.Reminder {
	return &model.Reminder{
		Title:             "Grab keys",
		Latitude:          37.7749,
		Longitude:         -122.4194,
		RadiusM:           50,
		NotificationTitle: "Don't forget!",
		NotificationBody:  "Grab your keys",
	}
}

func TestCreateReminderClampsRadius(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{5, 10},
		{10, 10},
		{50, 50},
		{1000, 1000},
		{2000, 1000},
	}

	for _, tc := range cases {
		storage := newFakeStorage()
		svc := newTestService(storage, &fakeGeocoder{addr: "somewhere"}, &fakeSyncer{})

		r := validReminder()
		r.RadiusM = tc.in
		if err := svc.CreateReminder(context.Background(), r); err != nil {
			t.Fatalf("create with radius %d: %v", tc.in, err)
		}
		if storage.reminders[r.ID].RadiusM != tc.want {
			t.Errorf("radius %d: want stored %d, got %d", tc.in, tc.want, storage.reminders[r.ID].RadiusM)
		}
	}
}

func TestCreateReminderGeocodeFallback(t *testing.T) {
	storage := newFakeStorage()
	svc := newTestService(storage, &fakeGeocoder{err: errors.New("timeout")}, &fakeSyncer{})

	r := validReminder()
	if err := svc.CreateReminder(context.Background(), r); err != nil {
		t.Fatalf("create: %v", err)
	}

	want := "37.774900, -122.419400"
	if storage.reminders[r.ID].Address != want {
		t.Fatalf("expected fallback address %q, got %q", want, storage.reminders[r.ID].Address)
	}
}

func TestCreateReminderGeocodeSuccess(t *testing.T) {
	storage := newFakeStorage()
	svc := newTestService(storage, &fakeGeocoder{addr: "Market St, San Francisco"}, &fakeSyncer{})

	r := validReminder()
	if err := svc.CreateReminder(context.Background(), r); err != nil {
		t.Fatalf("create: %v", err)
	}
	if storage.reminders[r.ID].Address != "Market St, San Francisco" {
		t.Fatalf("expected geocoded address, got %q", storage.reminders[r.ID].Address)
	}
}

func TestCreateReminderValidation(t *testing.T) {
	svc := newTestService(newFakeStorage(), &fakeGeocoder{addr: "x"}, &fakeSyncer{})
	ctx := context.Background()

	r := validReminder()
	r.Title = ""
	if err := svc.CreateReminder(ctx, r); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty title, got %v", err)
	}

	r = validReminder()
	r.NotificationBody = ""
	if err := svc.CreateReminder(ctx, r); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty notification body, got %v", err)
	}
}

func TestCreateReminderResyncsRegions(t *testing.T) {
	syncer := &fakeSyncer{}
	svc := newTestService(newFakeStorage(), &fakeGeocoder{addr: "x"}, syncer)

	if err := svc.CreateReminder(context.Background(), validReminder()); err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(syncer.synced) != 1 || len(syncer.synced[0]) != 1 {
		t.Fatalf("expected one sync with one reminder, got %+v", syncer.synced)
	}
}

func TestToggleActiveResyncs(t *testing.T) {
	storage := newFakeStorage()
	syncer := &fakeSyncer{}
	svc := newTestService(storage, &fakeGeocoder{addr: "x"}, syncer)
	ctx := context.Background()

	r := validReminder()
	if err := svc.CreateReminder(ctx, r); err != nil {
		t.Fatalf("create: %v", err)
	}

	active := false
	if _, err := svc.UpdateReminder(ctx, r.ID, model.ReminderUpdate{Active: &active}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	last := syncer.synced[len(syncer.synced)-1]
	if len(last) != 1 || last[0].Active {
		t.Fatalf("expected resync with the reminder deactivated, got %+v", last)
	}

	active = true
	if _, err := svc.UpdateReminder(ctx, r.ID, model.ReminderUpdate{Active: &active}); err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	last = syncer.synced[len(syncer.synced)-1]
	if len(last) != 1 || !last[0].Active {
		t.Fatalf("expected resync with the reminder reactivated, got %+v", last)
	}
}

func TestUpdateReminderClampsRadius(t *testing.T) {
	storage := newFakeStorage()
	svc := newTestService(storage, &fakeGeocoder{addr: "x"}, &fakeSyncer{})
	ctx := context.Background()

	r := validReminder()
	if err := svc.CreateReminder(ctx, r); err != nil {
		t.Fatalf("create: %v", err)
	}

	radius := 2000
	got, err := svc.UpdateReminder(ctx, r.ID, model.ReminderUpdate{RadiusM: &radius})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.RadiusM != 1000 {
		t.Fatalf("expected radius clamped to 1000, got %d", got.RadiusM)
	}
}

func TestUpdateReminderRegeocodesOnMove(t *testing.T) {
	storage := newFakeStorage()
	geocoder := &fakeGeocoder{err: errors.New("unreachable")}
	svc := newTestService(storage, geocoder, &fakeSyncer{})
	ctx := context.Background()

	r := validReminder()
	r.Address = "preset"
	if err := svc.CreateReminder(ctx, r); err != nil {
		t.Fatalf("create: %v", err)
	}

	lat := 40.712800
	got, err := svc.UpdateReminder(ctx, r.ID, model.ReminderUpdate{Latitude: &lat})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	want := "40.712800, -122.419400"
	if got.Address != want {
		t.Fatalf("expected re-resolved fallback address %q, got %q", want, got.Address)
	}
}

func TestUpdateMissingReminder(t *testing.T) {
	svc := newTestService(newFakeStorage(), &fakeGeocoder{addr: "x"}, &fakeSyncer{})

	title := "new"
	_, err := svc.UpdateReminder(context.Background(), "ghost", model.ReminderUpdate{Title: &title})
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteReminderResyncs(t *testing.T) {
	storage := newFakeStorage()
	syncer := &fakeSyncer{}
	svc := newTestService(storage, &fakeGeocoder{addr: "x"}, syncer)
	ctx := context.Background()

	r := validReminder()
	if err := svc.CreateReminder(ctx, r); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.DeleteReminder(ctx, r.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	last := syncer.synced[len(syncer.synced)-1]
	if len(last) != 0 {
		t.Fatalf("expected empty region set after delete, got %+v", last)
	}
}

func TestHealthCheck(t *testing.T) {
	storage := newFakeStorage()
	stats := &fakeStats{}
	svc := NewReminderService(storage, &fakeGeocoder{addr: "x"}, &fakeSyncer{}, &fakeLocations{}, stats, logrus.New())

	if herr := svc.HealthCheck(context.Background()); herr != nil {
		t.Fatalf("expected healthy, got %+v", herr)
	}

	stats.pingErr = errors.New("redis down")
	herr := svc.HealthCheck(context.Background())
	if herr == nil || herr.RedisError == nil || herr.DBError != nil {
		t.Fatalf("expected redis-only degradation, got %+v", herr)
	}
}
