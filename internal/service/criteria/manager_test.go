package criteria_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"

	domain "iwitness/internal/domain/criteria"
	"iwitness/internal/domain/criteria/mocks"
	"iwitness/internal/service/criteria"
)

// eventRecorder collects everything published on the bus
type eventRecorder struct {
	mu       sync.Mutex
	subjects []string
	events   []domain.Event
}

func (r *eventRecorder) record(subject string, data []byte) error {
	var event domain.Event
	if err := json.Unmarshal(data, &event); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subjects = append(r.subjects, subject)
	r.events = append(r.events, event)
	return nil
}

func (r *eventRecorder) last() (string, domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return "", domain.Event{}
	}
	return r.subjects[len(r.subjects)-1], r.events[len(r.events)-1]
}

func newTestManager(t *testing.T, ctrl *gomock.Controller, store domain.SearchStore, geolocator domain.Geolocator, config criteria.ManagerConfig) (*criteria.Manager, *eventRecorder) {
	t.Helper()

	recorder := &eventRecorder{}
	bus := mocks.NewMockEventPublisher(ctrl)
	bus.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(recorder.record).AnyTimes()

	if config.Location == nil {
		config.Location = time.UTC
	}
	config.UseLocalTime = true

	var resolver *criteria.LocationResolver
	if geolocator != nil {
		resolver = criteria.NewLocationResolver(geolocator, criteria.LocationResolverConfig{}, nil)
	}

	m := criteria.NewManager(store, resolver, nil, fixedDistance(10000, nil), bus, config, nil)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = m.Stop(ctx)
	})
	return m, recorder
}

func strPtr(s string) *string { return &s }

func validUpdate() criteria.Update {
	return criteria.Update{
		RawStart:  strPtr("6/1/2013 2:30 PM"),
		RawEnd:    strPtr("6/1/2013 3:30 PM"),
		Center:    &domain.LatLng{0, 1},
		NorthEast: &domain.LatLng{2, 3},
		SouthWest: &domain.LatLng{-2, -1},
		Keyword:   strPtr("fire"),
	}
}

func TestManager_CreateAndGet(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m, recorder := newTestManager(t, ctrl, nil, nil, criteria.ManagerConfig{})
	ctx := context.Background()

	snap, err := m.Create(ctx, criteria.CreateOptions{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if snap.SessionID == "" {
		t.Fatalf("expected session id")
	}
	if snap.IsValid {
		t.Fatalf("new session must not be valid")
	}
	if m.Len() != 1 {
		t.Fatalf("unexpected session count: %d", m.Len())
	}

	subject, event := recorder.last()
	if subject != "criteria."+snap.SessionID+".created" || event.Type != domain.EventCreated {
		t.Fatalf("unexpected event: %s %+v", subject, event)
	}

	got, err := m.Get(ctx, snap.SessionID)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.SessionID != snap.SessionID {
		t.Fatalf("unexpected session: %s", got.SessionID)
	}

	if _, err := m.Get(ctx, "missing"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_CreateRespectsLimit(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m, _ := newTestManager(t, ctrl, nil, nil, criteria.ManagerConfig{MaxSessions: 1})
	ctx := context.Background()

	if _, err := m.Create(ctx, criteria.CreateOptions{}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := m.Create(ctx, criteria.CreateOptions{}); !errors.Is(err, domain.ErrTooManySessions) {
		t.Fatalf("expected ErrTooManySessions, got %v", err)
	}
}

func TestManager_CreateRespectsLimitConcurrently(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	const limit = 3
	m, _ := newTestManager(t, ctrl, nil, nil, criteria.ManagerConfig{MaxSessions: limit})
	ctx := context.Background()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		created  int
		rejected int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Create(ctx, criteria.CreateOptions{})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, domain.ErrTooManySessions):
				rejected++
			default:
				t.Errorf("unexpected err: %v", err)
			}
		}()
	}
	wg.Wait()

	if created != limit || rejected != 20-limit {
		t.Fatalf("unexpected outcome: created=%d rejected=%d", created, rejected)
	}
	if m.Len() != limit {
		t.Fatalf("unexpected session count: %d", m.Len())
	}
}

func TestManager_Update(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m, recorder := newTestManager(t, ctrl, nil, nil, criteria.ManagerConfig{})
	ctx := context.Background()

	created, _ := m.Create(ctx, criteria.CreateOptions{})

	snap, err := m.Update(ctx, created.SessionID, validUpdate())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !snap.IsValid {
		t.Fatalf("expected valid session, errors=%q", snap.Errors)
	}
	if snap.Radius != 10 || snap.SearchParams.Location != "0,1,10km" {
		t.Fatalf("unexpected radius: %d %q", snap.Radius, snap.SearchParams.Location)
	}
	if snap.StartTimeString != "2:30 PM" {
		t.Fatalf("unexpected start time: %q", snap.StartTimeString)
	}

	_, event := recorder.last()
	if event.Type != domain.EventUpdated || event.Snapshot == nil || !event.Snapshot.IsValid {
		t.Fatalf("unexpected event: %+v", event)
	}

	snap, err = m.Update(ctx, created.SessionID, criteria.Update{ClearSouthWest: true})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if snap.MapError != criteria.MsgSelectLocation {
		t.Fatalf("unexpected map error: %q", snap.MapError)
	}
}

func TestManager_UpdateRejectsBadTime(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m, _ := newTestManager(t, ctrl, nil, nil, criteria.ManagerConfig{})
	ctx := context.Background()

	created, _ := m.Create(ctx, criteria.CreateOptions{})

	_, err := m.Update(ctx, created.SessionID, criteria.Update{
		Keyword:  strPtr("fire"),
		RawStart: strPtr("yesterday"),
	})
	if !errors.Is(err, domain.ErrUnparsableTime) {
		t.Fatalf("expected ErrUnparsableTime, got %v", err)
	}

	snap, _ := m.Get(ctx, created.SessionID)
	if snap.Keyword != "" {
		t.Fatalf("rejected update must not be applied, keyword=%q", snap.Keyword)
	}

	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	_, err = m.Update(ctx, created.SessionID, criteria.Update{
		Location: ny,
		RawStart: strPtr("garbage"),
	})
	if !errors.Is(err, domain.ErrUnparsableTime) {
		t.Fatalf("expected ErrUnparsableTime, got %v", err)
	}

	snap, _ = m.Get(ctx, created.SessionID)
	if snap.Timezone != "UTC" {
		t.Fatalf("rejected update must not change the timezone, got %q", snap.Timezone)
	}
}

func TestManager_UpdateParsesRawTimesInNewTimezone(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m, _ := newTestManager(t, ctrl, nil, nil, criteria.ManagerConfig{})
	ctx := context.Background()

	created, _ := m.Create(ctx, criteria.CreateOptions{})

	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	snap, err := m.Update(ctx, created.SessionID, criteria.Update{
		Location: ny,
		RawStart: strPtr("6/1/2013 2:30 PM"),
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if snap.Timezone != "America/New_York" || snap.StartTimeString != "2:30 PM" {
		t.Fatalf("unexpected start: tz=%q time=%q", snap.Timezone, snap.StartTimeString)
	}
	if want := time.Date(2013, 6, 1, 18, 30, 0, 0, time.UTC); snap.Start == nil || !snap.Start.Equal(want) {
		t.Fatalf("unexpected start instant: got=%v want=%v", snap.Start, want)
	}
}

func TestManager_Zoom(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m, _ := newTestManager(t, ctrl, nil, nil, criteria.ManagerConfig{})
	ctx := context.Background()

	created, _ := m.Create(ctx, criteria.CreateOptions{})

	snap, _ := m.ZoomIn(ctx, created.SessionID)
	if snap.Zoom != 2 {
		t.Fatalf("unexpected zoom: %d", snap.Zoom)
	}
	snap, _ = m.ZoomOut(ctx, created.SessionID)
	snap, _ = m.ZoomOut(ctx, created.SessionID)
	if snap.Zoom != criteria.MinZoom {
		t.Fatalf("unexpected zoom: %d", snap.Zoom)
	}
}

func TestManager_SearchInvalid(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockSearchStore(ctrl)
	store.EXPECT().SaveSearch(gomock.Any(), gomock.Any()).Times(0)

	m, _ := newTestManager(t, ctrl, store, nil, criteria.ManagerConfig{})
	ctx := context.Background()

	created, _ := m.Create(ctx, criteria.CreateOptions{})

	_, err := m.Search(ctx, created.SessionID)
	if !errors.Is(err, domain.ErrInvalidCriteria) {
		t.Fatalf("expected ErrInvalidCriteria, got %v", err)
	}

	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	want := []string{criteria.MsgSelectStartDate, criteria.MsgSelectEndDate, criteria.MsgSelectLocation}
	if strings.Join(verr.Messages, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected messages: %q", verr.Messages)
	}
}

func TestManager_Search(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockSearchStore(ctrl)

	m, recorder := newTestManager(t, ctrl, store, nil, criteria.ManagerConfig{})
	ctx := context.Background()

	created, _ := m.Create(ctx, criteria.CreateOptions{})
	if _, err := m.Update(ctx, created.SessionID, validUpdate()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	var saved domain.SearchRecord
	store.EXPECT().
		SaveSearch(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, record domain.SearchRecord) error {
			saved = record
			return nil
		}).
		Times(1)

	record, err := m.Search(ctx, created.SessionID)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if record.ID == "" || record.ID != saved.ID {
		t.Fatalf("unexpected record id: %q saved=%q", record.ID, saved.ID)
	}
	if record.SessionID != created.SessionID || record.RadiusKm != 10 || record.Center != (domain.LatLng{0, 1}) {
		t.Fatalf("unexpected record: %+v", record)
	}
	if record.Params.Keyword != "fire" || record.Params.Start == nil {
		t.Fatalf("unexpected params: %+v", record.Params)
	}

	subject, event := recorder.last()
	if subject != "criteria."+created.SessionID+".search" || event.Search == nil || event.Search.ID != record.ID {
		t.Fatalf("unexpected event: %s %+v", subject, event)
	}
}

func TestManager_SearchStoreError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	wantErr := errors.New("db down")
	store := mocks.NewMockSearchStore(ctrl)
	store.EXPECT().SaveSearch(gomock.Any(), gomock.Any()).Return(wantErr)

	m, _ := newTestManager(t, ctrl, store, nil, criteria.ManagerConfig{})
	ctx := context.Background()

	created, _ := m.Create(ctx, criteria.CreateOptions{})
	_, _ = m.Update(ctx, created.SessionID, validUpdate())

	if _, err := m.Search(ctx, created.SessionID); !errors.Is(err, wantErr) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestManager_Close(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m, recorder := newTestManager(t, ctrl, nil, nil, criteria.ManagerConfig{})
	ctx := context.Background()

	created, _ := m.Create(ctx, criteria.CreateOptions{})

	if err := m.Close(ctx, created.SessionID); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if m.Len() != 0 {
		t.Fatalf("unexpected session count: %d", m.Len())
	}
	if _, event := recorder.last(); event.Type != domain.EventClosed {
		t.Fatalf("unexpected event: %+v", event)
	}
	if err := m.Close(ctx, created.SessionID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_DefaultLocationApplied(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	geolocator := mocks.NewMockGeolocator(ctrl)
	geolocator.EXPECT().
		Locate(gomock.Any()).
		Return(&domain.Geolocation{Latitude: floatPtr(4), Longitude: floatPtr(5)}, nil)

	m, _ := newTestManager(t, ctrl, nil, geolocator, criteria.ManagerConfig{})
	ctx := context.Background()

	created, _ := m.Create(ctx, criteria.CreateOptions{ResolveLocation: true})

	snap := waitFor(t, func() (domain.Snapshot, bool) {
		snap, _ := m.Get(ctx, created.SessionID)
		return snap, snap.Center != nil
	})
	if *snap.Center != (domain.LatLng{4, 5}) || snap.Zoom != 9 {
		t.Fatalf("unexpected location: %v zoom=%d", snap.Center, snap.Zoom)
	}
}

func TestManager_DefaultLocationSupersededByUser(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	started := make(chan struct{})
	geolocator := mocks.NewMockGeolocator(ctrl)
	geolocator.EXPECT().
		Locate(gomock.Any()).
		DoAndReturn(func(ctx context.Context) (*domain.Geolocation, error) {
			close(started)
			<-ctx.Done()
			return &domain.Geolocation{Latitude: floatPtr(4), Longitude: floatPtr(5)}, nil
		})

	m, _ := newTestManager(t, ctrl, nil, geolocator, criteria.ManagerConfig{})
	ctx := context.Background()

	created, _ := m.Create(ctx, criteria.CreateOptions{ResolveLocation: true})
	<-started

	if _, err := m.Update(ctx, created.SessionID, criteria.Update{Center: &domain.LatLng{10, 20}}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := m.Stop(stopCtx); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	snap, _ := m.Get(ctx, created.SessionID)
	if snap.Center == nil || *snap.Center != (domain.LatLng{10, 20}) {
		t.Fatalf("user center was overwritten: %v", snap.Center)
	}
}

func TestManager_ResolveDefaultCenter(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	geolocator := mocks.NewMockGeolocator(ctrl)
	geolocator.EXPECT().Locate(gomock.Any()).Return(nil, errors.New("boom"))

	m, _ := newTestManager(t, ctrl, nil, geolocator, criteria.ManagerConfig{})
	ctx := context.Background()

	created, _ := m.Create(ctx, criteria.CreateOptions{})

	snap, err := m.ResolveDefaultCenter(ctx, created.SessionID)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if snap.Center == nil || *snap.Center != criteria.FallbackLocation.Center || snap.Zoom != 11 {
		t.Fatalf("unexpected location: %v zoom=%d", snap.Center, snap.Zoom)
	}
}

func TestManager_ResolveDefaultCenterCancelsPendingLookup(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	started := make(chan struct{})
	cancelled := make(chan struct{})
	geolocator := mocks.NewMockGeolocator(ctrl)
	gomock.InOrder(
		geolocator.EXPECT().
			Locate(gomock.Any()).
			DoAndReturn(func(ctx context.Context) (*domain.Geolocation, error) {
				close(started)
				<-ctx.Done()
				close(cancelled)
				return &domain.Geolocation{Latitude: floatPtr(4), Longitude: floatPtr(5)}, nil
			}),
		geolocator.EXPECT().
			Locate(gomock.Any()).
			Return(&domain.Geolocation{Latitude: floatPtr(6), Longitude: floatPtr(7)}, nil),
	)

	m, _ := newTestManager(t, ctrl, nil, geolocator, criteria.ManagerConfig{})
	ctx := context.Background()

	created, _ := m.Create(ctx, criteria.CreateOptions{ResolveLocation: true})
	<-started

	snap, err := m.ResolveDefaultCenter(ctx, created.SessionID)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatalf("background lookup was not cancelled")
	}

	if snap.Center == nil || *snap.Center != (domain.LatLng{6, 7}) {
		t.Fatalf("unexpected center: %v", snap.Center)
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := m.Stop(stopCtx); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	snap, _ = m.Get(ctx, created.SessionID)
	if snap.Center == nil || *snap.Center != (domain.LatLng{6, 7}) {
		t.Fatalf("cancelled lookup overwrote the center: %v", snap.Center)
	}
}

func TestManager_EvictsIdleSessions(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m, _ := newTestManager(t, ctrl, nil, nil, criteria.ManagerConfig{
		IdleTimeout:        20 * time.Millisecond,
		MonitoringInterval: 10 * time.Millisecond,
	})

	if _, err := m.Create(context.Background(), criteria.CreateOptions{}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for m.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("idle session was not evicted")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func waitFor(t *testing.T, check func() (domain.Snapshot, bool)) domain.Snapshot {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for {
		snap, ok := check()
		if ok {
			return snap
		}
		if time.Now().After(deadline) {
			t.Fatalf("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
