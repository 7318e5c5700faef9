// internal/service/criteria/manager.go

package criteria

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"iwitness/internal/domain/criteria"
)

// ManagerConfig contains configuration for the session manager
type ManagerConfig struct {
	EventsTopic        string
	IdleTimeout        time.Duration
	MonitoringInterval time.Duration
	MaxSessions        int
	MaxRadiusKm        int
	Location           *time.Location
	UseLocalTime       bool
	Stream             bool
}

// CreateOptions override the per-session defaults
type CreateOptions struct {
	Location        *time.Location
	UseLocalTime    *bool
	Stream          *bool
	ResolveLocation bool
}

// Update is a partial change of a session's raw fields. Nil fields are left alone.
type Update struct {
	StartDateString *string
	StartTimeString *string
	EndDateString   *string
	EndTimeString   *string
	RawStart        *string
	RawEnd          *string
	UseLocalTime    *bool
	Location        *time.Location
	Center          *criteria.LatLng
	NorthEast       *criteria.LatLng
	SouthWest       *criteria.LatLng
	ClearCenter     bool
	ClearNorthEast  bool
	ClearSouthWest  bool
	Zoom            *int
	Keyword         *string
	Stream          *bool
}

// session is one owned criteria model. mu guards every field.
type session struct {
	id           string
	mu           sync.Mutex
	model        *Model
	createdAt    time.Time
	lastActive   time.Time
	cancelLookup context.CancelFunc
}

// Manager owns the criteria model of every active search session
type Manager struct {
	store    criteria.SearchStore
	resolver *LocationResolver
	offsets  criteria.OffsetService
	distance criteria.DistanceFunc
	eventBus criteria.EventPublisher
	config   ManagerConfig
	logger   *slog.Logger
	sessions sync.Map
	count    atomic.Int64
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewManager creates a new session manager
func NewManager(
	store criteria.SearchStore,
	resolver *LocationResolver,
	offsets criteria.OffsetService,
	distance criteria.DistanceFunc,
	eventBus criteria.EventPublisher,
	config ManagerConfig,
	logger *slog.Logger,
) *Manager {
	if config.EventsTopic == "" {
		config.EventsTopic = "criteria"
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	if resolver == nil {
		resolver = NewLocationResolver(nil, LocationResolverConfig{}, logger)
	}

	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		store:    store,
		resolver: resolver,
		offsets:  offsets,
		distance: distance,
		eventBus: eventBus,
		config:   config,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}

	if config.MonitoringInterval > 0 && config.IdleTimeout > 0 {
		m.wg.Add(1)
		go m.monitorIdleSessions()
	}

	return m
}

// Create starts a new search session
func (m *Manager) Create(ctx context.Context, opts CreateOptions) (criteria.Snapshot, error) {
	// reserve the slot before building the session
	if n := m.count.Add(1); m.config.MaxSessions > 0 && n > int64(m.config.MaxSessions) {
		m.count.Add(-1)
		return criteria.Snapshot{}, criteria.ErrTooManySessions
	}

	modelConfig := ModelConfig{
		Location:     m.config.Location,
		UseLocalTime: m.config.UseLocalTime,
		Stream:       m.config.Stream,
		MaxRadiusKm:  m.config.MaxRadiusKm,
		Offsets:      m.offsets,
		Distance:     m.distance,
		Logger:       m.logger,
	}
	if opts.Location != nil {
		modelConfig.Location = opts.Location
	}
	if opts.UseLocalTime != nil {
		modelConfig.UseLocalTime = *opts.UseLocalTime
	}
	if opts.Stream != nil {
		modelConfig.Stream = *opts.Stream
	}

	now := time.Now()
	s := &session{
		id:         uuid.New().String(),
		model:      NewModel(modelConfig),
		createdAt:  now,
		lastActive: now,
	}

	m.sessions.Store(s.id, s)

	m.logger.Info("search session created", slog.String("session_id", s.id))

	s.mu.Lock()
	snap := m.snapshot(ctx, s)
	s.mu.Unlock()

	m.publish(criteria.Event{Type: criteria.EventCreated, SessionID: s.id, Snapshot: &snap})

	if opts.ResolveLocation {
		m.resolveDefaultCenterAsync(ctx, s)
	}

	return snap, nil
}

// Get returns the current state of a session
func (m *Manager) Get(ctx context.Context, id string) (criteria.Snapshot, error) {
	s, err := m.lookup(id)
	if err != nil {
		return criteria.Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastActive = time.Now()
	return m.snapshot(ctx, s), nil
}

// Update applies a partial change to a session
func (m *Manager) Update(ctx context.Context, id string, u Update) (criteria.Snapshot, error) {
	return m.mutate(ctx, id, func(s *session) error {
		return m.apply(s, u)
	})
}

// ZoomIn increments the session's zoom level
func (m *Manager) ZoomIn(ctx context.Context, id string) (criteria.Snapshot, error) {
	return m.mutate(ctx, id, func(s *session) error {
		s.model.ZoomIn()
		return nil
	})
}

// ZoomOut decrements the session's zoom level
func (m *Manager) ZoomOut(ctx context.Context, id string) (criteria.Snapshot, error) {
	return m.mutate(ctx, id, func(s *session) error {
		s.model.ZoomOut()
		return nil
	})
}

// ResolveDefaultCenter looks up the viewer's location and applies it, unless
// the user moves the map while the lookup is in flight
func (m *Manager) ResolveDefaultCenter(ctx context.Context, id string) (criteria.Snapshot, error) {
	s, err := m.lookup(id)
	if err != nil {
		return criteria.Snapshot{}, err
	}

	s.mu.Lock()
	m.cancelPendingLookup(s)
	version := s.model.CenterVersion()
	s.mu.Unlock()

	loc := m.resolver.Resolve(ctx)

	return m.mutate(ctx, id, func(s *session) error {
		if !s.model.ApplyDefaultLocation(loc, version) {
			m.logger.Info("default location superseded by user", slog.String("session_id", s.id))
		}
		return nil
	})
}

// Search validates the session and records the search it describes
func (m *Manager) Search(ctx context.Context, id string) (*criteria.SearchRecord, error) {
	s, err := m.lookup(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.lastActive = time.Now()
	errs := s.model.Errors(ctx)
	if len(errs) > 0 {
		s.mu.Unlock()
		return nil, &criteria.ValidationError{Messages: errs}
	}
	record := criteria.SearchRecord{
		ID:        uuid.New().String(),
		SessionID: s.id,
		Params:    s.model.SearchParams(ctx),
		RadiusKm:  s.model.Radius(),
		CreatedAt: time.Now().UTC(),
	}
	if center := s.model.Center(); center != nil {
		record.Center = *center
	}
	s.mu.Unlock()

	if m.store != nil {
		if err := m.store.SaveSearch(ctx, record); err != nil {
			return nil, fmt.Errorf("error saving search: %w", err)
		}
	}

	m.publish(criteria.Event{Type: criteria.EventSearch, SessionID: s.id, Search: &record})

	return &record, nil
}

// Close ends a session
func (m *Manager) Close(ctx context.Context, id string) error {
	s, err := m.lookup(id)
	if err != nil {
		return err
	}

	m.remove(s)
	m.publish(criteria.Event{Type: criteria.EventClosed, SessionID: id})
	return nil
}

// Len returns the number of active sessions
func (m *Manager) Len() int {
	return int(m.count.Load())
}

// Stop cancels pending lookups and waits for background work to finish
func (m *Manager) Stop(ctx context.Context) error {
	m.cancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) lookup(id string) (*session, error) {
	v, ok := m.sessions.Load(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", criteria.ErrSessionNotFound, id)
	}
	return v.(*session), nil
}

func (m *Manager) remove(s *session) {
	if _, loaded := m.sessions.LoadAndDelete(s.id); !loaded {
		return
	}
	m.count.Add(-1)

	s.mu.Lock()
	if s.cancelLookup != nil {
		s.cancelLookup()
		s.cancelLookup = nil
	}
	s.mu.Unlock()
}

// mutate runs fn under the session lock and publishes the resulting state
func (m *Manager) mutate(ctx context.Context, id string, fn func(s *session) error) (criteria.Snapshot, error) {
	s, err := m.lookup(id)
	if err != nil {
		return criteria.Snapshot{}, err
	}

	s.mu.Lock()
	if err := fn(s); err != nil {
		s.mu.Unlock()
		return criteria.Snapshot{}, err
	}
	s.lastActive = time.Now()
	snap := m.snapshot(ctx, s)
	s.mu.Unlock()

	m.publish(criteria.Event{Type: criteria.EventUpdated, SessionID: id, Snapshot: &snap})
	return snap, nil
}

// apply writes an Update into the model. Raw start/end strings are parsed
// before anything is written so a bad value leaves the session untouched.
func (m *Manager) apply(s *session, u Update) error {
	model := s.model

	// raw strings are parsed before anything is written so a bad update
	// leaves the model untouched
	loc := model.Timezone()
	if u.Location != nil {
		loc = u.Location
	}

	var rawStart, rawEnd time.Time
	var err error
	if u.RawStart != nil {
		if rawStart, err = splitDateTime(*u.RawStart, loc); err != nil {
			return err
		}
	}
	if u.RawEnd != nil {
		if rawEnd, err = splitDateTime(*u.RawEnd, loc); err != nil {
			return err
		}
	}

	if u.Location != nil {
		model.SetTimezone(u.Location)
	}

	if u.StartDateString != nil {
		model.SetStartDate(*u.StartDateString)
	}
	if u.StartTimeString != nil {
		model.SetStartTime(*u.StartTimeString)
	}
	if u.EndDateString != nil {
		model.SetEndDate(*u.EndDateString)
	}
	if u.EndTimeString != nil {
		model.SetEndTime(*u.EndTimeString)
	}
	if u.RawStart != nil {
		model.SetRawStart(rawStart)
	}
	if u.RawEnd != nil {
		model.SetRawEnd(rawEnd)
	}
	if u.UseLocalTime != nil {
		model.SetUseLocalTime(*u.UseLocalTime)
	}

	switch {
	case u.ClearCenter:
		model.ClearCenter()
		m.cancelPendingLookup(s)
	case u.Center != nil:
		model.SetCenter(*u.Center)
		m.cancelPendingLookup(s)
	}
	switch {
	case u.ClearNorthEast:
		model.ClearNorthEast()
	case u.NorthEast != nil:
		model.SetNorthEast(*u.NorthEast)
	}
	switch {
	case u.ClearSouthWest:
		model.ClearSouthWest()
	case u.SouthWest != nil:
		model.SetSouthWest(*u.SouthWest)
	}

	if u.Zoom != nil {
		model.SetZoom(*u.Zoom)
	}
	if u.Keyword != nil {
		model.SetKeyword(*u.Keyword)
	}
	if u.Stream != nil {
		model.SetStream(*u.Stream)
	}

	return nil
}

// resolveDefaultCenterAsync runs the default location lookup in the
// background. It keeps the values of reqCtx (the caller's IP) but not its
// deadline. Setting the center by hand or stopping the manager cancels it.
func (m *Manager) resolveDefaultCenterAsync(reqCtx context.Context, s *session) {
	s.mu.Lock()
	if s.cancelLookup != nil {
		s.cancelLookup()
	}
	ctx, cancel := context.WithCancel(context.WithoutCancel(reqCtx))
	stop := context.AfterFunc(m.ctx, cancel)
	s.cancelLookup = cancel
	version := s.model.CenterVersion()
	s.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer stop()
		defer cancel()

		loc := m.resolver.Resolve(ctx)
		if ctx.Err() != nil {
			m.logger.Debug("default location lookup cancelled", slog.String("session_id", s.id))
			return
		}

		s.mu.Lock()
		applied := s.model.ApplyDefaultLocation(loc, version)
		s.cancelLookup = nil
		var snap criteria.Snapshot
		if applied {
			snap = m.snapshot(ctx, s)
		}
		s.mu.Unlock()

		if applied {
			m.publish(criteria.Event{Type: criteria.EventUpdated, SessionID: s.id, Snapshot: &snap})
		}
	}()
}

// cancelPendingLookup must be called with s.mu held
func (m *Manager) cancelPendingLookup(s *session) {
	if s.cancelLookup != nil {
		s.cancelLookup()
		s.cancelLookup = nil
	}
}

// snapshot must be called with s.mu held
func (m *Manager) snapshot(ctx context.Context, s *session) criteria.Snapshot {
	snap := s.model.Snapshot(ctx)
	snap.SessionID = s.id
	return snap
}

// Subject returns the event bus subject for a session event
func (m *Manager) Subject(sessionID string, eventType criteria.EventType) string {
	return fmt.Sprintf("%s.%s.%s", m.config.EventsTopic, sessionID, eventType)
}

// SessionSubjects returns the wildcard subject matching every event of a session
func (m *Manager) SessionSubjects(sessionID string) string {
	return fmt.Sprintf("%s.%s.*", m.config.EventsTopic, sessionID)
}

// publish sends an event on the bus. Failures are logged, never returned.
func (m *Manager) publish(event criteria.Event) {
	if m.eventBus == nil {
		return
	}
	if event.Time.IsZero() {
		event.Time = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		m.logger.Error("error marshaling session event", slog.Any("error", err))
		return
	}

	if err := m.eventBus.Publish(m.Subject(event.SessionID, event.Type), data); err != nil {
		m.logger.Error("error publishing session event",
			slog.String("session_id", event.SessionID),
			slog.String("type", string(event.Type)),
			slog.Any("error", err),
		)
	}
}

// monitorIdleSessions periodically closes sessions nobody has touched
func (m *Manager) monitorIdleSessions() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.config.MonitoringInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.evictIdle(time.Now())
		}
	}
}

func (m *Manager) evictIdle(now time.Time) {
	m.sessions.Range(func(_, value any) bool {
		s := value.(*session)

		s.mu.Lock()
		idle := now.Sub(s.lastActive)
		s.mu.Unlock()

		if idle > m.config.IdleTimeout {
			m.remove(s)
			m.publish(criteria.Event{Type: criteria.EventClosed, SessionID: s.id})
			m.logger.Info("idle search session closed",
				slog.String("session_id", s.id),
				slog.Duration("idle", idle),
			)
		}
		return true
	})
}
