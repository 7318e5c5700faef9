// internal/service/criteria/model.go

package criteria

import (
	"context"
	"log/slog"
	"time"

	"iwitness/internal/domain/criteria"
)

const (
	MinZoom = 1
	MaxZoom = 21

	DefaultMaxRadiusKm = 75
)

// ModelConfig contains the collaborators and defaults of a criteria model
type ModelConfig struct {
	Location     *time.Location
	UseLocalTime bool
	Stream       bool
	MaxRadiusKm  int
	Offsets      criteria.OffsetService
	Distance     criteria.DistanceFunc
	Logger       *slog.Logger
}

// Model is the search criteria of one session: raw user input plus
// memoized values derived from it. Every setter clears the derived values
// that read the field it changed; getters recompute on demand.
//
// A Model is not safe for concurrent use.
type Model struct {
	startDate    string
	startTime    string
	endDate      string
	endTime      string
	useLocalTime bool
	location     *time.Location
	center       *criteria.LatLng
	northEast    *criteria.LatLng
	southWest    *criteria.LatLng
	zoom         int
	keyword      string
	stream       bool

	// centerVersion increases on every write to center
	centerVersion uint64

	offsets     criteria.OffsetService
	distance    criteria.DistanceFunc
	maxRadiusKm int
	logger      *slog.Logger

	fresh uint32
	// offsetFailed holds back memoization of everything derived from the
	// map offset until a lookup succeeds
	offsetFailed bool

	rawStart  instant
	rawEnd    instant
	mapOffset int
	start     instant
	end       instant
	radius    int
	timeError string
	mapError  string
	errors    []string
}

type instant struct {
	t  time.Time
	ok bool
}

// NewModel creates an empty criteria model
func NewModel(config ModelConfig) *Model {
	if config.Location == nil {
		config.Location = time.Local
	}
	if config.MaxRadiusKm <= 0 {
		config.MaxRadiusKm = DefaultMaxRadiusKm
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Model{
		useLocalTime: config.UseLocalTime,
		stream:       config.Stream,
		location:     config.Location,
		zoom:         MinZoom,
		offsets:      config.Offsets,
		distance:     config.Distance,
		maxRadiusKm:  config.MaxRadiusKm,
		logger:       config.Logger,
	}
}

// touch marks every value derived from n as stale
func (m *Model) touch(n node) {
	m.fresh &^= dependents[n]
	if dependents[n]&bit(nodeMapOffset) != 0 {
		m.offsetFailed = false
	}
}

func (m *Model) isFresh(n node) bool {
	return m.fresh&bit(n) != 0
}

func (m *Model) markFresh(n node) {
	if m.offsetFailed && dependents[nodeMapOffset]&bit(n) != 0 {
		return
	}
	m.fresh |= bit(n)
}

// SetStartDate sets the raw start date text (M/D/YYYY)
func (m *Model) SetStartDate(s string) {
	if m.startDate == s {
		return
	}
	m.startDate = s
	m.touch(nodeStartDate)
}

// SetStartTime sets the raw start time text (h:mm AM)
func (m *Model) SetStartTime(s string) {
	if m.startTime == s {
		return
	}
	m.startTime = s
	m.touch(nodeStartTime)
}

// SetEndDate sets the raw end date text (M/D/YYYY)
func (m *Model) SetEndDate(s string) {
	if m.endDate == s {
		return
	}
	m.endDate = s
	m.touch(nodeEndDate)
}

// SetEndTime sets the raw end time text (h:mm AM)
func (m *Model) SetEndTime(s string) {
	if m.endTime == s {
		return
	}
	m.endTime = s
	m.touch(nodeEndTime)
}

// SetUseLocalTime switches between the viewer's timezone and the map's timezone
func (m *Model) SetUseLocalTime(v bool) {
	if m.useLocalTime == v {
		return
	}
	m.useLocalTime = v
	m.touch(nodeUseLocalTime)
}

// SetTimezone sets the viewer's timezone
func (m *Model) SetTimezone(loc *time.Location) {
	if loc == nil || loc == m.location {
		return
	}
	m.location = loc
	m.touch(nodeTimezone)
}

// SetCenter sets the map center
func (m *Model) SetCenter(p criteria.LatLng) {
	m.center = &p
	m.centerVersion++
	m.touch(nodeCenter)
}

// ClearCenter unsets the map center
func (m *Model) ClearCenter() {
	m.center = nil
	m.centerVersion++
	m.touch(nodeCenter)
}

// CenterVersion identifies the current center write
func (m *Model) CenterVersion() uint64 {
	return m.centerVersion
}

// SetNorthEast sets the north-east corner of the viewport
func (m *Model) SetNorthEast(p criteria.LatLng) {
	m.northEast = &p
	m.touch(nodeNorthEast)
}

// ClearNorthEast unsets the north-east corner
func (m *Model) ClearNorthEast() {
	m.northEast = nil
	m.touch(nodeNorthEast)
}

// SetSouthWest sets the south-west corner of the viewport
func (m *Model) SetSouthWest(p criteria.LatLng) {
	m.southWest = &p
	m.touch(nodeSouthWest)
}

// ClearSouthWest unsets the south-west corner
func (m *Model) ClearSouthWest() {
	m.southWest = nil
	m.touch(nodeSouthWest)
}

// SetZoom sets the zoom level, clamped to 1..21
func (m *Model) SetZoom(z int) {
	m.zoom = clampZoom(z)
}

// ZoomIn increments the zoom level
func (m *Model) ZoomIn() {
	m.SetZoom(m.zoom + 1)
}

// ZoomOut decrements the zoom level
func (m *Model) ZoomOut() {
	m.SetZoom(m.zoom - 1)
}

// SetKeyword sets the free-text search term
func (m *Model) SetKeyword(s string) {
	m.keyword = s
}

// SetStream toggles live streaming mode
func (m *Model) SetStream(v bool) {
	if m.stream == v {
		return
	}
	m.stream = v
	m.touch(nodeStream)
}

// ApplyDefaultLocation sets center and zoom from a location lookup unless
// the center was written after version was read. It reports whether the
// location was applied.
func (m *Model) ApplyDefaultLocation(loc criteria.Location, version uint64) bool {
	if m.centerVersion != version {
		return false
	}
	m.SetCenter(loc.Center)
	m.SetZoom(loc.Zoom)
	return true
}

// SetDefaultCenter resolves and applies the default location synchronously
func (m *Model) SetDefaultCenter(ctx context.Context, resolver *LocationResolver) bool {
	version := m.centerVersion
	return m.ApplyDefaultLocation(resolver.Resolve(ctx), version)
}

// Accessors for raw fields

func (m *Model) StartDate() string { return m.startDate }
func (m *Model) StartTime() string { return m.startTime }
func (m *Model) EndDate() string { return m.endDate }
func (m *Model) EndTime() string { return m.endTime }
func (m *Model) UseLocalTime() bool { return m.useLocalTime }
func (m *Model) Timezone() *time.Location { return m.location }
func (m *Model) Zoom() int { return m.zoom }
func (m *Model) Keyword() string { return m.keyword }
func (m *Model) Stream() bool { return m.stream }
func (m *Model) Center() *criteria.LatLng { return copyLatLng(m.center) }
func (m *Model) NorthEast() *criteria.LatLng { return copyLatLng(m.northEast) }
func (m *Model) SouthWest() *criteria.LatLng { return copyLatLng(m.southWest) }

// SearchParams projects the fields a result fetcher needs
func (m *Model) SearchParams(ctx context.Context) criteria.SearchParams {
	params := criteria.SearchParams{
		Location:  m.Location(),
		Keyword:   m.keyword,
		NorthEast: copyLatLng(m.northEast),
		SouthWest: copyLatLng(m.southWest),
		Stream:    m.stream,
	}
	if start, ok := m.Start(ctx); ok {
		params.Start = &start
	}
	if end, ok := m.End(ctx); ok {
		params.End = &end
	}
	return params
}

// Snapshot captures the raw and derived state of the model
func (m *Model) Snapshot(ctx context.Context) criteria.Snapshot {
	errs := m.Errors(ctx)
	snap := criteria.Snapshot{
		StartDateString: m.startDate,
		StartTimeString: m.startTime,
		EndDateString:   m.endDate,
		EndTimeString:   m.endTime,
		UseLocalTime:    m.useLocalTime,
		Timezone:        m.location.String(),
		Center:          copyLatLng(m.center),
		NorthEast:       copyLatLng(m.northEast),
		SouthWest:       copyLatLng(m.southWest),
		Zoom:            m.zoom,
		Keyword:         m.keyword,
		Stream:          m.stream,
		Radius:          m.Radius(),
		TimeError:       m.TimeError(ctx),
		MapError:        m.MapError(),
		Errors:          errs,
		IsValid:         len(errs) == 0,
		SearchParams:    m.SearchParams(ctx),
	}
	snap.Start = snap.SearchParams.Start
	snap.End = snap.SearchParams.End
	return snap
}

func clampZoom(z int) int {
	if z < MinZoom {
		return MinZoom
	}
	if z > MaxZoom {
		return MaxZoom
	}
	return z
}

func copyLatLng(p *criteria.LatLng) *criteria.LatLng {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
