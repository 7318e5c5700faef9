// internal/service/criteria/validator.go

package criteria

import (
	"context"
)

const (
	MsgSelectStartDate = "Please select a start date."
	MsgSelectEndDate   = "Please select an end date."
	MsgStartAfterEnd   = "The end date must come after the start date."
	MsgSelectLocation  = "Please select a location on the map."
	MsgIncreaseZoom    = "Increase the map zoom in order to provide more relevant results."
)

// TimeError reports an end that precedes the start. It is empty unless both
// instants are well formed.
func (m *Model) TimeError(ctx context.Context) string {
	if m.isFresh(nodeTimeError) {
		return m.timeError
	}

	m.timeError = ""
	start, okStart := m.Start(ctx)
	end, okEnd := m.End(ctx)
	if okStart && okEnd && end.Before(start) {
		m.timeError = MsgStartAfterEnd
	}

	m.markFresh(nodeTimeError)
	return m.timeError
}

// MapError reports missing viewport bounds, or, once bounds are present,
// a radius above the configured maximum
func (m *Model) MapError() string {
	if m.isFresh(nodeMapError) {
		return m.mapError
	}

	switch {
	case m.northEast == nil || m.southWest == nil:
		m.mapError = MsgSelectLocation
	case m.Radius() > m.maxRadiusKm:
		m.mapError = MsgIncreaseZoom
	default:
		m.mapError = ""
	}

	m.markFresh(nodeMapError)
	return m.mapError
}

// Errors lists every active validation message: date errors, then the
// ordering error, then the map error. Streaming searches need no time range.
func (m *Model) Errors(ctx context.Context) []string {
	if !m.isFresh(nodeErrors) {
		var errs []string

		if !m.stream {
			if _, ok := m.RawStart(); !ok {
				errs = appendUnique(errs, MsgSelectStartDate)
			}
			if _, ok := m.RawEnd(); !ok {
				errs = appendUnique(errs, MsgSelectEndDate)
			}
			if msg := m.TimeError(ctx); msg != "" {
				errs = appendUnique(errs, msg)
			}
		}
		if msg := m.MapError(); msg != "" {
			errs = appendUnique(errs, msg)
		}

		m.errors = errs
		m.markFresh(nodeErrors)
	}

	out := make([]string, len(m.errors))
	copy(out, m.errors)
	return out
}

// IsValid reports whether Errors is empty
func (m *Model) IsValid(ctx context.Context) bool {
	return len(m.Errors(ctx)) == 0
}

func appendUnique(list []string, msg string) []string {
	for _, existing := range list {
		if existing == msg {
			return list
		}
	}
	return append(list, msg)
}
