// internal/service/criteria/timerange.go

package criteria

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"iwitness/internal/domain/criteria"
)

const (
	DateLayout = "1/2/2006"
	TimeLayout = "3:04 PM"
)

// ParseDateTime combines a M/D/YYYY date and an h:mm AM/PM time in loc.
// The AM/PM marker is case-insensitive. Empty or malformed input yields ok=false.
func ParseDateTime(date, clock string, loc *time.Location) (time.Time, bool) {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if date == "" || clock == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+strings.ToUpper(clock), loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatDateTime renders t in loc as canonical date and time strings
func FormatDateTime(t time.Time, loc *time.Location) (date, clock string) {
	t = t.In(loc)
	return t.Format(DateLayout), t.Format(TimeLayout)
}

// splitDateTime parses "M/D/YYYY h:mm AM" in loc
func splitDateTime(s string, loc *time.Location) (time.Time, error) {
	fields := strings.Fields(s)
	if len(fields) != 3 {
		return time.Time{}, fmt.Errorf("%w: %q", criteria.ErrUnparsableTime, s)
	}
	t, ok := ParseDateTime(fields[0], fields[1]+" "+fields[2], loc)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", criteria.ErrUnparsableTime, s)
	}
	return t, nil
}

// RawStart is the start as entered, interpreted in the viewer's timezone
func (m *Model) RawStart() (time.Time, bool) {
	if !m.isFresh(nodeRawStart) {
		t, ok := ParseDateTime(m.startDate, m.startTime, m.location)
		m.rawStart = instant{t: t, ok: ok}
		m.markFresh(nodeRawStart)
	}
	return m.rawStart.t, m.rawStart.ok
}

// RawEnd is the end as entered, interpreted in the viewer's timezone
func (m *Model) RawEnd() (time.Time, bool) {
	if !m.isFresh(nodeRawEnd) {
		t, ok := ParseDateTime(m.endDate, m.endTime, m.location)
		m.rawEnd = instant{t: t, ok: ok}
		m.markFresh(nodeRawEnd)
	}
	return m.rawEnd.t, m.rawEnd.ok
}

// SetRawStart rewrites the start date and time strings from t
func (m *Model) SetRawStart(t time.Time) {
	date, clock := FormatDateTime(t, m.location)
	m.SetStartDate(date)
	m.SetStartTime(clock)
}

// SetRawEnd rewrites the end date and time strings from t
func (m *Model) SetRawEnd(t time.Time) {
	date, clock := FormatDateTime(t, m.location)
	m.SetEndDate(date)
	m.SetEndTime(clock)
}

// SetRawStartString parses "M/D/YYYY h:mm AM" and rewrites the start strings
func (m *Model) SetRawStartString(s string) error {
	t, err := splitDateTime(s, m.location)
	if err != nil {
		return err
	}
	m.SetRawStart(t)
	return nil
}

// SetRawEndString parses "M/D/YYYY h:mm AM" and rewrites the end strings
func (m *Model) SetRawEndString(s string) error {
	t, err := splitDateTime(s, m.location)
	if err != nil {
		return err
	}
	m.SetRawEnd(t)
	return nil
}

// LocalTimezoneOffset is the viewer's UTC offset in whole hours at t
func (m *Model) LocalTimezoneOffset(t time.Time) int {
	_, seconds := t.In(m.location).Zone()
	return seconds / 3600
}

// MapTimezoneOffset is the UTC offset, in whole hours, of the map center at
// the raw start instant. Without a center, or when the lookup fails, it is
// the viewer's own offset. A failed lookup is not memoized and is retried
// on the next read.
func (m *Model) MapTimezoneOffset(ctx context.Context) int {
	if m.isFresh(nodeMapOffset) {
		return m.mapOffset
	}

	at, ok := m.RawStart()
	if !ok {
		at = time.Now()
	}

	offset := m.LocalTimezoneOffset(at)
	if m.center != nil && m.offsets != nil {
		minutes, err := m.offsets.UTCOffset(ctx, m.center.Lat(), m.center.Lng(), at)
		if err != nil {
			m.logger.Warn("map timezone lookup failed, using viewer offset",
				slog.String("center", m.center.String()),
				slog.Any("error", err),
			)
			m.offsetFailed = true
			return offset
		}
		offset = minutes / 60
	}

	m.offsetFailed = false
	m.mapOffset = offset
	m.markFresh(nodeMapOffset)
	return offset
}

// TimezoneDifference is the map offset minus the viewer offset, in hours
func (m *Model) TimezoneDifference(ctx context.Context) int {
	at, ok := m.RawStart()
	if !ok {
		at = time.Now()
	}
	return m.MapTimezoneOffset(ctx) - m.LocalTimezoneOffset(at)
}

// Start is the absolute start instant, shifted to the map's timezone unless
// local time is in use
func (m *Model) Start(ctx context.Context) (time.Time, bool) {
	if !m.isFresh(nodeStart) {
		raw, ok := m.RawStart()
		m.start = m.adjust(ctx, raw, ok)
		m.markFresh(nodeStart)
	}
	return m.start.t, m.start.ok
}

// End is the absolute end instant, shifted like Start
func (m *Model) End(ctx context.Context) (time.Time, bool) {
	if !m.isFresh(nodeEnd) {
		raw, ok := m.RawEnd()
		m.end = m.adjust(ctx, raw, ok)
		m.markFresh(nodeEnd)
	}
	return m.end.t, m.end.ok
}

func (m *Model) adjust(ctx context.Context, raw time.Time, ok bool) instant {
	if !ok {
		return instant{}
	}
	if m.useLocalTime {
		return instant{t: raw, ok: true}
	}
	diff := m.TimezoneDifference(ctx)
	return instant{t: raw.Add(time.Duration(diff) * time.Hour), ok: true}
}
