package strategy

import (
	"time"

	"github.com/rustyeddy/flashbot/astro"
)

const (
	// EventDampening is applied on low-confidence days.
	EventDampening = 0.95
	neutral        = 1.0
)

// RetrogradeFunc reports the retrograde outcome for a calendar day.
type RetrogradeFunc func(date time.Time) (astro.Outcome, error)

// EventModifier dampens confidence on Friday the 13th and while Mercury
// is retrograde. It has no state beyond its configuration.
type EventModifier struct {
	Location   *time.Location
	Retrograde RetrogradeFunc
}

// NewEventModifier returns a modifier evaluating dates in loc using the
// built-in ephemeris.
func NewEventModifier(loc *time.Location) *EventModifier {
	if loc == nil {
		loc = time.Local
	}
	return &EventModifier{
		Location:   loc,
		Retrograde: astro.MercuryRetrograde,
	}
}

// Modifier returns EventDampening or 1.0 for date. An unavailable
// ephemeris counts as "not retrograde".
func (m *EventModifier) Modifier(date time.Time) float64 {
	local := date
	if m.Location != nil {
		local = date.In(m.Location)
	}

	if IsFriday13(local) {
		return EventDampening
	}

	if m.Retrograde == nil {
		return neutral
	}
	switch outcome, _ := m.Retrograde(local); outcome {
	case astro.Active:
		return EventDampening
	case astro.Unavailable:
		// fail open
		return neutral
	}
	return neutral
}

// IsFriday13 checks the date in its own location.
func IsFriday13(t time.Time) bool {
	return t.Day() == 13 && t.Weekday() == time.Friday
}
