package domain

import "time"

// Outcome is one side of a binary up/down market.
type Outcome string

const (
	OutcomeUp   Outcome = "Up"
	OutcomeDown Outcome = "Down"
)

// MarketWindow is one 15-minute up/down market instance. EndTime is derived
// from the slug's bucket when the API omits it.
type MarketWindow struct {
	Slug        string
	ConditionID string
	UpTokenID   string
	DownTokenID string
	StartTime   time.Time
	EndTime     time.Time
	Winner      *Outcome // nil until the market settles
}

// IsActive reports whether now falls inside [StartTime, EndTime).
func (w MarketWindow) IsActive(now time.Time) bool {
	return !now.Before(w.StartTime) && now.Before(w.EndTime)
}

// CountdownToStart returns how long until the window opens, clamped to zero
// once it has started.
func (w MarketWindow) CountdownToStart(now time.Time) time.Duration {
	d := w.StartTime.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// CountdownToEnd returns how long until the window closes, clamped to zero
// once it has ended.
func (w MarketWindow) CountdownToEnd(now time.Time) time.Duration {
	d := w.EndTime.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Resolved reports whether the winning outcome is known.
func (w MarketWindow) Resolved() bool {
	return w.Winner != nil
}
