package types

// OpeningRange tracks the high and low of the first minutes of a session.
// Once finalized it no longer changes.
type OpeningRange struct {
	Day       string  `json:"day"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Bars      int     `json:"bars"`
	Finalized bool    `json:"finalized"`
}

// NewOpeningRange returns an empty range for day (YYYY-MM-DD).
func NewOpeningRange(day string) OpeningRange {
	return OpeningRange{Day: day}
}

// Observe extends the range with a bar. It is a no-op after Finalize.
func (r OpeningRange) Observe(b Bar) OpeningRange {
	if r.Finalized {
		return r
	}

	if r.Bars == 0 || b.High > r.High {
		r.High = b.High
	}

	if r.Bars == 0 || b.Low < r.Low {
		r.Low = b.Low
	}

	r.Bars++

	return r
}

// Finalize freezes the range.
func (r OpeningRange) Finalize() OpeningRange {
	r.Finalized = true

	return r
}

// Defined reports whether at least one bar was observed.
func (r OpeningRange) Defined() bool {
	return r.Bars > 0
}

// BrokenUp reports a strict breakout above the range.
func (r OpeningRange) BrokenUp(b Bar) bool {
	return r.Defined() && b.High > r.High
}

// BrokenDown reports a strict breakout below the range.
func (r OpeningRange) BrokenDown(b Bar) bool {
	return r.Defined() && b.Low < r.Low
}
