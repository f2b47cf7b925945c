package strategy

import (
	"fmt"
	"time"

	"github.com/rxtech-lab/argo-intraday/internal/types"
	"github.com/rxtech-lab/argo-intraday/pkg/errors"
)

// Session describes the trading hours of an exchange in its own location.
type Session struct {
	Location *time.Location
	// OpenHour and OpenMinute give the session open, e.g. 09:15.
	OpenHour   int
	OpenMinute int
	// CloseHour and CloseMinute give the session close, e.g. 15:30.
	CloseHour   int
	CloseMinute int
}

// NSESession returns the National Stock Exchange of India cash session.
func NSESession() Session {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		loc = time.FixedZone("IST", 5*60*60+30*60)
	}

	return Session{
		Location:    loc,
		OpenHour:    9,
		OpenMinute:  15,
		CloseHour:   15,
		CloseMinute: 30,
	}
}

// NewSession builds a session from a location name and "HH:MM" open and
// close times.
func NewSession(timezone, open, close string) (Session, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return Session{}, errors.Wrapf(errors.ErrCodeInvalidTimezone, err, "unknown timezone %q", timezone)
	}

	openAt, err := time.Parse("15:04", open)
	if err != nil {
		return Session{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid session open %q, expected HH:MM", open)
	}

	closeAt, err := time.Parse("15:04", close)
	if err != nil {
		return Session{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid session close %q, expected HH:MM", close)
	}

	if !closeAt.After(openAt) {
		return Session{}, errors.Newf(errors.ErrCodeInvalidConfiguration, "session close %s must be after open %s", close, open)
	}

	return Session{
		Location:    loc,
		OpenHour:    openAt.Hour(),
		OpenMinute:  openAt.Minute(),
		CloseHour:   closeAt.Hour(),
		CloseMinute: closeAt.Minute(),
	}, nil
}

// DayOf returns the calendar day (YYYY-MM-DD) of t in the session location.
func (s Session) DayOf(t time.Time) string {
	return t.In(s.Location).Format(time.DateOnly)
}

// OpenOn returns the session open on the calendar day containing t.
func (s Session) OpenOn(t time.Time) time.Time {
	local := t.In(s.Location)

	return time.Date(local.Year(), local.Month(), local.Day(), s.OpenHour, s.OpenMinute, 0, 0, s.Location)
}

// CloseOn returns the session close on the calendar day containing t.
func (s Session) CloseOn(t time.Time) time.Time {
	local := t.In(s.Location)

	return time.Date(local.Year(), local.Month(), local.Day(), s.CloseHour, s.CloseMinute, 0, 0, s.Location)
}

// IsOpen reports whether t falls between the open and the close, inclusive.
func (s Session) IsOpen(t time.Time) bool {
	return !t.Before(s.OpenOn(t)) && !t.After(s.CloseOn(t))
}

// String renders the session for logs.
func (s Session) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d %s", s.OpenHour, s.OpenMinute, s.CloseHour, s.CloseMinute, s.Location)
}

// Day is a contiguous run of bars sharing one calendar day. Start and End
// index into the series, End exclusive.
type Day struct {
	Date  string
	Start int
	End   int
}

// Len returns the number of bars in the day.
func (d Day) Len() int {
	return d.End - d.Start
}

// GroupByDay splits an ordered series into calendar days in the session
// location.
func GroupByDay(bars []types.Bar, session Session) []Day {
	var days []Day

	for i, b := range bars {
		date := session.DayOf(b.Time)
		if len(days) == 0 || days[len(days)-1].Date != date {
			days = append(days, Day{Date: date, Start: i, End: i})
		}

		days[len(days)-1].End = i + 1
	}

	return days
}
