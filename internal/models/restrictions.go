package models

import (
	"fmt"
	"log/slog"
	"time"
)

// Attribute names under which account restrictions are exchanged with callers
// as a flat string map.
const (
	AttrDisabled          = "disabled"
	AttrExpired           = "expired"
	AttrAccessWindowStart = "access-window-start"
	AttrAccessWindowEnd   = "access-window-end"
	AttrValidFrom         = "valid-from"
	AttrValidUntil        = "valid-until"
	AttrTimeZone          = "timezone"
)

// Wire formats for time and date attributes. Values are produced and parsed by
// the same layouts so attribute maps round-trip exactly.
const (
	TimeOfDayLayout = "15:04:05"
	DateLayout      = "2006-01-02"
)

// TimeOfDay is a wall-clock time with no date or zone component.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// ParseTimeOfDay parses a time attribute value in the standard HH:MM:SS form.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse(TimeOfDayLayout, s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// On projects this time of day onto the calendar day containing the given
// instant, interpreted in the given location.
func (t TimeOfDay) On(instant time.Time, loc *time.Location) time.Time {
	y, m, d := instant.In(loc).Date()
	return time.Date(y, m, d, t.Hour, t.Minute, t.Second, 0, loc)
}

// Date is a calendar date with no time or zone component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a date attribute value in the standard YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// StartOfDay returns midnight of this date in the given location.
func (d Date) StartOfDay(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// EndOfDay returns the last millisecond of this date in the given location.
func (d Date) EndOfDay(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 23, 59, 59, 999000000, loc)
}

// Attributes returns the account restrictions of this user as the flat
// string-keyed form used at the serialization boundary. Unset fields are
// omitted from the map.
func (u *User) Attributes() map[string]string {

	attrs := make(map[string]string)

	if u.Disabled {
		attrs[AttrDisabled] = "true"
	}
	if u.Expired {
		attrs[AttrExpired] = "true"
	}
	if u.AccessWindowStart != nil {
		attrs[AttrAccessWindowStart] = u.AccessWindowStart.String()
	}
	if u.AccessWindowEnd != nil {
		attrs[AttrAccessWindowEnd] = u.AccessWindowEnd.String()
	}
	if u.ValidFrom != nil {
		attrs[AttrValidFrom] = u.ValidFrom.String()
	}
	if u.ValidUntil != nil {
		attrs[AttrValidUntil] = u.ValidUntil.String()
	}
	if u.TimeZone != nil {
		attrs[AttrTimeZone] = *u.TimeZone
	}

	return attrs
}

// ApplyAttributes replaces the account restrictions of this user with the
// values in the given attribute map. The map represents the complete
// restriction state: missing or empty entries clear the corresponding field.
// A value that fails to parse is logged and the field keeps its previous
// value, so a malformed entry cannot wipe out unrelated saved attributes.
func (u *User) ApplyAttributes(attrs map[string]string, logger *slog.Logger) {

	u.Disabled = attrs[AttrDisabled] == "true"
	u.Expired = attrs[AttrExpired] == "true"

	if t, ok, err := parseTimeAttr(attrs[AttrAccessWindowStart]); err != nil {
		logger.Warn("not setting start time of user access window", slog.Any("error", err))
	} else if ok {
		u.AccessWindowStart = &t
	} else {
		u.AccessWindowStart = nil
	}

	if t, ok, err := parseTimeAttr(attrs[AttrAccessWindowEnd]); err != nil {
		logger.Warn("not setting end time of user access window", slog.Any("error", err))
	} else if ok {
		u.AccessWindowEnd = &t
	} else {
		u.AccessWindowEnd = nil
	}

	if d, ok, err := parseDateAttr(attrs[AttrValidFrom]); err != nil {
		logger.Warn("not setting user validity start date", slog.Any("error", err))
	} else if ok {
		u.ValidFrom = &d
	} else {
		u.ValidFrom = nil
	}

	if d, ok, err := parseDateAttr(attrs[AttrValidUntil]); err != nil {
		logger.Warn("not setting user validity end date", slog.Any("error", err))
	} else if ok {
		u.ValidUntil = &d
	} else {
		u.ValidUntil = nil
	}

	if tz := attrs[AttrTimeZone]; tz != "" {
		u.TimeZone = &tz
	} else {
		u.TimeZone = nil
	}

}

func parseTimeAttr(s string) (TimeOfDay, bool, error) {
	if s == "" {
		return TimeOfDay{}, false, nil
	}
	t, err := ParseTimeOfDay(s)
	if err != nil {
		return TimeOfDay{}, false, err
	}
	return t, true, nil
}

func parseDateAttr(s string) (Date, bool, error) {
	if s == "" {
		return Date{}, false, nil
	}
	d, err := ParseDate(s)
	if err != nil {
		return Date{}, false, err
	}
	return d, true, nil
}
