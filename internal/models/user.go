package models

import (
	"time"
)

// User represents a user account as stored in the directory. The username is
// the directory key and is immutable once assigned. The password is held only
// as a salted one-way digest; the plaintext is never persisted.
type User struct {
	Username     string
	PasswordSalt []byte
	PasswordHash []byte
	PasswordDate time.Time

	// Account restrictions
	Disabled          bool
	Expired           bool // forces password reset on next login
	AccessWindowStart *TimeOfDay
	AccessWindowEnd   *TimeOfDay
	ValidFrom         *Date
	ValidUntil        *Date
	TimeZone          *string // IANA identifier, nil for the process default

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *User) ObjectIdentifier() string { return u.Username }
func (u *User) ObjectKind() ObjectKind   { return KindUser }

// Location resolves the time zone used when interpreting all date/time
// restrictions for this user. An unset or unloadable zone falls back to the
// process default.
func (u *User) Location() *time.Location {
	if u.TimeZone == nil {
		return time.Local
	}
	loc, err := time.LoadLocation(*u.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}

// isActive reports whether a state bounded by an optional activation time and
// an optional deactivation time is active at the given instant. If the
// deactivation time precedes the activation time the window wraps, which is
// equivalent to the negation of the non-wrapping complement.
func isActive(now time.Time, activeStart, inactiveStart *time.Time) bool {

	if activeStart != nil && inactiveStart != nil && inactiveStart.Before(*activeStart) {
		return !isActive(now, inactiveStart, activeStart)
	}

	if activeStart != nil && now.Before(*activeStart) {
		return false
	}
	if inactiveStart != nil && now.After(*inactiveStart) {
		return false
	}
	return true
}

// AccountValidAt reports whether the account's optional validity date range
// covers the given instant. ValidFrom is taken as midnight and ValidUntil as
// the last millisecond of its day, both in the user's time zone.
func (u *User) AccountValidAt(now time.Time) bool {

	loc := u.Location()

	var start, end *time.Time
	if u.ValidFrom != nil {
		t := u.ValidFrom.StartOfDay(loc)
		start = &t
	}
	if u.ValidUntil != nil {
		t := u.ValidUntil.EndOfDay(loc)
		end = &t
	}

	return isActive(now, start, end)
}

// AccountAccessibleAt reports whether the given instant falls within the
// account's optional daily access window. Window bounds are times of day
// projected onto the current calendar day in the user's time zone.
func (u *User) AccountAccessibleAt(now time.Time) bool {

	loc := u.Location()

	var start, end *time.Time
	if u.AccessWindowStart != nil {
		t := u.AccessWindowStart.On(now, loc)
		start = &t
	}
	if u.AccessWindowEnd != nil {
		t := u.AccessWindowEnd.On(now, loc)
		end = &t
	}

	return isActive(now, start, end)
}

// IsAccountValid reports whether the account is currently within its validity
// date range. Accounts with no validity dates are always valid.
func (u *User) IsAccountValid() bool {
	return u.AccountValidAt(time.Now())
}

// IsAccountAccessible reports whether the current time is within the account's
// allowed access window. Accounts with no window are always accessible.
func (u *User) IsAccountAccessible() bool {
	return u.AccountAccessibleAt(time.Now())
}
