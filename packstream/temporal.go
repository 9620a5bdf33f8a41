package packstream

import "time"

// Temporal values all reduce to counts of days, seconds and nanoseconds.
// Conversions to and from time.Time are provided for the common cases; the
// wire representation is always the raw counts.

const (
	nanosPerSecond = int64(time.Second)
	secondsPerDay  = 86400
)

// Date is a number of days since the Unix epoch, possibly negative.
type Date struct {
	Days int64
}

// NewDate truncates t to its date in t's location.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	utc := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return Date{Days: utc.Unix() / secondsPerDay}
}

// Time returns midnight UTC on the date.
func (d Date) Time() time.Time {
	return time.Unix(d.Days*secondsPerDay, 0).UTC()
}

// Time is a clock time with a UTC offset.
type Time struct {
	Nanos         int64 // nanoseconds since midnight
	OffsetSeconds int64
}

// LocalTime is a clock time without a zone.
type LocalTime struct {
	Nanos int64 // nanoseconds since midnight
}

// LocalDateTime is a date and clock time without a zone.
type LocalDateTime struct {
	Seconds int64 // seconds since the epoch, as observed on a local clock
	Nanos   int64
}

// DateTimeOffset is an instant paired with a UTC offset.
type DateTimeOffset struct {
	Seconds       int64 // epoch seconds in the given offset
	Nanos         int64
	OffsetSeconds int64
}

// NewDateTimeOffset converts t, keeping t's fixed zone offset.
func NewDateTimeOffset(t time.Time) DateTimeOffset {
	_, offset := t.Zone()
	return DateTimeOffset{
		Seconds:       t.Unix() + int64(offset),
		Nanos:         int64(t.Nanosecond()),
		OffsetSeconds: int64(offset),
	}
}

// Time converts the value back to a time.Time in a fixed zone.
func (dt DateTimeOffset) Time() time.Time {
	zone := time.FixedZone("", int(dt.OffsetSeconds))
	return time.Unix(dt.Seconds-dt.OffsetSeconds, dt.Nanos).In(zone)
}

// DateTimeZoned is an instant paired with an IANA zone name.
type DateTimeZoned struct {
	Seconds int64 // epoch seconds as observed on a wall clock in Zone
	Nanos   int64
	Zone    string
}

// NewDateTimeZoned converts t using the name of t's location.
func NewDateTimeZoned(t time.Time) DateTimeZoned {
	_, offset := t.Zone()
	return DateTimeZoned{
		Seconds: t.Unix() + int64(offset),
		Nanos:   int64(t.Nanosecond()),
		Zone:    t.Location().String(),
	}
}

// Time converts the value back to a time.Time.  The zone name must be
// loadable on this host.
func (dt DateTimeZoned) Time() (time.Time, error) {
	loc, err := time.LoadLocation(dt.Zone)
	if err != nil {
		return time.Time{}, err
	}
	// Seconds is wall-clock local; remove the zone offset to get the instant.
	guess := time.Unix(dt.Seconds, dt.Nanos).In(loc)
	_, offset := guess.Zone()
	return time.Unix(dt.Seconds-int64(offset), dt.Nanos).In(loc), nil
}

// Duration is a calendar-aware span.  Months and days are kept separate from
// seconds because their length depends on where in the calendar they land.
type Duration struct {
	Months  int64
	Days    int64
	Seconds int64
	Nanos   int32
}

// NewDuration builds a Duration from a time.Duration, which carries no
// calendar component.
func NewDuration(d time.Duration) Duration {
	n := d.Nanoseconds()
	return Duration{Seconds: n / nanosPerSecond, Nanos: int32(n % nanosPerSecond)}
}
