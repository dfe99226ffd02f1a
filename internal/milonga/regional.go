package milonga

import (
	"fmt"
	"time"
)

// BuenosAiresOffset is the fixed UTC offset used to decide what "today" is.
const BuenosAiresOffset = -3 * time.Hour

// RegionalClock reads wall-clock time in a fixed UTC offset, independent of
// the server's locale.
type RegionalClock struct {
	clock Clock
	zone  *time.Location
}

// NewRegionalClock wraps clock so that Now reports times in the given offset.
func NewRegionalClock(clock Clock, offset time.Duration) RegionalClock {
	return RegionalClock{
		clock: clock,
		zone:  time.FixedZone(zoneName(offset), int(offset/time.Second)),
	}
}

// Now returns the current instant expressed in the regional offset.
func (r RegionalClock) Now() time.Time {
	return r.clock.Now().In(r.zone)
}

// Location returns the fixed zone backing the clock.
func (r RegionalClock) Location() *time.Location {
	return r.zone
}

func zoneName(offset time.Duration) string {
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	hours := int(offset / time.Hour)
	minutes := int((offset % time.Hour) / time.Minute)
	return fmt.Sprintf("UTC%s%02d:%02d", sign, hours, minutes)
}
