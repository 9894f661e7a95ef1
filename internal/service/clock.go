package service

import "time"

// nowFunc lets tests pin the clock, in particular around UTC day rollover
// and proposal deadlines.
type nowFunc func() time.Time

func defaultNow() time.Time {
	return time.Now().UTC()
}
