package schedule

import (
	"time"
	_ "time/tzdata" // the exam zone must resolve on hosts without zoneinfo

	"github.com/joseph-ayodele/syllabus-sync/internal/registrar"
)

const DefaultExamTimezone = "America/New_York"

// WallClock places a registrar wall-clock time. The time is first built in
// host, rendered in exam, and the rendered wall-clock is read back as host
// time. Stored instants depend on this exact round trip; with host == exam it
// is the true exam-zone instant.
func WallClock(d registrar.Date, hour, minute int, host, exam *time.Location) time.Time {
	local := time.Date(d.Year, d.Month, d.Day, hour, minute, 0, 0, host)
	r := local.In(exam)
	return time.Date(r.Year(), r.Month(), r.Day(), r.Hour(), r.Minute(), r.Second(), 0, host)
}
