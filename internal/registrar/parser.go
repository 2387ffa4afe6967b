package registrar

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Date is a calendar date with no zone; the importer decides where it lives.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// ScrapeExam is one prelim line.
type ScrapeExam struct {
	CourseCode string
	Section    string
	Date       Date
	Trailing   string
}

// ScrapeFinal is one final schedule line. Deliverable is set when the trailing
// text names a Final (take-home finals, final papers).
type ScrapeFinal struct {
	CourseCode  string
	Section     string
	Date        Date
	Hour        int
	Minute      int
	Deliverable bool
	Trailing    string
}

// LineParser turns one line of the fixed-width block into a record. ok is
// false for headers, blanks and anything else that does not match.
type LineParser[T any] interface {
	ParseLine(line string) (rec T, ok bool)
}

// ParseLines runs p over lines and keeps the records that parsed.
func ParseLines[T any](p LineParser[T], lines []string) []T {
	out := make([]T, 0, len(lines))
	for _, line := range lines {
		if rec, ok := p.ParseLine(line); ok {
			out = append(out, rec)
		}
	}
	return out
}

const linePrefix = `^\s*([A-Z]{2,6})\s+(\d{4})\s+(?:(\d{3})\s+)?` + // subject, number, section
	`(?:Mon|Tue|Wed|Thu|Fri|Sat|Sun)[a-z]*\.?,?\s+` + // weekday
	`([A-Z][a-z]{2})[a-z]*\.?\s+(\d{1,2})\b` // month, day

var (
	rePrelim = regexp.MustCompile(linePrefix + `(.*)$`)
	reFinal  = regexp.MustCompile(linePrefix + `,?\s+(\d{1,2}):(\d{2})\s*([AaPp][Mm])\b(.*)$`)
	reFinalW = regexp.MustCompile(`\bFinal\b`)
)

// PrelimParser reads lines like "CS    2110    001  Tue, Feb 11   ...".
type PrelimParser struct {
	Year int
}

func (p PrelimParser) ParseLine(line string) (ScrapeExam, bool) {
	m := rePrelim.FindStringSubmatch(line)
	if m == nil {
		return ScrapeExam{}, false
	}
	date, ok := parseDate(p.Year, m[4], m[5])
	if !ok {
		return ScrapeExam{}, false
	}
	return ScrapeExam{
		CourseCode: m[1] + " " + m[2],
		Section:    m[3],
		Date:       date,
		Trailing:   strings.TrimSpace(m[6]),
	}, true
}

// FinalParser reads lines like "CS 2110  Tue, May 14  2:00 PM  Barton Hall".
type FinalParser struct {
	Year int
}

func (p FinalParser) ParseLine(line string) (ScrapeFinal, bool) {
	m := reFinal.FindStringSubmatch(line)
	if m == nil {
		return ScrapeFinal{}, false
	}
	date, ok := parseDate(p.Year, m[4], m[5])
	if !ok {
		return ScrapeFinal{}, false
	}
	hour, minute, ok := parseClock(m[6], m[7], m[8])
	if !ok {
		return ScrapeFinal{}, false
	}
	trailing := strings.TrimSpace(m[9])
	return ScrapeFinal{
		CourseCode:  m[1] + " " + m[2],
		Section:     m[3],
		Date:        date,
		Hour:        hour,
		Minute:      minute,
		Deliverable: reFinalW.MatchString(trailing),
		Trailing:    trailing,
	}, true
}

func parseDate(year int, month, day string) (Date, bool) {
	mt, err := time.Parse("Jan", month)
	if err != nil {
		return Date{}, false
	}
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 || d > 31 {
		return Date{}, false
	}
	// time.Date normalises Feb 31 into March; such a line is malformed.
	if time.Date(year, mt.Month(), d, 0, 0, 0, 0, time.UTC).Day() != d {
		return Date{}, false
	}
	return Date{Year: year, Month: mt.Month(), Day: d}, true
}

func parseClock(hh, mm, meridiem string) (int, int, bool) {
	h, err := strconv.Atoi(hh)
	if err != nil || h < 1 || h > 12 {
		return 0, 0, false
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m > 59 {
		return 0, 0, false
	}
	h %= 12
	if strings.EqualFold(meridiem, "PM") {
		h += 12
	}
	return h, m, true
}

var reRoster = regexp.MustCompile(`^(FA|SP|SU|WI)(\d{2})$`)

// RosterYear maps a roster token onto its calendar year: "FA23" -> 2023.
func RosterYear(roster string) (int, error) {
	m := reRoster.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(roster)))
	if m == nil {
		return 0, fmt.Errorf("invalid roster %q", roster)
	}
	yy, _ := strconv.Atoi(m[2])
	return 2000 + yy, nil
}
