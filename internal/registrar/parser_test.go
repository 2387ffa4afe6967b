package registrar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrelimParser_ParseLine(t *testing.T) {
	p := PrelimParser{Year: 2024}
	tests := []struct {
		name string
		line string
		want ScrapeExam
		ok   bool
	}{
		{
			name: "with section",
			line: "CS    2110    001  Tue, Feb 11 ...",
			want: ScrapeExam{CourseCode: "CS 2110", Section: "001", Date: Date{2024, time.February, 11}, Trailing: "..."},
			ok:   true,
		},
		{
			name: "without section",
			line: "MATH  1920         Wed, Feb 26",
			want: ScrapeExam{CourseCode: "MATH 1920", Date: Date{2024, time.February, 26}},
			ok:   true,
		},
		{
			name: "long weekday and month",
			line: "INFO 1300 Thursday, March 7",
			want: ScrapeExam{CourseCode: "INFO 1300", Date: Date{2024, time.March, 7}},
			ok:   true,
		},
		{name: "header", line: "Course  Number  Sec  Date"},
		{name: "rule", line: "------  ------  ---  ------------"},
		{name: "blank", line: "   "},
		{
			name: "leap day",
			line: "CS 2110 Thu, Feb 29",
			want: ScrapeExam{CourseCode: "CS 2110", Date: Date{2024, time.February, 29}},
			ok:   true,
		},
		{name: "bad month", line: "CS 2110 Tue, Foo 11"},
		{name: "day past month end", line: "CS 2110 Fri, Feb 31"},
		{name: "day past april end", line: "CS 2110 Wed, Apr 31"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := p.ParseLine(tt.line)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFinalParser_ParseLine(t *testing.T) {
	p := FinalParser{Year: 2024}

	exam, ok := p.ParseLine("CS 2110         Tue, May 14    2:00 PM   Barton Hall")
	require.True(t, ok)
	assert.Equal(t, "CS 2110", exam.CourseCode)
	assert.Equal(t, Date{2024, time.May, 14}, exam.Date)
	assert.Equal(t, 14, exam.Hour)
	assert.Equal(t, 0, exam.Minute)
	assert.False(t, exam.Deliverable)
	assert.Equal(t, "Barton Hall", exam.Trailing)

	deliverable, ok := p.ParseLine("INFO 1300       Fri, May 10    4:30 PM   Final project due")
	require.True(t, ok)
	assert.True(t, deliverable.Deliverable)
	assert.Equal(t, 16, deliverable.Hour)
	assert.Equal(t, 30, deliverable.Minute)

	morning, ok := p.ParseLine("MATH 1920  001  Mon, May 13    9:00 AM   Statler Aud")
	require.True(t, ok)
	assert.Equal(t, "001", morning.Section)
	assert.Equal(t, 9, morning.Hour)

	noon, ok := p.ParseLine("PHYS 1112 Sat, May 18 12:00 PM Schwartz")
	require.True(t, ok)
	assert.Equal(t, 12, noon.Hour)

	midnight, ok := p.ParseLine("PHYS 1112 Sat, May 18 12:15 AM Online")
	require.True(t, ok)
	assert.Equal(t, 0, midnight.Hour)

	_, ok = p.ParseLine("CS 2110 Tue, May 14")
	assert.False(t, ok, "a final line needs a time")
}

func TestFinalParser_RejectsFeb29OutsideLeapYear(t *testing.T) {
	_, ok := FinalParser{Year: 2023}.ParseLine("CS 2110 001 Thu, Feb 29 2:00 PM")
	assert.False(t, ok)
}

func TestFinalParser_FinalWordIsCaseSensitive(t *testing.T) {
	p := FinalParser{Year: 2024}
	rec, ok := p.ParseLine("ECON 1110 Wed, May 15 7:00 PM finalists room")
	require.True(t, ok)
	assert.False(t, rec.Deliverable)
}

func TestParseLines_SkipsNonMatching(t *testing.T) {
	lines := []string{"Course Sec Date", "CS 2110 001 Tue, Feb 11", "", "GHOST 1000 Mon, Mar 4"}
	got := ParseLines[ScrapeExam](PrelimParser{Year: 2024}, lines)
	require.Len(t, got, 2)
	assert.Equal(t, "GHOST 1000", got[1].CourseCode)
}

func TestRosterYear(t *testing.T) {
	y, err := RosterYear("FA23")
	require.NoError(t, err)
	assert.Equal(t, 2023, y)

	y, err = RosterYear("sp24")
	require.NoError(t, err)
	assert.Equal(t, 2024, y)

	_, err = RosterYear("2024")
	assert.Error(t, err)
}
