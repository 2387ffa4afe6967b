package terms

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
terms:
  SP24:
    name: Spring 2024
    dates: |
      Classes begin Jan 22
      Spring break Mar 30 - Apr 7
  fa23:
    name: Fall 2023
    dates: Classes begin Aug 21
`

func TestParse_Lookup(t *testing.T) {
	c, err := Parse([]byte(sample))
	require.NoError(t, err)

	sp, ok := c.Lookup("sp24")
	require.True(t, ok)
	assert.Equal(t, "Spring 2024", sp.Name)
	assert.Equal(t, "Classes begin Jan 22\nSpring break Mar 30 - Apr 7", sp.Dates)
	assert.Equal(t, "SP24", sp.Roster)

	assert.Equal(t, "Classes begin Aug 21", c.TermDates("FA23"))
	assert.Equal(t, "", c.TermDates("SU25"))
	assert.Equal(t, []string{"FA23", "SP24"}, c.Rosters())
}

func TestParse_RejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("terms:\n  SP24:\n    nmae: typo\n"))
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "terms.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))
	c, err := Load(path)
	require.NoError(t, err)
	_, ok := c.Lookup("SP24")
	assert.True(t, ok)
}

func TestNilCalendar(t *testing.T) {
	var c *Calendar
	_, ok := c.Lookup("SP24")
	assert.False(t, ok)
	assert.Empty(t, c.TermDates("SP24"))
}

func TestNewCalendar(t *testing.T) {
	c := NewCalendar(Term{Roster: "wi24", Name: "Winter 2024", Dates: "Jan 2 - Jan 19"})
	assert.Equal(t, "Jan 2 - Jan 19", c.TermDates("WI24"))
}
