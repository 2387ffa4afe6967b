// Package terms holds the academic calendar handed to the deadline extractor.
package terms

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Term is one roster's calendar. Dates is free text, one fact per line.
type Term struct {
	Roster string `yaml:"-"`
	Name   string `yaml:"name"`
	Dates  string `yaml:"dates"`
}

type file struct {
	Terms map[string]Term `yaml:"terms"`
}

// Calendar maps roster tokens (FA23, SP24) to terms.
type Calendar struct {
	terms map[string]Term
}

func NewCalendar(terms ...Term) *Calendar {
	c := &Calendar{terms: make(map[string]Term, len(terms))}
	for _, t := range terms {
		c.terms[normalizeRoster(t.Roster)] = t
	}
	return c
}

// Load reads a calendar file:
//
//	terms:
//	  SP24:
//	    name: Spring 2024
//	    dates: |
//	      Classes begin Jan 22
func Load(path string) (*Calendar, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read term calendar: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Calendar, error) {
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode term calendar: %w", err)
	}
	c := &Calendar{terms: make(map[string]Term, len(f.Terms))}
	for roster, t := range f.Terms {
		t.Roster = normalizeRoster(roster)
		t.Dates = strings.TrimSpace(t.Dates)
		c.terms[t.Roster] = t
	}
	return c, nil
}

func (c *Calendar) Lookup(roster string) (Term, bool) {
	if c == nil {
		return Term{}, false
	}
	t, ok := c.terms[normalizeRoster(roster)]
	return t, ok
}

// TermDates returns the dates block for roster, or "" when it is unknown.
func (c *Calendar) TermDates(roster string) string {
	t, _ := c.Lookup(roster)
	return t.Dates
}

// Rosters lists known roster tokens in sorted order.
func (c *Calendar) Rosters() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.terms))
	for r := range c.terms {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

func normalizeRoster(r string) string {
	return strings.ToUpper(strings.TrimSpace(r))
}
