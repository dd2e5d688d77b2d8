// Package votefile reads offline vote sheets from YAML.
//
//	votes:
//	  - candidate: Abhishek Tiwari
//	    counts: [10, 0, 3, 0, 1]
//
// Counts are coerced like any interactive edit, so "7", "7abc" and 7.9 all
// store 7 and blanks store 0.
package votefile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/okian/votesheet/internal/domain/scoring"
)

// File is a parsed votes file.
type File struct {
	Votes []Entry `yaml:"votes"`
}

// Entry holds one candidate's counts in category order.
type Entry struct {
	Candidate string `yaml:"candidate"`
	Counts    []any  `yaml:"counts"`
}

// Report describes what Apply changed.
type Report struct {
	Edits     int
	Coercions map[scoring.Coercion]int
}

// Parse decodes a votes file. Unknown keys are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return &f, nil
}

// Load reads and parses the file at path.
func Load(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read votes file: %w", err)
	}
	return Parse(bytes.NewReader(b))
}

// Apply writes every entry into s. Validation happens before the first
// write, so an error leaves s untouched.
func (f *File) Apply(s *scoring.Sheet) (Report, error) {
	index := make(map[string]int, s.CandidateCount())
	for i, name := range s.Candidates() {
		index[name] = i
	}

	rows := make([]int, len(f.Votes))
	seen := make(map[int]bool, len(f.Votes))
	for n, e := range f.Votes {
		i, ok := index[e.Candidate]
		if !ok {
			return Report{}, fmt.Errorf("%w: %q", ErrUnknownCandidate, e.Candidate)
		}
		if seen[i] {
			return Report{}, fmt.Errorf("%w: %q", ErrDuplicateCandidate, e.Candidate)
		}
		if len(e.Counts) != s.CategoryCount() {
			return Report{}, fmt.Errorf("%w: %q has %d counts, want %d", ErrCountsLength, e.Candidate, len(e.Counts), s.CategoryCount())
		}
		seen[i] = true
		rows[n] = i
	}

	rep := Report{Coercions: make(map[scoring.Coercion]int)}
	for n, e := range f.Votes {
		for j, raw := range e.Counts {
			v, kind := scoring.CoerceVote(raw)
			if kind != scoring.CoercionNone {
				rep.Coercions[kind]++
			}
			if err := s.SetVote(rows[n], j, v); err != nil {
				return rep, err
			}
			rep.Edits++
		}
	}
	return rep, nil
}
