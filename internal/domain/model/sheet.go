package model

import "fmt"

// Category is one weighted voting bucket. Categories are static for the
// lifetime of a sheet.
type Category struct {
	Key      string
	Name     string
	Weight   float64
	MaxVotes int
}

// Label renders the category the way tables and exports show it, e.g. "A (1995)".
func (c Category) Label() string {
	return fmt.Sprintf("%s (%s)", c.Key, c.Name)
}

// Candidate is a named row on the sheet, identified by its position.
type Candidate struct {
	Index int
	Name  string
}
