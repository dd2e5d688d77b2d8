// Package export renders a sheet snapshot as the CSV results file.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/okian/votesheet/internal/adapters/repository"
)

// ContentType is the media type of the export.
const ContentType = "text/csv; charset=utf-8"

// FileName returns the download name for an export taken at t, using the UTC
// calendar date.
func FileName(t time.Time) string {
	return "voting_results_" + t.UTC().Format(time.DateOnly) + ".csv"
}

// Write renders snap as CSV: the vote table in declared candidate order, a
// blank line, then the utilization table.
func Write(w io.Writer, snap *repository.Snapshot) error {
	if snap == nil {
		return ErrNoSnapshot
	}
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(snap.Categories)+3)
	header = append(header, "Candidate")
	for _, c := range snap.Categories {
		header = append(header, c.Label())
	}
	header = append(header, "Total Votes", "Weighted Score")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, row := range snap.Rows {
		rec := make([]string, 0, len(header))
		rec = append(rec, row.Name)
		for _, v := range row.Votes {
			rec = append(rec, strconv.Itoa(v))
		}
		rec = append(rec, strconv.Itoa(row.TotalVotes), FormatScore(row.Score))
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", row.Candidate, err)
		}
	}

	// An empty record renders as a blank line.
	if err := cw.Write([]string{}); err != nil {
		return fmt.Errorf("write separator: %w", err)
	}

	if err := cw.Write([]string{"Category", "Used Votes", "Max Votes", "Utilization %"}); err != nil {
		return fmt.Errorf("write usage header: %w", err)
	}
	for _, u := range snap.Usage {
		rec := []string{u.Label, strconv.Itoa(u.Used), strconv.Itoa(u.Max), FormatPercent(u.Percent)}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write usage %s: %w", u.Key, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

// FormatScore renders a weighted score to 3 decimals.
func FormatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 3, 64)
}

// FormatPercent renders a utilization to 1 decimal with a % sign, or "n/a"
// when it is not finite.
func FormatPercent(p float64) string {
	if math.IsInf(p, 0) || math.IsNaN(p) {
		return "n/a"
	}
	return strconv.FormatFloat(p, 'f', 1, 64) + "%"
}
