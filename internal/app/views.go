package service

import (
	"math"

	repository "github.com/okian/votesheet/internal/adapters/repository"
	"github.com/okian/votesheet/internal/domain/types"
	"github.com/okian/votesheet/internal/domain/validation"
)

func entryView(e repository.Entry) types.Entry {
	return types.Entry{
		Rank:       e.Rank,
		Candidate:  e.Candidate,
		Name:       e.Name,
		Score:      e.Score,
		TotalVotes: e.TotalVotes,
		Top:        e.Top,
	}
}

func rowView(r repository.Row) types.Row {
	return types.Row{
		Candidate:  r.Candidate,
		Name:       r.Name,
		Votes:      append([]int(nil), r.Votes...),
		TotalVotes: r.TotalVotes,
		Score:      r.Score,
		Rank:       r.Rank,
		Top:        r.Top,
	}
}

func usageView(u validation.Usage) types.CategoryUsage {
	out := types.CategoryUsage{
		Category: u.Category,
		Key:      u.Key,
		Label:    u.Label,
		Used:     u.Used,
		Max:      u.Max,
		Status:   string(u.Status),
	}
	// JSON has no infinity.
	if !math.IsInf(u.Percent, 0) && !math.IsNaN(u.Percent) {
		p := u.Percent
		out.Percent = &p
	}
	return out
}

func summaryView(snap *repository.Snapshot) types.Summary {
	return types.Summary{
		TotalVotes:     snap.Summary.TotalVotes,
		CategoriesUsed: snap.Summary.CategoriesUsed,
		TopScore:       snap.Summary.TopScore,
		OverLimit:      snap.OverLimit,
	}
}

func sheetView(snap *repository.Snapshot) types.Sheet {
	out := types.Sheet{
		Revision:    snap.Revision,
		TopN:        snap.TopN,
		Categories:  make([]types.Category, len(snap.Categories)),
		Rows:        make([]types.Row, len(snap.Rows)),
		Rankings:    make([]types.Entry, len(snap.Ranking)),
		Utilization: make([]types.CategoryUsage, len(snap.Usage)),
		Summary:     summaryView(snap),
	}
	for i, c := range snap.Categories {
		out.Categories[i] = types.Category{
			Key:      c.Key,
			Name:     c.Name,
			Label:    c.Label(),
			Weight:   c.Weight,
			MaxVotes: c.MaxVotes,
		}
	}
	for i, r := range snap.Rows {
		out.Rows[i] = rowView(r)
	}
	for i, e := range snap.Ranking {
		out.Rankings[i] = entryView(e)
	}
	for i, u := range snap.Usage {
		out.Utilization[i] = usageView(u)
	}
	return out
}
