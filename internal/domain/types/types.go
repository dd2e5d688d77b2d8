// Package types contains the JSON shapes shared by the HTTP API and its clients.
package types

// Entry is one ranking position.
type Entry struct {
	Rank       int     `json:"rank"`
	Candidate  int     `json:"candidate"`
	Name       string  `json:"name"`
	Score      float64 `json:"score"`
	TotalVotes int     `json:"total_votes"`
	Top        bool    `json:"top"`
}

// Category describes one column of the sheet.
type Category struct {
	Key      string  `json:"key"`
	Name     string  `json:"name"`
	Label    string  `json:"label"`
	Weight   float64 `json:"weight"`
	MaxVotes int     `json:"max_votes"`
}

// Row is one candidate in declared order.
type Row struct {
	Candidate  int     `json:"candidate"`
	Name       string  `json:"name"`
	Votes      []int   `json:"votes"`
	TotalVotes int     `json:"total_votes"`
	Score      float64 `json:"score"`
	Rank       int     `json:"rank"`
	Top        bool    `json:"top"`
}

// CategoryUsage is the utilization of one category. Percent is nil when it
// is not finite (a zero ceiling with votes).
type CategoryUsage struct {
	Category int      `json:"category"`
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Used     int      `json:"used"`
	Max      int      `json:"max"`
	Percent  *float64 `json:"percent"`
	Status   string   `json:"status"`
}

// Summary aggregates the sheet.
type Summary struct {
	TotalVotes     int     `json:"total_votes"`
	CategoriesUsed int     `json:"categories_used"`
	TopScore       float64 `json:"top_score"`
	OverLimit      int     `json:"over_limit"`
}

// Sheet is the full view of one revision.
type Sheet struct {
	Revision    uint64          `json:"revision"`
	TopN        int             `json:"top_n"`
	Categories  []Category      `json:"categories"`
	Rows        []Row           `json:"rows"`
	Rankings    []Entry         `json:"rankings"`
	Utilization []CategoryUsage `json:"utilization"`
	Summary     Summary         `json:"summary"`
}

// VoteRequest edits one cell. Value may be a number, a string or null.
type VoteRequest struct {
	Candidate int `json:"candidate"`
	Category  int `json:"category"`
	Value     any `json:"value"`
}

// VoteResult is returned after an edit.
type VoteResult struct {
	Revision uint64        `json:"revision"`
	Stored   int           `json:"stored"`
	Coercion string        `json:"coercion,omitempty"`
	Row      Row           `json:"row"`
	Usage    CategoryUsage `json:"usage"`
	Summary  Summary       `json:"summary"`
}

// Stats is the /stats payload.
type Stats struct {
	Summary     Summary `json:"summary"`
	Revision    uint64  `json:"revision"`
	Candidates  int     `json:"candidates"`
	Categories  int     `json:"categories"`
	Subscribers int     `json:"subscribers"`
	Edits       uint64  `json:"edits"`
	Resets      uint64  `json:"resets"`
	Uptime      string  `json:"uptime"`
}
