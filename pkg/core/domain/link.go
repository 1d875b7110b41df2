package domain

import "time"

// Link is a funnel link: a slug mapped to a target URL with two engagement counters.
type Link struct {
	ID        int64     `json:"id"`
	Slug      string    `json:"slug"`
	Target    string    `json:"target"`
	Clicks    int64     `json:"clicks"`    // first-stage opens of /go/{slug}
	Completed int64     `json:"completed"` // second-stage forwards via /redirect/{slug}
	CreatedAt time.Time `json:"created_at"`
}

// LinkState is the visitor-facing state derived from the counters.
type LinkState string

const (
	StateCreated   LinkState = "created"
	StateVisited   LinkState = "visited"
	StateCompleted LinkState = "completed"
)

// State derives the link state. It is never stored.
func (l *Link) State() LinkState {
	switch {
	case l.Completed > 0:
		return StateCompleted
	case l.Clicks > 0:
		return StateVisited
	default:
		return StateCreated
	}
}

// ShortLink is a freshly created link together with its public short URL.
type ShortLink struct {
	Link
	ShortURL string `json:"short_url"`
}

// Totals aggregates counters across links for the admin panel
type Totals struct {
	Links     int   `json:"links"`
	Clicks    int64 `json:"clicks"`
	Completed int64 `json:"completed"`
}

// SumTotals folds a list of links into Totals.
func SumTotals(links []Link) Totals {
	t := Totals{Links: len(links)}
	for _, l := range links {
		t.Clicks += l.Clicks
		t.Completed += l.Completed
	}
	return t
}
