package domain

import "testing"

func TestLinkState(t *testing.T) {
	tests := []struct {
		name string
		link Link
		want LinkState
	}{
		{name: "fresh", link: Link{}, want: StateCreated},
		{name: "visited", link: Link{Clicks: 3}, want: StateVisited},
		{name: "completed", link: Link{Clicks: 3, Completed: 1}, want: StateCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.link.State(); got != tt.want {
				t.Errorf("State() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSumTotals(t *testing.T) {
	links := []Link{
		{Slug: "AAAAAA", Clicks: 4, Completed: 2},
		{Slug: "BBBBBB", Clicks: 1},
	}
	got := SumTotals(links)
	if got.Links != 2 || got.Clicks != 5 || got.Completed != 2 {
		t.Errorf("unexpected totals: %+v", got)
	}

	if empty := SumTotals(nil); empty != (Totals{}) {
		t.Errorf("expected zero totals, got %+v", empty)
	}
}
