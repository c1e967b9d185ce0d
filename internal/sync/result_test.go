package sync

import (
	"testing"

	"github.com/SXKDZ/papercli/internal/types"
)

func TestResultSummary(t *testing.T) {
	tests := []struct {
		name   string
		result Result
		want   string
	}{
		{
			name:   "cancelled",
			result: Result{Cancelled: true},
			want:   "Sync operation was cancelled by user",
		},
		{
			name: "unresolved conflicts",
			result: Result{Conflicts: []*types.Conflict{
				{Kind: types.ConflictPaper, ItemID: "X"},
				{Kind: types.ConflictPDF, ItemID: "x.pdf"},
			}},
			want: "Sync completed with 2 conflicts that need resolution",
		},
		{
			name:   "no changes",
			result: Result{},
			want:   "No changes to sync - local and remote are already in sync",
		},
		{
			name: "counter summary",
			result: Result{Changes: Changes{
				PapersAdded:   2,
				PapersUpdated: 1,
				PDFsCopied:    3,
			}},
			want: "Sync completed: 2 papers added, 1 papers updated, 3 PDFs copied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.Summary(); got != tt.want {
				t.Errorf("Summary() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFixedResolver(t *testing.T) {
	conflicts := []*types.Conflict{
		{Kind: types.ConflictPaper, ItemID: "A"},
		{Kind: types.ConflictPDF, ItemID: "a.pdf"},
	}
	decisions := FixedResolver(types.DecisionRemote).Resolve(conflicts)
	if len(decisions) != 2 {
		t.Fatalf("got %d decisions, want 2", len(decisions))
	}
	for _, c := range conflicts {
		if decisions[c.Key()] != types.DecisionRemote {
			t.Errorf("decision for %s = %q", c.Key(), decisions[c.Key()])
		}
	}
}
