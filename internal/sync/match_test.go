package sync

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/SXKDZ/papercli/internal/types"
)

func testMatcher(t *testing.T) *matcher {
	t.Helper()
	base := t.TempDir()
	local := filepath.Join(base, "local-pdfs")
	remote := filepath.Join(base, "remote-pdfs")
	for _, dir := range []string{local, remote} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("creating pdf dir: %v", err)
		}
	}
	return newMatcher(local, remote)
}

func TestSimilarityIdentifierShortCircuits(t *testing.T) {
	m := testMatcher(t)

	tests := []struct {
		name          string
		local, remote types.Paper
		want          float64
	}{
		{
			name:   "doi match beats differing titles",
			local:  types.Paper{Title: "Completely Different", DOI: "10.1/x"},
			remote: types.Paper{Title: "Other Thing Entirely", DOI: "10.1/x"},
			want:   1.0,
		},
		{
			name:   "preprint id match",
			local:  types.Paper{Title: "A", PreprintID: "arXiv 2505.15134"},
			remote: types.Paper{Title: "B", PreprintID: "arXiv 2505.15134"},
			want:   1.0,
		},
		{
			name:   "url match",
			local:  types.Paper{Title: "A", URL: "https://example.com/p"},
			remote: types.Paper{Title: "B", URL: "https://example.com/p"},
			want:   1.0,
		},
		{
			name:   "empty dois do not match",
			local:  types.Paper{Title: "Alpha"},
			remote: types.Paper{Title: "Beta"},
			want:   0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.similarity(&tt.local, &tt.remote); got != tt.want {
				t.Errorf("similarity = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScoreTitles(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"exact", "Deep Learning", "Deep Learning", 1.0},
		{"case insensitive", "Deep Learning", "deep learning", 1.0},
		{"trailing period is a substring match", "Attention Is All You Need", "Attention is all you need.", 0.85},
		{"substring", "Residual Networks", "Deep Residual Networks", 0.85},
		{"word overlap above threshold", "deep residual learning for image recognition", "deep residual learning for video recognition", 5.0 / 6.0},
		{"word overlap below threshold", "one two three four", "one five six seven", 0.0},
		{"empty title", "", "Something", 0.0},
		{"whitespace only", "   ", "Something", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scoreTitles(tt.a, tt.b); got != tt.want {
				t.Errorf("scoreTitles(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSimilarityWithArtifacts(t *testing.T) {
	m := testMatcher(t)

	// Identical bytes under different names: artifact score 1.0 lifts a
	// substring title match to (0.85 + 1.0) / 2.
	content := []byte("%PDF-1.4 fake body")
	if err := os.WriteFile(filepath.Join(m.localPDFDir, "a.pdf"), content, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(m.remotePDFDir, "b.pdf"), content, 0o644); err != nil {
		t.Fatal(err)
	}

	local := types.Paper{Title: "Residual Networks", PDFPath: "a.pdf"}
	remote := types.Paper{Title: "Deep Residual Networks", PDFPath: "b.pdf"}

	want := (0.85 + 1.0) / 2
	if got := m.similarity(&local, &remote); got != want {
		t.Errorf("similarity = %v, want %v", got, want)
	}

	// A missing file leaves the artifact score undefined.
	remote.PDFPath = "missing.pdf"
	if got := m.similarity(&local, &remote); got != 0.85 {
		t.Errorf("similarity with missing file = %v, want 0.85", got)
	}
}

func TestSimilarityArtifactSizeRatio(t *testing.T) {
	m := testMatcher(t)

	if err := os.WriteFile(filepath.Join(m.localPDFDir, "a.pdf"), make([]byte, 1000), 0o644); err != nil {
		t.Fatal(err)
	}
	// 900/1000 = 0.9 >= 0.8: almost-similar artifacts score 0.8. Different
	// trailing byte keeps the hashes apart.
	body := make([]byte, 900)
	body[899] = 1
	if err := os.WriteFile(filepath.Join(m.remotePDFDir, "b.pdf"), body, 0o644); err != nil {
		t.Fatal(err)
	}

	local := types.Paper{Title: "Residual Networks", PDFPath: "a.pdf"}
	remote := types.Paper{Title: "Deep Residual Networks", PDFPath: "b.pdf"}

	// The average (0.85 + 0.8) / 2 = 0.825 is below the title score, so the
	// title score stands.
	want := 0.85
	if got := m.similarity(&local, &remote); got != want {
		t.Errorf("similarity = %v, want %v", got, want)
	}
}

func TestMatchPapersGreedyBijection(t *testing.T) {
	m := testMatcher(t)

	local := []*types.Paper{
		{ID: 1, Title: "Paper Alpha", DOI: "10.1/alpha"},
		{ID: 2, Title: "Paper Alpha"}, // would also match remote 11 by title
		{ID: 3, Title: "Unrelated Work"},
	}
	remote := []*types.Paper{
		{ID: 11, Title: "Paper Alpha", DOI: "10.1/alpha"},
		{ID: 12, Title: "Another Topic"},
	}

	matches := m.matchPapers(local, remote)

	if got := matches[1]; got != 11 {
		t.Errorf("local 1 matched %d, want 11", got)
	}
	// Remote 11 is claimed by local 1; local 2 has no candidate left.
	if remoteID, ok := matches[2]; ok {
		t.Errorf("local 2 should be unmatched, got %d", remoteID)
	}
	if _, ok := matches[3]; ok {
		t.Error("local 3 should be unmatched")
	}

	claimed := make(map[int64]int)
	for _, remoteID := range matches {
		claimed[remoteID]++
		if claimed[remoteID] > 1 {
			t.Errorf("remote %d claimed more than once", remoteID)
		}
	}
}

func TestMatchPapersThreshold(t *testing.T) {
	m := testMatcher(t)

	// Exact title equality scores 1.0; four-of-five word overlap scores
	// 0.8, which does not clear the strict > 0.8 gate.
	local := []*types.Paper{{ID: 1, Title: "alpha beta gamma delta epsilon"}}
	remote := []*types.Paper{{ID: 21, Title: "alpha beta gamma delta zeta"}}
	if matches := m.matchPapers(local, remote); len(matches) != 0 {
		t.Errorf("0.8 score must not match, got %v", matches)
	}

	remote[0].Title = "alpha beta gamma delta epsilon"
	matches := m.matchPapers(local, remote)
	if matches[1] != 21 {
		t.Errorf("exact title should match, got %v", matches)
	}
}
