package sync

import (
	"path/filepath"
	"strings"

	"github.com/SXKDZ/papercli/internal/types"
)

// matchThreshold is the similarity two papers must exceed to be considered
// the same logical record.
const matchThreshold = 0.8

// titleThreshold is the minimum title score for a non-identifier match to
// be possible at all.
const titleThreshold = 0.7

// matcher scores paper pairs across the two replicas. It caches artifact
// file info so a paper's PDF is hashed at most once per sync.
type matcher struct {
	localPDFDir  string
	remotePDFDir string
	infoCache    map[string]fileInfo
}

func newMatcher(localPDFDir, remotePDFDir string) *matcher {
	return &matcher{
		localPDFDir:  localPDFDir,
		remotePDFDir: remotePDFDir,
		infoCache:    make(map[string]fileInfo),
	}
}

func (m *matcher) cachedInfo(path string) (fileInfo, bool) {
	if fi, ok := m.infoCache[path]; ok {
		return fi, fi.Hash != ""
	}
	fi, err := getFileInfo(path)
	if err != nil {
		// Negative-cache missing or unreadable files.
		m.infoCache[path] = fileInfo{}
		return fileInfo{}, false
	}
	m.infoCache[path] = fi
	return fi, true
}

// similarity scores a local/remote paper pair in [0, 1].
//
// Exact identifier matches (DOI, preprint id, URL) short-circuit to 1.
// Otherwise the title must score above titleThreshold. When both sides
// reference existing files, the result is the larger of the title score and
// the average of the title and artifact scores, so the artifact score can
// only raise it.
func (m *matcher) similarity(local, remote *types.Paper) float64 {
	if local.DOI != "" && remote.DOI != "" && local.DOI == remote.DOI {
		return 1.0
	}
	if local.PreprintID != "" && remote.PreprintID != "" && local.PreprintID == remote.PreprintID {
		return 1.0
	}
	if local.URL != "" && remote.URL != "" && local.URL == remote.URL {
		return 1.0
	}

	titleScore := scoreTitles(local.Title, remote.Title)
	if titleScore < titleThreshold {
		return 0.0
	}

	pdfScore, ok := m.scorePDFs(local, remote)
	if !ok {
		return titleScore
	}
	if avg := (titleScore + pdfScore) / 2; avg > titleScore {
		return avg
	}
	return titleScore
}

// scoreTitles implements the title component: exact 1.0, substring 0.85,
// else word-set overlap gated at titleThreshold.
func scoreTitles(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))

	if a == "" || b == "" {
		return 0.0
	}
	if a == b {
		return 1.0
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return 0.85
	}

	wordsA := wordSet(a)
	wordsB := wordSet(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0.0
	}

	overlap := 0
	for w := range wordsA {
		if _, ok := wordsB[w]; ok {
			overlap++
		}
	}
	denom := len(wordsA)
	if len(wordsB) > denom {
		denom = len(wordsB)
	}
	score := float64(overlap) / float64(denom)
	if score > titleThreshold {
		return score
	}
	return 0.0
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		set[w] = struct{}{}
	}
	return set
}

// scorePDFs compares the two papers' artifact files. The score is defined
// only when both papers reference files that exist: 1.0 for identical
// content, 0.8 for sizes within 20% of each other.
func (m *matcher) scorePDFs(local, remote *types.Paper) (float64, bool) {
	if local.PDFPath == "" || remote.PDFPath == "" {
		return 0, false
	}
	localInfo, ok := m.cachedInfo(filepath.Join(m.localPDFDir, local.PDFPath))
	if !ok {
		return 0, false
	}
	remoteInfo, ok := m.cachedInfo(filepath.Join(m.remotePDFDir, remote.PDFPath))
	if !ok {
		return 0, false
	}

	if localInfo.Hash == remoteInfo.Hash {
		return 1.0, true
	}
	if localInfo.Size > 0 && remoteInfo.Size > 0 {
		smaller, larger := localInfo.Size, remoteInfo.Size
		if smaller > larger {
			smaller, larger = larger, smaller
		}
		if float64(smaller)/float64(larger) >= 0.8 {
			return 0.8, true
		}
	}
	return 0, false
}

// matchPapers computes a greedy best-effort bijection from local ids to
// remote ids. Locals are considered in slice order (ascending id); each
// picks the highest-scoring unclaimed remote above matchThreshold, ties
// broken by remote iteration order.
func (m *matcher) matchPapers(local, remote []*types.Paper) map[int64]int64 {
	matches := make(map[int64]int64)
	claimed := make(map[int64]bool, len(remote))

	for _, lp := range local {
		bestScore := 0.0
		var bestID int64
		found := false
		for _, rp := range remote {
			if claimed[rp.ID] {
				continue
			}
			score := m.similarity(lp, rp)
			if score > matchThreshold && score > bestScore {
				bestScore = score
				bestID = rp.ID
				found = true
			}
		}
		if found {
			matches[lp.ID] = bestID
			claimed[bestID] = true
		}
	}
	return matches
}
