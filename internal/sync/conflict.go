package sync

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/SXKDZ/papercli/internal/types"
)

// compareFields is the scalar field set papers are compared over. Rendered
// authors and artifact hashes are compared separately; timestamps are
// excluded because they diverge naturally across replicas.
var compareFields = []string{
	"title", "abstract", "venue_full", "venue_acronym", "year", "volume",
	"issue", "pages", "paper_type", "doi", "preprint_id", "category",
	"url", "notes",
}

// paperSnapshot renders a paper's comparable state as a field map. Empty
// and missing values collapse to "" so the two are treated as equal.
func paperSnapshot(p *types.Paper) map[string]string {
	year := ""
	if p.Year != 0 {
		year = strconv.Itoa(p.Year)
	}
	return map[string]string{
		"title":         p.Title,
		"abstract":      p.Abstract,
		"venue_full":    p.VenueFull,
		"venue_acronym": p.VenueAcronym,
		"year":          year,
		"volume":        p.Volume,
		"issue":         p.Issue,
		"pages":         p.Pages,
		"paper_type":    p.PaperType,
		"doi":           p.DOI,
		"preprint_id":   p.PreprintID,
		"category":      p.Category,
		"url":           p.URL,
		"notes":         p.Notes,
		"authors":       p.Authors,
		"pdf_path":      p.PDFPath,
	}
}

// titlesEqual compares titles under the matcher's normalization plus a
// trailing-period trim.
func titlesEqual(a, b string) bool {
	norm := func(s string) string {
		return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), ".")
	}
	return norm(a) == norm(b)
}

// papersDiffer reports whether a matched pair differs materially: any
// comparison field, the rendered author order, or the referenced artifact
// content.
func (e *Engine) papersDiffer(m *matcher, local, remote *types.Paper) bool {
	localSnap := paperSnapshot(local)
	remoteSnap := paperSnapshot(remote)
	for _, field := range compareFields {
		if field == "title" {
			// Titles that only differ in case or a trailing period are the
			// same title typed twice, not a material divergence.
			if !titlesEqual(local.Title, remote.Title) {
				return true
			}
			continue
		}
		if localSnap[field] != remoteSnap[field] {
			return true
		}
	}

	if local.Authors != remote.Authors {
		return true
	}

	if local.PDFPath != "" && remote.PDFPath != "" {
		localInfo, okL := m.cachedInfo(filepath.Join(e.localPDFDir, local.PDFPath))
		remoteInfo, okR := m.cachedInfo(filepath.Join(e.remotePDFDir, remote.PDFPath))
		if okL && okR && localInfo.Hash != remoteInfo.Hash {
			return true
		}
	}
	return false
}

// detectConflicts finds paper conflicts over the matched pairs, then
// appends per-artifact conflicts for same-named files whose content
// differs.
func (e *Engine) detectConflicts(m *matcher, local, remote []*types.Paper, matches map[int64]int64) ([]*types.Conflict, error) {
	remoteByID := make(map[int64]*types.Paper, len(remote))
	for _, rp := range remote {
		remoteByID[rp.ID] = rp
	}

	var conflicts []*types.Conflict
	for _, lp := range local {
		remoteID, ok := matches[lp.ID]
		if !ok {
			continue
		}
		rp := remoteByID[remoteID]
		if !e.papersDiffer(m, lp, rp) {
			continue
		}
		// IDs differ across replicas, so the local title identifies the pair.
		conflicts = append(conflicts, types.NewConflict(
			types.ConflictPaper, lp.Title, paperSnapshot(lp), paperSnapshot(rp)))
	}

	pdfConflicts, err := e.detectPDFConflicts()
	if err != nil {
		return conflicts, err
	}
	return append(conflicts, pdfConflicts...), nil
}

// detectPDFConflicts compares files present under the same name in both
// artifact directories; differing content hash or size is a conflict.
func (e *Engine) detectPDFConflicts() ([]*types.Conflict, error) {
	localNames, err := listArtifacts(e.localPDFDir)
	if err != nil {
		return nil, err
	}
	if len(localNames) == 0 {
		return nil, nil
	}

	var conflicts []*types.Conflict
	for _, name := range localNames {
		remotePath := filepath.Join(e.remotePDFDir, name)
		remoteInfo, err := getFileInfo(remotePath)
		if err != nil {
			continue
		}
		localInfo, err := getFileInfo(filepath.Join(e.localPDFDir, name))
		if err != nil {
			continue
		}
		if localInfo.Hash != remoteInfo.Hash || localInfo.Size != remoteInfo.Size {
			conflicts = append(conflicts, types.NewConflict(
				types.ConflictPDF, name, localInfo.snapshot(), remoteInfo.snapshot()))
		}
	}
	return conflicts, nil
}
