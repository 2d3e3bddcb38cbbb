package state

import "github.com/simonzack/sublimelint/internal/checker"

// Region is a highlighted span within a document line.
type Region struct {
	Line     int
	Start    int
	End      int
	Severity checker.Severity
}

// HighlightSet accumulates the regions to draw for one document. It is built
// by the rendering subsystem from the stored issues and swapped into the
// state store wholesale, so it needs no internal locking.
type HighlightSet struct {
	regions []Region
}

// NewHighlightSet builds a highlight set from issues. Each issue highlights
// a single-column region at its position.
func NewHighlightSet(issues []checker.Issue) *HighlightSet {
	hs := &HighlightSet{}
	for _, issue := range issues {
		hs.regions = append(hs.regions, Region{
			Line:     issue.Line,
			Start:    issue.Column,
			End:      issue.Column + 1,
			Severity: issue.Severity,
		})
	}
	return hs
}

// Regions returns the regions to draw.
func (hs *HighlightSet) Regions() []Region {
	if hs == nil {
		return nil
	}
	return hs.regions
}
