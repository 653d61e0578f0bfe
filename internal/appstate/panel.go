package appstate

import (
	"twinfm/internal/fileinfo"
	"twinfm/internal/jobs"
)

// Panel is one of the two side-by-side listings, per spec §3's Panel state.
type Panel struct {
	Cwd        string
	Entries    []fileinfo.FileEntry
	Cursor     int
	SortMode   fileinfo.SortMode
	ShowHidden bool
	Source     jobs.PanelListingSource
	Loading    bool
}

// Selected returns the entry under the cursor, or false if the panel is
// empty or the cursor is out of range.
func (p *Panel) Selected() (fileinfo.FileEntry, bool) {
	if p.Cursor < 0 || p.Cursor >= len(p.Entries) {
		return fileinfo.FileEntry{}, false
	}
	return p.Entries[p.Cursor], true
}

// MoveCursor shifts the cursor by delta, clamped to the entry range.
func (p *Panel) MoveCursor(delta int) {
	p.Cursor += delta
	if p.Cursor < 0 {
		p.Cursor = 0
	}
	if max := len(p.Entries) - 1; p.Cursor > max {
		p.Cursor = max
	}
	if p.Cursor < 0 {
		p.Cursor = 0
	}
}

func sameSource(a, b jobs.PanelListingSource) bool {
	if a.Kind != b.Kind || a.Command != b.Command || a.BaseDir != b.BaseDir || a.Label != b.Label || a.FilterPattern != b.FilterPattern {
		return false
	}
	if len(a.Paths) != len(b.Paths) {
		return false
	}
	for i := range a.Paths {
		if a.Paths[i] != b.Paths[i] {
			return false
		}
	}
	return true
}
