// Package fileinfo holds the panel entry type and the pure helpers around
// it: sorting, hidden-file filtering, glob matching, and human-readable
// size formatting. Adapted from the teacher's internal/fileinfo, stripped
// of its Fyne-coupled rendering helpers (ColoredTextSegment, text/status
// colors) since this module renders through lipgloss instead.
package fileinfo

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// FileEntry is one row in a panel listing.
type FileEntry struct {
	Name      string
	Path      string
	IsDir     bool
	IsParent  bool // synthetic ".." entry
	IsSymlink bool
	Size      int64
	ModTime   time.Time
}

// ParentEntry builds the synthetic ".." row prepended to a directory
// listing whenever cwd has a parent.
func ParentEntry(cwd string) FileEntry {
	return FileEntry{Name: "..", Path: filepath.Dir(cwd), IsDir: true, IsParent: true}
}

// IsHidden reports whether name is a dotfile, per the leading-dot rule.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != ".." && name != "."
}

// SortMode selects panel ordering. Directories-first applies to SortBySize
// and SortByModified; SortByName is a flat case-insensitive lexicographic
// sort (mc convention: name sort does not separate dirs from files).
type SortMode int

const (
	SortByName SortMode = iota
	SortBySize
	SortByModified
)

// ParseSortMode accepts the enum whitelist named in spec §6
// (name, size, modified|mtime).
func ParseSortMode(s string) (SortMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "name":
		return SortByName, true
	case "size":
		return SortBySize, true
	case "modified", "mtime":
		return SortByModified, true
	default:
		return SortByName, false
	}
}

func (m SortMode) String() string {
	switch m {
	case SortBySize:
		return "size"
	case SortByModified:
		return "modified"
	default:
		return "name"
	}
}

// Sort orders entries in place per mode. The synthetic parent entry, if
// present, is kept first regardless of mode.
func Sort(entries []FileEntry, mode SortMode) {
	var parent *FileEntry
	rest := entries
	if len(entries) > 0 && entries[0].IsParent {
		parent = &entries[0]
		rest = entries[1:]
	}

	switch mode {
	case SortByName:
		sort.SliceStable(rest, func(i, j int) bool {
			return strings.ToLower(rest[i].Name) < strings.ToLower(rest[j].Name)
		})
	case SortBySize:
		sort.SliceStable(rest, func(i, j int) bool {
			if rest[i].IsDir != rest[j].IsDir {
				return rest[i].IsDir
			}
			return rest[i].Size > rest[j].Size
		})
	case SortByModified:
		sort.SliceStable(rest, func(i, j int) bool {
			if rest[i].IsDir != rest[j].IsDir {
				return rest[i].IsDir
			}
			return rest[i].ModTime.After(rest[j].ModTime)
		})
	}

	if parent != nil {
		entries[0] = *parent
		copy(entries[1:], rest)
	}
}

// FormatSize renders a byte count the way the teacher's FormatFileSize did:
// binary-prefixed, one decimal place above KiB.
func FormatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// MatchesPattern reports whether name matches a doublestar glob pattern.
// An empty pattern matches everything (used by the panel filter feature,
// where no filter means "show all").
func MatchesPattern(name, pattern string) bool {
	if pattern == "" {
		return true
	}
	ok, err := doublestar.Match(pattern, name)
	return err == nil && ok
}

// PathSortKey is the lowercased name used to order find-traversal stack
// pushes per §4.E.1.
func PathSortKey(name string) string { return strings.ToLower(name) }

// DetermineSymlink reports whether the os.DirEntry names a symlink without
// following it.
func DetermineSymlink(d os.DirEntry) bool {
	return d.Type()&os.ModeSymlink != 0
}
