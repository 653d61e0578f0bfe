// Package help is a tiny static node graph for the Help route. It is a Go
// port of original_source/crates/core/src/help.rs's HELP_NODE_SPECS table
// and HelpState navigation, simplified: the Rust version supports
// keymap-derived {{macro}} substitutions in body text; this port renders
// the same topic text with the macros stripped, since the substitutions
// exist there only to keep help text in sync with a configurable keymap
// and this route is explicitly out of scope for testing depth.
package help

import (
	"regexp"
	"strings"
)

// nodeSpec mirrors HELP_NODE_SPECS: (id, title, body). Body uses
// "[label](target-id)" markdown-style links, parsed into spans at graph
// construction time.
type nodeSpec struct {
	id    string
	title string
	body  string
}

// IndexID is the root node shown when Help is opened with no specific
// context, matching HELP_INDEX_ID.
const IndexID = "index"

var nodeSpecs = []nodeSpec{
	{
		IndexID, "Help",
		"Welcome to twinfm help.\n\n" +
			"Choose a topic:\n" +
			"  [General movement keys](help-viewer)\n" +
			"  [File manager](file-manager)\n" +
			"  [Viewer](viewer)\n" +
			"  [Jobs screen](jobs)\n" +
			"  [Find results](find-results)\n" +
			"  [Panelize and VFS](panelize)\n" +
			"  [Directory tree](tree)\n" +
			"  [Directory hotlist](hotlist)\n\n" +
			"Use Tab to move across links and Enter to follow.",
	},
	{
		"help-viewer", "Help Viewer",
		"The help viewer supports linked nodes and history.\n\n" +
			"Main keys:\n" +
			"  Tab / Shift-Tab  select next/previous link\n" +
			"  Enter            follow selected link\n" +
			"  Backspace        go back in history\n" +
			"  Ctrl-I           open index\n" +
			"  [ / ]            next / previous node\n" +
			"  Esc              close help\n\n" +
			"Related topics: [File manager](file-manager), [Viewer](viewer), [Jobs](jobs).",
	},
	{
		"file-manager", "File Manager",
		"File manager quick keys:\n" +
			"  Tab    switch panel\n" +
			"  Enter  open directory or view file\n" +
			"  ..     go to parent directory\n" +
			"  Ctrl-F open find / back to find results\n" +
			"  Ctrl-T open directory tree\n" +
			"  Ctrl-H open directory hotlist\n" +
			"  Ctrl-X open external panelize\n" +
			"  Ctrl-J open jobs screen\n" +
			"  Ctrl-C cancel latest job\n" +
			"  Ctrl-S open skin picker\n" +
			"  q      quit\n\n" +
			"File operations: copy, move, delete, mkdir, rename.\n\n" +
			"More: [Find results](find-results), [Panelize and VFS](panelize), " +
			"[Directory tree](tree), [Directory hotlist](hotlist).",
	},
	{
		"viewer", "Viewer",
		"Viewer basics:\n" +
			"  arrows/pgup/pgdn  scroll\n" +
			"  /                 search\n" +
			"  h                 toggle hex mode\n\n" +
			"Return to [File manager](file-manager).",
	},
	{
		"jobs", "Jobs",
		"Jobs screen shows queued/running/finished jobs.\n\n" +
			"Keys:\n" +
			"  up/down  move across jobs\n" +
			"  c        cancel selected job\n" +
			"  Esc      close jobs screen\n\n" +
			"Back to [File manager](file-manager).",
	},
	{
		"find-results", "Find Results",
		"Find results are streamed while the search runs.\n\n" +
			"Keys:\n" +
			"  up/down  move\n" +
			"  Enter    locate the result in panel\n" +
			"  p        panelize current results\n" +
			"  Esc      close / cancel active find job\n\n" +
			"See also [File manager](file-manager) and [Panelize and VFS](panelize).",
	},
	{
		"panelize", "Panelize and VFS",
		"Panelize lists the lines a shell command prints to stdout as panel entries.\n" +
			"It does not mount filesystems the way a VFS layer would; it only lists paths.\n\n" +
			"Normal file operations work against a panelized listing the same as a real\n" +
			"directory, and the panel reverts to the prior real directory if the refresh fails.\n\n" +
			"Back to [File manager](file-manager) or [Find results](find-results).",
	},
	{
		"tree", "Directory Tree",
		"Tree screen presents a compact directory tree.\n\n" +
			"Keys:\n" +
			"  up/down  move\n" +
			"  Enter    open selected directory in active panel\n" +
			"  Esc      close\n\n" +
			"See also [Directory hotlist](hotlist) and [File manager](file-manager).",
	},
	{
		"hotlist", "Directory Hotlist",
		"Hotlist stores frequently used directories.\n\n" +
			"Keys:\n" +
			"  Enter  open selected directory\n" +
			"  a      add current directory\n" +
			"  d      remove selected entry\n" +
			"  Esc    close\n\n" +
			"See also [Directory tree](tree) and [File manager](file-manager).",
	},
}

var linkPattern = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)

// Span is one piece of a rendered Line: either plain text or a link to
// another node id.
type Span struct {
	Text   string
	Target string // empty for plain text spans
}

// Line is one line of a node's rendered body.
type Line struct {
	Spans []Span
}

type node struct {
	id    string
	title string
	lines []Line
	links []int // line index of each link, in link order
}

func parseLines(body string) ([]Line, []int) {
	var lines []Line
	var linkLineIdx []int
	for _, raw := range strings.Split(body, "\n") {
		var spans []Span
		last := 0
		for _, m := range linkPattern.FindAllStringSubmatchIndex(raw, -1) {
			if m[0] > last {
				spans = append(spans, Span{Text: raw[last:m[0]]})
			}
			label := raw[m[2]:m[3]]
			target := raw[m[4]:m[5]]
			spans = append(spans, Span{Text: label, Target: target})
			linkLineIdx = append(linkLineIdx, len(lines))
			last = m[1]
		}
		if last < len(raw) {
			spans = append(spans, Span{Text: raw[last:]})
		}
		if len(spans) == 0 {
			spans = []Span{{Text: ""}}
		}
		lines = append(lines, Line{Spans: spans})
	}
	return lines, linkLineIdx
}

// Graph is the full static node set plus current-position/history
// navigation state for the Help route, mirroring HelpState.
type Graph struct {
	nodes   []node
	byID    map[string]int
	current int
	scroll  int
	link    int // selected link index within current node, -1 if none
	history []int
}

// NewGraph builds the node graph and opens id (or IndexID if id is
// unknown). Opening any id other than IndexID leaves the index node on
// history, so Back returns to it.
func NewGraph(id string) *Graph {
	g := &Graph{byID: map[string]int{}}
	for _, spec := range nodeSpecs {
		lines, links := parseLines(spec.body)
		g.nodes = append(g.nodes, node{id: spec.id, title: spec.title, lines: lines, links: links})
	}
	for i, n := range g.nodes {
		g.byID[n.id] = i
	}
	g.current = g.byID[IndexID]
	g.link = -1
	g.Open(id)
	return g
}

// TopicForContext maps a route/context name to the help node id shown when
// Help is opened from it, matching topic_for_context.
func TopicForContext(context string) string {
	switch context {
	case "Viewer", "ViewerHex":
		return "viewer"
	case "Jobs":
		return "jobs"
	case "FindResults":
		return "find-results"
	case "Tree":
		return "tree"
	case "Hotlist":
		return "hotlist"
	default:
		return "file-manager"
	}
}

// Open navigates directly to id (e.g. when Help is opened from a specific
// route), pushing the current node onto history unless id is unknown.
func (g *Graph) Open(id string) {
	idx, ok := g.byID[id]
	if !ok {
		return
	}
	if idx == g.current {
		return
	}
	g.history = append(g.history, g.current)
	g.current = idx
	g.scroll = 0
	g.link = -1
}

// CurrentTitle, CurrentID, Lines expose the node currently on screen.
func (g *Graph) CurrentTitle() string { return g.nodes[g.current].title }
func (g *Graph) CurrentID() string    { return g.nodes[g.current].id }
func (g *Graph) Lines() []Line        { return g.nodes[g.current].lines }

// SelectedLink returns the index of the currently selected link within
// Lines(), or -1 if none is selected.
func (g *Graph) SelectedLink() int { return g.link }

// Scroll returns the current top-of-viewport line offset.
func (g *Graph) Scroll() int { return g.scroll }

// MoveLines scrolls by delta lines, clamped to the node's line count.
func (g *Graph) MoveLines(delta int) {
	lines := g.Lines()
	if len(lines) == 0 {
		g.scroll = 0
		return
	}
	maxScroll := len(lines) - 1
	g.scroll += delta
	if g.scroll < 0 {
		g.scroll = 0
	}
	if g.scroll > maxScroll {
		g.scroll = maxScroll
	}
}

// SelectNextLink cycles the selected link forward through the current
// node's links, wrapping around; it is a no-op on a node with no links.
func (g *Graph) SelectNextLink() {
	links := g.nodes[g.current].links
	if len(links) == 0 {
		g.link = -1
		return
	}
	g.link = (g.link + 1) % len(links)
}

// SelectPrevLink cycles the selected link backward.
func (g *Graph) SelectPrevLink() {
	links := g.nodes[g.current].links
	if len(links) == 0 {
		g.link = -1
		return
	}
	g.link = (g.link - 1 + len(links)) % len(links)
}

// Follow opens the target of the selected link, if any.
func (g *Graph) Follow() {
	n := g.nodes[g.current]
	if g.link < 0 || g.link >= len(n.links) {
		return
	}
	lineIdx := n.links[g.link]
	skip := 0
	for k := g.link - 1; k >= 0 && n.links[k] == lineIdx; k-- {
		skip++
	}
	for _, span := range n.lines[lineIdx].Spans {
		if span.Target != "" {
			if skip == 0 {
				g.Open(span.Target)
				return
			}
			skip--
		}
	}
}

// Back pops the most recent history entry, returning to the node that was
// current before the last Open/Follow. A no-op at the root of history.
func (g *Graph) Back() {
	if len(g.history) == 0 {
		return
	}
	prev := g.history[len(g.history)-1]
	g.history = g.history[:len(g.history)-1]
	g.current = prev
	g.scroll = 0
	g.link = -1
}
