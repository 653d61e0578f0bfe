package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"twinfm/internal/appstate"
	"twinfm/internal/background"
	"twinfm/internal/fileinfo"
	"twinfm/internal/help"
	"twinfm/internal/jobs"
)

func (m *Model) View() string {
	if m.width == 0 {
		return "starting twinfm..."
	}

	panels := lipgloss.JoinHorizontal(lipgloss.Top, m.renderPanel(jobs.PanelLeft), m.renderPanel(jobs.PanelRight))
	body := panels

	switch m.state.TopRoute() {
	case appstate.RouteJobs:
		body = m.renderJobs()
	case appstate.RouteFindResults:
		body = m.renderFindResults()
	case appstate.RouteTree:
		body = m.renderTree()
	case appstate.RouteHotlist:
		body = m.renderHotlist()
	case appstate.RouteHelp:
		body = m.renderHelp()
	case appstate.RouteMenu:
		body = m.renderMenu()
	case appstate.RouteSkin:
		body = m.renderSkinPicker()
	case appstate.RouteViewer:
		body = m.renderViewer()
	}

	out := body + "\n" + styleStatusLine.Render(m.state.StatusLine)

	if m.state.TopRoute() == appstate.RouteDialog && m.state.Dialog != nil {
		overlay := m.renderDialog(m.state.Dialog)
		out = lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, overlay)
	}

	return out
}

func (m *Model) panelWidth() int {
	w := m.width / 2
	if w < 10 {
		w = 10
	}
	return w
}

func (m *Model) renderPanel(id jobs.PanelID) string {
	p := &m.state.Panels[id]
	style := styleOtherPanel
	if id == m.state.Active {
		style = styleActivePanel
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", p.Cwd)
	if p.Loading {
		b.WriteString(styleLoading.Render("loading...") + "\n")
	}

	visible := visibleRows(m.height)
	shown := 0
	for i, e := range p.Entries {
		if !e.IsParent && fileinfo.IsHidden(e.Name) && !p.ShowHidden {
			continue
		}
		line := formatEntry(e)
		if i == p.Cursor {
			line = styleSelected.Render(line)
		} else if e.IsDir {
			line = styleDir.Render(line)
		}
		b.WriteString(line + "\n")
		shown++
		if shown >= visible {
			break
		}
	}

	return style.Width(m.panelWidth() - 2).Height(visibleRows(m.height) + 2).Render(b.String())
}

func visibleRows(height int) int {
	rows := height - 6
	if rows < 1 {
		rows = 1
	}
	return rows
}

func formatEntry(e fileinfo.FileEntry) string {
	if e.IsDir {
		return "/" + e.Name
	}
	return fmt.Sprintf("%-30s %8s", e.Name, fileinfo.FormatSize(e.Size))
}

func (m *Model) renderFindResults() string {
	var b strings.Builder
	b.WriteString("Find results\n")
	for _, e := range m.state.FindEntries {
		b.WriteString(e.Path + "\n")
	}
	return b.String()
}

func (m *Model) renderTree() string {
	var b strings.Builder
	b.WriteString("Directory tree\n")
	if m.state.Tree != nil {
		renderTreeNode(&b, m.state.Tree, 0)
	}
	return b.String()
}

func renderTreeNode(b *strings.Builder, n *background.TreeNode, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	if n.IsDir {
		b.WriteString("/" + n.Name + "\n")
	} else {
		b.WriteString(n.Name + "\n")
	}
	for _, c := range n.Children {
		renderTreeNode(b, c, depth+1)
	}
}

func (m *Model) renderHotlist() string {
	var b strings.Builder
	b.WriteString("Hotlist\n")
	for _, dir := range m.state.Settings.Configuration.Hotlist {
		b.WriteString(dir + "\n")
	}
	return b.String()
}

func (m *Model) renderMenu() string {
	return "Menu\n\n  F (File)   C (Command)   O (Options)\n"
}

func (m *Model) renderSkinPicker() string {
	var b strings.Builder
	b.WriteString("Skin\n")
	for _, dir := range m.state.Settings.Appearance.SkinDirs {
		b.WriteString(dir + "\n")
	}
	return b.String()
}

func (m *Model) renderViewer() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", m.state.ViewerPath)
	b.Write(m.state.ViewerData)
	if m.state.ViewerTrunc {
		b.WriteString("\n... truncated ...")
	}
	return b.String()
}

func (m *Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(styleDialogTitle.Render(m.helpG.CurrentTitle()) + "\n\n")
	linkCursor := 0
	for i, line := range m.helpG.Lines() {
		if i < m.helpG.Scroll() {
			for _, span := range line.Spans {
				if span.Target != "" {
					linkCursor++
				}
			}
			continue
		}
		b.WriteString(renderHelpLine(line, m.helpG.SelectedLink(), &linkCursor) + "\n")
	}
	return b.String()
}

// renderHelpLine renders one help.Line, highlighting the link span at
// selectedLink (an index into the node's link-ordered spans) and
// advancing linkCursor past every link span it renders.
func renderHelpLine(line help.Line, selectedLink int, linkCursor *int) string {
	var b strings.Builder
	for _, span := range line.Spans {
		if span.Target == "" {
			b.WriteString(span.Text)
			continue
		}
		style := styleLink
		if *linkCursor == selectedLink {
			style = styleLinkFocused
		}
		b.WriteString(style.Render(span.Text))
		*linkCursor++
	}
	return b.String()
}
