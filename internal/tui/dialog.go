// Dialog widget rendering (spec §1's "dialog widget rendering consumes
// appstate.DialogState; the state shape and transition logic lives in
// appstate").
package tui

import (
	"fmt"
	"strings"

	"twinfm/internal/appstate"
)

func (m *Model) renderDialog(d *appstate.DialogState) string {
	var b strings.Builder
	b.WriteString(styleDialogTitle.Render(d.Title) + "\n")
	if d.Message != "" {
		b.WriteString(d.Message + "\n")
	}

	switch d.Kind {
	case appstate.DialogInput:
		b.WriteString(renderInputLine(d.Input, d.InputCursor) + "\n")
	case appstate.DialogListbox:
		for i, item := range d.Items {
			line := item
			if i == d.Cursor {
				line = styleSelected.Render(line)
			}
			b.WriteString(line + "\n")
		}
	case appstate.DialogConfirm:
		b.WriteString("[Enter] confirm   [Esc] cancel\n")
	}

	return styleDialogBox.Render(b.String())
}

// renderInputLine draws the input text with the cursor position marked by
// an inverse-video single-space block, the common terminal-emulator cursor
// convention.
func renderInputLine(input string, cursor int) string {
	runes := []rune(input)
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(runes) {
		cursor = len(runes)
	}

	before := string(runes[:cursor])
	at := " "
	after := ""
	if cursor < len(runes) {
		at = string(runes[cursor])
		after = string(runes[cursor+1:])
	}

	return fmt.Sprintf("%s%s%s", before, styleSelected.Render(at), after)
}
