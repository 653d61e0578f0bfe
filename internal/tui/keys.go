package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"twinfm/internal/appstate"
	"twinfm/internal/keymap"
)

// bubbleteaKeyNames translates bubbletea's tea.KeyMsg.String() spelling of
// named keys to the spelling internal/keymap.ParseChord accepts.
var bubbleteaKeyNames = map[string]string{
	"pgdown": "pgdn",
	"pgup":   "pgup",
}

// chordFromKeyMsg turns a bubbletea key event into the chord grammar
// internal/keymap parses from config files, so the same Resolver serves
// both the loaded-from-file bindings and live key decoding.
func chordFromKeyMsg(msg tea.KeyMsg) (keymap.Chord, bool) {
	parts := strings.Split(msg.String(), "+")
	if len(parts) == 0 {
		return keymap.Chord{}, false
	}

	var c keymap.Chord
	key := parts[len(parts)-1]
	for _, mod := range parts[:len(parts)-1] {
		switch mod {
		case "ctrl":
			c.Ctrl = true
		case "alt":
			c.Alt = true
		case "shift":
			c.Shift = true
		}
	}

	if translated, ok := bubbleteaKeyNames[key]; ok {
		key = translated
	}

	chord, err := keymap.ParseChord(key)
	if err != nil {
		return keymap.Chord{}, false
	}
	chord.Ctrl = chord.Ctrl || c.Ctrl
	chord.Alt = chord.Alt || c.Alt
	chord.Shift = chord.Shift || c.Shift
	return chord, true
}

// routeContext maps the top-of-stack Route to the keymap context used to
// resolve the current key, per spec §4.H ("the top route determines the
// current keymap context").
func routeContext(route appstate.Route, dialogKind appstate.DialogKind) keymap.Context {
	switch route {
	case appstate.RouteDialog:
		switch dialogKind {
		case appstate.DialogListbox:
			return keymap.Listbox
		default:
			return keymap.Input
		}
	case appstate.RouteViewer:
		return keymap.Viewer
	case appstate.RouteJobs:
		return keymap.Jobs
	case appstate.RouteFindResults:
		return keymap.FindResults
	case appstate.RouteTree:
		return keymap.Tree
	case appstate.RouteHotlist:
		return keymap.Hotlist
	case appstate.RouteHelp:
		return keymap.Help
	case appstate.RouteMenu:
		return keymap.Menu
	case appstate.RouteSkin:
		return keymap.Listbox
	default:
		return keymap.FileManager
	}
}

// commandFor maps a resolved KeyCommand action name to the closed
// appstate.AppCommandKind enum. Names are the KnownActions set
// internal/keymap's loader validates against. route disambiguates the one
// action name ("MoveUp"/"MoveDown") that means something different on the
// Jobs screen than everywhere else, since KnownActions has no separate
// Jobs-cursor action name.
func commandFor(action keymap.KeyCommand, r rune, route appstate.Route) (appstate.AppCommand, bool) {
	switch action {
	case "MoveUp":
		if route == appstate.RouteJobs {
			return appstate.AppCommand{Kind: appstate.CmdJobsCursorUp}, true
		}
		return appstate.AppCommand{Kind: appstate.CmdMoveUp}, true
	case "MoveDown":
		if route == appstate.RouteJobs {
			return appstate.AppCommand{Kind: appstate.CmdJobsCursorDown}, true
		}
		return appstate.AppCommand{Kind: appstate.CmdMoveDown}, true
	case "OpenEntry":
		return appstate.AppCommand{Kind: appstate.CmdOpenEntry}, true
	case "CdUp":
		return appstate.AppCommand{Kind: appstate.CmdCdUp}, true
	case "SwitchPanel":
		return appstate.AppCommand{Kind: appstate.CmdSwitchPanel}, true
	case "Reread":
		return appstate.AppCommand{Kind: appstate.CmdReread}, true
	case "ToggleHidden":
		return appstate.AppCommand{Kind: appstate.CmdToggleHidden}, true
	case "SortByName":
		return appstate.AppCommand{Kind: appstate.CmdSortByName}, true
	case "SortBySize":
		return appstate.AppCommand{Kind: appstate.CmdSortBySize}, true
	case "SortByModified":
		return appstate.AppCommand{Kind: appstate.CmdSortByModified}, true
	case "Copy":
		return appstate.AppCommand{Kind: appstate.CmdOpenCopyDialog}, true
	case "Move":
		return appstate.AppCommand{Kind: appstate.CmdOpenMoveDialog}, true
	case "Delete":
		return appstate.AppCommand{Kind: appstate.CmdOpenDeleteConfirm}, true
	case "Mkdir":
		return appstate.AppCommand{Kind: appstate.CmdOpenMkdirDialog}, true
	case "Rename":
		return appstate.AppCommand{Kind: appstate.CmdOpenRenameDialog}, true
	case "Find":
		return appstate.AppCommand{Kind: appstate.CmdOpenFindDialog}, true
	case "Panelize":
		return appstate.AppCommand{Kind: appstate.CmdOpenPanelizeDialog}, true
	case "ShowTree":
		return appstate.AppCommand{Kind: appstate.CmdShowTree}, true
	case "ShowHotlist":
		return appstate.AppCommand{Kind: appstate.CmdShowHotlist}, true
	case "ShowMenu":
		return appstate.AppCommand{Kind: appstate.CmdShowMenu}, true
	case "ShowHelp":
		return appstate.AppCommand{Kind: appstate.CmdShowHelp}, true
	case "ShowJobs":
		return appstate.AppCommand{Kind: appstate.CmdShowJobs}, true
	case "ViewFile":
		return appstate.AppCommand{Kind: appstate.CmdViewFile}, true
	case "CancelLatestJob":
		return appstate.AppCommand{Kind: appstate.CmdCancelLatestJob}, true
	case "Quit":
		return appstate.AppCommand{Kind: appstate.CmdQuit}, true
	case "Accept":
		return appstate.AppCommand{Kind: appstate.CmdDialogAccept}, true
	case "Cancel":
		return appstate.AppCommand{Kind: appstate.CmdDialogCancel}, true
	case "Close":
		return appstate.AppCommand{Kind: appstate.CmdClose}, true
	case "FocusNext":
		return appstate.AppCommand{Kind: appstate.CmdDialogFocusNext}, true
	case "Backspace":
		return appstate.AppCommand{Kind: appstate.CmdDialogBackspace}, true
	case "InsertChar":
		return appstate.AppCommand{Kind: appstate.CmdDialogInsertChar, Char: r}, true
	case "ListboxUp":
		return appstate.AppCommand{Kind: appstate.CmdDialogListboxUp}, true
	case "ListboxDown":
		return appstate.AppCommand{Kind: appstate.CmdDialogListboxDown}, true
	default:
		return appstate.AppCommand{}, false
	}
}
