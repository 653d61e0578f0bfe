package appstate

// AppCommandKind is the closed enumeration of UI-facing commands the
// keymap resolver's KeyCommand values ultimately map to.
type AppCommandKind int

const (
	CmdQuit AppCommandKind = iota
	CmdSwitchPanel
	CmdMoveUp
	CmdMoveDown
	CmdOpenEntry
	CmdCdUp
	CmdReread
	CmdToggleHidden
	CmdSortByName
	CmdSortBySize
	CmdSortByModified

	CmdOpenCopyDialog
	CmdOpenMoveDialog
	CmdOpenDeleteConfirm
	CmdOpenMkdirDialog
	CmdOpenRenameDialog
	CmdOpenFindDialog
	CmdOpenPanelizeDialog

	CmdShowJobs
	CmdShowTree
	CmdShowHotlist
	CmdShowHelp
	CmdShowMenu
	CmdShowSkin
	CmdViewFile

	CmdCancelLatestJob
	CmdCancelAllJobs

	CmdJobsCursorUp
	CmdJobsCursorDown

	CmdClose

	CmdDialogAccept
	CmdDialogCancel
	CmdDialogFocusNext
	CmdDialogBackspace
	CmdDialogInsertChar
	CmdDialogListboxUp
	CmdDialogListboxDown
)

// AppCommand is what internal/tui hands to State.Apply after resolving a
// key chord through internal/keymap.
type AppCommand struct {
	Kind AppCommandKind
	Char rune // CmdDialogInsertChar
}
