package keymap

import (
	"strings"

	"gopkg.in/ini.v1"
)

// Context is one of the keymap scopes named in spec §4.H.
type Context string

const (
	FileManager     Context = "FileManager"
	FileManagerXMap Context = "FileManagerXMap"
	DialogCtx       Context = "Dialog"
	Input           Context = "Input"
	Listbox         Context = "Listbox"
	Menu            Context = "Menu"
	Help            Context = "Help"
	Jobs            Context = "Jobs"
	FindResults     Context = "FindResults"
	Tree            Context = "Tree"
	Hotlist         Context = "Hotlist"
	Viewer          Context = "Viewer"
	ViewerHex       Context = "ViewerHex"
	DiffViewer      Context = "DiffViewer"
	Editor          Context = "Editor"
)

// sectionAliases maps lowercased section headers to their canonical
// Context, per spec §6 ("aliases panel->filemanager,
// filemanager:xmap->FileManagerXMap").
var sectionAliases = map[string]Context{
	"filemanager":      FileManager,
	"panel":            FileManager,
	"filemanager:xmap": FileManagerXMap,
	"dialog":           DialogCtx,
	"input":            Input,
	"listbox":          Listbox,
	"menu":             Menu,
	"help":             Help,
	"jobs":              Jobs,
	"findresults":      FindResults,
	"tree":             Tree,
	"hotlist":          Hotlist,
	"viewer":           Viewer,
	"viewerhex":        ViewerHex,
	"diffviewer":       DiffViewer,
	"editor":           Editor,
}

// KnownActions is the closed set of action names the resolver recognizes;
// anything else is reported in ParseReport.UnknownActions but still loads.
var KnownActions = map[string]bool{
	"MoveUp": true, "MoveDown": true, "MoveLeft": true, "MoveRight": true,
	"PageUp": true, "PageDown": true, "Home": true, "End": true,
	"OpenEntry": true, "CdUp": true, "SwitchPanel": true, "Reread": true,
	"Copy": true, "Move": true, "Delete": true, "Mkdir": true, "Rename": true,
	"Find": true, "ViewFile": true, "EditFile": true, "Panelize": true,
	"ShowTree": true, "ShowHotlist": true, "ShowMenu": true, "ShowHelp": true,
	"ShowJobs": true, "ToggleHidden": true,
	"SortByName": true, "SortBySize": true, "SortByModified": true,
	"Accept": true, "Cancel": true, "Close": true, "FocusNext": true,
	"Backspace": true, "InsertChar": true, "ListboxUp": true, "ListboxDown": true,
	"CancelLatestJob": true, "Quit": true,
}

// KeyCommand is the high-level command an action name resolves to.
type KeyCommand string

// ParseReport records non-fatal problems found while loading a keymap
// file: unknown action names and unparseable chords. Loading never fails
// because of these.
type ParseReport struct {
	UnknownActions    []string
	UnparseableChords []string
}

type binding struct {
	action KeyCommand
	chord  Chord
}

// Resolver maps (Context, Chord) -> KeyCommand.
type Resolver struct {
	table map[Context]map[Chord]KeyCommand
}

// NewResolver returns an empty Resolver.
func NewResolver() *Resolver {
	return &Resolver{table: make(map[Context]map[Chord]KeyCommand)}
}

// Resolve looks up the command bound to chord in context. Unknown actions
// are never inserted into the table, so they are correctly unresolvable.
func (r *Resolver) Resolve(ctx Context, c Chord) (KeyCommand, bool) {
	byChord, ok := r.table[ctx]
	if !ok {
		return "", false
	}
	cmd, ok := byChord[c]
	return cmd, ok
}

func (r *Resolver) bind(ctx Context, action KeyCommand, c Chord) {
	if r.table[ctx] == nil {
		r.table[ctx] = make(map[Chord]KeyCommand)
	}
	r.table[ctx][c] = action
}

// LoadFile parses an INI-shaped keymap file: sections are context names
// (with aliases), entries are "Action = chord; chord; ...". Unknown
// section names are treated as unrecognized contexts and contribute no
// bindings but do not fail loading.
func LoadFile(path string) (*Resolver, *ParseReport, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{AllowShadows: true}, path)
	if err != nil {
		return nil, nil, err
	}
	return Load(cfg)
}

// Load builds a Resolver and ParseReport from an already-parsed ini.File,
// letting callers (tests) build the source in-memory.
func Load(cfg *ini.File) (*Resolver, *ParseReport, error) {
	r := NewResolver()
	report := &ParseReport{}

	for _, sec := range cfg.Sections() {
		name := strings.ToLower(sec.Name())
		ctx, ok := sectionAliases[name]
		if !ok {
			continue // unrecognized context name: silently contributes nothing
		}

		for _, key := range sec.Keys() {
			action := key.Name()
			if !KnownActions[action] {
				report.UnknownActions = append(report.UnknownActions, action)
				continue
			}
			for _, raw := range strings.Split(key.Value(), ";") {
				raw = strings.TrimSpace(raw)
				if raw == "" {
					continue
				}
				chord, err := ParseChord(raw)
				if err != nil {
					report.UnparseableChords = append(report.UnparseableChords, raw)
					continue
				}
				r.bind(ctx, KeyCommand(action), chord)
			}
		}
	}

	return r, report, nil
}
