// Package settings holds the in-memory snapshot of persisted user
// preferences, mirroring the nine sections of ~/.config/rc/settings.ini
// named in spec §6. Adapted from the teacher's internal/config.Config
// nesting; serialization lives in internal/settingsio, not here.
package settings

// Configuration mirrors the [configuration] section.
type Configuration struct {
	Hotlist         []string
	PanelizePresets []string
}

// Layout mirrors [layout].
type Layout struct {
	ShowStatusLine bool
	ShowMenuBar    bool
}

// PanelOptions mirrors [panel_options].
type PanelOptions struct {
	ShowHiddenFiles bool
	SortField       string // name|size|modified
}

// Confirmation mirrors [confirmation].
type Confirmation struct {
	ConfirmDelete bool
	ConfirmExit   bool
	OverwritePolicy string // overwrite|skip|rename
}

// Appearance mirrors [appearance].
type Appearance struct {
	Skin     string
	SkinDirs []string
}

// DisplayBits mirrors [display_bits].
type DisplayBits struct {
	FullEightBits bool
}

// LearnKeys mirrors [learn_keys].
type LearnKeys struct {
	KeymapPath string
}

// VirtualFS mirrors [virtual_fs].
type VirtualFS struct {
	Timeout int
}

// Advanced mirrors [advanced].
type Advanced struct {
	TickRateMs int
}

// Settings is the full in-memory snapshot.
type Settings struct {
	Configuration Configuration
	Layout        Layout
	PanelOptions  PanelOptions
	Confirmation  Confirmation
	Appearance    Appearance
	DisplayBits   DisplayBits
	LearnKeys     LearnKeys
	VirtualFS     VirtualFS
	Advanced      Advanced
}

// Default returns the built-in defaults applied before any settings file
// is read. A repeated-list key absent from a section that is present on
// load clears that list; it is not restored from these defaults.
func Default() Settings {
	return Settings{
		Layout:       Layout{ShowStatusLine: true, ShowMenuBar: true},
		PanelOptions: PanelOptions{SortField: "name"},
		Confirmation: Confirmation{ConfirmDelete: true, ConfirmExit: false, OverwritePolicy: "rename"},
		Advanced:     Advanced{TickRateMs: 200},
	}
}
