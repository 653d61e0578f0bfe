// Package settingsio implements the two persisted INI files of spec §6
// using gopkg.in/ini.v1: ~/.config/mc/ini (skin upsert) and
// ~/.config/rc/settings.ini (the nine-section settings snapshot, with
// repeated-key list encoding). This package is exercised by the core
// (jobs.PersistSettings / appstate's startup load) but is not itself held
// to the core's invariants — INI format is explicitly out of scope per
// spec §1.
package settingsio

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"

	"twinfm/internal/apperr"
	"twinfm/internal/fsops"
	"twinfm/internal/settings"
)

// McConfigPath returns ~/.config/mc/ini for the given HOME.
func McConfigPath(home string) string { return filepath.Join(home, ".config", "mc", "ini") }

// SettingsPath returns ~/.config/rc/settings.ini for the given HOME.
func SettingsPath(home string) string { return filepath.Join(home, ".config", "rc", "settings.ini") }

const mcSection = "Midnight-Commander"

// LoadSkin reads the skin=NAME key from the mc ini file. A missing file or
// missing key returns "" with no error — the caller applies its own
// default.
func LoadSkin(path string) (string, error) {
	cfg, err := loadOrEmpty(path)
	if err != nil {
		return "", apperr.NewSettingsError("load skin", path, err.Error(), err)
	}
	return cfg.Section(mcSection).Key("skin").String(), nil
}

// PersistSkin upserts the skin key per §6's discipline: rewrite the line
// if section+key exist, insert at the section's end if only the section
// exists, append a fresh section otherwise. ini.v1's Section/Key API gives
// us this for free — SetValue rewrites in place, and creating the section
// on first access appends it. Writes are atomic via temp-file + rename.
func PersistSkin(path, skin string) error {
	cfg, err := loadOrEmpty(path)
	if err != nil {
		return apperr.NewSettingsError("persist skin", path, err.Error(), err)
	}
	cfg.Section(mcSection).Key("skin").SetValue(skin)

	var buf bytes.Buffer
	if _, err := cfg.WriteTo(&buf); err != nil {
		return apperr.NewSettingsError("persist skin", path, err.Error(), err)
	}
	return fsops.AtomicWriteFile(path, buf.Bytes(), 0o644)
}

func loadOrEmpty(path string) (*ini.File, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return ini.Empty(), nil
	}
	return ini.LoadSources(ini.LoadOptions{AllowShadows: true}, path)
}

// Load reads the nine-section settings file, starting from
// settings.Default() and overlaying whatever the file specifies. A
// repeated-key list section present without the key clears that default
// list to empty, per §6.
func Load(path string) (settings.Settings, error) {
	s := settings.Default()

	cfg, err := loadOrEmpty(path)
	if err != nil {
		return s, apperr.NewSettingsError("load settings", path, err.Error(), err)
	}
	if len(cfg.Sections()) <= 1 { // only the implicit DEFAULT section: file didn't exist
		return s, nil
	}

	if sec, ok := sectionIfPresent(cfg, "configuration"); ok {
		s.Configuration.Hotlist = shadowValues(sec, "hotlist")
		s.Configuration.PanelizePresets = shadowValues(sec, "panelize_preset")
	}
	if sec, ok := sectionIfPresent(cfg, "layout"); ok {
		s.Layout.ShowStatusLine = boolKey(sec, "show_status_line", s.Layout.ShowStatusLine)
		s.Layout.ShowMenuBar = boolKey(sec, "show_menu_bar", s.Layout.ShowMenuBar)
	}
	if sec, ok := sectionIfPresent(cfg, "panel_options"); ok {
		s.PanelOptions.ShowHiddenFiles = boolKey(sec, "show_hidden_files", s.PanelOptions.ShowHiddenFiles)
		s.PanelOptions.SortField = enumKey(sec, "sort_field", s.PanelOptions.SortField, "name", "size", "modified", "mtime")
	}
	if sec, ok := sectionIfPresent(cfg, "confirmation"); ok {
		s.Confirmation.ConfirmDelete = boolKey(sec, "confirm_delete", s.Confirmation.ConfirmDelete)
		s.Confirmation.ConfirmExit = boolKey(sec, "confirm_exit", s.Confirmation.ConfirmExit)
		s.Confirmation.OverwritePolicy = enumKey(sec, "overwrite_policy", s.Confirmation.OverwritePolicy, "overwrite", "skip", "rename")
	}
	if sec, ok := sectionIfPresent(cfg, "appearance"); ok {
		s.Appearance.Skin = sec.Key("skin").MustString(s.Appearance.Skin)
		s.Appearance.SkinDirs = shadowValues(sec, "skin_dir")
	}
	if sec, ok := sectionIfPresent(cfg, "display_bits"); ok {
		s.DisplayBits.FullEightBits = boolKey(sec, "full_eight_bits", s.DisplayBits.FullEightBits)
	}
	if sec, ok := sectionIfPresent(cfg, "learn_keys"); ok {
		s.LearnKeys.KeymapPath = sec.Key("keymap_path").MustString(s.LearnKeys.KeymapPath)
	}
	if sec, ok := sectionIfPresent(cfg, "virtual_fs"); ok {
		s.VirtualFS.Timeout = sec.Key("timeout").MustInt(s.VirtualFS.Timeout)
	}
	if sec, ok := sectionIfPresent(cfg, "advanced"); ok {
		s.Advanced.TickRateMs = sec.Key("tick_rate_ms").MustInt(s.Advanced.TickRateMs)
	}

	return s, nil
}

func sectionIfPresent(cfg *ini.File, name string) (*ini.Section, bool) {
	if !cfg.HasSection(name) {
		return nil, false
	}
	sec, _ := cfg.GetSection(name)
	return sec, true
}

// shadowValues returns every value recorded for a repeated key, or nil if
// the key is absent — callers treat nil and empty identically, which is how
// an absent key clears the list.
func shadowValues(sec *ini.Section, key string) []string {
	if !sec.HasKey(key) {
		return nil
	}
	return sec.Key(key).ValueWithShadows()
}

func boolKey(sec *ini.Section, key string, fallback bool) bool {
	if !sec.HasKey(key) {
		return fallback
	}
	v := strings.ToLower(strings.TrimSpace(sec.Key(key).String()))
	switch v {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func enumKey(sec *ini.Section, key, fallback string, allowed ...string) string {
	if !sec.HasKey(key) {
		return fallback
	}
	v := strings.ToLower(strings.TrimSpace(sec.Key(key).String()))
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	return fallback
}

// Render encodes s into the nine-section INI layout, ready for
// jobs.JobRequest.SettingsSnapshot. Empty lists are omitted entirely
// (rather than writing a key with no values) so a subsequent Load sees
// "section present, key absent" and clears to empty, per §6.
func Render(s settings.Settings) ([]byte, error) {
	cfg := ini.Empty(ini.LoadOptions{AllowShadows: true})

	conf, _ := cfg.NewSection("configuration")
	addShadowList(conf, "hotlist", s.Configuration.Hotlist)
	addShadowList(conf, "panelize_preset", s.Configuration.PanelizePresets)

	layout, _ := cfg.NewSection("layout")
	layout.Key("show_status_line").SetValue(renderBool(s.Layout.ShowStatusLine))
	layout.Key("show_menu_bar").SetValue(renderBool(s.Layout.ShowMenuBar))

	panelOpts, _ := cfg.NewSection("panel_options")
	panelOpts.Key("show_hidden_files").SetValue(renderBool(s.PanelOptions.ShowHiddenFiles))
	panelOpts.Key("sort_field").SetValue(s.PanelOptions.SortField)

	confirm, _ := cfg.NewSection("confirmation")
	confirm.Key("confirm_delete").SetValue(renderBool(s.Confirmation.ConfirmDelete))
	confirm.Key("confirm_exit").SetValue(renderBool(s.Confirmation.ConfirmExit))
	confirm.Key("overwrite_policy").SetValue(s.Confirmation.OverwritePolicy)

	appearance, _ := cfg.NewSection("appearance")
	appearance.Key("skin").SetValue(s.Appearance.Skin)
	addShadowList(appearance, "skin_dir", s.Appearance.SkinDirs)

	bits, _ := cfg.NewSection("display_bits")
	bits.Key("full_eight_bits").SetValue(renderBool(s.DisplayBits.FullEightBits))

	learn, _ := cfg.NewSection("learn_keys")
	learn.Key("keymap_path").SetValue(s.LearnKeys.KeymapPath)

	vfs, _ := cfg.NewSection("virtual_fs")
	vfs.Key("timeout").SetValue(strconv.Itoa(s.VirtualFS.Timeout))

	adv, _ := cfg.NewSection("advanced")
	adv.Key("tick_rate_ms").SetValue(strconv.Itoa(s.Advanced.TickRateMs))

	var buf bytes.Buffer
	if _, err := cfg.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func addShadowList(sec *ini.Section, key string, values []string) {
	if len(values) == 0 {
		return
	}
	k, _ := sec.NewKey(key, values[0])
	for _, v := range values[1:] {
		_ = k.AddShadow(v)
	}
}

func renderBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
