// Command twinfm is the terminal twin-panel commander's entry point.
// Grounded on the cobra root-command shape used across the retrieval pack
// (e.g. ChuLiYu-raft-recovery's internal/cli.BuildCLI): a root command with
// persistent flags, wiring the core components together and handing off
// to internal/tui's bubbletea program.
package main

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"twinfm/internal/applog"
	"twinfm/internal/appstate"
	"twinfm/internal/background"
	"twinfm/internal/bridge"
	"twinfm/internal/jobs"
	"twinfm/internal/keymap"
	"twinfm/internal/settingsio"
	"twinfm/internal/tui"
	"twinfm/internal/worker"
)

// version is set at release time; left as a literal default since this
// module has no build-time ldflags wiring yet.
const version = "0.1.0"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "twinfm: "+err.Error())
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var tickRateMs int
	var startPath string

	cmd := &cobra.Command{
		Use:     "twinfm",
		Short:   "A terminal twin-panel file commander",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(tickRateMs, startPath)
		},
		SilenceUsage: true,
	}

	cmd.Flags().IntVar(&tickRateMs, "tick-rate-ms", 200, "poll budget per UI tick")
	cmd.Flags().StringVar(&startPath, "path", "", "starting directory for both panels (defaults to the process cwd)")

	return cmd
}

func run(tickRateMs int, startPath string) error {
	applog.Init(os.Stderr, applog.ParseFilter(envOr("RC_LOG", applog.DefaultFilterSpec)))
	log := applog.Named("main")

	if startPath == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolve starting directory: %w", err)
		}
		startPath = cwd
	}
	if info, err := os.Stat(startPath); err != nil || !info.IsDir() {
		return fmt.Errorf("starting path %q is not a directory", startPath)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		log.Warn().Err(err).Msg("could not resolve home directory, using process cwd for config paths")
		home = "."
	}

	snap, err := settingsio.Load(settingsio.SettingsPath(home))
	if err != nil {
		log.Warn().Err(err).Msg("settings load failed, falling back to defaults")
	}
	if skin, err := settingsio.LoadSkin(settingsio.McConfigPath(home)); err == nil && skin != "" {
		snap.Appearance.Skin = skin
	}

	resolver := keymap.NewResolver()
	if snap.LearnKeys.KeymapPath != "" {
		loaded, report, err := keymap.LoadFile(snap.LearnKeys.KeymapPath)
		if err != nil {
			log.Warn().Err(err).Str("path", snap.LearnKeys.KeymapPath).Msg("keymap load failed, falling back to no bindings")
		} else {
			resolver = loaded
			for _, a := range report.UnknownActions {
				log.Warn().Str("action", a).Msg("keymap: unknown action name")
			}
			for _, c := range report.UnparseableChords {
				log.Warn().Str("chord", c).Msg("keymap: unparseable chord")
			}
		}
	}

	mgr := jobs.NewManager()
	backend := worker.RealFsBackend{SettingsPath: settingsio.SettingsPath(home)}
	workerRt := worker.NewRuntime(worker.DefaultSlots, backend, 32, 32)
	bgRt := background.NewRuntime(background.DefaultScanSlots, background.DefaultViewerSlots, 32, 32)
	go workerRt.Start()
	go bgRt.Start()

	br := bridge.New(workerRt, bgRt)
	state := appstate.New(startPath, mgr, snap)

	model := tui.New(state, br, resolver, time.Duration(tickRateMs)*time.Millisecond)

	p := tea.NewProgram(model, tea.WithAltScreen())
	model.SetProgram(p)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("terminal UI: %w", err)
	}
	return nil
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
