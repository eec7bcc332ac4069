// # cmd/focal/app.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"focal/internal/config"
	"focal/internal/extract"
	"focal/internal/frontend"
	"focal/internal/observability"
	"focal/internal/util"
	"focal/internal/watcher"
)

// App wires the front end, the extractor and the watcher together for one
// crate.
type App struct {
	Config    *config.Config
	extractor *extract.Extractor
	limiter   *util.Limiter

	runMu      sync.Mutex
	lastResult *extract.RunResult

	teaProgram *tea.Program
}

func NewApp(cfg *config.Config) (*App, error) {
	fe, err := frontend.NewRustFrontend(cfg.CratePath, cfg.Exclude.Dirs, cfg.Exclude.Files, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("initialize frontend: %w", err)
	}
	return &App{
		Config:    cfg,
		extractor: extract.New(cfg, fe, slog.Default()),
		limiter:   util.NewLimiter(float64(cfg.Watch.RescansPerMinute)/60.0, 1),
	}, nil
}

// RunOnce performs a full extraction run and pushes the result to the UI
// when one is attached.
func (a *App) RunOnce(ctx context.Context) (*extract.RunResult, error) {
	// Runs are serialized: watch events arriving mid-run wait their turn.
	a.runMu.Lock()
	defer a.runMu.Unlock()

	res, err := a.extractor.Run(ctx)
	if err != nil {
		return nil, err
	}
	a.lastResult = res

	if a.teaProgram != nil {
		a.teaProgram.Send(updateMsg{
			rows:    res.Report.Rows(),
			modules: res.Modules,
			failed:  res.Failed,
		})
	}
	return res, nil
}

// HandleChanges re-runs the extraction after the watcher reports changed
// files, respecting the rescan rate limit.
func (a *App) HandleChanges(paths []string) {
	if !a.limiter.Allow(1) {
		observability.RescansThrottledTotal.Inc()
		slog.Debug("rescan throttled", "changed", len(paths))
		return
	}
	slog.Info("source changed, re-extracting", "files", len(paths))
	if _, err := a.RunOnce(context.Background()); err != nil {
		slog.Error("re-extraction failed", "error", err)
	}
}

func (a *App) StartWatcher() error {
	w, err := watcher.NewWatcher(
		a.Config.Watch.Debounce,
		a.Config.Exclude.Dirs,
		a.Config.Exclude.Files,
		a.HandleChanges,
	)
	if err != nil {
		return err
	}
	// Note: We don't close here, it should run forever
	return w.Watch([]string{a.Config.CratePath})
}

func (a *App) RunUI() error {
	m := initialModel()
	p := tea.NewProgram(m, tea.WithAltScreen())
	a.teaProgram = p

	go func() {
		a.runMu.Lock()
		res := a.lastResult
		a.runMu.Unlock()
		if res != nil {
			p.Send(updateMsg{
				rows:    res.Report.Rows(),
				modules: res.Modules,
				failed:  res.Failed,
			})
		}
	}()

	_, err := p.Run()
	return err
}

func (a *App) PrintSummary(res *extract.RunResult) {
	fmt.Printf("focal: %d entry points across %d modules\n", res.Entries, res.Modules)
	if res.Failed > 0 {
		fmt.Printf("  %d entries skipped, see log for details\n", res.Failed)
	}
	for _, row := range res.Report.Rows() {
		if row.Skipped {
			continue
		}
		fmt.Printf("  %s -> %s\n", row.Entry, row.File)
	}
	fmt.Printf("  output: %s\n", a.Config.Output.Dir)
}
