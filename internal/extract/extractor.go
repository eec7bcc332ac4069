// # internal/extract/extractor.go
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"focal/internal/closure"
	"focal/internal/config"
	"focal/internal/frontend"
	"focal/internal/model"
	"focal/internal/observability"
	"focal/internal/output"
	"focal/internal/render"
	"focal/internal/symgraph"
)

// Extractor drives one full run: list the model, compute every entry
// point's closure, render and write its context, and flush the name map.
// Entry points are independent of each other, so they fan out over a
// worker pool; a failure on one entry is logged and never stops the run.
type Extractor struct {
	cfg *config.Config
	fe  frontend.Frontend
	log *slog.Logger
}

func New(cfg *config.Config, fe frontend.Frontend, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{cfg: cfg, fe: fe, log: logger}
}

// RunResult summarizes one extraction run.
type RunResult struct {
	Modules int
	Entries int
	Failed  int
	Report  *output.Report
}

type job struct {
	entry     *model.Decl
	enclosing *model.Decl
	mod       *model.Module
}

func (e *Extractor) Run(ctx context.Context) (*RunResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "extractor.Run")
	defer span.End()

	runStart := time.Now()
	defer func() {
		observability.RunDuration.Observe(time.Since(runStart).Seconds())
	}()

	modules, err := e.fe.ListModules(ctx)
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	ix := symgraph.Build(modules)

	writer, err := output.NewWriter(e.cfg.Output.Dir)
	if err != nil {
		return nil, err
	}
	if err := writer.Reset(); err != nil {
		return nil, err
	}
	if e.cfg.Output.Dump {
		if err := writer.WriteDump(output.Dump(modules)); err != nil {
			return nil, err
		}
	}

	asm := render.NewAssembler(ix, render.NewValidator(), e.log)
	nameMap := output.NewNameMap()
	report := output.NewReport()

	var contentsMu sync.Mutex
	contents := make(map[string]string)
	keepContents := e.cfg.Output.SnapshotDB != ""

	var jobs []job
	for _, mod := range modules {
		m := mod
		m.EachEntryPoint(func(entry, enclosing *model.Decl) {
			jobs = append(jobs, job{entry: entry, enclosing: enclosing, mod: m})
		})
	}

	workers := e.cfg.Extract.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(jobs) && len(jobs) > 0 {
		workers = len(jobs)
	}

	jobCh := make(chan job)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobCh {
				content, ok := e.processEntry(ctx, ix, asm, writer, nameMap, report, j)
				if ok && keepContents {
					contentsMu.Lock()
					contents[j.entry.Name] = content
					contentsMu.Unlock()
				}
			}
		}()
	}
	for _, j := range jobs {
		if err := ctx.Err(); err != nil {
			break
		}
		jobCh <- j
	}
	close(jobCh)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := nameMap.Flush(writer.Dir()); err != nil {
		return nil, err
	}
	if e.cfg.Output.Report != "" {
		if err := writer.WriteFile(e.cfg.Output.Report, report.GenerateTSV()); err != nil {
			return nil, err
		}
	}
	if keepContents {
		if err := e.recordSnapshots(report, contents); err != nil {
			// Snapshot history is advisory; the run's outputs are already
			// on disk.
			e.log.Warn("snapshot store update failed", "error", err)
		}
	}

	failed := 0
	for _, row := range report.Rows() {
		if row.Skipped {
			failed++
		}
	}
	span.SetAttributes(
		attribute.Int("focal.modules", len(modules)),
		attribute.Int("focal.entries", len(jobs)),
		attribute.Int("focal.failed", failed),
	)
	return &RunResult{
		Modules: len(modules),
		Entries: len(jobs),
		Failed:  failed,
		Report:  report,
	}, nil
}

// processEntry computes, renders and writes one entry point's context. Any
// failure is recorded against this entry alone.
func (e *Extractor) processEntry(ctx context.Context, ix *symgraph.Index, asm *render.Assembler, writer *output.Writer, nameMap *output.NameMap, report *output.Report, j job) (string, bool) {
	_, span := observability.Tracer.Start(ctx, "extractor.processEntry",
		trace.WithAttributes(attribute.String("focal.entry", j.entry.Name)))
	defer span.End()

	start := time.Now()
	defer func() {
		observability.ExtractionDuration.Observe(time.Since(start).Seconds())
	}()

	seed := closure.Seed(j.entry, j.enclosing, j.mod)
	res := closure.Compute(ix, seed)
	observability.ClosureSize.WithLabelValues("direct").Observe(float64(len(res.Direct)))
	observability.ClosureSize.WithLabelValues("indirect").Observe(float64(len(res.Indirect)))

	rendered := asm.Assemble(res)
	content := rendered.Render()

	file, err := writer.WriteEntry(j.entry.Name, content)
	if err != nil {
		e.log.Error("writing context failed, entry skipped", "entry", j.entry.Name, "error", err)
		observability.EntriesFailedTotal.Inc()
		report.Add(output.EntryResult{Entry: j.entry.Name, Skipped: true, Err: err.Error()})
		return "", false
	}

	if e.cfg.Output.DOT {
		dot := output.NewDOTGenerator(ix).Generate(j.entry.Name, res)
		dotName := strings.TrimSuffix(file, ".rs") + ".dot"
		if err := writer.WriteFile(dotName, dot); err != nil {
			e.log.Warn("writing graph export failed", "entry", j.entry.Name, "error", err)
		}
	}

	nameMap.Add(j.entry.Name, file)
	report.Add(output.EntryResult{
		Entry:        j.entry.Name,
		File:         file,
		Modules:      len(rendered.Modules()),
		DirectSize:   len(res.Direct),
		IndirectSize: len(res.Indirect),
	})
	observability.EntriesProcessedTotal.Inc()
	return content, true
}

func (e *Extractor) recordSnapshots(report *output.Report, contents map[string]string) error {
	store, err := output.OpenSnapshotStore(e.cfg.Output.SnapshotDB, e.cfg.CratePath)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.RecordRun(report.Rows(), contents)
}
