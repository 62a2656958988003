// Package engine plans validation passes into independent tasks and runs
// them on a bounded worker pool.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/mr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/cuihairu/filacheck/internal/catalog"
	"github.com/cuihairu/filacheck/internal/validation"
)

const instrumentation = "github.com/cuihairu/filacheck/internal/engine"

// Task is one independent unit of work. Run must only read its own inputs
// and whatever immutable data was captured when the task was planned.
type Task struct {
	Pass string
	Path string
	Run  func(ctx context.Context) []validation.Issue
}

// Catalog is the read-only view handed to passes while planning.
type Catalog struct {
	Layout  catalog.Layout
	Tree    *catalog.Tree
	Schemas *validation.SchemaSet
}

// Pass turns a catalog into tasks.
type Pass interface {
	Name() string
	Plan(ctx context.Context, c *Catalog) ([]Task, error)
}

// Engine runs a set of passes.
type Engine struct {
	Workers int
	Passes  []Pass
	Logger  *slog.Logger

	tracer trace.Tracer
	issues metric.Int64Counter
	tasks  metric.Int64Counter
}

type Option func(*Engine)

// WithWorkers bounds the number of tasks running at once.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.Workers = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.Logger = l }
}

// New builds an engine. Instruments come from the global OpenTelemetry
// providers, which are no-ops unless telemetry was set up.
func New(passes []Pass, opts ...Option) *Engine {
	e := &Engine{Passes: passes}
	for _, o := range opts {
		o(e)
	}
	if e.Workers <= 0 {
		e.Workers = runtime.NumCPU()
	}
	if e.Logger == nil {
		e.Logger = slog.Default()
	}
	e.tracer = otel.Tracer(instrumentation)
	meter := otel.Meter(instrumentation)
	var err error
	if e.issues, err = meter.Int64Counter("filacheck.issues",
		metric.WithDescription("Issues reported by validation tasks")); err != nil {
		e.Logger.Warn("issue counter unavailable", "error", err)
	}
	if e.tasks, err = meter.Int64Counter("filacheck.tasks",
		metric.WithDescription("Validation tasks executed")); err != nil {
		e.Logger.Warn("task counter unavailable", "error", err)
	}
	return e
}

// Load compiles the schemas and walks the layout once.
func Load(layout catalog.Layout) (*Catalog, error) {
	schemas, err := validation.LoadSchemas(layout.SchemasDir)
	if err != nil {
		return nil, fmt.Errorf("load schemas: %w", err)
	}
	tree, err := layout.Walk()
	if err != nil {
		return nil, fmt.Errorf("walk catalog: %w", err)
	}
	return &Catalog{Layout: layout, Tree: tree, Schemas: schemas}, nil
}

// Run loads the catalog under layout and validates it.
func (e *Engine) Run(ctx context.Context, layout catalog.Layout) (*validation.Report, error) {
	c, err := Load(layout)
	if err != nil {
		return nil, err
	}
	return e.RunCatalog(ctx, c)
}

// RunCatalog plans every pass and executes the resulting tasks. The report
// is identical regardless of worker count or completion order.
func (e *Engine) RunCatalog(ctx context.Context, c *Catalog) (*validation.Report, error) {
	report := &validation.Report{RunID: uuid.NewString(), StartedAt: time.Now().UTC()}
	ctx, span := e.tracer.Start(ctx, "filacheck.validate",
		trace.WithAttributes(attribute.String("run.id", report.RunID)))
	defer span.End()

	runs, tasks, err := e.plan(ctx, c, report)
	defer func() {
		for _, r := range runs {
			r.end(err)
		}
	}()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	report.Tasks = len(tasks)

	issues, err := e.execute(ctx, tasks)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	report.Issues = issues
	report.Duration = time.Since(report.StartedAt)

	span.SetAttributes(
		attribute.Int("tasks", report.Tasks),
		attribute.Int("errors", report.Errors()),
		attribute.Int("warnings", report.Warnings()),
	)
	e.Logger.Info("validation finished",
		"run_id", report.RunID,
		"tasks", report.Tasks,
		"errors", report.Errors(),
		"warnings", report.Warnings(),
		"duration", report.Duration)
	return report, nil
}

// passRun is one pass of a run. Its span stays open until every task the
// pass planned has finished.
type passRun struct {
	name   string
	ctx    context.Context
	span   trace.Span
	tasks  int
	issues atomic.Int64
}

func (r *passRun) end(err error) {
	r.span.SetAttributes(
		attribute.Int("tasks", r.tasks),
		attribute.Int64("issues", r.issues.Load()),
	)
	if err != nil {
		r.span.RecordError(err)
		r.span.SetStatus(codes.Error, err.Error())
	}
	r.span.End()
}

// scheduled binds a task to the pass that planned it.
type scheduled struct {
	Task
	owner *passRun
}

func (e *Engine) plan(ctx context.Context, c *Catalog, report *validation.Report) ([]*passRun, []scheduled, error) {
	var runs []*passRun
	var tasks []scheduled
	for _, p := range e.Passes {
		if err := ctx.Err(); err != nil {
			return runs, nil, err
		}
		pctx, span := e.tracer.Start(ctx, "filacheck.pass",
			trace.WithAttributes(attribute.String("pass", p.Name())))
		run := &passRun{name: p.Name(), ctx: pctx, span: span}
		runs = append(runs, run)
		planned, err := p.Plan(pctx, c)
		if err != nil {
			return runs, nil, fmt.Errorf("plan %s: %w", p.Name(), err)
		}
		run.tasks = len(planned)
		e.Logger.Debug("pass planned", "pass", p.Name(), "tasks", len(planned))
		report.Passes = append(report.Passes, p.Name())
		for _, t := range planned {
			tasks = append(tasks, scheduled{Task: t, owner: run})
		}
	}
	return runs, tasks, nil
}

func (e *Engine) execute(ctx context.Context, tasks []scheduled) ([]validation.Issue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	issues, err := mr.MapReduce(func(source chan<- scheduled) {
		for _, t := range tasks {
			source <- t
		}
	}, func(t scheduled, writer mr.Writer[[]validation.Issue], cancel func(error)) {
		if err := ctx.Err(); err != nil {
			cancel(err)
			return
		}
		found := t.Run(t.owner.ctx)
		t.owner.issues.Add(int64(len(found)))
		e.record(ctx, t.Pass, len(found))
		writer.Write(found)
	}, func(pipe <-chan []validation.Issue, writer mr.Writer[[]validation.Issue], cancel func(error)) {
		var results [][]validation.Issue
		for r := range pipe {
			results = append(results, r)
		}
		writer.Write(validation.Merge(results...))
	}, mr.WithContext(ctx), mr.WithWorkers(e.Workers))
	// mr reports a cancelled context as a deadline; surface the real cause.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		return nil, fmt.Errorf("run tasks: %w", err)
	}
	return issues, nil
}

func (e *Engine) record(ctx context.Context, pass string, n int) {
	attrs := metric.WithAttributes(attribute.String("pass", pass))
	if e.tasks != nil {
		e.tasks.Add(ctx, 1, attrs)
	}
	if e.issues != nil && n > 0 {
		e.issues.Add(ctx, int64(n), attrs)
	}
}
