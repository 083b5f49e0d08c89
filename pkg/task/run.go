package task

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	sdkerrors "github.com/wehubfusion/Daedalus/pkg/errors"
)

// CommandKind selects what Run does with a task.
type CommandKind int

const (
	// CommandExecute performs the full read/resolve/act cycle.
	CommandExecute CommandKind = iota
	// CommandShowTree renders the task's resource paths without executing
	// anything or touching any accessor.
	CommandShowTree
)

// Command is the operation requested from Run.
type Command struct {
	kind         CommandKind
	withMappings bool
}

// Execute requests a full pipeline run.
func Execute() Command { return Command{kind: CommandExecute} }

// ShowTree requests read-only tree rendering, with resolved location
// templates when withMappings is true.
func ShowTree(withMappings bool) Command {
	return Command{kind: CommandShowTree, withMappings: withMappings}
}

// Kind returns the command kind.
func (c Command) Kind() CommandKind { return c.kind }

// Lifecycle event kinds emitted by Run.
const (
	EventRunStarted  = "run.started"
	EventRunFinished = "run.finished"
)

// Event is one pipeline lifecycle event.
type Event struct {
	RunID string    `json:"runId"`
	Kind  string    `json:"kind"`
	Error string    `json:"error,omitempty"`
	At    time.Time `json:"at"`
}

// EventSink receives lifecycle events. Implementations must not block the
// run on delivery failures.
type EventSink interface {
	Emit(ctx context.Context, event Event)
}

type runConfig struct {
	tracer trace.Tracer
	events EventSink
	out    io.Writer
}

// RunOption configures Run.
type RunOption func(*runConfig)

// WithTracer wraps the run in an OpenTelemetry span.
func WithTracer(tracer trace.Tracer) RunOption {
	return func(c *runConfig) { c.tracer = tracer }
}

// WithEventSink publishes lifecycle events to sink.
func WithEventSink(sink EventSink) RunOption {
	return func(c *runConfig) { c.events = sink }
}

// WithOutput sets the writer ShowTree renders to. Defaults to stdout.
func WithOutput(w io.Writer) RunOption {
	return func(c *runConfig) { c.out = w }
}

// Run executes a command against a task. Execute invokes the runnable with
// the runtime's bound physical tree; ShowTree renders paths and returns the
// zero output. Any error is returned to the caller untouched; Run itself
// never recovers.
func Run[I, O any](ctx context.Context, t Task[I, O], in I, cmd Command, rt *Runtime, opts ...RunOption) (O, error) {
	var zero O
	cfg := runConfig{out: os.Stdout}
	for _, opt := range opts {
		opt(&cfg)
	}
	if rt == nil {
		rt = NewRuntime(nil, nil)
	}

	if cmd.kind == CommandShowTree {
		if !cmd.withMappings {
			return zero, t.Tree().Render(cfg.out)
		}
		if rt.tree == nil {
			return zero, sdkerrors.Binding("", "rendering locations requires a bound physical tree", nil)
		}
		return zero, rt.tree.Render(cfg.out, true)
	}

	runID := uuid.NewString()
	logger := rt.logger.With(zap.String("run_id", runID))
	start := time.Now()

	if cfg.tracer != nil {
		var span trace.Span
		ctx, span = cfg.tracer.Start(ctx, "daedalus.run",
			trace.WithAttributes(attribute.String("run.id", runID)))
		defer span.End()
		out, err := runWithEvents(ctx, t, in, rt, cfg, runID, logger, start)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		return out, err
	}

	return runWithEvents(ctx, t, in, rt, cfg, runID, logger, start)
}

func runWithEvents[I, O any](ctx context.Context, t Task[I, O], in I, rt *Runtime, cfg runConfig, runID string, logger *zap.Logger, start time.Time) (O, error) {
	if cfg.events != nil {
		cfg.events.Emit(ctx, Event{RunID: runID, Kind: EventRunStarted, At: start})
	}

	logger.Info("Pipeline run started")
	out, err := t.Invoke(ctx, rt, in)
	elapsed := time.Since(start)

	if cfg.events != nil {
		ev := Event{RunID: runID, Kind: EventRunFinished, At: time.Now()}
		if err != nil {
			ev.Error = err.Error()
		}
		cfg.events.Emit(ctx, ev)
	}

	if err != nil {
		logger.Error("Pipeline run failed",
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return out, err
	}
	logger.Info("Pipeline run finished", zap.Duration("elapsed", elapsed))
	return out, nil
}
