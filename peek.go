// Package peek evaluates breakpoint conditions, watch expressions and log
// messages against the state of a running Go program, without letting
// them modify that state.
//
//	evaluator := peek.New(peek.WithLogger(logger))
//	result := evaluator.HandleHit(ctx, peek.Hit{
//		Frames:      frames,
//		Condition:   "retries > 3",
//		Expressions: []string{"request.URL", "len(queue)"},
//	})
package peek

import (
	"context"
	"strings"

	"github.com/deepnoodle-ai/peek/sandbox"
	"github.com/deepnoodle-ai/peek/snapshot"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// LogpointPrefix starts every message written for a logpoint.
const LogpointPrefix = "LOGPOINT: "

// Option configures an Evaluator.
type Option func(*options)

type options struct {
	logger      zerolog.Logger
	localsDepth int
	limits      snapshot.Limits
	policy      *sandbox.Policy
}

func collectOptions(opts ...Option) *options {
	o := &options{
		logger:      zerolog.Nop(),
		localsDepth: snapshot.DefaultLocalsDepth,
		limits:      snapshot.DefaultLimits(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// WithLogger sets the logger that receives logpoint messages and sandbox
// diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLocalsDepth sets how many of the nearest frames have their locals
// captured.
func WithLocalsDepth(depth int) Option {
	return func(o *options) {
		o.localsDepth = depth
	}
}

// WithLimits sets the limits used to render captured values.
func WithLimits(limits snapshot.Limits) Option {
	return func(o *options) {
		o.limits = limits
	}
}

// WithPolicy replaces the default call policy.
func WithPolicy(policy *sandbox.Policy) Option {
	return func(o *options) {
		o.policy = policy
	}
}

// Hit is one breakpoint hit to process.
type Hit struct {
	// Frames is the call stack at the hit, nearest frame first.
	Frames []snapshot.Frame

	// Globals are the process globals visible to expressions.
	Globals map[string]any

	// Condition, when set, must evaluate to a truthy value for the hit to
	// be reported.
	Condition string

	// Expressions are the watch expressions, or the log message arguments
	// for a logpoint.
	Expressions []string

	// LogMessage makes the breakpoint a logpoint. $N in the message is
	// replaced with the value of Expressions[N].
	LogMessage string

	// LogLevel is "info" (the default), "warning" or "error".
	LogLevel string
}

// Result is the outcome of processing a Hit.
type Result struct {
	// Triggered is false when the condition did not hold.
	Triggered bool `json:"triggered"`

	// Stack is the captured call stack. Logpoints do not capture it.
	Stack []snapshot.StackFrame `json:"stack,omitempty"`

	// Expressions holds one Variable per watch expression.
	Expressions []snapshot.Variable `json:"expressions,omitempty"`

	// LogMessage is the rendered logpoint message.
	LogMessage string `json:"log_message,omitempty"`
}

// Evaluator processes breakpoint hits.
type Evaluator struct {
	opts    *options
	sandbox *sandbox.Sandbox
}

// New returns an Evaluator configured with the given options.
func New(opts ...Option) *Evaluator {
	o := collectOptions(opts...)
	sandboxOpts := []sandbox.Option{
		sandbox.WithLogger(o.logger),
		sandbox.WithLimits(o.limits),
	}
	if o.policy != nil {
		sandboxOpts = append(sandboxOpts, sandbox.WithPolicy(o.policy))
	}
	return &Evaluator{opts: o, sandbox: sandbox.New(sandboxOpts...)}
}

// Sandbox returns the sandbox used to evaluate expressions.
func (e *Evaluator) Sandbox() *sandbox.Sandbox {
	return e.sandbox
}

// HandleHit evaluates the hit's condition in its nearest frame and, if it
// holds, either renders and logs the logpoint message or captures the stack
// and evaluates the watch expressions.
func (e *Evaluator) HandleHit(ctx context.Context, hit Hit) Result {
	env := &sandbox.Environment{Globals: hit.Globals}
	if len(hit.Frames) > 0 {
		env = sandbox.EnvironmentFromFrame(hit.Frames[0], hit.Globals)
	}
	if hit.Condition != "" && !e.sandbox.EvalCondition(ctx, env, hit.Condition) {
		return Result{}
	}
	result := Result{Triggered: true}
	variables := e.sandbox.EvalExpressions(ctx, env, hit.Expressions)
	if hit.LogMessage != "" {
		values := make([]string, len(variables))
		for i, v := range variables {
			values[i] = v.Value
		}
		result.LogMessage = snapshot.RenderLogMessage(hit.LogMessage, values)
		e.opts.logger.WithLevel(logLevel(hit.LogLevel)).Msg(LogpointPrefix + result.LogMessage)
		return result
	}
	result.Stack = snapshot.CaptureStack(hit.Frames,
		snapshot.WithLocalsDepth(e.opts.localsDepth),
		snapshot.WithLimits(e.opts.limits))
	result.Expressions = variables
	return result
}

// HandleHits processes independent hits concurrently and returns their
// results in order. It fails only if ctx is cancelled.
func (e *Evaluator) HandleHits(ctx context.Context, hits []Hit) ([]Result, error) {
	results := make([]Result, len(hits))
	g, ctx := errgroup.WithContext(ctx)
	for i, hit := range hits {
		i, hit := i, hit
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = e.HandleHit(ctx, hit)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func logLevel(name string) zerolog.Level {
	switch strings.ToLower(name) {
	case "warning", "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
