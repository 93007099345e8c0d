package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/deepnoodle-ai/peek/builtins"
	"github.com/deepnoodle-ai/peek/errz"
	"github.com/deepnoodle-ai/peek/object"
	"github.com/deepnoodle-ai/peek/snapshot"
	"github.com/deepnoodle-ai/peek/vm"
	"github.com/gofrs/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
)

// State is a step of an evaluation.
type State string

const (
	StateCompiling   State = "compiling"
	StateClassifying State = "classifying"
	StateRejected    State = "rejected"
	StateExecuting   State = "executing"
	StateCompleted   State = "completed"
	StateAborted     State = "aborted"
)

// Sandbox evaluates expressions without letting them modify the values they
// read. A Sandbox holds no per-evaluation state and may be used from
// multiple goroutines.
type Sandbox struct {
	logger       zerolog.Logger
	policy       *Policy
	builtins     map[string]object.Object
	builtinNames []string
	limits       snapshot.Limits
}

// Option configures a Sandbox.
type Option func(*Sandbox)

// WithLogger sets the logger that receives evaluation state changes.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Sandbox) {
		s.logger = logger
	}
}

// WithPolicy replaces the default call policy.
func WithPolicy(policy *Policy) Option {
	return func(s *Sandbox) {
		s.policy = policy
	}
}

// WithBuiltins replaces the builtin functions, classes and modules available
// to expressions.
func WithBuiltins(builtins map[string]object.Object) Option {
	return func(s *Sandbox) {
		s.builtins = builtins
	}
}

// WithLimits sets the limits used to render results of EvalExpressions.
func WithLimits(limits snapshot.Limits) Option {
	return func(s *Sandbox) {
		s.limits = limits
	}
}

// New returns a Sandbox configured with the given options.
func New(opts ...Option) *Sandbox {
	s := &Sandbox{
		logger: zerolog.Nop(),
		limits: snapshot.DefaultLimits(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.policy == nil {
		s.policy = DefaultPolicy()
	}
	if s.builtins == nil {
		s.builtins = builtins.Defaults()
	}
	s.builtinNames = sortedKeys(s.builtins)
	return s
}

// Policy returns the call policy enforced by the sandbox.
func (s *Sandbox) Policy() *Policy {
	return s.policy
}

// Check compiles and classifies expr without running it. The returned error
// is the verdict's *MutationError, or a compilation failure.
func (s *Sandbox) Check(ctx context.Context, env *Environment, expr *Expression) (Verdict, error) {
	if env == nil {
		env = &Environment{}
	}
	program, mutationErr := expr.compile(ctx, env, s.builtinNames)
	if mutationErr != nil {
		return Verdict{Err: mutationErr, Rule: RuleCompilation}, mutationErr
	}
	verdict := Classify(program)
	if !verdict.Allowed() {
		return verdict, verdict.Err
	}
	return verdict, nil
}

type outcome struct {
	result object.Object
	err    *MutationError
}

// Evaluate compiles, classifies and runs expr. Any failure is returned as a
// *MutationError. The expression runs on its own goroutine and Evaluate
// waits for it to finish; cancelling ctx stops it.
func (s *Sandbox) Evaluate(ctx context.Context, env *Environment, expr *Expression) (object.Object, error) {
	if env == nil {
		env = &Environment{}
	}
	logger := s.logger.With().
		Str("eval_id", uuid.Must(uuid.NewV4()).String()).
		Str("expression", expr.Text()).
		Logger()

	logger.Debug().Str("state", string(StateCompiling)).Msg("sandbox state")
	program, mutationErr := expr.compile(ctx, env, s.builtinNames)
	if mutationErr != nil {
		logger.Debug().Str("state", string(StateRejected)).Str("rule", RuleCompilation).Msg(mutationErr.Message)
		return nil, mutationErr
	}

	logger.Debug().Str("state", string(StateClassifying)).Msg("sandbox state")
	verdict := Classify(program)
	if !verdict.Allowed() {
		logger.Debug().Str("state", string(StateRejected)).Str("rule", verdict.Rule).Msg(verdict.Err.Message)
		return nil, verdict.Err
	}

	logger.Debug().Str("state", string(StateExecuting)).Msg("sandbox state")
	icpt := newInterceptor(s.policy, logger)
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: unknownCause(fmt.Errorf("panic: %v", r))}
			}
		}()
		done <- s.execute(ctx, env, verdict, icpt)
	}()
	out := <-done

	if out.err != nil {
		event := logger.Debug().Str("state", string(StateAborted)).Str("kind", out.err.Kind.String())
		var structured *errz.StructuredError
		if errors.As(out.err, &structured) {
			event = event.Str("detail", structured.FriendlyErrorMessage())
		}
		event.Msg(out.err.Message)
		return nil, out.err
	}
	logger.Debug().Str("state", string(StateCompleted)).Msg("sandbox state")
	return out.result, nil
}

func (s *Sandbox) execute(ctx context.Context, env *Environment, verdict Verdict, icpt *interceptor) outcome {
	disable := icpt.enable()
	defer disable()
	result, err := vm.Run(ctx, verdict.Program,
		vm.WithLocals(env.Locals),
		vm.WithGlobals(env.Globals),
		vm.WithBuiltins(s.builtins),
		vm.WithInterceptor(icpt))
	if icpt.violation != nil {
		return outcome{err: icpt.violation}
	}
	if err != nil {
		var mutationErr *MutationError
		if errors.As(err, &mutationErr) {
			return outcome{err: mutationErr}
		}
		return outcome{err: unknownCause(err)}
	}
	return outcome{result: result}
}

// EvalCondition reports whether the condition text evaluates to a truthy
// value. Empty conditions and failed evaluations are false.
func (s *Sandbox) EvalCondition(ctx context.Context, env *Environment, text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	result, err := s.Evaluate(ctx, env, NewExpression(text))
	if err != nil {
		return false
	}
	return result.IsTruthy()
}

// EvalExpressions evaluates each text independently and returns one
// Variable per text, in order, named by the text. A failed evaluation
// yields an error Variable. Repeated texts are compiled once.
func (s *Sandbox) EvalExpressions(ctx context.Context, env *Environment, texts []string) []snapshot.Variable {
	var errs *multierror.Error
	expressions := map[string]*Expression{}
	variables := make([]snapshot.Variable, 0, len(texts))
	for _, text := range texts {
		expr, ok := expressions[text]
		if !ok {
			expr = NewExpression(text)
			expressions[text] = expr
		}
		result, err := s.Evaluate(ctx, env, expr)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", text, err))
			variables = append(variables, snapshot.ErrorVariable(text, err))
			continue
		}
		variables = append(variables, snapshot.NewVariable(text, result, s.limits))
	}
	if err := errs.ErrorOrNil(); err != nil {
		s.logger.Debug().Err(err).Int("failed", errs.Len()).Int("total", len(texts)).
			Msg("expression evaluation failed")
	}
	return variables
}
