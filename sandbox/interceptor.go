package sandbox

import (
	"context"

	"github.com/deepnoodle-ai/peek/bytecode"
	"github.com/deepnoodle-ai/peek/vm"
	"github.com/rs/zerolog"
)

// interceptor enforces the policy on every call made by one evaluation.
// It is not safe for concurrent use; each evaluation builds its own.
type interceptor struct {
	policy    *Policy
	logger    zerolog.Logger
	active    bool
	verdicts  map[*bytecode.Code]Verdict
	violation *MutationError
}

func newInterceptor(policy *Policy, logger zerolog.Logger) *interceptor {
	return &interceptor{
		policy:   policy,
		logger:   logger,
		verdicts: map[*bytecode.Code]Verdict{},
	}
}

// enable turns interception on and returns the function that turns it off.
func (i *interceptor) enable() func() {
	i.active = true
	return func() { i.active = false }
}

// OnCall checks one call. Once a violation is found every later call fails
// with the same error.
func (i *interceptor) OnCall(ctx context.Context, event vm.CallEvent) error {
	if i.violation != nil {
		return i.violation
	}
	if !i.active {
		return i.abort(event, newMutationError(UnknownCause,
			"Call to %s.%s made outside of the sandbox", event.ReceiverType, event.Method))
	}
	if event.Function != nil {
		verdict := i.classify(event.Function.Code())
		if !verdict.Allowed() {
			return i.abort(event, verdict.Err)
		}
		return nil
	}
	if !i.policy.IsCallAllowed(event.ReceiverType, event.Kind, event.Method) {
		return i.abort(event, newMutationError(ProhibitedCall,
			"Call to %s is not allowed (%s call on %s, line %d)",
			event.Method, event.Kind, event.ReceiverType, event.Location.Line))
	}
	return nil
}

// classify checks a function body reached at runtime. Verdicts are cached
// by code block for the lifetime of the evaluation.
func (i *interceptor) classify(code *bytecode.Code) Verdict {
	if verdict, ok := i.verdicts[code]; ok {
		return verdict
	}
	verdict := Classify(code, AllowLocalWrites())
	i.verdicts[code] = verdict
	return verdict
}

func (i *interceptor) abort(event vm.CallEvent, err *MutationError) error {
	i.active = false
	i.violation = err
	i.logger.Debug().
		Str("kind", err.Kind.String()).
		Str("receiver", event.ReceiverType).
		Str("method", event.Method).
		Int("depth", event.FrameDepth).
		Msg(err.Message)
	return err
}
