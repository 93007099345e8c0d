package sandbox

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"
	"testing"

	"github.com/deepnoodle-ai/peek/builtins"
	"github.com/deepnoodle-ai/peek/compiler"
	"github.com/deepnoodle-ai/peek/object"
	"github.com/deepnoodle-ai/peek/parser"
	"github.com/deepnoodle-ai/peek/snapshot"
	"github.com/deepnoodle-ai/peek/vm"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type user struct {
	Name   string
	visits int
}

func (u *user) String() string { return "user:" + u.Name }

func (u *user) Visit() int {
	u.visits++
	return u.visits
}

func testEnv() *Environment {
	return &Environment{
		Locals: map[string]any{
			"count": 3,
			"name":  "ada",
			"items": []int{3, 1, 2},
			"u":     &user{Name: "ada"},
		},
		Globals: map[string]any{
			"limit": 10,
		},
	}
}

func evaluate(t *testing.T, env *Environment, text string) (object.Object, error) {
	t.Helper()
	return New().Evaluate(context.Background(), env, NewExpression(text))
}

func requireKind(t *testing.T, err error, kind MutationKind) {
	t.Helper()
	require.Error(t, err)
	actual, ok := KindOf(err)
	require.True(t, ok, "not a mutation error: %v", err)
	require.Equal(t, kind, actual, err.Error())
}

func TestEvaluateReadOnly(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"'abc'.to_upper()", "ABC"},
		{"[3, 1, 2].sort()", "[1, 2, 3]"},
		{"items.sort()", "[1, 2, 3]"},
		{"items.reverse()", "[2, 1, 3]"},
		{"count + limit", "13"},
		{"name + '!'", "ada!"},
		{"u.Name", "ada"},
		{"len(items) > 2 ? 'many' : 'few'", "many"},
		{"sorted(items)[0]", "1"},
		{"math.sqrt(16)", "4"},
		{"string.from_list(['a', 'b'], '-')", "a-b"},
		{"error('bad %d', 1).message()", "bad 1"},
		{"(n => { let doubled = n * 2\n return doubled })(count)", "6"},
		{"2 in items", "true"},
		{"items[1:]", "[1, 2]"},
		{"try { count } finally { 0 }", "3"},
		{"runtime.num_cpu() > 0", "true"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := evaluate(t, testEnv(), tt.input)
			require.NoError(t, err)
			require.Equal(t, tt.expected, object.PrintableValue(result))
		})
	}
}

func TestEvaluateRejectsInstructions(t *testing.T) {
	tests := []string{
		"u.Name = 'x'",
		"limit = 1",
		"let x = 1",
		"items[0] = 9",
		"items += [4]",
		"struct T { a }",
		"items.map(i => i + 1)",
		"try { 1 } catch e { 2 }",
	}
	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			env := testEnv()
			_, err := evaluate(t, env, input)
			requireKind(t, err, ProhibitedInstruction)
			require.False(t, IsCompilationFailure(err))
			require.Equal(t, 10, env.Globals["limit"])
			require.Equal(t, "ada", env.Locals["u"].(*user).Name)
		})
	}
}

func TestEvaluateProhibitedCalls(t *testing.T) {
	items := object.NewList([]object.Object{object.NewInt(1)})
	settings := object.NewMap(map[string]object.Object{"debug": object.False})
	u := &user{Name: "ada"}
	env := &Environment{Globals: map[string]any{"items": items, "settings": settings, "u": u}}

	tests := []string{
		"items.append(2)",
		"items.extend([2])",
		"items.clear()",
		"settings.set('debug', true)",
		"settings.delete('debug')",
		"try { items.pop() } finally { 0 }",
		"u.Visit()",
		"u.String()",
		"print('hi')",
		"sleep(1)",
		"runtime.gc()",
		"[items][0].append(2)",
	}
	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			_, err := evaluate(t, env, input)
			requireKind(t, err, ProhibitedCall)
		})
	}
	require.Equal(t, int64(1), items.Len())
	require.Equal(t, object.False, settings.Get("debug"))
	require.Equal(t, 0, u.visits)
}

type lazyCounter struct {
	calls int
}

func (c *lazyCounter) String() string {
	c.calls++
	return "counter"
}

func (c *lazyCounter) Len() int {
	c.calls += 10
	return c.calls
}

func TestEvaluateGoMethods(t *testing.T) {
	counter := &lazyCounter{}
	link, err := url.Parse("https://example.com:8443/orders?id=7")
	require.NoError(t, err)
	env := &Environment{Locals: map[string]any{"c": counter, "link": link}}

	for _, input := range []string{"c.String()", "c.Len() > 0", "c.String() + str(c.Len())"} {
		_, err := evaluate(t, env, input)
		requireKind(t, err, ProhibitedCall)
	}
	require.False(t, New().EvalCondition(context.Background(), env, "c.Len() > 0"))

	// Formatting and field reads never run methods of the live value
	result, err := evaluate(t, env, "sprintf('%v', c) + str(c) + str(c.calls)")
	require.NoError(t, err)
	require.NotContains(t, object.PrintableValue(result), "counter")
	require.Equal(t, 0, counter.calls)

	result, err = evaluate(t, env, "link.Hostname() + ':' + link.Port()")
	require.NoError(t, err)
	require.Equal(t, "example.com:8443", object.PrintableValue(result))
}

func TestEvaluateGoMethodsOptIn(t *testing.T) {
	u := &user{Name: "ada"}
	typeName := object.NewProxy(u).(*object.Proxy).TypeName()
	policy := NewPolicy(append(DefaultPolicy().Describe(), PolicyEntry{
		ReceiverType: typeName,
		Kind:         vm.InstanceCall,
		Methods:      []string{"String"},
	})...)
	s := New(WithPolicy(policy))
	env := &Environment{Locals: map[string]any{"u": u}}

	result, err := s.Evaluate(context.Background(), env, NewExpression("u.String()"))
	require.NoError(t, err)
	require.Equal(t, "user:ada", object.PrintableValue(result))

	_, err = s.Evaluate(context.Background(), env, NewExpression("u.Visit()"))
	requireKind(t, err, ProhibitedCall)
	require.Equal(t, 0, u.visits)
}

func TestEvaluateInterpretedCallee(t *testing.T) {
	// A closure compiled outside the sandbox that writes an attribute.
	program, err := parser.Parse(context.Background(), "let f = o => { o.x = 1 }\nf")
	require.NoError(t, err)
	code, err := compiler.Compile(program, nil)
	require.NoError(t, err)
	setter, err := vm.Run(context.Background(), code)
	require.NoError(t, err)
	require.IsType(t, &object.Closure{}, setter)

	target := object.NewMap(nil)
	env := &Environment{Globals: map[string]any{"setter": setter, "target": target}}
	_, err = evaluate(t, env, "setter(target)")
	requireKind(t, err, ProhibitedInstruction)
	require.Contains(t, err.Error(), "STORE_ATTR")
	require.Equal(t, int64(0), target.Len())
}

func TestEvaluateUnknownCause(t *testing.T) {
	tests := []string{
		"1 / 0",
		"items[10]",
		"throw 'boom'",
		"int('x')",
		"assert(false, 'nope')",
		"'a' * 20000000000",
		"items * 9000000000000000000",
	}
	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			_, err := evaluate(t, testEnv(), input)
			requireKind(t, err, UnknownCause)
		})
	}
}

func TestEvaluateCompilationFailure(t *testing.T) {
	for _, input := range []string{"1 +", "missing_name", "items["} {
		_, err := evaluate(t, testEnv(), input)
		requireKind(t, err, ProhibitedInstruction)
		require.True(t, IsCompilationFailure(err))
		require.True(t, strings.HasPrefix(err.Error(), "Unable to compile expression: "))
	}
}

func TestEvaluateCachesProgram(t *testing.T) {
	env := testEnv()
	expr := NewExpression("count * 2")
	s := New()
	_, err := s.Evaluate(context.Background(), env, expr)
	require.NoError(t, err)
	program := expr.program
	require.NotNil(t, program)

	result, err := s.Evaluate(context.Background(), env, expr)
	require.NoError(t, err)
	require.Equal(t, object.NewInt(6), result)
	require.Same(t, program, expr.program)

	_, err = s.Evaluate(context.Background(), testEnv(), expr)
	require.NoError(t, err)
	require.NotSame(t, program, expr.program)
}

func TestEvaluateNilEnvironment(t *testing.T) {
	result, err := New().Evaluate(context.Background(), nil, NewExpression("1 + 1"))
	require.NoError(t, err)
	require.Equal(t, object.NewInt(2), result)
}

func TestEvaluateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Evaluate(ctx, testEnv(), NewExpression("count"))
	require.Error(t, err)
	_, ok := KindOf(err)
	require.True(t, ok)
}

func TestEvaluateCancelledDoesNotCacheFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	env := testEnv()
	expr := NewExpression("count + 1")
	s := New()

	_, err := s.Evaluate(ctx, env, expr)
	require.Error(t, err)
	require.False(t, IsCompilationFailure(err))

	result, err := s.Evaluate(context.Background(), env, expr)
	require.NoError(t, err)
	require.Equal(t, object.NewInt(4), result)
}

func TestEvaluateCustomPolicy(t *testing.T) {
	policy := NewPolicy(PolicyEntry{ReceiverType: "int", AllMethods: true})
	s := New(WithPolicy(policy), WithBuiltins(builtins.Functions()))
	require.Same(t, policy, s.Policy())

	result, err := s.Evaluate(context.Background(), nil, NewExpression("1 + 2"))
	require.NoError(t, err)
	require.Equal(t, object.NewInt(3), result)

	_, err = s.Evaluate(context.Background(), nil, NewExpression("len('ab')"))
	requireKind(t, err, ProhibitedCall)

	_, err = s.Evaluate(context.Background(), nil, NewExpression("math.pi"))
	require.True(t, IsCompilationFailure(err))
}

func TestEvalCondition(t *testing.T) {
	s := New()
	tests := []struct {
		input    string
		expected bool
	}{
		{"count > 1", true},
		{"count > 100", false},
		{"name == 'ada'", true},
		{"", false},
		{"   ", false},
		{"nil", false},
		{"[]", false},
		{"items", true},
		{"1 +", false},
		{"let x = true", false},
		{"items.append(1) || true", false},
		{"1 / 0 == 1", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			require.Equal(t, tt.expected, s.EvalCondition(context.Background(), testEnv(), tt.input))
		})
	}
}

func TestEvalConditionLargeUnsigned(t *testing.T) {
	s := New()
	env := &Environment{Locals: map[string]any{
		"big":  uint64(math.MaxUint64),
		"half": uint64(1 << 63),
	}}
	require.True(t, s.EvalCondition(context.Background(), env, "big > 0"))
	require.True(t, s.EvalCondition(context.Background(), env, "big > half"))
	require.True(t, s.EvalCondition(context.Background(), env, "half > 9000000000000000000"))

	variables := s.EvalExpressions(context.Background(), env, []string{"big"})
	require.Equal(t, "1.8446744073709552e+19", variables[0].Value)
}

func TestEvalExpressions(t *testing.T) {
	s := New()
	variables := s.EvalExpressions(context.Background(), testEnv(),
		[]string{"count", "1 / 0", "name.to_upper()", "count"})
	require.Len(t, variables, 4)

	require.Equal(t, snapshot.Variable{Name: "count", Type: "int", Value: "3"}, variables[0])
	require.Equal(t, variables[0], variables[3])

	require.Equal(t, "1 / 0", variables[1].Name)
	require.True(t, strings.HasPrefix(variables[1].Value, "Unable to evaluate expression: "))
	require.True(t, variables[1].Status.IsError)

	require.Equal(t, "ADA", variables[2].Value)
}

func TestEvalExpressionsLogsFailures(t *testing.T) {
	var buf strings.Builder
	logger := zerolog.New(&buf)
	s := New(WithLogger(logger))
	s.EvalExpressions(context.Background(), testEnv(), []string{"items.append(1)", "count"})
	output := buf.String()
	require.Contains(t, output, `"state":"aborted"`)
	require.Contains(t, output, `"failed":1`)
	require.Contains(t, output, `"eval_id"`)
}

func TestEvaluateLogsErrorDetail(t *testing.T) {
	var buf strings.Builder
	s := New(WithLogger(zerolog.New(&buf).Level(zerolog.DebugLevel)))
	_, err := s.Evaluate(context.Background(), testEnv(), NewExpression("count\ncount / 0"))
	requireKind(t, err, UnknownCause)
	output := buf.String()
	require.Contains(t, output, `"kind":"unknown cause"`)
	require.Contains(t, output, `"detail":`)
	require.Contains(t, output, ` | count / 0`)
}

func TestEnvironmentFromFrame(t *testing.T) {
	frame := &snapshot.StaticFrame{FunctionName: "main", Vars: map[string]any{"x": 2}}
	env := EnvironmentFromFrame(frame, map[string]any{"y": 3})
	result, err := New().Evaluate(context.Background(), env, NewExpression("x * y"))
	require.NoError(t, err)
	require.Equal(t, object.NewInt(6), result)
}

func TestConcurrentEvaluations(t *testing.T) {
	s := New()
	var g errgroup.Group
	for i := 0; i < 16; i++ {
		i := i
		g.Go(func() error {
			env := &Environment{Locals: map[string]any{"n": i}}
			result, err := s.Evaluate(context.Background(), env, NewExpression("n * n"))
			if err != nil {
				return err
			}
			if result.(*object.Int).Value() != int64(i*i) {
				return fmt.Errorf("unexpected result %s for %d", result.Inspect(), i)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}

func TestCheck(t *testing.T) {
	s := New()
	verdict, err := s.Check(context.Background(), testEnv(), NewExpression("count + 1"))
	require.NoError(t, err)
	require.True(t, verdict.Allowed())
	require.NotNil(t, verdict.Program)

	verdict, err = s.Check(context.Background(), testEnv(), NewExpression("items[0] = 1"))
	requireKind(t, err, ProhibitedInstruction)
	require.Equal(t, RuleWriteInstruction, verdict.Rule)

	verdict, err = s.Check(context.Background(), nil, NewExpression("1 +"))
	require.True(t, IsCompilationFailure(err))
	require.Equal(t, RuleCompilation, verdict.Rule)
	require.Nil(t, verdict.Program)
}
