package vm

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/deepnoodle-ai/peek/object"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	events []CallEvent
}

func (r *recorder) OnCall(ctx context.Context, event CallEvent) error {
	r.events = append(r.events, event)
	return nil
}

func (r *recorder) calls() []string {
	var result []string
	for _, e := range r.events {
		result = append(result, fmt.Sprintf("%s %s.%s", e.Kind, e.ReceiverType, e.Method))
	}
	return result
}

func TestCallKindString(t *testing.T) {
	require.Equal(t, "instance", InstanceCall.String())
	require.Equal(t, "class", ClassCall.String())
	require.Equal(t, "unknown", CallKind(9).String())

	text, err := ClassCall.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "class", string(text))
}

func TestInterceptorSeesEveryCall(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"1 + 2", []string{"instance int.+"}},
		{"'a' == 'b'", []string{"instance string.=="}},
		{"-x", []string{"instance int.-@"}},
		{"len('abc')", []string{"instance kernel.len"}},
		{"'abc'.to_upper()", []string{"instance string.to_upper"}},
		{"math.sqrt(4)", []string{"class math.sqrt"}},
		{"string.from_list(['a'])", []string{"class string.from_list"}},
		{"error('x')", []string{"class error.new"}},
		{"[1, 2][0]", []string{"instance list.[]"}},
		{"[1, 2][0:1]", []string{"instance list.[:]"}},
		{"2 in [1, 2]", []string{"instance list.contains"}},
		{"(y => y)(1)", []string{"instance function.call"}},
		{"[1, 2].map(y => y + 1)", []string{
			"instance list.map",
			"instance function.call",
			"instance int.+",
			"instance function.call",
			"instance int.+",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			rec := &recorder{}
			_, err := run(t, tt.input, runOpts{
				Locals:      map[string]any{"x": 3},
				Interceptor: rec,
			})
			require.NoError(t, err)
			require.Equal(t, tt.expected, rec.calls())
		})
	}
}

func TestInterceptorEventDetails(t *testing.T) {
	rec := &recorder{}
	_, err := run(t, "let f = n => n\nitems.index(f(2))", runOpts{
		Locals:      map[string]any{"items": []int{1, 2, 3}},
		Interceptor: rec,
	})
	require.NoError(t, err)
	require.Len(t, rec.events, 2)

	closureCall := rec.events[0]
	require.NotNil(t, closureCall.Function)
	require.Equal(t, []object.Object{object.NewInt(2)}, closureCall.Args)

	methodCall := rec.events[1]
	require.Nil(t, methodCall.Function)
	require.Equal(t, InstanceCall, methodCall.Kind)
	require.Equal(t, "index", methodCall.Method)
	require.Equal(t, object.LIST, methodCall.Receiver.Type())
	require.Equal(t, 2, methodCall.Location.Line)
	require.Equal(t, 1, methodCall.FrameDepth)
}

func TestInterceptorGoMethodReceiver(t *testing.T) {
	rec := &recorder{}
	link := &url.URL{Scheme: "https", Host: "example.com"}
	_, err := run(t, "link.Hostname()\nlink == link", runOpts{
		Locals:      map[string]any{"link": link},
		Interceptor: rec,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"instance *net/url.URL.Hostname", "instance proxy.=="}, rec.calls())
}

func TestInterceptorInsideFunction(t *testing.T) {
	rec := &recorder{}
	_, err := run(t, "let f = () => len('ab')\nf()", runOpts{Interceptor: rec})
	require.NoError(t, err)
	require.Equal(t, []string{"instance function.call", "instance kernel.len"}, rec.calls())
	require.Equal(t, 2, rec.events[1].FrameDepth)
}

func TestInterceptorStopsCall(t *testing.T) {
	errDenied := errors.New("denied")
	interceptor := CallInterceptorFunc(func(ctx context.Context, event CallEvent) error {
		if event.Method == "append" {
			return errDenied
		}
		return nil
	})
	items := object.NewList(nil)
	_, err := run(t, "items.append(1)", runOpts{
		Globals:     map[string]any{"items": items},
		Interceptor: interceptor,
	})
	require.Error(t, err)
	require.ErrorIs(t, err, errDenied)
	require.Equal(t, int64(0), items.Len())
}

func TestInterceptorStopsOperator(t *testing.T) {
	interceptor := CallInterceptorFunc(func(ctx context.Context, event CallEvent) error {
		if event.Method == "+" {
			return fatalError{}
		}
		return nil
	})
	_, err := run(t, "try { 1 + 1 } catch e { 0 }", runOpts{Interceptor: interceptor})
	require.ErrorIs(t, err, fatalError{})
}
