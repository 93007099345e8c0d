package peek

import (
	"bytes"
	"context"
	"testing"

	"github.com/deepnoodle-ai/peek/snapshot"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type order struct {
	ID    string
	Items []string
	Total float64
}

func testFrames() []snapshot.Frame {
	return []snapshot.Frame{
		&snapshot.StaticFrame{
			FunctionName: "checkout",
			Loc:          snapshot.Location{Path: "shop/checkout.go", Line: 42},
			Vars: map[string]any{
				"order":   &order{ID: "A-1", Items: []string{"pen", "ink"}, Total: 12.5},
				"retries": 4,
			},
		},
		&snapshot.StaticFrame{
			FunctionName: "main",
			Loc:          snapshot.Location{Path: "main.go", Line: 9},
			Vars:         map[string]any{"debug": true},
		},
	}
}

func TestHandleHitConditionFalse(t *testing.T) {
	result := New().HandleHit(context.Background(), Hit{
		Frames:      testFrames(),
		Condition:   "retries > 10",
		Expressions: []string{"order.ID"},
	})
	require.Equal(t, Result{}, result)
}

func TestHandleHitRejectedCondition(t *testing.T) {
	result := New().HandleHit(context.Background(), Hit{
		Frames:    testFrames(),
		Condition: "order.Items.append('x') || true",
	})
	require.False(t, result.Triggered)
}

func TestHandleHitSnapshot(t *testing.T) {
	result := New(WithLocalsDepth(1)).HandleHit(context.Background(), Hit{
		Frames:      testFrames(),
		Globals:     map[string]any{"version": "1.2"},
		Condition:   "retries > 3",
		Expressions: []string{"order.ID", "len(order.Items)", "order.Items.append('x')", "version"},
	})
	require.True(t, result.Triggered)

	require.Len(t, result.Stack, 2)
	require.Equal(t, "checkout", result.Stack[0].Function)
	require.Len(t, result.Stack[0].Locals, 2)
	require.Equal(t, "main", result.Stack[1].Function)
	require.Empty(t, result.Stack[1].Locals)

	require.Len(t, result.Expressions, 4)
	require.Equal(t, "A-1", result.Expressions[0].Value)
	require.Equal(t, "2", result.Expressions[1].Value)
	require.True(t, result.Expressions[2].Status.IsError)
	require.Equal(t, "1.2", result.Expressions[3].Value)
	require.Empty(t, result.LogMessage)
}

func TestHandleHitLogpoint(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.InfoLevel)
	result := New(WithLogger(logger)).HandleHit(context.Background(), Hit{
		Frames:      testFrames(),
		Expressions: []string{"order.ID", "order.Total"},
		LogMessage:  "order $0 costs $$$1",
		LogLevel:    "warning",
	})
	require.True(t, result.Triggered)
	require.Equal(t, "order A-1 costs $$1", result.LogMessage)
	require.Nil(t, result.Stack)
	require.Contains(t, buf.String(), `"level":"warn"`)
	require.Contains(t, buf.String(), `LOGPOINT: order A-1 costs $$1`)
}

func TestHandleHitLogpointDollar(t *testing.T) {
	var buf bytes.Buffer
	result := New(WithLogger(zerolog.New(&buf))).HandleHit(context.Background(), Hit{
		Frames:      testFrames(),
		Expressions: []string{"order.Total"},
		LogMessage:  "total: $$ $0",
	})
	require.Equal(t, "total: $ 12.5", result.LogMessage)
	require.Contains(t, buf.String(), `"level":"info"`)
}

func TestHandleHitNoFrames(t *testing.T) {
	result := New().HandleHit(context.Background(), Hit{
		Globals:     map[string]any{"limit": 3},
		Expressions: []string{"limit * 2"},
	})
	require.True(t, result.Triggered)
	require.Empty(t, result.Stack)
	require.Equal(t, "6", result.Expressions[0].Value)
}

func TestHandleHits(t *testing.T) {
	hits := []Hit{
		{Frames: testFrames(), Condition: "retries > 3", Expressions: []string{"retries"}},
		{Frames: testFrames(), Condition: "retries > 30"},
		{Frames: testFrames(), Expressions: []string{"order.Total * 2"}},
	}
	results, err := New().HandleHits(context.Background(), hits)
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.True(t, results[0].Triggered)
	require.Equal(t, "4", results[0].Expressions[0].Value)
	require.False(t, results[1].Triggered)
	require.Equal(t, "25", results[2].Expressions[0].Value)
}

func TestHandleHitsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().HandleHits(ctx, []Hit{{Frames: testFrames()}})
	require.ErrorIs(t, err, context.Canceled)
}

func TestLogLevel(t *testing.T) {
	require.Equal(t, zerolog.InfoLevel, logLevel(""))
	require.Equal(t, zerolog.InfoLevel, logLevel("INFO"))
	require.Equal(t, zerolog.WarnLevel, logLevel("WARNING"))
	require.Equal(t, zerolog.ErrorLevel, logLevel("error"))
}
