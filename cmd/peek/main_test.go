package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/deepnoodle-ai/peek/snapshot"
	"github.com/stretchr/testify/require"
)

const testSnapshot = `
globals:
  limit: 10
frames:
  - function: main.handle
    location: {path: server.go, line: 42}
    locals:
      name: alice
      count: 3
      items: [1, 2, 3]
  - function: main.main
    location: {path: main.go, line: 10}
    locals:
      port: 8080
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--no-color"}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestEval(t *testing.T) {
	snap := writeFile(t, "snapshot.yaml", testSnapshot)
	out, _, err := run(t, "eval", "-s", snap, "count + 1", "name.to_upper()", "len(items)", "items.append(4)")
	require.NoError(t, err)
	require.Contains(t, out, "count + 1 = 4 (int)")
	require.Contains(t, out, "name.to_upper() = ALICE (string)")
	require.Contains(t, out, "len(items) = 3 (int)")
	require.Contains(t, out, "items.append(4) = Unable to evaluate expression: ")
}

func TestEvalJSON(t *testing.T) {
	snap := writeFile(t, "snapshot.yaml", testSnapshot)
	out, _, err := run(t, "eval", "-s", snap, "-o", "json", "items", "limit")
	require.NoError(t, err)

	var variables []snapshot.Variable
	require.NoError(t, json.Unmarshal([]byte(out), &variables))
	require.Len(t, variables, 2)
	require.Equal(t, "items", variables[0].Name)
	require.Len(t, variables[0].Members, 3)
	require.Equal(t, "[0]", variables[0].Members[0].Name)
	require.Equal(t, "10", variables[1].Value)
}

func TestCond(t *testing.T) {
	snap := writeFile(t, "snapshot.yaml", testSnapshot)
	tests := []struct {
		condition string
		want      string
	}{
		{"count == 3", "true"},
		{"count > limit", "false"},
		{"limit = 1", "false"},
		{"items.clear()", "false"},
	}
	for _, tt := range tests {
		t.Run(tt.condition, func(t *testing.T) {
			out, _, err := run(t, "cond", "-s", snap, tt.condition)
			require.NoError(t, err)
			require.Equal(t, tt.want+"\n", out)
		})
	}
}

func TestHit(t *testing.T) {
	snap := writeFile(t, "snapshot.yaml", testSnapshot)
	out, _, err := run(t, "hit", "-s", snap, "-c", "count > 1", "-e", "name", "-e", "limit * 2")
	require.NoError(t, err)
	require.Contains(t, out, "#0 main.handle server.go:42")
	require.Contains(t, out, "#1 main.main main.go:10")
	require.Contains(t, out, "    name = alice (string)")
	require.Contains(t, out, "    port = 8080 (int)")
	require.Contains(t, out, "limit * 2 = 20 (int)")
}

func TestHitConditionNotMet(t *testing.T) {
	snap := writeFile(t, "snapshot.yaml", testSnapshot)
	out, _, err := run(t, "hit", "-s", snap, "-c", "count > 100")
	require.NoError(t, err)
	require.Equal(t, "condition not met\n", out)
}

func TestLog(t *testing.T) {
	snap := writeFile(t, "snapshot.yaml", testSnapshot)
	out, stderr, err := run(t, "log", "-s", snap, "--level", "warning",
		"user $0 has $1 items costing $$5", "name", "len(items)")
	require.NoError(t, err)
	require.Equal(t, "user alice has 3 items costing $5\n", out)
	require.Contains(t, stderr, "WRN")
	require.Contains(t, stderr, "LOGPOINT: user alice has 3 items costing $5")
}

func TestDis(t *testing.T) {
	snap := writeFile(t, "snapshot.yaml", testSnapshot)

	out, _, err := run(t, "dis", "-s", snap, "count + 1")
	require.NoError(t, err)
	require.Contains(t, out, "allowed")
	require.Contains(t, out, " instructions, 1 constants, 0 functions, ")
	require.Contains(t, out, "OFFSET")
	require.Contains(t, out, "BINARY_OP")

	out, _, err = run(t, "dis", "-s", snap, "limit = 5")
	require.NoError(t, err)
	require.Contains(t, out, "rejected write-instruction")
	require.Contains(t, out, "STORE_GLOBAL")

	_, _, err = run(t, "dis", "-s", snap, "count +")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Unable to compile expression")
}

func TestDisJSON(t *testing.T) {
	out, _, err := run(t, "dis", "-o", "json", "1 + 2")
	require.NoError(t, err)

	var result struct {
		Allowed bool `json:"allowed"`
		Stats   struct {
			Functions int `json:"functions"`
		} `json:"stats"`
		Listings []struct {
			Name string `json:"name"`
		} `json:"listings"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.True(t, result.Allowed)
	require.Zero(t, result.Stats.Functions)
	require.Len(t, result.Listings, 1)
}

func TestPolicy(t *testing.T) {
	out, _, err := run(t, "policy")
	require.NoError(t, err)
	require.Contains(t, out, "RECEIVER")
	require.Contains(t, out, "to_upper")
	require.NotContains(t, out, "append")

	out, _, err = run(t, "policy", "-o", "json")
	require.NoError(t, err)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	kinds := map[any]bool{}
	for _, entry := range entries {
		kinds[entry["kind"]] = true
	}
	require.True(t, kinds["class"])
	require.True(t, kinds["instance"])
}

func TestConfigFile(t *testing.T) {
	snap := writeFile(t, "snapshot.yaml", testSnapshot)
	cfg := writeFile(t, "peek.yaml", "output: json\nmax-string-length: 3\n")
	out, _, err := run(t, "eval", "--config", cfg, "-s", snap, "name")
	require.NoError(t, err)

	var variables []snapshot.Variable
	require.NoError(t, json.Unmarshal([]byte(out), &variables))
	require.Equal(t, "ali...", variables[0].Value)
	require.NotNil(t, variables[0].Status)
}

func TestEnvironmentConfig(t *testing.T) {
	t.Setenv("PEEK_OUTPUT", "json")
	out, _, err := run(t, "cond", "1 < 2")
	require.NoError(t, err)
	require.JSONEq(t, `{"condition": "1 < 2", "result": true}`, out)
}

func TestErrors(t *testing.T) {
	_, _, err := run(t, "eval", "-s", filepath.Join(t.TempDir(), "missing.yaml"), "1")
	require.Error(t, err)

	bad := writeFile(t, "bad.yaml", "frames: [1, 2")
	_, _, err = run(t, "eval", "-s", bad, "1")
	require.ErrorContains(t, err, "parsing snapshot")

	_, _, err = run(t, "eval", "-o", "xml", "1")
	require.ErrorContains(t, err, "unknown output format: xml")
}
