package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/deepnoodle-ai/peek/snapshot"
	"github.com/fatih/color"
	"github.com/hokaccha/go-prettyjson"
	"github.com/spf13/cobra"
)

var (
	red    = color.New(color.FgRed).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	faint  = color.New(color.Faint).SprintFunc()
)

// render writes value as JSON when the output format is "json", and
// otherwise calls text.
func (a *app) render(cmd *cobra.Command, value any, text func(w io.Writer)) error {
	out := cmd.OutOrStdout()
	switch strings.ToLower(a.v.GetString("output")) {
	case "json":
		data, err := marshalJSON(value)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	case "", "text":
		text(out)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", a.v.GetString("output"))
	}
}

func marshalJSON(value any) ([]byte, error) {
	if color.NoColor {
		return json.MarshalIndent(value, "", "  ")
	}
	return prettyjson.Marshal(value)
}

func printVariables(w io.Writer, variables []snapshot.Variable) {
	for _, v := range variables {
		printVariable(w, v, "")
	}
}

func printVariable(w io.Writer, v snapshot.Variable, indent string) {
	if v.Status != nil && v.Status.IsError {
		fmt.Fprintf(w, "%s%s = %s\n", indent, cyan(v.Name), red(v.Value))
		return
	}
	line := fmt.Sprintf("%s%s = %s", indent, cyan(v.Name), v.Value)
	if v.Type != "" {
		line += " " + faint("("+v.Type+")")
	}
	if v.Status != nil {
		line += " " + yellow("["+v.Status.Description+"]")
	}
	fmt.Fprintln(w, line)
	for _, member := range v.Members {
		printVariable(w, member, indent+"  ")
	}
}

func printStack(w io.Writer, stack []snapshot.StackFrame) {
	for i, frame := range stack {
		fmt.Fprintf(w, "#%d %s %s\n", i, green(frame.Function), faint(frame.Location.String()))
		for _, local := range frame.Locals {
			printVariable(w, local, "    ")
		}
	}
}
