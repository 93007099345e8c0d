package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/deepnoodle-ai/peek"
	"github.com/deepnoodle-ai/peek/sandbox"
	"github.com/deepnoodle-ai/peek/snapshot"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// loadConfig merges flags, PEEK_* environment variables and the config
// file, in that order of precedence.
func (a *app) loadConfig(cmd *cobra.Command) error {
	v := a.v
	v.SetEnvPrefix("peek")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if cfgFile := v.GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("peek")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	if a.v.GetBool("no-color") || !isTerminal(cmd.OutOrStdout()) {
		color.NoColor = true
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (a *app) logger(cmd *cobra.Command) zerolog.Logger {
	level := zerolog.InfoLevel
	if a.v.GetBool("verbose") {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        cmd.ErrOrStderr(),
		NoColor:    color.NoColor,
		TimeFormat: "15:04:05",
	}).Level(level).With().Timestamp().Logger()
}

func (a *app) limits() snapshot.Limits {
	return snapshot.Limits{
		MaxStringLength: a.v.GetInt("max-string-length"),
		MaxDepth:        a.v.GetInt("max-depth"),
		MaxMembers:      a.v.GetInt("max-members"),
	}
}

func (a *app) evaluator(cmd *cobra.Command) *peek.Evaluator {
	return peek.New(
		peek.WithLogger(a.logger(cmd)),
		peek.WithLocalsDepth(a.v.GetInt("locals-depth")),
		peek.WithLimits(a.limits()),
	)
}

// snapshotFile is the on-disk form of a breakpoint hit's program state.
// JSON files are read as YAML.
type snapshotFile struct {
	Globals map[string]any          `yaml:"globals"`
	Frames  []*snapshot.StaticFrame `yaml:"frames"`
}

func (s *snapshotFile) frames() []snapshot.Frame {
	frames := make([]snapshot.Frame, 0, len(s.Frames))
	for _, f := range s.Frames {
		frames = append(frames, f)
	}
	return frames
}

// environment returns the evaluation environment of the nearest frame.
func (s *snapshotFile) environment() *sandbox.Environment {
	if len(s.Frames) == 0 {
		return &sandbox.Environment{Globals: s.Globals}
	}
	return sandbox.EnvironmentFromFrame(s.Frames[0], s.Globals)
}

func (a *app) loadSnapshot() (*snapshotFile, error) {
	path := a.v.GetString("snapshot")
	if path == "" {
		return &snapshotFile{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap snapshotFile
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", path, err)
	}
	return &snap, nil
}
