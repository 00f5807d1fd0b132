package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/phyten/commentx/internal/termcolor"
)

// version is set via build-time ldflags
var version = "dev"

// commit is set via build-time ldflags
var commit = "unknown"

// buildDate is set via build-time ldflags
var buildDate = "unknown"

// app はコマンド間で共有する実行環境。テストでは environ / stdin / openBrowser を差し替える。
type app struct {
	environ     func() []string
	stdin       io.Reader
	openBrowser func(url string) error

	configPath string
	verbose    bool
}

func newApp() *app {
	return &app{
		environ:     os.Environ,
		stdin:       os.Stdin,
		openBrowser: browser.OpenURL,
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "commentx",
		Short: "Extract comments from source files in many languages",
		Long: `commentx lists every comment in source files, with its position,
kind (line or block) and language. Targets may be files, directories
or http(s) URLs; "-" reads one resource from stdin.

Settings are layered: config file, then COMMENTX_* environment
variables, then command-line flags.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetVersionTemplate(`{{printf "%s version %s" .Name .Version}}` + "\n")

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default: search .commentx.{yaml,toml,json} upward, then XDG and home)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging to stderr")

	root.AddCommand(newExtractCmd(a))
	root.AddCommand(newServeCmd(a))
	root.AddCommand(newLangsCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "commentx %s\nCommit: %s\nBuild date: %s\n", version, commit, buildDate)
			return err
		},
	}
}

func (a *app) env() map[string]string {
	if a.environ == nil {
		return map[string]string{}
	}
	return termcolor.EnvMap(a.environ())
}

func (a *app) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}
