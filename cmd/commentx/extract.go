package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phyten/commentx/internal/config"
	"github.com/phyten/commentx/internal/engine"
	engineopts "github.com/phyten/commentx/internal/engine/opts"
	"github.com/phyten/commentx/internal/extract"
	"github.com/phyten/commentx/internal/output"
	"github.com/phyten/commentx/internal/progress"
	"github.com/phyten/commentx/internal/termcolor"
)

const (
	stdinTarget   = "-"
	defaultDBPath = "commentx.db"
	stdinName     = "stdin"
)

type extractFlags struct {
	engine     engineFlags
	output     string
	fields     string
	truncate   int
	color      string
	db         string
	name       string
	progress   bool
	noProgress bool
}

func newExtractCmd(a *app) *cobra.Command {
	f := &extractFlags{}
	cmd := &cobra.Command{
		Use:   "extract [targets...]",
		Short: "Extract comments from files, directories, URLs or stdin",
		Long: `Extract comments from every target (default ".").

Directories are walked recursively (honoring .gitignore unless
--no-gitignore); --git lists them with git ls-files instead. Files
that fail to read or decode are reported on stderr and skipped.

Examples:
  commentx extract
  commentx extract src --include '**/*.go' -o json
  curl -s https://example.com/a.js | commentx extract - --name a.js
  commentx extract . -o sqlite --db comments.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExtract(cmd, args, f)
		},
	}
	f.engine.register(cmd)
	fl := cmd.Flags()
	fl.StringVarP(&f.output, "output", "o", "table", "table|tsv|json|ndjson|csv|markdown|sqlite")
	fl.StringVarP(&f.fields, "fields", "f", "", "comma-separated columns: "+strings.Join(output.FieldKeys(), ",")+" (default "+output.DefaultFields+")")
	fl.IntVar(&f.truncate, "truncate", 0, "truncate the comment column to N cells in table output (0=unlimited)")
	fl.StringVar(&f.color, "color", "auto", "auto|always|never")
	fl.StringVar(&f.db, "db", defaultDBPath, "database file for --output sqlite")
	fl.StringVar(&f.name, "name", "", "resource name for stdin (drives language detection)")
	fl.BoolVar(&f.progress, "progress", false, "force progress even when piped")
	fl.BoolVar(&f.noProgress, "no-progress", false, "disable progress/ETA")
	return cmd
}

func (f *extractFlags) layer(cmd *cobra.Command) config.EngineConfig {
	var c config.EngineConfig
	f.engine.layer(cmd, &c)
	changed := cmd.Flags().Changed
	if changed("output") {
		c.Output = &f.output
	}
	if changed("fields") {
		c.Fields = &f.fields
	}
	if changed("truncate") {
		c.Truncate = &f.truncate
	}
	if changed("color") {
		c.Color = &f.color
	}
	return c
}

func (a *app) runExtract(cmd *cobra.Command, args []string, f *extractFlags) error {
	ctx := cmd.Context()
	logger := a.logger(cmd)

	base := engineopts.Defaults(args...)
	settings, classifier, err := a.loadSettings(base, f.layer(cmd), logger)
	if err != nil {
		return err
	}
	opts := base
	settings.ApplyToOptions(&opts)
	if err := engineopts.NormalizeAndValidate(&opts); err != nil {
		return err
	}
	sel, err := output.ResolveFields(settings.Fields)
	if err != nil {
		return err
	}
	stdin, err := readsStdin(opts.Targets)
	if err != nil {
		return err
	}

	x := extract.New(extract.WithLogger(logger), extract.WithClassifier(classifier))
	var res *engine.Result
	if stdin {
		name := strings.TrimSpace(f.name)
		if name == "" {
			name = stdinName
		}
		res, err = engine.RunReader(ctx, x, opts, a.stdin, name)
	} else {
		var shown, logged progress.Observer
		if progress.ShouldShowProgress(f.progress, f.noProgress) {
			shown = progress.NewAutoObserver(cmd.ErrOrStderr())
		}
		if a.verbose {
			logged = progress.ObserverFunc(func(s progress.Snapshot) {
				logger.Debug("progress", "stage", s.Stage, "done", s.Done, "total", s.Total, "comments", s.Comments, "failed", s.Failed)
			})
		}
		opts.Progress = shown != nil || logged != nil
		opts.ProgressObserver = progress.NewMultiObserver(shown, logged)
		res, err = engine.Run(ctx, x, opts)
	}
	if err != nil {
		return err
	}
	logger.Debug("extract finished", "files", res.Files, "comments", res.Total, "errors", res.ErrorCount, "elapsed_ms", res.ElapsedMS)

	if err := a.writeResult(ctx, cmd, res, settings, sel, f.db); err != nil {
		return err
	}
	reportErrors(cmd.ErrOrStderr(), res)
	return nil
}

func readsStdin(targets []string) (bool, error) {
	for _, t := range targets {
		if t == stdinTarget {
			if len(targets) > 1 {
				return false, errors.New(`stdin target "-" cannot be combined with other targets`)
			}
			return true, nil
		}
	}
	return false, nil
}

func (a *app) writeResult(ctx context.Context, cmd *cobra.Command, res *engine.Result, settings config.EngineSettings, sel output.FieldSelection, db string) error {
	w := cmd.OutOrStdout()
	switch settings.Output {
	case "json":
		return output.WriteJSON(w, res)
	case "ndjson":
		return output.WriteNDJSON(w, res.Items)
	case "csv":
		return output.WriteCSV(w, res.Items, sel)
	case "tsv":
		return output.WriteTSV(w, res.Items, sel)
	case "markdown":
		return output.WriteMarkdownTable(w, res.Items, sel)
	case "sqlite":
		if err := output.WriteSQLite(ctx, db, res.Items); err != nil {
			return err
		}
		_, err := fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d comments to %s\n", res.Total, db)
		return err
	default:
		stdout, _ := w.(*os.File)
		color, err := termcolor.Resolve(settings.Color, stdout, a.env())
		if err != nil {
			return err
		}
		if err := output.WriteTable(w, res.Items, sel, output.TableOptions{Truncate: settings.Truncate, Color: color}); err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.ErrOrStderr(), output.Summary(res))
		return err
	}
}

// reportErrors はファイル単位の失敗を標準エラーにまとめて出力する。
func reportErrors(w io.Writer, res *engine.Result) {
	if res == nil || res.ErrorCount == 0 {
		return
	}
	_, _ = fmt.Fprintf(w, "commentx: %d error(s)\n", res.ErrorCount)
	for _, e := range res.Errors {
		file := e.File
		if file == "" {
			file = "(unknown location)"
		}
		stage := e.Stage
		if stage == "" {
			stage = "unknown"
		}
		_, _ = fmt.Fprintf(w, "  %s [%s] %s\n", file, stage, e.Message)
	}
}
