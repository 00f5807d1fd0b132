package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/phyten/commentx/internal/config"
	engineopts "github.com/phyten/commentx/internal/engine/opts"
	"github.com/phyten/commentx/internal/extract"
	"github.com/phyten/commentx/internal/web"
)

const shutdownTimeout = 5 * time.Second

type serveFlags struct {
	engine  engineFlags
	host    string
	port    int
	root    string
	open    bool
	maxBody int64
	remote  bool
}

func newServeCmd(a *app) *cobra.Command {
	f := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web UI and JSON API",
		Long: `Serve a small web UI plus a JSON API:

  GET  /api/extract?target=src&lang=go   batch over targets under --root
  GET  /api/extract/stream?target=src    same, with progress as server-sent events
  POST /api/extract?name=a.py            the request body is the source text
  GET  /api/languages                    supported languages and extensions

Targets must stay under --root; file:// URIs are refused and http(s)
targets need --allow-remote. Extraction flags set the defaults that query
parameters override.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runServe(cmd, f)
		},
	}
	f.engine.register(cmd)
	fl := cmd.Flags()
	fl.StringVar(&f.host, "host", "127.0.0.1", "listen address")
	fl.IntVarP(&f.port, "port", "p", 8080, "port (0 picks a free one)")
	fl.StringVar(&f.root, "root", ".", "directory that relative targets resolve against")
	fl.BoolVar(&f.open, "open", false, "open the UI in a browser")
	fl.Int64Var(&f.maxBody, "max-body-bytes", web.DefaultMaxBodyBytes, "limit for POST bodies")
	fl.BoolVar(&f.remote, "allow-remote", false, "let requests fetch http(s) targets from the server")
	return cmd
}

func (a *app) runServe(cmd *cobra.Command, f *serveFlags) error {
	logger := a.logger(cmd)
	var layer config.EngineConfig
	f.engine.layer(cmd, &layer)

	base := engineopts.Defaults()
	settings, classifier, err := a.loadSettings(base, layer, logger)
	if err != nil {
		return err
	}
	opts := base
	settings.ApplyToOptions(&opts)
	if err := engineopts.NormalizeAndValidate(&opts); err != nil {
		return err
	}

	root, err := filepath.Abs(f.root)
	if err != nil {
		return err
	}
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("--root %s is not a directory", root)
	}

	mux := http.NewServeMux()
	api := &web.API{
		Extractor:    extract.New(extract.WithLogger(logger), extract.WithClassifier(classifier)),
		Defaults:     opts,
		Root:         root,
		MaxBodyBytes: f.maxBody,
		AllowRemote:  f.remote,
		Logger:       logger,
	}
	api.Register(mux)

	ln, err := net.Listen("tcp", net.JoinHostPort(f.host, strconv.Itoa(f.port)))
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	url := "http://" + ln.Addr().String() + "/"
	log.Printf("commentx serve listening on %s (root=%s)", url, root)
	if f.open && a.openBrowser != nil {
		if err := a.openBrowser(url); err != nil {
			log.Printf("could not open browser: %v", err)
		}
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-cmd.Context().Done():
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
