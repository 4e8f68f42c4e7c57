package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"modelfan/internal/config"
	"modelfan/internal/kvstore"
	"modelfan/internal/orchestrator"
	providerfactory "modelfan/internal/provider/factory"
	"modelfan/internal/router"
	"modelfan/internal/server"
)

const serveUsage = `Usage:
  modelfan serve --config <path> [--port <port>]

Flags:
  --config string   Path to YAML configuration file (required)
  --port   int      Override server port from configuration`

func serve(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, serveUsage)
	}

	var cfgPath string
	var overridePort int
	fs.StringVar(&cfgPath, "config", "", "path to configuration file")
	fs.IntVar(&overridePort, "port", 0, "override server port")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("parse serve flags: %w", err)
	}

	if cfgPath == "" {
		return errors.New("serve command requires --config <path>")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	if overridePort != 0 {
		if overridePort <= 0 || overridePort > 65535 {
			return fmt.Errorf("port override %d must be a valid TCP port", overridePort)
		}
		cfg.Server.Port = overridePort
	}

	bindings, err := providerfactory.BuildBindings(cfg)
	if err != nil {
		return err
	}

	orch := orchestrator.New(router.New(bindings), cfg.Orchestrator)

	store, err := kvstore.NewFileStore(cfg.Storage.Dir)
	if err != nil {
		return err
	}

	srv, err := server.New(cfg, orch, store)
	if err != nil {
		return err
	}

	return srv.Run(ctx)
}
