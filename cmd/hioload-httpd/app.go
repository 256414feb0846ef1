// File: cmd/hioload-httpd/app.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/momentics/hioload-httpd/control"
	"github.com/momentics/hioload-httpd/internal/credstore"
	"github.com/momentics/hioload-httpd/internal/logging"
	"github.com/momentics/hioload-httpd/server"
)

func newApp() *cli.App {
	return &cli.App{
		Name:    "hioload-httpd",
		Usage:   "epoll HTTP/1.1 server with reactor and proactor dispatch",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
		Flags:   globalFlags(),
		Action:  serveAction,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the server (default)",
				Action: serveAction,
			},
			{
				Name:      "useradd",
				Usage:     "register a user in the credential store",
				ArgsUsage: "NAME PASSWORD",
				Action:    userAddAction,
			},
			{
				Name:  "config",
				Usage: "configuration helpers",
				Subcommands: []*cli.Command{
					{
						Name:  "dump",
						Usage: "print the effective configuration as YAML",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "out", Usage: "write to `FILE` instead of stdout"},
						},
						Action: dumpAction,
					},
				},
			},
		},
	}
}

// globalFlags keeps the historical single-letter switches next to long names.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Usage: "YAML configuration `FILE`", EnvVars: []string{"HIOLOAD_CONFIG"}},
		&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "listening port"},
		&cli.IntFlag{Name: "log-async", Aliases: []string{"l"}, Usage: "log write mode: 0 sync, 1 async"},
		&cli.IntFlag{Name: "trigmode", Aliases: []string{"m"}, Usage: "trigger mode: 0 LT/LT, 1 LT/ET, 2 ET/LT, 3 ET/ET"},
		&cli.IntFlag{Name: "linger", Aliases: []string{"o"}, Usage: "SO_LINGER on the listener: 0 off, 1 on"},
		&cli.IntFlag{Name: "store-conns", Aliases: []string{"s"}, Usage: "credential store sessions"},
		&cli.IntFlag{Name: "threads", Aliases: []string{"t"}, Usage: "worker goroutines"},
		&cli.IntFlag{Name: "close-log", Aliases: []string{"c"}, Usage: "0 keeps logging on, 1 turns it off"},
		&cli.IntFlag{Name: "actor", Aliases: []string{"a"}, Usage: "dispatch model: 0 proactor, 1 reactor"},
		&cli.StringFlag{Name: "docroot", Usage: "document root `DIR`"},
		&cli.StringFlag{Name: "store-path", Usage: "badger `DIR` for users; empty keeps them in memory"},
		&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
	}
}

// flagOverrides maps the flags set on the command line to flat config keys.
// Unset flags are left out so lower layers keep their values.
func flagOverrides(c *cli.Context) map[string]any {
	out := map[string]any{}
	ints := map[string]string{
		"port":        "server.port",
		"trigmode":    "server.trigmode",
		"store-conns": "store.conns",
		"threads":     "dispatch.workers",
	}
	for flag, key := range ints {
		if c.IsSet(flag) {
			out[key] = c.Int(flag)
		}
	}
	strs := map[string]string{
		"docroot":    "server.docroot",
		"store-path": "store.path",
		"log-level":  "log.level",
	}
	for flag, key := range strs {
		if c.IsSet(flag) {
			out[key] = c.String(flag)
		}
	}
	if c.IsSet("log-async") {
		out["log.async"] = c.Int("log-async") == 1
	}
	if c.IsSet("linger") {
		out["server.linger"] = c.Int("linger") == 1
	}
	if c.IsSet("close-log") {
		out["log.enabled"] = c.Int("close-log") != 1
	}
	if c.IsSet("actor") {
		out["dispatch.strategy"] = control.StrategyProactor
		if c.Int("actor") == 1 {
			out["dispatch.strategy"] = control.StrategyReactor
		}
	}
	return out
}

func loadConfig(c *cli.Context) (*control.Config, error) {
	return control.NewLoader(
		control.WithConfigFile(c.String("config")),
		control.WithFlags(flagOverrides(c)),
	).Load()
}

func openSink(cfg *control.Config) (*logging.Sink, error) {
	return logging.New(logging.Options{
		Enabled:    cfg.Log.Enabled,
		Async:      cfg.Log.Async,
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		BufferSize: cfg.Log.Buffer,
	})
}

func openStore(cfg *control.Config, log zerolog.Logger) (*credstore.Store, error) {
	return credstore.Open(credstore.Options{
		Path:           cfg.Store.Path,
		Conns:          cfg.Store.Conns,
		AcquireTimeout: cfg.Store.AcquireTimeout,
		Cost:           cfg.Store.Cost,
		Logger:         log.With().Str("component", "credstore").Logger(),
	})
}

func serveAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	sink, err := openSink(cfg)
	if err != nil {
		return err
	}
	// the sink is flushed last, after the server has released everything else
	defer sink.Close()
	log := sink.Logger()

	store, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	srv, err := server.New(cfg,
		server.WithLogger(log),
		server.WithMetrics(control.NewMetrics()),
		server.WithStore(store),
	)
	if err != nil {
		store.Close()
		return err
	}

	log.Info().Str("version", version).Str("commit", commit).Str("config", c.String("config")).Msg("starting")
	if err := srv.Run(); err != nil {
		log.Error().Err(err).Msg("server failed")
		return err
	}
	if n := sink.Dropped(); n > 0 {
		log.Warn().Int64("dropped", n).Msg("log messages dropped")
	}
	return nil
}

func userAddAction(c *cli.Context) error {
	if c.NArg() != 2 {
		return errors.New("useradd: want NAME PASSWORD")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	sink, err := openSink(cfg)
	if err != nil {
		return err
	}
	defer sink.Close()

	store, err := openStore(cfg, sink.Logger())
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	name := c.Args().Get(0)
	var exists bool
	err = store.WithSession(ctx, func(sess *credstore.Session) error {
		exists, err = sess.Exists(name)
		return err
	})
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("useradd: user %q already exists", name)
	}
	ok, err := store.Register(ctx, name, c.Args().Get(1))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("useradd: invalid name or password for %q", name)
	}
	fmt.Fprintf(c.App.Writer, "user %s added\n", name)
	return nil
}

func dumpAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if out := c.String("out"); out != "" {
		return cfg.Save(out)
	}
	return cfg.Encode(c.App.Writer)
}
