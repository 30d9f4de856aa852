/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/suparena/statstore"
	"github.com/suparena/statstore/config"
	"github.com/suparena/statstore/datastore"
	"github.com/suparena/statstore/logger"
	"github.com/suparena/statstore/setup"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

const usage = `Usage: statstore [flags] <command> [command flags]

Commands:
  version      print version information
  ping         connect to storage and report the connection status
  setup-user   create the storage user once per data directory
  schema       list the categories recorded in storage

Flags:
`

// globals are the flags accepted before the command name.
type globals struct {
	configFile string
	envFile    string
	timeout    time.Duration
}

type command func(ctx context.Context, g globals, args []string, stdout, stderr io.Writer) int

var commands = map[string]command{
	"version":    runVersion,
	"ping":       runPing,
	"setup-user": runSetupUser,
	"schema":     runSchema,
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("statstore", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var g globals
	fs.StringVar(&g.configFile, "config", "", "YAML configuration file")
	fs.StringVar(&g.envFile, "env", ".env", "environment file loaded before STATSTORE_* overrides")
	fs.DurationVar(&g.timeout, "timeout", 30*time.Second, "overall command timeout")
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return exitUsage
	}

	cmd, ok := commands[fs.Arg(0)]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n", fs.Arg(0))
		fs.Usage()
		return exitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return cmd(ctx, g, fs.Args()[1:], stdout, stderr)
}

func runVersion(_ context.Context, _ globals, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	fs.SetOutput(stderr)
	output := fs.String("o", "text", "output format: text or yaml")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	info := statstore.GetVersionInfo()
	switch *output {
	case "yaml":
		return writeYAML(stdout, stderr, info)
	case "text":
		fmt.Fprintf(stdout, "StatStore version %s\n", info.Version)
		fmt.Fprintf(stdout, "Git commit: %s\n", info.GitCommit)
		fmt.Fprintf(stdout, "Build date: %s\n", info.BuildDate)
		fmt.Fprintf(stdout, "Go version: %s\n", info.GoVersion)
		return exitOK
	default:
		fmt.Fprintf(stderr, "unknown output format %q\n", *output)
		return exitUsage
	}
}

func runPing(ctx context.Context, g globals, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ping", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	env, err := newEnvironment(g, stderr, config.EnvCredentials{})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitFail
	}
	svc, log := env.svc, env.log
	defer svc.Close()

	err = svc.Connect(ctx)
	fmt.Fprintf(stdout, "%s\n", svc.Status())
	if err != nil {
		log.Error("ping failed", zap.Error(err))
		return exitFail
	}
	if err := svc.Disconnect(context.WithoutCancel(ctx)); err != nil {
		log.Warn("disconnect failed", zap.Error(err))
	}
	return exitOK
}

func runSetupUser(ctx context.Context, g globals, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("setup-user", flag.ContinueOnError)
	fs.SetOutput(stderr)
	user := fs.String("user", "", "user name (default $STATSTORE_USERNAME); the password is read from $STATSTORE_PASSWORD")
	dataDir := fs.String("data-dir", "", "directory holding the setup stamp file (default setup.dataDir)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	// The first user is created over an unauthenticated connection.
	env, err := newEnvironment(g, stderr, nil)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitFail
	}
	defer env.svc.Close()

	var creds datastore.Credentials = config.EnvCredentials{}
	if *user != "" {
		creds = namedCredentials{user: *user}
	}
	dir := *dataDir
	if dir == "" {
		dir = env.cfg.Setup.DataDir
	}

	res := setup.New(dir, env.svc, setup.WithLogger(env.base)).Run(ctx, creds)
	fmt.Fprintf(stdout, "%s\n", res.Status)
	if !res.OK() {
		fmt.Fprintln(stderr, res.Err)
		return exitFail
	}
	return exitOK
}

// namedCredentials overrides the user name and keeps the password from the environment.
type namedCredentials struct {
	user string
}

func (n namedCredentials) Username() string {
	return n.user
}

func (n namedCredentials) Password() []byte {
	return config.EnvCredentials{}.Password()
}

type schemaRow struct {
	Category     string          `yaml:"category"`
	RegisteredAt strfmt.DateTime `yaml:"registeredAt"`
}

func runSchema(ctx context.Context, g globals, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("schema", flag.ContinueOnError)
	fs.SetOutput(stderr)
	output := fs.String("o", "text", "output format: text or yaml")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if *output != "text" && *output != "yaml" {
		fmt.Fprintf(stderr, "unknown output format %q\n", *output)
		return exitUsage
	}

	env, err := newEnvironment(g, stderr, config.EnvCredentials{})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitFail
	}
	svc, log := env.svc, env.log
	defer svc.Close()

	if err := svc.Connect(ctx); err != nil {
		log.Error("connect failed", zap.Error(err))
		return exitFail
	}
	defer svc.Disconnect(context.WithoutCancel(ctx))

	infos, err := svc.Storage().SchemaInfos(ctx)
	if err != nil {
		log.Error("schema listing failed", zap.Error(err))
		return exitFail
	}

	rows := make([]schemaRow, 0, len(infos))
	for _, info := range infos {
		rows = append(rows, schemaRow{
			Category:     info.Name,
			RegisteredAt: strfmt.DateTime(time.UnixMilli(info.Timestamp).UTC()),
		})
	}
	if *output == "yaml" {
		return writeYAML(stdout, stderr, rows)
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tREGISTERED")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\n", r.Category, r.RegisteredAt)
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintln(stderr, err)
		return exitFail
	}
	return exitOK
}

type environment struct {
	cfg  *config.Config
	svc  *statstore.DbService
	base *zap.Logger
	log  *zap.Logger
}

func newEnvironment(g globals, stderr io.Writer, creds datastore.Credentials) (*environment, error) {
	cfg, err := config.Load(g.configFile, g.envFile)
	if err != nil {
		return nil, err
	}
	base := logger.NewWithWriter(cfg.Logging.Level, logger.ParseFormat(cfg.Logging.Format, logger.FormatConsole), stderr)
	opts := []statstore.ServiceOption{statstore.WithLogger(base)}
	if creds != nil && creds.Username() != "" {
		opts = append(opts, statstore.WithCredentials(creds))
	}
	svc, err := statstore.NewDbService(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &environment{cfg: cfg, svc: svc, base: base, log: logger.For(base, logger.ComponentCLI)}, nil
}

func writeYAML(stdout, stderr io.Writer, v any) int {
	enc := yaml.NewEncoder(stdout)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(stderr, err)
		return exitFail
	}
	if err := enc.Close(); err != nil {
		fmt.Fprintln(stderr, err)
		return exitFail
	}
	return exitOK
}
