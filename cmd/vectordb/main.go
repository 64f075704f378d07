// Command vectordb is a command line client for the vector database HTTP API.
//
//	vectordb [-config file.yaml] <command> [flags]
//
// Without -config the file is config/<ENV>.yaml (ENV defaults to "local").
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vectordb"
	"github.com/kailas-cloud/vectordb/internal/config"
	logpkg "github.com/kailas-cloud/vectordb/internal/logger"
	"github.com/kailas-cloud/vectordb/internal/version"
)

// command runs one subcommand. A non-nil error makes the process exit with 1.
type command struct {
	usage string
	run   func(ctx context.Context, app *app, args []string) error
}

var commands = map[string]command{
	"ping":         {"check the server answers", runPing},
	"state":        {"print server state", runState},
	"load":         {"load a database: load [-name db] [-path dir] [-vector-scale n] [-wal]", runLoad},
	"unload":       {"unload a database: unload [-name db]", runUnload},
	"drop-db":      {"drop a database: drop-db [-name db]", runDropDB},
	"create-table": {"create a table: create-table -name t -schema schema.yaml", runCreateTable},
	"drop-table":   {"drop a table: drop-table -name t", runDropTable},
	"list-tables":  {"list tables of the database", runListTables},
	"insert":       {"insert records: insert -table t -file records.{json,parquet} [-upsert]", runInsert},
	"query":        {"vector or text query: query -table t (-vector 0.1,0.2 -field f | -text q)", runQuery},
	"get":          {"fetch records: get -table t [-keys 1,2] [-filter expr]", runGet},
	"delete":       {"delete records: delete -table t (-keys 1,2 | -filter expr)", runDelete},
	"health":       {"check server, embedding provider and cache", runHealth},
	"serve-fake":   {"run the in-memory development server", runServeFake},
}

// app holds what every subcommand needs.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	out    io.Writer
	reg    *prometheus.Registry
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	global := flag.NewFlagSet("vectordb", flag.ContinueOnError)
	configPath := global.String("config", "", "path to a YAML config file")
	global.Usage = func() { usage(global.Output()) }
	if err := global.Parse(args); err != nil {
		return 2
	}
	if global.NArg() == 0 {
		usage(os.Stderr)
		return 2
	}

	name := global.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
		usage(os.Stderr)
		return 2
	}

	env := config.GetEnv()
	var (
		cfg config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		return 1
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to create logger:", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	logger.Debug("Starting vectordb",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.String("command", name),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{cfg: cfg, logger: logger, out: os.Stdout, reg: prometheus.NewRegistry()}
	if err := cmd.run(ctx, a, global.Args()[1:]); err != nil {
		logger.Error("Command failed", zap.String("command", name), zap.Error(err))
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: vectordb [-config file.yaml] <command> [flags]")
	fmt.Fprintln(w)
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(w, "  %-13s %s\n", n, commands[n].usage)
	}
}

// newClient builds a client from the server, embedding and cache sections.
func (a *app) newClient() (*vectordb.Client, error) {
	srv := a.cfg.Server
	opts := []vectordb.Option{
		vectordb.WithProtocol(srv.Protocol),
		vectordb.WithHost(srv.Host),
		vectordb.WithPort(srv.Port),
		vectordb.WithTimeout(time.Duration(srv.TimeoutSec) * time.Second),
		vectordb.WithLogger(a.logger),
		vectordb.WithPrometheus(a.reg),
	}
	for k, v := range srv.Headers {
		if v == "" {
			continue
		}
		opts = append(opts, vectordb.WithHeader(k, v))
	}

	if emb := a.cfg.Embedding; emb.Model != "" {
		opts = append(opts, vectordb.WithEmbedder(vectordb.NewOpenAIEmbedder(vectordb.OpenAIConfig{
			APIKey:     emb.APIKey,
			BaseURL:    emb.BaseURL,
			Model:      emb.Model,
			Dimensions: emb.Dimensions,
			Provider:   emb.Provider,
		}, a.logger)))

		if c := a.cfg.Cache; len(c.Addrs) > 0 {
			opts = append(opts, vectordb.WithRedisEmbeddingCache(
				c.Addrs, c.Password, time.Duration(c.TTLSec)*time.Second))
		}
	}

	c, err := vectordb.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	if a.cfg.Database.Name != "" {
		c.UseDB(a.cfg.Database.Name)
	}
	return c, nil
}
