package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kailas-cloud/vectordb"
)

// printResponse writes the status line and body, and turns non-2xx into an error.
func (a *app) printResponse(resp *vectordb.Response, err error) error {
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d\n%s\n", resp.StatusCode, resp.Body)
	return resp.Err()
}

// withClient creates a client, runs fn and closes it.
func (a *app) withClient(fn func(c *vectordb.Client) error) error {
	c, err := a.newClient()
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(c)
}

func runPing(ctx context.Context, a *app, _ []string) error {
	return a.withClient(func(c *vectordb.Client) error {
		if err := c.Ping(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "ok")
		return nil
	})
}

func runState(ctx context.Context, a *app, _ []string) error {
	return a.withClient(func(c *vectordb.Client) error {
		return a.printResponse(c.State(ctx))
	})
}

func runLoad(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("load", flag.ContinueOnError)
	name := fs.String("name", a.cfg.Database.Name, "database name")
	path := fs.String("path", a.cfg.Database.Path, "database directory on the server")
	scale := fs.Int("vector-scale", 0, "initial vector capacity (0 = server default)")
	wal := fs.Bool("wal", false, "enable the write-ahead log")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" || *path == "" {
		return errors.New("load: -name and -path are required")
	}

	var opts []vectordb.LoadOption
	switch {
	case *scale > 0:
		opts = append(opts, vectordb.WithVectorScale(*scale))
	case a.cfg.Database.VectorScale != nil:
		opts = append(opts, vectordb.WithVectorScale(*a.cfg.Database.VectorScale))
	}
	if flagSet(fs, "wal") {
		opts = append(opts, vectordb.WithWAL(*wal))
	} else if a.cfg.Database.WALEnabled != nil {
		opts = append(opts, vectordb.WithWAL(*a.cfg.Database.WALEnabled))
	}

	return a.withClient(func(c *vectordb.Client) error {
		return a.printResponse(c.LoadDB(ctx, *name, *path, opts...))
	})
}

func runUnload(ctx context.Context, a *app, args []string) error {
	name, err := dbNameFlag("unload", a, args)
	if err != nil {
		return err
	}
	return a.withClient(func(c *vectordb.Client) error {
		return a.printResponse(c.UnloadDB(ctx, name))
	})
}

func runDropDB(ctx context.Context, a *app, args []string) error {
	name, err := dbNameFlag("drop-db", a, args)
	if err != nil {
		return err
	}
	return a.withClient(func(c *vectordb.Client) error {
		return a.printResponse(c.DropDB(ctx, name))
	})
}

func dbNameFlag(cmd string, a *app, args []string) (string, error) {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	name := fs.String("name", a.cfg.Database.Name, "database name")
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if *name == "" {
		return "", fmt.Errorf("%s: -name is required", cmd)
	}
	return *name, nil
}

func runCreateTable(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("create-table", flag.ContinueOnError)
	name := fs.String("name", "", "table name")
	schemaPath := fs.String("schema", "", "YAML schema file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" || *schemaPath == "" {
		return errors.New("create-table: -name and -schema are required")
	}

	data, err := os.ReadFile(filepath.Clean(*schemaPath))
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}
	fields, indices, err := parseSchemaFile(data)
	if err != nil {
		return err
	}

	var opts []vectordb.TableOption
	if len(indices) > 0 {
		opts = append(opts, vectordb.WithIndices(indices...))
	}
	return a.withClient(func(c *vectordb.Client) error {
		return a.printResponse(c.CreateTable(ctx, *name, fields, opts...))
	})
}

func runDropTable(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("drop-table", flag.ContinueOnError)
	name := fs.String("name", "", "table name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return errors.New("drop-table: -name is required")
	}
	return a.withClient(func(c *vectordb.Client) error {
		return a.printResponse(c.DropTable(ctx, *name))
	})
}

func runListTables(ctx context.Context, a *app, _ []string) error {
	return a.withClient(func(c *vectordb.Client) error {
		return a.printResponse(c.ListTables(ctx))
	})
}

func runInsert(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("insert", flag.ContinueOnError)
	table := fs.String("table", "", "table name")
	file := fs.String("file", "", "records file: JSON array or .parquet")
	upsert := fs.Bool("upsert", false, "replace records with existing primary keys")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *table == "" || *file == "" {
		return errors.New("insert: -table and -file are required")
	}

	records, err := readRecords(*file)
	if err != nil {
		return err
	}

	return a.withClient(func(c *vectordb.Client) error {
		if *upsert {
			return a.printResponse(c.Upsert(ctx, *table, records))
		}
		return a.printResponse(c.Insert(ctx, *table, records))
	})
}

// readRecords loads a JSON array of records, or a parquet file by extension.
func readRecords(path string) ([]vectordb.Record, error) {
	if strings.EqualFold(filepath.Ext(path), ".parquet") {
		records, err := readParquetRecords(path)
		if err != nil {
			return nil, fmt.Errorf("read records: %w", err)
		}
		return records, nil
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	var records []vectordb.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse records: %w", err)
	}
	return records, nil
}

func runQuery(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	table := fs.String("table", "", "table name")
	field := fs.String("field", "", "vector field to search")
	vector := fs.String("vector", "", "comma separated query vector")
	text := fs.String("text", "", "query text, embedded by the client or through -index")
	index := fs.String("index", "", "server-side index that embeds -text")
	response := fs.String("response", "", "comma separated fields to return")
	limit := fs.Int("limit", 10, "maximum number of results")
	filter := fs.String("filter", "", "filter expression")
	withDistance := fs.Bool("distance", false, "include @distance in results")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *table == "" {
		return errors.New("query: -table is required")
	}

	return a.withClient(func(c *vectordb.Client) error {
		if *text != "" {
			return a.printResponse(c.QueryText(ctx, vectordb.TextQuery{
				Table:        *table,
				Text:         *text,
				QueryField:   *field,
				QueryIndex:   *index,
				Response:     splitList(*response),
				Limit:        *limit,
				WithDistance: *withDistance,
				Filter:       *filter,
			}))
		}

		vec, err := parseVector(*vector)
		if err != nil {
			return err
		}
		return a.printResponse(c.Query(ctx, vectordb.QueryRequest{
			Table:             *table,
			QueryField:        *field,
			QueryVectorDouble: vec,
			Response:          splitList(*response),
			Limit:             *limit,
			WithDistance:      *withDistance,
			Filter:            *filter,
		}))
	})
}

func runGet(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	table := fs.String("table", "", "table name")
	keys := fs.String("keys", "", "comma separated primary keys")
	response := fs.String("response", "", "comma separated fields to return")
	filter := fs.String("filter", "", "filter expression")
	skip := fs.Int("skip", 0, "records to skip")
	limit := fs.Int("limit", 0, "maximum number of records (0 = all)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *table == "" {
		return errors.New("get: -table is required")
	}

	return a.withClient(func(c *vectordb.Client) error {
		return a.printResponse(c.Get(ctx, vectordb.GetRequest{
			Table:       *table,
			Response:    splitList(*response),
			PrimaryKeys: parseKeys(*keys),
			Filter:      *filter,
			Skip:        *skip,
			Limit:       *limit,
		}))
	})
}

func runDelete(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	table := fs.String("table", "", "table name")
	keys := fs.String("keys", "", "comma separated primary keys")
	filter := fs.String("filter", "", "filter expression")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *table == "" {
		return errors.New("delete: -table is required")
	}

	return a.withClient(func(c *vectordb.Client) error {
		return a.printResponse(c.Delete(ctx, vectordb.DeleteRequest{
			Table:       *table,
			PrimaryKeys: parseKeys(*keys),
			Filter:      *filter,
		}))
	})
}

func runHealth(ctx context.Context, a *app, _ []string) error {
	return a.withClient(func(c *vectordb.Client) error {
		h := c.Health(ctx)
		out := map[string]any{"status": h.Status, "checks": h.Checks}
		if len(h.Errors) > 0 {
			errs := make(map[string]string, len(h.Errors))
			for k, v := range h.Errors {
				errs[k] = v.Error()
			}
			out["errors"] = errs
		}
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("encode health: %w", err)
		}
		if h.Status != "ok" {
			return fmt.Errorf("health: %s", h.Status)
		}
		return nil
	})
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseVector(s string) ([]float64, error) {
	parts := splitList(s)
	if len(parts) == 0 {
		return nil, errors.New("query: -vector or -text is required")
	}
	vec := make([]float64, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("query: vector element %d: %w", i, err)
		}
		vec[i] = f
	}
	return vec, nil
}

// parseKeys keeps integer keys numeric so they match integer primary keys.
func parseKeys(s string) []any {
	parts := splitList(s)
	if len(parts) == 0 {
		return nil
	}
	keys := make([]any, len(parts))
	for i, p := range parts {
		if n, err := strconv.ParseInt(p, 10, 64); err == nil {
			keys[i] = n
			continue
		}
		keys[i] = p
	}
	return keys
}

func flagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}
