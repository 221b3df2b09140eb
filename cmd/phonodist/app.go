package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/phonodist"
	"github.com/hupe1980/phonodist/blobstore"
	miniostore "github.com/hupe1980/phonodist/blobstore/minio"
	s3store "github.com/hupe1980/phonodist/blobstore/s3"
	"github.com/hupe1980/phonodist/config"
	"github.com/hupe1980/phonodist/feature"
	"github.com/hupe1980/phonodist/metrics/prom"
)

var errHelp = errors.New("help requested")

// runner executes a command after its flags are parsed.
type runner func(ctx context.Context, a *app, args []string) error

type command struct {
	summary string
	// setup registers the command flags and returns its runner.
	setup func(fs *flag.FlagSet) runner
}

// app carries what every command needs.
type app struct {
	flags  *flag.FlagSet
	cfg    config.Config
	engine *phonodist.Engine
	stdout io.Writer
	stderr io.Writer

	store      blobstore.Store
	registry   *prometheus.Registry
	metricsOut string
}

// customTables collects repeated -custom name=path flags.
type customTables []customTable

type customTable struct {
	name string
	path string
}

func (c *customTables) String() string {
	parts := make([]string, len(*c))
	for i, t := range *c {
		parts[i] = t.name + "=" + t.path
	}
	return strings.Join(parts, ",")
}

func (c *customTables) Set(v string) error {
	name, path, ok := strings.Cut(v, "=")
	if !ok || name == "" || path == "" {
		return fmt.Errorf("want name=path, got %q", v)
	}
	*c = append(*c, customTable{name: name, path: path})
	return nil
}

// common flags, shared by every command.
type common struct {
	configPath string
	table      string
	method     string
	system     string
	custom     customTables
	raw        bool
	onError    string
	precision  int
	logLevel   string
	metricsOut string
	storeRoot  string
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "YAML configuration file")
	fs.StringVar(&c.table, "table", "", "feature table (TSV or CSV) replacing the embedded default")
	fs.StringVar(&c.method, "method", "", "distance method (default from config)")
	fs.StringVar(&c.system, "system", "", "feature system name")
	fs.Var(&c.custom, "custom", "register a delimited feature table as a system: name=path (repeatable)")
	fs.BoolVar(&c.raw, "raw", false, "report unnormalized distances")
	fs.StringVar(&c.onError, "on-error", "", "missing phoneme policy: raise, warn or ignore")
	fs.IntVar(&c.precision, "precision", -1, "decimals of printed distances (default from config)")
	fs.StringVar(&c.logLevel, "log-level", "", "log level: DEBUG, INFO, WARNING, ERROR")
	fs.StringVar(&c.metricsOut, "metrics-out", "", "write Prometheus metrics to this textfile on exit")
	fs.StringVar(&c.storeRoot, "root", "", "root directory of the local storage backend")
}

// apply overlays the flags that were set on the command line.
func (c *common) apply(fs *flag.FlagSet, cfg *config.Config) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "method":
			cfg.DefaultMethod = c.method
		case "raw":
			cfg.Normalize = !c.raw
		case "on-error":
			cfg.OnError = c.onError
		case "precision":
			cfg.Precision = c.precision
		case "log-level":
			cfg.LogLevel = c.logLevel
		case "root":
			cfg.Storage.Root = c.storeRoot
		}
	})
}

func loadConfig(path string) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return config.Config{}, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func parse(ctx context.Context, name string, cmd command, args []string, stdout, stderr io.Writer) (*app, runner, error) {
	fs := flag.NewFlagSet("phonodist "+name, flag.ContinueOnError)
	fs.SetOutput(stderr)

	var c common
	c.register(fs)
	exec := cmd.setup(fs)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, nil, errHelp
		}
		return nil, nil, err
	}

	cfg, err := loadConfig(c.configPath)
	if err != nil {
		return nil, nil, err
	}
	c.apply(fs, &cfg)
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	level, _ := cfg.SlogLevel()
	opts := []phonodist.Option{
		phonodist.WithConfig(cfg),
		phonodist.WithLogger(phonodist.NewLogger(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))),
	}
	if c.system != "" {
		opts = append(opts, phonodist.WithDefaultSystem(c.system))
	}
	if c.table != "" {
		path := c.table
		opts = append(opts, phonodist.WithFeatureLoader(func(context.Context) (*feature.System, error) {
			return feature.LoadTable(path)
		}))
	}

	a := &app{
		flags:      fs,
		cfg:        cfg,
		stdout:     stdout,
		stderr:     stderr,
		metricsOut: c.metricsOut,
	}
	if c.metricsOut != "" {
		a.registry = prometheus.NewRegistry()
		opts = append(opts, phonodist.WithMetricsCollector(prom.New(a.registry)))
	}

	if a.engine, err = phonodist.New(opts...); err != nil {
		return nil, nil, err
	}
	for _, t := range c.custom {
		if _, err := a.engine.LoadCustomSystem(ctx, t.path, t.name, feature.CustomOptions{}); err != nil {
			return nil, nil, err
		}
	}
	return a, exec, nil
}

// flush writes the metrics textfile, if requested.
func (a *app) flush() error {
	if a.registry == nil {
		return nil
	}
	return prometheus.WriteToTextfile(a.metricsOut, a.registry)
}

// blobStore opens the configured storage backend once.
func (a *app) blobStore(ctx context.Context) (blobstore.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	s, err := openStore(ctx, a.cfg.Storage)
	if err != nil {
		return nil, err
	}
	a.store = s
	return s, nil
}

// remoteCacheBlocks is the number of cached blocks in front of object stores.
const remoteCacheBlocks = 256

func openStore(ctx context.Context, st config.Storage) (blobstore.Store, error) {
	switch st.Backend {
	case "", "local":
		root := st.Root
		if root == "" {
			root = "."
		}
		return blobstore.NewLocalStore(root), nil
	case "memory":
		return blobstore.NewMemoryStore(), nil
	case "s3":
		if st.Bucket == "" {
			return nil, fmt.Errorf("storage backend s3 needs a bucket")
		}
		s, err := s3store.New(ctx, st.Bucket, func(o *s3store.Options) {
			o.Prefix = st.Prefix
			o.Region = st.Region
			o.Endpoint = st.Endpoint
		})
		if err != nil {
			return nil, err
		}
		return blobstore.NewCachingStore(s, remoteCacheBlocks, blobstore.DefaultBlockSize)
	case "minio":
		if st.Bucket == "" || st.Endpoint == "" {
			return nil, fmt.Errorf("storage backend minio needs an endpoint and a bucket")
		}
		s, err := miniostore.New(st.Endpoint, st.Bucket, func(o *miniostore.Options) {
			o.Prefix = st.Prefix
			o.Region = st.Region
			o.UseSSL = st.UseSSL
		})
		if err != nil {
			return nil, err
		}
		return blobstore.NewCachingStore(s, remoteCacheBlocks, blobstore.DefaultBlockSize)
	}
	return nil, fmt.Errorf("unknown storage backend %q", st.Backend)
}

func (a *app) format(d float64) string {
	if math.IsInf(d, 1) {
		return "inf"
	}
	return strconv.FormatFloat(d, 'f', a.cfg.Precision, 64)
}

// segments splits a space-separated segment string.
func segments(s string) []string {
	return strings.Fields(s)
}
