package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/wyfcoding/nanoid/config"
	"github.com/wyfcoding/nanoid/idgen"
	"github.com/wyfcoding/nanoid/logging"
	"github.com/wyfcoding/nanoid/metrics"
	"github.com/wyfcoding/nanoid/xerrors"
)

var version = "dev"

type options struct {
	configPath  string
	count       int
	useAsync    bool
	dumpMetrics bool
}

// flagKeys 将命令行参数绑定到对应的配置键.
var flagKeys = map[string]string{
	"alphabet":   "generator.alphabet",
	"size":       "generator.size",
	"source":     "generator.source",
	"seed":       "generator.seed",
	"max-rounds": "generator.max_rounds",
	"workers":    "generator.workers",
	"log-level":  "log.level",
}

// NewRootCmd 创建根命令，每次调用返回独立的命令树，便于测试.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:     "nanoid",
		Short:   "Generate short URL-safe unique identifiers",
		Long:    "nanoid prints random identifiers drawn from an alphabet by unbiased rejection sampling.",
		Version: version,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
		SilenceUsage: true,
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to a TOML config file")
	flags.IntVarP(&opts.count, "count", "n", 1, "number of identifiers to print")
	flags.BoolVar(&opts.useAsync, "async", false, "dispatch each generation through a future")
	flags.BoolVar(&opts.dumpMetrics, "metrics", false, "write prometheus metrics to stderr when done")
	flags.StringP("alphabet", "a", "", "symbols to draw from, 1-255 bytes (default URL-safe 64 symbols)")
	flags.IntP("size", "s", 0, "identifier length (default 21)")
	flags.String("source", idgen.SourceCrypto, "random source: crypto, chacha20 or pcg")
	flags.String("seed", "", "seed for chacha20/pcg sources")
	flags.Int("max-rounds", 0, "give up after this many byte batches (0 = unbounded)")
	flags.Int("workers", 0, "goroutines used when --count > 1 (default 1)")
	flags.String("log-level", "info", "log level: debug, info, warn, error")

	return cmd
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

func run(cmd *cobra.Command, opts *options) error {
	v := config.NewViper()
	if err := bindFlags(v, cmd.Flags()); err != nil {
		return err
	}

	var cfg config.Config
	if err := config.Load(v, opts.configPath, &cfg); err != nil {
		return xerrors.Wrap(err, xerrors.ErrInvalidArg, "load config")
	}

	logger := logging.NewFromConfig(logging.Config{
		Service:    "nanoid",
		Module:     "cli",
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
		Writer:     cmd.ErrOrStderr(),
	})
	slog.SetDefault(logger.Logger)
	config.PrintWithMask(cfg)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled || opts.dumpMetrics {
		m = metrics.NewMetrics(cfg.Metrics.Namespace)
		m.RegisterBuildInfo("nanoid", version)
	}

	gen, err := idgen.NewFromConfig(cfg.Generator, idgen.WithLogger(logger.Logger), idgen.WithMetrics(m))
	if err != nil {
		return err
	}

	ids, err := generate(cmd, gen, opts, cfg.Generator.Workers)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, id := range ids {
		if _, err := fmt.Fprintln(out, id); err != nil {
			return err
		}
	}

	if opts.dumpMetrics {
		return writeMetrics(cmd.ErrOrStderr(), m)
	}
	return nil
}

func generate(cmd *cobra.Command, gen *idgen.Generator, opts *options, workers int) ([]string, error) {
	ctx := cmd.Context()
	switch {
	case opts.count < 1:
		return nil, idgen.ErrInvalidCount.Clone(fmt.Sprintf("got %d", opts.count), nil)
	case opts.useAsync:
		ids := make([]string, 0, opts.count)
		for range opts.count {
			id, err := gen.GenerateAsync(ctx).Get(ctx)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
		return ids, nil
	case opts.count == 1:
		id, err := gen.Generate()
		if err != nil {
			return nil, err
		}
		return []string{id}, nil
	default:
		return gen.GenerateBatch(ctx, opts.count, workers)
	}
}

// 进程退出码.
const (
	exitOK       = 0
	exitFailure  = 1
	exitBadInput = 2
)

// exitCode 按错误的 HTTP 状态分类：4xx 视为调用方输入问题，其余为运行失败。
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	if e, ok := xerrors.FromError(err); ok {
		if status := e.HTTPStatus(); status >= 400 && status < 500 {
			return exitBadInput
		}
	}
	return exitFailure
}

func writeMetrics(w io.Writer, m *metrics.Metrics) error {
	if m == nil {
		return nil
	}
	return m.WriteText(w)
}
