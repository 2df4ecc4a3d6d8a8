package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"cdr.dev/slog"
	"cdr.dev/slog/sloggers/sloghuman"
	"cdr.dev/slog/sloggers/slogjson"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/zqzqsb/seccompbench/bench"
	"github.com/zqzqsb/seccompbench/cmd/seccompbench/config"
	"github.com/zqzqsb/seccompbench/disallow"
	"github.com/zqzqsb/seccompbench/payload"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args, os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	app := root()
	app.Writer = stdout
	app.ErrWriter = stderr
	return app.RunContext(ctx, args)
}

func root() *cli.App {
	return &cli.App{
		Name: "seccompbench",
		Usage: "Measure the overhead of seccomp filtering against a ptrace " +
			"syscall interception loop on the same fcntl workload.",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "mode",
				Aliases: []string{"m"},
				Usage:   "Benchmark mode: seccomp, ptrace or payload (required).",
			},
			&cli.IntFlag{
				Name:    "iter",
				Aliases: []string{"i"},
				Usage:   "Number of fcntl calls the payload makes.",
				Value:   config.DefaultIterations,
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Optional YAML configuration file. Flags take precedence.",
			},
			&cli.StringFlag{
				Name:  "workdir",
				Usage: "Directory the payload runs in and creates its temporary file in.",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging, including every ptrace stop.",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Also write JSON logs to this file, rotated by size.",
			},
			&cli.StringFlag{
				Name:   "probe",
				Usage:  "Make the payload call this syscall once after its loop.",
				Hidden: true,
			},
		},
		Action: func(ctx *cli.Context) error {
			// 缺少 --mode 时报告完整的参数名
			if !ctx.IsSet("mode") {
				return xerrors.New("required flag --mode not set")
			}
			mode, err := bench.ParseMode(ctx.String("mode"))
			if err != nil {
				return err
			}

			cfg := config.Default()
			if path := ctx.String("config"); path != "" {
				cfg, err = config.Load(path)
				if err != nil {
					return err
				}
			}
			if ctx.IsSet("iter") {
				cfg.Iterations = ctx.Int("iter")
			}
			if ctx.IsSet("workdir") {
				cfg.WorkDir = ctx.String("workdir")
			}
			if ctx.IsSet("verbose") {
				cfg.Log.Verbose = ctx.Bool("verbose")
			}
			if ctx.IsSet("log-file") {
				cfg.Log.File = ctx.String("log-file")
			}
			// 在任何进程控制之前拒绝非法参数
			if err := cfg.Validate(); err != nil {
				return xerrors.Errorf("invalid arguments: %w", err)
			}

			log, closeLog := newLogger(ctx.App.ErrWriter, cfg.Log)
			defer closeLog()

			if mode == bench.ModePayload {
				err := payload.Run(ctx.Context, payload.Options{
					Iterations: cfg.Iterations,
					Dir:        cfg.WorkDir,
					Probe:      ctx.String("probe"),
					Stdout:     ctx.App.Writer,
					Logger:     log.Named("payload"),
				})
				if err != nil {
					return xerrors.Errorf("run payload: %w", err)
				}
				return nil
			}

			set, err := disallow.Build(cfg.Disallowed)
			if err != nil {
				return xerrors.Errorf("build disallowed syscall list: %w", err)
			}

			report, err := bench.Run(ctx.Context, bench.Options{
				Mode:       mode,
				Iterations: cfg.Iterations,
				Disallowed: set,
				WorkDir:    cfg.WorkDir,
				Probe:      ctx.String("probe"),
				Verbose:    cfg.Log.Verbose,
				Logger:     log,
			})
			if err != nil {
				return err
			}
			return bench.Print(ctx.App.Writer, report)
		},
	}
}

// newLogger 在 stderr 上输出可读日志，配置了文件时额外写 JSON
func newLogger(w io.Writer, cfg config.Log) (slog.Logger, func() error) {
	sinks := []slog.Sink{sloghuman.Sink(w)}
	closeLog := func() error { return nil }
	if cfg.File != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		}
		sinks = append(sinks, slogjson.Sink(lj))
		closeLog = lj.Close
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	return slog.Make(sinks...).Leveled(level).Named("seccompbench"), closeLog
}
