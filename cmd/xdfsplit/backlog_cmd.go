package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/neurobooth/xdfsplit/pkg/backlog"
	"github.com/neurobooth/xdfsplit/pkg/config"
)

// runBacklogCmd implements `xdfsplit backlog <add|list|run>`.
func runBacklogCmd(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprintln(stderr, "Usage: xdfsplit backlog <add|list|run> [flags]")
		return 2
	}
	sub, rest := args[0], args[1:]

	cmd := flag.NewFlagSet("backlog "+sub, flag.ContinueOnError)
	cmd.SetOutput(stderr)
	configPath := cmd.String("config", "", "Path to the pipeline config file")
	if err := cmd.Parse(rest); err != nil {
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 2
	}

	ctx := context.Background()
	queue, err := newQueue(ctx, cfg)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 2
	}

	switch sub {
	case "add":
		if cmd.NArg() == 0 {
			fmt.Fprintln(stderr, "Error: at least one container path is required")
			return 2
		}
		for _, path := range cmd.Args() {
			if err := queue.Enqueue(ctx, path); err != nil {
				fmt.Fprintln(stderr, "Error:", err)
				return 1
			}
		}
		fmt.Fprintf(stdout, "queued %d container(s)\n", cmd.NArg())
		return 0
	case "list":
		paths, err := queue.List(ctx)
		if err != nil {
			fmt.Fprintln(stderr, "Error:", err)
			return 1
		}
		for _, path := range paths {
			fmt.Fprintln(stdout, path)
		}
		return 0
	case "run":
		return runBacklogDrain(ctx, cfg, queue, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "unknown backlog subcommand %q\n", sub)
		return 2
	}
}

func runBacklogDrain(ctx context.Context, cfg config.Config, queue backlog.Queue, stdout, stderr io.Writer) int {
	log := newLogger(stderr)
	p, err := newPipeline(ctx, cfg, log)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 2
	}
	defer p.Close()

	runner := backlog.NewRunner(queue, func(ctx context.Context, containerPath string) error {
		_, err := p.splitter.Split(ctx, containerPath)
		return err
	}, cfg.Backlog.SplitsPerMinute, log)

	processed, failed, err := runner.Drain(ctx)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	fmt.Fprintf(stdout, "processed %d container(s), %d failure(s)\n", processed, failed)
	if failed > 0 {
		return 1
	}
	return 0
}

func newQueue(ctx context.Context, cfg config.Config) (backlog.Queue, error) {
	switch cfg.Backlog.Kind {
	case "redis":
		return backlog.NewRedisQueue(ctx, backlog.RedisConfig{
			Addr:     cfg.Backlog.RedisAddr,
			Password: cfg.Backlog.RedisPassword,
			DB:       cfg.Backlog.RedisDB,
		})
	default:
		return backlog.NewFSQueue(cfg.Backlog.Dir)
	}
}
