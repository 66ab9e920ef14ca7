package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/neurobooth/xdfsplit/pkg/config"
)

// runSplitCmd implements `xdfsplit split`.
//
// Exit codes:
//
//	0 = every container split
//	1 = at least one container failed
//	2 = usage or configuration error
func runSplitCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("split", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	configPath := cmd.String("config", "", "Path to the pipeline config file")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	containers := cmd.Args()
	if len(containers) == 0 {
		fmt.Fprintln(stderr, "Error: at least one container path is required")
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 2
	}

	ctx := context.Background()
	log := newLogger(stderr)
	p, err := newPipeline(ctx, cfg, log)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 2
	}
	defer p.Close()

	failures := 0
	for _, container := range containers {
		result, err := p.splitter.Split(ctx, container)
		if err != nil {
			failures++
			fmt.Fprintf(stderr, "%s: %v\n", container, err)
			continue
		}
		for _, dr := range result.Devices {
			switch {
			case dr.Err != nil:
				fmt.Fprintf(stdout, "  %s: FAILED: %v\n", dr.DeviceID, dr.Err)
			case dr.AlreadySplit:
				fmt.Fprintf(stdout, "  %s: already split (%s)\n", dr.DeviceID, dr.OutputPath)
			default:
				fmt.Fprintf(stdout, "  %s: %s\n", dr.DeviceID, dr.OutputPath)
			}
		}
		fmt.Fprintf(stdout, "%s: %d device file(s)\n", container, len(result.Outputs))
	}
	if failures > 0 {
		return 1
	}
	return 0
}
