// Command xdfsplit splits multi-stream recording containers into
// per-device files and records provenance for every file it produces.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/neurobooth/xdfsplit/pkg/archive"
	"github.com/neurobooth/xdfsplit/pkg/config"
	"github.com/neurobooth/xdfsplit/pkg/devicefile"
	"github.com/neurobooth/xdfsplit/pkg/provenance"
	"github.com/neurobooth/xdfsplit/pkg/sessiondb"
	"github.com/neurobooth/xdfsplit/pkg/split"
	"github.com/neurobooth/xdfsplit/pkg/taskmap"
)

func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run dispatches subcommands; it exists separately from main so tests can
// drive the CLI.
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		usage(stderr)
		return 2
	}
	switch args[1] {
	case "split":
		return runSplitCmd(args[2:], stdout, stderr)
	case "backlog":
		return runBacklogCmd(args[2:], stdout, stderr)
	case "inspect":
		return runInspectCmd(args[2:], stdout, stderr)
	case "help", "-h", "--help":
		usage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", args[1])
		usage(stderr)
		return 2
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `Usage: xdfsplit <command> [flags]

Commands:
  split    split one or more containers into per-device files
  backlog  manage and drain the queue of containers awaiting a split
  inspect  summarize the streams inside a container`)
}

// pipeline bundles everything a split run needs, plus the handles that
// must be closed when it is done.
type pipeline struct {
	splitter *split.Splitter
	closers  []io.Closer
}

func (p *pipeline) Close() {
	for _, c := range p.closers {
		c.Close()
	}
}

func newPipeline(ctx context.Context, cfg config.Config, log *slog.Logger) (*pipeline, error) {
	p := &pipeline{}

	var opsDB *sql.DB
	openOps := func() (*sql.DB, error) {
		if opsDB != nil {
			return opsDB, nil
		}
		db, err := sql.Open("postgres", cfg.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("opening operations database: %w", err)
		}
		opsDB = db
		p.closers = append(p.closers, db)
		return db, nil
	}

	var source split.DeviceSource
	if cfg.TaskDeviceMap != "" {
		m, err := taskmap.Load(cfg.TaskDeviceMap)
		if err != nil {
			p.Close()
			return nil, err
		}
		source = m
	} else {
		db, err := openOps()
		if err != nil {
			p.Close()
			return nil, err
		}
		source = sessiondb.NewPostgresSource(db)
	}

	var provDB *sql.DB
	switch cfg.Provenance.Driver {
	case "sqlite":
		db, err := sql.Open("sqlite", cfg.Provenance.Path)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("opening provenance database: %w", err)
		}
		p.closers = append(p.closers, db)
		provDB = db
	default:
		db, err := openOps()
		if err != nil {
			p.Close()
			return nil, err
		}
		provDB = db
	}
	prov := provenance.NewSQLLog(provDB)
	if err := prov.Init(ctx); err != nil {
		p.Close()
		return nil, err
	}

	writer, err := devicefile.NewWriter(devicefile.WithWriterLogger(log))
	if err != nil {
		p.Close()
		return nil, err
	}

	opts := []split.Option{split.WithLogger(log)}
	store, err := archive.NewStore(ctx, archive.Options{
		Kind:   cfg.Archive.Kind,
		Dir:    cfg.Archive.Dir,
		Bucket: cfg.Archive.Bucket,
		Prefix: cfg.Archive.Prefix,
		Region: cfg.Archive.Region,
	})
	if err != nil {
		p.Close()
		return nil, err
	}
	if store != nil {
		opts = append(opts, split.WithArchive(store))
	}

	p.splitter = split.NewSplitter(source, prov, writer, opts...)
	return p, nil
}

func newLogger(stderr io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
