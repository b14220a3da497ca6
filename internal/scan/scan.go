// Package scan walks an input directory for per-subnet dumps and runs
// the extraction pipeline on each: ingest, route load, path build,
// partition detection, export, archive. Every subnet's state is torn
// down before the next one begins.
package scan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/fabriclens/fabriclens/internal/archive"
	"github.com/fabriclens/fabriclens/internal/export"
	"github.com/fabriclens/fabriclens/internal/ingest"
	"github.com/fabriclens/fabriclens/internal/partition"
	"github.com/fabriclens/fabriclens/internal/paths"
	"github.com/fabriclens/fabriclens/internal/routes"
	"go.uber.org/zap"
)

var subnetRE = regexp.MustCompile(`^ib-subnet-([0-9a-fA-F:]{19})\.txt$`)

// Runner drives the per-subnet extraction pipeline.
type Runner struct {
	logger   *zap.Logger
	exporter *export.Writer
	archive  *archive.Store // nil when archiving is disabled
	workers  int
}

// NewRunner creates a Runner. archiveStore may be nil.
func NewRunner(logger *zap.Logger, exporter *export.Writer, archiveStore *archive.Store, workers int) *Runner {
	return &Runner{
		logger:   logger,
		exporter: exporter,
		archive:  archiveStore,
		workers:  workers,
	}
}

// Run processes every subnet found in inputDir and returns the number
// of subnets handled. Parse-level problems inside a subnet degrade with
// a diagnostic; an unreadable file aborts the whole run.
func (r *Runner) Run(ctx context.Context, inputDir string) (int, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return 0, fmt.Errorf("read input directory: %w", err)
	}

	processed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := subnetRE.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		subnet := m[1]
		if err := r.processSubnet(ctx, inputDir, entry.Name(), subnet); err != nil {
			return processed, fmt.Errorf("subnet %s: %w", subnet, err)
		}
		processed++
	}
	return processed, nil
}

func (r *Runner) processSubnet(ctx context.Context, dir, filename, subnet string) error {
	r.logger.Info("reading subnet", zap.String("subnet", subnet))

	ing := ingest.New(r.logger)
	if err := ing.IngestFile(filepath.Join(dir, filename)); err != nil {
		return err
	}
	nodes := ing.Nodes()

	store := routes.NewStore(r.logger)
	routeDir := filepath.Join(dir, "ibroutes-"+subnet)
	fi, err := os.Stat(routeDir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		r.logger.Info("no route directory for subnet", zap.String("subnet", subnet))
	case err != nil:
		return fmt.Errorf("stat route directory: %w", err)
	case !fi.IsDir():
		r.logger.Info("no route directory for subnet", zap.String("subnet", subnet))
	default:
		if err := store.LoadDir(routeDir); err != nil {
			return err
		}
	}

	pathSet := paths.New(r.logger, r.workers).Build(ctx, nodes, store)

	partitions := partition.Detect(nodes, r.logger)
	partition.Propagate(partitions, pathSet)

	if r.exporter != nil {
		if _, err := r.exporter.Write(subnet, nodes, partitions, pathSet); err != nil {
			return err
		}
	}

	if r.archive != nil {
		run := archive.Summarize(subnet, nodes, partitions, pathSet)
		if _, err := r.archive.RecordRun(ctx, run); err != nil {
			r.logger.Error("archive run failed",
				zap.String("subnet", subnet), zap.Error(err))
		}
	}

	r.logger.Info("subnet processed",
		zap.String("subnet", subnet),
		zap.Int("nodes", nodes.Len()),
		zap.Int("hosts", len(nodes.Hosts())),
		zap.Int("switch_tables", store.Len()),
		zap.Int("paths", pathSet.Len()),
		zap.Int("partitions", len(partitions)),
	)
	return nil
}
