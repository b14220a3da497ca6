// Package paths reconstructs end-to-end host-to-host paths by replaying
// per-switch forwarding decisions hop by hop. The forwarding tables are
// a distributed snapshot; walking them is the only way to recover the
// emergent path, and mirrors how the hardware actually forwards.
package paths

import (
	"context"

	"github.com/fabriclens/fabriclens/internal/routes"
	"github.com/fabriclens/fabriclens/pkg/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Builder reconstructs the paths between every ordered pair of hosts.
//
// The walk starts from the first physical link of the source host's
// first edge, in insertion order. This choice is deterministic but
// best-effort: with several egress ports on the source, a different
// first port could yield a different path, and no shortest-path or
// uniqueness guarantee is made.
type Builder struct {
	logger  *zap.Logger
	workers int
}

// New creates a Builder. workers bounds the number of source hosts
// walked concurrently; values below 2 select the sequential build.
func New(logger *zap.Logger, workers int) *Builder {
	return &Builder{logger: logger, workers: workers}
}

// Build reconstructs paths for all ordered pairs of distinct hosts that
// have at least one outgoing edge. A pair for which forwarding state is
// missing produces no entry; that absence means "no known route", not
// an error.
func (b *Builder) Build(ctx context.Context, nodes *models.NodeSet, store *routes.Store) *models.PathSet {
	set := models.NewPathSet()
	hosts := nodes.Hosts()

	if b.workers > 1 {
		g, _ := errgroup.WithContext(ctx)
		g.SetLimit(b.workers)
		for _, src := range hosts {
			src := src
			g.Go(func() error {
				b.buildFrom(src, hosts, nodes, store, set)
				return nil
			})
		}
		// Workers only write disjoint path entries and never fail.
		_ = g.Wait()
	} else {
		for _, src := range hosts {
			b.buildFrom(src, hosts, nodes, store, set)
		}
	}

	b.logger.Info("path reconstruction finished",
		zap.Int("hosts", len(hosts)),
		zap.Int("paths", set.Len()),
	)
	return set
}

func (b *Builder) buildFrom(src *models.Node, hosts []*models.Node, nodes *models.NodeSet, store *routes.Store, set *models.PathSet) {
	if len(src.Edges()) == 0 {
		return
	}
	for _, dst := range hosts {
		if dst == src {
			continue
		}
		if p, ok := b.walk(src, dst, nodes.Len(), store); ok {
			set.Add(p)
		}
	}
}

// walk replays forwarding decisions from src toward dst. It fails when
// an intermediate node has no table, the table has no entry for dst,
// the egress port holds no link, or the hop count exceeds the subnet's
// node count (a routing loop).
func (b *Builder) walk(src, dst *models.Node, maxHops int, store *routes.Store) (*models.Path, bool) {
	first := src.FirstLink()
	if first == nil || first.Dest == nil {
		return nil, false
	}

	links := []*models.PhysicalLink{first}
	cur := first.Dest
	for cur != dst {
		if len(links) > maxHops {
			b.logger.Warn("forwarding loop detected",
				zap.String("src", src.ID),
				zap.String("dst", dst.ID),
			)
			return nil, false
		}
		port, ok := store.Port(cur.ID, dst.ID)
		if !ok {
			return nil, false
		}
		link := cur.LinkAt(port)
		if link == nil || link.Dest == nil {
			return nil, false
		}
		links = append(links, link)
		cur = link.Dest
	}

	return &models.Path{Src: src, Dst: dst, Links: links}, true
}
