package paths

import (
	"context"
	"strings"
	"testing"

	"github.com/fabriclens/fabriclens/internal/ingest"
	"github.com/fabriclens/fabriclens/internal/routes"
	"github.com/fabriclens/fabriclens/internal/testutil"
	"github.com/fabriclens/fabriclens/pkg/models"
	"go.uber.org/zap"
)

func buildFixture(t *testing.T) (*models.NodeSet, *routes.Store) {
	t.Helper()
	ing := ingest.New(zap.NewNop())
	if err := ing.Ingest(strings.NewReader(testutil.FixtureDiscovery)); err != nil {
		t.Fatalf("ingest fixture: %v", err)
	}
	store := routes.NewStore(zap.NewNop())
	if err := store.Load(strings.NewReader(testutil.FixtureRoutes), "fixture"); err != nil {
		t.Fatalf("load fixture routes: %v", err)
	}
	return ing.Nodes(), store
}

func TestBuild_Fixture(t *testing.T) {
	nodes, store := buildFixture(t)
	set := New(zap.NewNop(), 1).Build(context.Background(), nodes, store)

	if set.Len() != 2 {
		t.Fatalf("path count = %d, want 2 (both directions)", set.Len())
	}

	p := set.Get(testutil.FixtureHost1ID, testutil.FixtureHost2ID)
	if p == nil {
		t.Fatal("path h1->h2 missing")
	}
	if len(p.Links) != 2 {
		t.Fatalf("hop count = %d, want 2", len(p.Links))
	}
	if p.Links[0].Node.ID != testutil.FixtureHost1ID {
		t.Error("first hop should leave the source host")
	}
	if p.Links[len(p.Links)-1].Dest.ID != testutil.FixtureHost2ID {
		t.Error("last hop should arrive at the destination host")
	}
}

// Walking a path must visit each node at most once and stay within the
// subnet's node count.
func TestBuild_PathWellFormed(t *testing.T) {
	nodes, store := buildFixture(t)
	set := New(zap.NewNop(), 1).Build(context.Background(), nodes, store)

	for _, p := range set.Sorted() {
		if len(p.Links) > nodes.Len() {
			t.Errorf("path %s->%s has %d hops, more than %d nodes",
				p.Src.ID, p.Dst.ID, len(p.Links), nodes.Len())
		}
		visited := map[string]bool{p.Src.ID: true}
		for _, l := range p.Links {
			if visited[l.Dest.ID] {
				t.Errorf("path %s->%s revisits %s", p.Src.ID, p.Dst.ID, l.Dest.ID)
			}
			visited[l.Dest.ID] = true
		}
	}
}

func TestBuild_MissingRouteEntry(t *testing.T) {
	nodes, _ := buildFixture(t)

	// The switch only knows how to reach gpu-0001.
	partial := "Unicast lids [0x0-0x1] of switch DR path slid 0; dlid 0; 0 guid 0xcccc000000000001 (edgesw-01):\n" +
		"0x0001 001 : (Channel Adapter portguid 0xaaaa000000000001: 'gpu-0001')\n"
	store := routes.NewStore(zap.NewNop())
	if err := store.Load(strings.NewReader(partial), "partial"); err != nil {
		t.Fatalf("load partial routes: %v", err)
	}

	set := New(zap.NewNop(), 1).Build(context.Background(), nodes, store)
	if set.Get(testutil.FixtureHost2ID, testutil.FixtureHost1ID) == nil {
		t.Error("path h2->h1 should exist")
	}
	if set.Get(testutil.FixtureHost1ID, testutil.FixtureHost2ID) != nil {
		t.Error("path h1->h2 should be absent when the table lacks an entry")
	}
}

func TestBuild_EmptyStore(t *testing.T) {
	nodes, _ := buildFixture(t)
	set := New(zap.NewNop(), 1).Build(context.Background(), nodes, routes.NewStore(zap.NewNop()))
	if set.Len() != 0 {
		t.Errorf("path count without routes = %d, want 0", set.Len())
	}
}

func TestBuild_ForwardingLoop(t *testing.T) {
	dump := strings.Join([]string{
		"CA   1  1  0xaaaa000000000001 4x QDR - SW  10  1  0xcccc000000000001 ( 'gpu-0001 HCA-1' - 'sw-a' )",
		"SW  10  1  0xcccc000000000001 4x QDR - CA   1  1  0xaaaa000000000001 ( 'sw-a' - 'gpu-0001 HCA-1' )",
		"SW  10  2  0xcccc000000000001 4x QDR - SW  20  1  0xcccc000000000002 ( 'sw-a' - 'sw-b' )",
		"SW  20  1  0xcccc000000000002 4x QDR - SW  10  2  0xcccc000000000001 ( 'sw-b' - 'sw-a' )",
		"SW  20  2  0xcccc000000000002 4x QDR - CA   2  1  0xaaaa000000000002 ( 'sw-b' - 'gpu-0002 HCA-1' )",
		"CA   2  1  0xaaaa000000000002 4x QDR - SW  20  2  0xcccc000000000002 ( 'gpu-0002 HCA-1' - 'sw-b' )",
	}, "\n") + "\n"

	// sw-a forwards gpu-0002 toward sw-b, which forwards it straight back.
	loopRoutes := strings.Join([]string{
		"Unicast lids [0x0-0x2] of switch DR path slid 0; dlid 0; 0 guid 0xcccc000000000001 (sw-a):",
		"0x0001 001 : (Channel Adapter portguid 0xaaaa000000000001: 'gpu-0001')",
		"0x0002 002 : (Channel Adapter portguid 0xaaaa000000000002: 'gpu-0002')",
		"Unicast lids [0x0-0x2] of switch DR path slid 0; dlid 0; 0 guid 0xcccc000000000002 (sw-b):",
		"0x0001 001 : (Channel Adapter portguid 0xaaaa000000000001: 'gpu-0001')",
		"0x0002 001 : (Channel Adapter portguid 0xaaaa000000000002: 'gpu-0002')",
	}, "\n") + "\n"

	ing := ingest.New(zap.NewNop())
	if err := ing.Ingest(strings.NewReader(dump)); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	store := routes.NewStore(zap.NewNop())
	if err := store.Load(strings.NewReader(loopRoutes), "loop"); err != nil {
		t.Fatalf("load routes: %v", err)
	}

	set := New(zap.NewNop(), 1).Build(context.Background(), ing.Nodes(), store)
	if set.Get(testutil.FixtureHost1ID, testutil.FixtureHost2ID) != nil {
		t.Error("a forwarding loop must not produce a path")
	}
	// The reverse direction is routed correctly.
	if set.Get(testutil.FixtureHost2ID, testutil.FixtureHost1ID) == nil {
		t.Error("path h2->h1 should exist")
	}
}

func TestBuild_ParallelMatchesSequential(t *testing.T) {
	nodes, store := buildFixture(t)

	sequential := New(zap.NewNop(), 1).Build(context.Background(), nodes, store)
	parallel := New(zap.NewNop(), 4).Build(context.Background(), nodes, store)

	if sequential.Len() != parallel.Len() {
		t.Fatalf("parallel path count = %d, sequential = %d", parallel.Len(), sequential.Len())
	}
	for _, p := range sequential.Sorted() {
		q := parallel.Get(p.Src.ID, p.Dst.ID)
		if q == nil {
			t.Fatalf("parallel build missing path %s->%s", p.Src.ID, p.Dst.ID)
		}
		if len(q.Links) != len(p.Links) {
			t.Errorf("path %s->%s: parallel %d hops, sequential %d",
				p.Src.ID, p.Dst.ID, len(q.Links), len(p.Links))
		}
	}
}
