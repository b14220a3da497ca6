package export

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/fabriclens/fabriclens/internal/ingest"
	"github.com/fabriclens/fabriclens/internal/partition"
	"github.com/fabriclens/fabriclens/internal/paths"
	"github.com/fabriclens/fabriclens/internal/routes"
	"github.com/fabriclens/fabriclens/internal/testutil"
	"github.com/fabriclens/fabriclens/pkg/models"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func annotatedFixture(t *testing.T) (*models.NodeSet, []*models.Partition, *models.PathSet) {
	t.Helper()
	ing := ingest.New(zap.NewNop())
	if err := ing.Ingest(strings.NewReader(testutil.FixtureDiscovery)); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	nodes := ing.Nodes()

	store := routes.NewStore(zap.NewNop())
	if err := store.Load(strings.NewReader(testutil.FixtureRoutes), "fixture"); err != nil {
		t.Fatalf("load routes: %v", err)
	}
	pathSet := paths.New(zap.NewNop(), 1).Build(context.Background(), nodes, store)

	parts := partition.Detect(nodes, zap.NewNop())
	partition.Propagate(parts, pathSet)
	return nodes, parts, pathSet
}

func TestWriter_Write(t *testing.T) {
	nodes, parts, pathSet := annotatedFixture(t)

	outDir := t.TempDir()
	w := NewWriter(zap.NewNop(), outDir, "")
	path, err := w.Write(testutil.FixtureSubnet, nodes, parts, pathSet)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}

	if doc.Subnet != testutil.FixtureSubnet {
		t.Errorf("subnet = %q, want %q", doc.Subnet, testutil.FixtureSubnet)
	}
	if doc.Generator.Tool != "fabriclens" {
		t.Errorf("generator tool = %q, want fabriclens", doc.Generator.Tool)
	}
	if len(doc.Nodes) != 3 {
		t.Errorf("node count = %d, want 3", len(doc.Nodes))
	}
	if len(doc.Partitions) != 1 || doc.Partitions[0].Name != "gpu" {
		t.Errorf("partitions = %v, want single gpu partition", doc.Partitions)
	}
	if len(doc.Paths) != 2 {
		t.Errorf("path count = %d, want 2", len(doc.Paths))
	}
}

func TestBuildDocument_LinkAnnotations(t *testing.T) {
	nodes, parts, pathSet := annotatedFixture(t)
	doc := BuildDocument(testutil.FixtureSubnet, "/opt/hwloc", nodes, parts, pathSet)

	if doc.HwlocDir != "/opt/hwloc" {
		t.Errorf("hwloc_dir = %q, want /opt/hwloc", doc.HwlocDir)
	}

	for _, nd := range doc.Nodes {
		for _, ld := range nd.Links {
			if !ld.Reversed {
				t.Errorf("link %d in the symmetric fixture should have its reverse resolved", ld.ID)
			}
			if len(ld.Partitions) != 1 || ld.Partitions[0] != "gpu" {
				t.Errorf("link %d partitions = %v, want [gpu]", ld.ID, ld.Partitions)
			}
		}
	}

	// Path hops reference link creation-order identifiers.
	for _, pd := range doc.Paths {
		if len(pd.Hops) != 2 {
			t.Errorf("path %s->%s hops = %v, want 2 entries", pd.Src, pd.Dst, pd.Hops)
		}
	}
}

func TestBuildDocument_Deterministic(t *testing.T) {
	nodes, parts, pathSet := annotatedFixture(t)

	a := BuildDocument(testutil.FixtureSubnet, "", nodes, parts, pathSet)
	b := BuildDocument(testutil.FixtureSubnet, "", nodes, parts, pathSet)

	a.Generator.GeneratedAt = ""
	b.Generator.GeneratedAt = ""
	ya, _ := yaml.Marshal(a)
	yb, _ := yaml.Marshal(b)
	if string(ya) != string(yb) {
		t.Error("document build should be deterministic apart from the timestamp")
	}
}
