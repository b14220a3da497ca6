// Package export writes the finished, partition-annotated fabric graph
// as a portable YAML topology description, one document per subnet.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fabriclens/fabriclens/internal/version"
	"github.com/fabriclens/fabriclens/pkg/models"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Document is the root of one subnet's topology description.
type Document struct {
	Subnet     string         `yaml:"subnet"`
	Generator  Generator      `yaml:"generator"`
	HwlocDir   string         `yaml:"hwloc_dir,omitempty"`
	Partitions []PartitionDoc `yaml:"partitions"`
	Nodes      []NodeDoc      `yaml:"nodes"`
	Paths      []PathDoc      `yaml:"paths"`
}

// Generator records which tool produced the document.
type Generator struct {
	Tool        string `yaml:"tool"`
	Version     string `yaml:"version"`
	GeneratedAt string `yaml:"generated_at"`
}

type PartitionDoc struct {
	Name  string   `yaml:"name"`
	Hosts []string `yaml:"hosts"`
}

type NodeDoc struct {
	ID            string    `yaml:"id"`
	LID           int64     `yaml:"lid"`
	Type          string    `yaml:"type"`
	Hostname      string    `yaml:"hostname"`
	Description   string    `yaml:"description,omitempty"`
	MainPartition int       `yaml:"main_partition"`
	Partitions    []string  `yaml:"partitions,omitempty"`
	Edges         []EdgeDoc `yaml:"edges,omitempty"`
	Links         []LinkDoc `yaml:"links,omitempty"`
}

type EdgeDoc struct {
	Dest       string   `yaml:"dest"`
	Gbits      float64  `yaml:"gbits"`
	LinkCount  int      `yaml:"link_count"`
	Partitions []string `yaml:"partitions,omitempty"`
}

type LinkDoc struct {
	ID         uint64   `yaml:"id"`
	SrcPort    int      `yaml:"src_port"`
	DestPort   int      `yaml:"dest_port"`
	Width      string   `yaml:"width"`
	Speed      string   `yaml:"speed"`
	Gbits      float64  `yaml:"gbits"`
	Dest       string   `yaml:"dest"`
	Reversed   bool     `yaml:"reverse_resolved"`
	Partitions []string `yaml:"partitions,omitempty"`
}

type PathDoc struct {
	Src  string   `yaml:"src"`
	Dst  string   `yaml:"dst"`
	Hops []uint64 `yaml:"hops"`
}

// Writer emits topology descriptions into an output directory.
type Writer struct {
	logger   *zap.Logger
	outDir   string
	hwlocDir string
}

// NewWriter creates a Writer. hwlocDir may be empty; when set it is
// recorded verbatim in each document and its contents stay opaque.
func NewWriter(logger *zap.Logger, outDir, hwlocDir string) *Writer {
	return &Writer{logger: logger, outDir: outDir, hwlocDir: hwlocDir}
}

// Write serializes one subnet's graph to ib-topo-<subnet>.yaml and
// returns the written path. Ordering follows the graph's insertion
// order throughout, so output is stable for a given input set.
func (w *Writer) Write(subnet string, nodes *models.NodeSet, partitions []*models.Partition, pathSet *models.PathSet) (string, error) {
	doc := BuildDocument(subnet, w.hwlocDir, nodes, partitions, pathSet)

	data, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal topology: %w", err)
	}

	path := filepath.Join(w.outDir, "ib-topo-"+subnet+".yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write topology: %w", err)
	}

	w.logger.Info("topology written",
		zap.String("subnet", subnet),
		zap.String("path", path),
	)
	return path, nil
}

// BuildDocument converts the annotated graph into its serializable form.
func BuildDocument(subnet, hwlocDir string, nodes *models.NodeSet, partitions []*models.Partition, pathSet *models.PathSet) *Document {
	doc := &Document{
		Subnet: subnet,
		Generator: Generator{
			Tool:        "fabriclens",
			Version:     version.Short(),
			GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		},
		HwlocDir: hwlocDir,
	}

	for _, p := range partitions {
		pd := PartitionDoc{Name: p.Name}
		for _, h := range p.Hosts {
			pd.Hosts = append(pd.Hosts, h.Hostname)
		}
		doc.Partitions = append(doc.Partitions, pd)
	}

	for _, n := range nodes.Nodes() {
		nd := NodeDoc{
			ID:            n.ID,
			LID:           n.LID,
			Type:          string(n.Type),
			Hostname:      n.Hostname,
			Description:   n.Description,
			MainPartition: n.MainPartition,
			Partitions:    partitionNames(n.Partitions, partitions),
		}
		for _, e := range n.Edges() {
			nd.Edges = append(nd.Edges, EdgeDoc{
				Dest:       e.Dest,
				Gbits:      e.TotalGbits,
				LinkCount:  len(e.LinkPorts),
				Partitions: partitionNames(e.Partitions, partitions),
			})
		}
		for _, l := range n.Links {
			if l == nil {
				continue
			}
			nd.Links = append(nd.Links, LinkDoc{
				ID:         l.ID,
				SrcPort:    l.SrcPort,
				DestPort:   l.DestPort,
				Width:      l.Width,
				Speed:      l.Speed,
				Gbits:      l.Gbits,
				Dest:       l.Dest.ID,
				Reversed:   l.Other != nil,
				Partitions: partitionNames(l.Partitions, partitions),
			})
		}
		doc.Nodes = append(doc.Nodes, nd)
	}

	for _, p := range pathSet.Sorted() {
		pd := PathDoc{Src: p.Src.Hostname, Dst: p.Dst.Hostname}
		for _, l := range p.Links {
			pd.Hops = append(pd.Hops, l.ID)
		}
		doc.Paths = append(doc.Paths, pd)
	}

	return doc
}

func partitionNames(membership []bool, partitions []*models.Partition) []string {
	var names []string
	for i, in := range membership {
		if in && i < len(partitions) {
			names = append(names, partitions[i].Name)
		}
	}
	return names
}
