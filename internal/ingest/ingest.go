// Package ingest turns per-subnet discovery dumps into the fabric graph:
// nodes deduplicated by canonical identifier, edges keyed by destination,
// and port-indexed physical links.
package ingest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"

	"github.com/fabriclens/fabriclens/pkg/models"
	"go.uber.org/zap"
)

var (
	// Directed-route lines carry no port information.
	drRE = regexp.MustCompile(`^DR`)

	// Linked-port line: both ends of an active connection plus width,
	// speed, and a parenthesized description.
	linkRE = regexp.MustCompile(`^(CA|SW)\s+(\d+)\s+(\d+)\s+0x([0-9a-f]{16})\s+(\d+x)\s(\S*)\s+-\s+(CA|SW)\s+(\d+)\s+(\d+)\s+0x([0-9a-f]{16})\s+\(\s*(.*)\s*\)`)

	// Unlinked-port line: source fields only, the port is inactive.
	noLinkRE = regexp.MustCompile(`^(CA|SW)\s+(\d+)\s+(\d+)\s+0x([0-9a-f]{16})`)

	// The description splits into source and destination halves.
	descSplitRE = regexp.MustCompile(`(.*)\s+-\s+(.*)`)
)

// Ingestor builds one subnet's graph. The anonymous-host and
// link-creation counters are scoped here, so a fresh Ingestor is used
// per subnet.
type Ingestor struct {
	logger *zap.Logger
	nodes  *models.NodeSet

	anonHosts uint
	nextLink  uint64
}

// New creates an Ingestor with an empty node set.
func New(logger *zap.Logger) *Ingestor {
	return &Ingestor{
		logger: logger,
		nodes:  models.NewNodeSet(),
	}
}

// Nodes returns the node set built so far.
func (ing *Ingestor) Nodes() *models.NodeSet {
	return ing.nodes
}

// IngestFile ingests a discovery file. A file that cannot be opened or
// read is fatal; malformed lines within it are logged and skipped.
func (ing *Ingestor) IngestFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open discovery file: %w", err)
	}
	defer f.Close()

	if err := ing.Ingest(f); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

// Ingest consumes discovery records from r and extends the graph. After
// all records are read, reverse links and reverse edges are resolved;
// this must happen last because a record may reference a node whose own
// records appear later in the dump.
func (ing *Ingestor) Ingest(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		ing.ingestLine(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	ing.resolveReverseLinks()
	ing.resolveReverseEdges()
	return nil
}

func (ing *Ingestor) ingestLine(line string) {
	if line == "" || drRE.MatchString(line) {
		return
	}

	if m := linkRE.FindStringSubmatch(line); m != nil {
		ing.ingestLinkedPort(m)
		return
	}

	if noLinkRE.MatchString(line) {
		// The port exists but has no peer; nothing to add.
		return
	}

	ing.logger.Warn("unrecognized discovery line", zap.String("line", line))
}

func (ing *Ingestor) ingestLinkedPort(m []string) {
	var (
		srcType, srcLID, srcPort, srcGUID = m[1], m[2], m[3], m[4]
		width, speed                      = m[5], m[6]
		dstType, dstLID, dstPort, dstGUID = m[7], m[8], m[9], m[10]
		linkDesc                          = m[11]
	)

	srcDesc, dstDesc := splitDescription(linkDesc)

	src, err := ing.resolveNode(srcType, srcLID, srcGUID, srcDesc)
	if err != nil {
		ing.logger.Warn("bad source device", zap.Error(err))
		return
	}
	dst, err := ing.resolveNode(dstType, dstLID, dstGUID, dstDesc)
	if err != nil {
		ing.logger.Warn("bad destination device", zap.Error(err))
		return
	}

	srcPortNum, _ := strconv.Atoi(srcPort)
	dstPortNum, _ := strconv.Atoi(dstPort)

	edge := src.EnsureEdge(dst.ID)

	link := &models.PhysicalLink{
		ID:          ing.nextLink,
		SrcPort:     srcPortNum,
		DestPort:    dstPortNum,
		Width:       width,
		Speed:       speed,
		Gbits:       models.LinkGbits(speed, width),
		Description: linkDesc,
		Dest:        dst,
		Edge:        edge,
		Node:        src,
	}
	ing.nextLink++

	// A repeated record for the same port replaces the slot instead of
	// double-counting its bandwidth on the edge.
	if prev := src.SetLinkAt(srcPortNum, link); prev != nil {
		prev.Edge.TotalGbits -= prev.Gbits
		removePort(prev.Edge, srcPortNum-1)
	}

	edge.TotalGbits += link.Gbits
	edge.LinkPorts = append(edge.LinkPorts, srcPortNum-1)
}

// resolveNode returns the node for the given GUID, creating it on first
// sight. Creation is idempotent: later records with the same identifier
// return the existing node unmodified.
func (ing *Ingestor) resolveNode(typeToken, lid, guid, desc string) (*models.Node, error) {
	id, err := models.CanonicalID(guid)
	if err != nil {
		return nil, err
	}
	if n := ing.nodes.Get(id); n != nil {
		return n, nil
	}

	lidNum, _ := strconv.ParseInt(lid, 10, 64)
	n := models.NewNode(id, lidNum, models.NodeTypeFromToken(typeToken), desc)
	if n.Type == models.NodeTypeHost && n.Hostname == "" {
		n.Hostname = fmt.Sprintf("ANONYMOUS-%d", ing.anonHosts)
		ing.anonHosts++
	}
	ing.nodes.Add(n)
	return n, nil
}

// resolveReverseLinks fills in each link's opposite-direction link by
// looking up the slot at the recorded destination port on the
// destination node. An asymmetric dump leaves Other nil.
func (ing *Ingestor) resolveReverseLinks() {
	for _, node := range ing.nodes.Nodes() {
		if node.Subnodes != nil {
			for _, sub := range node.Subnodes.Nodes() {
				resolveNodeReverseLinks(sub)
			}
			continue
		}
		resolveNodeReverseLinks(node)
	}
}

func resolveNodeReverseLinks(node *models.Node) {
	for _, link := range node.Links {
		if link == nil || link.Dest == nil {
			continue
		}
		link.Other = link.Dest.LinkAt(link.DestPort)
	}
}

// resolveReverseEdges points each edge at the destination node's edge
// back to the source, when one exists.
func (ing *Ingestor) resolveReverseEdges() {
	for _, node := range ing.nodes.Nodes() {
		for _, edge := range node.Edges() {
			dest := ing.nodes.Get(edge.Dest)
			if dest == nil {
				continue
			}
			edge.Reverse = dest.Edge(node.ID)
		}
	}
}

// splitDescription splits a link description on its " - " separator
// into source-side and destination-side halves. Without a separator
// both halves are empty.
func splitDescription(desc string) (string, string) {
	m := descSplitRE.FindStringSubmatch(desc)
	if m == nil {
		return "", ""
	}
	return m[1], m[2]
}

func removePort(e *models.Edge, portIdx int) {
	for i, p := range e.LinkPorts {
		if p == portIdx {
			e.LinkPorts = append(e.LinkPorts[:i], e.LinkPorts[i+1:]...)
			return
		}
	}
}
