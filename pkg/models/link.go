package models

// Edge is the logical adjacency from one node to another. A single edge
// may aggregate several physical links (multi-rail connections).
type Edge struct {
	// Dest is the canonical identifier of the destination node.
	Dest string

	// TotalGbits is the aggregate bandwidth of the constituent physical
	// links. It is maintained incrementally during ingestion.
	TotalGbits float64

	// LinkPorts holds the zero-based port indices of the constituent
	// physical links on the source node, in insertion order.
	LinkPorts []int

	// Reverse is the edge on the destination node pointing back here.
	// Non-owning; resolved after ingestion, nil when the dump never
	// recorded the opposite direction.
	Reverse *Edge

	// Partitions is the membership set, sized to the number of
	// discovered partitions once detection has run.
	Partitions []bool
}

// PhysicalLink is one port-to-port connection, the unit that routing
// and path reconstruction operate on.
type PhysicalLink struct {
	// ID is the creation-order identifier within one subnet's run.
	ID uint64

	// SrcPort and DestPort are 1-based port numbers.
	SrcPort  int
	DestPort int

	// Width and Speed are the transmission parameters as read from the
	// device, e.g. "4x" and "QDR".
	Width string
	Speed string

	// Gbits is the derived bandwidth. Links with an unrecognized speed
	// code carry the sentinel value 1, not a physical rate.
	Gbits float64

	Description string

	// Dest is the node at the far end of the link.
	Dest *Node

	// Edge and Node are the owning edge and owning (source) node.
	// Non-owning back-references.
	Edge *Edge
	Node *Node

	// Other is the link traveling the opposite direction, resolved
	// after ingestion. Nil when the dump is asymmetric.
	Other *PhysicalLink

	// Partitions is the membership set, allocated lazily during
	// partition propagation.
	Partitions []bool
}
