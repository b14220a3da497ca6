package models

// NodeType categorizes a fabric device.
type NodeType string

const (
	NodeTypeHost    NodeType = "host"
	NodeTypeSwitch  NodeType = "switch"
	NodeTypeUnknown NodeType = "unknown"
)

// NodeTypeFromToken maps a discovery-dump device token to a NodeType.
// "CA" is a channel adapter (compute host), "SW" a switch.
func NodeTypeFromToken(token string) NodeType {
	switch token {
	case "CA":
		return NodeTypeHost
	case "SW":
		return NodeTypeSwitch
	default:
		return NodeTypeUnknown
	}
}

// Node represents one physical device (host or switch) in one subnet.
//
// Physical links live in a port-indexed slice: the link leaving source
// port p is stored at index p-1, with nil holes for ports that were never
// seen. Edges are kept in insertion order so that walks over the graph
// are deterministic.
type Node struct {
	// ID is the canonical identifier derived from the device GUID
	// (four colon-separated groups of four hex characters).
	ID          string
	LID         int64
	Type        NodeType
	Description string
	Hostname    string

	// MainPartition is the index of the partition this host was assigned
	// to, or -1 until partition detection has run.
	MainPartition int

	// Partitions is the membership set, sized to the number of
	// discovered partitions once detection has run.
	Partitions []bool

	// Subnodes holds the internal sub-switches of a switch that is
	// logically split into several devices. Nil for plain nodes.
	Subnodes *NodeSet

	// Links is the port-indexed physical-link collection (port 1 at
	// index 0). It grows lazily to the highest port seen.
	Links []*PhysicalLink

	edges     map[string]*Edge
	edgeOrder []*Edge
}

// NewNode constructs a Node with an unassigned main partition.
func NewNode(id string, lid int64, typ NodeType, description string) *Node {
	return &Node{
		ID:            id,
		LID:           lid,
		Type:          typ,
		Description:   description,
		Hostname:      HostnameFromDescription(description),
		MainPartition: -1,
		edges:         make(map[string]*Edge),
	}
}

// Edge returns the edge toward the node with the given canonical
// identifier, or nil.
func (n *Node) Edge(destID string) *Edge {
	return n.edges[destID]
}

// EnsureEdge returns the edge toward destID, creating it if needed.
// At most one edge exists per destination.
func (n *Node) EnsureEdge(destID string) *Edge {
	if e, ok := n.edges[destID]; ok {
		return e
	}
	e := &Edge{Dest: destID}
	n.edges[destID] = e
	n.edgeOrder = append(n.edgeOrder, e)
	return e
}

// Edges returns the node's edges in insertion order.
func (n *Node) Edges() []*Edge {
	return n.edgeOrder
}

// LinkAt returns the physical link leaving the given 1-based source
// port, or nil if the port is unknown.
func (n *Node) LinkAt(port int) *PhysicalLink {
	idx := port - 1
	if idx < 0 || idx >= len(n.Links) {
		return nil
	}
	return n.Links[idx]
}

// SetLinkAt stores link at the given 1-based source port, growing the
// port collection as needed. It returns the link previously occupying
// the slot, if any.
func (n *Node) SetLinkAt(port int, link *PhysicalLink) *PhysicalLink {
	idx := port - 1
	if idx < 0 {
		return nil
	}
	for len(n.Links) <= idx {
		n.Links = append(n.Links, nil)
	}
	prev := n.Links[idx]
	n.Links[idx] = link
	return prev
}

// FirstLink returns the first physical link recorded for the node's
// first edge, in insertion order. This is the deterministic (but
// otherwise arbitrary) starting hop used by path reconstruction.
func (n *Node) FirstLink() *PhysicalLink {
	if len(n.edgeOrder) == 0 {
		return nil
	}
	e := n.edgeOrder[0]
	if len(e.LinkPorts) == 0 {
		return nil
	}
	idx := e.LinkPorts[0]
	if idx < 0 || idx >= len(n.Links) {
		return nil
	}
	return n.Links[idx]
}

// HostnameFromDescription extracts a hostname from a discovery-record
// description: an optional leading quote is skipped, then the maximal
// prefix of lowercase letters, digits, and hyphens is taken.
func HostnameFromDescription(desc string) string {
	if len(desc) > 0 && desc[0] == '\'' {
		desc = desc[1:]
	}
	i := 0
	for i < len(desc) {
		c := desc[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-' {
			i++
			continue
		}
		break
	}
	return desc[:i]
}
