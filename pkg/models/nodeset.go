package models

// NodeSet is the owning collection of nodes for one subnet, keyed by
// canonical identifier and iterable in insertion order.
type NodeSet struct {
	byID  map[string]*Node
	order []*Node
}

// NewNodeSet creates an empty node set.
func NewNodeSet() *NodeSet {
	return &NodeSet{byID: make(map[string]*Node)}
}

// Get returns the node with the given canonical identifier, or nil.
func (s *NodeSet) Get(id string) *Node {
	return s.byID[id]
}

// Add inserts a node. Adding an identifier that is already present is a
// no-op returning false; callers resolve before constructing.
func (s *NodeSet) Add(n *Node) bool {
	if _, ok := s.byID[n.ID]; ok {
		return false
	}
	s.byID[n.ID] = n
	s.order = append(s.order, n)
	return true
}

// Len returns the number of nodes.
func (s *NodeSet) Len() int {
	return len(s.order)
}

// Nodes returns all nodes in insertion order.
func (s *NodeSet) Nodes() []*Node {
	return s.order
}

// Hosts returns the HOST-type nodes in insertion order.
func (s *NodeSet) Hosts() []*Node {
	var hosts []*Node
	for _, n := range s.order {
		if n.Type == NodeTypeHost {
			hosts = append(hosts, n)
		}
	}
	return hosts
}
