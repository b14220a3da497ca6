package models

import (
	"sort"
	"sync"
)

// Path is the ordered sequence of physical links carrying traffic from
// one host to another. Paths exist only between HOST nodes and only
// when every forwarding decision along the way could be replayed.
type Path struct {
	Src   *Node
	Dst   *Node
	Links []*PhysicalLink
}

// PathSet owns one subnet's reconstructed paths, keyed by source-host
// identifier then destination-host identifier. Insertion is safe for
// concurrent use; the pairwise reconstructions write disjoint entries.
type PathSet struct {
	mu    sync.Mutex
	bySrc map[string]map[string]*Path
	count int
}

// NewPathSet creates an empty path set.
func NewPathSet() *PathSet {
	return &PathSet{bySrc: make(map[string]map[string]*Path)}
}

// Add records a reconstructed path, replacing any previous entry for
// the same (source, destination) pair.
func (s *PathSet) Add(p *Path) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dests, ok := s.bySrc[p.Src.ID]
	if !ok {
		dests = make(map[string]*Path)
		s.bySrc[p.Src.ID] = dests
	}
	if _, exists := dests[p.Dst.ID]; !exists {
		s.count++
	}
	dests[p.Dst.ID] = p
}

// Get returns the path from src to dst, or nil when no route is known.
func (s *PathSet) Get(srcID, dstID string) *Path {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bySrc[srcID][dstID]
}

// Len returns the number of recorded paths.
func (s *PathSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Sorted returns all paths ordered by (source, destination) identifier.
func (s *PathSet) Sorted() []*Path {
	s.mu.Lock()
	defer s.mu.Unlock()
	paths := make([]*Path, 0, s.count)
	for _, dests := range s.bySrc {
		for _, p := range dests {
			paths = append(paths, p)
		}
	}
	sort.Slice(paths, func(i, j int) bool {
		if paths[i].Src.ID != paths[j].Src.ID {
			return paths[i].Src.ID < paths[j].Src.ID
		}
		return paths[i].Dst.ID < paths[j].Dst.ID
	})
	return paths
}
