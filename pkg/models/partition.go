package models

// Partition is a named group of hosts inferred from hostname structure.
type Partition struct {
	Name  string
	Hosts []*Node
}
