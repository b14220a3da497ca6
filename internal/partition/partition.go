// Package partition clusters hosts into named partitions from their
// hostnames and propagates membership onto the graph elements that
// carry intra-partition traffic.
package partition

import (
	"github.com/fabriclens/fabriclens/pkg/models"
	"go.uber.org/zap"
)

// NameFromHostname derives a candidate partition name: the maximal
// prefix of ASCII letters and hyphens, with trailing hyphens stripped.
// "gpu-0012" -> "gpu", "login02" -> "login".
func NameFromHostname(hostname string) string {
	i := 0
	for i < len(hostname) {
		c := hostname[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '-' {
			i++
			continue
		}
		break
	}
	for i > 0 && hostname[i-1] == '-' {
		i--
	}
	return hostname[:i]
}

// Detect groups hosts by candidate partition name, assigns each host's
// main-partition index, and allocates the membership sets on every node
// and edge. Hosts with an empty candidate name share one partition.
func Detect(nodes *models.NodeSet, logger *zap.Logger) []*models.Partition {
	var partitions []*models.Partition
	index := make(map[string]int)

	for _, host := range nodes.Hosts() {
		name := NameFromHostname(host.Hostname)
		idx, ok := index[name]
		if !ok {
			idx = len(partitions)
			index[name] = idx
			partitions = append(partitions, &models.Partition{Name: name})
		}
		p := partitions[idx]
		p.Hosts = append(p.Hosts, host)
		host.MainPartition = idx
	}

	for _, node := range nodes.Nodes() {
		node.Partitions = make([]bool, len(partitions))
		if node.MainPartition >= 0 {
			node.Partitions[node.MainPartition] = true
		}
		for _, edge := range node.Edges() {
			edge.Partitions = make([]bool, len(partitions))
		}
	}

	logger.Info("partitions detected", zap.Int("count", len(partitions)))
	for _, p := range partitions {
		logger.Debug("partition",
			zap.String("name", p.Name),
			zap.Int("hosts", len(p.Hosts)),
		)
	}
	return partitions
}

// Propagate marks every physical link on an intra-partition path, plus
// its owning edge and node, as belonging to that partition. The link
// traveling the opposite direction is marked symmetrically when the
// dump resolved one.
func Propagate(partitions []*models.Partition, paths *models.PathSet) {
	n := len(partitions)
	for _, path := range paths.Sorted() {
		p := path.Src.MainPartition
		if p < 0 || path.Dst.MainPartition != p {
			continue
		}
		for _, link := range path.Links {
			markLink(link, p, n)
			if link.Other != nil {
				markLink(link.Other, p, n)
			}
		}
	}
}

func markLink(link *models.PhysicalLink, p, numPartitions int) {
	if link.Partitions == nil {
		link.Partitions = make([]bool, numPartitions)
	}
	link.Partitions[p] = true
	if link.Node != nil && p < len(link.Node.Partitions) {
		link.Node.Partitions[p] = true
	}
	if link.Edge != nil && p < len(link.Edge.Partitions) {
		link.Edge.Partitions[p] = true
	}
}
