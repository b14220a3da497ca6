package archive

import "github.com/fabriclens/fabriclens/pkg/models"

// Summarize flattens one subnet's annotated graph into an archivable Run.
func Summarize(subnet string, nodes *models.NodeSet, partitions []*models.Partition, pathSet *models.PathSet) Run {
	run := Run{
		Subnet: subnet,
		Nodes:  nodes.Len(),
		Paths:  pathSet.Len(),
	}

	for _, n := range nodes.Nodes() {
		run.Edges += len(n.Edges())
		for _, l := range n.Links {
			if l != nil {
				run.Links++
			}
		}
	}

	for _, p := range partitions {
		run.Partitions = append(run.Partitions, PartitionSummary{
			Name:  p.Name,
			Hosts: len(p.Hosts),
		})
	}

	for _, h := range nodes.Hosts() {
		row := HostRow{GUID: h.ID, Hostname: h.Hostname, LID: h.LID}
		if h.MainPartition >= 0 && h.MainPartition < len(partitions) {
			row.Partition = partitions[h.MainPartition].Name
		}
		run.Hosts = append(run.Hosts, row)
	}

	return run
}
