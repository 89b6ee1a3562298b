package community

import (
	"sort"

	"github.com/agenthands/profitgraph/internal/core/model"
)

// Detector groups entities that are linked by refined relationships.
type Detector interface {
	Detect(entities []model.Entity, links []model.Triple) ([]Cluster, error)
}

// Cluster is a group of at least two related entities. Members are sorted
// by name.
type Cluster struct {
	Label   string         `json:"label"`
	Members []model.Entity `json:"members"`
}

// LabelPropagationDetector implements community detection using Label Propagation Algorithm (LPA).
type LabelPropagationDetector struct {
	MaxIterations int
}

func NewLabelPropagationDetector() *LabelPropagationDetector {
	return &LabelPropagationDetector{
		MaxIterations: 20,
	}
}

// Detect treats links as undirected. Parallel links between the same pair
// strengthen the connection. Links to unknown entities and self-loops are
// ignored. Clusters are ordered largest first, then by label.
func (d *LabelPropagationDetector) Detect(entities []model.Entity, links []model.Triple) ([]Cluster, error) {
	if len(entities) == 0 {
		return nil, nil
	}

	adj := make(map[string]map[string]int) // name -> neighbor -> weight
	byName := make(map[string]model.Entity)
	var names []string
	for _, e := range entities {
		if _, dup := byName[e.Name]; dup {
			continue
		}
		byName[e.Name] = e
		adj[e.Name] = make(map[string]int)
		names = append(names, e.Name)
	}

	for _, l := range links {
		if l.Source == l.Target {
			continue
		}
		if _, ok := byName[l.Source]; !ok {
			continue
		}
		if _, ok := byName[l.Target]; !ok {
			continue
		}
		adj[l.Source][l.Target]++
		adj[l.Target][l.Source]++
	}

	labels := make(map[string]string, len(names))
	for _, n := range names {
		labels[n] = n
	}

	for iter := 0; iter < d.MaxIterations; iter++ {
		changeCount := 0

		for _, u := range names {
			neighbors := adj[u]
			if len(neighbors) == 0 {
				continue
			}

			labelCounts := make(map[string]int)
			maxCount := 0
			for v, weight := range neighbors {
				label := labels[v]
				labelCounts[label] += weight
				if labelCounts[label] > maxCount {
					maxCount = labelCounts[label]
				}
			}

			// ties go to the lexicographically largest label
			var candidates []string
			for label, count := range labelCounts {
				if count == maxCount {
					candidates = append(candidates, label)
				}
			}
			sort.Strings(candidates)
			bestLabel := candidates[len(candidates)-1]

			if labels[u] != bestLabel {
				labels[u] = bestLabel
				changeCount++
			}
		}

		if changeCount == 0 {
			break
		}
	}

	groups := make(map[string][]model.Entity)
	for _, n := range names {
		groups[labels[n]] = append(groups[labels[n]], byName[n])
	}

	var clusters []Cluster
	for label, members := range groups {
		if len(members) < 2 {
			continue
		}
		sort.Slice(members, func(i, j int) bool { return members[i].Name < members[j].Name })
		clusters = append(clusters, Cluster{Label: label, Members: members})
	}
	sort.Slice(clusters, func(i, j int) bool {
		if len(clusters[i].Members) != len(clusters[j].Members) {
			return len(clusters[i].Members) > len(clusters[j].Members)
		}
		return clusters[i].Label < clusters[j].Label
	})

	return clusters, nil
}
