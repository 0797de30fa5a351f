// Package graph builds the file dependency graph of a talon package and
// computes PageRank over it.
package graph

import (
	"math"
	"sort"

	"github.com/phobologic/talondoc/internal/model"
)

type symbol struct {
	kind model.Kind
	name string
}

// BuildGraph creates dependency edges from symbol uses. A file that uses a
// symbol depends on every other file declaring or overriding it.
func BuildGraph(files []*model.FileInfo) []model.Dependency {
	// symbol → set of files that declare or override it
	providers := make(map[symbol]map[string]struct{})
	provide := func(s symbol, path string) {
		if providers[s] == nil {
			providers[s] = make(map[string]struct{})
		}
		providers[s][path] = struct{}{}
	}
	for _, fi := range files {
		for kind, byName := range fi.Declarations {
			for name := range byName {
				provide(symbol{kind, name}, fi.Path)
			}
		}
		for kind, byName := range fi.Overrides {
			for name := range byName {
				provide(symbol{kind, name}, fi.Path)
			}
		}
	}

	type edgeKey struct{ src, tgt string }
	edgeSymbols := make(map[edgeKey]map[string]struct{})

	for _, fi := range files {
		for kind, names := range fi.Uses {
			for name := range names {
				for target := range providers[symbol{kind, name}] {
					if target == fi.Path {
						continue // no self-edges
					}
					key := edgeKey{fi.Path, target}
					if edgeSymbols[key] == nil {
						edgeSymbols[key] = make(map[string]struct{})
					}
					edgeSymbols[key][name] = struct{}{}
				}
			}
		}
	}

	deps := make([]model.Dependency, 0, len(edgeSymbols))
	for key, syms := range edgeSymbols {
		deps = append(deps, model.Dependency{
			Source:  key.src,
			Target:  key.tgt,
			Symbols: sortedKeys(syms),
		})
	}

	sort.Slice(deps, func(i, j int) bool {
		if deps[i].Source != deps[j].Source {
			return deps[i].Source < deps[j].Source
		}
		return deps[i].Target < deps[j].Target
	})

	return deps
}

// Rank applies PageRank to files and sorts them by rank descending, breaking
// ties by path.
func Rank(files []model.FileEntry, deps []model.Dependency) {
	if len(files) == 0 {
		return
	}

	if len(deps) == 0 {
		uniform := 1.0 / float64(len(files))
		for i := range files {
			files[i].Rank = uniform
		}
		sortByRank(files)
		return
	}

	// Edge from source to target means source uses a symbol target provides.
	// Each symbol is a separate edge.
	outEdges := make(map[string][]string)
	outDegree := make(map[string]int)
	nodes := make(map[string]struct{})

	for i := range files {
		nodes[files[i].Path] = struct{}{}
	}

	for _, d := range deps {
		for range d.Symbols {
			outEdges[d.Source] = append(outEdges[d.Source], d.Target)
			outDegree[d.Source]++
		}
	}

	ranks := pageRank(nodes, outEdges, outDegree, 0.85, 100, 1e-6)

	for i := range files {
		files[i].Rank = ranks[files[i].Path]
	}
	sortByRank(files)
}

func sortByRank(files []model.FileEntry) {
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].Rank != files[j].Rank {
			return files[i].Rank > files[j].Rank
		}
		return files[i].Path < files[j].Path
	})
}

func pageRank(
	nodes map[string]struct{},
	outEdges map[string][]string,
	outDegree map[string]int,
	alpha float64,
	maxIter int,
	tol float64,
) map[string]float64 {
	n := len(nodes)
	if n == 0 {
		return nil
	}

	rank := make(map[string]float64, n)
	initial := 1.0 / float64(n)
	for node := range nodes {
		rank[node] = initial
	}

	teleport := (1.0 - alpha) / float64(n)

	for iter := 0; iter < maxIter; iter++ {
		newRank := make(map[string]float64, n)

		// Nodes with no outgoing edges spread their rank evenly.
		var danglingSum float64
		for node := range nodes {
			if outDegree[node] == 0 {
				danglingSum += rank[node]
			}
		}
		danglingContrib := alpha * danglingSum / float64(n)

		for node := range nodes {
			newRank[node] = teleport + danglingContrib
		}

		for src, targets := range outEdges {
			contrib := alpha * rank[src] / float64(outDegree[src])
			for _, tgt := range targets {
				if _, ok := nodes[tgt]; ok {
					newRank[tgt] += contrib
				}
			}
		}

		var diff float64
		for node := range nodes {
			diff += math.Abs(newRank[node] - rank[node])
		}

		rank = newRank

		if diff < tol {
			break
		}
	}

	return rank
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
