// SPDX-License-Identifier: MPL-2.0

package depgraph

import (
	"fmt"
	"slices"
	"strings"
)

type (
	// CycleError reports files that import each other, directly or
	// transitively. Loading tolerates cycles; LoadOrder does not.
	CycleError struct {
		// Cycle contains the nodes left unordered, in insertion order.
		Cycle []string
	}

	// Graph records which file imported which artifact. Nodes are locations
	// (paths, URLs or builtin:<name>). Graph is not safe for concurrent use;
	// the driver writes to it only from its sequential resolve step.
	Graph struct {
		// before maps a dependency to the importers that need it first.
		before map[string][]string
		// deps maps an importer to its direct dependencies, in import order.
		deps    map[string][]string
		nodes   []string
		nodeSet map[string]bool
	}
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("import cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

// NewGraph creates an empty Graph.
func NewGraph() *Graph {
	return &Graph{
		before:  make(map[string][]string),
		deps:    make(map[string][]string),
		nodeSet: make(map[string]bool),
	}
}

// AddNode adds a node. Adding an existing node is a no-op.
func (g *Graph) AddNode(name string) {
	if g.nodeSet[name] {
		return
	}
	g.nodeSet[name] = true
	g.nodes = append(g.nodes, name)
}

// AddEdge records that importer imports dependency. Repeated edges are
// recorded once.
func (g *Graph) AddEdge(importer, dependency string) {
	g.AddNode(importer)
	g.AddNode(dependency)
	if slices.Contains(g.deps[importer], dependency) {
		return
	}
	g.deps[importer] = append(g.deps[importer], dependency)
	g.before[dependency] = append(g.before[dependency], importer)
}

// Nodes returns every node in insertion order.
func (g *Graph) Nodes() []string { return slices.Clone(g.nodes) }

// Dependencies returns the direct dependencies of node in import order.
func (g *Graph) Dependencies(node string) []string { return slices.Clone(g.deps[node]) }

// LoadOrder returns the nodes with every dependency ahead of its importers
// (Kahn's algorithm). Independent nodes keep insertion order. A cycle
// yields a *CycleError.
func (g *Graph) LoadOrder() ([]string, error) {
	if len(g.nodes) == 0 {
		return nil, nil
	}

	pending := make(map[string]int, len(g.nodes))
	for _, node := range g.nodes {
		pending[node] = len(g.deps[node])
	}

	queue := make([]string, 0, len(g.nodes))
	for _, node := range g.nodes {
		if pending[node] == 0 {
			queue = append(queue, node)
		}
	}

	order := make([]string, 0, len(g.nodes))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)

		for _, importer := range g.before[node] {
			pending[importer]--
			if pending[importer] == 0 {
				queue = append(queue, importer)
			}
		}
	}

	if len(order) != len(g.nodes) {
		var cycle []string
		for _, node := range g.nodes {
			if pending[node] > 0 {
				cycle = append(cycle, node)
			}
		}
		return nil, &CycleError{Cycle: cycle}
	}
	return order, nil
}
