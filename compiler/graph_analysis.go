package compiler

import "github.com/dipeo/dipeo-core/domain"

func adjacency(nodes map[domain.NodeID]domain.ExecutableNode, edges map[domain.EdgeID]domain.ExecutableEdge) map[domain.NodeID][]domain.NodeID {
	adj := make(map[domain.NodeID][]domain.NodeID, len(nodes))
	for id := range nodes {
		adj[id] = nil
	}
	for _, e := range edges {
		adj[e.Source] = append(adj[e.Source], e.Target)
	}
	return adj
}

// findSCCs returns the strongly connected components of the diagram's
// node graph that form cycles, via Tarjan's algorithm: every component
// of size > 1, plus single nodes with a self-loop edge. A single node
// without a self-loop is not a cycle and is left out.
func findSCCs(nodes map[domain.NodeID]domain.ExecutableNode, edges map[domain.EdgeID]domain.ExecutableEdge) [][]domain.NodeID {
	adj := adjacency(nodes, edges)

	index := 0
	indices := make(map[domain.NodeID]int)
	lowlink := make(map[domain.NodeID]int)
	onStack := make(map[domain.NodeID]bool)
	var stack []domain.NodeID
	var result [][]domain.NodeID

	selfLoop := make(map[domain.NodeID]bool)
	for _, e := range edges {
		if e.Source == e.Target {
			selfLoop[e.Source] = true
		}
	}

	var strongConnect func(v domain.NodeID)
	strongConnect = func(v domain.NodeID) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range adj[v] {
			if _, seen := indices[w]; !seen {
				strongConnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] {
				if indices[w] < lowlink[v] {
					lowlink[v] = indices[w]
				}
			}
		}

		if lowlink[v] == indices[v] {
			var scc []domain.NodeID
			for {
				n := len(stack) - 1
				w := stack[n]
				stack = stack[:n]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			if len(scc) > 1 || selfLoop[scc[0]] {
				result = append(result, scc)
			}
		}
	}

	for id := range nodes {
		if _, seen := indices[id]; !seen {
			strongConnect(id)
		}
	}

	return result
}

// topoSort returns a topological ordering of nodes via Kahn's algorithm.
// Callers only invoke this once phaseOptimize has confirmed the diagram
// is acyclic.
func topoSort(nodes map[domain.NodeID]domain.ExecutableNode, edges map[domain.EdgeID]domain.ExecutableEdge) []domain.NodeID {
	inDegree := make(map[domain.NodeID]int, len(nodes))
	for id := range nodes {
		inDegree[id] = 0
	}
	adj := adjacency(nodes, edges)
	for _, targets := range adj {
		for _, t := range targets {
			inDegree[t]++
		}
	}

	var queue []domain.NodeID
	for id, d := range inDegree {
		if d == 0 {
			queue = append(queue, id)
		}
	}

	var order []domain.NodeID
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		order = append(order, n)
		for _, t := range adj[n] {
			inDegree[t]--
			if inDegree[t] == 0 {
				queue = append(queue, t)
			}
		}
	}

	return order
}
