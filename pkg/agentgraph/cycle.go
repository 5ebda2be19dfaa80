package agentgraph

import "sort"

// detectCycle runs a depth-first search over the graph's adjacency with
// branch and switch destinations expanded to their full destination sets,
// START and END excluded. It returns the first cycle found as a CycleError
// whose Path is the minimal cyclic suffix of the traversal (first and last
// elements equal), or nil when the graph is acyclic.
//
// Traversal order is sorted by node name, so the reported cycle is
// deterministic for a given build order.
func detectCycle(g *graph) *CycleError {
	adj := make(map[string][]string, len(g.nodes))
	for from, e := range g.out {
		if from == START {
			continue
		}
		dests := e.destinations()
		sort.Strings(dests)
		adj[from] = dests
	}

	const (
		unvisited = iota
		onStack
		done
	)
	state := make(map[string]int, len(g.nodes))

	names := make([]string, 0, len(g.nodes))
	for name := range g.nodes {
		names = append(names, name)
	}
	sort.Strings(names)

	var path []string
	var visit func(name string) *CycleError
	visit = func(name string) *CycleError {
		state[name] = onStack
		path = append(path, name)
		for _, next := range adj[name] {
			switch state[next] {
			case onStack:
				// Back-edge: the cycle is the path suffix starting at next.
				for i, n := range path {
					if n == next {
						cycle := make([]string, 0, len(path)-i+1)
						cycle = append(cycle, path[i:]...)
						cycle = append(cycle, next)
						return &CycleError{Path: cycle}
					}
				}
			case unvisited:
				if err := visit(next); err != nil {
					return err
				}
			}
		}
		path = path[:len(path)-1]
		state[name] = done
		return nil
	}

	for _, name := range names {
		if state[name] == unvisited {
			if err := visit(name); err != nil {
				return err
			}
		}
	}
	return nil
}
