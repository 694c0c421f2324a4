package graph

// State holds the mirrored node/edge collections for the current topology.
// It is owned by the single UI goroutine; no locking. Every successful fetch
// replaces the collections wholesale, so local edits (ApplyLocalMastery,
// DeleteSubtree) survive only until the next Replace.
type State struct {
	nodes      []Node
	edges      []Edge
	byID       map[string]int
	generation uint64
}

// NewState returns an empty mirror.
func NewState() *State {
	return &State{byID: make(map[string]int)}
}

// Replace swaps in a new node/edge set. No diffing: the previous collections,
// including any local-only edits, are discarded.
func (s *State) Replace(nodes []Node, edges []Edge) {
	s.nodes = make([]Node, len(nodes))
	copy(s.nodes, nodes)
	s.edges = make([]Edge, len(edges))
	copy(s.edges, edges)
	s.reindex()
	s.generation++
}

// Clear drops all mirrored state.
func (s *State) Clear() {
	s.Replace(nil, nil)
}

// Generation increments on every Replace. Async responses issued against an
// older generation compare against this before applying mutations.
func (s *State) Generation() uint64 {
	return s.generation
}

// Nodes returns a copy of the mirrored nodes.
func (s *State) Nodes() []Node {
	out := make([]Node, len(s.nodes))
	copy(out, s.nodes)
	return out
}

// Edges returns a copy of the mirrored edges.
func (s *State) Edges() []Edge {
	out := make([]Edge, len(s.edges))
	copy(out, s.edges)
	return out
}

// Node returns the node with the given id.
func (s *State) Node(id string) (Node, bool) {
	i, ok := s.byID[id]
	if !ok {
		return Node{}, false
	}
	return s.nodes[i], true
}

// Counts returns the current node and edge counts.
func (s *State) Counts() (nodes, edges int) {
	return len(s.nodes), len(s.edges)
}

// ApplyLocalMastery marks a node mastered with a full score, mirroring the
// optimistic update the server will confirm on the next refresh. Returns
// false if the node is not present.
func (s *State) ApplyLocalMastery(id string) bool {
	i, ok := s.byID[id]
	if !ok {
		return false
	}
	s.nodes[i].Mastered = true
	s.nodes[i].MasteryScore = 10
	s.nodes[i].ConsecutiveCorrect = 3
	return true
}

// DeleteSubtree removes the given node and every node reachable from it via
// outgoing edges, plus all edges touching a removed node. The traversal is an
// iterative worklist with a visited set, so cyclic graphs terminate. This is
// a view-layer edit only; the server never learns about it and the next
// Replace restores the full graph. Returns the number of nodes removed.
func (s *State) DeleteSubtree(rootID string) int {
	if _, ok := s.byID[rootID]; !ok {
		return 0
	}

	doomed := map[string]bool{rootID: true}
	work := []string{rootID}
	for len(work) > 0 {
		id := work[0]
		work = work[1:]
		for _, e := range s.edges {
			if e.From == id && !doomed[e.To] {
				doomed[e.To] = true
				work = append(work, e.To)
			}
		}
	}

	kept := s.nodes[:0]
	for _, n := range s.nodes {
		if !doomed[n.ID] {
			kept = append(kept, n)
		}
	}
	removed := len(s.nodes) - len(kept)
	s.nodes = kept

	keptEdges := s.edges[:0]
	for _, e := range s.edges {
		if !doomed[e.From] && !doomed[e.To] {
			keptEdges = append(keptEdges, e)
		}
	}
	s.edges = keptEdges

	s.reindex()
	return removed
}

func (s *State) reindex() {
	s.byID = make(map[string]int, len(s.nodes))
	for i := range s.nodes {
		s.byID[s.nodes[i].ID] = i
	}
}
