package multimatch

// trieNode is the transient build-time tree node. It is discarded
// once pack.go finishes mapping the tree into the
// base/check arrays; nothing here survives into the packed automaton.
type trieNode struct {
	depth       int
	children    map[uint16]*trieNode
	emits       []int32 // keyword indices accepted at this node, insertion order
	largestEmit int32   // max(emits), used as the -base-1 encoding during packing
	index       int32   // slot assigned during pack.go; meaningless until packed
}

func newTrieNode(depth int) *trieNode {
	return &trieNode{depth: depth}
}

// child returns the existing child on code unit c, creating it if absent.
func (n *trieNode) child(c uint16) *trieNode {
	if n.children == nil {
		n.children = make(map[uint16]*trieNode)
	}
	c2, ok := n.children[c]
	if !ok {
		c2 = newTrieNode(n.depth + 1)
		n.children[c] = c2
	}
	return c2
}

// buildTrie inserts every key in iteration order, recording emit sets,
// key lengths, and the largest duplicate index per terminal.
// Keys of length zero are rejected by the caller (Build) before this is
// reached; buildTrie itself has no opinion on that.
func buildTrie(keys [][]uint16) (root *trieNode, lengths []int32) {
	root = newTrieNode(0)
	lengths = make([]int32, len(keys))

	for i, key := range keys {
		n := root
		for _, c := range key {
			n = n.child(c)
		}
		idx := int32(i)
		n.emits = append(n.emits, idx)
		n.largestEmit = idx
		lengths[i] = int32(len(key))
	}

	return root, lengths
}
