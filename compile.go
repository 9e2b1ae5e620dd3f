package multimatch

// transitionWithRoot is the primitive DAT transition: it never reports
// "undefined" for the root, which self-loops on missing transitions.
// Used by both compile.go (to walk fail chains while computing
// fail[]) and scan.go (the hot scanning loop).
func (c *core) transitionWithRoot(s int32, code uint16) int32 {
	b := c.base[s]
	p := b + int32(code) + 1
	if p >= 0 && int(p) < len(c.check) && c.check[p] == b {
		return p
	}
	if s == 0 {
		return 0
	}
	return -1
}

// compileFailAndOutput computes fail[] and output[][] by breadth-first
// traversal of the packed states. It needs to discover
// which packed slots are real states and which code unit reaches each
// from its parent; that information no longer exists once pack.go has
// discarded the trie, so compile.go is handed the trie root (still
// live at this point in Build) alongside the packed core.
func compileFailAndOutput(root *trieNode, c *core) {
	fail := make([]int32, c.size+1)
	output := make([][]int32, c.size+1)

	type queued struct {
		node *trieNode
		slot int32
	}

	queue := make([]queued, 0, len(root.children))
	for _, child := range root.children {
		fail[child.index] = 0
		output[child.index] = append([]int32(nil), child.emits...)
		queue = append(queue, queued{node: child, slot: child.index})
	}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		for code, child := range item.node.children {
			fp := fail[item.slot]
			for c.transitionWithRoot(fp, code) == -1 && fp != 0 {
				fp = fail[fp]
			}
			childFail := c.transitionWithRoot(fp, code)
			if childFail == -1 {
				childFail = 0
			}

			fail[child.index] = childFail

			merged := append([]int32(nil), child.emits...)
			if inherited := output[childFail]; len(inherited) > 0 {
				merged = append(merged, inherited...)
			}
			if len(merged) > 0 {
				output[child.index] = merged
			}

			queue = append(queue, queued{node: child, slot: child.index})
		}
	}

	c.fail = fail
	c.output = output
}
