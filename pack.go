package multimatch

import (
	"math"
	"sort"

	"github.com/pbnjay/memory"
)

// core holds the value-agnostic packed automaton: the double-array
// trie (base/check), the failure links and output sets computed over
// it, and the per-keyword lengths. None of this depends on the
// generic value type V — only values.go/serialize.go's v[] does, which
// is why Automaton[V] holds a *core instead of duplicating it per V.
type core struct {
	base       []int32
	check      []int32
	fail       []int32
	output     [][]int32
	l          []int32
	size       int32
	ignoreCase bool
}

// sibling is one entry in a fetch()-style sibling group: either a real
// trie child (node != nil) reached on code+1, or the synthetic
// terminal-marker leaf (node == nil, code == 0) prepended when the
// parent itself accepts.
type sibling struct {
	code        int32
	node        *trieNode
	largestEmit int32 // only meaningful when node == nil
}

// siblings builds the ordered sibling group for parent, grounded on
// colin0000007-darts-go's fetch(): code units in ascending order, with
// a synthetic key-0 terminal marker prepended when parent accepts.
// An accepting node without children therefore still yields a
// one-entry group (the marker), which exactMatch relies on.
func siblings(parent *trieNode) []sibling {
	out := make([]sibling, 0, len(parent.children)+1)

	if len(parent.emits) > 0 {
		out = append(out, sibling{code: 0, node: nil, largestEmit: parent.largestEmit})
	}

	codes := make([]uint16, 0, len(parent.children))
	for c := range parent.children {
		codes = append(codes, c)
	}

	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })

	for _, c := range codes {
		out = append(out, sibling{code: int32(c) + 1, node: parent.children[c]})
	}

	return out
}

// queueItem is one pending packing job: the slot already assigned to
// parent (its base[] cell is what findSlot fills in) and its sibling
// group. A plain slice-backed queue stands in for a container/list
// BFS queue (see DESIGN.md "Dropped / substituted teacher pieces").
type queueItem struct {
	slot int32
	sibs []sibling
}

// packer drives the double-array slot-allocation search.
type packer struct {
	base         []int32
	check        []int32
	used         []bool
	allocSize    int32
	nextCheckPos int32
	size         int32
	progress     int32
	keyCount     int32
}

const maxAllocSize = int32(math.MaxInt32 / 20 * 19) // 95% of MaxInt32

func newPacker(initial int32, keyCount int32) *packer {
	p := &packer{keyCount: keyCount}
	p.grow(initial)
	return p
}

// grow resizes base/check/used to at least minSize, applying a
// growth-rate heuristic (keyCount/(progress+1), at least 1.05) that
// grows aggressively early on and shrinks toward 1.05 as packing nears
// completion. Returns ErrBuildCapacityExceeded if minSize itself
// exceeds the cap.
func (p *packer) grow(minSize int32) error {
	if minSize > maxAllocSize {
		return ErrBuildCapacityExceeded
	}

	rate := 1.05
	if p.keyCount > 0 {
		if pr := float64(p.keyCount) / float64(p.progress+1); pr > rate {
			rate = pr
		}
	}

	newSize := int64(float64(minSize) * rate)
	if newSize > int64(maxAllocSize) {
		newSize = int64(maxAllocSize)
	}
	if newSize < int64(minSize) {
		return ErrBuildCapacityExceeded
	}

	base2 := make([]int32, newSize)
	check2 := make([]int32, newSize)
	used2 := make([]bool, newSize)
	copy(base2, p.base)
	copy(check2, p.check)
	copy(used2, p.used)
	p.base, p.check, p.used = base2, check2, used2
	p.allocSize = int32(newSize)

	return nil
}

// findSlot searches for a begin offset at which every sibling in sibs
// can be written without colliding with an already-owned check[] cell,
// grounded on darts-go's insert().
func (p *packer) findSlot(sibs []sibling) (int32, error) {
	first := sibs[0].code
	last := sibs[len(sibs)-1].code

	// Start one past first so begin is always >= 1: check[] == 0 means
	// "unused", so no group may own begin 0.
	pos := first + 1
	if p.nextCheckPos > pos {
		pos = p.nextCheckPos
	}
	pos--

	searchStart := pos + 1
	firstZero := true
	var nonZero int32

	for {
		pos++

		if pos >= p.allocSize {
			if err := p.grow(pos + 1); err != nil {
				return 0, err
			}
		}

		if p.check[pos] != 0 {
			nonZero++
			continue
		}

		if firstZero {
			p.nextCheckPos = pos
			firstZero = false
		}

		begin := pos - first

		if need := begin + last + 1; need > p.allocSize {
			if err := p.grow(need); err != nil {
				return 0, err
			}
		}

		if begin < 0 || p.used[begin] {
			continue
		}

		collided := false
		for i := 1; i < len(sibs); i++ {
			if p.check[begin+sibs[i].code] != 0 {
				collided = true
				break
			}
		}
		if collided {
			continue
		}

		if searchLen := pos - searchStart + 1; searchLen > 0 && float64(nonZero)/float64(searchLen) >= 0.95 {
			p.nextCheckPos = pos
		}

		p.used[begin] = true
		for _, s := range sibs {
			p.check[begin+s.code] = begin
		}
		if need := begin + last + 1; p.size < need {
			p.size = need
		}

		return begin, nil
	}
}

// pack maps root's tree into base/check via breadth-first slot
// allocation. totalCodeUnits sizes the initial allocation together
// with total system memory (see initialAllocSize).
func pack(root *trieNode, keyCount int, totalCodeUnits int) (*packer, error) {
	p := newPacker(initialAllocSize(totalCodeUnits, keyCount), int32(keyCount))

	root.index = 0
	queue := []queueItem{{slot: 0, sibs: siblings(root)}}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		if len(item.sibs) == 0 {
			continue
		}

		begin, err := p.findSlot(item.sibs)
		if err != nil {
			return nil, err
		}
		p.base[item.slot] = begin

		for _, s := range item.sibs {
			childSlot := begin + s.code

			if s.node == nil {
				// synthetic terminal marker: encodes the parent's
				// largest duplicate emit directly.
				p.base[childSlot] = -s.largestEmit - 1
				p.progress++
				continue
			}

			s.node.index = childSlot

			// An accepting node always gets a terminal-marker sibling, so
			// only a node with neither children nor emits is a leaf here.
			childSibs := siblings(s.node)
			if len(childSibs) == 0 {
				p.base[childSlot] = -s.node.largestEmit - 1
				p.progress++
				continue
			}

			queue = append(queue, queueItem{slot: childSlot, sibs: childSibs})
		}
	}

	return p, nil
}

// finalize copies base/check into arrays of length size+65535: a
// "lose weight" compaction that still leaves headroom so the scanner
// can probe one cell past the last occupied index without a bounds
// check on the hot path.
func (p *packer) finalize() ([]int32, []int32, int32) {
	finalLen := p.size + 65535
	if finalLen < 1 {
		finalLen = 1
	}

	base := make([]int32, finalLen)
	check := make([]int32, finalLen)
	copy(base, p.base)
	copy(check, p.check)

	return base, check, p.size
}

// initialAllocSize decides the packer's starting allocation. The exact
// starting size is immaterial to correctness as long as growth kicks
// in when it runs out, so this caps the request by total system memory
// via github.com/pbnjay/memory rather than hard-coding a constant.
func initialAllocSize(totalCodeUnits int, keyCount int) int32 {
	if keyCount == 0 {
		return 16
	}

	want := int64(65536) + 2*int64(totalCodeUnits) + 1

	if total := memory.TotalMemory(); total > 0 {
		// Never claim more than ~1/64th of system memory up front for
		// base+check (8 bytes/slot); large dictionaries on small
		// machines grow incrementally instead of over-committing.
		budget := int64(total) / 64 / 8
		if budget > 0 && want > budget {
			want = budget
		}
	}

	if want < 256 {
		want = 256
	}
	if want > int64(maxAllocSize) {
		want = int64(maxAllocSize)
	}

	return int32(want)
}
