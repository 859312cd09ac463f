package anneal

// worklist is the obstructed-label set. Membership, insertion, removal and
// uniform sampling are all O(1); iteration order is insertion order modulo
// swap-removes, so a seeded source reproduces the same run.
type worklist struct {
	items []Handle
	pos   []int // -1 when absent
}

func newWorklist(n int) *worklist {
	pos := make([]int, n)
	for i := range pos {
		pos[i] = -1
	}
	return &worklist{items: make([]Handle, 0, n), pos: pos}
}

func (w *worklist) Len() int { return len(w.items) }

func (w *worklist) Contains(h Handle) bool { return w.pos[h] >= 0 }

func (w *worklist) Add(h Handle) {
	if w.pos[h] >= 0 {
		return
	}
	w.pos[h] = len(w.items)
	w.items = append(w.items, h)
}

func (w *worklist) Remove(h Handle) {
	i := w.pos[h]
	if i < 0 {
		return
	}
	last := len(w.items) - 1
	moved := w.items[last]
	w.items[i] = moved
	w.pos[moved] = i
	w.items = w.items[:last]
	w.pos[h] = -1
}

// Set adds or removes h depending on in.
func (w *worklist) Set(h Handle, in bool) {
	if in {
		w.Add(h)
	} else {
		w.Remove(h)
	}
}

func (w *worklist) Pick(r Rand) Handle {
	return w.items[r.IntN(len(w.items))]
}
