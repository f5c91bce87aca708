package viewbatch

import "sync"

// Buffer is the set of deal ids observed as visible but not yet dispatched.
// An id is held at most once; DrainAll hands ids back in insertion order.
//
// The buffer has no size cap. It is bounded in practice by the number of
// cards that become visible during one burst of scrolling.
type Buffer struct {
	mu    sync.Mutex
	order []string
	index map[string]struct{}
}

func NewBuffer() *Buffer {
	return &Buffer{
		index: make(map[string]struct{}),
	}
}

// Add inserts id if absent and reports whether it was newly inserted.
func (b *Buffer) Add(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.index[id]; ok {
		return false
	}

	b.index[id] = struct{}{}
	b.order = append(b.order, id)
	return true
}

// DrainAll returns every buffered id and empties the buffer in one step.
// An Add racing with DrainAll lands either in the returned slice or in the
// next drain, never in both.
func (b *Buffer) DrainAll() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.order) == 0 {
		return nil
	}

	ids := b.order
	b.order = nil
	b.index = make(map[string]struct{}, len(ids))
	return ids
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.order)
}

func (b *Buffer) Contains(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.index[id]
	return ok
}
