package viewbatch

import "sync"

// DefaultVisibilityThreshold is the share of a card that must be in the
// viewport before it counts as viewed.
const DefaultVisibilityThreshold = 0.5

// Binding watches one mounted card instance and reports its deal as viewed
// the first time the card is at least threshold visible. Leaving and
// re-entering the viewport never reports it again.
type Binding struct {
	dealID    string
	threshold float64
	enqueue   func(dealID string)

	mu       sync.Mutex
	fired    bool
	detached bool
}

func NewBinding(dealID string, threshold float64, enqueue func(dealID string)) *Binding {
	return &Binding{
		dealID:    dealID,
		threshold: threshold,
		enqueue:   enqueue,
	}
}

// Observe feeds the current visible ratio of the card and reports whether
// this observation produced the view.
func (b *Binding) Observe(ratio float64) bool {
	b.mu.Lock()
	if b.detached || b.fired || ratio < b.threshold {
		b.mu.Unlock()
		return false
	}
	b.fired = true
	b.mu.Unlock()

	b.enqueue(b.dealID)
	return true
}

// Detach stops observing. A binding detached before it fired contributes
// nothing.
func (b *Binding) Detach() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.detached = true
}

func (b *Binding) Fired() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fired
}

func (b *Binding) Detached() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.detached
}

func (b *Binding) DealID() string {
	return b.dealID
}
