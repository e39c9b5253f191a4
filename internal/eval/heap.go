package eval

// Heap tracks every allocated entity for the purposes of the mark-sweep
// bookkeeping spec.md §4.A describes. Go's own runtime already reclaims
// memory for entities nothing references; this structure exists so the
// evaluator can observe and enforce the spec's stop-the-world collection
// *schedule* (triggered by a live-count growth ratio) rather than to
// manage raw memory itself — see DESIGN.md's note on this component.
type Heap struct {
	objects       []HeapEntity
	lastSweepSize int
	minObjects    int
	growthTrigger float64
	sweeps        int
}

// NewHeap creates a heap with the given tuning knobs (spec.md §4.A
// defaults: gc_min_objects=1000, gc_growth_trigger=2.0).
func NewHeap(minObjects int, growthTrigger float64) *Heap {
	if minObjects <= 0 {
		minObjects = 1000
	}
	if growthTrigger <= 1.0 {
		growthTrigger = 2.0
	}
	return &Heap{minObjects: minObjects, growthTrigger: growthTrigger}
}

// Alloc registers a freshly created entity and returns it, running a sweep
// first if the live count has grown past the configured trigger.
func (h *Heap) Alloc(e HeapEntity, roots func(visit func(HeapEntity))) HeapEntity {
	h.objects = append(h.objects, e)
	threshold := h.lastSweepSize
	if minT := h.minObjects; minT > threshold {
		threshold = minT
	}
	if float64(len(h.objects)) >= float64(threshold)*h.growthTrigger && len(h.objects) > h.minObjects {
		h.Sweep(func(visit func(HeapEntity)) {
			visit(e) // the new allocation is always a root, mid-construction
			if roots != nil {
				roots(visit)
			}
		})
	}
	return e
}

// LiveCount is the number of entities the heap currently tracks.
func (h *Heap) LiveCount() int { return len(h.objects) }

// Sweeps is how many collection cycles have run, exposed for tests.
func (h *Heap) Sweeps() int { return h.sweeps }

// Sweep runs one full mark-and-sweep cycle: mark walks transitively from
// roots, then every unmarked entity is dropped from tracking (spec.md
// §4.A steps 1-3).
func (h *Heap) Sweep(roots func(visit func(HeapEntity))) {
	marked := make(map[HeapEntity]bool, len(h.objects))
	var visit func(HeapEntity)
	visit = func(e HeapEntity) {
		if e == nil || marked[e] {
			return
		}
		marked[e] = true
		e.setMarked(true)
		e.markChildren(visit)
	}
	roots(visit)

	kept := h.objects[:0]
	for _, e := range h.objects {
		if marked[e] {
			e.setMarked(false) // flip generation tag for the next cycle
			kept = append(kept, e)
		}
	}
	h.objects = kept
	h.lastSweepSize = len(h.objects)
	h.sweeps++
}
