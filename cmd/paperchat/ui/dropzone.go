package ui

// DropZone tracks whether a drag gesture is currently over the drop target.
// Nested regions inside the target fire their own enter/leave pairs as the
// pointer crosses them, so a plain boolean would flicker off between
// children; only a balanced counter can tell "left the whole region" from
// "moved between children". isOver is kept as an explicit flag rather than
// recomputed so enter events that carry no items never highlight the zone.
type DropZone struct {
	depth int
	over  bool
}

// Enter records the pointer entering the zone or one of its nested regions.
// hasItems reports whether the gesture carries at least one draggable item.
func (z *DropZone) Enter(hasItems bool) {
	z.depth++
	if hasItems {
		z.over = true
	}
}

// Leave records the pointer leaving the zone or a nested region. Depth is
// clamped at zero; the highlight clears only once the pointer has left the
// outermost boundary.
func (z *DropZone) Leave() {
	if z.depth > 0 {
		z.depth--
	}
	if z.depth == 0 {
		z.over = false
	}
}

// Drop resets the zone unconditionally, regardless of any enter/leave
// imbalance beforehand. The caller forwards the dropped files onward.
func (z *DropZone) Drop() {
	z.depth = 0
	z.over = false
}

// Reset clears the zone for teardown paths that never saw a drop.
func (z *DropZone) Reset() { z.Drop() }

// Over reports whether a drag carrying items is over the zone.
func (z DropZone) Over() bool { return z.over }

// Depth returns the current enter/leave balance.
func (z DropZone) Depth() int { return z.depth }
