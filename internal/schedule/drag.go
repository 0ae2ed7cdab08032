package schedule

// Drag implements two-phase click-and-drag editing. The first cell touched
// fixes the drag value as the negation of that cell's effective state;
// every later cell touched while the drag is active gets that same value.
type Drag struct {
	active bool
	value  bool
}

// Start begins a drag at hour and returns the value the origin cell (and
// all cells entered until End) should be set to.
func (d *Drag) Start(s Schedule, hour int) bool {
	d.active = true
	d.value = !s.Effective(hour)
	return d.value
}

// Enter reports the remembered drag value. ok is false when no drag is
// active, in which case the cell must not change.
func (d *Drag) Enter() (value, ok bool) {
	if !d.active {
		return false, false
	}
	return d.value, true
}

// End finishes the drag.
func (d *Drag) End() {
	d.active = false
}

// Active reports whether a drag is in progress.
func (d *Drag) Active() bool {
	return d.active
}
