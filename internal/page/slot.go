package page

// Slot owns at most one transient element (an overlay, a tooltip, a toast).
// Setting a new element first tears down the previous one and runs the
// release hooks registered for it, so no lookup by fixed id is needed.
type Slot struct {
	el       *Element
	releases []func()
}

// Set replaces the slot's element with el, appended under parent (nil = body).
func (s *Slot) Set(d *Document, parent, el *Element) {
	s.Clear(d)
	if el == nil {
		return
	}
	d.Append(parent, el)
	s.el = el
}

// OnRelease registers fn to run when the current element is cleared or replaced.
func (s *Slot) OnRelease(fn func()) {
	if s.el == nil || fn == nil {
		return
	}
	s.releases = append(s.releases, fn)
}

// Clear removes the current element and runs its release hooks. It reports
// whether the slot held anything.
func (s *Slot) Clear(d *Document) bool {
	if s.el == nil {
		return false
	}
	el, releases := s.el, s.releases
	s.el, s.releases = nil, nil
	for _, fn := range releases {
		fn()
	}
	d.Remove(el)
	return true
}

// Element returns the owned element, nil when empty.
func (s *Slot) Element() *Element {
	return s.el
}

// Holds reports whether el is the slot's current element.
func (s *Slot) Holds(el *Element) bool {
	return el != nil && s.el == el
}
