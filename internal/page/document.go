package page

import (
	"fmt"
	"slices"
)

// BodyID addresses the document body in patches.
const BodyID = "body"

// Op names a patch operation understood by the landing client.
type Op string

const (
	OpAppend      Op = "append"
	OpRemove      Op = "remove"
	OpText        Op = "text"
	OpValue       Op = "value"
	OpStyle       Op = "style"
	OpAddClass    Op = "class_add"
	OpRemoveClass Op = "class_remove"
	OpScroll      Op = "scroll"
)

// Patch is one element-tree mutation to replay in the browser.
type Patch struct {
	Op     Op     `json:"op"`
	Target string `json:"target"`
	Node   *Node  `json:"node,omitempty"`
	Name   string `json:"name,omitempty"`
	Value  string `json:"value,omitempty"`
}

// Document is the server-side model of one visitor's page. It is not safe for
// concurrent use; callers serialize access (see session.Session).
type Document struct {
	body    *Element
	byID    map[string]*Element
	pending []Patch
	seq     int
}

// New returns an empty document.
func New() *Document {
	d := &Document{byID: make(map[string]*Element)}
	d.body = NewElement("body").WithID(BodyID)
	d.body.doc = d
	d.byID[BodyID] = d.body
	return d
}

// Body returns the root element.
func (d *Document) Body() *Element {
	return d.body
}

// ByID looks an attached element up by id.
func (d *Document) ByID(id string) *Element {
	if d == nil || id == "" {
		return nil
	}
	return d.byID[id]
}

// Query returns the first attached element in document order matching selector.
func (d *Document) Query(selector string) *Element {
	if d == nil {
		return nil
	}
	if len(selector) > 1 && selector[0] == '#' {
		return d.ByID(selector[1:])
	}
	var found *Element
	d.body.walk(func(el *Element) bool {
		if el.Matches(selector) {
			found = el
			return false
		}
		return true
	})
	return found
}

// QueryAll returns every attached element matching selector in document order.
func (d *Document) QueryAll(selector string) []*Element {
	if d == nil {
		return nil
	}
	var out []*Element
	d.body.walk(func(el *Element) bool {
		if el.Matches(selector) {
			out = append(out, el)
		}
		return true
	})
	return out
}

// Attached reports whether el currently belongs to this document.
func (d *Document) Attached(el *Element) bool {
	return d != nil && el != nil && el.doc == d
}

// Append attaches child (and its subtree) as the last child of parent. A nil
// parent means the body. Elements without an id get a generated one.
func (d *Document) Append(parent, child *Element) {
	if d == nil || child == nil {
		return
	}
	if parent == nil {
		parent = d.body
	}
	if !d.Attached(parent) {
		return
	}
	if child.parent != nil {
		child.parent.children = slices.DeleteFunc(child.parent.children, func(c *Element) bool { return c == child })
	}
	if d.Attached(child) {
		d.unindex(child)
	}
	child.parent = parent
	parent.children = append(parent.children, child)
	d.index(child)
	d.record(Patch{Op: OpAppend, Target: parent.ID, Node: child.Node()})
}

// Remove detaches el and its subtree. It reports whether anything was removed,
// so repeated calls are harmless.
func (d *Document) Remove(el *Element) bool {
	if !d.Attached(el) || el == d.body {
		return false
	}
	if p := el.parent; p != nil {
		p.children = slices.DeleteFunc(p.children, func(c *Element) bool { return c == el })
	}
	el.parent = nil
	d.unindex(el)
	d.record(Patch{Op: OpRemove, Target: el.ID})
	return true
}

// SetText replaces the element's content with plain text.
func (d *Document) SetText(el *Element, text string) {
	if !d.Attached(el) {
		return
	}
	for _, c := range el.children {
		d.unindex(c)
		c.parent = nil
	}
	el.children = nil
	el.Text = text
	d.record(Patch{Op: OpText, Target: el.ID, Value: text})
}

// SetValue sets a form control's value.
func (d *Document) SetValue(el *Element, value string) {
	if !d.Attached(el) {
		return
	}
	el.Value = value
	d.record(Patch{Op: OpValue, Target: el.ID, Value: value})
}

// SyncValue records a value typed in the browser without echoing it back.
func (d *Document) SyncValue(el *Element, value string) {
	if d.Attached(el) {
		el.Value = value
	}
}

// SetStyle sets an inline style property; an empty value clears it.
func (d *Document) SetStyle(el *Element, name, value string) {
	if !d.Attached(el) {
		return
	}
	if value == "" {
		delete(el.style, name)
	} else {
		if el.style == nil {
			el.style = make(map[string]string)
		}
		el.style[name] = value
	}
	d.record(Patch{Op: OpStyle, Target: el.ID, Name: name, Value: value})
}

// AddClass adds class c if missing.
func (d *Document) AddClass(el *Element, c string) {
	if !d.Attached(el) || el.HasClass(c) {
		return
	}
	el.classes = append(el.classes, c)
	d.record(Patch{Op: OpAddClass, Target: el.ID, Name: c})
}

// RemoveClass removes class c if present.
func (d *Document) RemoveClass(el *Element, c string) {
	if !d.Attached(el) || !el.HasClass(c) {
		return
	}
	el.classes = slices.DeleteFunc(el.classes, func(x string) bool { return x == c })
	d.record(Patch{Op: OpRemoveClass, Target: el.ID, Name: c})
}

// Show clears both the hidden class and the display style so the element renders as a block.
func (d *Document) Show(el *Element) {
	d.RemoveClass(el, HiddenClass)
	d.SetStyle(el, "display", "block")
}

// Hide sets display:none.
func (d *Document) Hide(el *Element) {
	d.SetStyle(el, "display", "none")
}

// ScrollIntoView asks the browser to scroll el into view. block is "start" or "center".
func (d *Document) ScrollIntoView(el *Element, block string) {
	if !d.Attached(el) {
		return
	}
	if block == "" {
		block = "start"
	}
	d.record(Patch{Op: OpScroll, Target: el.ID, Value: block})
}

// SetRect stores a bounding box reported by the browser.
func (d *Document) SetRect(id string, r Rect) bool {
	el := d.ByID(id)
	if el == nil {
		return false
	}
	el.Rect = r
	return true
}

// Pending reports how many patches wait to be drained.
func (d *Document) Pending() int {
	if d == nil {
		return 0
	}
	return len(d.pending)
}

// Drain returns and forgets the patches recorded since the last call.
func (d *Document) Drain() []Patch {
	if d == nil || len(d.pending) == 0 {
		return nil
	}
	out := d.pending
	d.pending = nil
	return out
}

// Snapshot returns the whole body as a node tree.
func (d *Document) Snapshot() *Node {
	return d.body.Node()
}

func (d *Document) record(p Patch) {
	d.pending = append(d.pending, p)
}

func (d *Document) index(el *Element) {
	el.walk(func(n *Element) bool {
		if n.ID == "" {
			d.seq++
			n.ID = fmt.Sprintf("n%d", d.seq)
		}
		n.doc = d
		d.byID[n.ID] = n
		return true
	})
}

func (d *Document) unindex(el *Element) {
	el.walk(func(n *Element) bool {
		if d.byID[n.ID] == n {
			delete(d.byID, n.ID)
		}
		n.doc = nil
		return true
	})
}
