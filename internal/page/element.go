package page

import (
	"slices"
	"strings"
)

// HiddenClass marks an element as hidden independently of its display style.
const HiddenClass = "hidden"

// textTag is the tag used for bare text children.
const textTag = "#text"

// Rect is an element's bounding box in viewport pixels, as last reported by the browser.
type Rect struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Pad grows the rectangle by p pixels on every side.
func (r Rect) Pad(p float64) Rect {
	return Rect{
		Top:    r.Top - p,
		Left:   r.Left - p,
		Width:  r.Width + 2*p,
		Height: r.Height + 2*p,
	}
}

// Element is a node of the page's element tree.
type Element struct {
	ID    string
	Tag   string
	Text  string
	Value string
	Rect  Rect

	classes  []string
	style    map[string]string
	attrs    map[string]string
	parent   *Element
	children []*Element
	doc      *Document
}

// NewElement builds a detached element. Attach it with Document.Append.
func NewElement(tag string) *Element {
	return &Element{Tag: strings.ToLower(tag)}
}

// WithID sets the element id.
func (e *Element) WithID(id string) *Element {
	e.ID = id
	return e
}

// WithClass adds classes to a detached element.
func (e *Element) WithClass(classes ...string) *Element {
	for _, c := range classes {
		if c != "" && !slices.Contains(e.classes, c) {
			e.classes = append(e.classes, c)
		}
	}
	return e
}

// WithStyle sets an inline style property on a detached element.
func (e *Element) WithStyle(name, value string) *Element {
	if e.style == nil {
		e.style = make(map[string]string)
	}
	e.style[name] = value
	return e
}

// WithAttr sets an attribute on a detached element.
func (e *Element) WithAttr(name, value string) *Element {
	if e.attrs == nil {
		e.attrs = make(map[string]string)
	}
	e.attrs[name] = value
	return e
}

// WithText sets the text content of a detached element.
func (e *Element) WithText(text string) *Element {
	e.Text = text
	return e
}

// WithChildren appends children to a detached element.
func (e *Element) WithChildren(children ...*Element) *Element {
	for _, c := range children {
		if c == nil {
			continue
		}
		c.parent = e
		e.children = append(e.children, c)
	}
	return e
}

// HasClass reports whether the element carries class c.
func (e *Element) HasClass(c string) bool {
	return e != nil && slices.Contains(e.classes, c)
}

// Classes returns a copy of the element's classes in insertion order.
func (e *Element) Classes() []string {
	if e == nil {
		return nil
	}
	return slices.Clone(e.classes)
}

// Style returns an inline style property.
func (e *Element) Style(name string) string {
	if e == nil {
		return ""
	}
	return e.style[name]
}

// Attr returns an attribute value.
func (e *Element) Attr(name string) string {
	if e == nil {
		return ""
	}
	return e.attrs[name]
}

// Parent returns the parent element, nil for the body or a detached root.
func (e *Element) Parent() *Element {
	if e == nil {
		return nil
	}
	return e.parent
}

// Children returns a copy of the element's children.
func (e *Element) Children() []*Element {
	if e == nil {
		return nil
	}
	return slices.Clone(e.children)
}

// Visible reports whether neither the display style nor the hidden class hide the element.
func (e *Element) Visible() bool {
	if e == nil {
		return false
	}
	return e.style["display"] != "none" && !e.HasClass(HiddenClass)
}

// TextContent concatenates the element's own text and that of its descendants.
func (e *Element) TextContent() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	e.walk(func(el *Element) bool {
		b.WriteString(el.Text)
		return true
	})
	return b.String()
}

// Matches reports whether the element matches a simple selector: #id, .class or tag.
func (e *Element) Matches(selector string) bool {
	if e == nil || e.Tag == textTag {
		return false
	}
	switch {
	case strings.HasPrefix(selector, "#"):
		return e.ID != "" && e.ID == selector[1:]
	case strings.HasPrefix(selector, "."):
		return e.HasClass(selector[1:])
	default:
		return selector != "" && e.Tag == strings.ToLower(selector)
	}
}

// Closest returns the element itself or its nearest ancestor matching selector.
func (e *Element) Closest(selector string) *Element {
	for el := e; el != nil; el = el.parent {
		if el.Matches(selector) {
			return el
		}
	}
	return nil
}

// walk visits the element and its descendants in document order until fn returns false.
func (e *Element) walk(fn func(*Element) bool) bool {
	if !fn(e) {
		return false
	}
	for _, c := range e.children {
		if !c.walk(fn) {
			return false
		}
	}
	return true
}

// Node is the wire form of an element subtree.
type Node struct {
	ID       string            `json:"id"`
	Tag      string            `json:"tag"`
	Text     string            `json:"text,omitempty"`
	Value    string            `json:"value,omitempty"`
	Classes  []string          `json:"classes,omitempty"`
	Style    map[string]string `json:"style,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Children []*Node           `json:"children,omitempty"`
}

// Node snapshots the element subtree.
func (e *Element) Node() *Node {
	if e == nil {
		return nil
	}
	n := &Node{
		ID:      e.ID,
		Tag:     e.Tag,
		Text:    e.Text,
		Value:   e.Value,
		Classes: slices.Clone(e.classes),
	}
	if len(e.style) > 0 {
		n.Style = make(map[string]string, len(e.style))
		for k, v := range e.style {
			n.Style[k] = v
		}
	}
	if len(e.attrs) > 0 {
		n.Attrs = make(map[string]string, len(e.attrs))
		for k, v := range e.attrs {
			n.Attrs[k] = v
		}
	}
	for _, c := range e.children {
		n.Children = append(n.Children, c.Node())
	}
	return n
}
