package page

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parse builds a document from an HTML page. Only the body is kept; script
// elements and comments are dropped.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("page: parse html: %w", err)
	}
	body := findBody(root)
	if body == nil {
		return nil, fmt.Errorf("page: html has no body")
	}

	d := New()
	for _, a := range body.Attr {
		if a.Key == "class" {
			d.body.WithClass(strings.Fields(a.Val)...)
		}
	}
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if el := convert(c); el != nil {
			el.parent = d.body
			d.body.children = append(d.body.children, el)
		}
	}
	for _, c := range d.body.children {
		d.index(c)
	}
	return d, nil
}

// ParseString is Parse for an in-memory page.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}

func convert(n *html.Node) *Element {
	switch n.Type {
	case html.TextNode:
		text := collapseSpace(n.Data)
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return &Element{Tag: textTag, Text: text}
	case html.ElementNode:
	default:
		return nil
	}
	if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
		return nil
	}

	el := NewElement(n.Data)
	for _, a := range n.Attr {
		switch a.Key {
		case "id":
			el.ID = a.Val
		case "class":
			el.WithClass(strings.Fields(a.Val)...)
		case "style":
			for name, value := range parseStyle(a.Val) {
				el.WithStyle(name, value)
			}
		case "value":
			el.Value = a.Val
		default:
			el.WithAttr(a.Key, a.Val)
		}
	}

	var kids []*Element
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if k := convert(c); k != nil {
			kids = append(kids, k)
		}
	}
	// A lone text child is folded into the element itself.
	if len(kids) == 1 && kids[0].Tag == textTag {
		el.Text = strings.TrimSpace(kids[0].Text)
		kids = nil
	}
	if n.DataAtom == atom.Textarea {
		el.Value, el.Text = el.Text, ""
	}
	el.WithChildren(kids...)
	return el
}

func parseStyle(s string) map[string]string {
	out := make(map[string]string)
	for _, decl := range strings.Split(s, ";") {
		name, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		name = strings.ToLower(strings.TrimSpace(name))
		value = strings.TrimSpace(value)
		if name != "" && value != "" {
			out[name] = value
		}
	}
	return out
}

func collapseSpace(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return s
	}
	out := strings.Join(fields, " ")
	if isSpace(s[0]) {
		out = " " + out
	}
	if isSpace(s[len(s)-1]) {
		out += " "
	}
	return out
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\t' || c == '\r' || c == '\f'
}
