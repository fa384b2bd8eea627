// Package htmlform adapts parsed HTML documents to the engine's candidate
// contract. It extracts input and textarea controls with their resolved
// labels, applies fills back onto the parse tree, and renders the modified
// document.
package htmlform

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/priyanka/formpilot/backend/internal/engine"
)

// Document is a parsed HTML page whose form controls are exposed as engine
// candidates. Fills mutate the underlying parse tree, so a subsequent Render
// reflects them.
type Document struct {
	root   *html.Node
	fields []engine.Candidate
}

// Parse reads and parses an HTML document from r.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	doc := &Document{root: root}
	doc.collect()
	return doc, nil
}

// ParseString parses an HTML document held in memory.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Fields returns the document's form controls in document order.
func (d *Document) Fields() []engine.Candidate {
	return d.fields
}

// Render writes the document back out as HTML, including any fills applied
// since parsing.
func (d *Document) Render(w io.Writer) error {
	if err := html.Render(w, d.root); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

func (d *Document) collect() {
	labelsByID, labelAncestors := indexLabels(d.root)

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "input" || n.Data == "textarea") {
			d.fields = append(d.fields, newField(n, d.root, labelsByID, labelAncestors))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.root)
}

// indexLabels walks the tree once, recording label text keyed by the for
// attribute and the nearest enclosing label of every node inside one.
func indexLabels(root *html.Node) (byID map[string]string, ancestors map[*html.Node]*html.Node) {
	byID = make(map[string]string)
	ancestors = make(map[*html.Node]*html.Node)

	var walk func(n *html.Node, enclosing *html.Node)
	walk = func(n *html.Node, enclosing *html.Node) {
		if enclosing != nil {
			ancestors[n] = enclosing
		}
		if n.Type == html.ElementNode && n.Data == "label" {
			if forID := attr(n, "for"); forID != "" {
				byID[forID] = textContent(n)
			}
			enclosing = n
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, enclosing)
		}
	}
	walk(root, nil)
	return byID, ancestors
}

type field struct {
	node  *html.Node
	root  *html.Node
	label string

	filled      bool
	filledValue string
	highlighted bool
	events      []string
}

func newField(n, root *html.Node, labelsByID map[string]string, labelAncestors map[*html.Node]*html.Node) *field {
	f := &field{node: n, root: root}
	f.label = f.resolveLabel(labelsByID, labelAncestors)
	return f
}

func (f *field) TagName() string { return f.node.Data }
func (f *field) Name() string    { return attr(f.node, "name") }
func (f *field) ID() string      { return attr(f.node, "id") }

func (f *field) Type() string {
	if f.node.Data == "textarea" {
		return ""
	}
	return strings.ToLower(attr(f.node, "type"))
}

func (f *field) Placeholder() string  { return attr(f.node, "placeholder") }
func (f *field) Autocomplete() string { return strings.ToLower(attr(f.node, "autocomplete")) }
func (f *field) Label() string        { return f.label }

func (f *field) Value() string {
	if f.filled {
		return f.filledValue
	}
	if f.node.Data == "textarea" {
		return strings.TrimSpace(textContent(f.node))
	}
	return attr(f.node, "value")
}

func (f *field) Disabled() bool { return hasAttr(f.node, "disabled") }
func (f *field) ReadOnly() bool { return hasAttr(f.node, "readonly") }

// SetValue writes the value into the parse tree so a re-render carries it.
// Event dispatch has no DOM to target here; the requested events are
// recorded for callers that report on fill side effects.
func (f *field) SetValue(value string, opts engine.FillOptions) {
	f.filled = true
	f.filledValue = value

	if f.node.Data == "textarea" {
		for f.node.FirstChild != nil {
			f.node.RemoveChild(f.node.FirstChild)
		}
		f.node.AppendChild(&html.Node{Type: html.TextNode, Data: value})
	} else {
		setAttr(f.node, "value", value)
	}

	if opts.DispatchEvents {
		f.events = append(f.events, "input", "change", "blur")
	}
	if opts.Highlight {
		f.highlighted = true
	}
}

// Filled reports whether SetValue has been called on this control.
func (f *field) Filled() bool { return f.filled }

// DispatchedEvents returns the events recorded by fills, in order.
func (f *field) DispatchedEvents() []string { return f.events }

// resolveLabel finds the control's label text, trying in order a label whose
// for attribute targets the control's id, an enclosing label element, an
// aria-label attribute, the elements an aria-labelledby attribute names, and
// finally the text immediately preceding the control.
func (f *field) resolveLabel(labelsByID map[string]string, labelAncestors map[*html.Node]*html.Node) string {
	if id := attr(f.node, "id"); id != "" {
		if text, ok := labelsByID[id]; ok && text != "" {
			return text
		}
	}
	if enclosing, ok := labelAncestors[f.node]; ok {
		if text := textContent(enclosing); text != "" {
			return text
		}
	}
	if aria := strings.TrimSpace(attr(f.node, "aria-label")); aria != "" {
		return aria
	}
	if refs := strings.Fields(attr(f.node, "aria-labelledby")); len(refs) > 0 {
		var parts []string
		for _, ref := range refs {
			if target := findByID(f.root, ref); target != nil {
				if text := textContent(target); text != "" {
					parts = append(parts, text)
				}
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, " ")
		}
	}
	return f.precedingText()
}

// precedingText returns the text of the nearest non-empty sibling before the
// control, with a trailing colon stripped. Sibling controls end the scan so a
// label is never borrowed from an earlier field.
func (f *field) precedingText() string {
	for sib := f.node.PrevSibling; sib != nil; sib = sib.PrevSibling {
		var text string
		switch {
		case sib.Type == html.TextNode:
			text = strings.Join(strings.Fields(sib.Data), " ")
		case sib.Type == html.ElementNode:
			if sib.Data == "input" || sib.Data == "textarea" || sib.Data == "select" {
				return ""
			}
			text = textContent(sib)
		default:
			continue
		}
		if text != "" {
			return strings.TrimSpace(strings.TrimSuffix(text, ":"))
		}
	}
	return ""
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func findByID(root *html.Node, id string) *html.Node {
	var found *html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && attr(n, "id") == id {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return found
}

// textContent concatenates the text nodes beneath n, excluding text inside
// nested form controls, and collapses whitespace.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "input" || n.Data == "textarea" || n.Data == "select") {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}
