package paste

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// NodeKind tags the variant held by a Node.
type NodeKind int

const (
	DocumentNode NodeKind = iota
	ElementNode
	TextNode
	CommentNode
)

// Node is a parsed HTML tree. Tag is lower case and only set for elements;
// Text is only set for text and comment nodes.
type Node struct {
	Kind     NodeKind
	Tag      string
	Attrs    map[string]string
	Text     string
	Children []*Node
}

// Attr returns the attribute value or an empty string.
func (n *Node) Attr(key string) string {
	if n.Attrs == nil {
		return ""
	}
	return n.Attrs[key]
}

// TextContent concatenates every text node below n.
func (n *Node) TextContent() string {
	var b strings.Builder
	n.writeText(&b)
	return b.String()
}

func (n *Node) writeText(b *strings.Builder) {
	if n.Kind == TextNode {
		b.WriteString(n.Text)
		return
	}
	for _, c := range n.Children {
		c.writeText(b)
	}
}

// HTMLParser turns clipboard HTML into a Node tree.
type HTMLParser interface {
	Parse(src string) (*Node, error)
}

// NetHTMLParser is the default HTMLParser, backed by golang.org/x/net/html.
type NetHTMLParser struct{}

// Parse implements HTMLParser.
func (NetHTMLParser) Parse(src string) (*Node, error) {
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return fromNetHTML(root), nil
}

func fromNetHTML(n *html.Node) *Node {
	out := &Node{}
	switch n.Type {
	case html.DocumentNode:
		out.Kind = DocumentNode
	case html.ElementNode:
		out.Kind = ElementNode
		out.Tag = strings.ToLower(n.Data)
		if len(n.Attr) > 0 {
			out.Attrs = make(map[string]string, len(n.Attr))
			for _, a := range n.Attr {
				out.Attrs[strings.ToLower(a.Key)] = a.Val
			}
		}
	case html.TextNode:
		out.Kind = TextNode
		out.Text = n.Data
		return out
	case html.CommentNode:
		out.Kind = CommentNode
		out.Text = n.Data
		return out
	default:
		return nil
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if child := fromNetHTML(c); child != nil {
			out.Children = append(out.Children, child)
		}
	}
	return out
}
