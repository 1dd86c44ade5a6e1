package paste

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	whitespaceRun    = regexp.MustCompile(`[ \t\r\n\f]+`)
	renderedLink     = regexp.MustCompile(`^\[[^\]]*\]\([^)]*\)$`)
	fontWeightDecl   = regexp.MustCompile(`(?i)font-weight\s*:\s*([^;]+)`)
	fontStyleDecl    = regexp.MustCompile(`(?i)font-style\s*:\s*([^;]+)`)
	codeLanguageAttr = regexp.MustCompile(`(?:^|\s)(?:language|lang)-(\S+)`)
)

// Elements whose content is never visible.
var droppedTags = map[string]bool{
	"head": true, "title": true, "script": true, "style": true,
	"noscript": true, "template": true, "meta": true, "link": true, "xml": true,
}

// Generic block containers that end their content with a line break.
var blockTags = map[string]bool{
	"div": true, "section": true, "article": true, "header": true, "footer": true,
	"main": true, "aside": true, "nav": true, "figure": true, "figcaption": true,
	"tr": true, "dl": true, "address": true, "center": true,
}

// state is threaded by value through the walk.
type state struct {
	formatted bool // inside a bold or italic ancestor
	pre       bool
}

// toMarkdown converts a cleaned Node tree to Markdown text. Spacing is not
// final; the text pipeline tidies it afterwards.
func toMarkdown(root *Node) string {
	return visit(root, state{})
}

func visit(n *Node, st state) string {
	switch n.Kind {
	case TextNode:
		if st.pre {
			return n.Text
		}
		return whitespaceRun.ReplaceAllString(strings.ReplaceAll(n.Text, "\u00a0", " "), " ")
	case CommentNode:
		return ""
	case DocumentNode:
		return children(n, st)
	}
	return visitElement(n, st)
}

func children(n *Node, st state) string {
	var b strings.Builder
	for _, c := range n.Children {
		b.WriteString(visit(c, st))
	}
	return b.String()
}

func visitElement(n *Node, st state) string {
	tag := n.Tag
	if droppedTags[tag] {
		return ""
	}
	if isDivider(n) {
		return "\n\n---\n\n"
	}

	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level, _ := strconv.Atoi(tag[1:])
		text := inline(children(n, st))
		if text == "" {
			return ""
		}
		return "\n\n" + strings.Repeat("#", level) + " " + text + "\n\n"
	case "p":
		return "\n\n" + strings.TrimSpace(children(n, st)) + "\n\n"
	case "br":
		return "\n"
	case "hr":
		return "\n\n---\n\n"
	case "ul", "ol":
		return "\n\n" + list(n, st, 0) + "\n"
	case "li":
		// Stray list item outside of a list.
		return "\n- " + inline(children(n, st)) + "\n"
	case "a":
		return link(n, st)
	case "img":
		return fmt.Sprintf("![%s](%s)", n.Attr("alt"), n.Attr("src"))
	case "b", "strong":
		if weight, ok := declaredWeight(n); ok && !weight {
			return children(n, st)
		}
		return emphasize(n, st, "**")
	case "i", "em":
		return emphasize(n, st, "*")
	case "span":
		switch {
		case isBoldSpan(n):
			return emphasize(n, st, "**")
		case isItalicSpan(n):
			return emphasize(n, st, "*")
		}
		return children(n, st)
	case "dt":
		return "\n" + emphasize(n, st, "**") + "\n"
	case "dd":
		return inline(children(n, st)) + "\n\n"
	case "blockquote", "q":
		return quote(children(n, st))
	case "pre":
		return fence(n)
	case "code":
		if st.pre {
			return children(n, st)
		}
		return codeSpan(n.TextContent())
	case "td", "th":
		return inline(children(n, st)) + " "
	}

	if blockTags[tag] {
		return "\n" + children(n, st) + "\n"
	}
	return children(n, st)
}

// list renders ul/ol items; nested lists are indented two spaces per level.
func list(n *Node, st state, depth int) string {
	ordered := n.Tag == "ol"
	indent := strings.Repeat("  ", depth)

	var b strings.Builder
	index := 0
	for _, item := range n.Children {
		if item.Kind != ElementNode || item.Tag != "li" {
			continue
		}
		index++
		marker := "- "
		if ordered {
			marker = strconv.Itoa(index) + ". "
		}

		var text, nested strings.Builder
		for _, c := range item.Children {
			if c.Kind == ElementNode && (c.Tag == "ul" || c.Tag == "ol") {
				nested.WriteString(list(c, st, depth+1))
				continue
			}
			text.WriteString(visit(c, st))
		}
		b.WriteString(indent + marker + inline(text.String()) + "\n")
		b.WriteString(nested.String())
	}
	return b.String()
}

func link(n *Node, st state) string {
	text := inline(children(n, st))
	href := strings.TrimSpace(n.Attr("href"))
	switch {
	case href == "":
		return text
	case renderedLink.MatchString(text):
		return text
	case text == "":
		return "[" + href + "](" + href + ")"
	}
	return "[" + text + "](" + href + ")"
}

// emphasize wraps the element text in marker unless an ancestor already did.
// Surrounding whitespace stays outside the markers.
func emphasize(n *Node, st state, marker string) string {
	if st.formatted {
		return children(n, st)
	}
	st.formatted = true
	s := children(n, st)
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}
	lead := s[:strings.Index(s, trimmed)]
	trail := s[len(lead)+len(trimmed):]
	return lead + marker + trimmed + marker + trail
}

func quote(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, "> "+line)
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return "\n\n" + strings.Join(lines, "\n") + "\n\n"
}

func fence(n *Node) string {
	lang := ""
	for _, c := range append([]*Node{n}, n.Children...) {
		if c.Kind != ElementNode {
			continue
		}
		if m := codeLanguageAttr.FindStringSubmatch(c.Attr("class")); m != nil {
			lang = m[1]
			break
		}
	}
	body := strings.Trim(visit(&Node{Kind: DocumentNode, Children: n.Children}, state{pre: true}), "\n")
	delim := strings.Repeat("`", max(3, longestRun(body, '`')+1))
	return "\n\n" + delim + lang + "\n" + body + "\n" + delim + "\n\n"
}

// codeSpan delimits s with one more backtick than its longest backtick run.
func codeSpan(s string) string {
	delim := strings.Repeat("`", longestRun(s, '`')+1)
	if strings.HasPrefix(s, "`") || strings.HasSuffix(s, "`") {
		s = " " + s + " "
	}
	return delim + s + delim
}

// inline flattens s onto a single line.
func inline(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func isDivider(n *Node) bool {
	if n.Attr("role") == "separator" {
		return true
	}
	if n.Tag == "img" || len(strings.TrimSpace(n.TextContent())) > 0 {
		return false
	}
	for _, class := range strings.Fields(strings.ToLower(n.Attr("class"))) {
		if strings.Contains(class, "divider") || strings.Contains(class, "separator") {
			return true
		}
	}
	return false
}

// declaredWeight reports whether an inline font-weight declaration is bold.
// ok is false when the element has none.
func declaredWeight(n *Node) (bold, ok bool) {
	m := fontWeightDecl.FindStringSubmatch(n.Attr("style"))
	if m == nil {
		return false, false
	}
	v := strings.ToLower(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(m[1]), "!important")))
	switch v {
	case "bold", "bolder":
		return true, true
	}
	if w, err := strconv.Atoi(v); err == nil {
		return w >= 600, true
	}
	return false, true
}

func isBoldSpan(n *Node) bool {
	bold, _ := declaredWeight(n)
	return bold
}

func isItalicSpan(n *Node) bool {
	m := fontStyleDecl.FindStringSubmatch(n.Attr("style"))
	if m == nil {
		return false
	}
	v := strings.ToLower(strings.TrimSpace(m[1]))
	return strings.HasPrefix(v, "italic") || strings.HasPrefix(v, "oblique")
}
