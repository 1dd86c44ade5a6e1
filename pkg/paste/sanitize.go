package paste

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Markup that Word and Google Docs put on the clipboard and that never carries
// visible content.
var cruftPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?s)<!--.*?-->`),
	regexp.MustCompile(`(?i)<!\[(?:if|endif)[^\]]*\]>`),
	regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`),
	regexp.MustCompile(`(?is)<xml[^>]*>.*?</xml>`),
	regexp.MustCompile(`(?i)<meta[^>]*>`),
	regexp.MustCompile(`(?i)<link[^>]*>`),
	regexp.MustCompile(`(?i)</?o:[^>]*>`),
}

var (
	msoDeclaration = regexp.MustCompile(`(?i)mso-[a-z\-]+\s*:\s*[^;]*;?`)
	tagPattern     = regexp.MustCompile(`<[^>]+>`)
)

// stripCruft removes editor-specific markup from raw HTML before parsing.
func stripCruft(src string) string {
	for _, re := range cruftPatterns {
		src = re.ReplaceAllString(src, "")
	}
	return src
}

// cleanTree drops Office attributes and empty spans in place.
func cleanTree(n *Node) {
	if n == nil {
		return
	}
	if n.Kind == ElementNode && n.Attrs != nil {
		if class, ok := n.Attrs["class"]; ok && strings.HasPrefix(class, "Mso") {
			delete(n.Attrs, "class")
		}
		if style, ok := n.Attrs["style"]; ok {
			style = strings.TrimSpace(msoDeclaration.ReplaceAllString(style, ""))
			if style == "" {
				delete(n.Attrs, "style")
			} else {
				n.Attrs["style"] = style
			}
		}
	}

	kept := n.Children[:0]
	for _, c := range n.Children {
		if c.Kind == CommentNode {
			continue
		}
		if c.Kind == ElementNode && (c.Tag == "xml" || strings.HasPrefix(c.Tag, "o:")) {
			continue
		}
		cleanTree(c)
		if c.Kind == ElementNode && c.Tag == "span" && len(c.Children) == 0 {
			continue
		}
		kept = append(kept, c)
	}
	n.Children = kept
}

// stripTags is the fallback when the HTML cannot be parsed at all.
func stripTags(src string) string {
	return html.UnescapeString(tagPattern.ReplaceAllString(src, ""))
}
