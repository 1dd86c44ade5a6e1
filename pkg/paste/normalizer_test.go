package paste

import (
	"errors"
	"testing"

	"github.com/rodrigooliver/interflow-sub001/pkg/models"
)

func TestNormalizePlainText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"clean list is unchanged", "- item one\n- item two", "- item one\n- item two"},
		{"heading with hyphen is kept", "### Title - Subtitle", "### Title - Subtitle"},
		{"blank runs collapse", "a\n\n\n\nb", "a\n\nb"},
		{"crlf line endings", "a\r\n\r\n\r\nb", "a\n\nb"},
		{"unicode bullets", "• first\n✓ second\n+ third\n➤ fourth", "- first\n- second\n- third\n- fourth"},
		{"tab after marker", "*\tstarred", "- starred"},
		{"marker without space is text", "-5 degrees", "-5 degrees"},
		{"inline bullets split off the prefix", "Features: • fast • cheap", "Features:\n- fast\n- cheap"},
		{"nested list keeps indent", "- a\n  - b", "- a\n  - b"},
		{"underscore emphasis", "__bold__ and _it_", "**bold** and *it*"},
		{"snake case untouched", "call snake_case_name here", "call snake_case_name here"},
		{"code spans untouched", "use `my_var_name` and `__x__`", "use `my_var_name` and `__x__`"},
		{"link target untouched", "[__docs__](http://x.io/a__b__c)", "[**docs**](http://x.io/a__b__c)"},
		{"stars become a rule", "intro\n***\noutro", "intro\n\n---\n\noutro"},
		{"long rule", "intro\n\n\n_____\noutro", "intro\n\n---\n\noutro"},
		{"duplicate rules collapse", "a\n---\n\n___\nb", "a\n\n---\n\nb"},
		{"leading rule", "---\nbody", "---\n\nbody"},
		{"heading continuation merges", "## Report\n-Q3 summary", "## Report -Q3 summary"},
		{"bold title continuation merges", "**Agenda**\n-kickoff", "**Agenda** -kickoff"},
		{"heading absorbs every continuation", "## A\n-b\n-c", "## A -b -c"},
		{"bold title absorbs every continuation", "**Agenda**\n-kickoff\n-wrap up", "**Agenda** -kickoff -wrap up"},
		{"heading followed by list item", "## Todo\n- buy milk", "## Todo\n- buy milk"},
		{"spaced star rule", "intro\n* * *\noutro", "intro\n\n---\n\noutro"},
		{"spaced hyphen rule", "- - -", "---"},
		{"spaced underscore rule", "a\n_ _ _ _\nb", "a\n\n---\n\nb"},
		{"blank only lines are trimmed", "a\n   \n\t\nb", "a\n\nb"},
		{"fenced code untouched", "```\n__x__\n\n\n\n* y\n```", "```\n__x__\n\n\n\n* y\n```"},
		{"longer fence holds a shorter one", "````\n```\n__x__\n```\n* y\n````", "````\n```\n__x__\n```\n* y\n````"},
		{"tilde fence ignores backtick lines", "~~~\n```\n__x__\n~~~\n__y__", "~~~\n```\n__x__\n~~~\n**y**"},
		{"rule inside fence is not padded", "```\n---\nx\n```", "```\n---\nx\n```"},
		{"double backtick span untouched", "``a _b_ `c` d`` and _e_", "``a _b_ `c` d`` and *e*"},
		{"surrounding whitespace trimmed", "\n\n  hello  \n\n", "hello"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(models.ClipboardPayload{PlainText: tt.input})
			if got != tt.want {
				t.Errorf("Normalize(%q)\n got: %q\nwant: %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeHTML(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "paragraph and list",
			html: "<p>Hello <b>world</b></p><ul><li>a</li><li>b</li></ul>",
			want: "Hello **world**\n\n- a\n- b",
		},
		{
			name: "heading and italic",
			html: "<h2>Plan</h2><p>Pay <i>monthly</i>.</p>",
			want: "## Plan\n\nPay *monthly*.",
		},
		{
			name: "ordered lists restart numbering",
			html: "<ol><li>one</li><li>two</li></ol><ol><li>again</li></ol>",
			want: "1. one\n2. two\n\n1. again",
		},
		{
			name: "nested lists",
			html: "<ul><li>a<ul><li>b</li></ul></li><li>c</li></ul>",
			want: "- a\n  - b\n- c",
		},
		{
			name: "link",
			html: `<p><a href="https://x.io">site</a></p>`,
			want: "[site](https://x.io)",
		},
		{
			name: "rendered link is not wrapped twice",
			html: `<a href="https://x.io">[site](https://x.io)</a>`,
			want: "[site](https://x.io)",
		},
		{
			name: "image",
			html: `<img src="a.png" alt="logo">`,
			want: "![logo](a.png)",
		},
		{
			name: "nested emphasis is not doubled",
			html: "<p><b>very <i>important</i></b></p>",
			want: "**very important**",
		},
		{
			name: "bold and italic spans",
			html: `<p><span style="font-weight: 600">heavy</span> and <span style="font-style:italic">slanted</span></p>`,
			want: "**heavy** and *slanted*",
		},
		{
			name: "blockquote",
			html: "<blockquote><p>line one</p><p>line two</p></blockquote>",
			want: "> line one\n> line two",
		},
		{
			name: "preformatted code",
			html: "<pre><code class=\"language-go\">x := 1\n\n\n\ny := 2</code></pre>",
			want: "```go\nx := 1\n\n\n\ny := 2\n```",
		},
		{
			name: "inline code",
			html: "<p>run <code>go_test</code> now</p>",
			want: "run `go_test` now",
		},
		{
			name: "preformatted code containing a fence",
			html: "<pre><code>```\nx := 1\n```</code></pre>",
			want: "````\n```\nx := 1\n```\n````",
		},
		{
			name: "inline code containing a backtick",
			html: "<p>run <code>a`b</code> now</p>",
			want: "run ``a`b`` now",
		},
		{
			name: "inline code wrapped in backticks",
			html: "<p><code>`x`</code></p>",
			want: "`` `x` ``",
		},
		{
			name: "rules and dividers",
			html: `<p>a</p><hr><p>b</p><div class="section-divider"></div><p>c</p>`,
			want: "a\n\n---\n\nb\n\n---\n\nc",
		},
		{
			name: "definition list",
			html: "<dl><dt>Term</dt><dd>Definition</dd></dl>",
			want: "**Term**\nDefinition",
		},
		{
			name: "word cruft",
			html: `<html xmlns:o="urn:schemas-microsoft-com:office:office"><head><meta charset="utf-8"><style>p.MsoNormal{margin:0}</style></head>` +
				`<body><!--StartFragment--><p class="MsoNormal" style="mso-line-height-alt:12pt"><span style="mso-bidi-font-weight:bold;font-weight:bold">Total</span> due<o:p></o:p></p><!--EndFragment--></body></html>`,
			want: "**Total** due",
		},
		{
			name: "word only-mso bold is plain",
			html: `<p class="MsoNormal"><span style="mso-bidi-font-weight:bold">Total</span> due</p>`,
			want: "Total due",
		},
		{
			name: "google docs wrapper",
			html: `<meta charset="utf-8"><b style="font-weight:normal;" id="docs-internal-guid-1"><p dir="ltr"><span style="font-weight:700;">Bold</span><span style="font-weight:400;"> plain</span></p></b>`,
			want: "**Bold** plain",
		},
		{
			name: "script and title are dropped",
			html: "<title>Page</title><script>alert(1)</script><p>body</p>",
			want: "body",
		},
		{
			name: "word bullets become list items",
			html: "<p>• first</p><p>• second</p>",
			want: "- first\n\n- second",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(models.ClipboardPayload{HTML: tt.html})
			if got != tt.want {
				t.Errorf("Normalize(html=%q)\n got: %q\nwant: %q", tt.html, got, tt.want)
			}
		})
	}
}

func TestNormalizeBranchSelection(t *testing.T) {
	tests := []struct {
		name    string
		payload models.ClipboardPayload
		want    string
	}{
		{
			name:    "plain text with markdown wins over html",
			payload: models.ClipboardPayload{PlainText: "Hello **world**", HTML: "<p>ignored</p>"},
			want:    "Hello **world**",
		},
		{
			name:    "plain text with a link wins over html",
			payload: models.ClipboardPayload{PlainText: "see [docs](https://x.io)", HTML: "<p>ignored</p>"},
			want:    "see [docs](https://x.io)",
		},
		{
			name:    "heading with hyphen skips html",
			payload: models.ClipboardPayload{PlainText: "# Q3 - Review", HTML: "<h1>Q3</h1><ul><li>Review</li></ul>"},
			want:    "# Q3 - Review",
		},
		{
			name:    "heading with en dash skips html",
			payload: models.ClipboardPayload{PlainText: "# Títle – Sub", HTML: "<h1>x</h1><ul><li>y</li></ul>"},
			want:    "# Títle – Sub",
		},
		{
			name:    "html preferred over unformatted plain text",
			payload: models.ClipboardPayload{PlainText: "Hello world", HTML: "<p>Hello <b>world</b></p>"},
			want:    "Hello **world**",
		},
		{
			name:    "empty html falls back to plain text",
			payload: models.ClipboardPayload{PlainText: "fallback", HTML: "<p>   </p>"},
			want:    "fallback",
		},
		{
			name:    "nothing to paste",
			payload: models.ClipboardPayload{},
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.payload); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []models.ClipboardPayload{
		{PlainText: "- item one\n- item two"},
		{PlainText: "### Title - Subtitle"},
		{PlainText: "__bold__ and _it_ with [link](https://x.io)"},
		{PlainText: "intro\n***\n\n\n---\noutro"},
		{PlainText: "Features: • fast • cheap"},
		{PlainText: "## Report\n-Q3 summary"},
		{PlainText: "## A\n-b\n-c"},
		{PlainText: "**Agenda**\n-kickoff\n-wrap up"},
		{PlainText: "intro\n* * *\noutro"},
		{PlainText: "````\n```\n__x__\n```\n````"},
		{PlainText: "```\ncode_here\n\n\n```"},
		{HTML: "<p>Hello <b>world</b></p><ul><li>a</li><li>b</li></ul>"},
		{HTML: "<ul><li>a<ul><li>b</li></ul></li><li>c</li></ul>"},
		{HTML: "<blockquote><p>line one</p><p>line two</p></blockquote>"},
		{HTML: "<dl><dt>Term</dt><dd>Definition</dd></dl>"},
		{HTML: `<p><a href="https://x.io">site</a> <img src="a.png" alt="logo"></p>`},
		{HTML: "<pre><code>x := 1\n\n\ny := 2</code></pre>"},
		{HTML: "<pre><code>```\nx := 1\n```</code></pre>"},
		{HTML: "<p>run <code>a`b</code> and <code>`x`</code></p>"},
	}

	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(models.ClipboardPayload{PlainText: once})
		if once != twice {
			t.Errorf("not idempotent for %+v\n once: %q\ntwice: %q", in, once, twice)
		}
	}
}

type staticParser struct {
	root *Node
	err  error
}

func (p staticParser) Parse(string) (*Node, error) {
	return p.root, p.err
}

func TestNormalizerUsesInjectedParser(t *testing.T) {
	root := &Node{Kind: DocumentNode, Children: []*Node{
		{Kind: ElementNode, Tag: "p", Children: []*Node{
			{Kind: TextNode, Text: "Total "},
			{Kind: ElementNode, Tag: "strong", Children: []*Node{{Kind: TextNode, Text: "due"}}},
			{Kind: CommentNode, Text: "ignored"},
		}},
	}}

	n := New(WithParser(staticParser{root: root}))
	got := n.Normalize(models.ClipboardPayload{HTML: "<anything>"})
	if got != "Total **due**" {
		t.Fatalf("expected injected tree to be converted, got %q", got)
	}
}

func TestNormalizerDegradesWhenParserFails(t *testing.T) {
	n := New(WithParser(staticParser{err: errors.New("boom")}))
	got := n.Normalize(models.ClipboardPayload{HTML: "<p>Hi <b>there</b> &amp; you</p>"})
	if got != "Hi there & you" {
		t.Fatalf("expected tag-stripped text, got %q", got)
	}
}
