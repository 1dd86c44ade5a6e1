// Package paste converts clipboard content into a Markdown fragment ready to
// be inserted into a plain text editor buffer.
//
// Plain text is cleaned line by line. Rich HTML (Word, Google Docs, web pages)
// is parsed through an HTMLParser, walked into Markdown and then cleaned the
// same way. Normalize never fails: unusable markup degrades to its text.
package paste

import (
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/rodrigooliver/interflow-sub001/pkg/models"
)

// Normalizer turns clipboard payloads into Markdown.
type Normalizer struct {
	parser HTMLParser
	logger *log.Logger
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithParser replaces the default x/net/html based parser.
func WithParser(p HTMLParser) Option {
	return func(n *Normalizer) {
		n.parser = p
	}
}

// WithLogger sets the logger used for debug tracing.
func WithLogger(l *log.Logger) Option {
	return func(n *Normalizer) {
		n.logger = l
	}
}

// New returns a Normalizer configured with opts.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		parser: NetHTMLParser{},
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

var defaultNormalizer = New()

// Normalize converts payload with the default Normalizer.
func Normalize(payload models.ClipboardPayload) string {
	return defaultNormalizer.Normalize(payload)
}

// Normalize returns the Markdown fragment for payload.
func (n *Normalizer) Normalize(payload models.ClipboardPayload) string {
	plain := payload.PlainText

	switch {
	case hyphenHeading.MatchString(plain):
		// Titles with a hyphen get mangled into list items or rules by the
		// HTML path.
		n.logger.Debug("paste: heading with hyphen, using plain text", "len", len(plain))
		return n.fromText(plain)
	case !payload.HasHTML():
		n.logger.Debug("paste: plain text only", "len", len(plain))
		return n.fromText(plain)
	case hasMarkdown(plain):
		n.logger.Debug("paste: plain text already has markdown", "len", len(plain))
		return n.fromText(plain)
	}

	md := n.fromHTML(payload.HTML)
	if strings.TrimSpace(md) == "" && strings.TrimSpace(plain) != "" {
		n.logger.Debug("paste: html produced no text, using plain text")
		return n.fromText(plain)
	}
	return md
}

func (n *Normalizer) fromText(s string) string {
	return processPostProcessing(processPureText(s))
}

func (n *Normalizer) fromHTML(src string) string {
	src = stripCruft(src)

	root, err := n.parser.Parse(src)
	if err != nil || root == nil {
		n.logger.Debug("paste: html parse failed, stripping tags", "err", err)
		return n.fromText(stripTags(src))
	}
	cleanTree(root)

	md := toMarkdown(root)
	n.logger.Debug("paste: converted html", "html_len", len(src), "markdown_len", len(md))
	return n.fromText(tidyLines(md))
}
