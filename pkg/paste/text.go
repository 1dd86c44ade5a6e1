package paste

import (
	"regexp"
	"strings"
)

var (
	headingLine      = regexp.MustCompile(`^#{1,6}[ \t]`)
	hyphenHeading    = regexp.MustCompile(`(?m)^#{1,6}[ \t]+\S.*[ \t][-–][ \t]+\S`)
	ruleLine         = regexp.MustCompile(`^(?:(?:-[ \t]*){3,}|(?:_[ \t]*){3,}|(?:\*[ \t]*){3,})$`)
	boldTitleLine    = regexp.MustCompile(`^\*\*[^*].*\*\*:?$`)
	fenceLine        = regexp.MustCompile("^[ \t]*(`{3,}|~{3,})(.*)$")
	indentedListLine = regexp.MustCompile(`^[ \t]*(?:[-*+]|\d+\.)[ \t]`)
	inlineBullet     = regexp.MustCompile(`[ \t]+[•✓✔✅➢➤➥➔][ \t]+`)
	doubleUnderscore = regexp.MustCompile(`(^|[^\w_])__([^_\s](?:[^_\n]*[^_\s])?)__([^\w_]|$)`)
	singleUnderscore = regexp.MustCompile(`(^|[^\w_])_([^_\s](?:[^_\n]*[^_\s])?)_([^\w_]|$)`)
	doubleStar       = regexp.MustCompile(`\*\*[^*\n]+\*\*`)
	singleStar       = regexp.MustCompile(`(?:^|[^*\w])\*[^*\s](?:[^*\n]*[^*\s])?\*(?:[^*]|$)`)
	markdownLink     = regexp.MustCompile(`\[[^\]\n]+\]\([^)\s]+\)`)
)

// listMarkers start a list item when followed by a space or a tab.
var listMarkers = []string{"-", "•", "✓", "✔", "✅", "*", "+", "➢", "➤", "➥", "➔"}

// hasMarkdown reports whether s already uses emphasis or link syntax.
func hasMarkdown(s string) bool {
	return doubleStar.MatchString(s) ||
		singleStar.MatchString(s) ||
		doubleUnderscore.MatchString(s) ||
		singleUnderscore.MatchString(s) ||
		markdownLink.MatchString(s)
}

// processPureText rewrites list markers, horizontal rules and underscore
// emphasis line by line. Fenced code is copied untouched.
func processPureText(s string) string {
	lines := strings.Split(normalizeNewlines(s), "\n")
	out := make([]string, 0, len(lines))

	var fences fenceState
	for _, line := range lines {
		if fences.step(line) || fences.open() {
			out = append(out, line)
			continue
		}
		switch {
		case headingLine.MatchString(line):
			out = append(out, normalizeInline(strings.TrimRight(line, " \t")))
		case ruleLine.MatchString(strings.TrimSpace(line)):
			out = append(out, "---")
		default:
			out = append(out, splitBullets(line)...)
		}
	}
	return strings.Join(out, "\n")
}

// splitBullets turns a line into one or more "- item" lines. Text preceding
// the first inline bullet stays on its own line.
func splitBullets(line string) []string {
	body := strings.TrimLeft(line, " \t")
	indent := line[:len(line)-len(body)]
	body = strings.TrimRight(body, " \t")

	item, isItem := listItem(body)
	if isItem {
		body = item
	}
	locs := inlineBullet.FindAllStringIndex(body, -1)
	if !isItem && len(locs) == 0 {
		return []string{indent + normalizeInline(body)}
	}

	var out []string
	first := body
	if len(locs) > 0 {
		first = body[:locs[0][0]]
	}
	switch {
	case isItem:
		out = append(out, bullet(indent, first))
	case strings.TrimSpace(first) != "":
		out = append(out, indent+normalizeInline(strings.TrimSpace(first)))
	}
	for i, loc := range locs {
		end := len(body)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		out = append(out, bullet(indent, body[loc[1]:end]))
	}
	return out
}

func bullet(indent, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return indent + "-"
	}
	return indent + "- " + normalizeInline(text)
}

func listItem(body string) (string, bool) {
	for _, m := range listMarkers {
		if !strings.HasPrefix(body, m) {
			continue
		}
		rest := body[len(m):]
		if strings.HasPrefix(rest, " ") || strings.HasPrefix(rest, "\t") {
			return strings.TrimSpace(rest), true
		}
	}
	return "", false
}

// normalizeInline rewrites __x__ to **x** and _x_ to *x*, leaving code spans
// and link targets alone.
func normalizeInline(s string) string {
	spans := protectedSpans(s)
	if len(spans) == 0 {
		return normalizeEmphasis(s)
	}
	var b strings.Builder
	last := 0
	for _, loc := range spans {
		b.WriteString(normalizeEmphasis(s[last:loc[0]]))
		b.WriteString(s[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(normalizeEmphasis(s[last:]))
	return b.String()
}

func normalizeEmphasis(s string) string {
	// Matches may share a boundary character, so repeat until stable. Every
	// replacement removes underscores, which bounds the loop.
	for {
		next := doubleUnderscore.ReplaceAllString(s, "${1}**${2}**${3}")
		next = singleUnderscore.ReplaceAllString(next, "${1}*${2}*${3}")
		if next == s {
			return s
		}
		s = next
	}
}

// processPostProcessing is the shared final pass: heading and bold title
// continuations are merged, blank runs collapse to a single blank line and
// every rule gets exactly one blank line on each side.
func processPostProcessing(s string) string {
	lines := strings.Split(normalizeNewlines(s), "\n")

	merged := make([]string, 0, len(lines))
	var fences fenceState
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if !fences.step(line) && !fences.open() {
			if strings.TrimSpace(line) == "" {
				line = ""
			}
			if headingLine.MatchString(line) || boldTitleLine.MatchString(line) {
				line = strings.TrimRight(line, " \t")
				for i+1 < len(lines) && isHyphenContinuation(lines[i+1]) {
					line += " " + strings.TrimSpace(lines[i+1])
					i++
				}
			}
		}
		merged = append(merged, line)
	}

	out := make([]string, 0, len(merged))
	fences = fenceState{}
	for _, line := range merged {
		opening := !fences.open()
		if fences.step(line) || !opening {
			if opening {
				out = padAfterRule(out)
			}
			out = append(out, line)
			continue
		}
		switch {
		case line == "---":
			for len(out) > 0 && out[len(out)-1] == "" {
				out = out[:len(out)-1]
			}
			if len(out) > 0 && out[len(out)-1] == "---" {
				continue
			}
			if len(out) > 0 {
				out = append(out, "")
			}
			out = append(out, "---")
		case line == "":
			if len(out) == 0 || out[len(out)-1] == "" {
				continue
			}
			out = append(out, "")
		default:
			out = padAfterRule(out)
			out = append(out, line)
		}
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func padAfterRule(out []string) []string {
	if len(out) > 0 && out[len(out)-1] == "---" {
		return append(out, "")
	}
	return out
}

func isHyphenContinuation(line string) bool {
	if !strings.HasPrefix(line, "-") || len(line) < 2 {
		return false
	}
	if line[1] == ' ' || line[1] == '\t' {
		return false
	}
	return !ruleLine.MatchString(strings.TrimSpace(line))
}

// tidyLines trims converter spacing: trailing whitespace everywhere and
// leading whitespace on lines that are not nested list items.
func tidyLines(s string) string {
	lines := strings.Split(normalizeNewlines(s), "\n")
	var fences fenceState
	for i, line := range lines {
		if fences.step(line) {
			lines[i] = strings.TrimSpace(line)
			continue
		}
		if fences.open() {
			continue
		}
		line = strings.TrimRight(line, " \t")
		if !indentedListLine.MatchString(line) {
			line = strings.TrimLeft(line, " \t")
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

// fenceState tracks fenced code blocks. A fence closes on a run of the
// opening character at least as long as the opener, with no info string.
type fenceState struct {
	char byte
	size int
}

func (f *fenceState) open() bool { return f.size > 0 }

// step reports whether line opens or closes a fence.
func (f *fenceState) step(line string) bool {
	m := fenceLine.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	run := m[1]
	if !f.open() {
		f.char, f.size = run[0], len(run)
		return true
	}
	if run[0] == f.char && len(run) >= f.size && strings.TrimSpace(m[2]) == "" {
		f.size = 0
		return true
	}
	return false
}

// protectedSpans returns the code spans and link targets of s. A code span
// closes on the next backtick run of the same length on the same line.
func protectedSpans(s string) [][2]int {
	var spans [][2]int
	for i := 0; i < len(s); {
		switch {
		case s[i] == '`':
			n := backtickRun(s, i)
			if end, ok := closingRun(s, i+n, n); ok {
				spans = append(spans, [2]int{i, end})
				i = end
				continue
			}
			i += n
		case s[i] == ']' && i+1 < len(s) && s[i+1] == '(':
			if j := strings.IndexAny(s[i+2:], ")\n"); j >= 0 && s[i+2+j] == ')' {
				end := i + 2 + j + 1
				spans = append(spans, [2]int{i, end})
				i = end
				continue
			}
			i++
		default:
			i++
		}
	}
	return spans
}

func closingRun(s string, from, n int) (int, bool) {
	for j := from; j < len(s); {
		switch s[j] {
		case '\n':
			return 0, false
		case '`':
			m := backtickRun(s, j)
			if m == n {
				return j + m, true
			}
			j += m
		default:
			j++
		}
	}
	return 0, false
}

func backtickRun(s string, i int) int {
	n := 0
	for i+n < len(s) && s[i+n] == '`' {
		n++
	}
	return n
}

// longestRun returns the length of the longest run of c in s.
func longestRun(s string, c byte) int {
	longest, run := 0, 0
	for i := 0; i < len(s); i++ {
		if s[i] != c {
			run = 0
			continue
		}
		run++
		longest = max(longest, run)
	}
	return longest
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
