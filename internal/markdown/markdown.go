// Package markdown renders model answers into the HTML subset accepted by
// the Telegram Bot API.
package markdown

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	quoteOpen  = "**>"
	quoteClose = "<**"
	fence      = "```"
)

var (
	htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

	headingRe = regexp.MustCompile(`^#{1,6}\s+(.*?)\s*#*$`)
	bulletRe  = regexp.MustCompile(`^(\s*)[*+-]\s+(.*)$`)
	orderedRe = regexp.MustCompile(`^(\s*)(\d+)[.)]\s+(.*)$`)
	ruleRe    = regexp.MustCompile(`^\s*([-*_])(\s*([-*_])){2,}\s*$`)
	quoteRe   = regexp.MustCompile(`^>\s?(.*)$`)

	codeSpanRe = regexp.MustCompile("`([^`\n]+)`")
	linkRe     = regexp.MustCompile(`\[([^\]\n]+)\]\((https?://[^)\s]+)\)`)
	boldRe     = regexp.MustCompile(`\*\*([^*\n]+?)\*\*`)
	strikeRe   = regexp.MustCompile(`~~([^~\n]+?)~~`)
	spoilerRe  = regexp.MustCompile(`\|\|([^|\n]+?)\|\|`)
	starItalic = regexp.MustCompile(`\*([^*\s](?:[^*\n]*[^*\s])?)\*`)
	lineItalic = regexp.MustCompile(`(^|[^\w])_([^_\s](?:[^_\n]*[^_\s])?)_($|[^\w])`)
	placeRe    = regexp.MustCompile("\x00(\\d+)\x00")
)

// Escape makes arbitrary text safe to embed in an HTML message.
func Escape(text string) string {
	return htmlEscaper.Replace(strings.ToValidUTF8(text, ""))
}

// ToHTML converts markdown to Telegram HTML. A text wrapped in the
// expandable quote markers becomes an expandable blockquote.
func ToHTML(text string) string {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, quoteOpen) && strings.HasSuffix(trimmed, quoteClose) && len(trimmed) >= len(quoteOpen)+len(quoteClose) {
		inner := strings.TrimSuffix(strings.TrimPrefix(trimmed, quoteOpen), quoteClose)
		return "<blockquote expandable>" + renderBlocks(strings.TrimSpace(inner)) + "</blockquote>"
	}
	return renderBlocks(text)
}

func renderBlocks(text string) string {
	var (
		out      []string
		quote    []string
		code     []string
		codeLang string
		inFence  bool
	)

	flushQuote := func() {
		if len(quote) > 0 {
			out = append(out, "<blockquote>"+strings.Join(quote, "\n")+"</blockquote>")
			quote = nil
		}
	}
	flushCode := func() {
		open := "<pre><code>"
		if codeLang != "" {
			open = `<pre><code class="language-` + Escape(codeLang) + `">`
		}
		out = append(out, open+Escape(strings.Join(code, "\n"))+"</code></pre>")
		code, codeLang = nil, ""
	}

	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), fence) {
			if inFence {
				flushCode()
				inFence = false
			} else {
				flushQuote()
				inFence = true
				codeLang = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fence))
			}
			continue
		}
		if inFence {
			code = append(code, line)
			continue
		}

		if m := quoteRe.FindStringSubmatch(line); m != nil {
			quote = append(quote, renderInline(m[1]))
			continue
		}
		flushQuote()

		switch {
		case ruleRe.MatchString(line):
			out = append(out, "──────────")
		case headingRe.MatchString(line):
			out = append(out, "<b>"+renderInline(headingRe.FindStringSubmatch(line)[1])+"</b>")
		case bulletRe.MatchString(line):
			m := bulletRe.FindStringSubmatch(line)
			out = append(out, m[1]+"• "+renderInline(m[2]))
		case orderedRe.MatchString(line):
			m := orderedRe.FindStringSubmatch(line)
			out = append(out, m[1]+m[2]+". "+renderInline(m[3]))
		default:
			out = append(out, renderInline(line))
		}
	}
	if inFence {
		flushCode()
	}
	flushQuote()

	return strings.Join(out, "\n")
}

// renderInline handles spans inside a single line. Code spans and links are
// swapped for placeholders first so their content is not formatted.
func renderInline(line string) string {
	var held []string
	hold := func(html string) string {
		held = append(held, html)
		return "\x00" + strconv.Itoa(len(held)-1) + "\x00"
	}

	line = strings.ReplaceAll(line, "\x00", "")
	line = codeSpanRe.ReplaceAllStringFunc(line, func(s string) string {
		return hold("<code>" + Escape(codeSpanRe.FindStringSubmatch(s)[1]) + "</code>")
	})
	line = linkRe.ReplaceAllStringFunc(line, func(s string) string {
		m := linkRe.FindStringSubmatch(s)
		return hold(`<a href="` + Escape(m[2]) + `">` + formatSpans(Escape(m[1])) + "</a>")
	})

	line = formatSpans(Escape(line))

	return placeRe.ReplaceAllStringFunc(line, func(s string) string {
		idx, err := strconv.Atoi(placeRe.FindStringSubmatch(s)[1])
		if err != nil || idx >= len(held) {
			return ""
		}
		return held[idx]
	})
}

func formatSpans(s string) string {
	s = boldRe.ReplaceAllString(s, "<b>$1</b>")
	s = strikeRe.ReplaceAllString(s, "<s>$1</s>")
	s = spoilerRe.ReplaceAllString(s, "<tg-spoiler>$1</tg-spoiler>")
	s = starItalic.ReplaceAllString(s, "<i>$1</i>")
	s = lineItalic.ReplaceAllString(s, "$1<i>$2</i>$3")
	return s
}

// Chunks splits plain text into pieces of at most limit runes, preferring
// line breaks.
func Chunks(text string, limit int) []string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var chunks []string
	runes := []rune(text)
	for len(runes) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if runes[i] == '\n' {
				cut = i
				break
			}
		}
		chunks = append(chunks, strings.TrimRight(string(runes[:cut]), "\n"))
		runes = runes[cut:]
		for len(runes) > 0 && runes[0] == '\n' {
			runes = runes[1:]
		}
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}
