package exporter

import (
	"html"
	"html/template"
	"regexp"
)

var (
	urlPattern     = regexp.MustCompile(`https?://[^\s<]+`)
	mentionPattern = regexp.MustCompile(`@[\w\x{4e00}-\x{9fff}]+`)
	topicPattern   = regexp.MustCompile(`#[^#\n]+#`)
)

// expandText turns a post's raw text into safe, link-expanded HTML:
// bare URLs, @mentions and #topic# markers become anchors, matching
// what the live site renders inline. Escaping happens first so the
// regexes never operate on (and can't be fooled by) raw markup.
func expandText(raw string) template.HTML {
	escaped := html.EscapeString(raw)

	escaped = urlPattern.ReplaceAllStringFunc(escaped, func(u string) string {
		return `<a href="` + u + `" target="_blank" rel="noopener">` + u + `</a>`
	})
	escaped = mentionPattern.ReplaceAllStringFunc(escaped, func(m string) string {
		name := m[1:]
		return `<a href="https://weibo.com/n/` + name + `">` + m + `</a>`
	})
	escaped = topicPattern.ReplaceAllStringFunc(escaped, func(t string) string {
		return `<a href="https://s.weibo.com/weibo?q=` + t + `">` + t + `</a>`
	})

	return template.HTML(escaped)
}
