package parse

import (
	"html"
	"net/url"
	"regexp"
	"strings"
)

var (
	tagRegex    = regexp.MustCompile(`(?s)<[^>]+>`)
	scriptRegex = regexp.MustCompile(`(?is)<script.*?</script>`)
)

// CleanText strips HTML tags, decodes entities and collapses whitespace.
func CleanText(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	noTags := tagRegex.ReplaceAllString(raw, " ")
	decoded := html.UnescapeString(noTags)
	return strings.Join(strings.Fields(decoded), " ")
}

// stripScripts removes script blocks so text heuristics do not match
// bundled JavaScript.
func stripScripts(htmlText string) string {
	return scriptRegex.ReplaceAllString(htmlText, " ")
}

// AbsoluteURL resolves raw against base. Inputs that resolve to nothing
// usable are returned unchanged; the caller's URL validity checks decide.
func AbsoluteURL(raw, base string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if ref.IsAbs() {
		return ref.String()
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return raw
	}
	return baseURL.ResolveReference(ref).String()
}

// textWindow returns the slice of text centered on idx, bounded to size
// bytes, used to scan labelled fields near an anchor.
func textWindow(text string, idx, size int) string {
	start := idx - size/2
	if start < 0 {
		start = 0
	}
	end := start + size
	if end > len(text) {
		end = len(text)
	}
	return text[start:end]
}

// extractLabelled applies a labelled-text regex and returns the cleaned
// capture group named "v", or "".
func extractLabelled(window string, re *regexp.Regexp) string {
	m := re.FindStringSubmatch(window)
	if m == nil {
		return ""
	}
	for i, name := range re.SubexpNames() {
		if name == "v" && i < len(m) {
			return CleanText(m[i])
		}
	}
	return ""
}
