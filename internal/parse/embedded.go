package parse

import (
	"regexp"
	"strings"
)

var (
	nextDataRegex = regexp.MustCompile(`(?is)<script[^>]*id=["']__NEXT_DATA__["'][^>]*>(.*?)</script>`)
	appJSONRegex  = regexp.MustCompile(`(?is)<script[^>]*type=["']application/(?:ld\+)?json["'][^>]*>(.*?)</script>`)
)

// LooksLikeJSON reports whether the payload's first non-space byte opens a
// JSON document.
func LooksLikeJSON(payload string) bool {
	for _, r := range payload {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		return r == '{' || r == '['
	}
	return false
}

// ExtractEmbeddedJSON pulls candidate JSON documents out of an HTML page:
// a next-data style state blob first, then any application/json or
// application/ld+json script block.
func ExtractEmbeddedJSON(htmlText string) []string {
	var out []string
	for _, m := range nextDataRegex.FindAllStringSubmatch(htmlText, -1) {
		if blob := strings.TrimSpace(m[1]); LooksLikeJSON(blob) {
			out = append(out, blob)
		}
	}
	for _, m := range appJSONRegex.FindAllStringSubmatch(htmlText, -1) {
		if blob := strings.TrimSpace(m[1]); LooksLikeJSON(blob) {
			out = append(out, blob)
		}
	}
	return out
}

// VendorJobs deep-walks a vendor JSON tree collecting every object that
// plausibly represents a job (aliased id/title/url keys all present).
// Relative URLs are resolved against baseURL; results are deduplicated by
// identifier, first occurrence kept.
func VendorJobs(raw, baseURL string) []Job {
	root := decodeJSON(raw)
	if root == nil {
		return nil
	}

	var found []Job
	walkObjects(root, func(obj map[string]any) bool {
		id := firstString(obj, "id", "jobId", "code", "slug")
		title := firstString(obj, "name", "title", "jobTitle")
		jobURL := firstString(obj, "jobUrl", "url", "absoluteUrl")
		if id == "" || strings.TrimSpace(title) == "" || jobURL == "" {
			return true
		}
		found = append(found, Job{
			Title:           strings.TrimSpace(title),
			LocationText:    firstString(obj, "location", "locationText", "city", "workplace"),
			URL:             AbsoluteURL(jobURL, baseURL),
			SourceJobID:     id,
			DescriptionText: firstString(obj, "description", "jobDescription"),
			PostedAt:        firstDate(obj, "publishedAt", "createdAt", "datePublished"),
		})
		return true
	})

	return dedupeBy(found, func(j Job) string { return strings.ToLower(j.SourceJobID) })
}

// dedupeBy keeps the first occurrence per key, preserving order.
func dedupeBy(in []Job, key func(Job) string) []Job {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, j := range in {
		k := key(j)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, j)
	}
	return out
}
