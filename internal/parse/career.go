package parse

import (
	"regexp"
	"strings"
)

var (
	careerHrefHints = []string{"/job/", "/jobs/", "oportunidade", "vaga"}

	careerLocationRegex = regexp.MustCompile(
		`(?i)\b(remote|remoto|hybrid|hibrido|h[íi]brido|onsite|presencial|[A-ZÀ-Ú][a-zà-ú]+(?:\s+[A-ZÀ-Ú][a-zà-ú]+)*,\s*[A-Z]{2})\b`)
)

// CareerAnchorJobs scans a corporate career page for anchors whose
// target looks like a job posting link, taking the anchor text as the
// title and sniffing a location from the trailing context.
func CareerAnchorJobs(htmlText, startURL string) []Job {
	var jobs []Job
	for _, match := range anchorRegex.FindAllStringSubmatchIndex(htmlText, -1) {
		href := htmlText[match[2]:match[3]]
		if !careerHref(href) {
			continue
		}
		title := CleanText(htmlText[match[4]:match[5]])
		if len(title) < 4 {
			continue
		}
		abs := AbsoluteURL(href, startURL)
		if abs == "" {
			continue
		}
		tail := htmlText[match[1]:min(match[1]+600, len(htmlText))]
		jobs = append(jobs, Job{
			Title:        title,
			URL:          abs,
			LocationText: careerLocation(CleanText(tail)),
		})
	}
	return dedupeBy(jobs, func(j Job) string { return strings.ToLower(j.URL) })
}

func careerHref(href string) bool {
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "#") ||
		strings.HasPrefix(lower, "mailto:") {
		return false
	}
	for _, hint := range careerHrefHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

func careerLocation(text string) string {
	if m := careerLocationRegex.FindString(text); m != "" {
		return strings.TrimSpace(m)
	}
	return ""
}
