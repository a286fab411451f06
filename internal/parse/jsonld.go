package parse

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

var jsonLDRegex = regexp.MustCompile(`(?is)<script[^>]*type="application/ld\+json"[^>]*>(.*?)</script>`)

// JobPostings extracts schema.org JobPosting nodes from the page's ld+json
// script blocks. Nodes whose @type is or contains "JobPosting" are mapped
// to intermediate jobs; URLs are resolved against startURL, and nodes with
// no identifier get a stable one derived from the canonical URL.
func JobPostings(htmlText, startURL string) []Job {
	if strings.TrimSpace(htmlText) == "" {
		return nil
	}

	var found []Job
	for _, m := range jsonLDRegex.FindAllStringSubmatch(htmlText, -1) {
		root := decodeJSON(m[1])
		if root == nil {
			continue
		}
		walkObjects(root, func(obj map[string]any) bool {
			if !isJobPosting(obj) {
				return true
			}
			title := firstString(obj, "title")
			rawURL := firstString(obj, "url")
			if rawURL == "" {
				rawURL = startURL
			}
			absURL := AbsoluteURL(rawURL, startURL)
			if strings.TrimSpace(title) == "" || absURL == "" {
				return true
			}
			found = append(found, Job{
				Title:              CleanText(title),
				Company:            ldCompany(obj),
				LocationText:       ldLocation(obj),
				URL:                absURL,
				SourceJobID:        ldIdentifier(obj, absURL),
				DescriptionText:    firstString(obj, "description"),
				PostedAt:           firstDate(obj, "datePosted", "validFrom"),
				EmploymentTypeText: firstString(obj, "employmentType"),
				WorkModeText:       firstString(obj, "jobLocationType"),
			})
			return true
		})
	}

	return dedupeBy(found, func(j Job) string { return strings.ToLower(j.SourceJobID) })
}

func isJobPosting(obj map[string]any) bool {
	switch t := obj["@type"].(type) {
	case string:
		return strings.EqualFold(t, "JobPosting")
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && strings.EqualFold(s, "JobPosting") {
				return true
			}
		}
	}
	return false
}

func ldIdentifier(obj map[string]any, absURL string) string {
	switch id := obj["identifier"].(type) {
	case string:
		if strings.TrimSpace(id) != "" {
			return id
		}
	case map[string]any:
		if v := firstString(id, "value", "name"); v != "" {
			return v
		}
	}
	return URLIdentifier(absURL)
}

// URLIdentifier derives a stable 16-hex-character identifier from the
// lowercased canonical URL, for sources that expose no job id.
func URLIdentifier(absURL string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(absURL))))
	return "url:" + hex.EncodeToString(sum[:])[:16]
}

func ldCompany(obj map[string]any) string {
	if hiring, ok := obj["hiringOrganization"].(map[string]any); ok {
		if name := firstString(hiring, "name", "legalName"); name != "" {
			return CleanText(name)
		}
	}
	return "Unknown"
}

func ldLocation(obj map[string]any) string {
	if loc, ok := obj["jobLocation"]; ok {
		if text := ldLocationValue(loc); text != "" {
			return text
		}
	}
	if req, ok := obj["applicantLocationRequirements"].(map[string]any); ok {
		if name := firstString(req, "name"); name != "" {
			return CleanText(name)
		}
	}
	return ""
}

func ldLocationValue(loc any) string {
	switch v := loc.(type) {
	case []any:
		var parts []string
		for _, item := range v {
			if text := ldLocationValue(item); text != "" {
				parts = append(parts, text)
			}
		}
		return strings.Join(parts, " | ")
	case map[string]any:
		if addr, ok := v["address"].(map[string]any); ok {
			var parts []string
			for _, key := range []string{"addressLocality", "addressRegion", "addressCountry"} {
				if p := firstString(addr, key); p != "" {
					parts = append(parts, CleanText(p))
				}
			}
			if len(parts) > 0 {
				return strings.Join(parts, ", ")
			}
		}
		if name := firstString(v, "name"); name != "" {
			return CleanText(name)
		}
	}
	return ""
}
