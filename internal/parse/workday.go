package parse

import (
	"net/url"
	"strings"
	"time"
)

// WorkdayListItem is one entry of a Workday-style paged listing response.
type WorkdayListItem struct {
	Title              string
	SourceJobID        string
	SourceURL          string
	ExternalPath       string
	LocationText       string
	EmploymentTypeText string
	PostedAt           *time.Time
}

// WorkdayListing locates the jobPostings array anywhere in the response
// tree and maps vendor field aliases to listing items. Items missing a
// usable title or identifier are dropped.
func WorkdayListing(raw, baseHost, sitePath, fallbackSiteName string) []WorkdayListItem {
	root := decodeJSON(raw)
	if root == nil {
		return nil
	}
	postings := findArray(root, "jobPostings")
	if postings == nil {
		return nil
	}

	var items []WorkdayListItem
	for _, node := range postings {
		obj, ok := node.(map[string]any)
		if !ok {
			continue
		}
		title := firstString(obj, "title", "jobTitle")
		externalPath := firstString(obj, "externalPath")
		sourceURL := workdaySourceURL(baseHost, sitePath, fallbackSiteName, externalPath,
			firstString(obj, "id", "jobReqId", "requisitionId"))
		sourceJobID := workdaySourceJobID(obj, sourceURL, externalPath)
		if strings.TrimSpace(title) == "" || sourceJobID == "" {
			continue
		}
		location := workdayLocation(obj)
		if location == "" {
			location = "Unknown"
		}
		items = append(items, WorkdayListItem{
			Title:              strings.TrimSpace(title),
			SourceJobID:        sourceJobID,
			SourceURL:          sourceURL,
			ExternalPath:       externalPath,
			LocationText:       location,
			EmploymentTypeText: strings.TrimSpace(firstString(obj, "timeType", "employmentType", "workerSubType")),
			PostedAt:           firstDate(obj, "postedOn", "postedOnDate", "postedDate", "postedDateTime"),
		})
	}
	return items
}

// WorkdayDetailDescription extracts the longest description-like string
// from a job detail response, stripped of HTML.
func WorkdayDetailDescription(raw string) string {
	root := decodeJSON(raw)
	if root == nil {
		return ""
	}
	var best string
	walkObjects(root, func(obj map[string]any) bool {
		for _, key := range []string{"jobDescription", "description", "jobDescriptionHtml"} {
			if v, ok := obj[key].(string); ok {
				if cleaned := CleanText(v); len(cleaned) > len(best) {
					best = cleaned
				}
			}
		}
		return true
	})
	return best
}

// WorkdayDetailPath builds the detail endpoint path for one listing item.
func WorkdayDetailPath(tenant, siteName, externalPath, sourceJobID string) string {
	if externalPath != "" {
		if strings.HasPrefix(strings.ToLower(externalPath), "/wday/cxs/") {
			return externalPath
		}
		if strings.HasPrefix(strings.ToLower(externalPath), "/job/") {
			return "/wday/cxs/" + tenant + "/" + siteName + externalPath
		}
	}
	return "/wday/cxs/" + tenant + "/" + siteName + "/job/" + url.PathEscape(strings.TrimSpace(sourceJobID))
}

func workdaySourceJobID(obj map[string]any, sourceURL, externalPath string) string {
	if id := firstString(obj, "id", "jobReqId", "jobRequisitionId", "requisitionId"); id != "" {
		return strings.TrimSpace(id)
	}
	if seg := lastPathSegment(externalPath); seg != "" {
		return seg
	}
	if seg := lastPathSegment(sourceURL); seg != "" {
		return seg
	}
	return sourceURL
}

func workdaySourceURL(baseHost, sitePath, fallbackSiteName, externalPath, sourceJobID string) string {
	lower := strings.ToLower(externalPath)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return externalPath
	}
	if strings.HasPrefix(externalPath, "/") {
		return "https://" + baseHost + externalPath
	}
	path := strings.TrimRight(sitePath, "/")
	if path == "" {
		path = "/en-US/" + fallbackSiteName
	}
	id := strings.TrimSpace(sourceJobID)
	if id == "" {
		id = "unknown"
	}
	return "https://" + baseHost + path + "/job/" + url.PathEscape(id)
}

func workdayLocation(obj map[string]any) string {
	if text := firstString(obj, "locationsText", "location"); text != "" {
		return strings.TrimSpace(text)
	}
	if locations, ok := obj["locations"].([]any); ok {
		var values []string
		for _, item := range locations {
			switch v := item.(type) {
			case string:
				if strings.TrimSpace(v) != "" {
					values = append(values, strings.TrimSpace(v))
				}
			case map[string]any:
				if name := firstString(v, "name", "location"); name != "" {
					values = append(values, strings.TrimSpace(name))
				}
			}
		}
		if len(values) > 0 {
			return strings.Join(values, " | ")
		}
	}
	if bullets, ok := obj["bulletFields"].([]any); ok {
		for _, item := range bullets {
			if s, ok := item.(string); ok && strings.Contains(s, ",") {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

func lastPathSegment(input string) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	clean := strings.TrimRight(strings.SplitN(input, "?", 2)[0], "/")
	if idx := strings.LastIndex(clean, "/"); idx >= 0 {
		return clean[idx+1:]
	}
	return clean
}
