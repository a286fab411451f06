package parse

import (
	"regexp"
	"strings"
)

var (
	anchorRegex       = regexp.MustCompile(`(?is)<a[^>]+href\s*=\s*["']([^"']+)["'][^>]*>(.*?)</a>`)
	boardURLRegex     = regexp.MustCompile(`(?i)vaga-de-[a-z0-9-]+__\d+\.aspx`)
	boardIDRegex      = regexp.MustCompile(`__(\d+)\.aspx`)
	pathDigitsRegex   = regexp.MustCompile(`/(\d{5,})(?:[/?#]|$)`)
	companyLabelRegex = regexp.MustCompile(`(?is)(?:empresa|company)[^<>]*?[:>]\s*(?P<v>[^<]{2,80})`)
	placeLabelRegex   = regexp.MustCompile(`(?is)(?:local|localidade|location|cidade)[^<>]*?[:>]\s*(?P<v>[^<]{2,80})`)
	salaryLabelRegex  = regexp.MustCompile(`(?is)(?:sal[aá]rio|salary|remunera[cç][aã]o)[^<>]*?[:>]\s*(?P<v>[^<]{2,80})`)
)

// BoardJobs parses a job-board listing page using layered strategies:
// embedded page-state JSON, then JSON-LD blocks, then listing anchors
// with labelled text windows. The first strategy producing results wins.
func BoardJobs(htmlText, startURL string, validURL func(string) bool) []Job {
	if validURL == nil {
		validURL = func(string) bool { return true }
	}
	if found := boardJobsFromEmbedded(htmlText, startURL, validURL); len(found) > 0 {
		return found
	}
	if found := boardJobsFromJSONLD(htmlText, startURL, validURL); len(found) > 0 {
		return found
	}
	return boardJobsFromAnchors(htmlText, startURL, validURL)
}

// IsBoardJobURL reports whether a URL matches the vaga-de-...__NNN.aspx
// listing link shape.
func IsBoardJobURL(rawURL string) bool {
	return boardURLRegex.MatchString(rawURL)
}

// StableSourceJobID derives a stable identifier for a listing entry,
// preferring URL slug digits, then any parser-provided id, then common
// query parameters, then long digit runs in the path, then a URL hash.
func StableSourceJobID(job Job) string {
	if m := boardIDRegex.FindStringSubmatch(job.URL); m != nil {
		return m[1]
	}
	if id := strings.TrimSpace(job.SourceJobID); id != "" {
		return id
	}
	if id := queryParam(job.URL, "id", "iv", "jobid"); id != "" {
		return id
	}
	if m := pathDigitsRegex.FindStringSubmatch(job.URL); m != nil {
		return m[1]
	}
	return URLIdentifier(job.URL)
}

func boardJobsFromEmbedded(htmlText, startURL string, validURL func(string) bool) []Job {
	var jobs []Job
	for _, block := range ExtractEmbeddedJSON(htmlText) {
		root := decodeJSON(block)
		if root == nil {
			continue
		}
		walkObjects(root, func(obj map[string]any) bool {
			title := firstString(obj, "title", "name", "jobTitle", "vaga")
			rawURL := firstString(obj, "url", "jobUrl", "link", "href")
			if title == "" || rawURL == "" {
				return true
			}
			abs := AbsoluteURL(rawURL, startURL)
			if abs == "" || !validURL(abs) {
				return true
			}
			jobs = append(jobs, Job{
				Title:        strings.TrimSpace(title),
				Company:      strings.TrimSpace(firstString(obj, "company", "companyName", "empresa", "hiringOrganization")),
				LocationText: strings.TrimSpace(firstString(obj, "location", "locationText", "city", "cidade", "local")),
				URL:          abs,
				SourceJobID:  strings.TrimSpace(firstString(obj, "id", "jobId", "vacancyId")),
				SalaryText:   strings.TrimSpace(firstString(obj, "salary", "salario", "salaryText")),
				PostedAt:     firstDate(obj, "publishedAt", "publishedDate", "datePosted", "createdAt"),
			})
			return true
		})
	}
	return dedupeBy(jobs, func(j Job) string { return strings.ToLower(j.URL) })
}

func boardJobsFromJSONLD(htmlText, startURL string, validURL func(string) bool) []Job {
	var kept []Job
	for _, job := range JobPostings(htmlText, startURL) {
		if validURL(job.URL) {
			kept = append(kept, job)
		}
	}
	return kept
}

func boardJobsFromAnchors(htmlText, startURL string, validURL func(string) bool) []Job {
	var jobs []Job
	for _, match := range anchorRegex.FindAllStringSubmatchIndex(htmlText, -1) {
		href := htmlText[match[2]:match[3]]
		inner := CleanText(htmlText[match[4]:match[5]])
		abs := AbsoluteURL(href, startURL)
		if abs == "" || !validURL(abs) {
			continue
		}
		if len(inner) < 4 {
			continue
		}
		window := textWindow(htmlText, match[0], 600)
		jobs = append(jobs, Job{
			Title:        inner,
			Company:      extractLabelled(window, companyLabelRegex),
			LocationText: extractLabelled(window, placeLabelRegex),
			SalaryText:   extractLabelled(window, salaryLabelRegex),
			URL:          abs,
		})
	}
	return dedupeBy(jobs, func(j Job) string { return strings.ToLower(j.URL) })
}

func queryParam(rawURL string, names ...string) string {
	idx := strings.Index(rawURL, "?")
	if idx < 0 {
		return ""
	}
	for _, pair := range strings.Split(rawURL[idx+1:], "&") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			continue
		}
		for _, name := range names {
			if strings.EqualFold(kv[0], name) && strings.TrimSpace(kv[1]) != "" {
				return kv[1]
			}
		}
	}
	return ""
}
