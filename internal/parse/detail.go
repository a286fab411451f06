package parse

import (
	"regexp"
	"strings"

	"github.com/vagahub/engine/internal/textnorm"
)

var descriptionKeywords = []string{
	"job description",
	"descricao da vaga",
	"responsabilidades",
	"requirements",
	"requisitos",
}

var (
	sectionRegex = regexp.MustCompile(`(?is)<section[^>]*>(.*?)</section>`)
	divRegex     = regexp.MustCompile(`(?is)<div[^>]*>(.*?)</div>`)
	styleRegex   = regexp.MustCompile(`(?is)<style.*?</style>`)
)

// DetailDescription pulls the description text out of a job detail
// page. It prefers the section or div whose text carries a description
// keyword, falling back to the cleaned whole page.
func DetailDescription(htmlText string) string {
	stripped := styleRegex.ReplaceAllString(stripScripts(htmlText), " ")

	var best string
	for _, re := range []*regexp.Regexp{sectionRegex, divRegex} {
		for _, match := range re.FindAllStringSubmatch(stripped, -1) {
			text := CleanText(match[1])
			if len(text) < 120 {
				continue
			}
			if !containsDescriptionKeyword(text) {
				continue
			}
			if len(text) > len(best) {
				best = text
			}
		}
		if best != "" {
			return best
		}
	}
	return CleanText(stripped)
}

func containsDescriptionKeyword(text string) bool {
	normalized := textnorm.Normalize(text)
	for _, keyword := range descriptionKeywords {
		if strings.Contains(normalized, keyword) {
			return true
		}
	}
	return false
}
