// Package infer derives enumerated posting attributes from free text using
// fixed keyword tables. All matching happens over normalized text, so
// "Híbrido" and "hibrido" behave the same.
package infer

import (
	"strings"

	"github.com/vagahub/engine/internal/jobs"
	"github.com/vagahub/engine/internal/textnorm"
)

// WorkMode matches remote/hybrid/onsite markers in Portuguese and English.
func WorkMode(raw string) jobs.WorkMode {
	text := textnorm.Normalize(raw)
	switch {
	case strings.Contains(text, "remote") || strings.Contains(text, "remoto"):
		return jobs.WorkModeRemote
	case strings.Contains(text, "hybrid") || strings.Contains(text, "hibrido"):
		return jobs.WorkModeHybrid
	case strings.Contains(text, "onsite") || strings.Contains(text, "presencial"):
		return jobs.WorkModeOnsite
	default:
		return jobs.WorkModeUnknown
	}
}

// EmploymentType matches contract-shape markers. Internship wins over
// contract because "contrato de estágio" is common phrasing.
func EmploymentType(raw string) jobs.EmploymentType {
	text := textnorm.Normalize(raw)
	switch {
	case text == "":
		return jobs.EmploymentUnknown
	case strings.Contains(text, "intern") || strings.Contains(text, "estagio"):
		return jobs.EmploymentInternship
	case strings.Contains(text, "temporary") || strings.Contains(text, "temporario") || strings.Contains(text, "temp "):
		return jobs.EmploymentTemporary
	case strings.Contains(text, "clt") || strings.Contains(text, "efetivo"):
		return jobs.EmploymentCLT
	case strings.Contains(text, "pj ") || strings.HasSuffix(text, "pj") || strings.Contains(text, "pessoa juridica"):
		return jobs.EmploymentPJ
	case strings.Contains(text, "contract") || strings.Contains(text, "contrato"):
		return jobs.EmploymentContractor
	default:
		return jobs.EmploymentUnknown
	}
}

// Seniority matches level markers in title text. Checked highest first so
// "senior staff" resolves to Staff rather than Senior.
func Seniority(raw string) jobs.Seniority {
	text := textnorm.Normalize(raw)
	switch {
	case text == "":
		return jobs.SeniorityUnknown
	case strings.Contains(text, "principal"):
		return jobs.SeniorityPrincipal
	case strings.Contains(text, "staff"):
		return jobs.SeniorityStaff
	case strings.Contains(text, "lead") || strings.Contains(text, "lider"):
		return jobs.SeniorityLead
	case strings.Contains(text, "senior") || strings.Contains(text, " sr"):
		return jobs.SenioritySenior
	case strings.Contains(text, "pleno") || strings.Contains(text, "mid level") || strings.Contains(text, " pl"):
		return jobs.SeniorityMid
	case strings.Contains(text, "junior") || strings.Contains(text, " jr"):
		return jobs.SeniorityJunior
	case strings.Contains(text, "intern") || strings.Contains(text, "estagio") || strings.Contains(text, "estagiario"):
		return jobs.SeniorityIntern
	default:
		return jobs.SeniorityUnknown
	}
}

// tagKeywords maps substring needles to canonical tags. Needles that only
// differ by punctuation (".net", "c#") rely on the raw-text match.
var tagKeywords = []struct {
	needle string
	tag    string
}{
	{".net", "dotnet"},
	{"asp.net", "dotnet"},
	{"c#", "csharp"},
	{"react", "react"},
	{"typescript", "typescript"},
	{"javascript", "javascript"},
	{"azure", "azure"},
	{"aws", "aws"},
	{"postgres", "postgres"},
	{"postgresql", "postgres"},
	{"kafka", "kafka"},
	{"docker", "docker"},
	{"kubernetes", "kubernetes"},
	{"golang", "golang"},
	{"java", "java"},
	{"python", "python"},
}

// Tags scans title and description for known technology keywords. Both the
// raw lowercased text and the normalized text are searched, so "C#" and
// "csharp-adjacent" phrasing both hit.
func Tags(title, description string) []string {
	raw := strings.ToLower(title + " " + description)
	normalized := textnorm.Normalize(title + " " + description)

	var tags []string
	seen := make(map[string]struct{})
	for _, kw := range tagKeywords {
		if _, dup := seen[kw.tag]; dup {
			continue
		}
		if strings.Contains(raw, kw.needle) || strings.Contains(normalized, textnorm.Normalize(kw.needle)) {
			seen[kw.tag] = struct{}{}
			tags = append(tags, kw.tag)
		}
	}
	return tags
}

// Languages guesses the posting language from diacritic usage. Brazilian
// boards overwhelmingly post in Portuguese; a description without any
// Portuguese diacritics is treated as English.
func Languages(text string) []string {
	if strings.TrimSpace(text) == "" {
		return []string{"pt-BR"}
	}
	if strings.ContainsAny(strings.ToLower(text), "ãõçáéíóúâêô") {
		return []string{"pt-BR"}
	}
	return []string{"en"}
}
