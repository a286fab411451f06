package parse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/vagahub/engine/internal/jobs"
	"github.com/vagahub/engine/internal/textnorm"
)

var salaryNumberRegex = regexp.MustCompile(`\d(?:[\d.,]*\d)?`)

// SalaryRange parses a salary fragment such as "R$ 3.500,00 a R$ 5.000,00
// por mês" into a structured range. It returns nil when no amount can be
// recognized.
func SalaryRange(text string) *jobs.SalaryRange {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	amounts := salaryAmounts(trimmed)
	if len(amounts) == 0 {
		return nil
	}

	rangeOut := &jobs.SalaryRange{
		Currency: salaryCurrency(trimmed),
		Period:   salaryPeriod(trimmed),
	}
	minVal := amounts[0]
	maxVal := amounts[0]
	for _, amount := range amounts[1:] {
		if amount < minVal {
			minVal = amount
		}
		if amount > maxVal {
			maxVal = amount
		}
	}
	rangeOut.Min = &minVal
	rangeOut.Max = &maxVal
	return rangeOut
}

func salaryAmounts(text string) []float64 {
	var amounts []float64
	for _, raw := range salaryNumberRegex.FindAllString(text, -1) {
		value, ok := parseAmount(raw)
		if !ok || value <= 0 {
			continue
		}
		amounts = append(amounts, value)
	}
	return amounts
}

// parseAmount accepts both pt-BR ("3.500,50") and plain ("3500.50")
// notations.
func parseAmount(raw string) (float64, bool) {
	normalized := raw
	if strings.Contains(raw, ",") {
		normalized = strings.ReplaceAll(raw, ".", "")
		normalized = strings.ReplaceAll(normalized, ",", ".")
	} else if strings.Count(raw, ".") > 1 {
		normalized = strings.ReplaceAll(raw, ".", "")
	} else if idx := strings.Index(raw, "."); idx >= 0 && len(raw)-idx-1 == 3 {
		// A lone dot with three trailing digits is a thousands separator.
		normalized = strings.ReplaceAll(raw, ".", "")
	}
	value, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

func salaryCurrency(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(text, "R$") || strings.Contains(lower, "reais") || strings.Contains(lower, "brl"):
		return "BRL"
	case strings.Contains(text, "US$") || strings.Contains(text, "$") || strings.Contains(lower, "usd"):
		return "USD"
	case strings.Contains(text, "€") || strings.Contains(lower, "eur"):
		return "EUR"
	default:
		return ""
	}
}

func salaryPeriod(text string) string {
	normalized := textnorm.Normalize(text)
	switch {
	case strings.Contains(normalized, "hora") || strings.Contains(normalized, "hour"):
		return "hour"
	case strings.Contains(normalized, "dia") || strings.Contains(normalized, "day"):
		return "day"
	case strings.Contains(normalized, "ano") || strings.Contains(normalized, "year") || strings.Contains(normalized, "anual"):
		return "year"
	case strings.Contains(normalized, "mes") || strings.Contains(normalized, "month") || strings.Contains(normalized, "mensal"):
		return "month"
	default:
		return ""
	}
}
