// Package fingerprint derives the stable dedupe key for a job posting.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/vagahub/engine/internal/textnorm"
)

// Compute hashes the normalized identity fields of a posting. Two postings
// whose company, title, location and work mode normalize to the same text
// always produce the same key, regardless of case, diacritics, punctuation
// or whitespace differences.
func Compute(company, title, locationText, workMode string) string {
	normalized := textnorm.Normalize(company) + "|" +
		textnorm.Normalize(title) + "|" +
		textnorm.Normalize(locationText) + "|" +
		textnorm.Normalize(workMode)

	sum := sha256.Sum256([]byte(normalized))
	return "sha256:" + hex.EncodeToString(sum[:])
}
