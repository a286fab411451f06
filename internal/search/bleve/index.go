// Package bleveindex implements search.Index on an embedded Bleve index.
package bleveindex

import (
	"context"
	"fmt"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/vagahub/engine/internal/search"
)

// Index wraps a Bleve search index.
type Index struct {
	index bleve.Index
}

// Open opens or creates a Bleve index at path. An empty path builds an
// in-memory index.
func Open(path string) (*Index, error) {
	if path == "" {
		idx, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create in-memory index: %w", err)
		}
		return &Index{index: idx}, nil
	}

	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		idx, err = bleve.New(path, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	return &Index{index: idx}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	textFieldMapping := bleve.NewTextFieldMapping()
	keywordFieldMapping := bleve.NewKeywordFieldMapping()

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("title", textFieldMapping)
	docMapping.AddFieldMappingsAt("companyName", textFieldMapping)
	docMapping.AddFieldMappingsAt("locationText", textFieldMapping)
	docMapping.AddFieldMappingsAt("tags", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("workMode", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("seniority", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("employmentType", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("sourceName", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("sourceUrl", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("fingerprint", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("status", keywordFieldMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}

// EnsureReady implements search.Index. The mapping is applied at open time.
func (i *Index) EnsureReady(context.Context) error { return nil }

// Upsert implements search.Index using a batch per call.
func (i *Index) Upsert(_ context.Context, docs []search.Document) error {
	if len(docs) == 0 {
		return nil
	}
	batch := i.index.NewBatch()
	for _, doc := range docs {
		if err := batch.Index(doc.ID, doc); err != nil {
			return fmt.Errorf("batch index %s: %w", doc.ID, err)
		}
	}
	if err := i.index.Batch(batch); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// Search implements search.Index with a query-string query.
func (i *Index) Search(_ context.Context, queryStr string, limit int) ([]search.Document, error) {
	if limit <= 0 {
		limit = 20
	}
	query := bleve.NewQueryStringQuery(queryStr)
	request := bleve.NewSearchRequestOptions(query, limit, 0, false)
	request.Fields = []string{"*"}

	results, err := i.index.Search(request)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	docs := make([]search.Document, 0, len(results.Hits))
	for _, hit := range results.Hits {
		doc := search.Document{ID: hit.ID}
		doc.Title = fieldString(hit.Fields, "title")
		doc.CompanyName = fieldString(hit.Fields, "companyName")
		doc.LocationText = fieldString(hit.Fields, "locationText")
		doc.WorkMode = fieldString(hit.Fields, "workMode")
		doc.Seniority = fieldString(hit.Fields, "seniority")
		doc.EmploymentType = fieldString(hit.Fields, "employmentType")
		doc.SourceName = fieldString(hit.Fields, "sourceName")
		doc.SourceURL = fieldString(hit.Fields, "sourceUrl")
		doc.Fingerprint = fieldString(hit.Fields, "fingerprint")
		doc.Status = fieldString(hit.Fields, "status")
		doc.Tags = fieldStrings(hit.Fields, "tags")
		if raw := fieldString(hit.Fields, "postedAt"); raw != "" {
			if t, err := time.Parse(time.RFC3339, raw); err == nil {
				doc.PostedAt = &t
			}
		}
		if raw := fieldString(hit.Fields, "capturedAt"); raw != "" {
			if t, err := time.Parse(time.RFC3339, raw); err == nil {
				doc.CapturedAt = t
			}
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Close implements search.Index.
func (i *Index) Close() error {
	return i.index.Close()
}

// Count returns the number of indexed documents.
func (i *Index) Count() (uint64, error) {
	return i.index.DocCount()
}

func fieldString(fields map[string]any, name string) string {
	if v, ok := fields[name].(string); ok {
		return v
	}
	return ""
}

func fieldStrings(fields map[string]any, name string) []string {
	switch v := fields[name].(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []any:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
