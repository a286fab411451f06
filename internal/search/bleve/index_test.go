package bleveindex

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vagahub/engine/internal/search"
)

func TestUpsertReplacesByID(t *testing.T) {
	idx, err := Open("")
	require.NoError(t, err)
	defer idx.Close()

	ctx := context.Background()
	doc := search.Document{
		ID:          "p-1",
		Title:       "Desenvolvedor Backend",
		CompanyName: "Acme",
		WorkMode:    "Remote",
		Tags:        []string{"golang", "postgres"},
		CapturedAt:  time.Now().UTC(),
		Status:      "Active",
	}
	require.NoError(t, idx.Upsert(ctx, []search.Document{doc}))

	doc.Title = "Desenvolvedor Backend Senior"
	require.NoError(t, idx.Upsert(ctx, []search.Document{doc}))

	count, err := idx.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	hits, err := idx.Search(ctx, "senior", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "p-1", hits[0].ID)
	assert.Equal(t, "Desenvolvedor Backend Senior", hits[0].Title)
	assert.Contains(t, hits[0].Tags, "golang")
}

func TestSearchMatchesCompany(t *testing.T) {
	idx, err := Open("")
	require.NoError(t, err)
	defer idx.Close()

	ctx := context.Background()
	docs := []search.Document{
		{ID: "a", Title: "Analista de Dados", CompanyName: "Banco Exemplo", CapturedAt: time.Now().UTC(), Status: "Active"},
		{ID: "b", Title: "Engenheiro de Software", CompanyName: "Acme", CapturedAt: time.Now().UTC(), Status: "Active"},
	}
	require.NoError(t, idx.Upsert(ctx, docs))

	hits, err := idx.Search(ctx, "acme", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "b", hits[0].ID)
}
