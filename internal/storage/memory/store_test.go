package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vagahub/engine/internal/jobs"
	"github.com/vagahub/engine/internal/store"
)

func newPosting(sourceName, sourceJobID string) *jobs.Posting {
	now := time.Now().UTC()
	return &jobs.Posting{
		ID: uuid.New(),
		Source: jobs.SourceRef{
			Name:        sourceName,
			Vendor:      jobs.VendorInfoJobs,
			URL:         "https://board.example.com/" + sourceJobID,
			SourceJobID: sourceJobID,
		},
		Title:      "Engenheiro de Dados",
		Company:    jobs.CompanyRef{Name: "Acme"},
		Status:     jobs.StatusActive,
		CapturedAt: now,
		LastSeenAt: now,
		Dedupe:     jobs.DedupeInfo{Fingerprint: "sha256:" + sourceJobID},
	}
}

func TestPostingLookups(t *testing.T) {
	ctx := context.Background()
	s := NewPostingStore()
	posting := newPosting("infojobs", "100")
	require.NoError(t, s.Insert(ctx, posting))

	byKey, err := s.FindBySourceKey(ctx, jobs.VendorInfoJobs, "infojobs", "100")
	require.NoError(t, err)
	assert.Equal(t, posting.ID, byKey.ID)

	byURL, err := s.FindBySourceURL(ctx, "https://board.example.com/100")
	require.NoError(t, err)
	assert.Equal(t, posting.ID, byURL.ID)

	byFP, err := s.FindByFingerprint(ctx, "sha256:100")
	require.NoError(t, err)
	assert.Equal(t, posting.ID, byFP.ID)

	_, err = s.FindBySourceKey(ctx, jobs.VendorInfoJobs, "infojobs", "999")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPostingCloneIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewPostingStore()
	posting := newPosting("infojobs", "100")
	posting.Tags = []string{"golang"}
	require.NoError(t, s.Insert(ctx, posting))

	got, err := s.Get(ctx, posting.ID)
	require.NoError(t, err)
	got.Tags[0] = "mutated"
	got.Title = "mutated"

	again, err := s.Get(ctx, posting.ID)
	require.NoError(t, err)
	assert.Equal(t, "golang", again.Tags[0])
	assert.Equal(t, "Engenheiro de Dados", again.Title)
}

func TestUpdateMissingPosting(t *testing.T) {
	s := NewPostingStore()
	err := s.Update(context.Background(), newPosting("infojobs", "1"))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListStale(t *testing.T) {
	ctx := context.Background()
	s := NewPostingStore()
	cutoff := time.Now().UTC()

	fresh := newPosting("infojobs", "fresh")
	fresh.LastSeenAt = cutoff.Add(time.Hour)
	stale := newPosting("infojobs", "stale")
	stale.LastSeenAt = cutoff.Add(-time.Hour)
	expired := newPosting("infojobs", "expired")
	expired.LastSeenAt = cutoff.Add(-2 * time.Hour)
	expired.Status = jobs.StatusExpired
	otherSource := newPosting("vagas", "other")
	otherSource.LastSeenAt = cutoff.Add(-time.Hour)
	otherVendor := newPosting("infojobs", "other-vendor")
	otherVendor.Source.Vendor = jobs.VendorGupy
	otherVendor.LastSeenAt = cutoff.Add(-time.Hour)

	for _, p := range []*jobs.Posting{fresh, stale, expired, otherSource, otherVendor} {
		require.NoError(t, s.Insert(ctx, p))
	}

	got, err := s.ListStale(ctx, jobs.VendorInfoJobs, "infojobs", cutoff)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "stale", got[0].Source.SourceJobID)
}

func TestSourceEnsureIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewSourceStore()

	first, err := s.Ensure(ctx, "infojobs", jobs.VendorInfoJobs, "https://board.example.com")
	require.NoError(t, err)
	second, err := s.Ensure(ctx, "infojobs", jobs.VendorInfoJobs, "https://board.example.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRunStoreOrderingAndPaging(t *testing.T) {
	ctx := context.Background()
	s := NewRunStore()
	base := time.Now().UTC()

	for i := 0; i < 3; i++ {
		run := jobs.RunRecord{
			ID:        uuid.New(),
			SourceID:  uuid.New(),
			StartedAt: base.Add(time.Duration(i) * time.Minute),
			Status:    jobs.RunRunning,
		}
		require.NoError(t, s.Create(ctx, &run))
	}

	runs, err := s.List(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.True(t, runs[0].StartedAt.After(runs[1].StartedAt))

	rest, err := s.List(ctx, 2, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 1)

	none, err := s.List(ctx, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}
