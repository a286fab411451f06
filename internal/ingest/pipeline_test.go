package ingest

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vagahub/engine/internal/jobs"
	"github.com/vagahub/engine/internal/search"
	"github.com/vagahub/engine/internal/source"
	"github.com/vagahub/engine/internal/storage/memory"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

type fakeSource struct {
	name    string
	results []source.Result
}

func (f *fakeSource) Name() string            { return f.name }
func (f *fakeSource) Vendor() jobs.VendorType { return jobs.VendorFixture }
func (f *fakeSource) BaseURL() string         { return "https://jobs.example.com" }

func (f *fakeSource) Fetch(ctx context.Context, _ source.Options) <-chan source.Result {
	out := make(chan source.Result)
	go func() {
		defer close(out)
		for _, r := range f.results {
			select {
			case <-ctx.Done():
				return
			case out <- r:
			}
		}
	}()
	return out
}

type recordingIndex struct {
	search.Noop
	docs []search.Document
}

func (r *recordingIndex) Upsert(_ context.Context, docs []search.Document) error {
	r.docs = append(r.docs, docs...)
	return nil
}

type testHarness struct {
	pipeline *Pipeline
	postings *memory.PostingStore
	runs     *memory.RunStore
	clock    *fakeClock
	index    *recordingIndex
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()
	h := &testHarness{
		postings: memory.NewPostingStore(),
		runs:     memory.NewRunStore(),
		clock:    &fakeClock{now: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)},
		index:    &recordingIndex{},
	}
	h.pipeline = New(Config{ExpireAfter: 14 * 24 * time.Hour},
		h.postings, memory.NewSourceStore(), h.runs, h.index, h.clock, zap.NewNop())
	return h
}

func candidate(id string) source.Candidate {
	return source.Candidate{
		Title:        "Desenvolvedor Go Sênior",
		CompanyName:  "Acme Tecnologia",
		LocationText: "São Paulo, SP",
		URL:          "https://jobs.example.com/vaga/" + id,
		SourceJobID:  id,
		WorkModeText: "remoto",
	}
}

func TestRunOnceStopsAtItemLimit(t *testing.T) {
	h := newHarness(t)
	src := &fakeSource{name: "fixture", results: []source.Result{
		{Candidate: candidate("1")},
		{Candidate: candidate("2")},
		{Candidate: candidate("3")},
		{Candidate: candidate("4")},
	}}

	// The cap holds even when an adapter ignores its own budget.
	run, err := h.pipeline.RunOnce(context.Background(), src, source.Options{MaxItems: 2})
	require.NoError(t, err)

	assert.Equal(t, jobs.RunSuccess, run.Status)
	assert.Equal(t, 2, run.Counters.Fetched)
	assert.Equal(t, 2, run.Counters.Indexed)
	require.Len(t, h.index.docs, 2)

	_, err = h.postings.FindBySourceKey(context.Background(), jobs.VendorFixture, "fixture", "3")
	assert.Error(t, err, "items past the budget are never stored")
}

func TestRunOnceInsertsNewPosting(t *testing.T) {
	h := newHarness(t)
	src := &fakeSource{name: "fixture", results: []source.Result{{Candidate: candidate("1")}}}

	run, err := h.pipeline.RunOnce(context.Background(), src, source.Options{})
	require.NoError(t, err)

	assert.Equal(t, jobs.RunSuccess, run.Status)
	assert.Equal(t, 1, run.Counters.Fetched)
	assert.Equal(t, 1, run.Counters.Parsed)
	assert.Equal(t, 1, run.Counters.Normalized)
	assert.Equal(t, 1, run.Counters.Indexed)
	assert.Zero(t, run.Counters.Duplicates)
	assert.Zero(t, run.Counters.Errors)
	require.NotNil(t, run.FinishedAt)

	stored, err := h.postings.FindBySourceKey(context.Background(), jobs.VendorFixture, "fixture", "1")
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusActive, stored.Status)
	assert.Equal(t, jobs.WorkModeRemote, stored.WorkMode)
	assert.Equal(t, jobs.SenioritySenior, stored.Seniority)
	assert.True(t, strings.HasPrefix(stored.Dedupe.Fingerprint, "sha256:"))
	assert.Contains(t, stored.Languages, "pt-BR")

	require.Len(t, h.index.docs, 1)
	assert.Equal(t, stored.ID.String(), h.index.docs[0].ID)
}

func TestRunOnceIsIdempotent(t *testing.T) {
	h := newHarness(t)
	src := &fakeSource{name: "fixture", results: []source.Result{{Candidate: candidate("1")}}}
	ctx := context.Background()

	first, err := h.pipeline.RunOnce(ctx, src, source.Options{})
	require.NoError(t, err)
	firstSeen := h.clock.Now()

	h.clock.advance(2 * time.Hour)
	second, err := h.pipeline.RunOnce(ctx, src, source.Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, first.Counters.Indexed)
	assert.Equal(t, 1, second.Counters.Duplicates)
	assert.Zero(t, second.Counters.Indexed)

	stored, err := h.postings.FindBySourceKey(ctx, jobs.VendorFixture, "fixture", "1")
	require.NoError(t, err)
	assert.True(t, stored.LastSeenAt.After(firstSeen.Add(-time.Second)))
	assert.Equal(t, h.clock.Now(), stored.LastSeenAt)

	// Still exactly one document pushed: the duplicate must not reindex.
	assert.Len(t, h.index.docs, 1)
}

func TestRunOnceMergesLongerDescription(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	short := candidate("1")
	short.DescriptionText = strings.Repeat("a", 100)
	src := &fakeSource{name: "fixture", results: []source.Result{{Candidate: short}}}
	_, err := h.pipeline.RunOnce(ctx, src, source.Options{})
	require.NoError(t, err)

	slightlyLonger := candidate("1")
	slightlyLonger.DescriptionText = strings.Repeat("a", 130)
	src.results = []source.Result{{Candidate: slightlyLonger}}
	run, err := h.pipeline.RunOnce(ctx, src, source.Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, run.Counters.Duplicates, "a 30 char growth is not a better description")

	muchLonger := candidate("1")
	muchLonger.DescriptionText = strings.Repeat("a", 145)
	src.results = []source.Result{{Candidate: muchLonger}}
	run, err = h.pipeline.RunOnce(ctx, src, source.Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, run.Counters.Indexed, "a 45 char growth replaces the description")

	stored, err := h.postings.FindBySourceKey(ctx, jobs.VendorFixture, "fixture", "1")
	require.NoError(t, err)
	assert.Len(t, stored.DescriptionText, 145)
}

func TestRunOnceMatchesBySourceURLWhenIDChanges(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	src := &fakeSource{name: "fixture", results: []source.Result{{Candidate: candidate("1")}}}
	_, err := h.pipeline.RunOnce(ctx, src, source.Options{})
	require.NoError(t, err)

	renamed := candidate("1")
	renamed.SourceJobID = "renamed-1"
	src.results = []source.Result{{Candidate: renamed}}
	_, err = h.pipeline.RunOnce(ctx, src, source.Options{})
	require.NoError(t, err)

	// Same URL, so the existing record was merged, not duplicated.
	stored, err := h.postings.FindBySourceKey(ctx, jobs.VendorFixture, "fixture", "renamed-1")
	require.NoError(t, err)
	assert.Equal(t, "https://jobs.example.com/vaga/1", stored.Source.URL)
}

func TestRunOnceMatchesByFingerprint(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	src := &fakeSource{name: "fixture", results: []source.Result{{Candidate: candidate("1")}}}
	_, err := h.pipeline.RunOnce(ctx, src, source.Options{})
	require.NoError(t, err)

	// New id and URL, but identical company/title/location/work mode.
	moved := candidate("2")
	src.results = []source.Result{{Candidate: moved}}
	run, err := h.pipeline.RunOnce(ctx, src, source.Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, run.Counters.Duplicates+run.Counters.Indexed)

	_, err = h.postings.FindBySourceKey(ctx, jobs.VendorFixture, "fixture", "2")
	require.NoError(t, err)
}

func TestRunOnceExpiresStalePostings(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	src := &fakeSource{name: "fixture", results: []source.Result{{Candidate: candidate("1")}}}
	_, err := h.pipeline.RunOnce(ctx, src, source.Options{})
	require.NoError(t, err)

	// 13 days later the posting is stale but not expirable.
	h.clock.advance(13 * 24 * time.Hour)
	src.results = nil
	_, err = h.pipeline.RunOnce(ctx, src, source.Options{})
	require.NoError(t, err)

	stored, err := h.postings.FindBySourceKey(ctx, jobs.VendorFixture, "fixture", "1")
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusActive, stored.Status)

	// Past the threshold it expires and the index hears about it.
	h.clock.advance(2 * 24 * time.Hour)
	_, err = h.pipeline.RunOnce(ctx, src, source.Options{})
	require.NoError(t, err)

	stored, err = h.postings.FindBySourceKey(ctx, jobs.VendorFixture, "fixture", "1")
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusExpired, stored.Status)
	assert.Equal(t, "Expired", h.index.docs[len(h.index.docs)-1].Status)
}

func TestRunOnceReactivatesExpiredPosting(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	src := &fakeSource{name: "fixture", results: []source.Result{{Candidate: candidate("1")}}}
	_, err := h.pipeline.RunOnce(ctx, src, source.Options{})
	require.NoError(t, err)

	h.clock.advance(15 * 24 * time.Hour)
	src.results = nil
	_, err = h.pipeline.RunOnce(ctx, src, source.Options{})
	require.NoError(t, err)

	src.results = []source.Result{{Candidate: candidate("1")}}
	run, err := h.pipeline.RunOnce(ctx, src, source.Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, run.Counters.Indexed, "reactivation is a change")

	stored, err := h.postings.FindBySourceKey(ctx, jobs.VendorFixture, "fixture", "1")
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusActive, stored.Status)
}

func TestRunOnceCountsItemErrors(t *testing.T) {
	h := newHarness(t)
	missingTitle := candidate("2")
	missingTitle.Title = "  "
	src := &fakeSource{name: "fixture", results: []source.Result{
		{Err: fmt.Errorf("detail fetch blocked")},
		{Candidate: missingTitle},
		{Candidate: candidate("1")},
	}}

	run, err := h.pipeline.RunOnce(context.Background(), src, source.Options{})
	require.NoError(t, err)
	assert.Equal(t, jobs.RunSuccess, run.Status)
	assert.Equal(t, 2, run.Counters.Errors)
	assert.Equal(t, 1, run.Counters.Indexed)
}

type failingPostingStore struct {
	*memory.PostingStore
}

func (f *failingPostingStore) Insert(context.Context, *jobs.Posting) error {
	return fmt.Errorf("disk full")
}

func TestRunOnceMarksRunFailed(t *testing.T) {
	h := newHarness(t)
	h.pipeline = New(Config{}, &failingPostingStore{memory.NewPostingStore()},
		memory.NewSourceStore(), h.runs, h.index, h.clock, zap.NewNop())

	src := &fakeSource{name: "fixture", results: []source.Result{{Candidate: candidate("1")}}}
	run, err := h.pipeline.RunOnce(context.Background(), src, source.Options{})
	require.Error(t, err)

	assert.Equal(t, jobs.RunFailed, run.Status)
	assert.Contains(t, run.ErrorSample, "disk full")
	require.NotNil(t, run.FinishedAt)

	persisted, err := h.runs.Get(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, jobs.RunFailed, persisted.Status)
}
