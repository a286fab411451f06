// Package memory provides in-memory store implementations, used in tests
// and for running the engine without a database.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vagahub/engine/internal/jobs"
	"github.com/vagahub/engine/internal/store"
)

// PostingStore implements store.PostingStore with a mutex-guarded map.
type PostingStore struct {
	mu       sync.RWMutex
	postings map[uuid.UUID]*jobs.Posting
}

// NewPostingStore creates an empty PostingStore.
func NewPostingStore() *PostingStore {
	return &PostingStore{postings: make(map[uuid.UUID]*jobs.Posting)}
}

// FindBySourceKey implements store.PostingStore.
func (s *PostingStore) FindBySourceKey(_ context.Context, vendor jobs.VendorType, sourceName, sourceJobID string) (*jobs.Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.postings {
		if p.Source.Vendor == vendor && p.Source.Name == sourceName && p.Source.SourceJobID == sourceJobID {
			return clonePosting(p), nil
		}
	}
	return nil, store.ErrNotFound
}

// FindBySourceURL implements store.PostingStore.
func (s *PostingStore) FindBySourceURL(_ context.Context, sourceURL string) (*jobs.Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.postings {
		if strings.EqualFold(p.Source.URL, sourceURL) {
			return clonePosting(p), nil
		}
	}
	return nil, store.ErrNotFound
}

// FindByFingerprint implements store.PostingStore.
func (s *PostingStore) FindByFingerprint(_ context.Context, fingerprint string) (*jobs.Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.postings {
		if p.Dedupe.Fingerprint == fingerprint {
			return clonePosting(p), nil
		}
	}
	return nil, store.ErrNotFound
}

// Insert implements store.PostingStore.
func (s *PostingStore) Insert(_ context.Context, posting *jobs.Posting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.postings[posting.ID] = clonePosting(posting)
	return nil
}

// Update implements store.PostingStore.
func (s *PostingStore) Update(_ context.Context, posting *jobs.Posting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.postings[posting.ID]; !ok {
		return store.ErrNotFound
	}
	s.postings[posting.ID] = clonePosting(posting)
	return nil
}

// Get implements store.PostingStore.
func (s *PostingStore) Get(_ context.Context, id uuid.UUID) (*jobs.Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.postings[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clonePosting(p), nil
}

// ListStale implements store.PostingStore.
func (s *PostingStore) ListStale(_ context.Context, vendor jobs.VendorType, sourceName string, cutoff time.Time) ([]*jobs.Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stale []*jobs.Posting
	for _, p := range s.postings {
		if p.Source.Vendor != vendor || p.Source.Name != sourceName || p.Status == jobs.StatusExpired {
			continue
		}
		if p.LastSeenAt.Before(cutoff) {
			stale = append(stale, clonePosting(p))
		}
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i].LastSeenAt.Before(stale[j].LastSeenAt) })
	return stale, nil
}

// SourceStore implements store.SourceStore in memory.
type SourceStore struct {
	mu      sync.Mutex
	sources map[string]jobs.SourceDescriptor
}

// NewSourceStore creates an empty SourceStore.
func NewSourceStore() *SourceStore {
	return &SourceStore{sources: make(map[string]jobs.SourceDescriptor)}
}

// Ensure implements store.SourceStore.
func (s *SourceStore) Ensure(_ context.Context, name string, vendor jobs.VendorType, baseURL string) (jobs.SourceDescriptor, error) {
	key := name + "|" + string(vendor)
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sources[key]; ok {
		return existing, nil
	}
	descriptor := jobs.SourceDescriptor{
		ID:      uuid.New(),
		Name:    name,
		Vendor:  vendor,
		BaseURL: baseURL,
		Enabled: true,
	}
	s.sources[key] = descriptor
	return descriptor, nil
}

// List implements store.SourceStore.
func (s *SourceStore) List(_ context.Context) ([]jobs.SourceDescriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]jobs.SourceDescriptor, 0, len(s.sources))
	for _, d := range s.sources {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// RunStore implements store.RunStore in memory.
type RunStore struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]jobs.RunRecord
}

// NewRunStore creates an empty RunStore.
func NewRunStore() *RunStore {
	return &RunStore{runs: make(map[uuid.UUID]jobs.RunRecord)}
}

// Create implements store.RunStore.
func (s *RunStore) Create(_ context.Context, run *jobs.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = *run
	return nil
}

// Update implements store.RunStore.
func (s *RunStore) Update(_ context.Context, run *jobs.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[run.ID]; !ok {
		return store.ErrNotFound
	}
	s.runs[run.ID] = *run
	return nil
}

// Get implements store.RunStore.
func (s *RunStore) Get(_ context.Context, id uuid.UUID) (jobs.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return jobs.RunRecord{}, store.ErrNotFound
	}
	return run, nil
}

// List implements store.RunStore.
func (s *RunStore) List(_ context.Context, limit, offset int) ([]jobs.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]jobs.RunRecord, 0, len(s.runs))
	for _, run := range s.runs {
		all = append(all, run)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].StartedAt.After(all[j].StartedAt) })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func clonePosting(p *jobs.Posting) *jobs.Posting {
	out := *p
	if p.Location != nil {
		loc := *p.Location
		out.Location = &loc
	}
	if p.Salary != nil {
		salary := *p.Salary
		if p.Salary.Min != nil {
			v := *p.Salary.Min
			salary.Min = &v
		}
		if p.Salary.Max != nil {
			v := *p.Salary.Max
			salary.Max = &v
		}
		out.Salary = &salary
	}
	if p.PostedAt != nil {
		t := *p.PostedAt
		out.PostedAt = &t
	}
	out.Tags = append([]string(nil), p.Tags...)
	out.Languages = append([]string(nil), p.Languages...)
	if p.Metadata != nil {
		out.Metadata = make(map[string]any, len(p.Metadata))
		for k, v := range p.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}
