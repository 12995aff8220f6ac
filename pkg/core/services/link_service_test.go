package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wadjakorntonsri/tinylink/pkg/core/domain"
	"github.com/wadjakorntonsri/tinylink/pkg/core/shortcode"
)

// fakeRepo is an in-memory LinkRepository for exercising the service's
// orchestration without a database.
type fakeRepo struct {
	mu    sync.Mutex
	links map[string]*domain.Link

	// forceConflicts makes the next N Create calls fail with ErrCodeTaken.
	forceConflicts int
	createCalls    int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{links: map[string]*domain.Link{}}
}

func (f *fakeRepo) Create(_ context.Context, link *domain.Link) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.forceConflicts > 0 {
		f.forceConflicts--
		return domain.ErrCodeTaken
	}
	if _, ok := f.links[link.Code]; ok {
		return domain.ErrCodeTaken
	}
	cp := *link
	f.links[link.Code] = &cp
	return nil
}

func (f *fakeRepo) GetByCode(_ context.Context, code string) (*domain.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	link, ok := f.links[code]
	if !ok {
		return nil, nil
	}
	cp := *link
	return &cp, nil
}

func (f *fakeRepo) List(_ context.Context) ([]domain.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Link, 0, len(f.links))
	for _, l := range f.links {
		out = append(out, *l)
	}
	return out, nil
}

func (f *fakeRepo) Delete(_ context.Context, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.links[code]; !ok {
		return domain.ErrNotFound
	}
	delete(f.links, code)
	return nil
}

func (f *fakeRepo) RecordClick(_ context.Context, code string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	link, ok := f.links[code]
	if !ok {
		return domain.ErrNotFound
	}
	link.Clicks++
	link.LastClicked = &at
	return nil
}

func (f *fakeRepo) Dump(ctx context.Context) ([]domain.Link, error) {
	return f.List(ctx)
}

func (f *fakeRepo) Restore(ctx context.Context, link *domain.Link) error {
	return f.Create(ctx, link)
}

func (f *fakeRepo) clicks(code string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if link, ok := f.links[code]; ok {
		return link.Clicks
	}
	return 0
}

func TestCreateGeneratesValidCode(t *testing.T) {
	repo := newFakeRepo()
	svc := NewLinkService(repo)

	link, err := svc.Create(context.Background(), "https://example.com/a", "")
	require.NoError(t, err)
	assert.True(t, shortcode.Validate(link.Code))
	assert.Equal(t, "https://example.com/a", link.TargetURL)
	assert.Zero(t, link.Clicks)
	assert.Nil(t, link.LastClicked)
	assert.False(t, link.CreatedAt.IsZero())
}

func TestCreateInvalidURL(t *testing.T) {
	repo := newFakeRepo()
	svc := NewLinkService(repo)

	tests := []string{
		"",
		"not a url",
		"example.com/no-scheme",
		"https://",
		"/relative/path",
	}
	for _, raw := range tests {
		_, err := svc.Create(context.Background(), raw, "")
		assert.ErrorIs(t, err, domain.ErrInvalidURL, "url %q", raw)
	}
	assert.Zero(t, repo.createCalls, "invalid input must be rejected before any store write")
}

func TestCreateInvalidCustomCode(t *testing.T) {
	svc := NewLinkService(newFakeRepo())

	for _, code := range []string{"abc", "with-dash", "waytoolongcode", "abc_12"} {
		_, err := svc.Create(context.Background(), "https://example.com", code)
		assert.ErrorIs(t, err, domain.ErrInvalidCode, "code %q", code)
	}
}

func TestCreateCustomCodeConflict(t *testing.T) {
	repo := newFakeRepo()
	svc := NewLinkService(repo)

	_, err := svc.Create(context.Background(), "https://example.com/a", "abc123")
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "https://example.com/b", "abc123")
	assert.ErrorIs(t, err, domain.ErrCodeTaken)
}

func TestCreateRetriesOnGeneratedCollision(t *testing.T) {
	repo := newFakeRepo()
	repo.forceConflicts = 3
	svc := NewLinkService(repo)

	link, err := svc.Create(context.Background(), "https://example.com", "")
	require.NoError(t, err)
	assert.True(t, shortcode.Validate(link.Code))
	assert.Equal(t, 4, repo.createCalls)
}

func TestCreateExhaustsRetries(t *testing.T) {
	repo := newFakeRepo()
	repo.forceConflicts = maxGenerateAttempts
	svc := NewLinkService(repo)

	_, err := svc.Create(context.Background(), "https://example.com", "")
	assert.ErrorIs(t, err, domain.ErrCodeSpaceExhausted)
	assert.Equal(t, maxGenerateAttempts, repo.createCalls)
}

func TestGetAfterCreateRoundTrip(t *testing.T) {
	repo := newFakeRepo()
	svc := NewLinkService(repo)

	created, err := svc.Create(context.Background(), "https://example.com/page", "round1")
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), "round1")
	require.NoError(t, err)
	assert.Equal(t, created.Code, got.Code)
	assert.Equal(t, created.TargetURL, got.TargetURL)
	assert.Equal(t, created.CreatedAt, got.CreatedAt)
	assert.Zero(t, got.Clicks)
	assert.Nil(t, got.LastClicked)
}

func TestGetMissing(t *testing.T) {
	svc := NewLinkService(newFakeRepo())

	_, err := svc.Get(context.Background(), "nosuch")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteIdempotentOutcome(t *testing.T) {
	repo := newFakeRepo()
	svc := NewLinkService(repo)

	_, err := svc.Create(context.Background(), "https://example.com", "gone01")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), "gone01"))

	_, err = svc.Get(context.Background(), "gone01")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Second delete is indistinguishable from deleting a code that never existed.
	assert.ErrorIs(t, svc.Delete(context.Background(), "gone01"), domain.ErrNotFound)
}

func TestResolveAndRecord(t *testing.T) {
	repo := newFakeRepo()
	svc := NewLinkService(repo)

	_, err := svc.Create(context.Background(), "https://example.com/target", "click1")
	require.NoError(t, err)

	target, err := svc.ResolveAndRecord(context.Background(), "click1")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/target", target)

	// The accounting write is detached; wait for it to settle.
	require.Eventually(t, func() bool {
		return repo.clicks("click1") == 1
	}, 2*time.Second, 10*time.Millisecond)

	got, err := svc.Get(context.Background(), "click1")
	require.NoError(t, err)
	require.NotNil(t, got.LastClicked)
}

func TestResolveAndRecordMissLeavesStoreUntouched(t *testing.T) {
	repo := newFakeRepo()
	svc := NewLinkService(repo)

	_, err := svc.ResolveAndRecord(context.Background(), "nosuch")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Give a stray accounting goroutine a moment to misbehave, then verify
	// nothing appeared.
	time.Sleep(50 * time.Millisecond)
	links, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestConcurrentResolveAndRecord(t *testing.T) {
	repo := newFakeRepo()
	svc := NewLinkService(repo)

	_, err := svc.Create(context.Background(), "https://example.com", "conc01")
	require.NoError(t, err)

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ResolveAndRecord(context.Background(), "conc01")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Eventually(t, func() bool {
		return repo.clicks("conc01") == n
	}, 2*time.Second, 10*time.Millisecond)
}
