package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"shortlink/internal/domain"
	"shortlink/internal/shortcode"
	"shortlink/pkg/logger"
)

// ==================== MOCKS ====================

type MockLinkRepository struct {
	mock.Mock
}

func (m *MockLinkRepository) Create(ctx context.Context, entry *domain.LinkEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLinkRepository) GetByCode(ctx context.Context, shortCode string) (*domain.LinkEntry, error) {
	args := m.Called(ctx, shortCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LinkEntry), args.Error(1)
}

func (m *MockLinkRepository) GetByID(ctx context.Context, id string) (*domain.LinkEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LinkEntry), args.Error(1)
}

func (m *MockLinkRepository) List(ctx context.Context, limit int) ([]*domain.LinkEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LinkEntry), args.Error(1)
}

func (m *MockLinkRepository) Update(ctx context.Context, id string, update domain.LinkUpdate) (*domain.LinkEntry, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LinkEntry), args.Error(1)
}

func (m *MockLinkRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockLinkRepository) Exists(ctx context.Context, shortCode, linkDomain string) (bool, error) {
	args := m.Called(ctx, shortCode, linkDomain)
	return args.Bool(0), args.Error(1)
}

type MockClickRepository struct {
	mock.Mock
}

func (m *MockClickRepository) Create(ctx context.Context, click *domain.ClickEvent) error {
	args := m.Called(ctx, click)
	return args.Error(0)
}

func (m *MockClickRepository) Summarize(ctx context.Context, shortCode string) (*domain.Statistics, error) {
	args := m.Called(ctx, shortCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Statistics), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetLink(ctx context.Context, shortCode string) (*domain.LinkEntry, error) {
	args := m.Called(ctx, shortCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LinkEntry), args.Error(1)
}

func (m *MockCache) SetLink(ctx context.Context, shortCode string, entry *domain.LinkEntry) error {
	args := m.Called(ctx, shortCode, entry)
	return args.Error(0)
}

func (m *MockCache) DeleteLink(ctx context.Context, shortCode string) error {
	args := m.Called(ctx, shortCode)
	return args.Error(0)
}

// ==================== HELPERS ====================

func newTestLinkService(linkRepo *MockLinkRepository, clickRepo *MockClickRepository, cache *MockCache) *LinkService {
	return NewLinkService(
		linkRepo, clickRepo, cache,
		shortcode.NewGenerator(7),
		[]string{"d.io", "sho.rt"},
		5,
		logger.New("error"),
	)
}

// ==================== CREATE ====================

func TestCreateLink_CustomCode(t *testing.T) {
	ctx := context.Background()
	linkRepo := new(MockLinkRepository)
	clickRepo := new(MockClickRepository)
	cache := new(MockCache)
	svc := newTestLinkService(linkRepo, clickRepo, cache)

	linkRepo.On("Create", ctx, mock.AnythingOfType("*domain.LinkEntry")).Return(nil)
	cache.On("SetLink", ctx, "abc", mock.AnythingOfType("*domain.LinkEntry")).Return(nil)

	entry, err := svc.CreateLink(ctx, CreateLinkParams{
		URL:        "https://example.com/a",
		Domain:     "d.io",
		CustomCode: "abc",
	})

	require.NoError(t, err)
	assert.Equal(t, "abc", entry.ShortCode)
	assert.Equal(t, "d.io", entry.Domain)
	assert.Equal(t, "https://example.com/a", entry.DestinationURL)
	assert.Equal(t, "https://d.io/abc", entry.ShortenedURL())
	linkRepo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestCreateLink_GeneratedCode(t *testing.T) {
	ctx := context.Background()
	linkRepo := new(MockLinkRepository)
	cache := new(MockCache)
	svc := newTestLinkService(linkRepo, new(MockClickRepository), cache)

	linkRepo.On("Create", ctx, mock.AnythingOfType("*domain.LinkEntry")).Return(nil)
	cache.On("SetLink", ctx, mock.AnythingOfType("string"), mock.AnythingOfType("*domain.LinkEntry")).Return(nil)

	entry, err := svc.CreateLink(ctx, CreateLinkParams{
		URL:    "https://example.com",
		Domain: "sho.rt",
	})

	require.NoError(t, err)
	assert.Len(t, entry.ShortCode, 7)
}

func TestCreateLink_InvalidURL(t *testing.T) {
	svc := newTestLinkService(new(MockLinkRepository), new(MockClickRepository), new(MockCache))

	_, err := svc.CreateLink(context.Background(), CreateLinkParams{
		URL:    "not-a-url",
		Domain: "d.io",
	})

	assert.ErrorIs(t, err, domain.ErrInvalidURL)
}

func TestCreateLink_InvalidDomain(t *testing.T) {
	svc := newTestLinkService(new(MockLinkRepository), new(MockClickRepository), new(MockCache))

	_, err := svc.CreateLink(context.Background(), CreateLinkParams{
		URL:    "https://example.com",
		Domain: "evil.example",
	})

	assert.ErrorIs(t, err, domain.ErrInvalidDomain)
}

func TestCreateLink_DuplicateCustomCode(t *testing.T) {
	ctx := context.Background()
	linkRepo := new(MockLinkRepository)
	svc := newTestLinkService(linkRepo, new(MockClickRepository), new(MockCache))

	linkRepo.On("Create", ctx, mock.AnythingOfType("*domain.LinkEntry")).Return(domain.ErrDuplicateCode)

	_, err := svc.CreateLink(ctx, CreateLinkParams{
		URL:        "https://example.com",
		Domain:     "d.io",
		CustomCode: "taken",
	})

	assert.ErrorIs(t, err, domain.ErrDuplicateCode)
	// A custom code does not get retried.
	linkRepo.AssertNumberOfCalls(t, "Create", 1)
}

func TestCreateLink_GeneratedCodeRetriesOnCollision(t *testing.T) {
	ctx := context.Background()
	linkRepo := new(MockLinkRepository)
	cache := new(MockCache)
	svc := newTestLinkService(linkRepo, new(MockClickRepository), cache)

	linkRepo.On("Create", ctx, mock.AnythingOfType("*domain.LinkEntry")).Return(domain.ErrDuplicateCode).Twice()
	linkRepo.On("Create", ctx, mock.AnythingOfType("*domain.LinkEntry")).Return(nil).Once()
	cache.On("SetLink", ctx, mock.AnythingOfType("string"), mock.AnythingOfType("*domain.LinkEntry")).Return(nil)

	_, err := svc.CreateLink(ctx, CreateLinkParams{
		URL:    "https://example.com",
		Domain: "d.io",
	})

	require.NoError(t, err)
	linkRepo.AssertNumberOfCalls(t, "Create", 3)
}

func TestCreateLink_GenerationExhausted(t *testing.T) {
	ctx := context.Background()
	linkRepo := new(MockLinkRepository)
	svc := newTestLinkService(linkRepo, new(MockClickRepository), new(MockCache))

	linkRepo.On("Create", ctx, mock.AnythingOfType("*domain.LinkEntry")).Return(domain.ErrDuplicateCode)

	_, err := svc.CreateLink(ctx, CreateLinkParams{
		URL:    "https://example.com",
		Domain: "d.io",
	})

	assert.ErrorIs(t, err, domain.ErrGenerationExhausted)
	linkRepo.AssertNumberOfCalls(t, "Create", 5)
}

func TestCreateLink_CacheFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	linkRepo := new(MockLinkRepository)
	cache := new(MockCache)
	svc := newTestLinkService(linkRepo, new(MockClickRepository), cache)

	linkRepo.On("Create", ctx, mock.AnythingOfType("*domain.LinkEntry")).Return(nil)
	cache.On("SetLink", ctx, "abc", mock.AnythingOfType("*domain.LinkEntry")).Return(assert.AnError)

	_, err := svc.CreateLink(ctx, CreateLinkParams{
		URL:        "https://example.com",
		Domain:     "d.io",
		CustomCode: "abc",
	})

	require.NoError(t, err)
}

// ==================== CONCURRENT CREATE ====================

// atomicLinkRepo is a map-backed repository whose Create enforces the
// (short_code, domain) unique key under a mutex, the way the database
// constraint does.
type atomicLinkRepo struct {
	MockLinkRepository
	mu    sync.Mutex
	taken map[string]bool
}

func (r *atomicLinkRepo) Create(_ context.Context, entry *domain.LinkEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := entry.ShortCode + "|" + entry.Domain
	if r.taken[key] {
		return domain.ErrDuplicateCode
	}
	r.taken[key] = true
	entry.ID = "id-" + key
	return nil
}

func TestCreateLink_ConcurrentSameCode(t *testing.T) {
	ctx := context.Background()
	linkRepo := &atomicLinkRepo{taken: make(map[string]bool)}
	cache := new(MockCache)
	cache.On("SetLink", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := NewLinkService(
		linkRepo, new(MockClickRepository), cache,
		shortcode.NewGenerator(7), []string{"d.io"}, 5, logger.New("error"),
	)

	params := CreateLinkParams{URL: "https://example.com", Domain: "d.io", CustomCode: "race"}
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateLink(ctx, params)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var successes, duplicates int
	for err := range errs {
		switch {
		case err == nil:
			successes++
		case assert.ErrorIs(t, err, domain.ErrDuplicateCode):
			duplicates++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, duplicates)
}

// ==================== AVAILABILITY ====================

func TestIsAvailable(t *testing.T) {
	ctx := context.Background()
	linkRepo := new(MockLinkRepository)
	svc := newTestLinkService(linkRepo, new(MockClickRepository), new(MockCache))

	linkRepo.On("Exists", ctx, "free", "d.io").Return(false, nil)
	linkRepo.On("Exists", ctx, "taken", "d.io").Return(true, nil)

	available, err := svc.IsAvailable(ctx, "free", "d.io")
	require.NoError(t, err)
	assert.True(t, available)

	available, err = svc.IsAvailable(ctx, "taken", "d.io")
	require.NoError(t, err)
	assert.False(t, available)
}

// ==================== UPDATE ====================

func TestUpdateLink_PartialFields(t *testing.T) {
	ctx := context.Background()
	linkRepo := new(MockLinkRepository)
	cache := new(MockCache)
	svc := newTestLinkService(linkRepo, new(MockClickRepository), cache)

	title := "new title"
	updated := &domain.LinkEntry{ID: "id1", ShortCode: "abc", Domain: "d.io", Title: title}
	linkRepo.On("Update", ctx, "id1", domain.LinkUpdate{Title: &title}).Return(updated, nil)
	cache.On("DeleteLink", ctx, "abc").Return(nil)

	entry, err := svc.UpdateLink(ctx, "id1", domain.LinkUpdate{Title: &title})

	require.NoError(t, err)
	assert.Equal(t, "new title", entry.Title)
	cache.AssertExpectations(t)
}

func TestUpdateLink_InvalidDestination(t *testing.T) {
	svc := newTestLinkService(new(MockLinkRepository), new(MockClickRepository), new(MockCache))

	bad := "not-a-url"
	_, err := svc.UpdateLink(context.Background(), "id1", domain.LinkUpdate{DestinationURL: &bad})

	assert.ErrorIs(t, err, domain.ErrInvalidURL)
}

func TestUpdateLink_NotFound(t *testing.T) {
	ctx := context.Background()
	linkRepo := new(MockLinkRepository)
	svc := newTestLinkService(linkRepo, new(MockClickRepository), new(MockCache))

	note := "n"
	linkRepo.On("Update", ctx, "missing", domain.LinkUpdate{Note: &note}).Return(nil, domain.ErrNotFound)

	_, err := svc.UpdateLink(ctx, "missing", domain.LinkUpdate{Note: &note})

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ==================== DELETE ====================

func TestDeleteLink_InvalidatesCache(t *testing.T) {
	ctx := context.Background()
	linkRepo := new(MockLinkRepository)
	cache := new(MockCache)
	svc := newTestLinkService(linkRepo, new(MockClickRepository), cache)

	entry := &domain.LinkEntry{ID: "id1", ShortCode: "abc", Domain: "d.io"}
	linkRepo.On("GetByID", ctx, "id1").Return(entry, nil)
	linkRepo.On("Delete", ctx, "id1").Return(nil)
	cache.On("DeleteLink", ctx, "abc").Return(nil)

	err := svc.DeleteLink(ctx, "id1")

	require.NoError(t, err)
	linkRepo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestDeleteLink_NotFound(t *testing.T) {
	ctx := context.Background()
	linkRepo := new(MockLinkRepository)
	svc := newTestLinkService(linkRepo, new(MockClickRepository), new(MockCache))

	linkRepo.On("GetByID", ctx, "missing").Return(nil, domain.ErrNotFound)

	err := svc.DeleteLink(ctx, "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
	linkRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

// ==================== STATS ====================

func TestSummarize_Passthrough(t *testing.T) {
	ctx := context.Background()
	clickRepo := new(MockClickRepository)
	svc := newTestLinkService(new(MockLinkRepository), clickRepo, new(MockCache))

	stats := &domain.Statistics{
		TotalClicks:     3,
		UniqueClicks:    2,
		ClicksByCountry: map[string]int64{"DE": 2, "unknown": 1},
		ClicksByDevice:  map[string]int64{"desktop": 3},
	}
	clickRepo.On("Summarize", ctx, "abc").Return(stats, nil)

	got, err := svc.Summarize(ctx, "abc")

	require.NoError(t, err)
	assert.Equal(t, stats, got)
}
