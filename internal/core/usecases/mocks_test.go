package usecases_test

import (
	"context"
	"encoding/base64"
	"sync"
	"time"

	"github.com/samirrijal/wildlens/internal/core/domain"
	"github.com/samirrijal/wildlens/internal/core/ports"
)

// pngBase64 is a payload whose content sniffs as image/png.
var pngBase64 = base64.StdEncoding.EncodeToString([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01"))

// --- Mock SightingRepository ---

type mockSightingRepo struct {
	insertFn   func(ctx context.Context, s *domain.Sighting) error
	getByIDFn  func(ctx context.Context, id string) (*domain.Sighting, error)
	listFn     func(ctx context.Context, f ports.SightingFilter) ([]domain.Sighting, error)
	countFn    func(ctx context.Context, f ports.SightingFilter) (int, error)
	getByIDsFn func(ctx context.Context, ids []string) ([]domain.Sighting, error)
}

func (m *mockSightingRepo) Insert(ctx context.Context, s *domain.Sighting) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, s)
	}
	return nil
}

func (m *mockSightingRepo) GetByID(ctx context.Context, id string) (*domain.Sighting, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockSightingRepo) List(ctx context.Context, f ports.SightingFilter) ([]domain.Sighting, error) {
	if m.listFn != nil {
		return m.listFn(ctx, f)
	}
	return nil, nil
}

func (m *mockSightingRepo) Count(ctx context.Context, f ports.SightingFilter) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, f)
	}
	return 0, nil
}

func (m *mockSightingRepo) GetByIDs(ctx context.Context, ids []string) ([]domain.Sighting, error) {
	if m.getByIDsFn != nil {
		return m.getByIDsFn(ctx, ids)
	}
	return nil, nil
}

// --- Mock UserRepository ---

type mockUserRepo struct {
	upsertFn         func(ctx context.Context, u *domain.UserProfile) error
	getByEmailFn     func(ctx context.Context, email string) (*domain.UserProfile, error)
	incrementFn      func(ctx context.Context, email string) error
	setFavoritesFn   func(ctx context.Context, email string, favorites []string) error
	listByFavoriteFn func(ctx context.Context, species string) ([]domain.UserProfile, error)
}

func (m *mockUserRepo) Upsert(ctx context.Context, u *domain.UserProfile) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, u)
	}
	return nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.UserProfile, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, domain.ErrNotFound
}

func (m *mockUserRepo) IncrementContributions(ctx context.Context, email string) error {
	if m.incrementFn != nil {
		return m.incrementFn(ctx, email)
	}
	return nil
}

func (m *mockUserRepo) SetFavorites(ctx context.Context, email string, favorites []string) error {
	if m.setFavoritesFn != nil {
		return m.setFavoritesFn(ctx, email, favorites)
	}
	return nil
}

func (m *mockUserRepo) ListByFavorite(ctx context.Context, species string) ([]domain.UserProfile, error) {
	if m.listByFavoriteFn != nil {
		return m.listByFavoriteFn(ctx, species)
	}
	return nil, nil
}

// --- Mock ImageStore ---

type mockImageStore struct {
	mu     sync.Mutex
	images map[string]*domain.Image
}

func (m *mockImageStore) Put(ctx context.Context, img *domain.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.images == nil {
		m.images = make(map[string]*domain.Image)
	}
	m.images[img.ID] = img
	return nil
}

func (m *mockImageStore) Get(ctx context.Context, id string) (*domain.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if img, ok := m.images[id]; ok {
		return img, nil
	}
	return nil, domain.ErrNotFound
}

// --- Mock CacheService ---

type mockCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deleted []string
}

func newMockCache() *mockCache { return &mockCache{data: make(map[string][]byte)} }

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	m.deleted = append(m.deleted, key)
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu        sync.Mutex
	sightings []*domain.Sighting
	reports   []*domain.Report
	alerts    []*domain.FavoriteAlert
	err       error
}

func (m *mockPublisher) PublishSightingCreated(ctx context.Context, s *domain.Sighting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sightings = append(m.sightings, s)
	return m.err
}

func (m *mockPublisher) PublishReportCreated(ctx context.Context, r *domain.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, r)
	return m.err
}

func (m *mockPublisher) PublishFavoriteAlert(ctx context.Context, a *domain.FavoriteAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, a)
	return m.err
}

// --- Mock SessionStore ---

type mockSessions struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
}

func newMockSessions() *mockSessions { return &mockSessions{sessions: make(map[string]*domain.Session)} }

func (m *mockSessions) Create(ctx context.Context, s *domain.Session, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.Token] = s
	return nil
}

func (m *mockSessions) Get(ctx context.Context, token string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[token]; ok {
		return s, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockSessions) Delete(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

// --- Mock ImageAnalyzer / Embedder / TokenVerifier ---

type mockAnalyzer struct {
	analyzeFn func(ctx context.Context, image []byte, mime string) (*domain.Analysis, error)
}

func (m *mockAnalyzer) Analyze(ctx context.Context, image []byte, mime string) (*domain.Analysis, error) {
	return m.analyzeFn(ctx, image, mime)
}

type mockEmbedder struct {
	vectors map[string][]float32
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 1}, nil
}

func (m *mockEmbedder) Model() string { return "test-embedding" }

type mockEmbeddingRepo struct {
	mu      sync.Mutex
	vectors map[string][]float32
	order   []string
}

func (m *mockEmbeddingRepo) Upsert(ctx context.Context, sightingID, model string, vector []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.vectors == nil {
		m.vectors = make(map[string][]float32)
	}
	if _, ok := m.vectors[sightingID]; !ok {
		m.order = append(m.order, sightingID)
	}
	m.vectors[sightingID] = vector
	return nil
}

func (m *mockEmbeddingRepo) All(ctx context.Context, model string, fn func(string, []float32) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.order {
		if err := fn(id, m.vectors[id]); err != nil {
			return err
		}
	}
	return nil
}

type mockVerifier struct {
	verifyFn func(ctx context.Context, token string) (*domain.GoogleIdentity, error)
}

func (m *mockVerifier) Verify(ctx context.Context, token string) (*domain.GoogleIdentity, error) {
	return m.verifyFn(ctx, token)
}
