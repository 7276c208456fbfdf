package http_test

import (
	"context"
	"sync"
	"time"

	"github.com/samirrijal/wildlens/internal/core/domain"
	"github.com/samirrijal/wildlens/internal/core/ports"
)

// ---- Mock repositories ----

type mockSightingRepo struct {
	insertFn  func(ctx context.Context, s *domain.Sighting) error
	getByIDFn func(ctx context.Context, id string) (*domain.Sighting, error)
	listFn    func(ctx context.Context, f ports.SightingFilter) ([]domain.Sighting, error)
	countFn   func(ctx context.Context, f ports.SightingFilter) (int, error)
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
	return nil, nil
}

type mockUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.UserProfile
}

func newMockUserRepo(users ...domain.UserProfile) *mockUserRepo {
	m := &mockUserRepo{users: make(map[string]*domain.UserProfile)}
	for i := range users {
		u := users[i]
		m.users[u.Email] = &u
	}
	return m
}

func (m *mockUserRepo) Upsert(ctx context.Context, u *domain.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.Email] = &cp
	return nil
}
func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[email]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}
func (m *mockUserRepo) IncrementContributions(ctx context.Context, email string) error { return nil }
func (m *mockUserRepo) SetFavorites(ctx context.Context, email string, favorites []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[email]; ok {
		u.FavoriteSpecies = favorites
	}
	return nil
}
func (m *mockUserRepo) ListByFavorite(ctx context.Context, species string) ([]domain.UserProfile, error) {
	return nil, nil
}

type mockReportRepo struct{}

func (m *mockReportRepo) Insert(ctx context.Context, r *domain.Report) error { return nil }

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

type mockEmbeddingRepo struct{}

func (m *mockEmbeddingRepo) Upsert(ctx context.Context, sightingID, model string, vector []float32) error {
	return nil
}
func (m *mockEmbeddingRepo) All(ctx context.Context, model string, fn func(string, []float32) error) error {
	return nil
}

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

type mockAnalyzer struct {
	analyzeFn func(ctx context.Context, image []byte, mime string) (*domain.Analysis, error)
}

func (m *mockAnalyzer) Analyze(ctx context.Context, image []byte, mime string) (*domain.Analysis, error) {
	return m.analyzeFn(ctx, image, mime)
}

type mockVerifier struct {
	identities map[string]*domain.GoogleIdentity
}

func (m *mockVerifier) Verify(ctx context.Context, token string) (*domain.GoogleIdentity, error) {
	if id, ok := m.identities[token]; ok {
		return id, nil
	}
	return nil, domain.ErrUnauthorized
}
