package http_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	handler "github.com/samirrijal/wildlens/internal/adapters/http"
	"github.com/samirrijal/wildlens/internal/core/domain"
	"github.com/samirrijal/wildlens/internal/core/ports"
	"github.com/samirrijal/wildlens/internal/core/usecases"
)

// pngBase64 is a payload whose content sniffs as image/png.
var pngBase64 = base64.StdEncoding.EncodeToString([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01"))

// ---- Test helpers ----

type testEnv struct {
	sightings *mockSightingRepo
	users     *mockUserRepo
	images    *mockImageStore
	sessions  *mockSessions
	verifier  *mockVerifier
}

func newTestEnv() *testEnv {
	return &testEnv{
		sightings: &mockSightingRepo{},
		users:     newMockUserRepo(),
		images:    &mockImageStore{},
		sessions:  newMockSessions(),
		verifier: &mockVerifier{identities: map[string]*domain.GoogleIdentity{
			"google-ana": {Email: "Ana@Example.com", EmailVerified: true, Name: "Ana"},
		}},
	}
}

func (e *testEnv) deps(opts ...func(*handler.Dependencies)) *handler.Dependencies {
	d := &handler.Dependencies{
		Sightings: usecases.NewSightingService(e.sightings, e.users, e.images, nil, nil, usecases.SightingConfig{}),
		Analysis:  usecases.NewAnalysisService(nil, 0),
		Species:   usecases.NewSpeciesService(e.sightings, nil),
		Search:    usecases.NewSearchService(e.sightings, &mockEmbeddingRepo{}, nil),
		Reports:   usecases.NewReportService(&mockReportRepo{}, nil),
		Auth:      usecases.NewAuthService(e.verifier, e.users, e.sessions, time.Hour),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func jsonRequest(method, path string, body interface{}) *http.Request {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func readBody(t *testing.T, body io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}

func decodeError(t *testing.T, resp *http.Response) handler.APIError {
	t.Helper()
	var apiErr handler.APIError
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&apiErr))
	return apiErr
}

func sampleSightings() []domain.Sighting {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	return []domain.Sighting{
		{ID: "s1", Type: domain.CategoryAnimal, Species: "Red Fox", Email: "ana@example.com",
			Image: "/images/1", Location: domain.Coordinate{Lat: 37.3349, Lon: -121.8881}, CreatedAt: now},
		{ID: "s2", Type: domain.CategoryBird, Species: "American Robin", Email: "bo@example.com",
			Image: "/images/2", Location: domain.Coordinate{Lat: 37.3382, Lon: -121.8863}, CreatedAt: now.Add(-time.Hour)},
		{ID: "s3", Type: domain.CategoryAnimal, Species: "Red Fox", Email: "cy@example.com",
			Image: "/images/3", Location: domain.Coordinate{Lat: 37.7749, Lon: -122.4194}, CreatedAt: now.Add(-2 * time.Hour)},
	}
}

// login issues a session through /auth/google and returns its token.
func login(t *testing.T, app *fiber.App) string {
	t.Helper()
	resp, err := app.Test(jsonRequest("POST", "/auth/google", map[string]string{"token": "google-ana"}), -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var res struct {
		SessionToken string             `json:"sessionToken"`
		User         domain.UserProfile `json:"user"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	require.NotEmpty(t, res.SessionToken)
	return res.SessionToken
}

// ---- Legacy mobile routes ----

func TestGetSightings_HidesEmails(t *testing.T) {
	env := newTestEnv()
	env.sightings.listFn = func(ctx context.Context, f ports.SightingFilter) ([]domain.Sighting, error) {
		if f.Limit != usecases.DefaultSightingLimit {
			t.Errorf("expected default limit, got %d", f.Limit)
		}
		return sampleSightings(), nil
	}
	app := setupApp(env.deps())

	resp, err := app.Test(httptest.NewRequest("GET", "/get-sightings", nil), -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	body := readBody(t, resp.Body)
	assert.NotContains(t, string(body), "ana@example.com")

	var result struct {
		Sightings []domain.Sighting `json:"sightings"`
	}
	require.NoError(t, json.Unmarshal(body, &result))
	require.Len(t, result.Sightings, 3)
	assert.InDelta(t, 37.3349, result.Sightings[0].Location.Lat, 1e-9)

	assert.Equal(t, "true", resp.Header.Get("Deprecation"))
	assert.Contains(t, resp.Header.Get("Link"), "/v1/sightings")
}

func TestSubmitSighting_Success(t *testing.T) {
	env := newTestEnv()
	var stored *domain.Sighting
	env.sightings.insertFn = func(ctx context.Context, s *domain.Sighting) error {
		stored = s
		return nil
	}
	app := setupApp(env.deps())

	resp, err := app.Test(jsonRequest("POST", "/submit-sighting", map[string]interface{}{
		"image":       pngBase64,
		"latitude":    "37.3349",
		"longitude":   -121.8881,
		"email":       "ana@example.com",
		"type":        "Animal",
		"species":     "Red Fox",
		"description": "crossing the trail",
	}), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var result struct {
		Message  string          `json:"message"`
		Sighting domain.Sighting `json:"sighting"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "Sighting submitted successfully", result.Message)
	assert.Equal(t, domain.CategoryAnimal, result.Sighting.Type)
	assert.True(t, strings.HasPrefix(result.Sighting.Image, "/images/"), result.Sighting.Image)

	require.NotNil(t, stored)
	assert.InDelta(t, 37.3349, stored.Location.Lat, 1e-9)

	// The stored photo is served back.
	imgResp, err := app.Test(httptest.NewRequest("GET", result.Sighting.Image, nil), -1)
	require.NoError(t, err)
	require.Equal(t, 200, imgResp.StatusCode)
	assert.Equal(t, "image/png", imgResp.Header.Get("Content-Type"))
	assert.Contains(t, imgResp.Header.Get("Cache-Control"), "immutable")
	etag := imgResp.Header.Get("ETag")
	assert.Equal(t, `"`+strings.TrimPrefix(result.Sighting.Image, "/images/")+`"`, etag)

	req := httptest.NewRequest("GET", result.Sighting.Image, nil)
	req.Header.Set("If-None-Match", `W/"other", `+etag)
	imgResp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotModified, imgResp.StatusCode)
}

func TestSubmitSighting_Invalid(t *testing.T) {
	app := setupApp(newTestEnv().deps())

	cases := map[string]map[string]interface{}{
		"unknown type":  {"image": pngBase64, "latitude": 1, "longitude": 1, "email": "a@b.co", "type": "fungus", "species": "x"},
		"bad latitude":  {"image": pngBase64, "latitude": 91, "longitude": 1, "email": "a@b.co", "type": "bird", "species": "x"},
		"missing image": {"latitude": 1, "longitude": 1, "email": "a@b.co", "type": "bird", "species": "x"},
		"bad email":     {"image": pngBase64, "latitude": 1, "longitude": 1, "email": "nope", "type": "bird", "species": "x"},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp, err := app.Test(jsonRequest("POST", "/submit-sighting", body), -1)
			require.NoError(t, err)
			require.Equal(t, 400, resp.StatusCode)
			apiErr := decodeError(t, resp)
			assert.Equal(t, "bad_request", apiErr.Code)
			assert.NotEmpty(t, apiErr.Message)
		})
	}
}

func TestSubmitSighting_MalformedBody(t *testing.T) {
	app := setupApp(newTestEnv().deps())

	req := httptest.NewRequest("POST", "/submit-sighting", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAnalyzeImage_Unconfigured(t *testing.T) {
	app := setupApp(newTestEnv().deps())

	resp, err := app.Test(jsonRequest("POST", "/analyze-image", map[string]string{"image": pngBase64}), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestAnalyzeImage_Success(t *testing.T) {
	env := newTestEnv()
	app := setupApp(env.deps(func(d *handler.Dependencies) {
		d.Analysis = usecases.NewAnalysisService(&mockAnalyzer{
			analyzeFn: func(ctx context.Context, image []byte, mime string) (*domain.Analysis, error) {
				if mime != "image/png" {
					t.Errorf("expected image/png, got %s", mime)
				}
				return &domain.Analysis{Type: domain.CategoryBird, Species: "American Robin", Description: "Red breast."}, nil
			},
		}, 0)
	}))

	resp, err := app.Test(jsonRequest("POST", "/analyze-image", map[string]string{"image": "data:image/png;base64," + pngBase64}), -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var result struct {
		Analysis domain.Analysis `json:"analysis"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "American Robin", result.Analysis.Species)
}

func TestAnalyzeImage_MissingImage(t *testing.T) {
	app := setupApp(newTestEnv().deps())

	resp, _ := app.Test(jsonRequest("POST", "/analyze-image", map[string]string{}), -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestSpeciesByType(t *testing.T) {
	env := newTestEnv()
	env.sightings.listFn = func(ctx context.Context, f ports.SightingFilter) ([]domain.Sighting, error) {
		if f.Type != domain.CategoryAnimal || f.Bounds == nil {
			t.Errorf("unexpected filter %+v", f)
		}
		return sampleSightings(), nil
	}
	app := setupApp(env.deps())

	resp, err := app.Test(jsonRequest("POST", "/get-species-by-type", map[string]interface{}{
		"type": "animal", "latitude": 37.3349, "longitude": -121.8881, "radius_km": 5,
	}), -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var result struct {
		Species []domain.SpeciesItem `json:"species"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	// s3 is in San Francisco, outside the radius.
	require.Len(t, result.Species, 2)
	for _, item := range result.Species {
		assert.NotEqual(t, "s3", item.ID)
	}
}

func TestSpeciesByType_UnknownType(t *testing.T) {
	app := setupApp(newTestEnv().deps())

	resp, _ := app.Test(jsonRequest("POST", "/get-species-by-type", map[string]interface{}{
		"type": "mineral", "latitude": 1, "longitude": 1,
	}), -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestVectorSearch(t *testing.T) {
	app := setupApp(newTestEnv().deps())

	t.Run("empty query", func(t *testing.T) {
		resp, err := app.Test(jsonRequest("POST", "/vector-search", map[string]string{"query": "  "}), -1)
		require.NoError(t, err)
		require.Equal(t, 200, resp.StatusCode)
		assert.JSONEq(t, `{"results":[]}`, string(readBody(t, resp.Body)))
	})

	t.Run("unconfigured", func(t *testing.T) {
		resp, err := app.Test(jsonRequest("POST", "/vector-search", map[string]string{"query": "fox"}), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	})

	t.Run("too long", func(t *testing.T) {
		resp, err := app.Test(jsonRequest("POST", "/vector-search", map[string]string{"query": strings.Repeat("a", 501)}), -1)
		require.NoError(t, err)
		assert.Equal(t, 400, resp.StatusCode)
	})
}

func TestSubmitReport(t *testing.T) {
	app := setupApp(newTestEnv().deps())

	resp, err := app.Test(jsonRequest("POST", "/submit-report", map[string]interface{}{
		"report_type": "Fallen tree", "latitude": "37.33", "longitude": "-121.88", "email": "ana@example.com",
	}), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var result struct {
		Report domain.Report `json:"report"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.NotEmpty(t, result.Report.ID)
	assert.Equal(t, "Fallen tree", result.Report.ReportType)
}

// ---- Auth & session routes ----

func TestAuthGoogle_Rejected(t *testing.T) {
	app := setupApp(newTestEnv().deps())

	resp, _ := app.Test(jsonRequest("POST", "/auth/google", map[string]string{"token": "forged"}), -1)
	if resp.StatusCode != 401 {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestSessionLifecycle(t *testing.T) {
	app := setupApp(newTestEnv().deps())
	token := login(t, app)

	me := func() *http.Response {
		req := httptest.NewRequest("GET", "/v1/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp
	}

	resp := me()
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "private, no-store", resp.Header.Get("Cache-Control"))
	assert.Empty(t, resp.Header.Get("ETag"))
	var profile domain.UserProfile
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&profile))
	assert.Equal(t, "ana@example.com", profile.Email)

	// Replace favourites
	req := jsonRequest("PUT", "/v1/me/favorites", map[string][]string{"favoriteSpecies": {" Red Fox ", "Red Fox", "Lampranthus"}})
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&profile))
	assert.Equal(t, []string{"Red Fox", "Lampranthus"}, profile.FavoriteSpecies)

	// Logout revokes the session
	req = httptest.NewRequest("POST", "/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	assert.Equal(t, 401, me().StatusCode)
}

func TestMe_RequiresSession(t *testing.T) {
	app := setupApp(newTestEnv().deps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/me", nil), -1)
	if resp.StatusCode != 401 {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	apiErr := decodeError(t, resp)
	if apiErr.Code != "unauthorized" {
		t.Errorf("expected unauthorized code, got %q", apiErr.Code)
	}

	req := httptest.NewRequest("GET", "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer unknown")
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 401 {
		t.Fatalf("expected 401 for unknown token, got %d", resp.StatusCode)
	}
}

func TestMe_IgnoresQueryToken(t *testing.T) {
	app := setupApp(newTestEnv().deps())
	token := login(t, app)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/me?token="+token, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode, "session tokens are only accepted in the URL for the websocket upgrade")
}

func TestRequireSocketSession_AcceptsQueryToken(t *testing.T) {
	deps := newTestEnv().deps()
	token := login(t, setupApp(deps))

	app := fiber.New()
	app.Get("/socket", handler.RequireSocketSession(deps), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/socket?token="+token, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/socket?token=unknown", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestUpdateFavorites_MissingField(t *testing.T) {
	app := setupApp(newTestEnv().deps())
	token := login(t, app)

	req := jsonRequest("PUT", "/v1/me/favorites", map[string]string{})
	req.Header.Set("Authorization", "Bearer "+token)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// ---- v1 sighting routes ----

func TestListSightings_Pagination(t *testing.T) {
	env := newTestEnv()
	all := sampleSightings()
	env.sightings.countFn = func(ctx context.Context, f ports.SightingFilter) (int, error) { return 7, nil }
	env.sightings.listFn = func(ctx context.Context, f ports.SightingFilter) ([]domain.Sighting, error) {
		if f.Type != domain.CategoryAnimal || f.Offset != 2 || f.Limit != 2 {
			t.Errorf("unexpected filter %+v", f)
		}
		return all[:2], nil
	}
	app := setupApp(env.deps())

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/sightings?type=animal&offset=2&limit=2", nil), -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var result struct {
		Data       []domain.Sighting  `json:"data"`
		Pagination handler.Pagination `json:"pagination"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Len(t, result.Data, 2)
	assert.Equal(t, handler.Pagination{Offset: 2, Limit: 2, Total: 7}, result.Pagination)

	link := resp.Header.Get("Link")
	assert.Contains(t, link, `</v1/sightings?limit=2&offset=4&type=animal>; rel="next"`)
	assert.Contains(t, link, `</v1/sightings?limit=2&offset=0&type=animal>; rel="prev"`)
	assert.Equal(t, "7", resp.Header.Get("X-Total-Count"))
	assert.Contains(t, link, `rel="prev"`)
	assert.Contains(t, link, `rel="last"`)
	assert.Equal(t, "public, max-age=30", resp.Header.Get("Cache-Control"))
}

func TestListSightings_UnknownType(t *testing.T) {
	app := setupApp(newTestEnv().deps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/sightings?type=rock", nil), -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestNearbySightings(t *testing.T) {
	env := newTestEnv()
	env.sightings.listFn = func(ctx context.Context, f ports.SightingFilter) ([]domain.Sighting, error) {
		if f.Bounds == nil {
			t.Error("expected a bounding box")
		}
		return sampleSightings(), nil
	}
	app := setupApp(env.deps())

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/sightings/nearby?lat=37.3382&lon=-121.8863&radius_km=2", nil), -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var result []domain.Sighting
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.Len(t, result, 2)
	assert.Equal(t, "s2", result[0].ID, "nearest first")
	require.NotNil(t, result[0].Distance)
	assert.Less(t, *result[0].Distance, *result[1].Distance)
	assert.Empty(t, result[0].Email)
}

func TestNearbySightings_BadParams(t *testing.T) {
	app := setupApp(newTestEnv().deps())

	for _, path := range []string{
		"/v1/sightings/nearby",
		"/v1/sightings/nearby?lat=37.3",
		"/v1/sightings/nearby?lat=37.3&lon=-121.8&radius_km=900",
		"/v1/sightings/nearby?lat=137.3&lon=-121.8",
	} {
		resp, _ := app.Test(httptest.NewRequest("GET", path, nil), -1)
		if resp.StatusCode != 400 {
			t.Errorf("%s: expected 400, got %d", path, resp.StatusCode)
		}
	}
}

func TestGetSighting(t *testing.T) {
	env := newTestEnv()
	env.sightings.getByIDFn = func(ctx context.Context, id string) (*domain.Sighting, error) {
		for _, s := range sampleSightings() {
			if s.ID == id {
				return &s, nil
			}
		}
		return nil, fmt.Errorf("%w: sighting %s", domain.ErrNotFound, id)
	}
	app := setupApp(env.deps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/sightings/s1", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := readBody(t, resp.Body)
	if bytes.Contains(body, []byte("ana@example.com")) {
		t.Error("reporter email must not be exposed")
	}

	resp, _ = app.Test(httptest.NewRequest("GET", "/v1/sightings/missing", nil), -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestImage_NotFound(t *testing.T) {
	app := setupApp(newTestEnv().deps())

	for _, id := range []string{"not-a-uuid", "7d3f0c1e-2b4a-4c55-9a0e-3f1e2d4c5b6a"} {
		resp, _ := app.Test(httptest.NewRequest("GET", "/images/"+id, nil), -1)
		if resp.StatusCode != 404 {
			t.Errorf("%s: expected 404, got %d", id, resp.StatusCode)
		}
	}
}

func TestETag_NotModified(t *testing.T) {
	env := newTestEnv()
	env.sightings.listFn = func(ctx context.Context, f ports.SightingFilter) ([]domain.Sighting, error) {
		return sampleSightings(), nil
	}
	app := setupApp(env.deps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/get-sightings", nil), -1)
	etag := resp.Header.Get("ETag")
	if etag == "" {
		t.Fatal("expected an ETag")
	}

	req := httptest.NewRequest("GET", "/get-sightings", nil)
	req.Header.Set("If-None-Match", etag)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != fiber.StatusNotModified {
		t.Fatalf("expected 304, got %d", resp.StatusCode)
	}
}

// ---- GraphQL ----

func TestGraphQL_Sightings(t *testing.T) {
	env := newTestEnv()
	env.sightings.listFn = func(ctx context.Context, f ports.SightingFilter) ([]domain.Sighting, error) {
		return sampleSightings()[:1], nil
	}
	app := setupApp(env.deps())

	resp, err := app.Test(jsonRequest("POST", "/graphql", map[string]string{
		"query": `{ sightings(limit: 5) { id species latitude longitude } }`,
	}), -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var result struct {
		Data struct {
			Sightings []struct {
				ID        string  `json:"id"`
				Species   string  `json:"species"`
				Latitude  float64 `json:"latitude"`
				Longitude float64 `json:"longitude"`
			} `json:"sightings"`
		} `json:"data"`
		Errors []interface{} `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.Empty(t, result.Errors)
	require.Len(t, result.Data.Sightings, 1)
	assert.Equal(t, "Red Fox", result.Data.Sightings[0].Species)
	assert.InDelta(t, -121.8881, result.Data.Sightings[0].Longitude, 1e-9)
}

func TestGraphQL_MissingQuery(t *testing.T) {
	app := setupApp(newTestEnv().deps())

	resp, _ := app.Test(jsonRequest("POST", "/graphql", map[string]string{}), -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// ---- Health handler tests ----

func TestHealth_Returns200(t *testing.T) {
	app := setupApp(newTestEnv().deps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/health", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if result["status"] != "healthy" {
		t.Errorf("expected healthy status, got %v", result["status"])
	}
	features, _ := result["features"].(map[string]interface{})
	if features["analysis"] != false || features["search"] != false {
		t.Errorf("expected analysis and search disabled without genai, got %v", features)
	}
}

func TestHealth_ReportsAnalysisEnabled(t *testing.T) {
	app := setupApp(newTestEnv().deps(func(d *handler.Dependencies) {
		d.Analysis = usecases.NewAnalysisService(&mockAnalyzer{}, 0)
	}))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/health", nil), -1)
	var result struct {
		Features map[string]bool `json:"features"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if !result.Features["analysis"] {
		t.Errorf("expected analysis enabled, got %v", result.Features)
	}
}

func TestReady_NoDB(t *testing.T) {
	// DB, NATS, Cache are nil → not ready
	app := setupApp(newTestEnv().deps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
	var result struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Status != "not ready" || result.Checks["database"] != "not configured" {
		t.Errorf("unexpected readiness body: %+v", result)
	}
}

func TestAPIVersionHeader(t *testing.T) {
	app := setupApp(newTestEnv().deps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/health", nil), -1)
	if v := resp.Header.Get("X-API-Version"); v != "1.0.0" {
		t.Errorf("expected X-API-Version 1.0.0, got %q", v)
	}
	if rid := resp.Header.Get("X-Request-ID"); rid == "" {
		t.Error("expected a request ID")
	}
}

func TestWebSocket_RequiresUpgrade(t *testing.T) {
	app := setupApp(newTestEnv().deps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/ws", nil), -1)
	if resp.StatusCode != fiber.StatusUpgradeRequired {
		t.Fatalf("expected 426, got %d", resp.StatusCode)
	}
}

// TestAccessLogMiddleware verifies structured access logging passes responses through.
func TestAccessLogMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(handler.AccessLogMiddleware())
	app.Get("/test", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "ok") {
		t.Errorf("expected response body to contain 'ok', got %s", string(body))
	}
}
