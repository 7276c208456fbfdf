// Package client talks to the WildLens backend over HTTP+JSON.
//
// Calls are made once: there is no retry or backoff. Transport and decoding
// failures wrap ErrNetwork, rejected requests are *StatusError.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/samirrijal/wildlens/internal/core/domain"
)

// DefaultPort is where the backend listens.
const DefaultPort = 9874

// Client calls the backend at a fixed base URL.
type Client struct {
	http    *http.Client
	baseURL string
}

// New creates a Client for baseURL, e.g. http://192.168.1.20:9874. A nil
// httpClient uses one with a 30 second timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{http: httpClient, baseURL: strings.TrimRight(baseURL, "/")}
}

// ForHost builds the base URL the mobile app uses: http://<host>:9874.
func ForHost(host string, httpClient *http.Client) *Client {
	return New("http://"+host+":"+strconv.Itoa(DefaultPort), httpClient)
}

// BaseURL returns the backend root.
func (c *Client) BaseURL() string { return c.baseURL }

// GetSightings returns the recent sightings shown on the map.
func (c *Client) GetSightings(ctx context.Context) ([]domain.Sighting, error) {
	var out struct {
		Sightings []domain.Sighting `json:"sightings"`
	}
	if err := c.do(ctx, http.MethodGet, "/get-sightings", "", nil, &out); err != nil {
		return nil, err
	}
	return out.Sightings, nil
}

// NearbySightings returns sightings within radiusKm of origin, nearest first.
func (c *Client) NearbySightings(ctx context.Context, origin *domain.Coordinate, radiusKm float64, limit int) ([]domain.Sighting, error) {
	if origin == nil {
		return nil, ErrNoLocation
	}
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(origin.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(origin.Lon, 'f', -1, 64))
	if radiusKm > 0 {
		q.Set("radius_km", strconv.FormatFloat(radiusKm, 'f', -1, 64))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []domain.Sighting
	if err := c.do(ctx, http.MethodGet, "/v1/sightings/nearby?"+q.Encode(), "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AnalyzeImage asks the backend to identify a base64-encoded photo.
func (c *Client) AnalyzeImage(ctx context.Context, imageBase64 string) (*domain.Analysis, error) {
	var out struct {
		Analysis *domain.Analysis `json:"analysis"`
		Error    string           `json:"error"`
	}
	if err := c.do(ctx, http.MethodPost, "/analyze-image", "", map[string]string{"image": imageBase64}, &out); err != nil {
		return nil, err
	}
	if out.Analysis == nil {
		// The backend reported a failure in an otherwise successful reply.
		return nil, &StatusError{Code: http.StatusOK, Message: out.Error}
	}
	return out.Analysis, nil
}

// NewSighting is what the camera screen submits.
type NewSighting struct {
	Image       string
	Location    *domain.Coordinate
	Email       string
	Type        domain.Category
	Species     string
	Description string
}

// SubmitSighting stores a sighting. The reporter must be signed in and the
// location known.
func (c *Client) SubmitSighting(ctx context.Context, s NewSighting) (*domain.Sighting, error) {
	if s.Email == "" {
		return nil, ErrNoSession
	}
	if s.Location == nil {
		return nil, ErrNoLocation
	}
	body := map[string]interface{}{
		"image":       s.Image,
		"latitude":    s.Location.Lat,
		"longitude":   s.Location.Lon,
		"email":       s.Email,
		"type":        s.Type,
		"species":     s.Species,
		"description": s.Description,
	}
	var out struct {
		Sighting *domain.Sighting `json:"sighting"`
	}
	if err := c.do(ctx, http.MethodPost, "/submit-sighting", "", body, &out); err != nil {
		return nil, err
	}
	return out.Sighting, nil
}

// SpeciesByType lists the species of one category sighted around loc.
func (c *Client) SpeciesByType(ctx context.Context, category domain.Category, loc *domain.Coordinate) ([]domain.SpeciesItem, error) {
	if loc == nil {
		return nil, ErrNoLocation
	}
	body := map[string]interface{}{
		"type":      category,
		"latitude":  loc.Lat,
		"longitude": loc.Lon,
	}
	var out struct {
		Species []domain.SpeciesItem `json:"species"`
	}
	if err := c.do(ctx, http.MethodPost, "/get-species-by-type", "", body, &out); err != nil {
		return nil, err
	}
	return out.Species, nil
}

// VectorSearch runs a semantic search over sightings.
func (c *Client) VectorSearch(ctx context.Context, query string) ([]domain.SearchResult, error) {
	var out struct {
		Results []domain.SearchResult `json:"results"`
	}
	if err := c.do(ctx, http.MethodPost, "/vector-search", "", map[string]string{"query": query}, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// SubmitReport flags a hazard at loc on behalf of email.
func (c *Client) SubmitReport(ctx context.Context, reportType string, loc *domain.Coordinate, email string) error {
	if email == "" {
		return ErrNoSession
	}
	if loc == nil {
		return ErrNoLocation
	}
	body := map[string]interface{}{
		"report_type": reportType,
		"latitude":    loc.Lat,
		"longitude":   loc.Lon,
		"email":       email,
	}
	return c.do(ctx, http.MethodPost, "/submit-report", "", body, nil)
}

// AuthResult is the reply to a Google sign-in.
type AuthResult struct {
	SessionToken string             `json:"sessionToken"`
	User         domain.UserProfile `json:"user"`
}

// AuthGoogle exchanges a Google access token for a backend session.
func (c *Client) AuthGoogle(ctx context.Context, googleToken string) (*AuthResult, error) {
	var out AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth/google", "", map[string]string{"token": googleToken}, &out); err != nil {
		return nil, err
	}
	if out.SessionToken == "" {
		return nil, fmt.Errorf("%w: reply has no session token", ErrNetwork)
	}
	return &out, nil
}

// Me returns the profile of the session's user.
func (c *Client) Me(ctx context.Context, token string) (*domain.UserProfile, error) {
	if token == "" {
		return nil, ErrNoSession
	}
	var out domain.UserProfile
	if err := c.do(ctx, http.MethodGet, "/v1/me", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateFavorites replaces the user's favourite species.
func (c *Client) UpdateFavorites(ctx context.Context, token string, favorites []string) (*domain.UserProfile, error) {
	if token == "" {
		return nil, ErrNoSession
	}
	if favorites == nil {
		favorites = []string{}
	}
	var out domain.UserProfile
	body := map[string][]string{"favoriteSpecies": favorites}
	if err := c.do(ctx, http.MethodPut, "/v1/me/favorites", token, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout revokes the session on the backend.
func (c *Client) Logout(ctx context.Context, token string) error {
	if token == "" {
		return ErrNoSession
	}
	return c.do(ctx, http.MethodPost, "/v1/auth/logout", token, nil, nil)
}

// do sends one request. in is JSON-encoded when non-nil; out is decoded
// from a 2xx reply when non-nil.
func (c *Client) do(ctx context.Context, method, path, token string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrNetwork, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read reply: %v", ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{Code: resp.StatusCode}
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil {
			se.Message = apiErr.Error
		}
		return se
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode %s reply: %v", ErrNetwork, path, err)
	}
	return nil
}
