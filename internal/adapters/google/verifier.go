// Package google verifies Google OAuth access tokens.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/samirrijal/wildlens/internal/core/domain"
)

// DefaultUserInfoURL is Google's OpenID Connect userinfo endpoint.
const DefaultUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("Code %d: %s", e.Code, e.Body)
}

// Verifier implements ports.TokenVerifier against the userinfo endpoint.
type Verifier struct {
	session     *http.Client
	userInfoURL string
}

// NewVerifier creates a Verifier. An empty url uses DefaultUserInfoURL.
func NewVerifier(userInfoURL string, client *http.Client) *Verifier {
	if userInfoURL == "" {
		userInfoURL = DefaultUserInfoURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Verifier{session: client, userInfoURL: userInfoURL}
}

// Verify resolves accessToken to the Google account it was issued for.
// Rejected tokens are domain.ErrUnauthorized; an unreachable or failing
// Google is domain.ErrUnavailable.
func (v *Verifier) Verify(ctx context.Context, accessToken string) (*domain.GoogleIdentity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := v.do(req)
	if err != nil {
		var he *httpStatusError
		if errors.As(err, &he) && he.Code < 500 {
			return nil, fmt.Errorf("%w: google rejected token", domain.ErrUnauthorized)
		}
		return nil, fmt.Errorf("%w: google userinfo: %v", domain.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var id domain.GoogleIdentity
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&id); err != nil {
		return nil, fmt.Errorf("%w: decode userinfo: %v", domain.ErrUnavailable, err)
	}
	return &id, nil
}

func (v *Verifier) do(req *http.Request) (*http.Response, error) {
	resp, err := v.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &httpStatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(b)),
		}
	}
	return resp, nil
}
