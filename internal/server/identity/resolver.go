// Package identity resolves a player's display name to the stable external
// identity issued by the game's profile service.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/simplegameutils/sgu/internal/common"
)

type Resolver interface {
	Resolve(ctx context.Context, displayName string) (string, error)
}

type profile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// HTTPResolver queries GET {baseURL}{name} and expects {"id": ..., "name": ...}.
type HTTPResolver struct {
	baseURL string
	client  *http.Client
}

func NewHTTPResolver(baseURL string, timeout time.Duration) *HTTPResolver {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &HTTPResolver{baseURL: baseURL, client: &http.Client{Timeout: timeout}}
}

func (r *HTTPResolver) Resolve(ctx context.Context, displayName string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+url.PathEscape(displayName), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("identity lookup: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusNoContent:
		return "", fmt.Errorf("player %q %w", displayName, common.ErrNotFound)
	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("identity lookup failed: %s; body: %s", resp.Status, string(b))
	}

	var p profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return "", fmt.Errorf("identity decode: %w", err)
	}
	if p.ID == "" {
		return "", fmt.Errorf("player %q %w", displayName, common.ErrNotFound)
	}
	return p.ID, nil
}
