// Package github fetches organization activity from the GitHub GraphQL
// API for a sprint window and classifies transport failures into the
// service's typed error set.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/opendxi/backend/internal/apperrors"
	"github.com/opendxi/backend/internal/config"
	"github.com/opendxi/backend/internal/types"
)

const userAgent = "opendxi-backend/1.0"

// Client talks to the GitHub API for one configured organization.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	token      string
	org        string
	maxPages   int
}

// NewClient builds a client from settings. Outbound calls carry the
// configured timeout and are paced by a token-bucket limiter so paginated
// fetches stay inside secondary rate limits.
func NewClient(cfg config.Settings) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.RequestBurst),
		baseURL:    "https://api.github.com",
		token:      cfg.GitHubToken,
		org:        cfg.GitHubOrg,
		maxPages:   cfg.MaxPagesPerQuery,
	}
}

// SetBaseURL overrides the API endpoint. Test hook.
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// doGraphQL posts one query and returns the raw data document.
func (c *Client) doGraphQL(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperrors.NewGitHubAPIError("request cancelled while waiting for rate limiter", err)
	}

	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, apperrors.NewInternalError("failed to encode GraphQL request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/graphql", bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build GraphQL request", err)
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewGitHubAPIError("GraphQL request failed", err)
	}
	defer resp.Body.Close()

	if err := c.classifyStatus(resp); err != nil {
		return nil, err
	}

	var envelope graphQLEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, apperrors.NewGitHubAPIError("malformed GraphQL response", err)
	}
	if len(envelope.Errors) > 0 {
		messages := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			messages = append(messages, e.Message)
		}
		return nil, apperrors.NewGitHubAPIError(fmt.Sprintf("GraphQL query failed: %s", strings.Join(messages, "; ")), nil)
	}
	return envelope.Data, nil
}

// classifyStatus maps non-2xx responses to the typed error set. A 403 only
// counts as rate limiting when the remaining-quota header says the quota is
// actually gone.
func (c *Client) classifyStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return apperrors.NewAuthenticationError("GitHub rejected the configured credentials", nil)
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		if resp.Header.Get("X-RateLimit-Remaining") == "0" {
			return apperrors.NewRateLimitError(resp.Header.Get("X-RateLimit-Reset"))
		}
		fallthrough
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return apperrors.NewGitHubAPIError(
			fmt.Sprintf("GitHub API returned status %d: %s", resp.StatusCode, string(body)), nil)
	}
}

func (c *Client) applyHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

type restUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// LookupUser resolves a login via the REST user endpoint.
func (c *Client) LookupUser(ctx context.Context, login string) (types.User, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return types.User{}, apperrors.NewGitHubAPIError("request cancelled while waiting for rate limiter", err)
	}

	endpoint := fmt.Sprintf("%s/users/%s", c.baseURL, url.PathEscape(login))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return types.User{}, apperrors.NewInternalError("failed to build user request", err)
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return types.User{}, apperrors.NewGitHubAPIError("user lookup failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return types.User{}, apperrors.NewNotFoundError(fmt.Sprintf("user %q not found", login))
	}
	if err := c.classifyStatus(resp); err != nil {
		return types.User{}, err
	}

	var u restUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return types.User{}, apperrors.NewGitHubAPIError("malformed user response", err)
	}

	name := u.Name
	if name == "" {
		name = u.Login
	}
	return types.User{ID: u.ID, Login: u.Login, Name: name, AvatarURL: u.AvatarURL}, nil
}

// logPageProgress keeps noisy pagination loops observable without flooding
// the logs.
func logPageProgress(resource string, page, nodes int, elapsed time.Duration) {
	slog.Debug("fetched page",
		"resource", resource,
		"page", page,
		"nodes", nodes,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}
