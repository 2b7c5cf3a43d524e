// Package backend is the HTTP client for the test generation backend and the
// identity provider.
package backend

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kastheco/testsmith/log"
	"golang.org/x/time/rate"
)

// DefaultGitHubAPI is the identity provider API root.
const DefaultGitHubAPI = "https://api.github.com"

// RequestIDHeader is set on every backend request.
const RequestIDHeader = "X-Request-ID"

// Client talks to the backend. It is safe for concurrent use.
type Client struct {
	baseURL   string
	githubAPI string
	http      *http.Client
	limiter   *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets a per-request timeout. Zero keeps the transport default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithRateLimit throttles requests to rps per second. Zero disables it.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			burst := int(rps)
			if burst < 1 {
				burst = 1
			}
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithGitHubAPI overrides the identity provider API root.
func WithGitHubAPI(apiURL string) Option {
	return func(c *Client) {
		if apiURL != "" {
			c.githubAPI = strings.TrimRight(apiURL, "/")
		}
	}
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		githubAPI: DefaultGitHubAPI,
		http:      &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend root.
func (c *Client) BaseURL() string { return c.baseURL }

// authorization header schemes
const (
	schemeNone   = ""
	schemeBearer = "Bearer"
	schemeToken  = "token"
)

// ExchangeCode trades a one-time OAuth code for a token and user profile.
func (c *Client) ExchangeCode(ctx context.Context, code string) (AuthResult, error) {
	u := c.baseURL + "/auth/github/callback?" + url.Values{"code": {code}}.Encode()
	var res AuthResult
	if err := c.do(ctx, http.MethodGet, u, schemeNone, "", nil, &res); err != nil {
		return AuthResult{}, err
	}
	if res.AccessToken == "" {
		return AuthResult{}, fmt.Errorf("exchange code: response carried no access token")
	}
	return res, nil
}

// CurrentUser validates token against the identity provider.
func (c *Client) CurrentUser(ctx context.Context, token string) (User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, c.githubAPI+"/user", schemeToken, token, nil, &u); err != nil {
		return User{}, err
	}
	return u, nil
}

// ListRepositories returns the user's repositories in the order received.
func (c *Client) ListRepositories(ctx context.Context, token string) ([]Repository, error) {
	u := c.baseURL + "/auth/github/repositories?" + url.Values{"token": {token}}.Encode()
	var repos []Repository
	if err := c.do(ctx, http.MethodGet, u, schemeNone, "", nil, &repos); err != nil {
		return nil, err
	}
	if repos == nil {
		repos = []Repository{}
	}
	return repos, nil
}

// ListDirectory returns the entries of dir ("" is the repository root). Only
// file and dir entries are kept.
func (c *Client) ListDirectory(ctx context.Context, token, owner, repo, dir string) ([]Entry, error) {
	var raw []Entry
	if err := c.do(ctx, http.MethodGet, c.contentsURL(token, owner, repo, dir), schemeNone, "", nil, &raw); err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(raw))
	for _, e := range raw {
		if e.Type == EntryFile || e.Type == EntryDir {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// FileContent returns the decoded text of the file at path.
func (c *Client) FileContent(ctx context.Context, token, owner, repo, path string) (string, error) {
	var res fileContentResponse
	if err := c.do(ctx, http.MethodGet, c.contentsURL(token, owner, repo, path), schemeNone, "", nil, &res); err != nil {
		return "", err
	}
	return DecodeContent(res.Content)
}

// GenerateSummaries submits files and returns the proposed test summaries.
func (c *Client) GenerateSummaries(ctx context.Context, files []FileInput) ([]Summary, error) {
	var res summariesResponse
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/api/generate-summaries", schemeNone, "", summariesRequest{Files: files}, &res); err != nil {
		return nil, err
	}
	return res.Summaries, nil
}

// GenerateTestCode returns test code for one summary description.
func (c *Client) GenerateTestCode(ctx context.Context, token, summary, framework string) (string, error) {
	var res codeResponse
	body := codeRequest{Summary: summary, Framework: framework}
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/api/generate-test-code", schemeBearer, token, body, &res); err != nil {
		return "", err
	}
	return res.Code, nil
}

// CreatePullRequest opens a pull request with the generated files and returns
// its URL.
func (c *Client) CreatePullRequest(ctx context.Context, token string, req CreatePRRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", fmt.Errorf("invalid pull request: %w", err)
	}
	var res pullRequestResponse
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/auth/create-pr", schemeBearer, token, req, &res); err != nil {
		return "", err
	}
	return res.URL, nil
}

// DecodeContent decodes a base64 payload, ignoring embedded whitespace and
// line breaks.
func DecodeContent(encoded string) (string, error) {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, encoded)
	data, err := base64.StdEncoding.DecodeString(clean)
	if err != nil {
		return "", fmt.Errorf("decode content: %w", err)
	}
	return string(data), nil
}

func (c *Client) contentsURL(token, owner, repo, path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("%s/auth/github/repos/%s/%s/contents/%s?%s",
		c.baseURL,
		url.PathEscape(owner),
		url.PathEscape(repo),
		strings.Join(segments, "/"),
		url.Values{"token": {token}}.Encode(),
	)
}

func (c *Client) do(ctx context.Context, method, rawURL, scheme, token string, in, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if scheme != schemeNone && token != "" {
		req.Header.Set("Authorization", scheme+" "+token)
	}

	log.InfoLog.Printf("backend %s %s request_id=%s", method, redact(req.URL), requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, redact(req.URL), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		apiErr := parseAPIError(resp.StatusCode, respBody, requestID)
		log.WarningLog.Printf("backend %s %s request_id=%s: %v", method, redact(req.URL), requestID, apiErr)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// redact strips the token query parameter before a URL is logged.
func redact(u *url.URL) string {
	q := u.Query()
	if q.Has("token") {
		q.Set("token", "REDACTED")
	}
	if q.Has("code") {
		q.Set("code", "REDACTED")
	}
	c := *u
	c.RawQuery = q.Encode()
	return c.String()
}
