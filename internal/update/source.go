package update

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	appErrors "prochub/internal/errors"
)

const (
	// DefaultTimeout bounds a single remote lookup.
	DefaultTimeout = 5 * time.Second
	// DefaultUserAgent identifies prochub to the update endpoint.
	DefaultUserAgent = "prochub-update-checker"

	maxManifestBytes = 1 << 20
)

// Error variables for specific remote failures.
var (
	ErrNetworkFailure = errors.New("network request failed")
	ErrRateLimited    = errors.New("rate limited by update endpoint")
)

// githubAPIBase is a var (not const) to allow overriding in tests.
var githubAPIBase = "https://api.github.com"

// ReleaseInfo is the subset of the GitHub release API used in github mode.
type ReleaseInfo struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
	Body    string `json:"body"`
}

// HTTPSource is a RemoteSource that issues one GET per check.
//
// In manifest mode the body is returned as text for Normalize to decode. In
// GitHub mode the latest release is mapped to structured metadata: tag name,
// release page URL and notes.
type HTTPSource struct {
	url        string
	owner      string
	repo       string
	userAgent  string
	httpClient *http.Client
}

// HTTPSourceOption configures an HTTPSource.
type HTTPSourceOption func(*HTTPSource)

// WithHTTPClient sets a custom HTTP client for the source.
func WithHTTPClient(client *http.Client) HTTPSourceOption {
	return func(s *HTTPSource) {
		s.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) HTTPSourceOption {
	return func(s *HTTPSource) {
		if timeout <= 0 {
			return
		}
		if s.httpClient == nil {
			s.httpClient = &http.Client{}
		}
		s.httpClient.Timeout = timeout
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) HTTPSourceOption {
	return func(s *HTTPSource) {
		if strings.TrimSpace(ua) != "" {
			s.userAgent = ua
		}
	}
}

// NewHTTPSource returns a manifest source reading {"version","url"} JSON from url.
func NewHTTPSource(url string, opts ...HTTPSourceOption) *HTTPSource {
	return newHTTPSource(&HTTPSource{url: url}, opts)
}

// NewGitHubSource returns a source reading the latest release of owner/repo.
func NewGitHubSource(owner, repo string, opts ...HTTPSourceOption) *HTTPSource {
	return newHTTPSource(&HTTPSource{owner: owner, repo: repo}, opts)
}

func newHTTPSource(s *HTTPSource, opts []HTTPSourceOption) *HTTPSource {
	s.userAgent = DefaultUserAgent
	s.httpClient = &http.Client{Timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(s)
	}
	if s.httpClient == nil {
		s.httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return s
}

// FetchRemote implements RemoteSource.
func (s *HTTPSource) FetchRemote(ctx context.Context) (Payload, error) {
	if s.owner != "" {
		return s.fetchLatestRelease(ctx)
	}
	body, err := s.get(ctx, s.url, "application/json")
	if err != nil {
		return Payload{}, err
	}
	return TextPayload(body), nil
}

func (s *HTTPSource) fetchLatestRelease(ctx context.Context) (Payload, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", githubAPIBase, s.owner, s.repo)
	body, err := s.get(ctx, url, "application/vnd.github.v3+json")
	if err != nil {
		return Payload{}, err
	}

	var release ReleaseInfo
	if err := json.Unmarshal(body, &release); err != nil {
		return Payload{}, appErrors.New(appErrors.CodeParseFailed, "decode release", err)
	}
	return StructuredPayload(VersionInfo{
		Version: release.TagName,
		URL:     release.HTMLURL,
		Notes:   release.Body,
	}), nil
}

func (s *HTTPSource) get(ctx context.Context, url, accept string) ([]byte, error) {
	if strings.TrimSpace(url) == "" {
		return nil, appErrors.New(appErrors.CodeFetchFailed, "update url is empty", nil)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, appErrors.New(appErrors.CodeFetchFailed, "create request", err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, appErrors.New(appErrors.CodeFetchFailed, "", fmt.Errorf("%w: %v", ErrNetworkFailure, err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests {
		return nil, appErrors.New(appErrors.CodeFetchFailed, "", ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, appErrors.New(appErrors.CodeFetchFailed, "", fmt.Errorf("%w: status %d", ErrNetworkFailure, resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestBytes))
	if err != nil {
		return nil, appErrors.New(appErrors.CodeFetchFailed, "read response", err)
	}
	return body, nil
}
