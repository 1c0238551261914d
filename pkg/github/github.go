// Package github fetches source files from a GitHub repository, read-only:
// recursive tree listings via the REST API and file contents via the raw
// content host.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultAPIBase = "https://api.github.com"
	DefaultRawBase = "https://raw.githubusercontent.com"
	DefaultTimeout = 2 * time.Minute

	maxRetries  = 3
	baseBackoff = 2 * time.Second
	maxBackoff  = 32 * time.Second
)

// SourceFile is one fetched repository file.
type SourceFile struct {
	Path    string
	Content string
}

// TreeEntry is one entry of a recursive git tree listing.
type TreeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"`
	SHA  string `json:"sha"`
	Size int64  `json:"size"`
}

type treeResponse struct {
	SHA       string      `json:"sha"`
	Tree      []TreeEntry `json:"tree"`
	Truncated bool        `json:"truncated"`
}

// Config configures a Client. Zero values fall back to the public GitHub
// endpoints, a 2 minute timeout, and unauthenticated access (which works
// for public repositories).
type Config struct {
	APIBase    string
	RawBase    string
	Token      string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client lists and fetches repository files.
type Client struct {
	apiBase    string
	rawBase    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger

	maxRetries  int
	baseBackoff time.Duration
	maxBackoff  time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

func NewClient(cfg Config) *Client {
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultAPIBase
	}
	if cfg.RawBase == "" {
		cfg.RawBase = DefaultRawBase
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Client{
		apiBase:     strings.TrimSuffix(cfg.APIBase, "/"),
		rawBase:     strings.TrimSuffix(cfg.RawBase, "/"),
		token:       cfg.Token,
		httpClient:  cfg.HTTPClient,
		logger:      cfg.Logger,
		maxRetries:  maxRetries,
		baseBackoff: baseBackoff,
		maxBackoff:  maxBackoff,
		sleep:       sleepContext,
	}
}

// ListTree returns the recursive tree listing of repo ("owner/name") at ref,
// in the order GitHub returns it. A truncated listing is logged as a warning,
// not an error.
func (c *Client) ListTree(ctx context.Context, repo, ref string) ([]TreeEntry, error) {
	url := fmt.Sprintf("%s/repos/%s/git/trees/%s?recursive=1", c.apiBase, repo, ref)

	body, status, rateLimited, err := c.get(ctx, url)
	if err != nil {
		return nil, &FetchError{Repo: repo, Status: status, RateLimited: rateLimited, Err: err}
	}

	var tree treeResponse
	if err := json.Unmarshal(body, &tree); err != nil {
		return nil, &FetchError{Repo: repo, Err: fmt.Errorf("decoding tree: %w", err)}
	}

	if tree.Truncated {
		c.logger.Warn("tree listing truncated by GitHub, some files will be missed",
			zap.String("repo", repo),
			zap.String("ref", ref),
		)
	}

	return tree.Tree, nil
}

// ListMatching returns the blob entries of repo at ref whose path ends in
// ext, preserving tree order. Callers fetch each entry with FetchFile so
// cancellation is honored between files.
func (c *Client) ListMatching(ctx context.Context, repo, ref, ext string) ([]TreeEntry, error) {
	entries, err := c.ListTree(ctx, repo, ref)
	if err != nil {
		return nil, err
	}

	var matched []TreeEntry
	for _, entry := range entries {
		if entry.Type != "blob" {
			continue
		}
		if !strings.HasSuffix(entry.Path, ext) {
			continue
		}
		matched = append(matched, entry)
	}

	return matched, nil
}

// FetchFile returns the raw content of path in repo at ref.
func (c *Client) FetchFile(ctx context.Context, repo, ref, path string) (SourceFile, error) {
	url := fmt.Sprintf("%s/%s/%s/%s", c.rawBase, repo, ref, path)

	body, status, rateLimited, err := c.get(ctx, url)
	if err != nil {
		return SourceFile{}, &FetchError{Repo: repo, Path: path, Status: status, RateLimited: rateLimited, Err: err}
	}

	return SourceFile{Path: path, Content: string(body)}, nil
}

// get performs a GET with bounded retry on transient failures (429, 5xx,
// rate-limited 403, transport errors). It returns the body on 200, or the
// last status seen (0 for transport errors), whether rate limiting was
// responsible, and an error.
func (c *Client) get(ctx context.Context, url string) ([]byte, int, bool, error) {
	var (
		lastErr     error
		lastStatus  int
		rateLimited bool
		resetWait   time.Duration
	)

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := c.backoff(attempt)
			// A rate-limit reset sooner than the backoff cap is the better wait.
			if resetWait > 0 && resetWait <= c.maxBackoff {
				wait = resetWait
			}
			if err := c.sleep(ctx, wait); err != nil {
				return nil, lastStatus, rateLimited, err
			}
		}
		resetWait = 0

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, 0, false, fmt.Errorf("create request: %w", err)
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, lastStatus, rateLimited, ctx.Err()
			}
			lastStatus = 0
			lastErr = err
			c.logger.Debug("github request failed, retrying",
				zap.String("url", url),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastStatus = resp.StatusCode
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusOK {
			return body, resp.StatusCode, false, nil
		}

		lastStatus = resp.StatusCode
		lastErr = fmt.Errorf("github API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))

		limited := rateLimitedResponse(resp.StatusCode, resp.Header)
		if limited {
			rateLimited = true
			resetWait = untilRateLimitReset(resp.Header)
		}

		if !transientStatus(resp.StatusCode) && !limited {
			return nil, lastStatus, rateLimited, lastErr
		}

		c.logger.Debug("github transient error, retrying",
			zap.String("url", url),
			zap.Int("status", resp.StatusCode),
			zap.Int("attempt", attempt+1),
		)
	}

	return nil, lastStatus, rateLimited, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) backoff(attempt int) time.Duration {
	d := time.Duration(math.Pow(2, float64(attempt-1))) * c.baseBackoff
	if d > c.maxBackoff {
		d = c.maxBackoff
	}
	return d
}

// transientStatus reports statuses worth retrying regardless of headers.
func transientStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// rateLimitedResponse reports whether the response is a primary rate limit
// rejection: 429, or 403 with the remaining quota exhausted.
func rateLimitedResponse(status int, header http.Header) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	return status == http.StatusForbidden && header.Get("x-ratelimit-remaining") == "0"
}

// untilRateLimitReset returns the wait until the advertised quota reset,
// or 0 when the header is absent, unparseable, or already past.
func untilRateLimitReset(header http.Header) time.Duration {
	raw := header.Get("x-ratelimit-reset")
	if raw == "" {
		return 0
	}

	unix, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}

	d := time.Until(time.Unix(unix, 0))
	if d < 0 {
		return 0
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
