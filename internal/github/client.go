// Package github is a thin client for the parts of the GitHub API that
// back notes: the authenticated user, their repositories, and issues with
// their comments.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shurcooL/graphql"

	"github.com/mithrel/gitnotes/internal/apperr"
)

const (
	DefaultBaseURL    = "https://api.github.com"
	DefaultGraphQLURL = "https://api.github.com/graphql"
	DefaultTimeout    = 30 * time.Second
	MaxPageSize       = 100
	apiVersion        = "2022-11-28"
)

// ClientConfig configures a Client. Zero values select GitHub.com defaults.
type ClientConfig struct {
	Token      string
	BaseURL    string
	GraphQLURL string
	HTTPClient *http.Client
	Timeout    time.Duration
	PageSize   int
	UserAgent  string
	Logger     *slog.Logger
}

// Client talks to the REST API and, for deletes, the GraphQL API.
type Client struct {
	baseURL    string
	token      string
	pageSize   int
	userAgent  string
	httpClient *http.Client
	gql        *graphql.Client
	log        *slog.Logger
}

func New(cfg ClientConfig) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	gqlURL := cfg.GraphQLURL
	if gqlURL == "" {
		gqlURL = DefaultGraphQLURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = "gitnotes"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	gqlHTTP := &http.Client{
		Timeout: httpClient.Timeout,
		Transport: &authTransport{
			Token:     cfg.Token,
			UserAgent: ua,
			Base:      httpClient.Transport,
		},
	}

	return &Client{
		baseURL:    base,
		token:      cfg.Token,
		pageSize:   pageSize,
		userAgent:  ua,
		httpClient: httpClient,
		gql:        graphql.NewClient(gqlURL, gqlHTTP),
		log:        logger,
	}
}

// PageSize is the number of records requested per list call.
func (c *Client) PageSize() int { return c.pageSize }

// authTransport adds credentials to GraphQL requests.
type authTransport struct {
	Token     string
	UserAgent string
	Base      http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if t.Token != "" {
		req.Header.Set("Authorization", "Bearer "+t.Token)
	}
	req.Header.Set("User-Agent", t.UserAgent)
	if t.Base == nil {
		return http.DefaultTransport.RoundTrip(req)
	}
	return t.Base.RoundTrip(req)
}

// StatusError is a non-2xx REST response. Its text carries both the HTTP
// status and GitHub's message so that apperr.Classify can work from it.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	status := strings.ToLower(http.StatusText(e.Code))
	if e.Message == "" {
		return fmt.Sprintf("github: %d %s", e.Code, status)
	}
	return fmt.Sprintf("github: %d %s: %s", e.Code, status, e.Message)
}

type errorBody struct {
	Message string `json:"message"`
}

// response is a decoded REST reply plus the headers callers care about.
type response struct {
	code int
	body []byte
	next bool
}

func (c *Client) execRequest(ctx context.Context, method, path string, in any) (response, error) {
	var r io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return response{}, err
		}
		r = bytes.NewReader(b)
	}
	url := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		url = c.baseURL + path
	}
	req, err := http.NewRequestWithContext(ctx, method, url, r)
	if err != nil {
		return response{}, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug("github: request failed", slog.String("method", method), slog.String("path", path), slog.Any("err", err))
		return response{}, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return response{}, err
	}
	c.log.Debug("github: request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("dur", time.Since(start)))

	if resp.StatusCode >= 300 {
		var eb errorBody
		_ = json.Unmarshal(body, &eb)
		return response{code: resp.StatusCode}, &StatusError{Code: resp.StatusCode, Message: eb.Message}
	}
	return response{code: resp.StatusCode, body: body, next: hasNextPage(resp.Header.Get("Link"))}, nil
}

// doJSON performs a request and decodes the reply into out when non-nil.
func (c *Client) doJSON(ctx context.Context, op, method, path string, in, out any) (response, error) {
	resp, err := c.execRequest(ctx, method, path, in)
	if err != nil {
		return resp, apperr.FromRemote(op, err)
	}
	if out != nil && len(resp.body) > 0 {
		if err := json.Unmarshal(resp.body, out); err != nil {
			return resp, apperr.New(apperr.KindUnknown, op, fmt.Errorf("decode response: %w", err))
		}
	}
	return resp, nil
}

// hasNextPage reports whether an RFC 5988 Link header advertises rel="next".
func hasNextPage(link string) bool {
	for _, part := range strings.Split(link, ",") {
		if strings.Contains(part, `rel="next"`) {
			return true
		}
	}
	return false
}
