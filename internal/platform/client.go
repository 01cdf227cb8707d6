// Package platform is the HTTP client for the quest platform API.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/questclaim/internal/cache"
	"github.com/ppiankov/questclaim/internal/model"
	"github.com/ppiankov/questclaim/internal/util"
	"github.com/ppiankov/questclaim/internal/worker"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
)

const (
	fetchMaxRetries = 3
	maxBodyBytes    = 8 << 20
	apiLimiterKey   = "api"
)

// fetchSleepFunc is the sleep function used between retries (injectable for tests)
var fetchSleepFunc = time.Sleep

// Client talks to the quest platform on behalf of one authenticated account
type Client struct {
	httpClient   *http.Client
	baseURL      *url.URL
	appHost      string
	cookie       string
	captchaToken string
	userAgent    string
	limiter      *worker.Limiter
	communities  cache.Cache
	cacheTTL     time.Duration
	logger       *zap.Logger
}

// NewClient creates a platform client from configuration
func NewClient(cfg model.PlatformConfig, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	cacheTTL := cfg.CommunityCacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Minute
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Jar:     jar,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		baseURL:      base,
		appHost:      cfg.AppHost,
		cookie:       cfg.Cookie,
		captchaToken: cfg.CaptchaToken,
		userAgent:    cfg.UserAgent,
		limiter:      worker.NewLimiter(cfg.RequestsPerSecond, cfg.BurstSize),
		communities:  cache.NewMemoryCache(cacheTTL, 10*time.Minute),
		cacheTTL:     cacheTTL,
		logger:       logger,
	}, nil
}

// AppHost returns the host community boards are served under
func (c *Client) AppHost() string {
	return c.appHost
}

// Me returns the authenticated user
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.getJSON(ctx, "users/me", "", &user); err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// UserCommunities returns the communities the user has joined
func (c *Client) UserCommunities(ctx context.Context) ([]model.Community, error) {
	var payload struct {
		Communities []model.Community `json:"communities"`
	}
	if err := c.getJSON(ctx, "users/me/communities?page=0&limit=60", "", &payload); err != nil {
		return nil, fmt.Errorf("list user communities: %w", err)
	}
	return payload.Communities, nil
}

// GetCommunity returns a community snapshot by subdomain, cached for the configured TTL
func (c *Client) GetCommunity(ctx context.Context, subdomain string) (*model.Community, error) {
	key := cache.CacheKey("community", subdomain)
	if data, ok := c.communities.Get(key); ok {
		var community model.Community
		if err := json.Unmarshal(data, &community); err == nil {
			return &community, nil
		}
	}

	var community model.Community
	if err := c.getJSON(ctx, "communities/"+url.PathEscape(subdomain), subdomain, &community); err != nil {
		return nil, fmt.Errorf("get community %s: %w", subdomain, err)
	}
	if community.Subdomain == "" {
		community.Subdomain = subdomain
	}

	if data, err := json.Marshal(community); err == nil {
		_ = c.communities.Set(key, data, c.cacheTTL)
	}
	return &community, nil
}

// ListQuestBoard returns the quest board of a community grouped by theme
func (c *Client) ListQuestBoard(ctx context.Context, subdomain string) ([]model.Theme, error) {
	var themes []model.Theme
	if err := c.getJSON(ctx, "communities/"+url.PathEscape(subdomain)+"/questboard", subdomain, &themes); err != nil {
		return nil, fmt.Errorf("get questboard %s: %w", subdomain, err)
	}
	return themes, nil
}

// Notifications returns one page of the user's notifications in a community
func (c *Client) Notifications(ctx context.Context, subdomain string, page, pageSize int) ([]model.Notification, error) {
	path := fmt.Sprintf("communities/%s/users/me/notifications?page=%d&page_size=%d", url.PathEscape(subdomain), page, pageSize)
	var payload struct {
		Notifications []model.Notification `json:"notifications"`
	}
	if err := c.getJSON(ctx, path, subdomain, &payload); err != nil {
		return nil, fmt.Errorf("get notifications %s: %w", subdomain, err)
	}
	return payload.Notifications, nil
}

// SubmitClaim posts proof for one quest. It is never retried here: the caller
// owns the retry policy so that a quest is not submitted more often than intended.
func (c *Client) SubmitClaim(ctx context.Context, subdomain string, claim model.ClaimRequest) (*model.ClaimResult, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	fields := [][2]string{}
	if claim.Value != "" {
		fields = append(fields, [2]string{"value", claim.Value})
	}
	fields = append(fields,
		[2]string{"questId", claim.QuestID},
		[2]string{"type", string(claim.Type)},
	)
	if c.captchaToken != "" {
		fields = append(fields, [2]string{"token", c.captchaToken})
	}
	for _, f := range fields {
		if err := form.WriteField(f[0], f[1]); err != nil {
			return nil, fmt.Errorf("write form field %s: %w", f[0], err)
		}
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	path := fmt.Sprintf("communities/%s/quests/%s/claim", url.PathEscape(subdomain), url.PathEscape(claim.QuestID))
	data, err := c.do(ctx, http.MethodPost, path, subdomain, &body, form.FormDataContentType())
	if err != nil {
		return nil, err
	}

	var result model.ClaimResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode claim response: %w", err)
	}

	c.logger.Debug("claim submitted",
		zap.String("community", subdomain),
		zap.String("quest", claim.QuestID),
		zap.String("status", result.Status))

	return &result, nil
}

// getJSON performs a GET with retry on transient failures and decodes the body into out
func (c *Client) getJSON(ctx context.Context, path, subdomain string, out any) error {
	var lastErr error
	for attempt := 0; attempt < fetchMaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			c.logger.Debug("retrying request",
				zap.String("path", path),
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff),
				zap.String("status", statusLabel(lastErr)),
				zap.Error(lastErr))
			fetchSleepFunc(backoff)
		}

		data, err := c.do(ctx, http.MethodGet, path, subdomain, nil, "")
		if err == nil {
			if err := json.Unmarshal(data, out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
			return nil
		}

		lastErr = err
		if !isRetryableFetchError(err) {
			return err
		}
	}
	return lastErr
}

// do executes one request and returns the body of a 2xx response
func (c *Client) do(ctx context.Context, method, path, subdomain string, body io.Reader, contentType string) ([]byte, error) {
	limiterKey := subdomain
	if limiterKey == "" {
		limiterKey = apiLimiterKey
	}
	if err := c.limiter.Wait(ctx, limiterKey); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.ResolveReference(ref).String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req, subdomain)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseResponseError(resp.StatusCode, data)
	}
	return data, nil
}

// setHeaders applies the account headers; community-scoped requests look like
// they come from the community's own board
func (c *Client) setHeaders(req *http.Request, subdomain string) {
	req.Header.Set("Accept", "application/json, text/plain, */*")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	origin := "https://" + c.appHost
	cookie := c.cookie
	if subdomain != "" {
		origin = "https://" + subdomain + "." + c.appHost
		cookie = strings.Replace(cookie, "root", subdomain, 1)
	}
	req.Header.Set("Origin", origin)
	req.Header.Set("Referer", origin)
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
}

// isRetryableFetchError reports whether a request failure is worth another attempt
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}
	var respErr *ResponseError
	if errors.As(err, &respErr) {
		return respErr.Transient()
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return strings.HasPrefix(err.Error(), "fetch: ")
}

// statusLabel is used in logs for errors that carry an HTTP status
func statusLabel(err error) string {
	var respErr *ResponseError
	if errors.As(err, &respErr) {
		return strconv.Itoa(respErr.StatusCode)
	}
	return "transport"
}
