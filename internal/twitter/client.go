// Package twitter performs the social-network actions some quests require,
// over the Twitter v1.1 REST API with OAuth1 user credentials.
package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dghubble/oauth1"
	"github.com/ppiankov/questclaim/internal/model"
	"github.com/ppiankov/questclaim/internal/util"
	"go.uber.org/zap"
)

// Tweet is the part of a status object the claim engine needs
type Tweet struct {
	ID string `json:"id_str"`
}

// Client executes follow, tweet, reply, like and retweet actions
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	logger     *zap.Logger
}

// NewClient creates an OAuth1-signed client. Proxy settings apply to the underlying transport.
func NewClient(cfg model.TwitterConfig, proxy model.PlatformConfig, logger *zap.Logger) (*Client, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("twitter credentials are incomplete (consumer key/secret, access token/secret)")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	base, err := url.Parse(cfg.APIBaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse twitter API URL: %w", err)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	transport := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(proxy.HTTPProxy, proxy.HTTPSProxy, proxy.NoProxy),
		},
	}
	ctx := context.WithValue(context.Background(), oauth1.HTTPClient, transport)
	signer := oauth1.NewConfig(cfg.ConsumerKey, cfg.ConsumerSecret)

	return &Client{
		httpClient: signer.Client(ctx, oauth1.NewToken(cfg.AccessToken, cfg.AccessTokenSecret)),
		baseURL:    base,
		logger:     logger,
	}, nil
}

// Follow follows a user by screen name
func (c *Client) Follow(ctx context.Context, handle string) error {
	form := url.Values{"screen_name": {strings.TrimPrefix(handle, "@")}}
	return c.post(ctx, "friendships/create.json", form, nil)
}

// Tweet posts a new status
func (c *Client) Tweet(ctx context.Context, text string) (*Tweet, error) {
	var tweet Tweet
	if err := c.post(ctx, "statuses/update.json", url.Values{"status": {text}}, &tweet); err != nil {
		return nil, err
	}
	return &tweet, nil
}

// Reply posts a status in reply to targetID
func (c *Client) Reply(ctx context.Context, text, targetID string) (*Tweet, error) {
	form := url.Values{
		"status":                       {text},
		"in_reply_to_status_id":        {targetID},
		"auto_populate_reply_metadata": {"true"},
	}
	var tweet Tweet
	if err := c.post(ctx, "statuses/update.json", form, &tweet); err != nil {
		return nil, err
	}
	return &tweet, nil
}

// Like favorites a status
func (c *Client) Like(ctx context.Context, targetID string) error {
	return c.post(ctx, "favorites/create.json", url.Values{"id": {targetID}}, nil)
}

// Retweet retweets a status
func (c *Client) Retweet(ctx context.Context, targetID string) error {
	return c.post(ctx, "statuses/retweet/"+url.PathEscape(targetID)+".json", url.Values{}, nil)
}

func (c *Client) post(ctx context.Context, path string, form url.Values, out any) error {
	ref, err := url.Parse(path)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL.ResolveReference(ref).String(), strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("twitter %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := parseAPIError(resp.StatusCode, body)
		c.logger.Debug("twitter action rejected",
			zap.String("path", path),
			zap.Int("status", apiErr.StatusCode),
			zap.Int("code", apiErr.Code),
			zap.String("message", apiErr.Message))
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
