package tiktok

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ruenh/tiktok-monitor/pkg/config"
	errs "github.com/ruenh/tiktok-monitor/pkg/errors"
	"github.com/ruenh/tiktok-monitor/pkg/logger"
	"github.com/ruenh/tiktok-monitor/pkg/models"
	"github.com/ruenh/tiktok-monitor/pkg/ratelimit"
)

// DefaultBaseURL is the TikTok web API endpoint root.
const DefaultBaseURL = "https://www.tiktok.com/api"

// Source fetches video metadata for an author. The monitor depends on this
// interface rather than the concrete client so tests can substitute fakes.
type Source interface {
	// GetLatestVideos returns up to limit of the author's most recent videos.
	GetLatestVideos(ctx context.Context, author string, limit int) ([]models.Video, error)
	// GetVideoByID returns a single video by its identifier.
	GetVideoByID(ctx context.Context, videoID string) (*models.Video, error)
}

// Client talks to the TikTok web API
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	limiter    ratelimit.Limiter
	logger     logger.Logger
}

// NewClient creates a TikTok API client. The limiter bounds outbound request
// volume and may be nil to disable throttling.
func NewClient(cfg *config.TikTokConfig, limiter ratelimit.Limiter, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	headers := map[string]string{
		"User-Agent":      cfg.UserAgent,
		"Accept":          "application/json, text/plain, */*",
		"Accept-Language": "en-US,en;q=0.9",
		"Referer":         "https://www.tiktok.com/",
	}
	if cfg.SessionID != "" {
		headers["Cookie"] = "sessionid=" + cfg.SessionID
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		headers: headers,
		baseURL: DefaultBaseURL,
		limiter: limiter,
		logger:  log,
	}
}

// SetBaseURL overrides the API endpoint root.
func (c *Client) SetBaseURL(base string) {
	c.baseURL = base
}

// SetHeader sets a custom header for all subsequent requests.
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	if c.limiter != nil {
		c.limiter.Wait()
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
			Code:    0,
		}
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// getJSON performs a GET request and decodes the JSON response into target.
func (c *Client) getJSON(ctx context.Context, url string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &errs.Error{
			Type:    errs.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
			Code:    0,
		}
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
		}
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}

		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse JSON: %v", err),
			Code:    resp.StatusCode,
		}
	}

	return nil
}

// checkResponseStatus maps non-200 responses to typed errors
func (c *Client) checkResponseStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	switch resp.StatusCode {
	case http.StatusNotFound, http.StatusGone:
		c.logger.WarnWithFields("resource not found", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return errs.FromStatusCode(resp.StatusCode, "resource not found")
	case http.StatusTooManyRequests:
		c.logger.WarnWithFields("rate limit exceeded", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return errs.FromStatusCode(resp.StatusCode, "rate limit exceeded")
	default:
		if resp.StatusCode >= 500 {
			c.logger.ErrorWithFields("server error", map[string]interface{}{
				"status": resp.StatusCode,
				"url":    resp.Request.URL.String(),
			})
			return errs.FromStatusCode(resp.StatusCode, "server error")
		}
		c.logger.ErrorWithFields("unexpected API error", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return errs.FromStatusCode(resp.StatusCode, fmt.Sprintf("unexpected status code: %d", resp.StatusCode))
	}
}

// GetLatestVideos fetches up to limit recent videos from an author's feed,
// normalized into the domain shape. The feed arrives newest-first; order is
// preserved as received.
func (c *Client) GetLatestVideos(ctx context.Context, author string, limit int) ([]models.Video, error) {
	endpoint := fmt.Sprintf("%s/post/item_list/?uniqueId=%s&count=%d",
		c.baseURL, url.QueryEscape(author), limit)

	c.logger.DebugWithFields("fetching author feed", map[string]interface{}{
		"author": author,
		"limit":  limit,
	})

	var feed models.FeedResponse
	if err := c.getJSON(ctx, endpoint, &feed); err != nil {
		c.logger.ErrorWithFields("failed to fetch author feed", map[string]interface{}{
			"author": author,
			"error":  err.Error(),
		})
		return nil, err
	}

	if feed.StatusCode != 0 {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeUnknown,
			Message: fmt.Sprintf("API returned status_code %d for author %s", feed.StatusCode, author),
			Code:    http.StatusOK,
		}
	}

	videos := make([]models.Video, 0, len(feed.ItemList))
	for _, item := range feed.ItemList {
		videos = append(videos, item.Normalize())
	}

	c.logger.DebugWithFields("fetched author feed", map[string]interface{}{
		"author": author,
		"videos": len(videos),
	})

	return videos, nil
}

// GetVideoByID fetches a single video by its identifier. Returns a typed
// not_found error when the video has been removed.
func (c *Client) GetVideoByID(ctx context.Context, videoID string) (*models.Video, error) {
	endpoint := fmt.Sprintf("%s/item/detail/?itemId=%s", c.baseURL, url.QueryEscape(videoID))

	var item models.ItemResponse
	if err := c.getJSON(ctx, endpoint, &item); err != nil {
		return nil, err
	}

	if item.ItemInfo == nil {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeNotFound,
			Message: fmt.Sprintf("video %s not found", videoID),
			Code:    http.StatusNotFound,
		}
	}

	video := item.ItemInfo.ItemStruct.Normalize()
	return &video, nil
}
