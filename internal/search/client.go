package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/momentlens/internal/config"
)

const maxErrorBody = 512

// Client is a Provider backed by a 12Labs-style HTTP search API. Results are
// grouped by video and followed across next-page tokens.
type Client struct {
	cfg    config.SearchConfig
	http   *http.Client
	logger *zap.Logger
}

var _ Provider = (*Client)(nil)

// NewClient validates cfg and creates a Client.
func NewClient(cfg config.SearchConfig, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" || cfg.APIKey == "" || cfg.IndexID == "" {
		logger.Error("Search provider configuration validation failed",
			zap.String("base_url", cfg.BaseURL),
			zap.Bool("api_key_set", cfg.APIKey != ""),
			zap.String("index_id", cfg.IndexID),
		)
		return nil, ErrNotConfigured
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger.Named("search-client"),
	}, nil
}

type searchRequest struct {
	IndexID               string   `json:"index_id"`
	QueryText             string   `json:"query_text"`
	SearchOptions         []string `json:"search_options"`
	Operator              string   `json:"operator"`
	Threshold             string   `json:"threshold"`
	GroupBy               string   `json:"group_by"`
	SortOption            string   `json:"sort_option"`
	AdjustConfidenceLevel float64  `json:"adjust_confidence_level"`
	PageLimit             int      `json:"page_limit"`
}

type wireClip struct {
	VideoID      string  `json:"video_id"`
	Start        float64 `json:"start"`
	End          float64 `json:"end"`
	Score        float64 `json:"score"`
	ThumbnailURL string  `json:"thumbnail_url"`
}

// searchItem is either a video group carrying clips or a bare clip.
type searchItem struct {
	wireClip
	ID    string     `json:"id"`
	Clips []wireClip `json:"clips"`
}

type searchResponse struct {
	Data     []searchItem `json:"data"`
	PageInfo struct {
		TotalResults  *int   `json:"total_results"`
		NextPageToken string `json:"next_page_token"`
	} `json:"page_info"`
}

// Search implements Provider. A failure on the first page is an error; a
// failure on a later page ends pagination with the clips gathered so far.
func (c *Client) Search(ctx context.Context, query string) ([]Clip, int, error) {
	body, err := json.Marshal(searchRequest{
		IndexID:               c.cfg.IndexID,
		QueryText:             query,
		SearchOptions:         []string{"visual", "audio"},
		Operator:              "or",
		Threshold:             "low",
		GroupBy:               "video",
		SortOption:            "score",
		AdjustConfidenceLevel: 0.5,
		PageLimit:             c.cfg.PageLimit,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("encode search request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, c.endpoint("search"), body)
	if err != nil {
		return nil, 0, err
	}

	clips := flatten(resp.Data)
	total := len(clips)
	if resp.PageInfo.TotalResults != nil {
		total = *resp.PageInfo.TotalResults
	}

	pages := 1
	for token := resp.PageInfo.NextPageToken; token != ""; {
		next, err := c.do(ctx, http.MethodGet, c.endpoint("search", token), nil)
		if err != nil {
			c.logger.Warn("Stopping pagination after page failure",
				zap.String("query", query),
				zap.Int("pages", pages),
				zap.Error(err),
			)
			break
		}
		pages++
		clips = append(clips, flatten(next.Data)...)
		token = next.PageInfo.NextPageToken
	}

	c.logger.Debug("Search pages gathered",
		zap.String("query", query),
		zap.Int("pages", pages),
		zap.Int("clips", len(clips)),
	)
	return clips, total, nil
}

func (c *Client) endpoint(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/" + strings.Join(escaped, "/")
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) (*searchResponse, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%s %s: status %d: %s", method, endpoint, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return &out, nil
}

func flatten(items []searchItem) []Clip {
	var out []Clip
	for _, item := range items {
		if item.Clips == nil {
			out = append(out, toClip(item.wireClip, ""))
			continue
		}
		for _, wc := range item.Clips {
			out = append(out, toClip(wc, item.ID))
		}
	}
	return out
}

func toClip(wc wireClip, groupID string) Clip {
	id := wc.VideoID
	if id == "" {
		id = groupID
	}
	return Clip{
		VideoID:      id,
		Start:        wc.Start,
		End:          wc.End,
		Score:        wc.Score,
		ThumbnailURL: wc.ThumbnailURL,
	}
}

// PreviewURL builds the playable media URL of a video, or "" when no preview
// host is configured.
func PreviewURL(cfg config.PreviewConfig, videoID string) string {
	if cfg.BaseURL == "" {
		return ""
	}
	u := strings.TrimRight(cfg.BaseURL, "/") + "/" + url.PathEscape(videoID) + ".mp4"
	if cfg.Query != "" {
		u += "?" + strings.TrimPrefix(cfg.Query, "?")
	}
	return u
}
