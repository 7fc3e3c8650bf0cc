package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/Movie-Song/sns-contents-tracker/internal/config"
	"github.com/Movie-Song/sns-contents-tracker/internal/content"
)

// Database property names.
const (
	propTitle     = "Title"
	propURL       = "URL"
	propPublished = "Published Date"
	propPlatform  = "Platform"
)

const (
	defaultNotionBaseURL = "https://api.notion.com"
	defaultNotionVersion = "2022-06-28"
	notionPageSize       = 100
	maxErrorBody         = 64 << 10
)

// APIError is a non-2xx answer from the Notion API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("notion: HTTP %d", e.Status)
	}
	return fmt.Sprintf("notion: HTTP %d %s: %s", e.Status, e.Code, e.Message)
}

// Notion stores records as pages of one Notion database.
type Notion struct {
	baseURL    string
	version    string
	apiKey     string
	databaseID string
	client     *http.Client
	limiter    *rate.Limiter
}

func NewNotion(cfg config.NotionConfig, client *http.Client) *Notion {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultNotionBaseURL
	}
	version := cfg.Version
	if version == "" {
		version = defaultNotionVersion
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Notion{
		baseURL:    baseURL,
		version:    version,
		apiKey:     cfg.APIKey,
		databaseID: cfg.DatabaseID,
		client:     client,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

type richText struct {
	PlainText string `json:"plain_text,omitempty"`
	Text      *struct {
		Content string `json:"content"`
	} `json:"text,omitempty"`
}

type notionPage struct {
	ID         string `json:"id"`
	Properties struct {
		Title struct {
			Title []richText `json:"title"`
		} `json:"Title"`
		URL struct {
			URL *string `json:"url"`
		} `json:"URL"`
		Published struct {
			Date *struct {
				Start string `json:"start"`
			} `json:"date"`
		} `json:"Published Date"`
		Platform struct {
			Select *struct {
				Name string `json:"name"`
			} `json:"select"`
		} `json:"Platform"`
	} `json:"properties"`
}

func (p notionPage) record() content.StoredRecord {
	rec := content.StoredRecord{ID: p.ID}
	var title strings.Builder
	for _, rt := range p.Properties.Title.Title {
		switch {
		case rt.PlainText != "":
			title.WriteString(rt.PlainText)
		case rt.Text != nil:
			title.WriteString(rt.Text.Content)
		}
	}
	rec.Title = title.String()
	if p.Properties.URL.URL != nil {
		rec.URL = *p.Properties.URL.URL
	}
	if d := p.Properties.Published.Date; d != nil {
		rec.Published = d.Start
	}
	if s := p.Properties.Platform.Select; s != nil {
		rec.Platform = s.Name
	}
	return rec
}

type queryRequest struct {
	Filter      map[string]any   `json:"filter,omitempty"`
	Sorts       []map[string]any `json:"sorts,omitempty"`
	StartCursor string           `json:"start_cursor,omitempty"`
	PageSize    int              `json:"page_size"`
}

type queryResponse struct {
	Results    []notionPage `json:"results"`
	HasMore    bool         `json:"has_more"`
	NextCursor *string      `json:"next_cursor"`
}

// Query pages through the database until every matching page is read.
func (n *Notion) Query(ctx context.Context, q Query) ([]content.StoredRecord, error) {
	req := queryRequest{Filter: notionFilter(q.Filter), PageSize: notionPageSize}
	if q.SortDateDesc {
		req.Sorts = []map[string]any{{"property": propPublished, "direction": "descending"}}
	}

	path := "/v1/databases/" + n.databaseID + "/query"
	var out []content.StoredRecord
	for {
		var resp queryResponse
		if err := n.post(ctx, path, req, &resp); err != nil {
			return nil, queryErr(err)
		}
		for _, p := range resp.Results {
			out = append(out, p.record())
		}
		if !resp.HasMore || resp.NextCursor == nil || *resp.NextCursor == "" {
			return out, nil
		}
		req.StartCursor = *resp.NextCursor
	}
}

func notionFilter(f Filter) map[string]any {
	var conds []map[string]any
	if f.URL != "" {
		conds = append(conds, map[string]any{
			"property": propURL,
			"url":      map[string]any{"equals": f.URL},
		})
	}
	if f.Date != "" {
		conds = append(conds, map[string]any{
			"property": propPublished,
			"date":     map[string]any{"equals": f.Date},
		})
	}
	if f.Since != "" {
		conds = append(conds, map[string]any{
			"property": propPublished,
			"date":     map[string]any{"on_or_after": f.Since},
		})
	}
	switch len(conds) {
	case 0:
		return nil
	case 1:
		return conds[0]
	default:
		return map[string]any{"and": conds}
	}
}

// Create adds one page holding the record's title and URL as fetched.
func (n *Notion) Create(ctx context.Context, rec content.Record) (content.StoredRecord, error) {
	payload := map[string]any{
		"parent": map[string]any{"database_id": n.databaseID},
		"properties": map[string]any{
			propTitle: map[string]any{
				"title": []map[string]any{{"text": map[string]any{"content": rec.Title}}},
			},
			propURL:       map[string]any{"url": rec.URL},
			propPublished: map[string]any{"date": map[string]any{"start": rec.Timestamp()}},
			propPlatform:  map[string]any{"select": map[string]any{"name": rec.Platform}},
		},
	}

	var page notionPage
	if err := n.post(ctx, "/v1/pages", payload, &page); err != nil {
		return content.StoredRecord{}, writeErr(err)
	}

	stored := page.record()
	if stored.URL == "" {
		stored = content.StoredRecord{
			ID:        page.ID,
			Title:     rec.Title,
			URL:       rec.URL,
			Published: rec.Timestamp(),
			Platform:  rec.Platform,
		}
	}
	return stored, nil
}

func (n *Notion) post(ctx context.Context, path string, body, out any) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+n.apiKey)
	req.Header.Set("Notion-Version", n.version)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{Status: resp.StatusCode}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var parsed struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &parsed) == nil {
			apiErr.Code = parsed.Code
			apiErr.Message = parsed.Message
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
