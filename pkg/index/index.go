// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package index owns the remote vector-search collection that holds chunk
// records.
//
// The collection lives in Qdrant and is addressed over its HTTP/JSON API.
// Schema lifecycle is deliberately destructive: EnsureSchema deletes any
// existing collection and creates it fresh, which guarantees the field
// definitions never drift across repeated ingestions at the cost of
// replacing previously indexed content (full-replace semantics, single
// concurrent ingestion assumed).
package index

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"
)

// Record is a chunk plus its embedding vector, ready to be written.
// Records are immutable once written; re-ingestion replaces the collection
// rather than updating records in place.
type Record struct {
	Code      string
	Filename  string
	Language  string
	StartLine int
	EndLine   int
	Vector    []float32
}

// Hit is a record returned by a query, with the provider's similarity score.
// Filename-filter hits carry a zero score; their rank comes from merge
// priority, not similarity.
type Hit struct {
	Code      string
	Filename  string
	Language  string
	StartLine int
	EndLine   int
	Score     float64
}

// Config configures the Qdrant client.
type Config struct {
	// URL is the Qdrant base URL, e.g. http://localhost:6333.
	URL string

	// Collection is the collection name holding chunk records.
	Collection string

	// Dimension is the embedding vector size the collection is created with.
	Dimension int

	// Timeout bounds each HTTP call. Defaults to 30s.
	Timeout time.Duration
}

// Client talks to a Qdrant collection over HTTP.
type Client struct {
	baseURL    string
	collection string
	dimension  int
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient validates the configuration and returns a Client.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("index url is required")
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("index collection is required")
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("invalid vector dimension: %d", cfg.Dimension)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		collection: cfg.Collection,
		dimension:  cfg.Dimension,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}, nil
}

// Collection returns the configured collection name.
func (c *Client) Collection() string {
	return c.collection
}

// EnsureSchema resets the collection to a known-good definition.
//
// If the collection exists it is deleted, then recreated with cosine
// distance and a full-text payload index on filename so filename tokens are
// filterable. Calling it twice in a row leaves the collection in the same
// state both times.
func (c *Client) EnsureSchema(ctx context.Context) error {
	exists, err := c.collectionExists(ctx)
	if err != nil {
		return fmt.Errorf("check collection: %w", err)
	}
	if exists {
		c.logger.Info("index.schema.reset", "collection", c.collection)
		if err := c.Drop(ctx); err != nil {
			return fmt.Errorf("delete collection: %w", err)
		}
	}

	createBody := map[string]any{
		"vectors": map[string]any{
			"size":     c.dimension,
			"distance": "Cosine",
		},
	}
	if err := c.doRequest(ctx, http.MethodPut, "/collections/"+c.collection, createBody, nil); err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	// Full-text index on filename enables the exact-match lookup path.
	indexBody := map[string]any{
		"field_name": "filename",
		"field_schema": map[string]any{
			"type":      "text",
			"tokenizer": "word",
			"lowercase": true,
		},
	}
	if err := c.doRequest(ctx, http.MethodPut, "/collections/"+c.collection+"/index", indexBody, nil); err != nil {
		return fmt.Errorf("create filename index: %w", err)
	}

	c.logger.Info("index.schema.created", "collection", c.collection, "dimension", c.dimension)
	return nil
}

// Upsert writes records to the collection, waiting for the write to be
// applied. Every record must carry a vector of the configured dimension.
func (c *Client) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]map[string]any, len(records))
	for i, r := range records {
		if len(r.Vector) != c.dimension {
			return fmt.Errorf("record %q has vector dimension %d, collection expects %d", r.Filename, len(r.Vector), c.dimension)
		}
		points[i] = map[string]any{
			"id":     uuid.NewString(),
			"vector": r.Vector,
			"payload": map[string]any{
				"code":       r.Code,
				"filename":   r.Filename,
				"language":   r.Language,
				"start_line": r.StartLine,
				"end_line":   r.EndLine,
			},
		}
	}

	body := map[string]any{"points": points}
	if err := c.doRequest(ctx, http.MethodPut, "/collections/"+c.collection+"/points?wait=true", body, nil); err != nil {
		return fmt.Errorf("upsert %d points: %w", len(points), err)
	}
	return nil
}

// Query performs a nearest-neighbor search with the given anchor vector and
// returns up to limit hits ordered by descending similarity.
func (c *Client) Query(ctx context.Context, vector []float32, limit int) ([]Hit, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("empty query vector")
	}
	if limit <= 0 {
		limit = 10
	}

	body := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}

	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := c.doRequest(ctx, http.MethodPost, "/collections/"+c.collection+"/points/search", body, &resp); err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(resp.Result))
	for _, item := range resp.Result {
		hit := hitFromPayload(item.Payload)
		hit.Score = item.Score
		hits = append(hits, hit)
	}
	return hits, nil
}

// QueryFilename returns up to limit records whose filename contains the
// given token, using the full-text payload index. Hit order is unspecified;
// scores are zero.
func (c *Client) QueryFilename(ctx context.Context, token string, limit int) ([]Hit, error) {
	if token == "" {
		return nil, fmt.Errorf("empty filename token")
	}
	if limit <= 0 {
		limit = 5
	}

	body := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{
					"key":   "filename",
					"match": map[string]any{"text": token},
				},
			},
		},
		"limit":        limit,
		"with_payload": true,
	}

	var resp struct {
		Result struct {
			Points []struct {
				Payload map[string]any `json:"payload"`
			} `json:"points"`
		} `json:"result"`
	}
	if err := c.doRequest(ctx, http.MethodPost, "/collections/"+c.collection+"/points/scroll", body, &resp); err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(resp.Result.Points))
	for _, p := range resp.Result.Points {
		hits = append(hits, hitFromPayload(p.Payload))
	}
	return hits, nil
}

// Count returns the exact number of records in the collection.
func (c *Client) Count(ctx context.Context) (int, error) {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	body := map[string]any{"exact": true}
	if err := c.doRequest(ctx, http.MethodPost, "/collections/"+c.collection+"/points/count", body, &resp); err != nil {
		return 0, err
	}
	return resp.Result.Count, nil
}

// Drop deletes the collection entirely.
func (c *Client) Drop(ctx context.Context) error {
	return c.doRequest(ctx, http.MethodDelete, "/collections/"+c.collection, nil, nil)
}

// collectionExists probes for the collection, mapping 404 to false.
func (c *Client) collectionExists(ctx context.Context) (bool, error) {
	err := c.doRequest(ctx, http.MethodGet, "/collections/"+c.collection, nil, nil)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.code == http.StatusNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// hitFromPayload converts a Qdrant payload map into a Hit. Missing or
// mistyped fields are left at their zero values.
func hitFromPayload(payload map[string]any) Hit {
	var hit Hit
	if v, ok := payload["code"].(string); ok {
		hit.Code = v
	}
	if v, ok := payload["filename"].(string); ok {
		hit.Filename = v
	}
	if v, ok := payload["language"].(string); ok {
		hit.Language = v
	}
	if v, ok := payload["start_line"].(float64); ok {
		hit.StartLine = int(v)
	}
	if v, ok := payload["end_line"].(float64); ok {
		hit.EndLine = int(v)
	}
	return hit
}

// IsNotFound reports whether err is a Qdrant 404, meaning the collection
// does not exist.
func IsNotFound(err error) bool {
	var se *statusError
	return errors.As(err, &se) && se.code == http.StatusNotFound
}

// statusError carries the HTTP status of a failed Qdrant call.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("qdrant API error: %d %s", e.code, e.body)
}

// doRequest performs one HTTP call against Qdrant, encoding body as JSON and
// decoding the response into out when out is non-nil.
func (c *Client) doRequest(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal qdrant request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create qdrant request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read qdrant response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return &statusError{code: resp.StatusCode, body: string(data)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse qdrant response: %w", err)
	}
	return nil
}
