// Package vector is a thin client for a Qdrant-style point-search API,
// used for nearest-neighbor lookup over embedded card documentation.
package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Match is one ranked search result.
type Match struct {
	ID      string
	Score   float64
	Payload map[string]any
}

// Filter restricts a search to points whose payload matches every
// non-empty field (slug AND category).
type Filter struct {
	Slug     string
	Category string
}

// Client talks to one collection of the vector store.
type Client struct {
	baseURL    string
	collection string
	apiKey     string
	http       *http.Client
}

// New creates a client for the given store URL and collection.
func New(baseURL, collection, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		collection: collection,
		apiKey:     apiKey,
		http:       &http.Client{Timeout: 15 * time.Second},
	}
}

// Query runs a nearest-neighbor search and returns matches ranked by
// similarity score descending.
func (c *Client) Query(ctx context.Context, vector []float32, topK int, filter *Filter, withPayload bool) ([]Match, error) {
	endpoint := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, c.collection)

	body := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": withPayload,
	}
	if f := buildFilter(filter); f != nil {
		body["filter"] = f
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("vector search: %s - %s", resp.Status, string(msg))
	}

	var result struct {
		Result []struct {
			ID      any            `json:"id"` // UUID string or integer
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(result.Result))
	for _, item := range result.Result {
		matches = append(matches, Match{
			ID:      idString(item.ID),
			Score:   item.Score,
			Payload: item.Payload,
		})
	}
	return matches, nil
}

func idString(id any) string {
	switch v := id.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	default:
		return fmt.Sprint(v)
	}
}

func buildFilter(f *Filter) map[string]any {
	if f == nil {
		return nil
	}
	var must []map[string]any
	if f.Slug != "" {
		must = append(must, map[string]any{
			"key":   "slug",
			"match": map[string]any{"value": f.Slug},
		})
	}
	if f.Category != "" {
		must = append(must, map[string]any{
			"key":   "category",
			"match": map[string]any{"value": f.Category},
		})
	}
	if len(must) == 0 {
		return nil
	}
	return map[string]any{"must": must}
}
