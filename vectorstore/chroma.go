package vectorstore

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client talks to a ChromaDB server over its REST API. The embedding
// model and index internals are Chroma's concern; this client only moves
// documents and metadata in and out.
type Client struct {
	http           *resty.Client
	collectionName string

	mu           sync.Mutex
	collectionID string
}

// NewClient creates a Chroma client for the given server and collection.
func NewClient(baseURL, collectionName string) *Client {
	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second)
	return &Client{http: http, collectionName: collectionName}
}

type collectionResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Ensure creates or fetches the photo collection. It is safe to call
// concurrently; the resolved collection ID is cached.
func (c *Client) Ensure(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.collectionID != "" {
		return nil
	}

	var result collectionResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"name":          c.collectionName,
			"get_or_create": true,
			"metadata":      map[string]string{"description": "Photo metadata collection"},
		}).
		SetResult(&result).
		Post("/api/v1/collections")
	if err != nil {
		return fmt.Errorf("vectorstore: failed to reach Chroma: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("vectorstore: Chroma error %d creating collection: %s", resp.StatusCode(), resp.String())
	}
	if result.ID == "" {
		return fmt.Errorf("vectorstore: Chroma returned empty collection id")
	}

	c.collectionID = result.ID
	log.Printf("vectorstore: using Chroma collection %s (%s)", c.collectionName, c.collectionID)
	return nil
}

func (c *Client) collection(ctx context.Context) (string, error) {
	if err := c.Ensure(ctx); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.collectionID, nil
}

// UpsertPhoto stores or replaces a photo document and its metadata.
// document is the text that Chroma embeds for semantic search.
func (c *Client) UpsertPhoto(ctx context.Context, photoID, document string, metadata map[string]interface{}) error {
	collID, err := c.collection(ctx)
	if err != nil {
		return err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"ids":       []string{photoID},
			"documents": []string{document},
			"metadatas": []map[string]interface{}{metadata},
		}).
		Post(fmt.Sprintf("/api/v1/collections/%s/upsert", collID))
	if err != nil {
		return fmt.Errorf("vectorstore: upsert request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("vectorstore: Chroma error %d on upsert: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

type queryResponse struct {
	IDs       [][]string  `json:"ids"`
	Distances [][]float64 `json:"distances"`
}

// Query runs a semantic text search and returns matching photo IDs in
// ranked order.
func (c *Client) Query(ctx context.Context, text string, nResults int) ([]string, error) {
	collID, err := c.collection(ctx)
	if err != nil {
		return nil, err
	}
	if nResults <= 0 {
		nResults = 20
	}

	var result queryResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"query_texts": []string{text},
			"n_results":   nResults,
		}).
		SetResult(&result).
		Post(fmt.Sprintf("/api/v1/collections/%s/query", collID))
	if err != nil {
		return nil, fmt.Errorf("vectorstore: query request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("vectorstore: Chroma error %d on query: %s", resp.StatusCode(), resp.String())
	}

	if len(result.IDs) == 0 {
		return nil, nil
	}
	return result.IDs[0], nil
}

// Delete removes a photo from the collection.
func (c *Client) Delete(ctx context.Context, photoID string) error {
	collID, err := c.collection(ctx)
	if err != nil {
		return err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{"ids": []string{photoID}}).
		Post(fmt.Sprintf("/api/v1/collections/%s/delete", collID))
	if err != nil {
		return fmt.Errorf("vectorstore: delete request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("vectorstore: Chroma error %d on delete: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// Count returns the number of stored photo documents.
func (c *Client) Count(ctx context.Context) (int, error) {
	collID, err := c.collection(ctx)
	if err != nil {
		return 0, err
	}

	var count int
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&count).
		Get(fmt.Sprintf("/api/v1/collections/%s/count", collID))
	if err != nil {
		return 0, fmt.Errorf("vectorstore: count request failed: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("vectorstore: Chroma error %d on count: %s", resp.StatusCode(), resp.String())
	}
	return count, nil
}
