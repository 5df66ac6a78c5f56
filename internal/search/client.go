package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"
)

// Index names
const (
	IndexPosts    = "echoes-posts"
	IndexWritings = "echoes-writings"
)

func indexFor(docType string) (string, error) {
	switch docType {
	case TypePosts:
		return IndexPosts, nil
	case TypeWritings:
		return IndexWritings, nil
	}
	return "", ErrInvalidType
}

func typeForIndex(index string) string {
	if index == IndexWritings {
		return TypeWritings
	}
	return TypePosts
}

// Client wraps the Elasticsearch client.
type Client struct {
	es *elasticsearch.Client
}

// NewClient connects to Elasticsearch at url and verifies the connection.
// transport may be nil.
func NewClient(url string, transport http.RoundTripper) (*Client, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{url},
		Transport: transport,
	}

	es, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	res, err := es.Info()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Elasticsearch: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch info returned [%s]", res.Status())
	}

	return &Client{es: es}, nil
}

// Ping checks the cluster is reachable.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch ping returned [%s]", res.Status())
	}
	return nil
}

func indexMapping() map[string]interface{} {
	return map[string]interface{}{
		"mappings": map[string]interface{}{
			"_meta": map[string]interface{}{
				"version": IndexVersion,
			},
			"properties": map[string]interface{}{
				"id":          map[string]interface{}{"type": "keyword"},
				"type":        map[string]interface{}{"type": "keyword"},
				"user_id":     map[string]interface{}{"type": "keyword"},
				"author_name": map[string]interface{}{"type": "text"},
				"title":       map[string]interface{}{"type": "text", "analyzer": "standard"},
				"body":        map[string]interface{}{"type": "text", "analyzer": "standard"},
				"tags":        map[string]interface{}{"type": "keyword"},
				"category":    map[string]interface{}{"type": "keyword"},
				"media_type":  map[string]interface{}{"type": "keyword"},
				"like_count":  map[string]interface{}{"type": "integer"},
				"created_at":  map[string]interface{}{"type": "date"},
			},
		},
	}
}

// InitializeIndices creates missing indices and recreates outdated ones.
// It reports whether any index was (re)created and so needs a backfill.
func (c *Client) InitializeIndices(ctx context.Context) (bool, error) {
	created := false
	for _, index := range []string{IndexPosts, IndexWritings} {
		exists, err := c.indexExists(ctx, index)
		if err != nil {
			return created, err
		}
		if exists {
			version, err := c.indexVersion(ctx, index)
			if err != nil {
				return created, err
			}
			if version >= IndexVersion {
				continue
			}
			if err := c.DeleteIndex(ctx, index); err != nil {
				return created, err
			}
		}
		if err := c.createIndex(ctx, index); err != nil {
			return created, fmt.Errorf("failed to create index %s: %w", index, err)
		}
		created = true
	}
	return created, nil
}

func (c *Client) indexExists(ctx context.Context, index string) (bool, error) {
	res, err := c.es.Indices.Exists([]string{index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("failed to check if index exists: %w", err)
	}
	res.Body.Close()
	return res.StatusCode == http.StatusOK, nil
}

func (c *Client) createIndex(ctx context.Context, index string) error {
	body, err := json.Marshal(indexMapping())
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}

	res, err := c.es.Indices.Create(index,
		c.es.Indices.Create.WithBody(bytes.NewReader(body)),
		c.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return responseError("creating index", res.Status(), res.Body)
	}
	return nil
}

// Index upserts a document into the index for its type.
func (c *Client) Index(ctx context.Context, doc Document) error {
	index, err := indexFor(doc.Type)
	if err != nil {
		return err
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	res, err := c.es.Index(index, bytes.NewReader(body),
		c.es.Index.WithDocumentID(doc.ID),
		c.es.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to index %s %s: %w", doc.Type, doc.ID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return responseError("indexing document", res.Status(), res.Body)
	}
	return nil
}

// Delete removes a document. A missing document is not an error.
func (c *Client) Delete(ctx context.Context, docType, id string) error {
	index, err := indexFor(docType)
	if err != nil {
		return err
	}

	res, err := c.es.Delete(index, id, c.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", docType, id, err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("deleting document", res.Status(), res.Body)
	}
	return nil
}

// Search runs a fuzzy multi-field match. An empty query text matches
// everything, newest first.
func (c *Client) Search(ctx context.Context, q Query) (*Result, error) {
	q, err := q.Normalize()
	if err != nil {
		return nil, err
	}

	indices := make([]string, 0, 2)
	for _, t := range q.types() {
		index, _ := indexFor(t)
		indices = append(indices, index)
	}

	var match map[string]interface{}
	if q.Text == "" {
		match = map[string]interface{}{"match_all": map[string]interface{}{}}
	} else {
		match = map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     q.Text,
				"fields":    []string{"title^3", "tags^2", "author_name^1.5", "body"},
				"fuzziness": "AUTO",
			},
		}
	}

	query := map[string]interface{}{
		"query": match,
		"from":  q.Offset,
		"size":  q.Limit,
		"sort": []map[string]interface{}{
			{"_score": map[string]interface{}{"order": "desc"}},
			{"created_at": map[string]interface{}{"order": "desc"}},
		},
	}
	queryJSON, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search query: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(indices...),
		c.es.Search.WithBody(bytes.NewReader(queryJSON)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, responseError("searching", res.Status(), res.Body)
	}

	var searchResp struct {
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
			Hits []struct {
				Index  string   `json:"_index"`
				ID     string   `json:"_id"`
				Score  float64  `json:"_score"`
				Source Document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	hits := make([]Hit, 0, len(searchResp.Hits.Hits))
	for _, h := range searchResp.Hits.Hits {
		doc := h.Source
		if doc.ID == "" {
			doc.ID = h.ID
		}
		if doc.Type == "" {
			doc.Type = typeForIndex(h.Index)
		}
		hits = append(hits, hitFromDocument(doc, h.Score))
	}

	return &Result{
		Hits:   hits,
		Total:  searchResp.Hits.Total.Value,
		Source: "elasticsearch",
	}, nil
}

func responseError(action, status string, body io.Reader) error {
	var errResp map[string]interface{}
	if err := json.NewDecoder(body).Decode(&errResp); err != nil {
		return fmt.Errorf("error %s: [%s]", action, status)
	}
	return fmt.Errorf("error %s: [%s] %v", action, status, errResp["error"])
}
