package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// IndexVersion is stored in each index's mapping _meta.
// Bump it whenever indexMapping changes so indices get rebuilt.
const IndexVersion = 1

// indexVersion reads _meta.version from the index mapping; 0 when absent.
func (c *Client) indexVersion(ctx context.Context, index string) (int, error) {
	res, err := c.es.Indices.GetMapping(
		c.es.Indices.GetMapping.WithIndex(index),
		c.es.Indices.GetMapping.WithContext(ctx),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to get index mapping: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return 0, nil
	}
	if res.IsError() {
		return 0, fmt.Errorf("error getting index mapping: %s", res.Status())
	}

	var mappingResp map[string]struct {
		Mappings struct {
			Meta struct {
				Version int `json:"version"`
			} `json:"_meta"`
		} `json:"mappings"`
	}
	if err := json.NewDecoder(res.Body).Decode(&mappingResp); err != nil {
		return 0, nil
	}
	return mappingResp[index].Mappings.Meta.Version, nil
}

// DeleteIndex deletes an index. A missing index is not an error.
func (c *Client) DeleteIndex(ctx context.Context, index string) error {
	res, err := c.es.Indices.Delete(
		[]string{index},
		c.es.Indices.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to delete index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("error deleting index: %s", res.Status())
	}
	return nil
}
