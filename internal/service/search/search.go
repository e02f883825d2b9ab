package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/akruglov/shopfront/internal/models"
)

const ProductIndex = "products"

func Search(ctx context.Context, es *elasticsearch.Client, index, query string, from, size int) (int64, []models.Product, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"name^2", "description"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("encode search body: %w", err)
	}

	res, err := es.Search(
		es.Search.WithContext(ctx),
		es.Search.WithIndex(index),
		es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, nil, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Product `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	prods := make([]models.Product, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		prods[i] = hit.Source
	}
	return r.Hits.Total.Value, prods, nil
}

// IndexProducts pushes the catalog into the search index, one document per
// product keyed by id. Called at startup; the catalog is read-only after
// that.
func IndexProducts(ctx context.Context, es *elasticsearch.Client, index string, products []models.Product) error {
	for _, p := range products {
		doc, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encode product %d: %w", p.ID, err)
		}
		res, err := es.Index(
			index,
			bytes.NewReader(doc),
			es.Index.WithDocumentID(strconv.FormatUint(uint64(p.ID), 10)),
			es.Index.WithContext(ctx),
		)
		if err != nil {
			return fmt.Errorf("index product %d: %w", p.ID, err)
		}
		res.Body.Close()
		if res.IsError() {
			return fmt.Errorf("index product %d: %s", p.ID, res.Status())
		}
	}
	return nil
}
