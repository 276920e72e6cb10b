package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"

	"github.com/Skotchmaster/storefront/internal/models"
)

// maxHits caps a single search; the catalog listing is not paginated.
const maxHits = 10000

// ErrIncomplete is returned when more documents match than one search can return.
var ErrIncomplete = errors.New("search: more hits than a single page")

// ProductIndex serves catalog substring queries from an Elasticsearch index.
type ProductIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewProductIndex(es *elasticsearch.Client, index string) *ProductIndex {
	return &ProductIndex{es: es, index: index}
}

var indexMapping = map[string]any{
	"mappings": map[string]any{
		"properties": map[string]any{
			"id":          map[string]any{"type": "keyword"},
			"name":        map[string]any{"type": "keyword"},
			"description": map[string]any{"type": "keyword"},
			"category":    map[string]any{"type": "keyword"},
			"price":       map[string]any{"type": "double"},
			"image_url":   map[string]any{"type": "keyword", "index": false},
			"stock":       map[string]any{"type": "integer"},
			"rating":      map[string]any{"type": "float"},
			"created_at":  map[string]any{"type": "date"},
		},
	},
}

// EnsureIndex creates the index with keyword mappings if it does not exist yet.
func (p *ProductIndex) EnsureIndex(ctx context.Context) error {
	res, err := p.es.Indices.Exists([]string{p.index}, p.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("index exists: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("index exists: %s", res.Status())
	}

	body, err := json.Marshal(indexMapping)
	if err != nil {
		return err
	}
	res, err = p.es.Indices.Create(p.index,
		p.es.Indices.Create.WithContext(ctx),
		p.es.Indices.Create.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return checkResponse("create index", res)
}

// IndexProducts bulk-indexes products keyed by their id.
func (p *ProductIndex) IndexProducts(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, prod := range products {
		meta := map[string]any{"index": map[string]any{"_id": prod.ID}}
		if err := enc.Encode(meta); err != nil {
			return err
		}
		if err := enc.Encode(prod); err != nil {
			return err
		}
	}

	res, err := p.es.Bulk(&buf,
		p.es.Bulk.WithContext(ctx),
		p.es.Bulk.WithIndex(p.index),
		p.es.Bulk.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("bulk index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("bulk index: %s: %s", res.Status(), body)
	}

	var r struct {
		Errors bool `json:"errors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return fmt.Errorf("bulk index: decode: %w", err)
	}
	if r.Errors {
		return fmt.Errorf("bulk index: some documents were rejected")
	}
	return nil
}

func (p *ProductIndex) Search(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	body, err := json.Marshal(buildQuery(f))
	if err != nil {
		return nil, err
	}

	res, err := p.es.Search(
		p.es.Search.WithContext(ctx),
		p.es.Search.WithIndex(p.index),
		p.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		raw, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("search: %s: %s", res.Status(), raw)
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Product `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("search: decode: %w", err)
	}
	if r.Hits.Total.Value > len(r.Hits.Hits) {
		return nil, fmt.Errorf("%w: %d of %d", ErrIncomplete, len(r.Hits.Hits), r.Hits.Total.Value)
	}

	prods := make([]models.Product, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		prods = append(prods, hit.Source)
	}
	return prods, nil
}

func buildQuery(f models.ProductFilter) map[string]any {
	filters := make([]any, 0, 2)
	if f.Search != "" {
		pattern := "*" + escapeWildcard(f.Search) + "*"
		wildcard := func(field string) map[string]any {
			return map[string]any{"wildcard": map[string]any{
				field: map[string]any{"value": pattern, "case_insensitive": true},
			}}
		}
		filters = append(filters, map[string]any{"bool": map[string]any{
			"should":               []any{wildcard("name"), wildcard("description")},
			"minimum_should_match": 1,
		}})
	}
	if f.Category != "" {
		filters = append(filters, map[string]any{"term": map[string]any{"category": f.Category}})
	}

	return map[string]any{
		"size":             maxHits,
		"track_total_hits": true,
		"query":            map[string]any{"bool": map[string]any{"filter": filters}},
		"sort":             []any{map[string]any{"name": "asc"}, map[string]any{"id": "asc"}},
	}
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

func escapeWildcard(s string) string {
	return wildcardEscaper.Replace(s)
}

func checkResponse(op string, res *esapi.Response) error {
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("%s: %s: %s", op, res.Status(), body)
	}
	return nil
}
