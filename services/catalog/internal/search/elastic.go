// Package search keeps an Elasticsearch index of products in step with the
// catalog tables. The database stays the source of truth: a hit only
// carries the product id.
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
	"github.com/google/uuid"

	"github.com/Skotchmaster/veranda/services/catalog/internal/models"
)

var ErrUnavailable = errors.New("search index unavailable")

type Config struct {
	URL      string
	Username string
	Password string
	Index    string
}

type Index interface {
	Upsert(ctx context.Context, p *models.Product) error
	Remove(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, q string, from, size int) (int64, []uuid.UUID, error)
}

type document struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	PriceRange   string   `json:"priceRange"`
	CategoryID   string   `json:"categoryId,omitempty"`
	Category     string   `json:"category,omitempty"`
	MaterialID   string   `json:"materialId,omitempty"`
	Material     string   `json:"material,omitempty"`
	Availability bool     `json:"availability"`
	Images       []string `json:"images,omitempty"`
}

func toDocument(p *models.Product) document {
	d := document{
		ID:           p.ID.String(),
		Name:         p.Name,
		Description:  p.Description,
		PriceRange:   p.PriceRange,
		Availability: p.Availability,
		Images:       []string(p.ProductImageURLs),
	}
	if p.CategoryID != nil {
		d.CategoryID = p.CategoryID.String()
	}
	if p.Category != nil {
		d.Category = p.Category.Name
	}
	if p.MaterialID != nil {
		d.MaterialID = p.MaterialID.String()
	}
	if p.Material != nil {
		d.Material = p.Material.Name
	}
	return d
}

type Elastic struct {
	es    *elasticsearch.Client
	index string
}

func NewElastic(cfg Config) (*Elastic, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}
	index := cfg.Index
	if index == "" {
		index = "products"
	}
	return &Elastic{es: es, index: index}, nil
}

func responseError(op string, status string, body io.Reader) error {
	raw, _ := io.ReadAll(io.LimitReader(body, 4<<10))
	return fmt.Errorf("%w: %s: %s %s", ErrUnavailable, op, status, strings.TrimSpace(string(raw)))
}

// Ping checks the cluster answers. Used by the readiness probe.
func (e *Elastic) Ping(ctx context.Context) error {
	res, err := e.es.Info(e.es.Info.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("info", res.Status(), res.Body)
	}
	return nil
}

func (e *Elastic) Upsert(ctx context.Context, p *models.Product) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(toDocument(p)); err != nil {
		return err
	}

	res, err := e.es.Index(
		e.index,
		&buf,
		e.es.Index.WithContext(ctx),
		e.es.Index.WithDocumentID(p.ID.String()),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("index", res.Status(), res.Body)
	}
	return nil
}

func (e *Elastic) Remove(ctx context.Context, id uuid.UUID) error {
	res, err := e.es.Delete(e.index, id.String(), e.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.IsError() {
		return responseError("delete", res.Status(), res.Body)
	}
	return nil
}

func (e *Elastic) Search(ctx context.Context, q string, from, size int) (int64, []uuid.UUID, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     q,
				"fields":    []string{"name^3", "category^2", "material^2", "description"},
				"fuzziness": "AUTO",
			},
		},
		"_source": []string{"id"},
		"from":    from,
		"size":    size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, err
	}

	res, err := e.es.Search(
		e.es.Search.WithContext(ctx),
		e.es.Search.WithIndex(e.index),
		e.es.Search.WithBody(&buf),
		e.es.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, responseError("search", res.Status(), res.Body)
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("decode search response: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		id, err := uuid.Parse(hit.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return r.Hits.Total.Value, ids, nil
}
