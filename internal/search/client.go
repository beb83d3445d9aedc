package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"

	"github.com/Skotchmaster/shopfront/internal/models"
)

type Config struct {
	URL      string
	User     string
	Password string
	Index    string
	// Transport overrides the HTTP transport, mostly for tests.
	Transport http.RoundTripper
}

type Results struct {
	Total int64
	Items []models.Product
}

// Client keeps the product index in step with the catalog.
type Client struct {
	es    *elasticsearch.Client
	index string
}

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := es.Info(es.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch info: %s: %s", res.Status(), body)
	}

	index := cfg.Index
	if index == "" {
		index = "products"
	}
	return &Client{es: es, index: index}, nil
}

func (c *Client) Index(ctx context.Context, p models.Product) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	res, err := c.es.Index(c.index, bytes.NewReader(b),
		c.es.Index.WithContext(ctx),
		c.es.Index.WithDocumentID(p.ID.String()),
	)
	if err != nil {
		return fmt.Errorf("index product: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index product: %s", res.Status())
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := c.es.Delete(c.index, id.String(), c.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete product doc: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete product doc: %s", res.Status())
	}
	return nil
}

func (c *Client) Search(ctx context.Context, query string, from, size int) (Results, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Results{Items: []models.Product{}}, nil
	}
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "description", "category"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return Results{}, err
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(&buf),
	)
	if err != nil {
		return Results{}, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return Results{}, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct{ Value int64 } `json:"total"`
			Hits  []struct {
				Source models.Product `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return Results{}, fmt.Errorf("decode search response: %w", err)
	}

	prods := make([]models.Product, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		prods[i] = hit.Source
	}
	return Results{Total: r.Hits.Total.Value, Items: prods}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("ping: %s", res.Status())
	}
	return nil
}
