// Package es wraps the Elasticsearch product index.
package es

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

	"github.com/Skotchmaster/boutique/internal/models"
)

type Config struct {
	URL      string
	User     string
	Password string
	Index    string
}

func NewClient(ctx context.Context, cfg Config) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("es: new client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("es: info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("es: info: %s: %s", res.Status(), body)
	}
	return client, nil
}

// Index keeps product documents searchable by name and description.
type Index struct {
	Client *elasticsearch.Client
	Name   string
}

type document struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Featured    bool     `json:"featured"`
	Price       int64    `json:"price"`
	Sizes       []string `json:"sizes"`
	Colors      []string `json:"colors"`
}

func (ix *Index) Put(ctx context.Context, p models.Product) error {
	body, err := json.Marshal(document{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Featured:    p.Featured,
		Price:       p.Price,
		Sizes:       p.Sizes,
		Colors:      p.Colors,
	})
	if err != nil {
		return err
	}

	res, err := ix.Client.Index(ix.Name, bytes.NewReader(body),
		ix.Client.Index.WithContext(ctx),
		ix.Client.Index.WithDocumentID(p.ID.String()),
	)
	if err != nil {
		return fmt.Errorf("es: index %s: %w", p.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("es: index %s: %s", p.ID, res.Status())
	}
	return nil
}

func (ix *Index) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := ix.Client.Delete(ix.Name, id.String(), ix.Client.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("es: delete %s: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("es: delete %s: %s", id, res.Status())
	}
	return nil
}

type Query struct {
	Text     string
	Category string
	Featured *bool
	From     int
	Size     int
}

// Search returns matching product ids in relevance order and the total hit count.
func (ix *Index) Search(ctx context.Context, q Query) (int64, []uuid.UUID, error) {
	must := []any{map[string]any{
		"multi_match": map[string]any{
			"query":     strings.TrimSpace(q.Text),
			"fields":    []string{"name^2", "description"},
			"fuzziness": "AUTO",
		},
	}}
	var filter []any
	if q.Category != "" {
		filter = append(filter, map[string]any{"term": map[string]any{"category": q.Category}})
	}
	if q.Featured != nil {
		filter = append(filter, map[string]any{"term": map[string]any{"featured": *q.Featured}})
	}

	body := map[string]any{
		"query":   map[string]any{"bool": map[string]any{"must": must, "filter": filter}},
		"from":    q.From,
		"size":    q.Size,
		"_source": false,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, err
	}

	res, err := ix.Client.Search(
		ix.Client.Search.WithContext(ctx),
		ix.Client.Search.WithIndex(ix.Name),
		ix.Client.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("es: search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("es: search: %s", res.Status())
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
		return 0, nil, fmt.Errorf("es: decode search: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		id, err := uuid.Parse(h.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return r.Hits.Total.Value, ids, nil
}
