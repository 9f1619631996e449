package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/bookstore/internal/models"
)

type Document struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Description string `json:"description"`
	ISBN        string `json:"isbn,omitempty"`
}

func documentFor(b models.Book) Document {
	d := Document{ID: b.ID, Title: b.Title, Author: b.Author, Description: b.Description}
	if b.ISBN != nil {
		d.ISBN = *b.ISBN
	}
	return d
}

// Elastic ranks matches in Elasticsearch and loads the books from the store,
// so prices and stock are always current.
type Elastic struct {
	Client    *elasticsearch.Client
	IndexName string
	Store     BookStore
}

func NewClient(url, user, password string) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Username:  user,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch error response %s: %s", res.Status(), body)
	}

	return client, nil
}

func (s *Elastic) Search(ctx context.Context, q string, offset, limit int) (int64, []models.Book, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     q,
				"fields":    []string{"title^2", "author^2", "description"},
				"fuzziness": "AUTO",
			},
		},
		"from":    offset,
		"size":    limit,
		"_source": []string{"id"},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("encode search body: %w", err)
	}

	res, err := s.Client.Search(
		s.Client.Search.WithContext(ctx),
		s.Client.Search.WithIndex(s.IndexName),
		s.Client.Search.WithBody(&buf),
		s.Client.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search request: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search error: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source Document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("decode search response: %w", err)
	}
	ids := make([]uint, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		ids = append(ids, hit.Source.ID)
	}
	books, err := s.Store.FindBooksByIDs(ctx, ids)
	if err != nil {
		return 0, nil, err
	}
	return r.Hits.Total.Value, books, nil
}

// Index upserts one document per book, keyed by the book id.
func (s *Elastic) Index(ctx context.Context, books []models.Book) error {
	for _, b := range books {
		data, err := json.Marshal(documentFor(b))
		if err != nil {
			return fmt.Errorf("encode book %d: %w", b.ID, err)
		}
		res, err := s.Client.Index(
			s.IndexName,
			bytes.NewReader(data),
			s.Client.Index.WithContext(ctx),
			s.Client.Index.WithDocumentID(strconv.FormatUint(uint64(b.ID), 10)),
			s.Client.Index.WithRefresh("true"),
		)
		if err != nil {
			return fmt.Errorf("index book %d: %w", b.ID, err)
		}
		failed := res.IsError()
		status := res.Status()
		res.Body.Close()
		if failed {
			return fmt.Errorf("index book %d: %s", b.ID, status)
		}
	}
	return nil
}
