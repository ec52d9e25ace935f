package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/go-library-management/internal/domain/entity"
	"github.com/oksasatya/go-library-management/pkg/helpers"
)

const booksMapping = `{
  "mappings": {
    "properties": {
      "id":               {"type": "long"},
      "title":            {"type": "keyword"},
      "author":           {"type": "text"},
      "publication_year": {"type": "integer"}
    }
  }
}`

const requestTimeout = 3 * time.Second

// BookIndex mirrors book titles into Elasticsearch for title search.
type BookIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewBookIndex(es *elasticsearch.Client, index string) *BookIndex {
	return &BookIndex{es: es, index: index}
}

func (i *BookIndex) EnsureIndex(ctx context.Context) error {
	return helpers.EnsureIndex(ctx, i.es, i.index, booksMapping)
}

type bookDoc struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	Author          string `json:"author,omitempty"`
	PublicationYear int    `json:"publication_year"`
}

func (i *BookIndex) Index(ctx context.Context, b *entity.Book) error {
	doc := bookDoc{ID: b.ID, Title: b.Title, PublicationYear: b.PublicationYear}
	if b.Author != nil {
		doc.Author = strings.TrimSpace(b.Author.FirstName + " " + b.Author.LastName)
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: i.index, DocumentID: strconv.FormatInt(b.ID, 10), Body: bytes.NewReader(body), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, i.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("index book %d: %s", b.ID, res.Status())
	}
	return nil
}

func (i *BookIndex) Delete(ctx context.Context, ids ...int64) error {
	for _, id := range ids {
		req := esapi.DeleteRequest{Index: i.index, DocumentID: strconv.FormatInt(id, 10)}
		c, cancel := context.WithTimeout(ctx, requestTimeout)
		res, err := req.Do(c, i.es)
		cancel()
		if err != nil {
			return err
		}
		_ = res.Body.Close()
		if res.IsError() && res.StatusCode != http.StatusNotFound {
			return fmt.Errorf("delete book %d: %s", id, res.Status())
		}
	}
	return nil
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

// SearchTitleIDs returns ids of books whose title contains title, ignoring case.
func (i *BookIndex) SearchTitleIDs(ctx context.Context, title string, size int) ([]int64, error) {
	if size <= 0 || size > 500 {
		size = 100
	}
	query := map[string]any{
		"query": map[string]any{
			"wildcard": map[string]any{
				"title": map[string]any{
					"value":            "*" + wildcardEscaper.Replace(strings.TrimSpace(title)) + "*",
					"case_insensitive": true,
				},
			},
		},
		"_source": []string{"id"},
		"size":    size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := i.es.Search(i.es.Search.WithContext(c), i.es.Search.WithIndex(i.index), i.es.Search.WithBody(bytes.NewReader(b)))
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("search books: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		id, err := strconv.ParseInt(h.ID, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
