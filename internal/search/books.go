package search

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"bookstore_back_end/internal/models"
)

// BookDocument est la forme indexée d'un livre.
type BookDocument struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Author      string `json:"author"`
	Genre       string `json:"genre"`
	ISBN        string `json:"isbn"`
	Price       string `json:"price"`
	CoverURL    string `json:"cover_url"`
}

type Hit struct {
	BookDocument
	Score float64 `json:"score"`
}

type BookIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewBookIndex(es *elasticsearch.Client, index string) *BookIndex {
	return &BookIndex{es: es, index: index}
}

func toDocument(b models.Book) BookDocument {
	return BookDocument{
		ID:          b.ID.String(),
		Title:       b.Title,
		Description: b.Description,
		Author:      b.AuthorName,
		Genre:       b.GenreName,
		ISBN:        b.ISBN,
		Price:       b.Price.StringFixed(2),
		CoverURL:    b.CoverURL,
	}
}

func (i *BookIndex) Index(ctx context.Context, b models.Book) error {
	data, err := json.Marshal(toDocument(b))
	if err != nil {
		return errors.Wrap(err, "encodage document")
	}

	req := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: b.ID.String(),
		Body:       bytes.NewReader(data),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, i.es)
	if err != nil {
		return errors.Wrap(err, "indexation elastic")
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.Errorf("elastic index %s: %s", b.ID, res.Status())
	}
	return nil
}

func (i *BookIndex) Delete(ctx context.Context, id uuid.UUID) error {
	req := esapi.DeleteRequest{
		Index:      i.index,
		DocumentID: id.String(),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, i.es)
	if err != nil {
		return errors.Wrap(err, "suppression elastic")
	}
	defer res.Body.Close()

	// un document absent n'est pas une erreur
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return errors.Errorf("elastic delete %s: %s", id, res.Status())
	}
	return nil
}

// Search cherche dans le titre, la description et l'auteur.
func (i *BookIndex) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 20
	}
	body := map[string]any{
		"size": limit,
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"title^3", "author^2", "description"},
				"fuzziness": "AUTO",
			},
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, errors.Wrap(err, "encodage requête")
	}

	req := esapi.SearchRequest{
		Index: []string{i.index},
		Body:  &buf,
	}
	res, err := req.Do(ctx, i.es)
	if err != nil {
		return nil, errors.Wrap(err, "requête elastic")
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, errors.Errorf("elastic search: %s", res.Status())
	}
	return decodeHits(res.Body)
}

func decodeHits(r io.Reader) ([]Hit, error) {
	var payload struct {
		Hits struct {
			Hits []struct {
				Score  float64      `json:"_score"`
				Source BookDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, errors.Wrap(err, "décodage réponse elastic")
	}

	hits := make([]Hit, 0, len(payload.Hits.Hits))
	for _, h := range payload.Hits.Hits {
		hits = append(hits, Hit{BookDocument: h.Source, Score: h.Score})
	}
	return hits, nil
}
