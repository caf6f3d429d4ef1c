package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/samber/oops"

	"catalog_back_end/internal/models"
)

//
// --- INDEXATION DANS ELASTICSEARCH ---
//

// ElasticIndex indexe les produits pour la recherche plein texte.
type ElasticIndex struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticIndex(client *elasticsearch.Client, index string) *ElasticIndex {
	return &ElasticIndex{client: client, index: index}
}

func (e *ElasticIndex) Index(ctx context.Context, p *models.Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return oops.Code("SEARCH_ENCODE_FAILED").With("product_id", p.ID).Wrap(err)
	}

	req := esapi.IndexRequest{
		Index:      e.index,
		DocumentID: p.ID,
		Body:       bytes.NewReader(data),
		Refresh:    "true", // rend la donnée immédiatement visible
	}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return oops.Code("SEARCH_INDEX_FAILED").With("product_id", p.ID).Wrap(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return oops.Code("SEARCH_INDEX_FAILED").With("product_id", p.ID).Errorf("elastic a renvoyé %s", res.Status())
	}
	return nil
}

// Remove retire un produit de l'index ; un document déjà absent n'est pas une erreur.
func (e *ElasticIndex) Remove(ctx context.Context, id string) error {
	req := esapi.DeleteRequest{Index: e.index, DocumentID: id, Refresh: "true"}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return oops.Code("SEARCH_DELETE_FAILED").With("product_id", id).Wrap(err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return oops.Code("SEARCH_DELETE_FAILED").With("product_id", id).Errorf("elastic a renvoyé %s", res.Status())
	}
	return nil
}

//
// --- RECHERCHE DANS ELASTICSEARCH ---
//

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source models.Product `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search cherche query dans le nom et la description des produits.
func (e *ElasticIndex) Search(ctx context.Context, query string) ([]models.Product, error) {
	var buf bytes.Buffer
	q := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  query,
				"fields": []string{"name^2", "description"},
			},
		},
	}
	if err := json.NewEncoder(&buf).Encode(q); err != nil {
		return nil, fmt.Errorf("erreur encodage requête: %w", err)
	}

	req := esapi.SearchRequest{Index: []string{e.index}, Body: &buf}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return nil, oops.Code("SEARCH_QUERY_FAILED").With("query", query).Wrap(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, oops.Code("SEARCH_QUERY_FAILED").With("query", query).Errorf("elastic a renvoyé %s", res.Status())
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, oops.Code("SEARCH_DECODE_FAILED").Wrap(err)
	}

	products := make([]models.Product, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		products = append(products, hit.Source)
	}
	return products, nil
}
