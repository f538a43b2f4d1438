// internal/stores/schemestore/search.go
package schemestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	stderrors "yojana-workers/internal/common/errors"
	"yojana-workers/internal/models"
)

// SearchQuery narrows the catalog before matching. The engine still
// re-evaluates every returned scheme, so the search is a pre-filter, never a
// verdict.
type SearchQuery struct {
	Keywords string `json:"keywords,omitempty"`
	State    string `json:"state,omitempty"`
	Category string `json:"category,omitempty"`
	From     int    `json:"from"`
	Size     int    `json:"size"`
}

// SearchIndex runs catalog searches against Elasticsearch.
type SearchIndex struct {
	client *elasticsearch.Client
	index  string
}

func NewSearchIndex(client *elasticsearch.Client, index string) *SearchIndex {
	return &SearchIndex{client: client, index: index}
}

// SearchIDs returns the ids of schemes matching the query, ranked by
// relevance.
func (s *SearchIndex) SearchIDs(ctx context.Context, q SearchQuery) ([]string, error) {
	if q.Size <= 0 {
		q.Size = 100
	}

	body, _ := json.Marshal(buildSchemeSearchQuery(q))
	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  strings.NewReader(string(body)),
		From:  &q.From,
		Size:  &q.Size,
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, stderrors.NewSearchQueryFailedError(err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, stderrors.NewSearchQueryFailedError(fmt.Errorf("search returned %s", res.Status()))
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, stderrors.NewSearchQueryFailedError(err)
	}

	ids := make([]string, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

// IndexScheme writes one scheme document; used by the catalog loader.
func (s *SearchIndex) IndexScheme(ctx context.Context, scheme *models.Scheme) error {
	doc, err := json.Marshal(scheme)
	if err != nil {
		return stderrors.NewSearchQueryFailedError(err)
	}

	req := esapi.IndexRequest{
		Index:      s.index,
		DocumentID: scheme.ID,
		Body:       bytes.NewReader(doc),
		Refresh:    "false",
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return stderrors.NewSearchQueryFailedError(err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return stderrors.NewSearchQueryFailedError(fmt.Errorf("index returned %s", res.Status()))
	}
	return nil
}

func buildSchemeSearchQuery(q SearchQuery) map[string]interface{} {
	mustClauses := []interface{}{}
	filterClauses := []interface{}{}

	if q.Keywords != "" {
		mustClauses = append(mustClauses, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  q.Keywords,
				"fields": []string{"name^3", "description^2", "category"},
				"type":   "best_fields",
			},
		})
	}

	if q.Category != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"category": q.Category},
		})
	}

	// A scheme open in the user's state either lists it or lists no states
	// at all (nationwide).
	if q.State != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"bool": map[string]interface{}{
				"should": []interface{}{
					map[string]interface{}{
						"term": map[string]interface{}{"criteria.states": q.State},
					},
					map[string]interface{}{
						"bool": map[string]interface{}{
							"must_not": map[string]interface{}{
								"exists": map[string]interface{}{"field": "criteria.states"},
							},
						},
					},
				},
				"minimum_should_match": 1,
			},
		})
	}

	boolQuery := map[string]interface{}{}
	if len(mustClauses) > 0 {
		boolQuery["must"] = mustClauses
	}
	if len(filterClauses) > 0 {
		boolQuery["filter"] = filterClauses
	}
	if len(boolQuery) == 0 {
		return map[string]interface{}{
			"query": map[string]interface{}{"match_all": map[string]interface{}{}},
		}
	}
	return map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
	}
}
