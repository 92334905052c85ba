package application

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/astroconnect/astroconnect-api/internal/domain/entity"
	"github.com/astroconnect/astroconnect-api/pkg/apperr"
)

// UserSearch mirrors user profiles into Elasticsearch for the admin search
// endpoint. Indexing is best effort; the store stays the source of truth.
type UserSearch struct {
	ES     *elasticsearch.Client
	IndexName string
	Logger *logrus.Logger
}

func NewUserSearch(es *elasticsearch.Client, index string, logger *logrus.Logger) *UserSearch {
	return &UserSearch{ES: es, IndexName: index, Logger: logger}
}

// Index upserts the user's public profile document. Failures are logged and
// swallowed; registration must not depend on the search cluster.
func (s *UserSearch) Index(ctx context.Context, u *entity.User) {
	if s == nil || s.ES == nil || s.IndexName == "" {
		return
	}
	doc := map[string]any{
		"id":          u.ID,
		"email":       u.Email,
		"name":        u.Name,
		"role":        u.Role,
		"zodiac_sign": u.ZodiacSign,
		"created_at":  u.CreatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.IndexName, DocumentID: u.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Warn("es index failed")
		}
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("user_id", u.ID).Warn("es index response error")
	}
}

// Query performs a multi_match over email and name.
func (s *UserSearch) Query(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s == nil || s.ES == nil || s.IndexName == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"email^2", "name"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(s.ES.Search.WithContext(c), s.ES.Search.WithIndex(s.IndexName), s.ES.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Internal server error", err)
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Internal server error", err)
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
