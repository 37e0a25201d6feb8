package station

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"
	"pera.com/perasystem/internal/entity"
)

const searchIndex = "stations"

// SearchIndex is the full-text station index.
type SearchIndex interface {
	Index(stations ...*entity.Station) error
	Search(query string, limit int) ([]uuid.UUID, error)
}

type meiliIndex struct {
	client meilisearch.ServiceManager
	logger *zap.Logger
}

type stationDoc struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Code     string `json:"code"`
	Type     string `json:"type"`
	City     string `json:"city"`
	District string `json:"district"`
	Province string `json:"province"`
	IsActive bool   `json:"is_active"`
}

func NewMeiliIndex(client meilisearch.ServiceManager, logger *zap.Logger) SearchIndex {
	idx := &meiliIndex{client: client, logger: logger}
	idx.initIndex()
	return idx
}

func (m *meiliIndex) initIndex() {
	searchable := []string{"name", "code", "city", "district"}
	if _, err := m.client.Index(searchIndex).UpdateSearchableAttributes(&searchable); err != nil {
		m.logger.Warn("failed to update station searchable attributes", zap.Error(err))
	}

	filterable := []any{"type", "province", "is_active"}
	if _, err := m.client.Index(searchIndex).UpdateFilterableAttributes(&filterable); err != nil {
		m.logger.Warn("failed to update station filterable attributes", zap.Error(err))
	}
}

func (m *meiliIndex) Index(stations ...*entity.Station) error {
	if len(stations) == 0 {
		return nil
	}
	docs := make([]stationDoc, 0, len(stations))
	for _, s := range stations {
		docs = append(docs, toDoc(s))
	}

	task, err := m.client.Index(searchIndex).AddDocuments(docs, strPtr("id"))
	if err != nil {
		return fmt.Errorf("failed to index stations: %w", err)
	}
	m.logger.Debug("stations queued for indexing", zap.Int("count", len(docs)), zap.Int64("task_uid", task.TaskUID))
	return nil
}

func (m *meiliIndex) Search(query string, limit int) ([]uuid.UUID, error) {
	raw, err := m.client.Index(searchIndex).SearchRaw(query, &meilisearch.SearchRequest{
		Limit:                int64(limit),
		AttributesToRetrieve: []string{"id"},
	})
	if err != nil {
		return nil, fmt.Errorf("station search failed: %w", err)
	}
	return decodeHitIDs(*raw)
}

func decodeHitIDs(raw []byte) ([]uuid.UUID, error) {
	var res struct {
		Hits []struct {
			ID string `json:"id"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("failed to decode search hits: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(res.Hits))
	for _, h := range res.Hits {
		id, err := uuid.Parse(h.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func toDoc(s *entity.Station) stationDoc {
	return stationDoc{
		ID:       s.ID.String(),
		Name:     s.Name,
		Code:     s.Code,
		Type:     s.Type,
		City:     strings.TrimSpace(s.Address.City),
		District: strings.TrimSpace(s.Address.District),
		Province: s.Address.Province,
		IsActive: s.IsActive,
	}
}

func strPtr(s string) *string {
	return &s
}
