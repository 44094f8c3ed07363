package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"sync"

	"github.com/Nexo-Labs/SyncTionNotion/internal/models"
)

type SchemaCache interface {
	Get(ctx context.Context, databaseID string) ([]models.PropertyDescriptor, bool)
	Set(ctx context.Context, databaseID string, columns []models.PropertyDescriptor) error
	Clear(ctx context.Context)
}

type InMemorySchemaCache struct {
	mu    sync.RWMutex
	cache map[string][]models.PropertyDescriptor
}

func NewInMemorySchemaCache() *InMemorySchemaCache {
	return &InMemorySchemaCache{
		cache: make(map[string][]models.PropertyDescriptor),
	}
}

func (c *InMemorySchemaCache) Get(ctx context.Context, databaseID string) ([]models.PropertyDescriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	columns, ok := c.cache[databaseID]
	if !ok {
		return nil, false
	}

	result := make([]models.PropertyDescriptor, len(columns))
	copy(result, columns)
	return result, true
}

func (c *InMemorySchemaCache) Set(ctx context.Context, databaseID string, columns []models.PropertyDescriptor) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := make([]models.PropertyDescriptor, len(columns))
	copy(stored, columns)
	c.cache[databaseID] = stored
	return nil
}

func (c *InMemorySchemaCache) Clear(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.cache)
}

// Fingerprint identifies a database schema independent of column order.
// Saved form templates are reused only while the fingerprint matches.
func Fingerprint(columns []models.PropertyDescriptor) string {
	type columnData struct {
		ID       string   `json:"id"`
		Name     string   `json:"name"`
		Kind     string   `json:"kind"`
		Options  []string `json:"options,omitempty"`
		LinkedDB *string  `json:"linkedDb,omitempty"`
	}

	data := make([]columnData, len(columns))
	for i, col := range columns {
		options := make([]string, len(col.Options))
		for j, option := range col.Options {
			options[j] = option.OptionID + "=" + option.Label
		}
		sort.Strings(options)

		data[i] = columnData{
			ID:       col.ExternalID,
			Name:     col.Name,
			Kind:     col.Kind.String(),
			Options:  options,
			LinkedDB: col.LinkedDatabaseID,
		}
	}

	sort.Slice(data, func(i, j int) bool {
		if data[i].Name != data[j].Name {
			return data[i].Name < data[j].Name
		}
		return data[i].ID < data[j].ID
	})

	jsonBytes, _ := json.Marshal(data)
	hash := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(hash[:])
}
