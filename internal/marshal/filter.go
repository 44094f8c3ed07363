package marshal

import "github.com/Nexo-Labs/SyncTionNotion/internal/models"

const (
	objectProperty = "object"
	databaseObject = "database"
	titleProperty  = "title"
)

// BuildSearchFilter returns a "title contains" filter for a query, or the
// filter listing databases when query is nil.
func BuildSearchFilter(query *string) models.FilterBody {
	if query == nil {
		value := databaseObject
		return models.FilterBody{
			Filter: models.Filter{Property: objectProperty, Value: &value},
		}
	}
	return models.FilterBody{
		Filter: models.Filter{
			Property: titleProperty,
			Title:    &models.TitleFilter{Contains: *query},
		},
	}
}
