package schema

import (
	"github.com/Nexo-Labs/SyncTionNotion/internal/models"
	"github.com/rs/zerolog/log"
)

// Descriptors extracts the column descriptors of a database. Columns of an
// unsupported type are dropped.
func Descriptors(database models.DatabaseDTO) []models.PropertyDescriptor {
	descriptors := make([]models.PropertyDescriptor, 0, len(database.Properties))
	for name, property := range database.Properties {
		descriptor, ok := Describe(name, property)
		if !ok {
			log.Debug().
				Str("databaseID", database.ID).
				Str("column", name).
				Str("type", property.Type).
				Msg("Dropping column with unsupported type")
			continue
		}
		descriptors = append(descriptors, descriptor)
	}
	return descriptors
}

// Describe converts a single remote column.
func Describe(name string, property models.PropertyDTO) (models.PropertyDescriptor, bool) {
	kind, ok := models.ParseColumnKind(property.Type)
	if !ok {
		return models.PropertyDescriptor{}, false
	}

	descriptor := models.PropertyDescriptor{
		ExternalID: property.ID,
		Name:       name,
		Kind:       kind,
	}

	switch kind {
	case models.ColumnKindSelect:
		descriptor.Options = convertOptions(property.Select)
	case models.ColumnKindMultiSelect:
		descriptor.Options = convertOptions(property.MultiSelect)
	case models.ColumnKindRelation:
		if property.Relation != nil && property.Relation.DatabaseID != "" {
			id := property.Relation.DatabaseID
			descriptor.LinkedDatabaseID = &id
		}
	}

	return descriptor, true
}

func convertOptions(field *models.SelectFieldDTO) []models.Option {
	if field == nil {
		return nil
	}
	options := make([]models.Option, 0, len(field.Options))
	for _, option := range field.Options {
		options = append(options, option.Option())
	}
	return options
}

// DatabasePicker builds the synthetic field used to choose the target
// database. It is tagged so the marshaller leaves it out of the payload.
func DatabasePicker(name string) *models.OptionsTemplate {
	return &models.OptionsTemplate{
		Header: models.NewHeader(name, "tray.2", models.NewTagSet(models.TagDatabasesField)),
		Config: models.OptionsConfig{
			Mandatory:       models.Constant(true),
			SingleSelection: models.Constant(true),
			TypingSearch:    models.Variable(true),
		},
		Value: models.Options{Options: []models.Option{}, SingleSelection: true},
	}
}
