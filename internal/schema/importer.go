package schema

import (
	"cmp"
	"slices"

	"github.com/Nexo-Labs/SyncTionNotion/internal/models"
)

// InvalidTargetID replaces the linked database id of a relation column that
// arrives without one.
const InvalidTargetID = "INVALID TARGET ID"

var textTags = models.NewTagSet(
	models.TagTitle,
	models.TagRichText,
	models.TagContent,
	models.TagURL,
)

// ImportSchema converts column descriptors into input templates, one per
// column. The title column comes first, then columns by name, then by
// external id.
func ImportSchema(columns []models.PropertyDescriptor) []models.InputTemplate {
	sorted := slices.Clone(columns)
	slices.SortStableFunc(sorted, compareColumns)

	templates := make([]models.InputTemplate, 0, len(sorted))
	for _, column := range sorted {
		templates = append(templates, buildTemplate(column))
	}
	return templates
}

// Import returns the picker followed by the imported column templates.
func Import(picker *models.OptionsTemplate, columns []models.PropertyDescriptor) models.Inputs {
	inputs := models.Inputs{picker}
	return append(inputs, ImportSchema(columns)...)
}

func compareColumns(a, b models.PropertyDescriptor) int {
	aTitle := a.Kind == models.ColumnKindTitle
	bTitle := b.Kind == models.ColumnKindTitle
	if aTitle != bTitle {
		if aTitle {
			return -1
		}
		return 1
	}
	if c := cmp.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return cmp.Compare(a.ExternalID, b.ExternalID)
}

func buildTemplate(column models.PropertyDescriptor) models.InputTemplate {
	kindTag := column.Kind.Tag()
	header := models.NewHeader(
		column.Name,
		kindTag.Icon(),
		models.NewTagSet(kindTag, models.TagDatabaseColumns),
	)

	switch {
	case header.Tags.Intersects(textTags):
		return &models.TextTemplate{Header: header}
	case header.Tags.Has(models.TagNumber):
		return &models.NumberTemplate{Header: header}
	case header.Tags.Has(models.TagDate):
		return &models.RangeTemplate{Header: header}
	case header.Tags.Has(models.TagCheckbox):
		return &models.BoolTemplate{Header: header}
	case header.Tags.Has(models.TagSelect):
		return &models.OptionsTemplate{
			Header: header,
			Config: models.OptionsConfig{
				SingleSelection: models.Constant(true),
				TypingSearch:    models.Constant(false),
			},
			Value: models.Options{Options: sortedOptions(column.Options), SingleSelection: true},
		}
	case header.Tags.Has(models.TagMultiSelect):
		return &models.OptionsTemplate{
			Header: header,
			Config: models.OptionsConfig{
				SingleSelection: models.Constant(false),
				TypingSearch:    models.Constant(false),
			},
			Value: models.Options{Options: sortedOptions(column.Options)},
		}
	case header.Tags.Has(models.TagRelation):
		targetID := InvalidTargetID
		if column.LinkedDatabaseID != nil {
			targetID = *column.LinkedDatabaseID
		}
		return &models.OptionsTemplate{
			Header: header,
			Config: models.OptionsConfig{
				SingleSelection: models.Constant(false),
				TypingSearch:    models.Variable(true),
				TargetID:        &targetID,
			},
			Value: models.Options{Options: []models.Option{}},
		}
	default:
		return &models.TextTemplate{Header: header}
	}
}

func sortedOptions(options []models.Option) []models.Option {
	sorted := slices.Clone(options)
	if sorted == nil {
		sorted = []models.Option{}
	}
	slices.SortStableFunc(sorted, func(a, b models.Option) int {
		return cmp.Compare(a.Label, b.Label)
	})
	return sorted
}
