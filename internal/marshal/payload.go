package marshal

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/Nexo-Labs/SyncTionNotion/internal/models"
	"github.com/rs/zerolog/log"
)

// BuildWritePayload converts a filled form into a page creation payload. The
// template tagged with databaseFieldTag supplies the parent database and is
// never written as a property. Templates whose value cannot be represented
// are left out.
func BuildWritePayload(templates []models.InputTemplate, databaseFieldTag models.Tag) (models.PageBody, error) {
	databaseID, err := targetDatabase(templates, databaseFieldTag)
	if err != nil {
		return models.PageBody{}, err
	}

	properties := make(map[string]models.ValueBody, len(templates))
	for _, template := range templates {
		header := template.TemplateHeader()
		if header.Tags.Has(databaseFieldTag) {
			continue
		}

		body := Encode(template)
		if !body.IsValid() {
			continue
		}
		if _, exists := properties[header.Name]; exists {
			log.Warn().
				Str("property", header.Name).
				Msg("Duplicate property name, keeping the first value")
			continue
		}
		properties[header.Name] = body
	}

	return models.PageBody{
		Parent:     models.ParentBody{DatabaseID: databaseID},
		Properties: properties,
	}, nil
}

func targetDatabase(templates []models.InputTemplate, databaseFieldTag models.Tag) (string, error) {
	for _, template := range templates {
		if !template.TemplateHeader().Tags.Has(databaseFieldTag) {
			continue
		}
		picker, ok := template.(*models.OptionsTemplate)
		if !ok {
			return "", fmt.Errorf("%w: database field is not an options template", models.ErrMissingTarget)
		}
		selected := picker.Value.Selected()
		if len(selected) == 0 {
			return "", models.ErrMissingTarget
		}
		return selected[0].OptionID, nil
	}
	return "", models.ErrMissingTarget
}

// Encode converts one template into its property value. The result is not
// valid when the template's value does not fit its column kind.
func Encode(template models.InputTemplate) models.ValueBody {
	// A bool has a single property shape whatever column it came from.
	if boolTemplate, ok := template.(*models.BoolTemplate); ok {
		checked := boolTemplate.Value
		return models.ValueBody{Checkbox: &checked}
	}

	kind, ok := models.KindOf(template.TemplateHeader().Tags)
	if !ok {
		return models.ValueBody{}
	}

	switch kind {
	case models.ColumnKindTitle:
		text, ok := textValue(template)
		if !ok {
			return models.ValueBody{}
		}
		return models.ValueBody{Title: models.NewRichText(text)}

	case models.ColumnKindRichText:
		text, ok := textValue(template)
		if !ok || text == "" {
			return models.ValueBody{}
		}
		return models.ValueBody{RichText: models.NewRichText(text)}

	case models.ColumnKindNumber:
		text, ok := textValue(template)
		if !ok {
			return models.ValueBody{}
		}
		number, err := strconv.ParseFloat(text, 64)
		if err != nil || math.IsNaN(number) || math.IsInf(number, 0) {
			return models.ValueBody{}
		}
		return models.ValueBody{Number: &number}

	case models.ColumnKindURL:
		text, ok := textValue(template)
		if !ok || text == "" {
			return models.ValueBody{}
		}
		return models.ValueBody{URL: &text}

	case models.ColumnKindDate:
		rangeTemplate, ok := template.(*models.RangeTemplate)
		if !ok || rangeTemplate.Value.Start == nil {
			return models.ValueBody{}
		}
		date := &models.DateBody{Start: FormatDate(*rangeTemplate.Value.Start)}
		if end := rangeTemplate.Value.End; end != nil {
			formatted := FormatDate(*end)
			date.End = &formatted
		}
		return models.ValueBody{Date: date}

	case models.ColumnKindSelect:
		options, ok := template.(*models.OptionsTemplate)
		if !ok {
			return models.ValueBody{}
		}
		selected := options.Value.Selected()
		if len(selected) == 0 {
			return models.ValueBody{}
		}
		return models.ValueBody{Select: &models.SelectBody{ID: selected[0].OptionID}}

	case models.ColumnKindMultiSelect:
		options, ok := template.(*models.OptionsTemplate)
		if !ok {
			return models.ValueBody{}
		}
		ids := make([]models.SelectBody, 0)
		for _, option := range options.Value.Selected() {
			ids = append(ids, models.SelectBody{ID: option.OptionID})
		}
		return models.ValueBody{MultiSelect: &ids}

	case models.ColumnKindRelation:
		options, ok := template.(*models.OptionsTemplate)
		if !ok {
			return models.ValueBody{}
		}
		ids := make([]models.RelationBody, 0)
		for _, option := range options.Value.Selected() {
			ids = append(ids, models.RelationBody{ID: option.OptionID})
		}
		return models.ValueBody{Relation: &ids}

	default:
		return models.ValueBody{}
	}
}

func textValue(template models.InputTemplate) (string, bool) {
	switch t := template.(type) {
	case *models.TextTemplate:
		return t.Value, true
	case *models.NumberTemplate:
		return t.Value, true
	default:
		return "", false
	}
}

// FormatDate renders t as an ISO-8601 timestamp in UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// EncodePageBody serializes a payload, failing when nothing would be sent.
func EncodePageBody(body models.PageBody) ([]byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrTransformation, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty page body", models.ErrTransformation)
	}
	return data, nil
}
