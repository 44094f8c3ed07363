package records

import (
	"sort"

	"github.com/Nexo-Labs/SyncTionNotion/internal/models"
)

// DefaultIcon is shown for records without an emoji icon.
const DefaultIcon = "📄"

const titleType = "title"

// Summarize turns a search result into a display option. The label is the
// record's emoji followed by the plain text of its title property.
func Summarize(page models.PageDTO) models.Option {
	icon := DefaultIcon
	if page.Icon != nil && page.Icon.Emoji != nil {
		icon = *page.Icon.Emoji
	}

	return models.Option{
		OptionID: page.ID,
		Label:    icon + " " + Title(page),
	}
}

// Title returns the plain text of the property whose type is title, or ""
// when the record has none.
func Title(page models.PageDTO) string {
	names := make([]string, 0, len(page.Properties))
	for name := range page.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		property := page.Properties[name]
		if property.Type == titleType {
			return models.JoinPlainText(property.Title)
		}
	}
	return ""
}

// SummarizeAll summarizes every record in order.
func SummarizeAll(pages []models.PageDTO) []models.Option {
	options := make([]models.Option, 0, len(pages))
	for _, page := range pages {
		options = append(options, Summarize(page))
	}
	return options
}
