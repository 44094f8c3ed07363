package models

// ColumnKind is the closed set of Notion column types the integration can
// read and write.
type ColumnKind uint8

const (
	ColumnKindTitle ColumnKind = iota + 1
	ColumnKindRichText
	ColumnKindNumber
	ColumnKindURL
	ColumnKindDate
	ColumnKindCheckbox
	ColumnKindSelect
	ColumnKindMultiSelect
	ColumnKindRelation
)

var columnKindNames = map[ColumnKind]string{
	ColumnKindTitle:       "title",
	ColumnKindRichText:    "rich_text",
	ColumnKindNumber:      "number",
	ColumnKindURL:         "url",
	ColumnKindDate:        "date",
	ColumnKindCheckbox:    "checkbox",
	ColumnKindSelect:      "select",
	ColumnKindMultiSelect: "multi_select",
	ColumnKindRelation:    "relation",
}

var columnKindsByName = func() map[string]ColumnKind {
	m := make(map[string]ColumnKind, len(columnKindNames))
	for kind, name := range columnKindNames {
		m[name] = kind
	}
	return m
}()

var columnKindTags = map[ColumnKind]Tag{
	ColumnKindTitle:       TagTitle,
	ColumnKindRichText:    TagRichText,
	ColumnKindNumber:      TagNumber,
	ColumnKindURL:         TagURL,
	ColumnKindDate:        TagDate,
	ColumnKindCheckbox:    TagCheckbox,
	ColumnKindSelect:      TagSelect,
	ColumnKindMultiSelect: TagMultiSelect,
	ColumnKindRelation:    TagRelation,
}

// ParseColumnKind maps a Notion property type string to a ColumnKind.
func ParseColumnKind(raw string) (ColumnKind, bool) {
	kind, ok := columnKindsByName[raw]
	return kind, ok
}

// String returns the Notion type string of the kind.
func (k ColumnKind) String() string {
	if name, ok := columnKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether k is one of the supported kinds.
func (k ColumnKind) Valid() bool {
	_, ok := columnKindNames[k]
	return ok
}

// Tag returns the semantic marker attached to templates of this kind.
func (k ColumnKind) Tag() Tag {
	return columnKindTags[k]
}

// KindOf returns the column kind whose marker is present in tags.
func KindOf(tags TagSet) (ColumnKind, bool) {
	for kind := ColumnKindTitle; kind <= ColumnKindRelation; kind++ {
		if tags.Has(kind.Tag()) {
			return kind, true
		}
	}
	return 0, false
}

// PropertyDescriptor is the normalized form of one remote database column.
type PropertyDescriptor struct {
	ExternalID       string     `json:"externalId"`
	Name             string     `json:"name"`
	Kind             ColumnKind `json:"kind"`
	Options          []Option   `json:"options,omitempty"`
	LinkedDatabaseID *string    `json:"linkedDatabaseId,omitempty"`
}
