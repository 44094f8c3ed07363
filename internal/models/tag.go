package models

import (
	"encoding/json"
	"fmt"
	"math/bits"
	"sort"
)

// Tag is a semantic marker attached to a template header.
type Tag uint8

const (
	TagDatabasesField Tag = iota + 1
	TagDatabaseColumns
	TagTitle
	TagRichText
	TagNumber
	TagURL
	TagDate
	TagCheckbox
	TagSelect
	TagMultiSelect
	TagRelation
	TagContent
)

const lastTag = TagContent

var tagNames = map[Tag]string{
	TagDatabasesField:  "databases-field",
	TagDatabaseColumns: "database-columns",
	TagTitle:           "title",
	TagRichText:        "rich-text",
	TagNumber:          "number",
	TagURL:             "url",
	TagDate:            "date",
	TagCheckbox:        "checkbox",
	TagSelect:          "select",
	TagMultiSelect:     "multi-select",
	TagRelation:        "relation",
	TagContent:         "content",
}

var tagIcons = map[Tag]string{
	TagDate:        "calendar",
	TagCheckbox:    "checkmark.circle",
	TagURL:         "link",
	TagSelect:      "filemenu.and.selection",
	TagMultiSelect: "filemenu.and.selection",
	TagRelation:    "arrow.up.forward.app",
	TagNumber:      "textformat.123",
	TagRichText:    "textformat",
	TagTitle:       "textformat",
	TagContent:     "doc.richtext.fill",
}

func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tag(%d)", uint8(t))
}

// Icon returns the icon hint for a column kind marker.
func (t Tag) Icon() string {
	if icon, ok := tagIcons[t]; ok {
		return icon
	}
	return "clear"
}

func (t Tag) MarshalText() ([]byte, error) {
	name, ok := tagNames[t]
	if !ok {
		return nil, fmt.Errorf("unknown tag %d", uint8(t))
	}
	return []byte(name), nil
}

func (t *Tag) UnmarshalText(text []byte) error {
	for tag, name := range tagNames {
		if name == string(text) {
			*t = tag
			return nil
		}
	}
	return fmt.Errorf("unknown tag %q", text)
}

// TagSet is a set of tags backed by a bit mask.
type TagSet uint32

func NewTagSet(tags ...Tag) TagSet {
	var s TagSet
	for _, tag := range tags {
		s = s.With(tag)
	}
	return s
}

func (s TagSet) With(tag Tag) TagSet {
	return s | 1<<tag
}

func (s TagSet) Has(tag Tag) bool {
	return s&(1<<tag) != 0
}

// Intersects reports whether any tag of other is in s.
func (s TagSet) Intersects(other TagSet) bool {
	return s&other != 0
}

func (s TagSet) Len() int {
	return bits.OnesCount32(uint32(s))
}

func (s TagSet) Tags() []Tag {
	tags := make([]Tag, 0, s.Len())
	for tag := TagDatabasesField; tag <= lastTag; tag++ {
		if s.Has(tag) {
			tags = append(tags, tag)
		}
	}
	return tags
}

func (s TagSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Tags())
}

func (s *TagSet) UnmarshalJSON(data []byte) error {
	var tags []Tag
	if err := json.Unmarshal(data, &tags); err != nil {
		return err
	}
	*s = NewTagSet(tags...)
	return nil
}

// Names is used for log fields.
func (s TagSet) Names() []string {
	names := make([]string, 0, s.Len())
	for _, tag := range s.Tags() {
		names = append(names, tag.String())
	}
	sort.Strings(names)
	return names
}
