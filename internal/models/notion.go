package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ResultSet is a paginated Notion list response. results and has_more are
// required; a response without them fails with ErrDecode.
type ResultSet[T any] struct {
	Object     string  `json:"object"`
	Results    []T     `json:"results"`
	NextCursor *string `json:"next_cursor"`
	HasMore    bool    `json:"has_more"`
}

func (r *ResultSet[T]) UnmarshalJSON(data []byte) error {
	var raw struct {
		Object     string           `json:"object"`
		Results    *json.RawMessage `json:"results"`
		NextCursor *string          `json:"next_cursor"`
		HasMore    *bool            `json:"has_more"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if raw.Results == nil || raw.HasMore == nil {
		return fmt.Errorf("%w: list response is missing results or has_more", ErrDecode)
	}

	var results []T
	if err := json.Unmarshal(*raw.Results, &results); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}

	r.Object = raw.Object
	r.Results = results
	r.NextCursor = raw.NextCursor
	r.HasMore = *raw.HasMore
	return nil
}

type RichTextDTO struct {
	Type      string   `json:"type"`
	PlainText string   `json:"plain_text"`
	Href      *string  `json:"href,omitempty"`
	Text      *TextDTO `json:"text,omitempty"`
}

type TextDTO struct {
	Content string  `json:"content"`
	Link    *string `json:"link,omitempty"`
}

func JoinPlainText(runs []RichTextDTO) string {
	var b strings.Builder
	for _, run := range runs {
		b.WriteString(run.PlainText)
	}
	return b.String()
}

// DatabaseDTO is a database object returned by the search endpoint.
type DatabaseDTO struct {
	Object         string                 `json:"object"`
	ID             string                 `json:"id"`
	CreatedTime    string                 `json:"created_time"`
	LastEditedTime string                 `json:"last_edited_time"`
	Title          []RichTextDTO          `json:"title"`
	Properties     map[string]PropertyDTO `json:"properties"`
}

func (d DatabaseDTO) PlainTitle() string {
	return JoinPlainText(d.Title)
}

type PropertyDTO struct {
	ID          string            `json:"id"`
	Type        string            `json:"type"`
	Select      *SelectFieldDTO   `json:"select,omitempty"`
	MultiSelect *SelectFieldDTO   `json:"multi_select,omitempty"`
	Relation    *RelationFieldDTO `json:"relation,omitempty"`
}

type SelectFieldDTO struct {
	Options []SelectOptionDTO `json:"options"`
}

type SelectOptionDTO struct {
	ID    *string `json:"id,omitempty"`
	Name  string  `json:"name"`
	Color string  `json:"color,omitempty"`
}

// Option converts the remote option, using its name as id when the id is
// absent.
func (o SelectOptionDTO) Option() Option {
	id := o.Name
	if o.ID != nil {
		id = *o.ID
	}
	return Option{OptionID: id, Label: o.Name}
}

type RelationFieldDTO struct {
	DatabaseID         string `json:"database_id"`
	SyncedPropertyName string `json:"synced_property_name,omitempty"`
	SyncedPropertyID   string `json:"synced_property_id,omitempty"`
}

// PageDTO is a page (record) returned by a database query.
type PageDTO struct {
	Object         string                     `json:"object"`
	ID             string                     `json:"id"`
	CreatedTime    string                     `json:"created_time"`
	LastEditedTime string                     `json:"last_edited_time"`
	Icon           *IconDTO                   `json:"icon,omitempty"`
	Properties     map[string]PagePropertyDTO `json:"properties"`
}

type IconDTO struct {
	Type     string       `json:"type"`
	Emoji    *string      `json:"emoji,omitempty"`
	External *ExternalURL `json:"external,omitempty"`
}

type ExternalURL struct {
	URL string `json:"url"`
}

type PagePropertyDTO struct {
	ID    string        `json:"id"`
	Type  string        `json:"type"`
	Title []RichTextDTO `json:"title,omitempty"`
}

// PageResponse is returned when a page is created.
type PageResponse struct {
	Object         string `json:"object"`
	ID             string `json:"id"`
	CreatedTime    string `json:"created_time"`
	LastEditedTime string `json:"last_edited_time"`
	Archived       bool   `json:"archived"`
	URL            string `json:"url"`
}

// Database is the id and title of a database the integration can write to.
type Database struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
