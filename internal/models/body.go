package models

import "strings"

// ValueBody is the wire value of one property when a page is created. At
// most one field is set; see IsValid.
type ValueBody struct {
	Title       []RichTextBody  `json:"title,omitempty"`
	RichText    []RichTextBody  `json:"rich_text,omitempty"`
	Number      *float64        `json:"number,omitempty"`
	URL         *string         `json:"url,omitempty"`
	Date        *DateBody       `json:"date,omitempty"`
	Checkbox    *bool           `json:"checkbox,omitempty"`
	Select      *SelectBody     `json:"select,omitempty"`
	MultiSelect *[]SelectBody   `json:"multi_select,omitempty"`
	Relation    *[]RelationBody `json:"relation,omitempty"`
}

func (v ValueBody) populated() int {
	n := 0
	for _, set := range []bool{
		len(v.Title) > 0,
		len(v.RichText) > 0,
		v.Number != nil,
		v.URL != nil,
		v.Date != nil,
		v.Checkbox != nil,
		v.Select != nil,
		v.MultiSelect != nil,
		v.Relation != nil,
	} {
		if set {
			n++
		}
	}
	return n
}

// IsValid reports whether exactly one variant is populated. An explicit
// empty multi-select or relation list counts as populated.
func (v ValueBody) IsValid() bool {
	return v.populated() == 1
}

type TextBody struct {
	Content string `json:"content"`
}

type RichTextBody struct {
	Type string   `json:"type"`
	Text TextBody `json:"text"`
}

func NewRichText(content string) []RichTextBody {
	return []RichTextBody{{Type: "text", Text: TextBody{Content: content}}}
}

// PlainText joins the content of every run.
func PlainText(runs []RichTextBody) string {
	var b strings.Builder
	for _, run := range runs {
		b.WriteString(run.Text.Content)
	}
	return b.String()
}

type DateBody struct {
	Start string  `json:"start"`
	End   *string `json:"end,omitempty"`
}

type SelectBody struct {
	ID   string  `json:"id"`
	Name *string `json:"name,omitempty"`
}

type RelationBody struct {
	ID string `json:"id"`
}

type ParentBody struct {
	DatabaseID string `json:"database_id"`
}

// PageBody is the payload of a page creation request.
type PageBody struct {
	Parent     ParentBody           `json:"parent"`
	Properties map[string]ValueBody `json:"properties"`
}

type TitleFilter struct {
	Contains string `json:"contains"`
}

type Filter struct {
	Property string       `json:"property"`
	Title    *TitleFilter `json:"title,omitempty"`
	Value    *string      `json:"value,omitempty"`
}

// FilterBody is the payload of search and database query requests.
type FilterBody struct {
	Filter      Filter  `json:"filter"`
	StartCursor *string `json:"start_cursor,omitempty"`
}

// WithStartCursor returns a copy of f requesting the page after cursor. An
// empty cursor leaves the body unchanged.
func (f FilterBody) WithStartCursor(cursor string) FilterBody {
	if cursor == "" {
		return f
	}
	f.StartCursor = &cursor
	return f
}
