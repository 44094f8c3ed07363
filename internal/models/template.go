package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type TemplateKind string

const (
	TemplateKindText    TemplateKind = "text"
	TemplateKindNumber  TemplateKind = "number"
	TemplateKindRange   TemplateKind = "range"
	TemplateKindBool    TemplateKind = "bool"
	TemplateKindOptions TemplateKind = "options"
)

// Header holds the fields shared by every input template.
type Header struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Icon string    `json:"icon"`
	Tags TagSet    `json:"tags"`
}

func NewHeader(name, icon string, tags TagSet) Header {
	return Header{
		ID:   uuid.New(),
		Name: name,
		Icon: icon,
		Tags: tags,
	}
}

// InputTemplate is a renderer-agnostic description of one form field.
type InputTemplate interface {
	TemplateHeader() Header
	Kind() TemplateKind
}

type TextTemplate struct {
	Header Header `json:"header"`
	Value  string `json:"value"`
}

// NumberTemplate keeps the raw text typed by the user; it is parsed when
// the form is written.
type NumberTemplate struct {
	Header Header `json:"header"`
	Value  string `json:"value"`
}

type DateRange struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

type RangeTemplate struct {
	Header Header    `json:"header"`
	Value  DateRange `json:"value"`
}

type BoolTemplate struct {
	Header Header `json:"header"`
	Value  bool   `json:"value"`
}

// Editable is a configuration value together with whether the user may
// change it.
type Editable[T any] struct {
	Value    T    `json:"value"`
	Constant bool `json:"constant"`
}

func Constant[T any](value T) Editable[T] {
	return Editable[T]{Value: value, Constant: true}
}

func Variable[T any](value T) Editable[T] {
	return Editable[T]{Value: value}
}

type OptionsConfig struct {
	Mandatory       Editable[bool] `json:"mandatory"`
	SingleSelection Editable[bool] `json:"singleSelection"`
	TypingSearch    Editable[bool] `json:"typingSearch"`
	TargetID        *string        `json:"targetId,omitempty"`
}

type OptionsTemplate struct {
	Header Header        `json:"header"`
	Config OptionsConfig `json:"config"`
	Value  Options       `json:"value"`
	Search string        `json:"search"`
}

// Load replaces the template's option list.
func (t *OptionsTemplate) Load(options []Option, keepSelected bool) {
	t.Value.Load(options, keepSelected)
}

func (t *TextTemplate) TemplateHeader() Header    { return t.Header }
func (t *NumberTemplate) TemplateHeader() Header  { return t.Header }
func (t *RangeTemplate) TemplateHeader() Header   { return t.Header }
func (t *BoolTemplate) TemplateHeader() Header    { return t.Header }
func (t *OptionsTemplate) TemplateHeader() Header { return t.Header }

func (t *TextTemplate) Kind() TemplateKind    { return TemplateKindText }
func (t *NumberTemplate) Kind() TemplateKind  { return TemplateKindNumber }
func (t *RangeTemplate) Kind() TemplateKind   { return TemplateKindRange }
func (t *BoolTemplate) Kind() TemplateKind    { return TemplateKindBool }
func (t *OptionsTemplate) Kind() TemplateKind { return TemplateKindOptions }

// Inputs is an ordered list of templates with a JSON encoding that keeps the
// concrete template kind.
type Inputs []InputTemplate

type inputEnvelope struct {
	Type     TemplateKind    `json:"type"`
	Template json.RawMessage `json:"template"`
}

func (in Inputs) MarshalJSON() ([]byte, error) {
	envelopes := make([]json.RawMessage, 0, len(in))
	for _, input := range in {
		raw, err := MarshalInput(input)
		if err != nil {
			return nil, err
		}
		envelopes = append(envelopes, raw)
	}
	return json.Marshal(envelopes)
}

func (in *Inputs) UnmarshalJSON(data []byte) error {
	var envelopes []json.RawMessage
	if err := json.Unmarshal(data, &envelopes); err != nil {
		return err
	}

	inputs := make(Inputs, 0, len(envelopes))
	for i, raw := range envelopes {
		input, err := UnmarshalInput(raw)
		if err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}
		inputs = append(inputs, input)
	}
	*in = inputs
	return nil
}

// MarshalInput encodes a single template together with its kind.
func MarshalInput(input InputTemplate) ([]byte, error) {
	raw, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s template: %w", input.Kind(), err)
	}
	return json.Marshal(inputEnvelope{Type: input.Kind(), Template: raw})
}

// UnmarshalInput decodes a template written by MarshalInput.
func UnmarshalInput(data []byte) (InputTemplate, error) {
	var envelope inputEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}
	input, err := newTemplate(envelope.Type)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(envelope.Template, input); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s template: %w", envelope.Type, err)
	}
	return input, nil
}

func newTemplate(kind TemplateKind) (InputTemplate, error) {
	switch kind {
	case TemplateKindText:
		return &TextTemplate{}, nil
	case TemplateKindNumber:
		return &NumberTemplate{}, nil
	case TemplateKindRange:
		return &RangeTemplate{}, nil
	case TemplateKindBool:
		return &BoolTemplate{}, nil
	case TemplateKindOptions:
		return &OptionsTemplate{}, nil
	default:
		return nil, fmt.Errorf("unknown template type %q", kind)
	}
}

// FirstTagged returns the first template whose header carries tag.
func (in Inputs) FirstTagged(tag Tag) (InputTemplate, bool) {
	for _, input := range in {
		if input.TemplateHeader().Tags.Has(tag) {
			return input, true
		}
	}
	return nil, false
}

// Index returns the position of the template with the given id, or -1.
func (in Inputs) Index(id uuid.UUID) int {
	for i, input := range in {
		if input.TemplateHeader().ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the list.
func (in Inputs) Clone() (Inputs, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	var cloned Inputs
	if err := json.Unmarshal(data, &cloned); err != nil {
		return nil, err
	}
	return cloned, nil
}
