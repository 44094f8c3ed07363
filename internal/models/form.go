package models

import "github.com/google/uuid"

type Step struct {
	ID     Tag    `json:"id"`
	Name   string `json:"name"`
	IsLast bool   `json:"isLast"`
}

// Form is a form instance: its template metadata plus the current inputs.
type Form struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Icon              string    `json:"icon"`
	IntegrationID     uuid.UUID `json:"integrationId"`
	Inputs            Inputs    `json:"inputs"`
	EntrypointInputID uuid.UUID `json:"entrypointInputId"`
	Steps             []Step    `json:"steps"`
}

// Replace swaps the input with the same id as input. It reports false when
// the form has no such input.
func (f *Form) Replace(input InputTemplate) bool {
	i := f.Inputs.Index(input.TemplateHeader().ID)
	if i < 0 {
		return false
	}
	f.Inputs[i] = input
	return true
}
