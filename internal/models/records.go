package models

import (
	"time"

	"github.com/google/uuid"
)

// FormTemplate is the last imported form of a database, kept so its values
// are offered as defaults the next time the database is picked. Owner is the
// user the defaults belong to; empty when the API runs without
// authentication.
type FormTemplate struct {
	IntegrationID uuid.UUID `json:"integrationId"`
	DatabaseID    string    `json:"databaseId"`
	Owner         string    `json:"owner,omitempty"`
	Fingerprint   string    `json:"fingerprint"`
	Inputs        Inputs    `json:"inputs"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Submission records a page written to Notion.
type Submission struct {
	ID            uuid.UUID            `json:"id"`
	IntegrationID uuid.UUID            `json:"integrationId"`
	DatabaseID    string               `json:"databaseId"`
	PageID        string               `json:"pageId"`
	PageURL       string               `json:"pageUrl"`
	// SubmittedBy is the authenticated user that sent the form, if any.
	SubmittedBy   string               `json:"submittedBy,omitempty"`
	Properties    map[string]ValueBody `json:"properties"`
	CreatedAt     time.Time            `json:"createdAt"`
}
