package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type SecretDB struct {
	bun.BaseModel `bun:"table:integration_secrets,alias:s"`

	IntegrationID uuid.UUID `bun:"integration_id,pk,type:uuid" json:"integration_id"`
	Secret        string    `bun:"secret,notnull" json:"-"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

type FormTemplateDB struct {
	bun.BaseModel `bun:"table:form_templates,alias:ft"`

	IntegrationID uuid.UUID `bun:"integration_id,pk,type:uuid" json:"integration_id"`
	DatabaseID    string    `bun:"database_id,pk" json:"database_id"`
	Owner         string    `bun:"owner,pk" json:"owner"`
	Fingerprint   string    `bun:"fingerprint,notnull" json:"fingerprint"`
	Inputs        Inputs    `bun:"inputs,type:jsonb,notnull" json:"inputs"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

func (t *FormTemplateDB) ToFormTemplate() *FormTemplate {
	return &FormTemplate{
		IntegrationID: t.IntegrationID,
		DatabaseID:    t.DatabaseID,
		Owner:         t.Owner,
		Fingerprint:   t.Fingerprint,
		Inputs:        t.Inputs,
		UpdatedAt:     t.UpdatedAt,
	}
}

func FormTemplateFromApp(template *FormTemplate) *FormTemplateDB {
	return &FormTemplateDB{
		IntegrationID: template.IntegrationID,
		DatabaseID:    template.DatabaseID,
		Owner:         template.Owner,
		Fingerprint:   template.Fingerprint,
		Inputs:        template.Inputs,
		UpdatedAt:     template.UpdatedAt,
	}
}

type SubmissionDB struct {
	bun.BaseModel `bun:"table:submissions,alias:sub"`

	ID            uuid.UUID            `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	IntegrationID uuid.UUID            `bun:"integration_id,type:uuid,notnull" json:"integration_id"`
	DatabaseID    string               `bun:"database_id,notnull" json:"database_id"`
	PageID        string               `bun:"page_id,notnull" json:"page_id"`
	PageURL       string               `bun:"page_url" json:"page_url"`
	SubmittedBy   string               `bun:"submitted_by" json:"submitted_by"`
	Properties    map[string]ValueBody `bun:"properties,type:jsonb" json:"properties"`
	CreatedAt     time.Time            `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

func (s *SubmissionDB) ToSubmission() *Submission {
	return &Submission{
		ID:            s.ID,
		IntegrationID: s.IntegrationID,
		DatabaseID:    s.DatabaseID,
		PageID:        s.PageID,
		PageURL:       s.PageURL,
		SubmittedBy:   s.SubmittedBy,
		Properties:    s.Properties,
		CreatedAt:     s.CreatedAt,
	}
}

func SubmissionFromApp(submission *Submission) *SubmissionDB {
	return &SubmissionDB{
		ID:            submission.ID,
		IntegrationID: submission.IntegrationID,
		DatabaseID:    submission.DatabaseID,
		PageID:        submission.PageID,
		PageURL:       submission.PageURL,
		SubmittedBy:   submission.SubmittedBy,
		Properties:    submission.Properties,
		CreatedAt:     submission.CreatedAt,
	}
}
