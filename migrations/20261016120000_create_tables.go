package migrations

import (
	"context"
	"fmt"

	"github.com/Nexo-Labs/SyncTionNotion/internal/models"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		tables := []any{
			(*models.SecretDB)(nil),
			(*models.FormTemplateDB)(nil),
			(*models.SubmissionDB)(nil),
		}
		for _, model := range tables {
			if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
				return fmt.Errorf("failed to create table: %w", err)
			}
		}

		_, err := db.NewCreateIndex().
			Model((*models.SubmissionDB)(nil)).
			Index("submissions_integration_created_idx").
			Column("integration_id", "created_at").
			IfNotExists().
			Exec(ctx)
		return err
	}, func(ctx context.Context, db *bun.DB) error {
		tables := []any{
			(*models.SubmissionDB)(nil),
			(*models.FormTemplateDB)(nil),
			(*models.SecretDB)(nil),
		}
		for _, model := range tables {
			if _, err := db.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
				return fmt.Errorf("failed to drop table: %w", err)
			}
		}
		return nil
	})
}
