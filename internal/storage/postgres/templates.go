package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/karuwa-takeaway/internal/domain/notify"
)

const (
	templateColumns = `id, name, subject, html_content, variables, description, active, created_at, updated_at`

	getTemplateSQL = `SELECT ` + templateColumns + ` FROM email_templates WHERE id = $1`

	listTemplatesSQL = `SELECT ` + templateColumns + ` FROM email_templates ORDER BY id`

	updateTemplateSQL = `UPDATE email_templates
		SET name = $1, subject = $2, html_content = $3, variables = $4,
			description = $5, active = $6, updated_at = $7
		WHERE id = $8`
)

var _ notify.TemplateRepository = (*TemplateRepository)(nil)

// TemplateRepository implements notify.TemplateRepository backed by PostgreSQL.
type TemplateRepository struct {
	pool *pgxpool.Pool
}

// NewTemplateRepository returns a TemplateRepository that uses the given pool.
func NewTemplateRepository(pool *pgxpool.Pool) *TemplateRepository {
	return &TemplateRepository{pool: pool}
}

// GetTemplate returns one template by id.
// Returns notify.ErrTemplateNotFound when it does not exist.
func (r *TemplateRepository) GetTemplate(ctx context.Context, id string) (*notify.Template, error) {
	rows, err := r.pool.Query(ctx, getTemplateSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting template %q: %w", id, err)
	}

	t, err := pgx.CollectExactlyOneRow(rows, scanTemplate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notify.ErrTemplateNotFound
		}
		return nil, fmt.Errorf("getting template %q: %w", id, err)
	}
	return &t, nil
}

// ListTemplates returns all templates ordered by id.
func (r *TemplateRepository) ListTemplates(ctx context.Context) ([]notify.Template, error) {
	rows, err := r.pool.Query(ctx, listTemplatesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	return pgx.CollectRows(rows, scanTemplate)
}

// UpdateTemplate rewrites a template record.
// Returns notify.ErrTemplateNotFound when the id does not exist.
func (r *TemplateRepository) UpdateTemplate(ctx context.Context, t *notify.Template) error {
	tag, err := r.pool.Exec(ctx, updateTemplateSQL,
		t.Name, t.Subject, t.HTMLContent, t.Variables,
		t.Description, t.Active, time.Now().UTC(), t.ID,
	)
	if err != nil {
		return fmt.Errorf("updating template %q: %w", t.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return notify.ErrTemplateNotFound
	}
	return nil
}

func scanTemplate(row pgx.CollectableRow) (notify.Template, error) {
	var t notify.Template
	err := row.Scan(
		&t.ID, &t.Name, &t.Subject, &t.HTMLContent, &t.Variables,
		&t.Description, &t.Active, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}
