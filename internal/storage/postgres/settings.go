package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/karuwa-takeaway/internal/domain/settings"
)

const (
	getSiteSettingsSQL = `SELECT content FROM site_settings WHERE id = 1`

	upsertSiteSettingsSQL = `INSERT INTO site_settings (id, content) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET content = EXCLUDED.content`

	getEmailSettingsSQL = `SELECT smtp_host, smtp_port, smtp_user, smtp_password,
		restaurant_name, restaurant_email, staff_emails, send_customer_emails, send_staff_emails
		FROM email_settings WHERE id = 1`

	upsertEmailSettingsSQL = `INSERT INTO email_settings (id, smtp_host, smtp_port, smtp_user,
		smtp_password, restaurant_name, restaurant_email, staff_emails, send_customer_emails, send_staff_emails)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			smtp_host = EXCLUDED.smtp_host,
			smtp_port = EXCLUDED.smtp_port,
			smtp_user = EXCLUDED.smtp_user,
			smtp_password = EXCLUDED.smtp_password,
			restaurant_name = EXCLUDED.restaurant_name,
			restaurant_email = EXCLUDED.restaurant_email,
			staff_emails = EXCLUDED.staff_emails,
			send_customer_emails = EXCLUDED.send_customer_emails,
			send_staff_emails = EXCLUDED.send_staff_emails`
)

var _ settings.Repository = (*SettingsRepository)(nil)

// SettingsRepository implements settings.Repository backed by PostgreSQL.
// Both records are singletons; reads before the first save return defaults.
type SettingsRepository struct {
	pool *pgxpool.Pool
}

// NewSettingsRepository returns a SettingsRepository that uses the given pool.
func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

// GetSite returns the stored site content, or defaults when nothing has been
// saved yet.
func (r *SettingsRepository) GetSite(ctx context.Context) (*settings.Site, error) {
	var content []byte
	err := r.pool.QueryRow(ctx, getSiteSettingsSQL).Scan(&content)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return settings.DefaultSite(), nil
		}
		return nil, fmt.Errorf("getting site settings: %w", err)
	}

	var s settings.Site
	if err := json.Unmarshal(content, &s); err != nil {
		return nil, fmt.Errorf("decoding site settings: %w", err)
	}
	return &s, nil
}

// UpdateSite replaces the stored site content.
func (r *SettingsRepository) UpdateSite(ctx context.Context, s *settings.Site) error {
	content, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding site settings: %w", err)
	}
	if _, err := r.pool.Exec(ctx, upsertSiteSettingsSQL, content); err != nil {
		return fmt.Errorf("updating site settings: %w", err)
	}
	return nil
}

// GetEmailSettings returns the stored email configuration, or defaults when
// nothing has been saved yet.
func (r *SettingsRepository) GetEmailSettings(ctx context.Context) (*settings.Email, error) {
	var e settings.Email
	err := r.pool.QueryRow(ctx, getEmailSettingsSQL).Scan(
		&e.SMTPHost, &e.SMTPPort, &e.SMTPUser, &e.SMTPPassword,
		&e.RestaurantName, &e.RestaurantEmail, &e.StaffEmails,
		&e.SendCustomerEmails, &e.SendStaffEmails,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return settings.DefaultEmail(), nil
		}
		return nil, fmt.Errorf("getting email settings: %w", err)
	}
	return &e, nil
}

// UpdateEmailSettings replaces the stored email configuration.
func (r *SettingsRepository) UpdateEmailSettings(ctx context.Context, e *settings.Email) error {
	_, err := r.pool.Exec(ctx, upsertEmailSettingsSQL,
		e.SMTPHost, e.SMTPPort, e.SMTPUser, e.SMTPPassword,
		e.RestaurantName, e.RestaurantEmail, e.StaffEmails,
		e.SendCustomerEmails, e.SendStaffEmails,
	)
	if err != nil {
		return fmt.Errorf("updating email settings: %w", err)
	}
	return nil
}
