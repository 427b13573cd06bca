package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"zozotech/internal/domain/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

type SettingsRepo struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

func NewSettingsRepo(db *pgxpool.Pool) *SettingsRepo {
	return &SettingsRepo{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetSettings returns nil when the singleton row has not been written yet.
func (r *SettingsRepo) GetSettings(ctx context.Context) (*models.SiteSettings, error) {
	const op = "repository.SettingsRepo.GetSettings"

	query, args, err := r.sb.Select(
		"site_name",
		"whatsapp_number",
		"whatsapp_message",
		"currency",
		"navbar_logo_url",
		"favicon_url",
		"clients",
		"updated_at",
	).
		From("settings").
		Where(squirrel.Eq{"id": models.SiteSettingsID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var (
		s       models.SiteSettings
		clients []byte
	)

	err = r.db.QueryRow(ctx, query, args...).Scan(
		&s.SiteName,
		&s.WhatsappNumber,
		&s.WhatsappMessage,
		&s.Currency,
		&s.NavbarLogoURL,
		&s.FaviconURL,
		&clients,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if len(clients) > 0 {
		if err := json.Unmarshal(clients, &s.Clients); err != nil {
			return nil, fmt.Errorf("%s: decode clients: %w", op, err)
		}
	}
	if s.Clients == nil {
		s.Clients = []models.ClientLogo{}
	}

	return &s, nil
}

// UpsertSettings writes the singleton row.
func (r *SettingsRepo) UpsertSettings(ctx context.Context, s models.SiteSettings) error {
	const op = "repository.SettingsRepo.UpsertSettings"

	clients := s.Clients
	if clients == nil {
		clients = []models.ClientLogo{}
	}

	raw, err := json.Marshal(clients)
	if err != nil {
		return fmt.Errorf("%s: encode clients: %w", op, err)
	}

	query, args, err := r.sb.Insert("settings").
		Columns(
			"id",
			"site_name",
			"whatsapp_number",
			"whatsapp_message",
			"currency",
			"navbar_logo_url",
			"favicon_url",
			"clients",
		).
		Values(
			models.SiteSettingsID,
			s.SiteName,
			nullIfEmpty(s.WhatsappNumber),
			nullIfEmpty(s.WhatsappMessage),
			s.Currency,
			s.NavbarLogoURL,
			nullIfEmpty(s.FaviconURL),
			string(raw),
		).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			site_name = EXCLUDED.site_name,
			whatsapp_number = EXCLUDED.whatsapp_number,
			whatsapp_message = EXCLUDED.whatsapp_message,
			currency = EXCLUDED.currency,
			navbar_logo_url = EXCLUDED.navbar_logo_url,
			favicon_url = EXCLUDED.favicon_url,
			clients = EXCLUDED.clients,
			updated_at = NOW()`).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// InsertDefaults writes s only if no settings row exists yet.
func (r *SettingsRepo) InsertDefaults(ctx context.Context, s models.SiteSettings) error {
	const op = "repository.SettingsRepo.InsertDefaults"

	query, args, err := r.sb.Insert("settings").
		Columns("id", "site_name", "whatsapp_message", "currency", "navbar_logo_url").
		Values(models.SiteSettingsID, s.SiteName, nullIfEmpty(s.WhatsappMessage), s.Currency, s.NavbarLogoURL).
		Suffix("ON CONFLICT (id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
