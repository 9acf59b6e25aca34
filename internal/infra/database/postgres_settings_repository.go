package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"family_schedule_bot/internal/domain/settings"
)

// PostgresSettingsRepository stores the single system_config row.
type PostgresSettingsRepository struct {
	db *sql.DB
}

func NewPostgresSettingsRepository(db *sql.DB) *PostgresSettingsRepository {
	return &PostgresSettingsRepository{db: db}
}

func (r *PostgresSettingsRepository) Get(ctx context.Context) (*settings.SystemConfig, error) {
	query := `SELECT group_chat_id, admin_user_id, timezone, updated_at FROM system_config WHERE id = 1`
	cfg := &settings.SystemConfig{}
	err := r.db.QueryRowContext(ctx, query).Scan(&cfg.GroupChatID, &cfg.AdminUserID, &cfg.Timezone, &cfg.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, settings.ErrNotFound
		}
		return nil, fmt.Errorf("error getting system config: %w", err)
	}
	return cfg, nil
}

func (r *PostgresSettingsRepository) Save(ctx context.Context, cfg *settings.SystemConfig) error {
	query := `INSERT INTO system_config (id, group_chat_id, admin_user_id, timezone, updated_at)
               VALUES (1, $1, $2, $3, $4)
               ON CONFLICT (id) DO UPDATE
               SET group_chat_id = EXCLUDED.group_chat_id, admin_user_id = EXCLUDED.admin_user_id,
                   timezone = EXCLUDED.timezone, updated_at = EXCLUDED.updated_at`

	if _, err := r.db.ExecContext(ctx, query, cfg.GroupChatID, cfg.AdminUserID, cfg.Timezone, cfg.UpdatedAt); err != nil {
		return fmt.Errorf("error saving system config: %w", err)
	}
	return nil
}
