package prefs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dealpulse/dealpulse-bot/internal/domain"
)

// PostgresRepository persists profiles in a single users table with jsonb
// preference columns. Optional: deployments that accept volatility run on the
// memory repository instead.
type PostgresRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewPostgresRepository creates a SQL-backed profile repository.
func NewPostgresRepository(db *sql.DB, log *slog.Logger) *PostgresRepository {
	return &PostgresRepository{
		db:  db,
		log: log,
	}
}

// EnsureSchema creates the users table when it does not exist.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS users (
			chat_id       BIGINT PRIMARY KEY,
			display_name  TEXT NOT NULL DEFAULT '',
			language      TEXT NOT NULL DEFAULT 'en',
			last_query    TEXT NOT NULL DEFAULT '',
			favorites     JSONB NOT NULL DEFAULT '{}',
			budget        INTEGER,
			notifications JSONB NOT NULL DEFAULT '{}',
			activity      JSONB NOT NULL DEFAULT '[]',
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`

	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure users schema: %w", err)
	}

	return nil
}

// FindByID retrieves a profile by chat identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, chatID int64) (*domain.User, error) {
	const q = `
		SELECT chat_id, display_name, language, last_query, favorites, budget, notifications, activity, created_at
		FROM users
		WHERE chat_id = $1
	`

	row := r.db.QueryRowContext(ctx, q, chatID)

	var (
		user          domain.User
		language      string
		budget        sql.NullInt64
		favorites     []byte
		notifications []byte
		activity      []byte
	)

	if err := row.Scan(
		&user.ChatID,
		&user.DisplayName,
		&language,
		&user.LastQuery,
		&favorites,
		&budget,
		&notifications,
		&activity,
		&user.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		if r.log != nil {
			r.log.Error("failed to fetch user profile", slog.Int64("chat_id", chatID), slog.Any("error", err))
		}
		return nil, fmt.Errorf("select user profile: %w", err)
	}

	user.Language = domain.Language(language)
	if budget.Valid {
		b := int(budget.Int64)
		user.Budget = &b
	}

	if err := json.Unmarshal(favorites, &user.Favorites); err != nil {
		return nil, fmt.Errorf("decode favorites: %w", err)
	}
	if err := json.Unmarshal(notifications, &user.Notifications); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}
	if err := json.Unmarshal(activity, &user.Activity); err != nil {
		return nil, fmt.Errorf("decode activity: %w", err)
	}

	return &user, nil
}

// SubscribedTo lists chats whose notifications jsonb has the kind enabled.
func (r *PostgresRepository) SubscribedTo(ctx context.Context, kind domain.NotificationKind) ([]int64, error) {
	const q = `
		SELECT chat_id
		FROM users
		WHERE (notifications ->> $1)::boolean IS TRUE
	`

	rows, err := r.db.QueryContext(ctx, q, string(kind))
	if err != nil {
		return nil, fmt.Errorf("select subscribers: %w", err)
	}
	defer rows.Close()

	var chats []int64
	for rows.Next() {
		var chatID int64
		if err := rows.Scan(&chatID); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		chats = append(chats, chatID)
	}

	return chats, rows.Err()
}

// Save upserts the profile.
func (r *PostgresRepository) Save(ctx context.Context, user *domain.User) error {
	if user == nil {
		return errors.New("user is nil")
	}

	const q = `
		INSERT INTO users (chat_id, display_name, language, last_query, favorites, budget, notifications, activity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (chat_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			language = EXCLUDED.language,
			last_query = EXCLUDED.last_query,
			favorites = EXCLUDED.favorites,
			budget = EXCLUDED.budget,
			notifications = EXCLUDED.notifications,
			activity = EXCLUDED.activity
	`

	favorites, err := json.Marshal(user.Favorites)
	if err != nil {
		return fmt.Errorf("encode favorites: %w", err)
	}
	notifications, err := json.Marshal(user.Notifications)
	if err != nil {
		return fmt.Errorf("encode notifications: %w", err)
	}
	activity, err := json.Marshal(user.Activity)
	if err != nil {
		return fmt.Errorf("encode activity: %w", err)
	}

	var budget sql.NullInt64
	if user.Budget != nil {
		budget = sql.NullInt64{Int64: int64(*user.Budget), Valid: true}
	}

	if _, err := r.db.ExecContext(
		ctx,
		q,
		user.ChatID,
		user.DisplayName,
		string(user.Language),
		user.LastQuery,
		favorites,
		budget,
		notifications,
		activity,
		user.CreatedAt,
	); err != nil {
		if r.log != nil {
			r.log.Error("failed to save user profile", slog.Int64("chat_id", user.ChatID), slog.Any("error", err))
		}
		return fmt.Errorf("upsert user profile: %w", err)
	}

	return nil
}
