package store

import (
	"context"
	"database/sql"
	"fmt"

	"availability-notifier/internal/models"

	"github.com/lib/pq"
)

// PostgresStore keeps one row per (location, sent flag, recipient).
type PostgresStore struct {
	db    *sql.DB
	table string
}

func NewPostgresStore(db *sql.DB, table string) *PostgresStore {
	if table == "" {
		table = "subscriptions"
	}
	return &PostgresStore{db: db, table: pq.QuoteIdentifier(table)}
}

// EnsureSchema creates the subscription table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		location_id TEXT NOT NULL,
		is_sent     SMALLINT NOT NULL DEFAULT 0,
		recipient   TEXT NOT NULL,
		lang        TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (location_id, is_sent, recipient)
	)`, s.table)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create subscriptions table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Put(ctx context.Context, sub models.Subscription) error {
	query := fmt.Sprintf(`INSERT INTO %s (location_id, is_sent, recipient, lang)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (location_id, is_sent, recipient) DO UPDATE SET lang = EXCLUDED.lang`, s.table)

	if _, err := s.db.ExecContext(ctx, query, sub.LocationID, sub.IsSent, sub.Recipient, sub.Language); err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

func (s *PostgresStore) QueryPending(ctx context.Context, locationID string) ([]models.Subscription, error) {
	query := fmt.Sprintf(`SELECT location_id, is_sent, recipient, lang FROM %s
		WHERE location_id = $1 AND is_sent = $2
		ORDER BY created_at, recipient`, s.table)

	rows, err := s.db.QueryContext(ctx, query, locationID, models.Pending)
	if err != nil {
		return nil, fmt.Errorf("query pending subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []models.Subscription
	for rows.Next() {
		var sub models.Subscription
		if err := rows.Scan(&sub.LocationID, &sub.IsSent, &sub.Recipient, &sub.Language); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}
	return subs, nil
}

func (s *PostgresStore) ConditionalDelete(ctx context.Context, locationID, expectedRecipient string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE location_id = $1 AND is_sent = $2 AND recipient = $3`, s.table)

	res, err := s.db.ExecContext(ctx, query, locationID, models.Pending, expectedRecipient)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	if n == 0 {
		return ErrConditionFailed
	}
	return nil
}
