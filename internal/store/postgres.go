package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lgu-records/recordkeeper/types"
)

// PostgresRecordRepository persists the record snapshot in Postgres.
// Each save rewrites the table inside one transaction.
type PostgresRecordRepository struct {
	db *sql.DB
}

func NewPostgresRecordRepository(db *sql.DB) *PostgresRecordRepository {
	return &PostgresRecordRepository{db: db}
}

func (r *PostgresRecordRepository) LoadRecords(ctx context.Context) (Snapshot, error) {
	const listQuery = `
		SELECT id, date, sender, subject, destination, status
		FROM records
		ORDER BY position`
	rows, err := r.db.QueryContext(ctx, listQuery)
	if err != nil {
		return Snapshot{}, err
	}
	defer rows.Close()

	snap := Snapshot{Records: []types.Record{}}
	for rows.Next() {
		var rec types.Record
		if err := rows.Scan(
			&rec.ID,
			&rec.Date,
			&rec.Sender,
			&rec.Subject,
			&rec.Destination,
			&rec.Status,
		); err != nil {
			return Snapshot{}, err
		}
		snap.Records = append(snap.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, err
	}

	const counterQuery = `SELECT value FROM record_counter WHERE id = 1`
	err = r.db.QueryRowContext(ctx, counterQuery).Scan(&snap.Counter)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, err
	}
	return snap, nil
}

func (r *PostgresRecordRepository) SaveRecords(ctx context.Context, snap Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return err
	}

	const insertQuery = `
		INSERT INTO records (position, id, date, sender, subject, destination, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	stmt, err := tx.PrepareContext(ctx, insertQuery)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, rec := range snap.Records {
		if _, err := stmt.ExecContext(
			ctx,
			i,
			rec.ID,
			rec.Date,
			rec.Sender,
			rec.Subject,
			rec.Destination,
			rec.Status,
		); err != nil {
			return err
		}
	}

	const counterQuery = `
		INSERT INTO record_counter (id, value) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET value = EXCLUDED.value`
	if _, err := tx.ExecContext(ctx, counterQuery, snap.Counter); err != nil {
		return err
	}
	return tx.Commit()
}

// PostgresUserRepository persists users in Postgres.
type PostgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) LoadUsers(ctx context.Context) ([]types.User, error) {
	const query = `
		SELECT username, role, password_hash, created_at, updated_at
		FROM users
		ORDER BY username`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []types.User{}
	for rows.Next() {
		var user types.User
		if err := rows.Scan(
			&user.Username,
			&user.Role,
			&user.PasswordHash,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// SaveUsers upserts every user. Users are never deleted.
func (r *PostgresUserRepository) SaveUsers(ctx context.Context, users []types.User) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const query = `
		INSERT INTO users (username, role, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (username) DO UPDATE
		SET role = EXCLUDED.role,
			password_hash = EXCLUDED.password_hash,
			updated_at = EXCLUDED.updated_at`
	for _, user := range users {
		created, updated := user.CreatedAt, user.UpdatedAt
		if created.IsZero() {
			created = time.Now()
		}
		if updated.IsZero() {
			updated = created
		}
		if _, err := tx.ExecContext(
			ctx,
			query,
			user.Username,
			user.Role,
			user.PasswordHash,
			created,
			updated,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}
