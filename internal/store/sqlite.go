package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/Jacky-111111/pillulu-health-assistant/internal/domain"
)

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct {
	db  *sql.DB
	log *zap.Logger
}

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns a repository.
func OpenSQLite(ctx context.Context, path string, log *zap.Logger) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Reasonable pooling for SQLite; it's a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return NewSQLiteRepo(db, log), nil
}

// NewSQLiteRepo wraps an already migrated database. A nil log discards output.
func NewSQLiteRepo(db *sql.DB, log *zap.Logger) *SQLiteRepo {
	if log == nil {
		log = zap.NewNop()
	}
	return &SQLiteRepo{db: db, log: log}
}

// applyPragmas configures the SQLite connection for durability and concurrency.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

// UpsertUser inserts or updates a user's settings.
func (r *SQLiteRepo) UpsertUser(ctx context.Context, u *domain.User) error {
	if u == nil {
		return errors.New("nil user")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (chat_id, created_at, tz)
		VALUES (?, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET
			tz = excluded.tz`,
		u.ChatID, unixOrNow(u.CreatedAt), u.TZ,
	)
	return err
}

// GetUser returns a user's settings by chatID or ErrNotFound.
func (r *SQLiteRepo) GetUser(ctx context.Context, chatID int64) (*domain.User, error) {
	var (
		createdAt int64
		u         domain.User
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT chat_id, created_at, tz
		FROM users
		WHERE chat_id = ?`,
		chatID,
	).Scan(&u.ChatID, &createdAt, &u.TZ)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &u, nil
}

// CreateMedication inserts m and sets its ID.
func (r *SQLiteRepo) CreateMedication(ctx context.Context, m *domain.Medication) error {
	if m == nil {
		return errors.New("nil medication")
	}
	created := unixOrNow(m.CreatedAt)
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO medications (
			chat_id, name, purpose, dosage_notes,
			stock_count, low_stock_threshold, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ChatID, m.Name, toNullString(m.Purpose), toNullString(m.DosageNotes),
		m.StockCount, m.LowStockThreshold, created,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = id
	m.CreatedAt = time.Unix(created, 0).UTC()
	return nil
}

const medicationColumns = `id, chat_id, name, purpose, dosage_notes, stock_count, low_stock_threshold, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMedication(row rowScanner) (domain.Medication, error) {
	var (
		m           domain.Medication
		purpose     sql.NullString
		dosageNotes sql.NullString
		createdAt   int64
	)
	if err := row.Scan(
		&m.ID, &m.ChatID, &m.Name, &purpose, &dosageNotes,
		&m.StockCount, &m.LowStockThreshold, &createdAt,
	); err != nil {
		return domain.Medication{}, err
	}
	m.Purpose = fromNullString(purpose)
	m.DosageNotes = fromNullString(dosageNotes)
	m.CreatedAt = time.Unix(createdAt, 0).UTC()
	return m, nil
}

// GetMedication returns one medication with its rules.
func (r *SQLiteRepo) GetMedication(ctx context.Context, chatID, id int64) (*domain.Medication, error) {
	m, err := scanMedication(r.db.QueryRowContext(ctx,
		`SELECT `+medicationColumns+` FROM medications WHERE id = ? AND chat_id = ?`,
		id, chatID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rules, err := r.listRules(ctx, `
		SELECT id, med_id, time_of_day, days_of_week, timezone, enabled
		FROM schedules
		WHERE med_id = ?
		ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	m.Rules = rules
	return &m, nil
}

// ListMedications returns the chat's pillbox, newest first, each with its rules.
// The result is a complete snapshot suitable for a countdown.
func (r *SQLiteRepo) ListMedications(ctx context.Context, chatID int64) ([]domain.Medication, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+medicationColumns+` FROM medications WHERE chat_id = ? ORDER BY created_at DESC, id DESC`,
		chatID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meds []domain.Medication
	index := make(map[int64]int)
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		index[m.ID] = len(meds)
		meds = append(meds, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(meds) == 0 {
		return meds, nil
	}

	rules, err := r.listRules(ctx, `
		SELECT s.id, s.med_id, s.time_of_day, s.days_of_week, s.timezone, s.enabled
		FROM schedules s
		JOIN medications m ON m.id = s.med_id
		WHERE m.chat_id = ?
		ORDER BY s.id`, chatID)
	if err != nil {
		return nil, err
	}
	for _, rule := range rules {
		if i, ok := index[rule.MedicationID]; ok {
			meds[i].Rules = append(meds[i].Rules, rule)
		}
	}
	return meds, nil
}

func (r *SQLiteRepo) listRules(ctx context.Context, query string, args ...any) ([]domain.Rule, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Rule
	for rows.Next() {
		var (
			rule       domain.Rule
			tod        string
			enabledInt int
		)
		if err := rows.Scan(&rule.ID, &rule.MedicationID, &tod, &rule.DaysOfWeek, &rule.TZ, &enabledInt); err != nil {
			return nil, err
		}
		t, err := domain.ParseTimeOfDay(tod)
		if err != nil {
			// An unreadable row is left out; the rest of the pillbox still counts down.
			r.log.Warn("skipping schedule with invalid time of day",
				zap.Int64("schedule_id", rule.ID),
				zap.Int64("med_id", rule.MedicationID),
				zap.String("time_of_day", tod),
				zap.Error(err),
			)
			continue
		}
		rule.TimeOfDay = t
		rule.Enabled = enabledInt != 0
		res = append(res, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// SetStock updates the remaining pill count.
func (r *SQLiteRepo) SetStock(ctx context.Context, chatID, id int64, stock int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE medications
		SET stock_count = ?
		WHERE id = ? AND chat_id = ?`,
		stock, id, chatID,
	)
	return affectedOne(res, err)
}

// DeleteMedication removes a medication; its rules go with it.
func (r *SQLiteRepo) DeleteMedication(ctx context.Context, chatID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM medications WHERE id = ? AND chat_id = ?`, id, chatID)
	return affectedOne(res, err)
}

// CreateRule stores a rule under one of the chat's medications and sets its ID.
// The rule's text fields are written exactly as given.
func (r *SQLiteRepo) CreateRule(ctx context.Context, chatID int64, rule *domain.Rule) error {
	if rule == nil {
		return errors.New("nil rule")
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO schedules (med_id, time_of_day, days_of_week, timezone, enabled)
		SELECT id, ?, ?, ?, ?
		FROM medications
		WHERE id = ? AND chat_id = ?`,
		rule.TimeOfDay.String(), rule.DaysOfWeek, rule.TZ, boolToInt(rule.Enabled),
		rule.MedicationID, chatID,
	)
	if err := affectedOne(res, err); err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rule.ID = id
	return nil
}

// SetRuleEnabled toggles a rule.
func (r *SQLiteRepo) SetRuleEnabled(ctx context.Context, chatID, ruleID int64, enabled bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE schedules
		SET enabled = ?
		WHERE id = ?
		  AND med_id IN (SELECT id FROM medications WHERE chat_id = ?)`,
		boolToInt(enabled), ruleID, chatID,
	)
	return affectedOne(res, err)
}

// DeleteRule removes a rule.
func (r *SQLiteRepo) DeleteRule(ctx context.Context, chatID, ruleID int64) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM schedules
		WHERE id = ?
		  AND med_id IN (SELECT id FROM medications WHERE chat_id = ?)`,
		ruleID, chatID,
	)
	return affectedOne(res, err)
}

// affectedOne maps "no row touched" to ErrNotFound.
func affectedOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
