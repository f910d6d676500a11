package postgres

import (
	"context"
	"database/sql"
	"errors"

	"lessonpath-backend-go/internal/models"
	"lessonpath-backend-go/internal/store"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

const uniqueViolation = "23505"

type Store struct {
	db *sqlx.DB
}

var _ store.Store = (*Store)(nil)

// New wraps an open connection pool. Schema is managed by internal/migrations.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Users() store.Users             { return &usersRepo{db: s.db} }
func (s *Store) Allowlist() store.Allowlist     { return &allowlistRepo{db: s.db} }
func (s *Store) Lessons() store.Lessons         { return &lessonsRepo{db: s.db} }
func (s *Store) TimeRecords() store.TimeRecords { return &timeRecordsRepo{db: s.db} }
func (s *Store) Settings() store.Settings       { return &settingsRepo{db: s.db} }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }
func (s *Store) Close() error                   { return s.db.Close() }

// withTx runs fn in a transaction, committing only when fn succeeds.
func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return store.ErrAlreadyExists
	}
	return err
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

type usersRepo struct {
	db *sqlx.DB
}

const userColumns = `id, email, name, password_hash, is_admin, year, semester, course_code, created_at`

func (r *usersRepo) CreateUser(ctx context.Context, u models.User) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO users (id, email, name, password_hash, is_admin, year, semester, course_code, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`, u.ID, u.Email, u.Name, u.PasswordHash, u.IsAdmin, u.Year, u.Semester, u.CourseCode, u.CreatedAt)
	return mapUniqueViolation(err)
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (models.User, error) {
	var u models.User
	err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return u, mapNotFound(err)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
	return u, mapNotFound(err)
}

func (r *usersRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	return users, err
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, hash, userID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *usersRepo) DeleteUser(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

type allowlistRepo struct {
	db *sqlx.DB
}

func (r *allowlistRepo) UpsertEntries(ctx context.Context, entries []models.AllowlistEntry) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		stmt, err := tx.PreparexContext(ctx, `
INSERT INTO allowlist_entries (email, name, year, semester, course_code, date_added)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (email) DO UPDATE
SET name = EXCLUDED.name,
    year = EXCLUDED.year,
    semester = EXCLUDED.semester,
    course_code = EXCLUDED.course_code
`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, e := range entries {
			if _, err := stmt.ExecContext(ctx, e.Email, e.Name, e.Year, e.Semester, e.CourseCode, e.DateAdded); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *allowlistRepo) GetEntry(ctx context.Context, email string) (models.AllowlistEntry, error) {
	var e models.AllowlistEntry
	err := r.db.GetContext(ctx, &e, `
SELECT email, name, year, semester, course_code, date_added
FROM allowlist_entries WHERE email = $1
`, email)
	return e, mapNotFound(err)
}

func (r *allowlistRepo) ListEntries(ctx context.Context) ([]models.AllowlistEntry, error) {
	entries := []models.AllowlistEntry{}
	err := r.db.SelectContext(ctx, &entries, `
SELECT email, name, year, semester, course_code, date_added
FROM allowlist_entries ORDER BY email
`)
	return entries, err
}

type lessonsRepo struct {
	db *sqlx.DB
}

const lessonColumns = `id, title, description, image, content, sort_order, created_at`

func (r *lessonsRepo) ListLessons(ctx context.Context) ([]models.Lesson, error) {
	lessons := []models.Lesson{}
	err := r.db.SelectContext(ctx, &lessons, `SELECT `+lessonColumns+` FROM lessons ORDER BY sort_order ASC, created_at ASC, id ASC`)
	return lessons, err
}

func (r *lessonsRepo) GetLesson(ctx context.Context, id string) (models.Lesson, error) {
	var l models.Lesson
	err := r.db.GetContext(ctx, &l, `SELECT `+lessonColumns+` FROM lessons WHERE id = $1`, id)
	return l, mapNotFound(err)
}

func (r *lessonsRepo) CreateLesson(ctx context.Context, l models.Lesson) (int, error) {
	var order int
	err := r.db.GetContext(ctx, &order, `
INSERT INTO lessons (id, title, description, image, content, sort_order, created_at)
SELECT $1, $2, $3, $4, $5, COALESCE(MAX(sort_order) + 1, 0), $6 FROM lessons
RETURNING sort_order
`, l.ID, l.Title, l.Description, l.Image, l.Content, l.CreatedAt)
	return order, mapUniqueViolation(err)
}

func (r *lessonsRepo) UpdateLesson(ctx context.Context, id string, patch models.LessonPatch) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE lessons
SET title = COALESCE($2, title),
    description = COALESCE($3, description),
    image = COALESCE($4, image),
    content = COALESCE($5, content)
WHERE id = $1
`, id, patch.Title, patch.Description, patch.Image, patch.Content)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *lessonsRepo) DeleteLesson(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM lessons WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *lessonsRepo) ApplyOrder(ctx context.Context, items []models.LessonOrder) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for _, item := range items {
			res, err := tx.ExecContext(ctx, `UPDATE lessons SET sort_order = $1 WHERE id = $2`, item.Order, item.ID)
			if err != nil {
				return err
			}
			if err := requireAffected(res); err != nil {
				return err
			}
		}
		return nil
	})
}

type timeRecordsRepo struct {
	db *sqlx.DB
}

type visitRow struct {
	UserID    string `db:"user_id"`
	LessonID  string `db:"lesson_id"`
	models.Visit
}

func (r *timeRecordsRepo) AddVisit(ctx context.Context, userID, lessonID string, visit models.Visit) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO time_records (user_id, lesson_id, duration_seconds, last_visit)
VALUES ($1,$2,$3,$4)
ON CONFLICT (user_id, lesson_id) DO UPDATE
SET duration_seconds = time_records.duration_seconds + EXCLUDED.duration_seconds,
    last_visit = GREATEST(time_records.last_visit, EXCLUDED.last_visit)
`, userID, lessonID, visit.Duration, visit.Timestamp); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
INSERT INTO lesson_visits (user_id, lesson_id, visited_at, duration_seconds)
VALUES ($1,$2,$3,$4)
`, userID, lessonID, visit.Timestamp, visit.Duration)
		return err
	})
}

func (r *timeRecordsRepo) GetRecord(ctx context.Context, userID, lessonID string) (models.TimeRecord, error) {
	var rec models.TimeRecord
	if err := r.db.GetContext(ctx, &rec, `
SELECT user_id, lesson_id, duration_seconds, last_visit
FROM time_records WHERE user_id = $1 AND lesson_id = $2
`, userID, lessonID); err != nil {
		return models.TimeRecord{}, mapNotFound(err)
	}
	records := []models.TimeRecord{rec}
	if err := r.attachVisits(ctx, records, `WHERE user_id = $1 AND lesson_id = $2`, userID, lessonID); err != nil {
		return models.TimeRecord{}, err
	}
	return records[0], nil
}

func (r *timeRecordsRepo) ListByUser(ctx context.Context, userID string) ([]models.TimeRecord, error) {
	records := []models.TimeRecord{}
	if err := r.db.SelectContext(ctx, &records, `
SELECT user_id, lesson_id, duration_seconds, last_visit
FROM time_records WHERE user_id = $1
ORDER BY last_visit DESC
`, userID); err != nil {
		return nil, err
	}
	if err := r.attachVisits(ctx, records, `WHERE user_id = $1`, userID); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *timeRecordsRepo) ListAll(ctx context.Context) ([]models.TimeRecord, error) {
	records := []models.TimeRecord{}
	if err := r.db.SelectContext(ctx, &records, `
SELECT user_id, lesson_id, duration_seconds, last_visit
FROM time_records
ORDER BY last_visit DESC
`); err != nil {
		return nil, err
	}
	if err := r.attachVisits(ctx, records, ``); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *timeRecordsRepo) attachVisits(ctx context.Context, records []models.TimeRecord, where string, args ...interface{}) error {
	if len(records) == 0 {
		return nil
	}
	rows := []visitRow{}
	if err := r.db.SelectContext(ctx, &rows, `
SELECT user_id, lesson_id, visited_at, duration_seconds
FROM lesson_visits `+where+`
ORDER BY id ASC
`, args...); err != nil {
		return err
	}
	index := make(map[[2]string]int, len(records))
	for i, rec := range records {
		index[[2]string{rec.UserID, rec.LessonID}] = i
		records[i].Visits = []models.Visit{}
	}
	for _, row := range rows {
		if i, ok := index[[2]string{row.UserID, row.LessonID}]; ok {
			records[i].Visits = append(records[i].Visits, row.Visit)
		}
	}
	return nil
}

type settingsRepo struct {
	db *sqlx.DB
}

func (r *settingsRepo) GetSetting(ctx context.Context, key string) (models.Setting, error) {
	var s models.Setting
	err := r.db.GetContext(ctx, &s, `SELECT key, value FROM settings WHERE key = $1`, key)
	return s, mapNotFound(err)
}

func (r *settingsRepo) PutSetting(ctx context.Context, s models.Setting) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO settings (key, value, updated_at)
VALUES ($1,$2,now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
`, s.Key, s.Value)
	return err
}
