// Package sqlite provides a SQLite-backed schoolmate store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/hupe1980/schoolmate/storage"
	"github.com/hupe1980/schoolmate/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists schoolmate records in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite store at path and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// PutStudent inserts or replaces a student.
func (s *Store) PutStudent(ctx context.Context, st storage.Student) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(st.ID) == "" {
		return fmt.Errorf("student id is required")
	}
	if strings.TrimSpace(st.Name) == "" {
		return fmt.Errorf("student name is required")
	}
	createdAt := st.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO students (id, name, class, email, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   name = excluded.name,
		   class = excluded.class,
		   email = excluded.email`,
		st.ID, st.Name, st.Class, st.Email, toMillis(createdAt),
	)
	if err != nil {
		return fmt.Errorf("put student: %w", err)
	}
	return nil
}

// GetStudent returns one student by id.
func (s *Store) GetStudent(ctx context.Context, id string) (storage.Student, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Student{}, err
	}

	var st storage.Student
	var createdAt int64
	err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, name, class, email, created_at FROM students WHERE id = ?`,
		id,
	).Scan(&st.ID, &st.Name, &st.Class, &st.Email, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Student{}, storage.ErrNotFound
		}
		return storage.Student{}, fmt.Errorf("get student: %w", err)
	}
	st.CreatedAt = fromMillis(createdAt)
	return st, nil
}

// ListStudents returns students ordered by name, optionally by class.
func (s *Store) ListStudents(ctx context.Context, class string) ([]storage.Student, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	var (
		rows *sql.Rows
		err  error
	)
	if class == "" {
		rows, err = s.sqlDB.QueryContext(ctx,
			`SELECT id, name, class, email, created_at FROM students ORDER BY name ASC, id ASC`)
	} else {
		rows, err = s.sqlDB.QueryContext(ctx,
			`SELECT id, name, class, email, created_at FROM students WHERE class = ? ORDER BY name ASC, id ASC`,
			class)
	}
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	students := make([]storage.Student, 0)
	for rows.Next() {
		var st storage.Student
		var createdAt int64
		if err := rows.Scan(&st.ID, &st.Name, &st.Class, &st.Email, &createdAt); err != nil {
			return nil, fmt.Errorf("list students: %w", err)
		}
		st.CreatedAt = fromMillis(createdAt)
		students = append(students, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// DeleteStudent removes a student and, by cascade, their grades and results.
func (s *Store) DeleteStudent(ctx context.Context, id string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.deleteByID(ctx, "students", id)
}

// PutGrade inserts or replaces a grade.
func (s *Store) PutGrade(ctx context.Context, g storage.Grade) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(g.ID) == "" {
		return fmt.Errorf("grade id is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO grades (id, student_id, subject, topic, score, grade_date)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   student_id = excluded.student_id,
		   subject = excluded.subject,
		   topic = excluded.topic,
		   score = excluded.score,
		   grade_date = excluded.grade_date`,
		g.ID, g.StudentID, g.Subject, g.Topic, g.Score, storage.FormatDate(g.GradeDate),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("student %s: %w", g.StudentID, storage.ErrNotFound)
		}
		return fmt.Errorf("put grade: %w", err)
	}
	return nil
}

// GetGrade returns one grade by id.
func (s *Store) GetGrade(ctx context.Context, id string) (storage.Grade, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Grade{}, err
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, student_id, subject, topic, score, grade_date FROM grades WHERE id = ?`,
		id,
	)
	g, err := scanGrade(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Grade{}, storage.ErrNotFound
		}
		return storage.Grade{}, fmt.Errorf("get grade: %w", err)
	}
	return g, nil
}

// ListGrades returns the student's grades, most recent first.
func (s *Store) ListGrades(ctx context.Context, studentID string) ([]storage.Grade, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, student_id, subject, topic, score, grade_date
		   FROM grades
		  WHERE student_id = ?
		  ORDER BY grade_date DESC, id ASC`,
		studentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list grades: %w", err)
	}
	defer rows.Close()

	grades := make([]storage.Grade, 0)
	for rows.Next() {
		g, err := scanGrade(rows)
		if err != nil {
			return nil, fmt.Errorf("list grades: %w", err)
		}
		grades = append(grades, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list grades: %w", err)
	}
	return grades, nil
}

// DeleteGrade removes a grade.
func (s *Store) DeleteGrade(ctx context.Context, id string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.deleteByID(ctx, "grades", id)
}

// PutEvent inserts or replaces an event.
func (s *Store) PutEvent(ctx context.Context, ev storage.Event) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(ev.ID) == "" {
		return fmt.Errorf("event id is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO events (id, title, description, type, event_date, location, invitation_link)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   title = excluded.title,
		   description = excluded.description,
		   type = excluded.type,
		   event_date = excluded.event_date,
		   location = excluded.location,
		   invitation_link = excluded.invitation_link`,
		ev.ID, ev.Title, ev.Description, ev.Type, storage.FormatDate(ev.EventDate), ev.Location, ev.InvitationLink,
	)
	if err != nil {
		return fmt.Errorf("put event: %w", err)
	}
	return nil
}

// GetEvent returns one event by id.
func (s *Store) GetEvent(ctx context.Context, id string) (storage.Event, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Event{}, err
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, title, description, type, event_date, location, invitation_link FROM events WHERE id = ?`,
		id,
	)
	ev, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Event{}, storage.ErrNotFound
		}
		return storage.Event{}, fmt.Errorf("get event: %w", err)
	}
	return ev, nil
}

// ListEvents returns events matching filter ordered by date ascending.
func (s *Store) ListEvents(ctx context.Context, filter storage.EventFilter) ([]storage.Event, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	query := `SELECT id, title, description, type, event_date, location, invitation_link FROM events`
	var (
		conds []string
		args  []any
	)
	if filter.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, filter.Type)
	}
	if !filter.From.IsZero() {
		conds = append(conds, "event_date >= ?")
		args = append(args, storage.FormatDate(filter.From))
	}
	if !filter.To.IsZero() {
		conds = append(conds, "event_date <= ?")
		args = append(args, storage.FormatDate(filter.To))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY event_date ASC, id ASC"

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := make([]storage.Event, 0)
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("list events: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// DeleteEvent removes an event.
func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.deleteByID(ctx, "events", id)
}

// PutExamResult inserts or replaces an exam result.
func (s *Store) PutExamResult(ctx context.Context, r storage.ExamResult) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("exam result id is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO exam_results (id, student_id, test_date, total_score, predicted_score)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   student_id = excluded.student_id,
		   test_date = excluded.test_date,
		   total_score = excluded.total_score,
		   predicted_score = excluded.predicted_score`,
		r.ID, r.StudentID, storage.FormatDate(r.TestDate), r.TotalScore, r.PredictedScore,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("student %s: %w", r.StudentID, storage.ErrNotFound)
		}
		return fmt.Errorf("put exam result: %w", err)
	}
	return nil
}

// ListExamResults returns the student's results, most recent first.
func (s *Store) ListExamResults(ctx context.Context, studentID string) ([]storage.ExamResult, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, student_id, test_date, total_score, predicted_score
		   FROM exam_results
		  WHERE student_id = ?
		  ORDER BY test_date DESC, id ASC`,
		studentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list exam results: %w", err)
	}
	defer rows.Close()

	results := make([]storage.ExamResult, 0)
	for rows.Next() {
		var r storage.ExamResult
		var testDate string
		if err := rows.Scan(&r.ID, &r.StudentID, &testDate, &r.TotalScore, &r.PredictedScore); err != nil {
			return nil, fmt.Errorf("list exam results: %w", err)
		}
		if r.TestDate, err = storage.ParseDate(testDate); err != nil {
			return nil, fmt.Errorf("list exam results: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list exam results: %w", err)
	}
	return results, nil
}

func (s *Store) deleteByID(ctx context.Context, table, id string) error {
	res, err := s.sqlDB.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGrade(row rowScanner) (storage.Grade, error) {
	var g storage.Grade
	var gradeDate string
	if err := row.Scan(&g.ID, &g.StudentID, &g.Subject, &g.Topic, &g.Score, &gradeDate); err != nil {
		return storage.Grade{}, err
	}
	date, err := storage.ParseDate(gradeDate)
	if err != nil {
		return storage.Grade{}, err
	}
	g.GradeDate = date
	return g, nil
}

func scanEvent(row rowScanner) (storage.Event, error) {
	var ev storage.Event
	var eventDate string
	if err := row.Scan(&ev.ID, &ev.Title, &ev.Description, &ev.Type, &eventDate, &ev.Location, &ev.InvitationLink); err != nil {
		return storage.Event{}, err
	}
	date, err := storage.ParseDate(eventDate)
	if err != nil {
		return storage.Event{}, err
	}
	ev.EventDate = date
	return ev, nil
}

func isForeignKeyViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY
	}
	return strings.Contains(strings.ToLower(err.Error()), "foreign key constraint failed")
}

var _ storage.Store = (*Store)(nil)
