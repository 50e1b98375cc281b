package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/gatehouse/gatehouse/internal/model"
)

// Store is the persisted admin directory, backed by SQLite. It holds the
// mutable administrator records created through the console, plus the
// credential table used by the local identity provider.
//
// Directory rows are decoded defensively: records written by earlier console
// versions may lack the role or active columns, or carry timestamp encodings
// this version cannot parse. A missing active flag counts as active (only an
// explicit false deactivates an account), and an unparseable creation
// timestamp is treated as absent rather than failing the read.
type Store struct {
	db *sqlx.DB
}

// NewStore creates a new directory store. Pass empty string for in-memory.
func NewStore(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == "" {
		dsn = ":memory:?_journal_mode=WAL"
	} else {
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		dsn = filepath.Join(dataDir, "gatehouse.db") + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open directory database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate directory database: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS admins (
			id TEXT PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			role TEXT,
			active INTEGER,
			display_name TEXT,
			created_at TEXT,
			created_by_email TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS credentials (
			subject_id TEXT PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			last_login_at TEXT
		)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Admin directory
// ---------------------------------------------------------------------------

// adminRow maps 1:1 to the admins table with nullable columns, so legacy
// rows with missing fields decode without error.
type adminRow struct {
	ID             string         `db:"id"`
	Email          string         `db:"email"`
	Role           sql.NullString `db:"role"`
	Active         sql.NullBool   `db:"active"`
	DisplayName    sql.NullString `db:"display_name"`
	CreatedAt      sql.NullString `db:"created_at"`
	CreatedByEmail sql.NullString `db:"created_by_email"`
}

func (r adminRow) toModel() model.Admin {
	admin := model.Admin{
		ID:             r.ID,
		Email:          strings.ToLower(r.Email),
		Role:           model.RoleAdmin,
		Active:         true,
		DisplayName:    r.DisplayName.String,
		CreatedByEmail: r.CreatedByEmail.String,
	}
	if r.Role.Valid && r.Role.String != "" {
		admin.Role = r.Role.String
	}
	// Absence of the flag means active; only an explicit false deactivates.
	if r.Active.Valid && !r.Active.Bool {
		admin.Active = false
	}
	if r.CreatedAt.Valid {
		if t, err := time.Parse(time.RFC3339, r.CreatedAt.String); err == nil {
			admin.CreatedAt = &t
		}
	}
	return admin
}

// ListAdmins returns all persisted administrator records.
func (s *Store) ListAdmins(ctx context.Context) ([]model.Admin, error) {
	var rows []adminRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM admins`); err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}

	admins := make([]model.Admin, 0, len(rows))
	for _, r := range rows {
		admins = append(admins, r.toModel())
	}
	return admins, nil
}

// GetAdminByEmail returns the persisted record for an email address.
func (s *Store) GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error) {
	var row adminRow
	err := s.db.GetContext(ctx, &row,
		`SELECT * FROM admins WHERE email = ?`, strings.ToLower(email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get admin: %w", err)
	}
	admin := row.toModel()
	return &admin, nil
}

// CreateAdmin inserts a new administrator record. The caller supplies the ID
// (the identity provider's subject id for the account).
func (s *Store) CreateAdmin(ctx context.Context, admin *model.Admin) error {
	var createdAt sql.NullString
	if admin.CreatedAt != nil {
		createdAt = sql.NullString{String: admin.CreatedAt.UTC().Format(time.RFC3339), Valid: true}
	}

	const q = `INSERT INTO admins
		(id, email, role, active, display_name, created_at, created_by_email)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, q,
		admin.ID, strings.ToLower(admin.Email), admin.Role, admin.Active,
		admin.DisplayName, createdAt, admin.CreatedByEmail)
	if err != nil {
		return fmt.Errorf("insert admin: %w", err)
	}
	return nil
}

// SetAdminActive toggles the active flag on a persisted record.
func (s *Store) SetAdminActive(ctx context.Context, id string, active bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE admins SET active = ? WHERE id = ?`, active, id)
	if err != nil {
		return fmt.Errorf("update admin: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// Credentials (local identity provider key space)
// ---------------------------------------------------------------------------

// Credential is a locally stored login credential. The subject id is the
// key the directory record is stored under after provisioning.
type Credential struct {
	SubjectID    string         `db:"subject_id"`
	Email        string         `db:"email"`
	PasswordHash string         `db:"password_hash"`
	LastLoginAt  sql.NullString `db:"last_login_at"`
}

// CreateCredential inserts a new login credential.
func (s *Store) CreateCredential(ctx context.Context, cred *Credential) error {
	const q = `INSERT INTO credentials (subject_id, email, password_hash)
		VALUES (?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q,
		cred.SubjectID, strings.ToLower(cred.Email), cred.PasswordHash)
	if err != nil {
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

// GetCredentialByEmail returns the stored credential for an email address.
func (s *Store) GetCredentialByEmail(ctx context.Context, email string) (*Credential, error) {
	var cred Credential
	err := s.db.GetContext(ctx, &cred,
		`SELECT * FROM credentials WHERE email = ?`, strings.ToLower(email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get credential: %w", err)
	}
	return &cred, nil
}

// UpdateLastLogin stamps the last login time for a subject.
func (s *Store) UpdateLastLogin(ctx context.Context, subjectID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE credentials SET last_login_at = ? WHERE subject_id = ?`,
		time.Now().UTC().Format(time.RFC3339), subjectID)
	return err
}

// InsertRawAdmin writes an admins row verbatim, without normalization or
// defaulting. Tests use it to simulate legacy rows with missing fields.
func (s *Store) InsertRawAdmin(ctx context.Context, id, email string, role, active, createdAt interface{}) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO admins (id, email, role, active, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, email, role, active, createdAt)
	return err
}
