package lostfound

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kumarchinmay0704/lostfound/internal/store"
)

// Sentinel errors mapped to response codes at the handler boundary.
var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidInput       = errors.New("invalid input")
	ErrDuplicateItem      = errors.New("similar item already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotFound           = errors.New("item not found")
)

// Submission outcomes.
const (
	OutcomeCreated   = "created"
	OutcomeDuplicate = "duplicate"
	OutcomeMatch     = "match"
)

// SubmitResult is the decision reached for one submission attempt.
type SubmitResult struct {
	Outcome string
	Item    Item
	Matches []Item
}

// Repository persists lost-and-found data through the shared store.
type Repository struct {
	db *store.DB
}

// NewRepository creates a repo over the pooled store.
func NewRepository(db *store.DB) *Repository {
	return &Repository{db: db}
}

// -------- Users --------

// CreateUser inserts a new account. A duplicate email reports ErrEmailTaken.
func (r *Repository) CreateUser(ctx context.Context, u User) (User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = time.Now().UTC()
	_, err := r.db.Client.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO users (id, full_name, email, phone, year, branch, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		u.ID, u.FullName, u.Email, u.Phone, u.Year, u.Branch, u.PasswordHash, u.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("creating user: %w", err)
	}
	return u, nil
}

// GetUserByEmail returns a user or nil when the email is unknown.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := r.db.Client.QueryRowContext(ctx, r.db.Rebind(`
		SELECT id, full_name, email, phone, year, branch, password_hash, created_at
		FROM users WHERE email = ?`), email,
	).Scan(&u.ID, &u.FullName, &u.Email, &u.Phone, &u.Year, &u.Branch, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return &u, nil
}

// -------- Items --------

// SubmitItem runs the submission decision sequence in one transaction:
// exact-duplicate check, then opposite-status match check, then insert.
// The unique index on (name, email, item_type, description, status)
// backstops the duplicate check against concurrent identical submissions,
// so two racing inserts cannot both commit. The opposite-match window is
// not closed (that would need SERIALIZABLE on Postgres); a lost/found pair
// slipping through means two real reports, not corrupted data.
func (r *Repository) SubmitItem(ctx context.Context, item Item) (SubmitResult, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	item.CreatedAt = time.Now().UTC()
	if item.Images == nil {
		item.Images = []string{}
	}

	tx, err := r.db.Client.BeginTx(ctx, nil)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("begin submit: %w", err)
	}
	defer tx.Rollback()

	// Exact duplicate takes precedence over the opposite-status match.
	var dupID string
	err = tx.QueryRowContext(ctx, r.db.Rebind(`
		SELECT id FROM items
		WHERE name = ? AND email = ? AND item_type = ? AND description = ? AND status = ?
		LIMIT 1`),
		item.Name, item.Email, item.ItemType, item.Description, item.Status,
	).Scan(&dupID)
	if err == nil {
		return SubmitResult{Outcome: OutcomeDuplicate}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return SubmitResult{}, fmt.Errorf("duplicate check: %w", err)
	}

	matches, err := scanItems(tx.QueryContext(ctx, r.db.Rebind(`
		SELECT id, status, name, email, contact_no, item_type, location, date, description, images, created_at
		FROM items
		WHERE item_type = ? AND description = ? AND status <> ?
		ORDER BY created_at`),
		item.ItemType, item.Description, item.Status,
	))
	if err != nil {
		return SubmitResult{}, fmt.Errorf("match check: %w", err)
	}
	if len(matches) > 0 {
		return SubmitResult{Outcome: OutcomeMatch, Matches: matches}, nil
	}

	images, err := json.Marshal(item.Images)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("encoding images: %w", err)
	}
	_, err = tx.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO items (id, status, name, email, contact_no, item_type, location, date, description, images, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		item.ID, item.Status, item.Name, item.Email, item.ContactNo,
		item.ItemType, item.Location, item.Date, item.Description, string(images), item.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			// A racing identical submission committed first.
			return SubmitResult{Outcome: OutcomeDuplicate}, nil
		}
		return SubmitResult{}, fmt.Errorf("inserting item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return SubmitResult{Outcome: OutcomeDuplicate}, nil
		}
		return SubmitResult{}, fmt.Errorf("commit submit: %w", err)
	}
	return SubmitResult{Outcome: OutcomeCreated, Item: item}, nil
}

// FindMatches returns items sharing item_type and description whose status
// differs from the given one. Pure read.
func (r *Repository) FindMatches(ctx context.Context, itemType, description, status string) ([]Item, error) {
	items, err := scanItems(r.db.Client.QueryContext(ctx, r.db.Rebind(`
		SELECT id, status, name, email, contact_no, item_type, location, date, description, images, created_at
		FROM items
		WHERE item_type = ? AND description = ? AND status <> ?
		ORDER BY created_at`),
		itemType, description, status,
	))
	if err != nil {
		return nil, fmt.Errorf("finding matches: %w", err)
	}
	return items, nil
}

// ListItems returns one page of reports, newest first.
func (r *Repository) ListItems(ctx context.Context, limit, offset int) ([]Item, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	items, err := scanItems(r.db.Client.QueryContext(ctx, r.db.Rebind(`
		SELECT id, status, name, email, contact_no, item_type, location, date, description, images, created_at
		FROM items
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`),
		limit, offset,
	))
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	return items, nil
}

// DeleteItem removes a claimed report. Zero rows deleted reports ErrNotFound.
func (r *Repository) DeleteItem(ctx context.Context, id string) error {
	res, err := r.db.Client.ExecContext(ctx, r.db.Rebind(`DELETE FROM items WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// -------- Contact --------

// CreateContact stores a contact form submission.
func (r *Repository) CreateContact(ctx context.Context, m ContactMessage) (ContactMessage, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.CreatedAt = time.Now().UTC()
	_, err := r.db.Client.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO contact_messages (id, name, email, phone, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		m.ID, m.Name, m.Email, m.Phone, m.Description, m.CreatedAt,
	)
	if err != nil {
		return ContactMessage{}, fmt.Errorf("creating contact message: %w", err)
	}
	return m, nil
}

// -------- helpers --------

func scanItems(rows *sql.Rows, err error) ([]Item, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		var images string
		if err := rows.Scan(&it.ID, &it.Status, &it.Name, &it.Email, &it.ContactNo,
			&it.ItemType, &it.Location, &it.Date, &it.Description, &images, &it.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(images), &it.Images); err != nil {
			return nil, fmt.Errorf("decoding images for %s: %w", it.ID, err)
		}
		if it.Images == nil {
			it.Images = []string{}
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// isUniqueViolation matches constraint errors from both drivers: sqlite3
// reports "UNIQUE constraint failed", pgx reports SQLSTATE 23505.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "SQLSTATE 23505") ||
		strings.Contains(msg, "duplicate key value")
}
