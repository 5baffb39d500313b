package lostfound

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Service coordinates registration, login and the report workflow.
type Service struct {
	repo        *Repository
	listDefault int
	listMax     int
}

// NewService creates a service backed by a repository. listDefault and
// listMax bound the list-items page size.
func NewService(repo *Repository, listDefault, listMax int) *Service {
	if listDefault <= 0 {
		listDefault = 50
	}
	if listMax < listDefault {
		listMax = listDefault
	}
	return &Service{repo: repo, listDefault: listDefault, listMax: listMax}
}

// Register validates and stores a new account with a bcrypt password hash.
func (s *Service) Register(ctx context.Context, u User, password string) (User, error) {
	if u.FullName == "" || u.Email == "" || password == "" {
		return User{}, fmt.Errorf("%w: full name, email and password required", ErrInvalidInput)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hashing password: %w", err)
	}
	u.PasswordHash = string(hash)
	return s.repo.CreateUser(ctx, u)
}

// Login checks credentials and returns the stored account. Unknown emails
// and wrong passwords are indistinguishable to the caller, and the bcrypt
// comparison runs in constant time.
func (s *Service) Login(ctx context.Context, email, password string) (User, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}
	if user == nil {
		return User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return *user, nil
}

// Submit validates a report and runs the duplicate/match/insert sequence.
func (s *Service) Submit(ctx context.Context, item Item) (SubmitResult, error) {
	if item.Status != StatusLost && item.Status != StatusFound {
		return SubmitResult{}, fmt.Errorf("%w: status must be %q or %q", ErrInvalidInput, StatusLost, StatusFound)
	}
	if item.Name == "" || item.Email == "" || item.ItemType == "" {
		return SubmitResult{}, fmt.Errorf("%w: name, email and item required", ErrInvalidInput)
	}
	return s.repo.SubmitItem(ctx, item)
}

// Matches returns opposite-status reports for the given report shape.
func (s *Service) Matches(ctx context.Context, itemType, description, status string) ([]Item, error) {
	if itemType == "" || status == "" {
		return nil, fmt.Errorf("%w: item and status required", ErrInvalidInput)
	}
	return s.repo.FindMatches(ctx, itemType, description, status)
}

// List returns one page of reports, clamping the page size.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Item, error) {
	if limit <= 0 {
		limit = s.listDefault
	}
	if limit > s.listMax {
		limit = s.listMax
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListItems(ctx, limit, offset)
}

// Claim deletes a report once the item has been returned to its owner.
func (s *Service) Claim(ctx context.Context, id string) error {
	if id == "" {
		return ErrNotFound
	}
	return s.repo.DeleteItem(ctx, id)
}

// Contact stores a contact form message.
func (s *Service) Contact(ctx context.Context, m ContactMessage) (ContactMessage, error) {
	if m.Name == "" || m.Email == "" {
		return ContactMessage{}, fmt.Errorf("%w: name and email required", ErrInvalidInput)
	}
	return s.repo.CreateContact(ctx, m)
}
