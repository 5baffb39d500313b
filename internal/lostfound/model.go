package lostfound

import "time"

// Item statuses.
const (
	StatusLost  = "lost"
	StatusFound = "found"
)

// Item is a single lost-or-found report.
type Item struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	ContactNo   string    `json:"contactNo"`
	ItemType    string    `json:"item"`
	Location    string    `json:"location"`
	Date        string    `json:"date"`
	Description string    `json:"description"`
	Images      []string  `json:"images"`
	CreatedAt   time.Time `json:"createdAt"`
}

// User is a registered account. The password hash never leaves the server.
type User struct {
	ID           string    `json:"id"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Year         string    `json:"year"`
	Branch       string    `json:"branch"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ContactMessage is a write-once contact form submission.
type ContactMessage struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Description string    `json:"desc"`
	CreatedAt   time.Time `json:"createdAt"`
}
