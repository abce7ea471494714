package store

import "time"

// GuestKey is the owner key used for conversation data created without an
// active session. Guest data is never merged into a user partition.
const GuestKey = "guest"

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Theme is the persisted UI theme preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// User is an identity record in the registry. Created at registration,
// looked up at login, never mutated thereafter.
type User struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	Name           string `json:"name"`
	LoggedIn       bool   `json:"is_logged_in"`
	CredentialHash string `json:"credential_hash,omitempty"`
}

// Public returns a copy safe for API responses, with the credential hash
// stripped.
func (u User) Public() User {
	u.CredentialHash = ""
	return u
}

// Message is one turn of a conversation. Messages are append-only: once part
// of a project they are never edited or reordered.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Thought   string    `json:"thought,omitempty"` // reasoning trace, assistant only
	Timestamp time.Time `json:"timestamp"`
}

// Project is a named conversation thread.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	LastUpdated time.Time `json:"last_updated"`
	Messages    []Message `json:"messages"`
}

// Preferences are the persisted UI preferences.
type Preferences struct {
	Theme    Theme  `json:"theme"`
	Language string `json:"language"`
}
