package core

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"sakuracore.ai/sakura-core/internal/auth"
	"sakuracore.ai/sakura-core/internal/i18n"
	"sakuracore.ai/sakura-core/internal/store"
)

var (
	// ErrDuplicateIdentity is returned by Register when the email is
	// already present in the user registry.
	ErrDuplicateIdentity = errors.New("identity already registered")

	// ErrIdentityNotFound is returned by Login when no user matches the
	// email.
	ErrIdentityNotFound = errors.New("identity not found")
)

// SessionService is the single source of truth for identity and conversation
// data. Every mutation is written to the persistence layer before the call
// returns.
//
// The persisted registry is partitioned by owner key: an authenticated user's
// id, or store.GuestKey when no session is active. Partitions are permanently
// disjoint; guest history is never migrated into an account on login.
type SessionService struct {
	kv  store.KV
	log zerolog.Logger

	// Serializes whole-value read-modify-write cycles within this process.
	// Cross-process writers are not coordinated: last write wins.
	mu sync.Mutex
}

func NewSessionService(kv store.KV, logger zerolog.Logger) *SessionService {
	return &SessionService{kv: kv, log: logger}
}

// Register creates a new user in the registry. It does not start a session.
// The registry is left untouched when the email is already taken.
func (s *SessionService) Register(email, name, credential string) (*store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	registry, err := s.loadRegistry()
	if err != nil {
		return nil, err
	}
	for _, u := range registry {
		if u.Email == email {
			return nil, ErrDuplicateIdentity
		}
	}

	hash, err := auth.HashCredential(credential)
	if err != nil {
		return nil, fmt.Errorf("failed to hash credential: %w", err)
	}

	user := store.User{
		ID:             uuid.NewString(),
		Email:          email,
		Name:           name,
		LoggedIn:       true,
		CredentialHash: hash,
	}

	registry = append(registry, user)
	if err := s.kv.Put(store.KeyUserRegistry, registry); err != nil {
		return nil, fmt.Errorf("failed to persist user registry: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("user registered")
	public := user.Public()
	return &public, nil
}

// Login activates a session for the user registered under email. The
// credential is deliberately not verified; the auth flow is simulated and
// only identity existence is checked.
func (s *SessionService) Login(email string) (*store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	registry, err := s.loadRegistry()
	if err != nil {
		return nil, err
	}

	for _, u := range registry {
		if u.Email == email {
			public := u.Public()
			if err := s.kv.Put(store.KeyActiveSession, public); err != nil {
				return nil, fmt.Errorf("failed to persist session: %w", err)
			}
			s.log.Info().Str("user_id", u.ID).Msg("session activated")
			return &public, nil
		}
	}
	return nil, ErrIdentityNotFound
}

// Logout clears the active session, returning to guest state. Conversation
// data is untouched.
func (s *SessionService) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kv.Delete(store.KeyActiveSession)
}

// ActiveSession returns the persisted session user, or nil when in guest
// state.
func (s *SessionService) ActiveSession() (*store.User, error) {
	var user store.User
	found, err := s.kv.Get(store.KeyActiveSession, &user)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &user, nil
}

// ListProjects returns the owner's projects in storage order (insertion
// order, newest first). It never fails for unknown owners; display sorting by
// last-updated happens at render time, not here.
func (s *SessionService) ListProjects(ownerKey string) ([]store.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, err := s.loadProjects()
	if err != nil {
		return nil, err
	}
	return reg[ownerKey], nil
}

// GetProject returns one project, or nil when absent.
func (s *SessionService) GetProject(ownerKey, projectID string) (*store.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, err := s.loadProjects()
	if err != nil {
		return nil, err
	}
	for i := range reg[ownerKey] {
		if reg[ownerKey][i].ID == projectID {
			p := reg[ownerKey][i]
			return &p, nil
		}
	}
	return nil, nil
}

// CreateProject allocates a new project and prepends it to the owner's list.
// When name is empty a localized default is used, numbered like the client's
// "New Orchestration #N".
func (s *SessionService) CreateProject(ownerKey, name string, lang i18n.Code) (*store.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, err := s.loadProjects()
	if err != nil {
		return nil, err
	}

	if name == "" {
		name = fmt.Sprintf("%s #%d", i18n.Resolve(lang).NewChat, len(reg[ownerKey])+1)
	}

	project := store.Project{
		ID:          uuid.NewString(),
		Name:        name,
		LastUpdated: time.Now(),
		Messages:    []store.Message{},
	}

	reg[ownerKey] = append([]store.Project{project}, reg[ownerKey]...)
	if err := s.saveProjects(reg); err != nil {
		return nil, err
	}

	s.log.Debug().Str("owner", ownerKey).Str("project_id", project.ID).Msg("project created")
	return &project, nil
}

// AppendMessages appends newMessages to the target project and bumps its
// last-updated timestamp. A missing project is a benign race (deleted
// concurrently with a send) and results in a silent no-op: the returned
// project is nil and the error is nil.
func (s *SessionService) AppendMessages(ownerKey, projectID string, newMessages []store.Message) (*store.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, err := s.loadProjects()
	if err != nil {
		return nil, err
	}

	list := reg[ownerKey]
	for i := range list {
		if list[i].ID != projectID {
			continue
		}
		list[i].Messages = append(list[i].Messages, newMessages...)
		list[i].LastUpdated = time.Now()
		reg[ownerKey] = list
		if err := s.saveProjects(reg); err != nil {
			return nil, err
		}
		p := list[i]
		return &p, nil
	}

	s.log.Debug().Str("owner", ownerKey).Str("project_id", projectID).Msg("append to missing project ignored")
	return nil, nil
}

// DeleteProject removes the project from the owner's list. Deleting an
// unknown id is a no-op. The active-selection pointer is a transient UI
// concern and is not tracked here.
func (s *SessionService) DeleteProject(ownerKey, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, err := s.loadProjects()
	if err != nil {
		return err
	}

	list := reg[ownerKey]
	kept := list[:0]
	for _, p := range list {
		if p.ID != projectID {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(list) {
		return nil
	}
	reg[ownerKey] = kept
	return s.saveProjects(reg)
}

// Preferences returns the persisted UI preferences, with client defaults for
// anything unset (dark theme, Portuguese).
func (s *SessionService) Preferences() (store.Preferences, error) {
	prefs := store.Preferences{Theme: store.ThemeDark, Language: string(i18n.CodePTBR)}

	var theme store.Theme
	if found, err := s.kv.Get(store.KeyTheme, &theme); err != nil {
		return prefs, err
	} else if found {
		prefs.Theme = theme
	}

	var lang string
	if found, err := s.kv.Get(store.KeyLanguage, &lang); err != nil {
		return prefs, err
	} else if found {
		prefs.Language = lang
	}
	return prefs, nil
}

func (s *SessionService) SetTheme(theme store.Theme) error {
	if theme != store.ThemeLight && theme != store.ThemeDark {
		return fmt.Errorf("unknown theme %q", theme)
	}
	return s.kv.Put(store.KeyTheme, theme)
}

func (s *SessionService) SetLanguage(code i18n.Code) error {
	if !i18n.Supported(code) {
		return fmt.Errorf("unknown language %q", code)
	}
	return s.kv.Put(store.KeyLanguage, string(code))
}

func (s *SessionService) loadRegistry() ([]store.User, error) {
	var registry []store.User
	if _, err := s.kv.Get(store.KeyUserRegistry, &registry); err != nil {
		return nil, fmt.Errorf("failed to load user registry: %w", err)
	}
	return registry, nil
}

func (s *SessionService) loadProjects() (map[string][]store.Project, error) {
	reg := make(map[string][]store.Project)
	if _, err := s.kv.Get(store.KeyProjectRegistry, &reg); err != nil {
		return nil, fmt.Errorf("failed to load project registry: %w", err)
	}
	return reg, nil
}

func (s *SessionService) saveProjects(reg map[string][]store.Project) error {
	if err := s.kv.Put(store.KeyProjectRegistry, reg); err != nil {
		return fmt.Errorf("failed to persist project registry: %w", err)
	}
	return nil
}
