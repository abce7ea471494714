package core

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sakuracore.ai/sakura-core/internal/i18n"
	"sakuracore.ai/sakura-core/internal/store"
)

func newSessionService(t *testing.T) (*SessionService, store.KV) {
	t.Helper()
	kv := store.NewMemoryKV()
	return NewSessionService(kv, zerolog.Nop()), kv
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newSessionService(t)

	user, err := svc.Register("ada@example.com", "Ada", "secret")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Empty(t, user.CredentialHash, "API-facing user must not carry the hash")

	logged, err := svc.Login("ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)

	active, err := svc.ActiveSession()
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, user.ID, active.ID)
}

func TestRegisterDuplicateIdentity(t *testing.T) {
	svc, kv := newSessionService(t)

	_, err := svc.Register("ada@example.com", "Ada", "secret")
	require.NoError(t, err)

	_, err = svc.Register("ada@example.com", "Imposter", "other")
	assert.ErrorIs(t, err, ErrDuplicateIdentity)

	// registry unchanged by the failed attempt
	var registry []store.User
	found, err := kv.Get(store.KeyUserRegistry, &registry)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, registry, 1)
	assert.Equal(t, "Ada", registry[0].Name)
}

func TestRegistryNeverStoresPlaintextCredential(t *testing.T) {
	svc, kv := newSessionService(t)

	_, err := svc.Register("ada@example.com", "Ada", "hunter2")
	require.NoError(t, err)

	var registry []store.User
	_, err = kv.Get(store.KeyUserRegistry, &registry)
	require.NoError(t, err)
	require.Len(t, registry, 1)
	assert.NotEmpty(t, registry[0].CredentialHash)
	assert.NotContains(t, registry[0].CredentialHash, "hunter2")
}

func TestLoginUnknownIdentity(t *testing.T) {
	svc, _ := newSessionService(t)

	_, err := svc.Login("ghost@example.com")
	assert.ErrorIs(t, err, ErrIdentityNotFound)

	active, err := svc.ActiveSession()
	require.NoError(t, err)
	assert.Nil(t, active, "failed login must not change the active session")
}

func TestLogoutReturnsToGuestState(t *testing.T) {
	svc, _ := newSessionService(t)

	_, err := svc.Register("ada@example.com", "Ada", "secret")
	require.NoError(t, err)
	_, err = svc.Login("ada@example.com")
	require.NoError(t, err)

	require.NoError(t, svc.Logout())

	active, err := svc.ActiveSession()
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestCreateProjectDistinctIDs(t *testing.T) {
	svc, _ := newSessionService(t)

	p1, err := svc.CreateProject(store.GuestKey, "", i18n.CodeEN)
	require.NoError(t, err)
	p2, err := svc.CreateProject(store.GuestKey, "", i18n.CodeEN)
	require.NoError(t, err)

	assert.NotEqual(t, p1.ID, p2.ID)

	projects, err := svc.ListProjects(store.GuestKey)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	// newest first: create prepends
	assert.Equal(t, p2.ID, projects[0].ID)
	assert.Equal(t, p1.ID, projects[1].ID)
}

func TestCreateProjectDefaultNameIsLocalized(t *testing.T) {
	svc, _ := newSessionService(t)

	p, err := svc.CreateProject(store.GuestKey, "", i18n.CodeEN)
	require.NoError(t, err)
	assert.Equal(t, "New Orchestration #1", p.Name)

	p, err = svc.CreateProject(store.GuestKey, "", i18n.CodePTBR)
	require.NoError(t, err)
	assert.Equal(t, "Nova Orquestração #2", p.Name)
}

func TestAppendMessagesConcatenatesInCallOrder(t *testing.T) {
	svc, _ := newSessionService(t)

	p, err := svc.CreateProject(store.GuestKey, "thread", i18n.CodeEN)
	require.NoError(t, err)

	batches := [][]store.Message{
		{{ID: "1", Role: store.RoleUser, Content: "a"}},
		{{ID: "2", Role: store.RoleAssistant, Content: "b"}, {ID: "3", Role: store.RoleUser, Content: "c"}},
		{{ID: "4", Role: store.RoleAssistant, Content: "d"}},
	}
	for _, batch := range batches {
		_, err := svc.AppendMessages(store.GuestKey, p.ID, batch)
		require.NoError(t, err)
	}

	got, err := svc.GetProject(store.GuestKey, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Messages, 4)
	for i, want := range []string{"a", "b", "c", "d"} {
		assert.Equal(t, want, got.Messages[i].Content)
	}
}

func TestAppendMessagesBumpsLastUpdated(t *testing.T) {
	svc, _ := newSessionService(t)

	p, err := svc.CreateProject(store.GuestKey, "thread", i18n.CodeEN)
	require.NoError(t, err)
	created := p.LastUpdated

	time.Sleep(5 * time.Millisecond)
	updated, err := svc.AppendMessages(store.GuestKey, p.ID, []store.Message{{ID: "1", Role: store.RoleUser, Content: "a"}})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.True(t, updated.LastUpdated.After(created))
}

func TestAppendMessagesMissingProjectIsSilentNoOp(t *testing.T) {
	svc, _ := newSessionService(t)

	_, err := svc.CreateProject(store.GuestKey, "thread", i18n.CodeEN)
	require.NoError(t, err)

	p, err := svc.AppendMessages(store.GuestKey, "no-such-project", []store.Message{{ID: "1", Role: store.RoleUser, Content: "a"}})
	require.NoError(t, err)
	assert.Nil(t, p)

	projects, err := svc.ListProjects(store.GuestKey)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Empty(t, projects[0].Messages)
}

func TestDeleteProject(t *testing.T) {
	svc, _ := newSessionService(t)

	p1, err := svc.CreateProject(store.GuestKey, "keep", i18n.CodeEN)
	require.NoError(t, err)
	p2, err := svc.CreateProject(store.GuestKey, "drop", i18n.CodeEN)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProject(store.GuestKey, p2.ID))

	projects, err := svc.ListProjects(store.GuestKey)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, p1.ID, projects[0].ID)

	// deleting an unknown id is a no-op
	require.NoError(t, svc.DeleteProject(store.GuestKey, "no-such-project"))
	projects, err = svc.ListProjects(store.GuestKey)
	require.NoError(t, err)
	assert.Len(t, projects, 1)
}

func TestGuestAndUserPartitionsStayDisjoint(t *testing.T) {
	svc, _ := newSessionService(t)

	guestProject, err := svc.CreateProject(store.GuestKey, "guest thread", i18n.CodeEN)
	require.NoError(t, err)

	user, err := svc.Register("ada@example.com", "Ada", "secret")
	require.NoError(t, err)
	_, err = svc.Login("ada@example.com")
	require.NoError(t, err)

	// logging in must not migrate guest history into the user partition
	userProjects, err := svc.ListProjects(user.ID)
	require.NoError(t, err)
	assert.Empty(t, userProjects)

	guestProjects, err := svc.ListProjects(store.GuestKey)
	require.NoError(t, err)
	require.Len(t, guestProjects, 1)
	assert.Equal(t, guestProject.ID, guestProjects[0].ID)

	// and user projects never leak into the guest partition
	_, err = svc.CreateProject(user.ID, "user thread", i18n.CodeEN)
	require.NoError(t, err)

	guestProjects, err = svc.ListProjects(store.GuestKey)
	require.NoError(t, err)
	assert.Len(t, guestProjects, 1)
}

func TestStateSurvivesServiceRestart(t *testing.T) {
	kv := store.NewMemoryKV()
	svc := NewSessionService(kv, zerolog.Nop())

	_, err := svc.Register("ada@example.com", "Ada", "secret")
	require.NoError(t, err)
	_, err = svc.Login("ada@example.com")
	require.NoError(t, err)
	p, err := svc.CreateProject(store.GuestKey, "thread", i18n.CodeEN)
	require.NoError(t, err)

	// a new service over the same persistence sees the same state
	reopened := NewSessionService(kv, zerolog.Nop())

	active, err := reopened.ActiveSession()
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "ada@example.com", active.Email)

	projects, err := reopened.ListProjects(store.GuestKey)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, p.ID, projects[0].ID)
}

func TestPreferences(t *testing.T) {
	svc, _ := newSessionService(t)

	prefs, err := svc.Preferences()
	require.NoError(t, err)
	assert.Equal(t, store.ThemeDark, prefs.Theme)
	assert.Equal(t, "pt-BR", prefs.Language)

	require.NoError(t, svc.SetTheme(store.ThemeLight))
	require.NoError(t, svc.SetLanguage(i18n.CodeJA))

	prefs, err = svc.Preferences()
	require.NoError(t, err)
	assert.Equal(t, store.ThemeLight, prefs.Theme)
	assert.Equal(t, "ja", prefs.Language)

	assert.Error(t, svc.SetTheme("sepia"))
	assert.Error(t, svc.SetLanguage("fr"))
}
