package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"sakuracore.ai/sakura-core/internal/auth"
	"sakuracore.ai/sakura-core/internal/core"
	"sakuracore.ai/sakura-core/internal/i18n"
	"sakuracore.ai/sakura-core/internal/store"
)

type APIHandler struct {
	sessions  *core.SessionService
	chat      *core.ChatService
	jwtSecret string
	log       zerolog.Logger
}

func NewAPIHandler(sessions *core.SessionService, chat *core.ChatService, jwtSecret string, logger zerolog.Logger) *APIHandler {
	return &APIHandler{sessions: sessions, chat: chat, jwtSecret: jwtSecret, log: logger}
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *APIHandler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

type RegisterRequest struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	Credential string `json:"credential"`
}

type SessionResponse struct {
	User  store.User `json:"user"`
	Token string     `json:"token"`
}

// RegisterHandler creates a user and, matching the client flow, immediately
// activates a session for it.
func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Email == "" || req.Name == "" || req.Credential == "" {
		h.writeError(w, http.StatusBadRequest, "email, name and credential are required")
		return
	}

	user, err := h.sessions.Register(req.Email, req.Name, req.Credential)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateIdentity) {
			h.writeError(w, http.StatusConflict, "identity already registered")
			return
		}
		h.log.Error().Err(err).Msg("registration failed")
		h.writeError(w, http.StatusInternalServerError, "failed to register")
		return
	}

	if _, err := h.sessions.Login(req.Email); err != nil {
		h.log.Error().Err(err).Msg("post-registration login failed")
		h.writeError(w, http.StatusInternalServerError, "failed to activate session")
		return
	}

	token, err := auth.GenerateJWT(user.ID, h.jwtSecret)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to generate token")
		h.writeError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	h.writeJSON(w, http.StatusCreated, SessionResponse{User: *user, Token: token})
}

type LoginRequest struct {
	Email      string `json:"email"`
	Credential string `json:"credential"`
}

// LoginHandler activates a session. The credential must be present but is
// not verified against the stored hash; only identity existence is checked.
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Email == "" || req.Credential == "" {
		h.writeError(w, http.StatusBadRequest, "email and credential are required")
		return
	}

	user, err := h.sessions.Login(req.Email)
	if err != nil {
		if errors.Is(err, core.ErrIdentityNotFound) {
			h.writeError(w, http.StatusNotFound, "identity not found")
			return
		}
		h.log.Error().Err(err).Msg("login failed")
		h.writeError(w, http.StatusInternalServerError, "failed to log in")
		return
	}

	token, err := auth.GenerateJWT(user.ID, h.jwtSecret)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to generate token")
		h.writeError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	h.writeJSON(w, http.StatusOK, SessionResponse{User: *user, Token: token})
}

func (h *APIHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(); err != nil {
		h.log.Error().Err(err).Msg("logout failed")
		h.writeError(w, http.StatusInternalServerError, "failed to log out")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SessionHandler returns the persisted active session, or 204 in guest state.
func (h *APIHandler) SessionHandler(w http.ResponseWriter, r *http.Request) {
	user, err := h.sessions.ActiveSession()
	if err != nil {
		h.log.Error().Err(err).Msg("failed to read session")
		h.writeError(w, http.StatusInternalServerError, "failed to read session")
		return
	}
	if user == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.writeJSON(w, http.StatusOK, user.Public())
}

// ListProjectsHandler returns the caller's projects sorted for display:
// last-updated descending. Storage order is insertion order and is not
// exposed.
func (h *APIHandler) ListProjectsHandler(w http.ResponseWriter, r *http.Request) {
	projects, err := h.sessions.ListProjects(OwnerKey(r))
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list projects")
		h.writeError(w, http.StatusInternalServerError, "failed to list projects")
		return
	}

	sorted := make([]store.Project, len(projects))
	copy(sorted, projects)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].LastUpdated.After(sorted[j].LastUpdated)
	})

	if sorted == nil {
		sorted = []store.Project{}
	}
	h.writeJSON(w, http.StatusOK, sorted)
}

type CreateProjectRequest struct {
	Name     string `json:"name,omitempty"`
	Language string `json:"language,omitempty"`
}

func (h *APIHandler) CreateProjectHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if r.Body != http.NoBody {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}

	project, err := h.sessions.CreateProject(OwnerKey(r), req.Name, i18n.Code(req.Language))
	if err != nil {
		h.log.Error().Err(err).Msg("failed to create project")
		h.writeError(w, http.StatusInternalServerError, "failed to create project")
		return
	}
	h.writeJSON(w, http.StatusCreated, project)
}

func (h *APIHandler) GetProjectHandler(w http.ResponseWriter, r *http.Request) {
	project, err := h.sessions.GetProject(OwnerKey(r), chi.URLParam(r, "projectID"))
	if err != nil {
		h.log.Error().Err(err).Msg("failed to get project")
		h.writeError(w, http.StatusInternalServerError, "failed to get project")
		return
	}
	if project == nil {
		h.writeError(w, http.StatusNotFound, "project not found")
		return
	}
	h.writeJSON(w, http.StatusOK, project)
}

// DeleteProjectHandler removes a project. Idempotent: deleting an unknown id
// still returns 204.
func (h *APIHandler) DeleteProjectHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.DeleteProject(OwnerKey(r), chi.URLParam(r, "projectID")); err != nil {
		h.log.Error().Err(err).Msg("failed to delete project")
		h.writeError(w, http.StatusInternalServerError, "failed to delete project")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type PostMessageRequest struct {
	Content  string `json:"content"`
	Language string `json:"language,omitempty"`
}

// PostMessageHandler runs one conversation turn and returns the assistant
// message. Model failures still produce an assistant message with the
// fallback text, so this handler only errors on store problems.
func (h *APIHandler) PostMessageHandler(w http.ResponseWriter, r *http.Request) {
	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Content == "" {
		h.writeError(w, http.StatusBadRequest, "message content cannot be empty")
		return
	}

	msg, err := h.chat.SendMessage(r.Context(), OwnerKey(r), chi.URLParam(r, "projectID"), req.Content, i18n.Code(req.Language))
	if err != nil {
		h.log.Error().Err(err).Msg("failed to post message")
		h.writeError(w, http.StatusInternalServerError, "failed to post message")
		return
	}
	if msg == nil {
		h.writeError(w, http.StatusNotFound, "project not found")
		return
	}
	h.writeJSON(w, http.StatusOK, msg)
}

type CodeActionRequest struct {
	Code     string `json:"code"`
	Language string `json:"language,omitempty"`
}

type ImproveCodeResponse struct {
	Code    string `json:"code"`
	Thought string `json:"thought,omitempty"`
}

func (h *APIHandler) ImproveCodeHandler(w http.ResponseWriter, r *http.Request) {
	var req CodeActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Code == "" {
		h.writeError(w, http.StatusBadRequest, "code cannot be empty")
		return
	}

	reply := h.chat.ImproveCode(r.Context(), req.Code, i18n.Code(req.Language))
	h.writeJSON(w, http.StatusOK, ImproveCodeResponse{Code: reply.Answer, Thought: reply.Thought})
}

type ExplainCodeResponse struct {
	Explanation string `json:"explanation"`
	Thought     string `json:"thought,omitempty"`
}

func (h *APIHandler) ExplainCodeHandler(w http.ResponseWriter, r *http.Request) {
	var req CodeActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Code == "" {
		h.writeError(w, http.StatusBadRequest, "code cannot be empty")
		return
	}

	reply := h.chat.ExplainCode(r.Context(), req.Code, i18n.Code(req.Language))
	h.writeJSON(w, http.StatusOK, ExplainCodeResponse{Explanation: reply.Answer, Thought: reply.Thought})
}

func (h *APIHandler) GetPreferencesHandler(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.sessions.Preferences()
	if err != nil {
		h.log.Error().Err(err).Msg("failed to read preferences")
		h.writeError(w, http.StatusInternalServerError, "failed to read preferences")
		return
	}
	h.writeJSON(w, http.StatusOK, prefs)
}

type UpdatePreferencesRequest struct {
	Theme    string `json:"theme,omitempty"`
	Language string `json:"language,omitempty"`
}

func (h *APIHandler) UpdatePreferencesHandler(w http.ResponseWriter, r *http.Request) {
	var req UpdatePreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if req.Theme != "" {
		if err := h.sessions.SetTheme(store.Theme(req.Theme)); err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.Language != "" {
		if err := h.sessions.SetLanguage(i18n.Code(req.Language)); err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	prefs, err := h.sessions.Preferences()
	if err != nil {
		h.log.Error().Err(err).Msg("failed to read preferences")
		h.writeError(w, http.StatusInternalServerError, "failed to read preferences")
		return
	}
	h.writeJSON(w, http.StatusOK, prefs)
}
