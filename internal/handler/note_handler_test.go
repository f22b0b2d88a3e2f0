package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"noteshare-server/internal/domain"
	"noteshare-server/internal/middleware"
	"noteshare-server/internal/repository"
	"noteshare-server/internal/service"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// In-memory repositories backing the handler tests. They satisfy the same
// interfaces the couch-backed ones do, so the full service and middleware
// stack runs unchanged.

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func (m *memUserRepo) Create(u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	return nil
}

func (m *memUserRepo) FindByID(id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memUserRepo) FindByUsername(username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUserRepo) FindByIDs(ids []string) (map[string]*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]*domain.User)
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (m *memUserRepo) UsernameExists(username string) (bool, error) {
	_, err := m.FindByUsername(username)
	return err == nil, nil
}

func (m *memUserRepo) EmailExists(email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

type memNoteRepo struct {
	mu    sync.Mutex
	notes map[string]*domain.Note
}

func (m *memNoteRepo) Create(n *domain.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *n
	m.notes[n.ID] = &copied
	return nil
}

func (m *memNoteRepo) FindByID(id string) (*domain.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.notes[id]; ok {
		copied := *n
		copied.SharedUsers = append([]string(nil), n.SharedUsers...)
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memNoteRepo) ListByOwner(userID string) ([]*domain.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Note
	for _, n := range m.notes {
		if n.UserID == userID {
			copied := *n
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memNoteRepo) Update(n *domain.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.notes[n.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *n
	copied.SharedUsers = append([]string(nil), n.SharedUsers...)
	m.notes[n.ID] = &copied
	return nil
}

type memVersionRepo struct {
	mu       sync.Mutex
	versions []*domain.NoteVersion
}

func (m *memVersionRepo) SaveVersion(v *domain.NoteVersion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.versions = append(m.versions, v)
	return nil
}

func (m *memVersionRepo) ListByNote(noteID string) ([]*domain.NoteVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.NoteVersion
	for _, v := range m.versions {
		if v.NoteID == noteID {
			out = append(out, v)
		}
	}
	return out, nil
}

type memTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*domain.AuthToken
}

func (m *memTokenRepo) Create(t *domain.AuthToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tokens[t.UserID]; ok {
		return fmt.Errorf("document update conflict")
	}
	m.tokens[t.UserID] = t
	return nil
}

func (m *memTokenRepo) FindByUserID(userID string) (*domain.AuthToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tokens[userID]; ok {
		return t, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memTokenRepo) FindByToken(token string) (*domain.AuthToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.Token == token {
			return t, nil
		}
	}
	return nil, repository.ErrNotFound
}

// newTestRouter wires the same stack cmd/server/main.go does, over in-memory
// storage.
func newTestRouter() *mux.Router {
	userRepo := &memUserRepo{users: make(map[string]*domain.User)}
	noteRepo := &memNoteRepo{notes: make(map[string]*domain.Note)}
	tokenRepo := &memTokenRepo{tokens: make(map[string]*domain.AuthToken)}
	versionRepo := &memVersionRepo{}

	authService := service.NewAuthService(userRepo, tokenRepo, "handler-test-secret")
	userService := service.NewUserService(userRepo)
	noteService := service.NewNoteService(noteRepo, versionRepo, userRepo)

	authHandler := NewAuthHandler(authService)
	userHandler := NewUserHandler(userService)
	noteHandler := NewNoteHandler(noteService)

	r := mux.NewRouter()
	r.HandleFunc("/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/login", authHandler.Login).Methods("POST")

	protected := r.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware(authService))
	protected.HandleFunc("/users/me", userHandler.GetMe).Methods("GET")
	protected.HandleFunc("/notes/create", noteHandler.Create).Methods("POST")
	protected.HandleFunc("/notes", noteHandler.List).Methods("GET")
	protected.HandleFunc("/notes/share", noteHandler.Share).Methods("POST")
	protected.HandleFunc("/notes/version-history/{id}", noteHandler.VersionHistory).Methods("GET")
	protected.HandleFunc("/notes/{id}", noteHandler.Get).Methods("GET")
	protected.HandleFunc("/notes/{id}/update", noteHandler.Update).Methods("PUT")

	return r
}

func doJSON(t *testing.T, r http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func signupAndLogin(t *testing.T, r http.Handler, username string) string {
	t.Helper()

	rec := doJSON(t, r, http.MethodPost, "/signup", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "Password123!",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, r, http.MethodPost, "/login", "", map[string]string{
		"username": username,
		"password": "Password123!",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func createNote(t *testing.T, r http.Handler, token, title, content string) string {
	t.Helper()

	rec := doJSON(t, r, http.MethodPost, "/notes/create", token, map[string]string{
		"title":   title,
		"content": content,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// The create response carries a message only; fetch the ID via the list.
	rec = doJSON(t, r, http.MethodGet, "/notes", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var notes []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &notes))
	for _, n := range notes {
		if n.Title == title {
			return n.ID
		}
	}
	t.Fatalf("created note %q not found in list", title)
	return ""
}

func TestSignupValidation(t *testing.T) {
	r := newTestRouter()

	rec := doJSON(t, r, http.MethodPost, "/signup", "", map[string]string{
		"username": "x",
		"email":    "not-an-email",
		"password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Errors, "username")
	assert.Contains(t, resp.Errors, "email")
	assert.Contains(t, resp.Errors, "password")
}

func TestSignupDuplicateUsername(t *testing.T) {
	r := newTestRouter()
	signupAndLogin(t, r, "alice")

	rec := doJSON(t, r, http.MethodPost, "/signup", "", map[string]string{
		"username": "alice",
		"email":    "other@example.com",
		"password": "Password123!",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "username")
}

func TestLoginWrongPassword(t *testing.T) {
	r := newTestRouter()
	signupAndLogin(t, r, "alice")

	rec := doJSON(t, r, http.MethodPost, "/login", "", map[string]string{
		"username": "alice",
		"password": "WrongPassword!",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid credentials")
}

func TestLoginTokenIsStable(t *testing.T) {
	r := newTestRouter()
	tok1 := signupAndLogin(t, r, "alice")

	rec := doJSON(t, r, http.MethodPost, "/login", "", map[string]string{
		"username": "alice",
		"password": "Password123!",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, tok1, resp.Token)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := newTestRouter()

	rec := doJSON(t, r, http.MethodGet, "/notes", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/notes", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNoteLifecycle(t *testing.T) {
	r := newTestRouter()

	ownerTok := signupAndLogin(t, r, "alice")
	noteID := createNote(t, r, ownerTok, "T", "C")

	rec := doJSON(t, r, http.MethodGet, "/notes/"+noteID, ownerTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var note struct {
		ID        string `json:"id"`
		User      string `json:"user"`
		Title     string `json:"title"`
		Content   string `json:"content"`
		CreatedAt string `json:"created_at"`
		UpdatedAt string `json:"updated_at"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &note))
	assert.Equal(t, noteID, note.ID)
	assert.Equal(t, "T", note.Title)
	assert.Equal(t, "C", note.Content)
	assert.NotEmpty(t, note.User)
	assert.NotEmpty(t, note.CreatedAt)
	assert.NotEmpty(t, note.UpdatedAt)
}

func TestGetNoteHiddenFromNonOwner(t *testing.T) {
	r := newTestRouter()

	ownerTok := signupAndLogin(t, r, "alice")
	strangerTok := signupAndLogin(t, r, "mallory")
	noteID := createNote(t, r, ownerTok, "secret", "x")

	rec := doJSON(t, r, http.MethodGet, "/notes/"+noteID, strangerTok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestShareUpdateAndHistory(t *testing.T) {
	r := newTestRouter()

	ownerTok := signupAndLogin(t, r, "alice")
	friendTok := signupAndLogin(t, r, "bob")
	noteID := createNote(t, r, ownerTok, "T", "base")

	// Resolve bob's ID for the share payload.
	rec := doJSON(t, r, http.MethodGet, "/users/me", friendTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var friend struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &friend))

	rec = doJSON(t, r, http.MethodPost, "/notes/share", ownerTok, map[string]interface{}{
		"note_id": noteID,
		"users":   []string{friend.ID},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, r, http.MethodPut, "/notes/"+noteID+"/update", ownerTok, map[string]string{"content": "X"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, r, http.MethodPut, "/notes/"+noteID+"/update", friendTok, map[string]string{"content": "Y"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, r, http.MethodGet, "/notes/"+noteID, ownerTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var note struct {
		Content string `json:"content"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &note))
	assert.Equal(t, "baseXY", note.Content)

	rec = doJSON(t, r, http.MethodGet, "/notes/version-history/"+noteID, ownerTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var history []struct {
		Timestamp string `json:"timestamp"`
		User      string `json:"user"`
		Content   string `json:"content"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 2)
	assert.Equal(t, "alice", history[0].User)
	assert.Equal(t, "X", history[0].Content)
	assert.Equal(t, "bob", history[1].User)
	assert.Equal(t, "Y", history[1].Content)

	// Shared users can write but the history read stays owner-only.
	rec = doJSON(t, r, http.MethodGet, "/notes/version-history/"+noteID, friendTok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateByStrangerForbidden(t *testing.T) {
	r := newTestRouter()

	ownerTok := signupAndLogin(t, r, "alice")
	strangerTok := signupAndLogin(t, r, "mallory")
	noteID := createNote(t, r, ownerTok, "T", "base")

	rec := doJSON(t, r, http.MethodPut, "/notes/"+noteID+"/update", strangerTok, map[string]string{"content": "Z"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/notes/"+noteID, ownerTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var note struct {
		Content string `json:"content"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &note))
	assert.Equal(t, "base", note.Content)
}

func TestUpdateMissingNote(t *testing.T) {
	r := newTestRouter()
	tok := signupAndLogin(t, r, "alice")

	rec := doJSON(t, r, http.MethodPut, "/notes/no-such-id/update", tok, map[string]string{"content": "Z"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
