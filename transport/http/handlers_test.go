package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duetchat/duet/adapters/identity"
	"github.com/duetchat/duet/adapters/store"
	"github.com/duetchat/duet/adapters/tokenizer"
	"github.com/duetchat/duet/core"
	"github.com/duetchat/duet/realtime"
	"github.com/duetchat/duet/service"
	"github.com/duetchat/duet/transport/ws"
)

type captureMailer struct {
	mu    sync.Mutex
	codes map[string]string
}

func (m *captureMailer) SendCode(ctx context.Context, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[email] = code
	return nil
}

func (m *captureMailer) codeFor(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[email]
}

type testEnv struct {
	engine   *gin.Engine
	mail     *captureMailer
	registry *realtime.Registry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	tok := tokenizer.NewJWTTokenizer([]byte("access-secret"), []byte("refresh-secret"))
	ms := store.NewMemoryStore()

	tokens := service.NewTokenService(tok, ms, 15*time.Minute, 7*24*time.Hour)
	challenges := service.NewChallengeService(ms)
	mail := &captureMailer{codes: make(map[string]string)}

	idents := identity.NewMemoryStore()
	auth := service.NewAuthService(idents, tokens, challenges, mail, nil, "pepper", log)

	registry := realtime.NewRegistry(log, tokens, nil)
	router := realtime.NewRouter(log, registry)
	gateway := ws.NewGateway(log, registry)

	authHandlers := NewAuthHandlers(auth, 7*24*time.Hour, false)
	chatHandlers := NewChatHandlers(idents, nil, nil, router)

	engine := SetupRouter(authHandlers, chatHandlers, tokens, gateway)

	return &testEnv{engine: engine, mail: mail, registry: registry}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, cookies []*http.Cookie, bearer string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

// signupAndSignin drives the full registration flow and returns the access
// token plus the refresh cookie.
func (e *testEnv) signupAndSignin(t *testing.T, email string) (string, *http.Cookie) {
	t.Helper()

	w := e.do(t, http.MethodPost, "/auth/signup", gin.H{"email": email, "password": "s3cret-pass"}, nil, "")
	require.Equal(t, http.StatusCreated, w.Code)

	code := e.mail.codeFor(email)
	require.NotEmpty(t, code)

	w = e.do(t, http.MethodPost, "/auth/verify", gin.H{"email": email, "code": code}, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodPost, "/auth/signin", gin.H{"email": email, "password": "s3cret-pass"}, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)

	cookie := refreshCookieFrom(t, w)
	require.NotNil(t, cookie)

	return resp.AccessToken, cookie
}

func refreshCookieFrom(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == refreshCookie {
			return c
		}
	}
	return nil
}

func TestAuthFlow_SignupVerifySignin(t *testing.T) {
	env := newTestEnv(t)

	access, cookie := env.signupAndSignin(t, "alice@example.com")
	assert.NotEmpty(t, access)

	// The refresh token travels only as an http-only strict cookie.
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.NotEmpty(t, cookie.Value)
}

func TestAuthFlow_SigninBeforeVerify(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/auth/signup", gin.H{"email": "bob@example.com", "password": "s3cret-pass"}, nil, "")
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodPost, "/auth/signin", gin.H{"email": "bob@example.com", "password": "s3cret-pass"}, nil, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuthFlow_VerifyWrongCode(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/auth/signup", gin.H{"email": "bob@example.com", "password": "s3cret-pass"}, nil, "")
	require.Equal(t, http.StatusCreated, w.Code)

	wrong := "000000"
	if env.mail.codeFor("bob@example.com") == wrong {
		wrong = "000001"
	}

	w = env.do(t, http.MethodPost, "/auth/verify", gin.H{"email": "bob@example.com", "code": wrong}, nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthFlow_RefreshRotationAndReuse(t *testing.T) {
	env := newTestEnv(t)

	_, oldCookie := env.signupAndSignin(t, "alice@example.com")

	w := env.do(t, http.MethodPost, "/auth/refresh", nil, []*http.Cookie{oldCookie}, "")
	require.Equal(t, http.StatusOK, w.Code)

	newCookie := refreshCookieFrom(t, w)
	require.NotNil(t, newCookie)
	require.NotEqual(t, oldCookie.Value, newCookie.Value)

	// Replaying the superseded token is surfaced as a revoked session,
	// distinct from plain expiry.
	w = env.do(t, http.MethodPost, "/auth/refresh", nil, []*http.Cookie{oldCookie}, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "session_revoked")

	// The rejection also clears the dead cookie so the client does not
	// keep replaying it.
	dead := refreshCookieFrom(t, w)
	require.NotNil(t, dead)
	assert.Empty(t, dead.Value)
	assert.Negative(t, dead.MaxAge)

	// The current token still works.
	w = env.do(t, http.MethodPost, "/auth/refresh", nil, []*http.Cookie{newCookie}, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthFlow_RefreshWithoutCookie(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/auth/refresh", nil, nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthFlow_Logout(t *testing.T) {
	env := newTestEnv(t)

	_, cookie := env.signupAndSignin(t, "alice@example.com")

	w := env.do(t, http.MethodPost, "/auth/logout", nil, []*http.Cookie{cookie}, "")
	require.Equal(t, http.StatusOK, w.Code)

	cleared := refreshCookieFrom(t, w)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	// The revoked token cannot be rotated.
	w = env.do(t, http.MethodPost, "/auth/refresh", nil, []*http.Cookie{cookie}, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "session_revoked")
}

func TestMiddleware_RejectsMissingAndBadTokens(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/connections", nil, nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/connections", nil, nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWSHandshake_RejectsWithoutToken(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/ws", nil, nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	_, ok := env.registry.LookupChannel("anyone")
	assert.False(t, ok)
}

func TestChatHandlers_DeliverEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	registry := realtime.NewRegistry(log, nil, nil)
	router := realtime.NewRouter(log, registry)

	idents := identity.NewMemoryStore()
	ctx := context.Background()
	sender, err := idents.Create(ctx, "alice@example.com", "hash")
	require.NoError(t, err)
	recv, err := idents.Create(ctx, "bob@example.com", "hash")
	require.NoError(t, err)
	require.NoError(t, idents.MarkVerified(ctx, "bob@example.com"))

	receiver := realtime.NewClient(recv.ID, "chan-b", 8)
	registry.Bind(recv.ID, receiver)

	messages := &fakeMessageStore{}
	handlers := NewChatHandlers(idents, messages, nil, router)

	engine := gin.New()
	engine.POST("/messages", func(c *gin.Context) {
		c.Set(ctxIdentityID, sender.ID)
		c.Set(ctxEmail, sender.Email)
		handlers.SendMessage(c)
	})

	body, _ := json.Marshal(gin.H{"receiver_id": recv.ID, "content": "hello"})
	req := httptest.NewRequest(http.MethodPost, "/messages", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	select {
	case ev := <-receiver.Events():
		assert.Equal(t, core.EventNewMessage, ev.Kind)
	default:
		t.Fatal("expected a NEW_MESSAGE event on the receiver channel")
	}
}

func TestChatHandlers_DeleteConnection(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	registry := realtime.NewRegistry(log, nil, nil)
	router := realtime.NewRouter(log, registry)

	connections := &fakeConnectionStore{pairs: map[string]string{"user-1": "user-2"}}
	handlers := NewChatHandlers(identity.NewMemoryStore(), nil, connections, router)

	engine := gin.New()
	engine.DELETE("/connections/:userId", func(c *gin.Context) {
		c.Set(ctxIdentityID, "user-1")
		c.Set(ctxEmail, "alice@example.com")
		handlers.DeleteConnection(c)
	})

	del := func(other string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodDelete, "/connections/"+other, nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w
	}

	w := del("user-2")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, connections.pairs)

	// Already removed, and never existed, both surface as not found.
	assert.Equal(t, http.StatusNotFound, del("user-2").Code)
	assert.Equal(t, http.StatusNotFound, del("user-9").Code)
}

type fakeConnectionStore struct {
	mu    sync.Mutex
	pairs map[string]string
}

func (f *fakeConnectionStore) Create(ctx context.Context, userID, connectedUserID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pairs[userID] = connectedUserID
	return nil
}

func (f *fakeConnectionStore) List(ctx context.Context, userID string) ([]core.Connection, error) {
	return nil, nil
}

func (f *fakeConnectionStore) Delete(ctx context.Context, userID, connectedUserID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pairs[userID] != connectedUserID {
		return core.ErrNotFound
	}
	delete(f.pairs, userID)
	return nil
}

type fakeMessageStore struct {
	mu   sync.Mutex
	msgs []core.Message
}

func (f *fakeMessageStore) Insert(ctx context.Context, senderID, receiverID, content string, fileID *string) (*core.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg := core.Message{
		ID:         "m-1",
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		FileID:     fileID,
		CreatedAt:  time.Now(),
	}
	f.msgs = append(f.msgs, msg)
	return &msg, nil
}

func (f *fakeMessageStore) History(ctx context.Context, userID, otherID string) ([]core.Message, error) {
	return nil, nil
}

func (f *fakeMessageStore) Edit(ctx context.Context, messageID, senderID, content string) (*core.Message, error) {
	return nil, core.ErrNotFound
}

func (f *fakeMessageStore) SoftDelete(ctx context.Context, messageID, senderID string) (*core.Message, error) {
	return nil, core.ErrNotFound
}
