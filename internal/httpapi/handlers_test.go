// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Civicore Contributors

package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/civicore/civicore/internal/auth"
	"github.com/civicore/civicore/internal/community"
)

// memUserRepo is an in-memory auth.UserRepository for handler tests.
type memUserRepo struct {
	mu    sync.Mutex
	users map[ulid.ULID]*auth.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[ulid.ULID]*auth.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *auth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return auth.ErrDuplicateEmail
		}
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id ulid.ULID) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (r *memUserRepo) UpdateProfile(_ context.Context, id ulid.ULID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return auth.ErrNotFound
	}
	user.Name = name
	return nil
}

func (r *memUserRepo) UpdatePassword(_ context.Context, id ulid.ULID, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return auth.ErrNotFound
	}
	user.PasswordHash = hash
	return nil
}

// memEventRepo is an in-memory community.EventRepository.
type memEventRepo struct {
	mu           sync.Mutex
	events       map[ulid.ULID]*community.Event
	participants map[ulid.ULID][]ulid.ULID
}

func newMemEventRepo() *memEventRepo {
	return &memEventRepo{
		events:       make(map[ulid.ULID]*community.Event),
		participants: make(map[ulid.ULID][]ulid.ULID),
	}
}

func (r *memEventRepo) Create(_ context.Context, event *community.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *event
	r.events[event.ID] = &clone
	return nil
}

func (r *memEventRepo) Get(_ context.Context, id ulid.ULID) (*community.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.events[id]
	if !ok {
		return nil, community.ErrNotFound
	}
	clone := *event
	return &clone, nil
}

func (r *memEventRepo) List(_ context.Context) ([]*community.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*community.Event, 0, len(r.events))
	for _, event := range r.events {
		clone := *event
		out = append(out, &clone)
	}
	return out, nil
}

func (r *memEventRepo) Join(_ context.Context, eventID, userID ulid.ULID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.participants[eventID] {
		if id == userID {
			return nil
		}
	}
	r.participants[eventID] = append(r.participants[eventID], userID)
	return nil
}

func (r *memEventRepo) Participants(_ context.Context, eventID ulid.ULID) ([]ulid.ULID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ulid.ULID(nil), r.participants[eventID]...), nil
}

// memMessageRepo is an in-memory community.MessageRepository.
type memMessageRepo struct {
	mu       sync.Mutex
	messages []*community.Message
}

func (r *memMessageRepo) Create(_ context.Context, message *community.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *message
	r.messages = append(r.messages, &clone)
	return nil
}

func (r *memMessageRepo) ListByEvent(_ context.Context, eventID ulid.ULID) ([]*community.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*community.Message
	for _, m := range r.messages {
		if m.EventID == eventID {
			clone := *m
			out = append(out, &clone)
		}
	}
	return out, nil
}

type testAPI struct {
	router chi.Router
	events *memEventRepo
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	issuer, err := auth.NewTokenIssuer([]byte("handler-test-secret"), time.Hour)
	require.NoError(t, err)

	svc, err := auth.NewService(newMemUserRepo(), hasher, issuer)
	require.NoError(t, err)

	events := newMemEventRepo()
	handler, err := NewHandler(svc, events, &memMessageRepo{}, nil, nil)
	require.NoError(t, err)

	return &testAPI{router: handler.Router(), events: events}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) register(t *testing.T, email, password, role string) sessionResponse {
	t.Helper()

	rec := a.do(t, http.MethodPost, "/api/register", "", registerRequest{
		Email:    email,
		Password: password,
		Role:     role,
	})
	require.Equal(t, http.StatusCreated, rec.Code, "register failed: %s", rec.Body.String())

	var session sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	return session
}

func TestRegister(t *testing.T) {
	t.Run("creates user and returns token", func(t *testing.T) {
		api := newTestAPI(t)
		session := api.register(t, "alice@example.org", "Secret123!", "")

		assert.NotEmpty(t, session.Token)
		assert.Equal(t, "alice@example.org", session.User.Email)
		assert.Equal(t, "volunteer", session.User.Role)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		api := newTestAPI(t)
		api.register(t, "alice@example.org", "Secret123!", "")

		rec := api.do(t, http.MethodPost, "/api/register", "", registerRequest{
			Email:    "ALICE@example.org",
			Password: "Other456!",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("invalid email rejected", func(t *testing.T) {
		api := newTestAPI(t)
		rec := api.do(t, http.MethodPost, "/api/register", "", registerRequest{
			Email:    "not-an-email",
			Password: "Secret123!",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body rejected", func(t *testing.T) {
		api := newTestAPI(t)
		req := httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader("{nope"))
		rec := httptest.NewRecorder()
		api.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("response never contains password material", func(t *testing.T) {
		api := newTestAPI(t)
		rec := api.do(t, http.MethodPost, "/api/register", "", registerRequest{
			Email:    "bob@example.org",
			Password: "Secret123!",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.NotContains(t, rec.Body.String(), "Secret123!")
		assert.NotContains(t, rec.Body.String(), "password")
	})
}

func TestLogin(t *testing.T) {
	t.Run("valid credentials return token", func(t *testing.T) {
		api := newTestAPI(t)
		api.register(t, "alice@example.org", "Secret123!", "")

		rec := api.do(t, http.MethodPost, "/api/login", "", loginRequest{
			Email:    "alice@example.org",
			Password: "Secret123!",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var session sessionResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
		assert.NotEmpty(t, session.Token)
	})

	t.Run("unknown email and wrong password are indistinguishable", func(t *testing.T) {
		api := newTestAPI(t)
		api.register(t, "alice@example.org", "Secret123!", "")

		unknownRec := api.do(t, http.MethodPost, "/api/login", "", loginRequest{
			Email:    "nobody@example.org",
			Password: "Secret123!",
		})
		wrongRec := api.do(t, http.MethodPost, "/api/login", "", loginRequest{
			Email:    "alice@example.org",
			Password: "Secret124!",
		})

		assert.Equal(t, http.StatusUnauthorized, unknownRec.Code)
		assert.Equal(t, http.StatusUnauthorized, wrongRec.Code)
		assert.Equal(t, unknownRec.Body.String(), wrongRec.Body.String(),
			"both failure modes must produce identical responses")
	})
}

func TestMe(t *testing.T) {
	t.Run("returns the authenticated user", func(t *testing.T) {
		api := newTestAPI(t)
		session := api.register(t, "alice@example.org", "Secret123!", "")

		rec := api.do(t, http.MethodGet, "/api/me", session.Token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var user userResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
		assert.Equal(t, session.User.ID, user.ID)
	})

	t.Run("missing token", func(t *testing.T) {
		api := newTestAPI(t)
		rec := api.do(t, http.MethodGet, "/api/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		api := newTestAPI(t)
		rec := api.do(t, http.MethodGet, "/api/me", "not.a.token", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestEvents(t *testing.T) {
	starts := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Second)

	t.Run("volunteer cannot create events", func(t *testing.T) {
		api := newTestAPI(t)
		session := api.register(t, "vol@example.org", "Secret123!", "")

		rec := api.do(t, http.MethodPost, "/api/events", session.Token, createEventRequest{
			Title:    "Cleanup",
			StartsAt: starts,
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("ngo creates and lists events", func(t *testing.T) {
		api := newTestAPI(t)
		session := api.register(t, "ngo@example.org", "Secret123!", "ngo")

		rec := api.do(t, http.MethodPost, "/api/events", session.Token, createEventRequest{
			Title:    "River cleanup",
			Location: "East bank",
			StartsAt: starts,
			Capacity: 25,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var created eventResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		assert.Equal(t, session.User.ID, created.HostID)

		listRec := api.do(t, http.MethodGet, "/api/events", session.Token, nil)
		require.Equal(t, http.StatusOK, listRec.Code)

		var events []eventResponse
		require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &events))
		require.Len(t, events, 1)
		assert.Equal(t, "River cleanup", events[0].Title)
	})

	t.Run("empty title rejected", func(t *testing.T) {
		api := newTestAPI(t)
		session := api.register(t, "ngo@example.org", "Secret123!", "ngo")

		rec := api.do(t, http.MethodPost, "/api/events", session.Token, createEventRequest{
			Title:    "   ",
			StartsAt: starts,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown event is 404", func(t *testing.T) {
		api := newTestAPI(t)
		session := api.register(t, "vol@example.org", "Secret123!", "")

		rec := api.do(t, http.MethodGet, "/api/events/"+ulid.Make().String(), session.Token, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed event ID is 404", func(t *testing.T) {
		api := newTestAPI(t)
		session := api.register(t, "vol@example.org", "Secret123!", "")

		rec := api.do(t, http.MethodGet, "/api/events/zzz", session.Token, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestJoinEvent(t *testing.T) {
	starts := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Second)

	setup := func(t *testing.T) (*testAPI, sessionResponse, string) {
		api := newTestAPI(t)
		host := api.register(t, "ngo@example.org", "Secret123!", "ngo")
		rec := api.do(t, http.MethodPost, "/api/events", host.Token, createEventRequest{
			Title:    "Cleanup",
			StartsAt: starts,
		})
		require.Equal(t, http.StatusCreated, rec.Code)

		var event eventResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &event))
		return api, host, event.ID
	}

	t.Run("join succeeds and repeats are no-ops", func(t *testing.T) {
		api, _, eventID := setup(t)
		vol := api.register(t, "vol@example.org", "Secret123!", "")

		first := api.do(t, http.MethodPost, "/api/events/"+eventID+"/join", vol.Token, nil)
		assert.Equal(t, http.StatusNoContent, first.Code)

		second := api.do(t, http.MethodPost, "/api/events/"+eventID+"/join", vol.Token, nil)
		assert.Equal(t, http.StatusNoContent, second.Code)

		id, err := ulid.Parse(eventID)
		require.NoError(t, err)
		participants, err := api.events.Participants(context.Background(), id)
		require.NoError(t, err)
		assert.Len(t, participants, 1)
	})

	t.Run("joining unknown event is 404", func(t *testing.T) {
		api, host, _ := setup(t)
		rec := api.do(t, http.MethodPost, "/api/events/"+ulid.Make().String()+"/join", host.Token, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestEventMessages(t *testing.T) {
	starts := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Second)

	setup := func(t *testing.T) (*testAPI, sessionResponse, string) {
		api := newTestAPI(t)
		host := api.register(t, "ngo@example.org", "Secret123!", "ngo")
		rec := api.do(t, http.MethodPost, "/api/events", host.Token, createEventRequest{
			Title:    "Cleanup",
			StartsAt: starts,
		})
		require.Equal(t, http.StatusCreated, rec.Code)

		var event eventResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &event))
		return api, host, event.ID
	}

	t.Run("post and list round trip", func(t *testing.T) {
		api, host, eventID := setup(t)

		postRec := api.do(t, http.MethodPost, "/api/events/"+eventID+"/messages", host.Token,
			postMessageRequest{Body: "Bring gloves."})
		require.Equal(t, http.StatusCreated, postRec.Code)

		listRec := api.do(t, http.MethodGet, "/api/events/"+eventID+"/messages", host.Token, nil)
		require.Equal(t, http.StatusOK, listRec.Code)

		var messages []messageResponse
		require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &messages))
		require.Len(t, messages, 1)
		assert.Equal(t, "Bring gloves.", messages[0].Body)
		assert.Equal(t, host.User.ID, messages[0].AuthorID)
	})

	t.Run("empty body rejected", func(t *testing.T) {
		api, host, eventID := setup(t)

		rec := api.do(t, http.MethodPost, "/api/events/"+eventID+"/messages", host.Token,
			postMessageRequest{Body: "  "})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("messages on unknown event are 404", func(t *testing.T) {
		api, host, _ := setup(t)

		rec := api.do(t, http.MethodGet, "/api/events/"+ulid.Make().String()+"/messages", host.Token, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
