package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/penshort/usergate/internal/model"
	"github.com/penshort/usergate/internal/policy"
	"github.com/penshort/usergate/internal/userservice"
)

// fakeUsers is an in-memory UserService.
type fakeUsers struct {
	user      model.User
	admin     bool
	deleted   bool
	err       error
	page      int
	id        string
	data      map[string]any
	ability   string
	arguments []any
}

func (f *fakeUsers) GetUser(ctx context.Context) (model.User, error) { return f.user, f.err }
func (f *fakeUsers) IsAdmin(ctx context.Context) bool                { return f.admin }
func (f *fakeUsers) IsInfluencer(ctx context.Context) bool           { return !f.admin }

func (f *fakeUsers) Paginate(ctx context.Context, page int) ([]map[string]any, error) {
	f.page = page
	if f.err != nil {
		return nil, f.err
	}
	return []map[string]any{{"id": "1"}, {"id": "2"}}, nil
}

func (f *fakeUsers) Find(ctx context.Context, id string) (model.User, error) {
	f.id = id
	return f.user, f.err
}

func (f *fakeUsers) Create(ctx context.Context, data map[string]any) (model.User, error) {
	f.data = data
	return f.user, f.err
}

func (f *fakeUsers) Update(ctx context.Context, id string, data map[string]any) (model.User, error) {
	f.id = id
	f.data = data
	return f.user, f.err
}

func (f *fakeUsers) Delete(ctx context.Context, id string) bool {
	f.id = id
	return f.deleted
}

func (f *fakeUsers) Allows(ctx context.Context, ability string, args ...any) (*policy.Response, error) {
	f.ability = ability
	f.arguments = args
	if f.err != nil {
		return nil, f.err
	}
	res := policy.Allow()
	return &res, nil
}

func newUserRouter(users UserService) http.Handler {
	h := NewUserHandler(users, slog.New(slog.NewTextHandler(io.Discard, nil)))

	r := chi.NewRouter()
	r.Get("/me", h.Me)
	r.Get("/me/admin", h.Admin)
	r.Get("/me/influencer", h.Influencer)
	r.Get("/users", h.List)
	r.Get("/users/{id}", h.Get)
	r.Post("/users", h.Create)
	r.Put("/users/{id}", h.Update)
	r.Delete("/users/{id}", h.Delete)
	r.Post("/authorize", h.Authorize)
	return r
}

func serve(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, target, reader))
	return rec
}

func TestUserHandler_Me(t *testing.T) {
	users := &fakeUsers{user: model.User{"id": "u1", "email": "ada@example.com"}}
	rec := serve(newUserRouter(users), http.MethodGet, "/me", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["email"] != "ada@example.com" {
		t.Errorf("body = %v", got)
	}
}

func TestUserHandler_Me_UpstreamErrors(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"decode", fmt.Errorf("x: %w", userservice.ErrDecode), http.StatusBadGateway, "BAD_UPSTREAM_RESPONSE"},
		{"transport", fmt.Errorf("x: %w", userservice.ErrTransport), http.StatusBadGateway, "UPSTREAM_UNAVAILABLE"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(newUserRouter(&fakeUsers{err: tc.err}), http.MethodGet, "/me", "")

			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if code := decodeErrorCode(t, rec); code != tc.wantCode {
				t.Errorf("code = %q, want %q", code, tc.wantCode)
			}
		})
	}
}

func TestUserHandler_Checks(t *testing.T) {
	router := newUserRouter(&fakeUsers{admin: true})

	rec := serve(router, http.MethodGet, "/me/admin", "")
	if strings.TrimSpace(rec.Body.String()) != `{"admin":true}` {
		t.Errorf("admin body = %s", rec.Body.String())
	}

	rec = serve(router, http.MethodGet, "/me/influencer", "")
	if strings.TrimSpace(rec.Body.String()) != `{"influencer":false}` {
		t.Errorf("influencer body = %s", rec.Body.String())
	}
}

func TestUserHandler_List(t *testing.T) {
	testCases := []struct {
		name       string
		query      string
		wantStatus int
		wantPage   int
	}{
		{"default page", "", http.StatusOK, 1},
		{"explicit page", "?page=3", http.StatusOK, 3},
		{"zero page", "?page=0", http.StatusBadRequest, 0},
		{"not a number", "?page=abc", http.StatusBadRequest, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			users := &fakeUsers{}
			rec := serve(newUserRouter(users), http.MethodGet, "/users"+tc.query, "")

			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if users.page != tc.wantPage {
				t.Errorf("page = %d, want %d", users.page, tc.wantPage)
			}
		})
	}
}

func TestUserHandler_Get(t *testing.T) {
	users := &fakeUsers{user: model.User{"id": "42"}}
	rec := serve(newUserRouter(users), http.MethodGet, "/users/42", "")

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if users.id != "42" {
		t.Errorf("id = %q, want 42", users.id)
	}
}

func TestUserHandler_Create(t *testing.T) {
	users := &fakeUsers{user: model.User{"id": "9"}}
	rec := serve(newUserRouter(users), http.MethodPost, "/users", `{"email":"new@example.com"}`)

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	if users.data["email"] != "new@example.com" {
		t.Errorf("data = %v", users.data)
	}
}

func TestUserHandler_Create_InvalidBody(t *testing.T) {
	for _, body := range []string{"", "not json", "[1,2]", "null"} {
		users := &fakeUsers{}
		rec := serve(newUserRouter(users), http.MethodPost, "/users", body)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, rec.Code)
		}
		if users.data != nil {
			t.Errorf("body %q: service should not be called", body)
		}
	}
}

func TestUserHandler_Update(t *testing.T) {
	users := &fakeUsers{user: model.User{"id": "3"}}
	rec := serve(newUserRouter(users), http.MethodPut, "/users/3", `{"name":"renamed"}`)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if users.id != "3" || users.data["name"] != "renamed" {
		t.Errorf("id = %q, data = %v", users.id, users.data)
	}
}

func TestUserHandler_Delete(t *testing.T) {
	rec := serve(newUserRouter(&fakeUsers{deleted: true}), http.MethodDelete, "/users/5", "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}

	rec = serve(newUserRouter(&fakeUsers{deleted: false}), http.MethodDelete, "/users/5", "")
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
	if code := decodeErrorCode(t, rec); code != "DELETE_FAILED" {
		t.Errorf("code = %q", code)
	}
}

func TestUserHandler_Authorize(t *testing.T) {
	users := &fakeUsers{}
	rec := serve(newUserRouter(users), http.MethodPost, "/authorize", `{"ability":"posts.edit","arguments":["p1",2]}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if users.ability != "posts.edit" {
		t.Errorf("ability = %q", users.ability)
	}
	if len(users.arguments) != 2 || users.arguments[0] != "p1" || users.arguments[1] != float64(2) {
		t.Errorf("arguments = %v", users.arguments)
	}

	var res policy.Response
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !res.Allowed {
		t.Error("expected allowed response")
	}
}

func TestUserHandler_Authorize_Denied(t *testing.T) {
	users := &fakeUsers{err: &policy.AuthorizationError{Ability: "posts.edit", Response: policy.Deny("not yours")}}
	rec := serve(newUserRouter(users), http.MethodPost, "/authorize", `{"ability":"posts.edit"}`)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
	if code := decodeErrorCode(t, rec); code != "FORBIDDEN" {
		t.Errorf("code = %q", code)
	}
}

func TestUserHandler_Authorize_Validation(t *testing.T) {
	for _, body := range []string{`{`, `{"arguments":[]}`} {
		rec := serve(newUserRouter(&fakeUsers{}), http.MethodPost, "/authorize", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, rec.Code)
		}
	}
}
