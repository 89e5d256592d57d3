package userservice

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/penshort/usergate/internal/auth"
	"github.com/penshort/usergate/internal/metrics"
	"github.com/penshort/usergate/internal/model"
	"github.com/penshort/usergate/internal/policy"
)

// fakeCache is an in-memory CredentialCache.
type fakeCache struct {
	values map[string]string
	err    error
}

func (f *fakeCache) Get(ctx context.Context, key string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.values[key], nil
}

// recordedRequest is one request seen by the fake user service.
type recordedRequest struct {
	Method        string
	RequestURI    string
	Authorization []string
	ContentType   string
	Body          string
}

// fakeUserService serves canned responses and records every request.
type fakeUserService struct {
	Server   *httptest.Server
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	body     string
}

func newFakeUserService(t *testing.T, status int, body string) *fakeUserService {
	t.Helper()

	f := &fakeUserService{status: status, body: body}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, _ := io.ReadAll(r.Body)

		f.mu.Lock()
		f.requests = append(f.requests, recordedRequest{
			Method:        r.Method,
			RequestURI:    r.RequestURI,
			Authorization: r.Header.Values("Authorization"),
			ContentType:   r.Header.Get("Content-Type"),
			Body:          string(payload),
		})
		status, body := f.status, f.body
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(f.Server.Close)

	return f
}

func (f *fakeUserService) Requests() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func (f *fakeUserService) only(t *testing.T) recordedRequest {
	t.Helper()
	reqs := f.Requests()
	if len(reqs) != 1 {
		t.Fatalf("expected exactly 1 request, got %d", len(reqs))
	}
	return reqs[0]
}

func newTestClient(f *fakeUserService, cache CredentialCache, gate Gate, opts ...Option) *Client {
	opts = append([]Option{WithHTTPClient(f.Server.Client())}, opts...)
	return New(f.Server.URL, auth.ContextSource{}, cache, gate, opts...)
}

func TestHeaders_CredentialResolution(t *testing.T) {
	testCases := []struct {
		name     string
		incoming string
		cached   string
		want     string
		source   string
	}{
		{
			name:     "incoming header wins",
			incoming: "Bearer incoming",
			cached:   "Bearer cached",
			want:     "Bearer incoming",
			source:   metrics.CredentialSourceHeader,
		},
		{
			name:   "falls back to cache",
			cached: "Bearer cached",
			want:   "Bearer cached",
			source: metrics.CredentialSourceCache,
		},
		{
			name:   "both empty",
			want:   "",
			source: metrics.CredentialSourceNone,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := metrics.NewInMemory()
			cache := &fakeCache{values: map[string]string{"Authorization": tc.cached}}
			c := New("https://users.internal", auth.ContextSource{}, cache, nil, WithMetrics(rec))

			ctx := context.Background()
			if tc.incoming != "" {
				ctx = auth.ContextWithAuthorization(ctx, tc.incoming)
			}

			h, err := c.Headers(ctx)
			if err != nil {
				t.Fatalf("Headers: %v", err)
			}
			if len(h) != 1 {
				t.Errorf("expected exactly one header key, got %v", h)
			}
			values, ok := h["Authorization"]
			if !ok {
				t.Fatal("expected Authorization key to be present")
			}
			if len(values) != 1 || values[0] != tc.want {
				t.Errorf("Authorization = %v, want [%q]", values, tc.want)
			}

			s := rec.Snapshot()
			var got uint64
			switch tc.source {
			case metrics.CredentialSourceHeader:
				got = s.CredentialFromHeader
			case metrics.CredentialSourceCache:
				got = s.CredentialFromCache
			default:
				got = s.CredentialMissing
			}
			if got != 1 {
				t.Errorf("expected credential source %q to be recorded, snapshot %+v", tc.source, s)
			}
		})
	}
}

func TestHeaders_NilCollaborators(t *testing.T) {
	c := New("https://users.internal", nil, nil, nil)

	h, err := c.Headers(context.Background())
	if err != nil {
		t.Fatalf("Headers: %v", err)
	}
	if v, ok := h["Authorization"]; !ok || v[0] != "" {
		t.Errorf("expected empty Authorization header, got %v", h)
	}
}

func TestHeaders_CacheError(t *testing.T) {
	boom := errors.New("redis down")
	c := New("https://users.internal", auth.ContextSource{}, &fakeCache{err: boom}, nil)

	_, err := c.Headers(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("expected cache error to be wrapped, got %v", err)
	}

	// the cache is not consulted when the request carries a credential
	ctx := auth.ContextWithAuthorization(context.Background(), "Bearer x")
	if _, err := c.Headers(ctx); err != nil {
		t.Errorf("expected no error with incoming credential, got %v", err)
	}
}

func TestRequest_SendsResolvedCredential(t *testing.T) {
	f := newFakeUserService(t, http.StatusOK, `{"id":1}`)
	cache := &fakeCache{values: map[string]string{"Authorization": "Bearer cached"}}
	c := newTestClient(f, cache, nil)

	if _, err := c.GetUser(context.Background()); err != nil {
		t.Fatalf("GetUser: %v", err)
	}

	got := f.only(t).Authorization
	if len(got) != 1 || got[0] != "Bearer cached" {
		t.Errorf("Authorization = %v, want [Bearer cached]", got)
	}
}

func TestRequest_EmptyCredentialStillSent(t *testing.T) {
	f := newFakeUserService(t, http.StatusUnauthorized, `{"message":"Unauthenticated."}`)
	c := newTestClient(f, &fakeCache{}, nil)

	c.IsAdmin(context.Background())

	got := f.only(t).Authorization
	if len(got) != 1 || got[0] != "" {
		t.Errorf("Authorization = %v, want one empty value", got)
	}
}

func TestPendingRequest_HeaderIsCopy(t *testing.T) {
	c := New("https://users.internal", auth.ContextSource{}, nil, nil)
	ctx := auth.ContextWithAuthorization(context.Background(), "Bearer a")

	req, err := c.Request(ctx)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}

	h := req.Header()
	h.Set("Authorization", "Bearer mutated")

	if req.Header().Get("Authorization") != "Bearer a" {
		t.Error("mutating the returned header must not affect the request")
	}
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	c := New("https://users.internal/", nil, nil, nil)
	if c.Endpoint() != "https://users.internal" {
		t.Errorf("Endpoint() = %q", c.Endpoint())
	}
}

func TestResponse_Successful(t *testing.T) {
	testCases := []struct {
		status int
		want   bool
	}{
		{199, false},
		{200, true},
		{204, true},
		{299, true},
		{300, false},
		{404, false},
		{500, false},
	}

	for _, tc := range testCases {
		res := &Response{StatusCode: tc.status}
		if got := res.Successful(); got != tc.want {
			t.Errorf("Successful() for %d = %v, want %v", tc.status, got, tc.want)
		}
	}
}

// stubGate records the arguments it was called with.
type stubGate struct {
	user    model.User
	ability string
	args    []any
	calls   int
	res     *policy.Response
	err     error
}

func (g *stubGate) Authorize(ctx context.Context, user model.User, ability string, args ...any) (*policy.Response, error) {
	g.calls++
	g.user = user
	g.ability = ability
	g.args = args
	return g.res, g.err
}
