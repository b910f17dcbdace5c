package shortener

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sundayezeilo/shortlink/internal/errx"
	"github.com/sundayezeilo/shortlink/internal/httpx"
)

/***************
 * Mocks / Helpers
 ***************/

// mockService implements Service for handler tests.
type mockService struct {
	resolveFunc func(ctx context.Context, id string) (string, error)
	createFunc  func(ctx context.Context, req CreateLinkRequest) (Link, error)
	updateFunc  func(ctx context.Context, id, targetURL string) (Link, error)
}

func (m *mockService) Resolve(ctx context.Context, id string) (string, error) {
	if m.resolveFunc != nil {
		return m.resolveFunc(ctx, id)
	}
	return "", errx.E("service.Resolve", errx.NotFound, errors.New("not found"))
}

func (m *mockService) Create(ctx context.Context, req CreateLinkRequest) (Link, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, req)
	}
	return Link{ID: req.ID, TargetURL: req.TargetURL}, nil
}

func (m *mockService) Update(ctx context.Context, id, targetURL string) (Link, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, targetURL)
	}
	return Link{ID: id, TargetURL: targetURL}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(svc Service) http.Handler {
	r := chi.NewRouter()
	NewHandler(HandlerConfig{Service: svc, Logger: discardLogger()}).RegisterRoutes(r)
	return r
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.NewDecoder(bytes.NewReader(rr.Body.Bytes())).Decode(&v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rr.Body.String(), err)
	}
	return v
}

/***************
 * Resolve
 ***************/

func TestHandlerResolveLink(t *testing.T) {
	t.Run("redirects with cache headers", func(t *testing.T) {
		h := newTestRouter(&mockService{
			resolveFunc: func(_ context.Context, id string) (string, error) {
				if id != "abc" {
					t.Errorf("Resolve id = %q, want %q", id, "abc")
				}
				return "https://example.com", nil
			},
		})

		rr := doRequest(t, h, http.MethodGet, "/abc", "")

		if rr.Code != http.StatusTemporaryRedirect {
			t.Fatalf("status = %d, want %d", rr.Code, http.StatusTemporaryRedirect)
		}
		if got := rr.Header().Get("Location"); got != "https://example.com" {
			t.Errorf("Location = %q, want %q", got, "https://example.com")
		}
		want := "public, max-age=300, s-maxage=300, stale-while-revalidate=300, stale-if-error=300"
		if got := rr.Header().Get("Cache-Control"); got != want {
			t.Errorf("Cache-Control = %q, want %q", got, want)
		}
	})

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "not found",
			err:        errx.E("service.Resolve", errx.NotFound, errors.New("no rows in result set")),
			wantStatus: http.StatusNotFound,
			wantBody:   "not found",
		},
		{
			name:       "timeout is opaque",
			err:        errx.E("service.Resolve", errx.Timeout, context.DeadlineExceeded),
			wantStatus: http.StatusInternalServerError,
			wantBody:   "internal error",
		},
		{
			name:       "storage failure is opaque",
			err:        errx.E("service.Resolve", errx.Storage, errors.New("dial tcp 10.0.0.1:5432: connection refused")),
			wantStatus: http.StatusInternalServerError,
			wantBody:   "internal error",
		},
		{
			name:       "unclassified failure is opaque",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(&mockService{
				resolveFunc: func(context.Context, string) (string, error) {
					return "", tt.err
				},
			})

			rr := doRequest(t, h, http.MethodGet, "/abc", "")

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if got := rr.Body.String(); got != tt.wantBody {
				t.Errorf("body = %q, want %q", got, tt.wantBody)
			}
			if got := rr.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/plain") {
				t.Errorf("Content-Type = %q, want text/plain", got)
			}
			if rr.Header().Get("Location") != "" {
				t.Error("failure response must not carry Location")
			}
			if rr.Header().Get("Cache-Control") == RedirectCacheControl {
				t.Error("failure response must not carry the redirect cache policy")
			}
		})
	}
}

/***************
 * Create
 ***************/

func TestHandlerCreateLink(t *testing.T) {
	t.Run("returns created link", func(t *testing.T) {
		var captured CreateLinkRequest
		h := newTestRouter(&mockService{
			createFunc: func(_ context.Context, req CreateLinkRequest) (Link, error) {
				captured = req
				return Link{ID: req.ID, TargetURL: req.TargetURL}, nil
			},
		})

		rr := doRequest(t, h, http.MethodPost, "/create", `{"id":"abc","targetUrl":"https://example.com"}`)

		if rr.Code != http.StatusCreated {
			t.Fatalf("status = %d, want %d (body=%s)", rr.Code, http.StatusCreated, rr.Body.String())
		}
		if captured != (CreateLinkRequest{ID: "abc", TargetURL: "https://example.com"}) {
			t.Errorf("service request = %+v", captured)
		}
		resp := decodeBody[LinkResponse](t, rr)
		if resp.ID != "abc" || resp.TargetURL != "https://example.com" {
			t.Errorf("response = %+v", resp)
		}
		if got := rr.Header().Get("Cache-Control"); got != "no-store" {
			t.Errorf("Cache-Control = %q, want %q", got, "no-store")
		}
	})

	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "conflict",
			body:       `{"id":"abc","targetUrl":"https://example.com"}`,
			err:        errx.E("service.Create", errx.Conflict, errors.New("duplicate key")),
			wantStatus: http.StatusConflict,
			wantCode:   "conflict",
		},
		{
			name:       "invalid input",
			body:       `{"id":"abc","targetUrl":""}`,
			err:        errx.E("service.Create", errx.Invalid, errors.New("targetUrl cannot be empty")),
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_input",
		},
		{
			name:       "storage failure",
			body:       `{"id":"abc","targetUrl":"https://example.com"}`,
			err:        errx.E("service.Create", errx.Storage, errors.New("disk full")),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal_error",
		},
		{
			name:       "malformed json",
			body:       `{"id":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_input",
		},
		{
			name:       "unknown field",
			body:       `{"id":"abc","url":"https://example.com"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(&mockService{
				createFunc: func(context.Context, CreateLinkRequest) (Link, error) {
					if tt.err == nil {
						t.Error("Create should not be called")
					}
					return Link{}, tt.err
				},
			})

			rr := doRequest(t, h, http.MethodPost, "/create", tt.body)

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			resp := decodeBody[httpx.ErrorResponse](t, rr)
			if resp.Error != tt.wantCode {
				t.Errorf("error code = %q, want %q", resp.Error, tt.wantCode)
			}
		})
	}

	t.Run("storage details are not echoed", func(t *testing.T) {
		h := newTestRouter(&mockService{
			createFunc: func(context.Context, CreateLinkRequest) (Link, error) {
				return Link{}, errx.E("service.Create", errx.Storage, errors.New("password authentication failed for user app"))
			},
		})

		rr := doRequest(t, h, http.MethodPost, "/create", `{"targetUrl":"https://example.com"}`)

		if strings.Contains(rr.Body.String(), "password") {
			t.Errorf("response leaks storage detail: %s", rr.Body.String())
		}
	})

	t.Run("invalid message reaches the client", func(t *testing.T) {
		h := newTestRouter(&mockService{
			createFunc: func(context.Context, CreateLinkRequest) (Link, error) {
				return Link{}, errx.E("shortener.service.Create", errx.Invalid, errors.New("targetUrl cannot be empty"))
			},
		})

		rr := doRequest(t, h, http.MethodPost, "/create", `{"targetUrl":""}`)

		resp := decodeBody[httpx.ErrorResponse](t, rr)
		if resp.Message != "targetUrl cannot be empty" {
			t.Errorf("message = %q, want %q", resp.Message, "targetUrl cannot be empty")
		}
	})
}

/***************
 * Update
 ***************/

func TestHandlerUpdateLink(t *testing.T) {
	t.Run("returns updated link", func(t *testing.T) {
		h := newTestRouter(&mockService{
			updateFunc: func(_ context.Context, id, targetURL string) (Link, error) {
				if id != "abc" {
					t.Errorf("Update id = %q, want %q", id, "abc")
				}
				return Link{ID: id, TargetURL: targetURL}, nil
			},
		})

		rr := doRequest(t, h, http.MethodPatch, "/abc", `{"targetUrl":"https://other.com"}`)

		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
		}
		resp := decodeBody[LinkResponse](t, rr)
		if resp.TargetURL != "https://other.com" {
			t.Errorf("targetUrl = %q, want %q", resp.TargetURL, "https://other.com")
		}
	})

	t.Run("unknown id is 404", func(t *testing.T) {
		h := newTestRouter(&mockService{
			updateFunc: func(context.Context, string, string) (Link, error) {
				return Link{}, errx.E("service.Update", errx.NotFound, errors.New("no link with this id"))
			},
		})

		rr := doRequest(t, h, http.MethodPatch, "/missing", `{"targetUrl":"https://other.com"}`)

		if rr.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", rr.Code, http.StatusNotFound)
		}
		resp := decodeBody[httpx.ErrorResponse](t, rr)
		if resp.Error != "not_found" {
			t.Errorf("error code = %q, want %q", resp.Error, "not_found")
		}
	})

	t.Run("empty body is 400", func(t *testing.T) {
		h := newTestRouter(&mockService{})

		rr := doRequest(t, h, http.MethodPatch, "/abc", "")

		if rr.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
		}
	})
}

/***************
 * Full flow against the in-memory store
 ***************/

func TestHandler_Scenario(t *testing.T) {
	h := newTestRouter(NewService(NewMemoryRepository(), nil))

	rr := doRequest(t, h, http.MethodPost, "/create", `{"id":"abc","targetUrl":"https://example.com"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want %d", rr.Code, http.StatusCreated)
	}

	rr = doRequest(t, h, http.MethodGet, "/abc", "")
	if rr.Code != http.StatusTemporaryRedirect || rr.Header().Get("Location") != "https://example.com" {
		t.Fatalf("resolve = %d %q", rr.Code, rr.Header().Get("Location"))
	}

	rr = doRequest(t, h, http.MethodPost, "/create", `{"id":"abc","targetUrl":"https://other.com"}`)
	if rr.Code != http.StatusConflict {
		t.Errorf("duplicate create status = %d, want %d", rr.Code, http.StatusConflict)
	}

	rr = doRequest(t, h, http.MethodPatch, "/abc", `{"targetUrl":"https://other.com"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("update status = %d, want %d", rr.Code, http.StatusOK)
	}

	rr = doRequest(t, h, http.MethodGet, "/abc", "")
	if rr.Header().Get("Location") != "https://other.com" {
		t.Errorf("Location after update = %q, want %q", rr.Header().Get("Location"), "https://other.com")
	}

	rr = doRequest(t, h, http.MethodGet, "/missing", "")
	if rr.Code != http.StatusNotFound || rr.Body.String() != "not found" {
		t.Errorf("missing = %d %q", rr.Code, rr.Body.String())
	}

	rr = doRequest(t, h, http.MethodPost, "/create", `{"targetUrl":"https://generated.com"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("generated create status = %d", rr.Code)
	}
	created := decodeBody[LinkResponse](t, rr)
	if len(created.ID) != DefaultIDLength {
		t.Errorf("generated id %q has length %d, want %d", created.ID, len(created.ID), DefaultIDLength)
	}

	rr = doRequest(t, h, http.MethodGet, "/"+created.ID, "")
	if rr.Header().Get("Location") != "https://generated.com" {
		t.Errorf("generated id resolves to %q", rr.Header().Get("Location"))
	}
}

func TestHandler_CreatedIDsAreAddressable(t *testing.T) {
	h := newTestRouter(NewService(NewMemoryRepository(), nil))

	rr := doRequest(t, h, http.MethodPost, "/create", `{"id":"a/b","targetUrl":"https://example.com"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("create a/b status = %d, want %d", rr.Code, http.StatusBadRequest)
	}

	for _, tc := range []struct{ id, path string }{
		{"a b", "/a%20b"},
		{"ü", "/%C3%BC"},
		{"abc-123_x", "/abc-123_x"},
	} {
		body, _ := json.Marshal(HTTPCreateLinkRequest{ID: tc.id, TargetURL: "https://example.com"})
		rr := doRequest(t, h, http.MethodPost, "/create", string(body))
		if rr.Code != http.StatusCreated {
			t.Errorf("create %q status = %d", tc.id, rr.Code)
			continue
		}
		rr = doRequest(t, h, http.MethodGet, tc.path, "")
		if rr.Code != http.StatusTemporaryRedirect {
			t.Errorf("GET %s status = %d, want %d", tc.path, rr.Code, http.StatusTemporaryRedirect)
		}
	}
}

func TestHandler_SlowStoreReturnsOpaque500(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	svc := NewService(&mockRepository{
		getFunc: blockUntilReleased(release, Link{ID: "abc", TargetURL: "https://example.com"}),
	}, &ServiceConfig{ReadTimeout: 20 * time.Millisecond})
	h := newTestRouter(svc)

	rr := doRequest(t, h, http.MethodGet, "/abc", "")

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusInternalServerError)
	}
	if rr.Body.String() != "internal error" {
		t.Errorf("body = %q, want %q", rr.Body.String(), "internal error")
	}
}
