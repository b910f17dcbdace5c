package errx

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestE(t *testing.T) {
	t.Run("returns nil when error is nil", func(t *testing.T) {
		if got := E("op", NotFound, nil); got != nil {
			t.Errorf("E() with nil error = %v, want nil", got)
		}
	})

	t.Run("constructs Error with all fields", func(t *testing.T) {
		root := errors.New("no rows")
		err := E("shortener.repo.Get", NotFound, root)

		var e *Error
		if !errors.As(err, &e) {
			t.Fatal("expected error to be of type *errx.Error")
		}
		if got, want := e.Op, "shortener.repo.Get"; got != want {
			t.Errorf("Op = %q, want %q", got, want)
		}
		if got, want := e.Kind, NotFound; got != want {
			t.Errorf("Kind = %v, want %v", got, want)
		}
		if !errors.Is(e.Err, root) {
			t.Errorf("Err = %v, want %v", e.Err, root)
		}
	})

	t.Run("preserves all error kinds", func(t *testing.T) {
		kinds := []Kind{Unknown, NotFound, Conflict, Invalid, Timeout, Storage, Internal}
		root := errors.New("test error")

		for _, kind := range kinds {
			t.Run(kind.String(), func(t *testing.T) {
				if got := KindOf(E("operation", kind, root)); got != kind {
					t.Errorf("KindOf() = %v, want %v", got, kind)
				}
			})
		}
	})
}

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "nil inner error returns op",
			err:  &Error{Op: "shortener.service.Resolve", Kind: NotFound},
			want: "shortener.service.Resolve",
		},
		{
			name: "empty op returns inner error message",
			err:  &Error{Kind: Unknown, Err: errors.New("root cause")},
			want: "root cause",
		},
		{
			name: "formats op and error",
			err:  &Error{Op: "shortener.service.Resolve", Kind: Timeout, Err: context.DeadlineExceeded},
			want: "shortener.service.Resolve: context deadline exceeded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	t.Run("returns Unknown for standard and nil errors", func(t *testing.T) {
		if got := KindOf(errors.New("plain")); got != Unknown {
			t.Errorf("KindOf() = %v, want %v", got, Unknown)
		}
		if got := KindOf(nil); got != Unknown {
			t.Errorf("KindOf(nil) = %v, want %v", got, Unknown)
		}
	})

	t.Run("extracts kind through wrapping chain", func(t *testing.T) {
		repo := E("shortener.repo.Get", NotFound, errors.New("no rows"))
		service := E("shortener.service.Resolve", KindOf(repo), repo)
		wrapped := fmt.Errorf("handler: %w", service)

		if got := KindOf(wrapped); got != NotFound {
			t.Errorf("KindOf() = %v, want %v", got, NotFound)
		}
	})
}

func TestStorageKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"unclassified error is storage", errors.New("connection refused"), Storage},
		{"not found is kept", E("repo", NotFound, errors.New("x")), NotFound},
		{"conflict is kept", E("repo", Conflict, errors.New("x")), Conflict},
		{"timeout is kept", E("repo", Timeout, context.DeadlineExceeded), Timeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StorageKindOf(tt.err); got != tt.want {
				t.Errorf("StorageKindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOpOf(t *testing.T) {
	t.Run("returns empty for standard error", func(t *testing.T) {
		if got := OpOf(errors.New("plain")); got != "" {
			t.Errorf("OpOf() = %q, want empty string", got)
		}
	})

	t.Run("extracts outermost op from chain", func(t *testing.T) {
		repo := E("shortener.repo.UpdateTarget", Storage, errors.New("broken pipe"))
		service := E("shortener.service.Update", KindOf(repo), repo)

		if got, want := OpOf(service), "shortener.service.Update"; got != want {
			t.Errorf("OpOf() = %q, want %q", got, want)
		}
	})
}

func TestErrorChain(t *testing.T) {
	root := errors.New("database connection failed")
	repo := E("shortener.repo.Insert", Storage, root)
	service := E("shortener.service.Create", KindOf(repo), repo)

	if got := KindOf(service); got != Storage {
		t.Errorf("KindOf() = %v, want %v", got, Storage)
	}
	if !errors.Is(service, root) {
		t.Error("errors.Is() failed to find root error")
	}
	if got, want := service.Error(), "shortener.service.Create: shortener.repo.Insert: database connection failed"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{Unknown, "Unknown"},
		{NotFound, "NotFound"},
		{Conflict, "Conflict"},
		{Invalid, "Invalid"},
		{Timeout, "Timeout"},
		{Storage, "Storage"},
		{Internal, "Internal"},
		{Kind(99), "Kind(99)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.want {
				t.Errorf("Kind.String() = %q, want %q", got, tt.want)
			}
		})
	}
}
