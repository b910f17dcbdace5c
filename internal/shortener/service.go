package shortener

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sundayezeilo/shortlink/internal/errx"
	"github.com/sundayezeilo/shortlink/sluggen"
)

const (
	// DefaultReadTimeout bounds every store read on the redirect path.
	DefaultReadTimeout = 300 * time.Millisecond
	// DefaultWriteTimeout bounds every store write.
	DefaultWriteTimeout = 300 * time.Millisecond
	DefaultIDLength     = 7
)

// CreateLinkRequest represents the parameters for creating a new link.
type CreateLinkRequest struct {
	ID        string // Optional: if empty, an id is generated
	TargetURL string
}

// Service defines the resolve and mutate operations on links.
type Service interface {
	Resolve(ctx context.Context, id string) (string, error)
	Create(ctx context.Context, req CreateLinkRequest) (Link, error)
	Update(ctx context.Context, id, targetURL string) (Link, error)
}

// service implements the Service interface.
type service struct {
	repo         Repository
	ids          sluggen.Generator
	idLength     int
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// ServiceConfig holds configuration for the service.
type ServiceConfig struct {
	IDGenerator  sluggen.Generator
	IDLength     int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewService creates a new service instance.
func NewService(repo Repository, config *ServiceConfig) Service {
	if config == nil {
		config = &ServiceConfig{}
	}

	ids := config.IDGenerator
	if ids == nil {
		ids = sluggen.NewBase62()
	}

	idLength := config.IDLength
	if idLength <= 0 {
		idLength = DefaultIDLength
	}

	readTimeout := config.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}

	writeTimeout := config.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}

	return &service{
		repo:         repo,
		ids:          ids,
		idLength:     idLength,
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

// Resolve returns the target URL stored for id.
// Failures are classified, in order, as Timeout, Storage or NotFound.
func (s *service) Resolve(ctx context.Context, id string) (string, error) {
	const op = "shortener.service.Resolve"

	if id == "" {
		return "", errx.E(op, errx.Invalid, errors.New("id cannot be empty"))
	}

	link, err := callWithDeadline(ctx, op, s.readTimeout, func(ctx context.Context) (Link, error) {
		return s.repo.Get(ctx, id)
	})
	if err != nil {
		return "", err
	}
	return link.TargetURL, nil
}

// Create stores a new link. An empty req.ID is replaced by a generated one;
// a collision with an existing id is reported as Conflict and not retried.
// Ids are a single path segment, so a '/' makes them Invalid.
func (s *service) Create(ctx context.Context, req CreateLinkRequest) (Link, error) {
	const op = "shortener.service.Create"

	if req.TargetURL == "" {
		return Link{}, errx.E(op, errx.Invalid, errors.New("targetUrl cannot be empty"))
	}

	if strings.Contains(req.ID, "/") {
		return Link{}, errx.E(op, errx.Invalid, errors.New("id cannot contain '/'"))
	}

	id := req.ID
	if id == "" {
		generated, err := s.ids.Generate(s.idLength)
		if err != nil {
			return Link{}, errx.E(op, errx.Internal, err)
		}
		id = generated
	}

	return callWithDeadline(ctx, op, s.writeTimeout, func(ctx context.Context) (Link, error) {
		return s.repo.Insert(ctx, Link{ID: id, TargetURL: req.TargetURL})
	})
}

// Update points an existing id at a new target URL.
func (s *service) Update(ctx context.Context, id, targetURL string) (Link, error) {
	const op = "shortener.service.Update"

	if id == "" {
		return Link{}, errx.E(op, errx.Invalid, errors.New("id cannot be empty"))
	}
	if targetURL == "" {
		return Link{}, errx.E(op, errx.Invalid, errors.New("targetUrl cannot be empty"))
	}

	n, err := callWithDeadline(ctx, op, s.writeTimeout, func(ctx context.Context) (int64, error) {
		return s.repo.UpdateTarget(ctx, id, targetURL)
	})
	if err != nil {
		return Link{}, err
	}
	if n == 0 {
		return Link{}, errx.E(op, errx.NotFound, errors.New("no link with this id"))
	}

	return Link{ID: id, TargetURL: targetURL}, nil
}
