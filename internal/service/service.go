// Package service holds the note use cases: validate input, run it against
// the store or the query pipeline, announce the change, log the outcome.
package service

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"example.com/notes-api/internal/errs"
	"example.com/notes-api/internal/events"
	"example.com/notes-api/internal/notes"
)

// Store is the dependency that must be stubbed in unit tests.
type Store interface {
	Create(ctx context.Context, in notes.NewNote) (notes.Note, error)
	Get(ctx context.Context, id string) (notes.Note, error)
	Update(ctx context.Context, id string, p notes.Patch) (notes.Note, error)
	Delete(ctx context.Context, id string) (notes.Note, error)
	ListAll(ctx context.Context) ([]notes.Note, error)
}

// Publisher receives an event after every successful mutation.
type Publisher interface {
	Publish(e events.Event)
}

// Service contains business logic independent from transport.
type Service struct {
	store     Store
	validator *notes.Validator
	events    Publisher
	logger    zerolog.Logger
	now       func() time.Time
}

type Option func(*Service)

// WithPublisher announces mutations to p.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.events = p }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(store Store, v *notes.Validator, opts ...Option) *Service {
	s := &Service{
		store:     store,
		validator: v,
		logger:    zerolog.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List validates the query parameters and runs the pipeline over a snapshot
// of the store.
func (s *Service) List(ctx context.Context, params url.Values) (notes.Page, error) {
	q, err := s.validator.ValidateQuery(params)
	if err != nil {
		return notes.Page{}, err
	}

	all, err := s.store.ListAll(ctx)
	if err != nil {
		return notes.Page{}, s.fail(ctx, "list", "", err)
	}

	page := notes.Run(all, q)
	s.log(ctx).Debug().
		Str("search", q.Search).
		Int("page", q.Page).
		Int("limit", q.Limit).
		Int("total", page.Pagination.Total).
		Msg("notes listed")
	return page, nil
}

func (s *Service) Get(ctx context.Context, id string) (notes.Note, error) {
	if err := s.validator.ValidateID(id); err != nil {
		return notes.Note{}, err
	}
	n, err := s.store.Get(ctx, id)
	if err != nil {
		return notes.Note{}, s.fail(ctx, "get", id, err)
	}
	return n, nil
}

func (s *Service) Create(ctx context.Context, body map[string]json.RawMessage) (notes.Note, error) {
	in, err := s.validator.ValidateCreate(body)
	if err != nil {
		return notes.Note{}, err
	}

	n, err := s.store.Create(ctx, in)
	if err != nil {
		return notes.Note{}, s.fail(ctx, "create", "", err)
	}

	s.log(ctx).Info().Str("id", n.ID).Str("title", n.Title).Msg("note created")
	s.publish(events.Created, n)
	return n, nil
}

// Update applies the fields present in body. Id and body problems are
// reported together.
func (s *Service) Update(ctx context.Context, id string, body map[string]json.RawMessage) (notes.Note, error) {
	idErr := s.validator.ValidateID(id)
	patch, bodyErr := s.validator.ValidateUpdate(body)
	if idErr != nil || bodyErr != nil {
		fields := append(append([]errs.FieldError(nil), errs.FieldsOf(idErr)...), errs.FieldsOf(bodyErr)...)
		return notes.Note{}, errs.Invalid(notes.MsgValidationFailed, fields)
	}

	n, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return notes.Note{}, s.fail(ctx, "update", id, err)
	}

	s.log(ctx).Info().Str("id", n.ID).Msg("note updated")
	s.publish(events.Updated, n)
	return n, nil
}

func (s *Service) Delete(ctx context.Context, id string) (notes.Note, error) {
	if err := s.validator.ValidateID(id); err != nil {
		return notes.Note{}, err
	}

	n, err := s.store.Delete(ctx, id)
	if err != nil {
		return notes.Note{}, s.fail(ctx, "delete", id, err)
	}

	s.log(ctx).Info().Str("id", n.ID).Msg("note deleted")
	s.publish(events.Deleted, n)
	return n, nil
}

// Count returns the number of stored notes.
func (s *Service) Count(ctx context.Context) (int, error) {
	all, err := s.store.ListAll(ctx)
	if err != nil {
		return 0, s.fail(ctx, "count", "", err)
	}
	return len(all), nil
}

// fail logs err at a level matching its kind. Errors without a code are
// internal faults and get wrapped so their cause never reaches a client.
func (s *Service) fail(ctx context.Context, op, id string, err error) error {
	switch errs.CodeOf(err) {
	case errs.NotFound:
		s.log(ctx).Warn().Str("op", op).Str("id", id).Msg("note not found")
		return err
	case errs.InvalidArgument:
		return err
	}

	s.log(ctx).Error().Err(err).Str("op", op).Str("id", id).Msg("store failure")
	return errs.Wrap(errs.Internal, op+" note", err)
}

func (s *Service) publish(typ events.Type, n notes.Note) {
	if s.events == nil {
		return
	}
	s.events.Publish(events.Event{Type: typ, Note: n.Clone(), At: s.now().UTC()})
}

// log prefers the request-scoped logger carried by ctx.
func (s *Service) log(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &s.logger
}
