package notes

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrInvalidID    = errors.New("invalid note id")
	ErrInvalidInput = errors.New("invalid input")
)

type Service struct {
	store Store
	md    goldmark.Markdown
}

func NewService(store Store) *Service {
	// goldmark's default renderer drops raw HTML blocks, so the stored
	// html carries no script-injection vectors.
	return &Service{
		store: store,
		md:    goldmark.New(),
	}
}

// Create renders the text and persists a new active note for the owner.
func (s *Service) Create(ctx context.Context, ownerID primitive.ObjectID, input NoteInput) (*Note, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if strings.TrimSpace(input.Text) == "" {
		return nil, fmt.Errorf("%w: text is required", ErrInvalidInput)
	}

	note := &Note{
		UserID: ownerID,
		Title:  input.Title,
		Text:   input.Text,
		HTML:   s.render(input.Text),
	}

	if err := s.store.Insert(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

// GetByID retrieves one of the owner's notes.
func (s *Service) GetByID(ctx context.Context, ownerID primitive.ObjectID, id string) (*Note, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.store.FindByOwner(ctx, oid, ownerID)
}

// Edit replaces title and text, recomputing html from the new text.
func (s *Service) Edit(ctx context.Context, ownerID primitive.ObjectID, id string, input NoteInput) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	if strings.TrimSpace(input.Text) == "" {
		return fmt.Errorf("%w: text is required", ErrInvalidInput)
	}
	return s.store.Update(ctx, oid, ownerID, input.Title, input.Text, s.render(input.Text))
}

// SetArchived toggles the archive flag on one of the owner's notes.
func (s *Service) SetArchived(ctx context.Context, ownerID primitive.ObjectID, id string, archived bool) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	return s.store.SetArchived(ctx, oid, ownerID, archived)
}

// Delete removes one of the owner's notes.
func (s *Service) Delete(ctx context.Context, ownerID primitive.ObjectID, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	return s.store.Delete(ctx, oid, ownerID)
}

// DeleteArchived bulk-removes the owner's archived notes.
func (s *Service) DeleteArchived(ctx context.Context, ownerID primitive.ObjectID) error {
	return s.store.DeleteArchived(ctx, ownerID)
}

// ListPage runs the age filter and fixed-size pagination for one request.
func (s *Service) ListPage(ctx context.Context, ownerID primitive.ObjectID, age string, page int) (*Page, error) {
	archived, since := ResolveAge(age, time.Now())

	all, err := s.store.ListByOwner(ctx, ownerID, archived, since)
	if err != nil {
		return nil, err
	}
	return Paginate(all, page), nil
}

func (s *Service) render(text string) string {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(text), &buf); err != nil {
		// Escaped plain text is still safe to store.
		return html.EscapeString(text)
	}
	return buf.String()
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return oid, nil
}
