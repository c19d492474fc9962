// Package artifact stores the documents (user uploads and agent-generated
// evaluations) that the writing assistant works on.
//
// Every backend implements [Store]. [FileStore] keeps a metadata.json index
// plus one <id>.txt file per artifact; [KVStore] serializes artifacts into
// any store.Adapter (memory, BadgerDB, S3).
package artifact

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no artifact has the requested ID.
	ErrNotFound = errors.New("artifact: not found")

	// ErrExists is returned when creating an artifact under a taken ID.
	ErrExists = errors.New("artifact: already exists")
)

// Type classifies an artifact.
type Type string

const (
	TypeOriginal     Type = "original"
	TypeComment      Type = "comment"
	TypeTitle        Type = "title"
	TypeIntroduction Type = "introduction"
)

// Valid reports whether t is a known artifact type.
func (t Type) Valid() bool {
	switch t {
	case TypeOriginal, TypeComment, TypeTitle, TypeIntroduction:
		return true
	}
	return false
}

// Role records who produced an artifact.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Artifact is a stored document.
type Artifact struct {
	ID          string    `json:"id" msgpack:"id"`
	Role        Role      `json:"role" msgpack:"role"`
	Type        Type      `json:"type" msgpack:"type"`
	Title       string    `json:"title" msgpack:"title"`
	Description string    `json:"description,omitempty" msgpack:"description,omitempty"`
	Content     string    `json:"content" msgpack:"content"`
	CreatedAt   time.Time `json:"created_at" msgpack:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" msgpack:"updated_at"`
}

// Draft holds the fields of an artifact about to be created.
type Draft struct {
	// ID is the pre-allocated identifier. Empty means the store picks one.
	ID          string
	Title       string
	Description string
	Content     string
	Type        Type
	Role        Role
}

// Patch lists the fields to change in Update. Nil fields are left alone.
type Patch struct {
	Title       *string
	Description *string
	Content     *string
}

// Store is the artifact persistence contract. Implementations are shared
// by every run and must be safe for concurrent use.
type Store interface {
	// GenerateID allocates a fresh identifier without storing anything.
	GenerateID() string

	// Create stores a new artifact and returns it with timestamps set.
	// It uses d.ID verbatim when set, failing with ErrExists if taken.
	Create(ctx context.Context, d Draft) (Artifact, error)

	// Get returns the artifact or ErrNotFound.
	Get(ctx context.Context, id string) (Artifact, error)

	// List returns every artifact, oldest first.
	List(ctx context.Context) ([]Artifact, error)

	// Update applies p and refreshes UpdatedAt, or returns ErrNotFound.
	Update(ctx context.Context, id string, p Patch) (Artifact, error)

	// Delete removes an artifact or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Clear removes every artifact.
	Clear(ctx context.Context) error
}

// NewID returns a random artifact identifier.
func NewID() string {
	return uuid.New().String()
}

// build validates d and turns it into an artifact created at now.
func build(d Draft, now time.Time) (Artifact, error) {
	if d.ID == "" {
		d.ID = NewID()
	}
	if d.Type == "" {
		d.Type = TypeOriginal
	}
	if d.Role == "" {
		d.Role = RoleUser
	}
	if !d.Type.Valid() {
		return Artifact{}, fmt.Errorf("artifact: invalid type %q", d.Type)
	}
	if !d.Role.Valid() {
		return Artifact{}, fmt.Errorf("artifact: invalid role %q", d.Role)
	}
	return Artifact{
		ID:          d.ID,
		Role:        d.Role,
		Type:        d.Type,
		Title:       d.Title,
		Description: d.Description,
		Content:     d.Content,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// apply returns a with p applied at now.
func (p Patch) apply(a Artifact, now time.Time) Artifact {
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.Content != nil {
		a.Content = *p.Content
	}
	a.UpdatedAt = now
	return a
}

func now() time.Time {
	return time.Now().UTC()
}
