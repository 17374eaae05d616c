// Package domain contains the stored entities and the shared error vocabulary.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Meta is embedded by every stored document.
type Meta struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (m *Meta) Base() *Meta { return m }

// Entity is anything a storage collection can persist.
type Entity interface {
	Base() *Meta
}

// ParseID checks that id is a well-formed store key.
func ParseID(id string) (string, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", ErrInvalidID
	}
	return u.String(), nil
}
