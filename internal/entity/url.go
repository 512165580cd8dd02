// Package entity defines the entities and errors used in the application.
// It includes the URL struct, which represents a shortened URL together with the
// secret key that grants admin rights over it, and the error taxonomy shared by
// the use case, storage and delivery layers.
package entity

import (
	"errors"
	"time"
)

var (
	// ErrInvalidURL is returned when a target URL is not a well-formed absolute URL.
	ErrInvalidURL = errors.New("invalid target url")
	// ErrKeyExists is returned by a store when an insert violates the uniqueness of key or secret key.
	ErrKeyExists = errors.New("key exists")
	// ErrURLNotFound is returned when no active URL matches the given key or secret key.
	ErrURLNotFound = errors.New("url not found")
	// ErrStoreUnavailable is returned when the underlying store cannot be reached.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// URL represents a shortened URL.
type URL struct {
	ID        int64     // ID is the unique identifier of the URL in the store.
	Key       string    // Key is the short public identifier used in redirect URLs.
	SecretKey string    // SecretKey is the capability token granting admin rights over the URL.
	TargetURL string    // TargetURL is the destination visitors are redirected to.
	IsActive  bool      // IsActive is cleared on deactivation and never set again.
	Clicks    int64     // Clicks is the number of successful redirects.
	CreatedAt time.Time // CreatedAt is the timestamp when the URL was created.
	UpdatedAt time.Time // UpdatedAt is the timestamp when the URL was last updated.
}
