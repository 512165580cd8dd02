// Package keygen produces the short public keys and the secret admin keys
// handed out for every shortened URL.
//
// Keys are drawn uniformly from an alphanumeric alphabet. Entropy alone does
// not guarantee uniqueness: CreateUniqueKey checks every candidate against the
// key space through a caller supplied predicate, and the store's unique index
// remains the final backstop.
package keygen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// Alphanumeric holds the 62 symbols keys are drawn from.
	Alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	// Separator joins the public key and the random suffix of a secret key.
	Separator = "_"

	DefaultKeyLength    = 5
	DefaultSecretLength = 8

	warnAttempts = 10
)

var (
	// ErrInvalidLength is returned when a key length is not positive.
	ErrInvalidLength = errors.New("key length must be positive")
	// ErrInvalidAlphabet is returned when the alphabet is empty or contains the separator.
	ErrInvalidAlphabet = errors.New("alphabet must be non-empty and must not contain the separator")
)

// ExistsFunc reports whether a key is already taken, active or not.
type ExistsFunc func(ctx context.Context, key string) (bool, error)

// Generator creates public and secret keys. It is safe for concurrent use.
type Generator struct {
	alphabet     string
	keyLength    int
	secretLength int
	logger       *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithKeyLength sets the length of public keys.
func WithKeyLength(n int) Option {
	return func(g *Generator) {
		g.keyLength = n
	}
}

// WithSecretLength sets the length of the random suffix of secret keys.
func WithSecretLength(n int) Option {
	return func(g *Generator) {
		g.secretLength = n
	}
}

// WithAlphabet replaces the alphanumeric alphabet.
func WithAlphabet(alphabet string) Option {
	return func(g *Generator) {
		g.alphabet = alphabet
	}
}

// WithLogger sets the logger used to report collision retries.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// New returns a Generator with the defaults overridden by opts.
func New(opts ...Option) (*Generator, error) {
	const op = "keygen.New"

	g := &Generator{
		alphabet:     Alphanumeric,
		keyLength:    DefaultKeyLength,
		secretLength: DefaultSecretLength,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(g)
	}

	if g.keyLength <= 0 || g.secretLength <= 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidLength)
	}

	if g.alphabet == "" || strings.Contains(g.alphabet, Separator) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidAlphabet)
	}

	return g, nil
}

// GenerateCandidateKey draws a single public key candidate.
func (g *Generator) GenerateCandidateKey() (string, error) {
	return g.random(g.keyLength)
}

// CreateUniqueKey draws candidates until exists reports one as free.
// A failing exists check is returned as is and ends the loop.
func (g *Generator) CreateUniqueKey(ctx context.Context, exists ExistsFunc) (string, error) {
	const op = "keygen.Generator.CreateUniqueKey"

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}

		key, err := g.GenerateCandidateKey()
		if err != nil {
			return "", fmt.Errorf("%s: failed to generate candidate key: %w", op, err)
		}

		taken, err := exists(ctx, key)
		if err != nil {
			return "", fmt.Errorf("%s: failed to check key existence: %w", op, err)
		}

		if !taken {
			if attempt > 1 {
				g.logger.Debug("unique key found after collisions", slog.String("op", op), slog.Int("attempts", attempt))
			}
			return key, nil
		}

		if attempt == warnAttempts || attempt%(warnAttempts*10) == 0 {
			g.logger.Warn("key space is getting crowded", slog.String("op", op), slog.Int("attempts", attempt))
		}
	}
}

// CreateSecretKey builds a secret key from publicKey and an independent random suffix.
func (g *Generator) CreateSecretKey(publicKey string) (string, error) {
	const op = "keygen.Generator.CreateSecretKey"

	suffix, err := g.random(g.secretLength)
	if err != nil {
		return "", fmt.Errorf("%s: failed to generate secret suffix: %w", op, err)
	}

	return publicKey + Separator + suffix, nil
}

func (g *Generator) random(length int) (string, error) {
	if length <= 0 {
		return "", ErrInvalidLength
	}

	return gonanoid.Generate(g.alphabet, length)
}
