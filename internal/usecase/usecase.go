package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/redirector/internal/access"
	"github.com/vadimbarashkov/redirector/internal/entity"
	"github.com/vadimbarashkov/redirector/internal/keygen"
)

const defaultMaxRetries = 5

// ErrMaxRetriesExceeded is returned by Create when every attempt to insert a
// freshly generated key pair hit a uniqueness conflict.
var ErrMaxRetriesExceeded = errors.New("maximum retries exceeded for generating key")

// RecordStore is the persistence contract of the service. Stores must enforce
// uniqueness of key and secret key and report violations as entity.ErrKeyExists.
type RecordStore interface {
	KeyExists(ctx context.Context, key string) (bool, error)
	FindByKey(ctx context.Context, key string, activeOnly bool) (*entity.URL, error)
	FindBySecretKey(ctx context.Context, secretKey string, activeOnly bool) (*entity.URL, error)
	FindAll(ctx context.Context) ([]*entity.URL, error)
	Insert(ctx context.Context, url *entity.URL) (*entity.URL, error)
	Save(ctx context.Context, url *entity.URL) (*entity.URL, error)
	IncrementClicks(ctx context.Context, key string) (*entity.URL, error)
}

type keyGenerator interface {
	CreateUniqueKey(ctx context.Context, exists keygen.ExistsFunc) (string, error)
	CreateSecretKey(publicKey string) (string, error)
}

type viewer interface {
	PublicRedirect(url *entity.URL) access.RedirectView
	Record(url *entity.URL) access.RecordView
	PublicListItem(url *entity.URL) access.ListView
	Admin(url *entity.URL) access.AdminView
	Authorize(url *entity.URL, secretKey string) error
}

// URLUseCase creates short URLs, resolves visits and serves the secret-key
// admin operations on top of a RecordStore.
type URLUseCase struct {
	store      RecordStore
	keys       keyGenerator
	views      viewer
	validate   *validator.Validate
	maxRetries int
	reserved   map[string]struct{}
}

// Option configures a URLUseCase.
type Option func(*URLUseCase)

// WithMaxRetries bounds how many times Create regenerates keys after a storage conflict.
func WithMaxRetries(n int) Option {
	return func(uc *URLUseCase) {
		if n > 0 {
			uc.maxRetries = n
		}
	}
}

// WithReservedKeys keeps Create from handing out any of keys.
func WithReservedKeys(keys ...string) Option {
	return func(uc *URLUseCase) {
		for _, key := range keys {
			uc.reserved[key] = struct{}{}
		}
	}
}

// New returns a URLUseCase that stores URLs in store, draws keys from keys and
// shapes results with views.
func New(store RecordStore, keys keyGenerator, views viewer, opts ...Option) *URLUseCase {
	uc := &URLUseCase{
		store:      store,
		keys:       keys,
		views:      views,
		validate:   newValidate(),
		maxRetries: defaultMaxRetries,
		reserved:   make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

func newValidate() *validator.Validate {
	validate := validator.New()

	// Registration only fails on an empty tag or a nil func.
	_ = validate.RegisterValidation("absurl", func(fl validator.FieldLevel) bool {
		u, err := url.Parse(fl.Field().String())
		return err == nil && u.Scheme != "" && u.Host != ""
	})

	return validate
}

func (uc *URLUseCase) validateTargetURL(targetURL string) error {
	if err := uc.validate.Var(targetURL, "required,url,absurl"); err != nil {
		return fmt.Errorf("%w: %q: %w", entity.ErrInvalidURL, targetURL, err)
	}

	return nil
}

// Create shortens targetURL and returns the admin view of the new record.
func (uc *URLUseCase) Create(ctx context.Context, targetURL string) (access.AdminView, error) {
	const op = "usecase.URLUseCase.Create"

	if err := uc.validateTargetURL(targetURL); err != nil {
		return access.AdminView{}, fmt.Errorf("%s: %w", op, err)
	}

	for i := 0; i < uc.maxRetries; i++ {
		key, err := uc.keys.CreateUniqueKey(ctx, uc.keyTaken)
		if err != nil {
			return access.AdminView{}, fmt.Errorf("%s: failed to create key: %w", op, err)
		}

		secretKey, err := uc.keys.CreateSecretKey(key)
		if err != nil {
			return access.AdminView{}, fmt.Errorf("%s: failed to create secret key: %w", op, err)
		}

		url, err := uc.store.Insert(ctx, &entity.URL{
			Key:       key,
			SecretKey: secretKey,
			TargetURL: targetURL,
			IsActive:  true,
		})
		if err != nil {
			if errors.Is(err, entity.ErrKeyExists) {
				continue
			}

			return access.AdminView{}, fmt.Errorf("%s: failed to insert url: %w", op, err)
		}

		return uc.views.Admin(url), nil
	}

	return access.AdminView{}, fmt.Errorf("%s: %w", op, ErrMaxRetriesExceeded)
}

// LookupPublic returns the destination of the active URL with the given key.
func (uc *URLUseCase) LookupPublic(ctx context.Context, key string) (access.RedirectView, error) {
	const op = "usecase.URLUseCase.LookupPublic"

	url, err := uc.store.FindByKey(ctx, key, true)
	if err != nil {
		return access.RedirectView{}, fmt.Errorf("%s: failed to find url: %w", op, err)
	}

	return uc.views.PublicRedirect(url), nil
}

// Peek lets a visitor inspect a destination without counting a visit.
func (uc *URLUseCase) Peek(ctx context.Context, key string) (access.RedirectView, error) {
	const op = "usecase.URLUseCase.Peek"

	view, err := uc.LookupPublic(ctx, key)
	if err != nil {
		return access.RedirectView{}, fmt.Errorf("%s: %w", op, err)
	}

	return view, nil
}

// ListAll returns every URL ever created, deactivated ones included.
func (uc *URLUseCase) ListAll(ctx context.Context) ([]access.ListView, error) {
	const op = "usecase.URLUseCase.ListAll"

	urls, err := uc.store.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list urls: %w", op, err)
	}

	views := make([]access.ListView, 0, len(urls))
	for _, url := range urls {
		views = append(views, uc.views.PublicListItem(url))
	}

	return views, nil
}

// RecordVisit counts one visit and returns the target URL to redirect to.
func (uc *URLUseCase) RecordVisit(ctx context.Context, key string) (string, error) {
	const op = "usecase.URLUseCase.RecordVisit"

	url, err := uc.store.IncrementClicks(ctx, key)
	if err != nil {
		return "", fmt.Errorf("%s: failed to record visit: %w", op, err)
	}

	return url.TargetURL, nil
}

// AdminLookup returns the admin view of the URL owned by secretKey.
func (uc *URLUseCase) AdminLookup(ctx context.Context, secretKey string) (access.AdminView, error) {
	const op = "usecase.URLUseCase.AdminLookup"

	url, err := uc.authorized(ctx, secretKey)
	if err != nil {
		return access.AdminView{}, fmt.Errorf("%s: %w", op, err)
	}

	return uc.views.Admin(url), nil
}

// UpdateTarget points the URL owned by secretKey at newTargetURL.
func (uc *URLUseCase) UpdateTarget(ctx context.Context, secretKey, newTargetURL string) (access.RecordView, error) {
	const op = "usecase.URLUseCase.UpdateTarget"

	if err := uc.validateTargetURL(newTargetURL); err != nil {
		return access.RecordView{}, fmt.Errorf("%s: %w", op, err)
	}

	url, err := uc.authorized(ctx, secretKey)
	if err != nil {
		return access.RecordView{}, fmt.Errorf("%s: %w", op, err)
	}

	url.TargetURL = newTargetURL

	url, err = uc.store.Save(ctx, url)
	if err != nil {
		return access.RecordView{}, fmt.Errorf("%s: failed to save url: %w", op, err)
	}

	return uc.views.Record(url), nil
}

// Deactivate permanently hides the URL owned by secretKey and returns a confirmation.
func (uc *URLUseCase) Deactivate(ctx context.Context, secretKey string) (string, error) {
	const op = "usecase.URLUseCase.Deactivate"

	url, err := uc.authorized(ctx, secretKey)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	url.IsActive = false

	url, err = uc.store.Save(ctx, url)
	if err != nil {
		return "", fmt.Errorf("%s: failed to save url: %w", op, err)
	}

	return fmt.Sprintf("Successfully deleted shortened URL for '%s'", url.TargetURL), nil
}

// keyTaken treats reserved keys as already in use.
func (uc *URLUseCase) keyTaken(ctx context.Context, key string) (bool, error) {
	if _, ok := uc.reserved[key]; ok {
		return true, nil
	}

	return uc.store.KeyExists(ctx, key)
}

func (uc *URLUseCase) authorized(ctx context.Context, secretKey string) (*entity.URL, error) {
	url, err := uc.store.FindBySecretKey(ctx, secretKey, true)
	if err != nil {
		return nil, fmt.Errorf("failed to find url: %w", err)
	}

	if err := uc.views.Authorize(url, secretKey); err != nil {
		return nil, err
	}

	return url, nil
}
