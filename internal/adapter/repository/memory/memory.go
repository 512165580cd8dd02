// Package memory keeps URLs in process memory. Data is lost on restart, which
// makes it suitable for local runs and tests only.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vadimbarashkov/redirector/internal/entity"
)

type URLRepository struct {
	mu       sync.RWMutex
	lastID   int64
	byKey    map[string]*entity.URL
	bySecret map[string]*entity.URL
}

func NewURLRepository() *URLRepository {
	return &URLRepository{
		byKey:    make(map[string]*entity.URL),
		bySecret: make(map[string]*entity.URL),
	}
}

func clone(url *entity.URL) *entity.URL {
	c := *url
	return &c
}

func (r *URLRepository) KeyExists(_ context.Context, key string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byKey[key]
	return ok, nil
}

func (r *URLRepository) FindByKey(_ context.Context, key string, activeOnly bool) (*entity.URL, error) {
	const op = "adapter.repository.memory.URLRepository.FindByKey"

	r.mu.RLock()
	defer r.mu.RUnlock()

	url, ok := r.byKey[key]
	if !ok || (activeOnly && !url.IsActive) {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	return clone(url), nil
}

func (r *URLRepository) FindBySecretKey(_ context.Context, secretKey string, activeOnly bool) (*entity.URL, error) {
	const op = "adapter.repository.memory.URLRepository.FindBySecretKey"

	r.mu.RLock()
	defer r.mu.RUnlock()

	url, ok := r.bySecret[secretKey]
	if !ok || (activeOnly && !url.IsActive) {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	return clone(url), nil
}

func (r *URLRepository) FindAll(_ context.Context) ([]*entity.URL, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	urls := make([]*entity.URL, 0, len(r.byKey))
	for _, url := range r.byKey {
		urls = append(urls, clone(url))
	}

	sort.Slice(urls, func(i, j int) bool {
		return urls[i].ID < urls[j].ID
	})

	return urls, nil
}

func (r *URLRepository) Insert(_ context.Context, url *entity.URL) (*entity.URL, error) {
	const op = "adapter.repository.memory.URLRepository.Insert"

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byKey[url.Key]; ok {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrKeyExists)
	}
	if _, ok := r.bySecret[url.SecretKey]; ok {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrKeyExists)
	}

	now := time.Now().UTC()
	r.lastID++

	stored := &entity.URL{
		ID:        r.lastID,
		Key:       url.Key,
		SecretKey: url.SecretKey,
		TargetURL: url.TargetURL,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.byKey[stored.Key] = stored
	r.bySecret[stored.SecretKey] = stored

	return clone(stored), nil
}

// Save writes the mutable fields of url. Clicks are left alone and a
// deactivated URL stays deactivated.
func (r *URLRepository) Save(_ context.Context, url *entity.URL) (*entity.URL, error) {
	const op = "adapter.repository.memory.URLRepository.Save"

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byKey[url.Key]
	if !ok || stored.ID != url.ID || !stored.IsActive {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	stored.TargetURL = url.TargetURL
	stored.IsActive = stored.IsActive && url.IsActive
	stored.UpdatedAt = time.Now().UTC()

	return clone(stored), nil
}

func (r *URLRepository) IncrementClicks(_ context.Context, key string) (*entity.URL, error) {
	const op = "adapter.repository.memory.URLRepository.IncrementClicks"

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byKey[key]
	if !ok || !stored.IsActive {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	stored.Clicks++

	return clone(stored), nil
}
