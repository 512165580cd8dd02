package repository

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadimbarashkov/redirector/internal/config"
	"github.com/vadimbarashkov/redirector/internal/entity"
)

func TestOpen(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("unknown backend", func(t *testing.T) {
		cfg := &config.Config{Storage: config.Storage{Backend: "redis"}}

		store, err := Open(context.Background(), cfg, logger)

		assert.ErrorIs(t, err, config.ErrInvalidConfig)
		assert.Nil(t, store)
	})

	backends := []struct {
		name string
		cfg  *config.Config
	}{
		{
			name: "memory",
			cfg:  &config.Config{Storage: config.Storage{Backend: config.BackendMemory}},
		},
		{
			name: "sqlite",
			cfg: &config.Config{
				Storage: config.Storage{Backend: config.BackendSQLite},
				SQLite:  config.SQLite{Path: filepath.Join(t.TempDir(), "urls.db")},
			},
		},
	}

	for _, tt := range backends {
		t.Run(tt.name, func(t *testing.T) {
			store, err := Open(context.Background(), tt.cfg, logger)
			require.NoError(t, err)
			t.Cleanup(func() {
				assert.NoError(t, store.Close())
			})

			url, err := store.Insert(context.Background(), &entity.URL{
				Key:       "abcde",
				SecretKey: "abcde_12345678",
				TargetURL: "https://example.com",
			})
			require.NoError(t, err)

			got, err := store.FindByKey(context.Background(), "abcde", true)
			assert.NoError(t, err)
			assert.Equal(t, url.TargetURL, got.TargetURL)
		})
	}
}
