// Package sqlite stores URLs in an embedded SQLite database through gorm.
// The schema is created with gorm's auto migration on Open.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vadimbarashkov/redirector/internal/entity"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type urlDB struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Key       string    `gorm:"not null;uniqueIndex"`
	SecretKey string    `gorm:"not null;uniqueIndex"`
	TargetURL string    `gorm:"not null;index"`
	IsActive  bool      `gorm:"not null;default:true"`
	Clicks    int64     `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (urlDB) TableName() string {
	return "urls"
}

func (u *urlDB) toEntity() *entity.URL {
	return &entity.URL{
		ID:        u.ID,
		Key:       u.Key,
		SecretKey: u.SecretKey,
		TargetURL: u.TargetURL,
		IsActive:  u.IsActive,
		Clicks:    u.Clicks,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// Open opens the database at path and migrates the urls table.
// Use ":memory:" for a throwaway database.
func Open(path string) (*gorm.DB, error) {
	const op = "adapter.repository.sqlite.Open"

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open database %s: %w", op, path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get sql.DB instance: %w", op, err)
	}
	// SQLite serializes writers and every ":memory:" connection is its own database.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&urlDB{}); err != nil {
		return nil, fmt.Errorf("%s: failed to migrate database: %w", op, err)
	}

	return db, nil
}

func wrapError(op, action string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, entity.ErrKeyExists)
	case errors.Is(err, gorm.ErrInvalidDB):
		return fmt.Errorf("%s: %w: %w", op, entity.ErrStoreUnavailable, err)
	default:
		return fmt.Errorf("%s: %s: %w", op, action, err)
	}
}

type URLRepository struct {
	db *gorm.DB
}

func NewURLRepository(db *gorm.DB) *URLRepository {
	return &URLRepository{db: db}
}

func (r *URLRepository) KeyExists(ctx context.Context, key string) (bool, error) {
	const op = "adapter.repository.sqlite.URLRepository.KeyExists"

	var count int64

	err := r.db.WithContext(ctx).Model(&urlDB{}).Where(`"key" = ?`, key).Count(&count).Error
	if err != nil {
		return false, wrapError(op, "failed to count urls", err)
	}

	return count > 0, nil
}

func (r *URLRepository) find(ctx context.Context, column, value string, activeOnly bool) (*urlDB, error) {
	q := r.db.WithContext(ctx).Where(`"`+column+`" = ?`, value)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}

	var url urlDB
	if err := q.First(&url).Error; err != nil {
		return nil, err
	}

	return &url, nil
}

func (r *URLRepository) FindByKey(ctx context.Context, key string, activeOnly bool) (*entity.URL, error) {
	const op = "adapter.repository.sqlite.URLRepository.FindByKey"

	url, err := r.find(ctx, "key", key, activeOnly)
	if err != nil {
		return nil, wrapError(op, "failed to get url by key", err)
	}

	return url.toEntity(), nil
}

func (r *URLRepository) FindBySecretKey(ctx context.Context, secretKey string, activeOnly bool) (*entity.URL, error) {
	const op = "adapter.repository.sqlite.URLRepository.FindBySecretKey"

	url, err := r.find(ctx, "secret_key", secretKey, activeOnly)
	if err != nil {
		return nil, wrapError(op, "failed to get url by secret key", err)
	}

	return url.toEntity(), nil
}

func (r *URLRepository) FindAll(ctx context.Context) ([]*entity.URL, error) {
	const op = "adapter.repository.sqlite.URLRepository.FindAll"

	var rows []urlDB

	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, wrapError(op, "failed to list urls", err)
	}

	urls := make([]*entity.URL, 0, len(rows))
	for i := range rows {
		urls = append(urls, rows[i].toEntity())
	}

	return urls, nil
}

func (r *URLRepository) Insert(ctx context.Context, url *entity.URL) (*entity.URL, error) {
	const op = "adapter.repository.sqlite.URLRepository.Insert"

	row := urlDB{
		Key:       url.Key,
		SecretKey: url.SecretKey,
		TargetURL: url.TargetURL,
		IsActive:  true,
	}

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, wrapError(op, "failed to create url", err)
	}

	return row.toEntity(), nil
}

// Save writes target_url and is_active of an active URL. is_active can only go
// from true to false, and a URL deactivated in the meantime is reported as not found.
func (r *URLRepository) Save(ctx context.Context, url *entity.URL) (*entity.URL, error) {
	const op = "adapter.repository.sqlite.URLRepository.Save"

	var row urlDB

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&urlDB{}).
			Where("id = ? AND is_active = ?", url.ID, true).
			Updates(map[string]any{
				"target_url": url.TargetURL,
				"is_active":  gorm.Expr("is_active AND ?", url.IsActive),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.First(&row, url.ID).Error
	})
	if err != nil {
		return nil, wrapError(op, "failed to update url", err)
	}

	return row.toEntity(), nil
}

func (r *URLRepository) IncrementClicks(ctx context.Context, key string) (*entity.URL, error) {
	const op = "adapter.repository.sqlite.URLRepository.IncrementClicks"

	var row urlDB

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&urlDB{}).
			Where(`"key" = ? AND is_active = ?`, key, true).
			UpdateColumn("clicks", gorm.Expr("clicks + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.Where(`"key" = ?`, key).First(&row).Error
	})
	if err != nil {
		return nil, wrapError(op, "failed to increment clicks", err)
	}

	return row.toEntity(), nil
}
