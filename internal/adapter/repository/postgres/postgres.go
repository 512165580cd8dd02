package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/redirector/internal/entity"
)

const uniqueViolationErrCode = "23505"

func isUniqueViolationError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.SQLState() == uniqueViolationErrCode
}

func isConnectionError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// wrapError maps err onto the entity taxonomy, keeping the driver error in the chain.
func wrapError(op, action string, err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	case isConnectionError(err):
		return fmt.Errorf("%s: %w: %w", op, entity.ErrStoreUnavailable, err)
	default:
		return fmt.Errorf("%s: %s: %w", op, action, err)
	}
}

type urlDB struct {
	ID        int64     `db:"id"`
	Key       string    `db:"key"`
	SecretKey string    `db:"secret_key"`
	TargetURL string    `db:"target_url"`
	IsActive  bool      `db:"is_active"`
	Clicks    int64     `db:"clicks"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
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

type URLRepository struct {
	db *sqlx.DB
}

func NewURLRepository(db *sqlx.DB) *URLRepository {
	return &URLRepository{db: db}
}

func (r *URLRepository) KeyExists(ctx context.Context, key string) (bool, error) {
	const op = "adapter.repository.postgres.URLRepository.KeyExists"
	const query = `SELECT EXISTS(SELECT 1 FROM urls WHERE key = $1)`

	var exists bool

	if err := r.db.GetContext(ctx, &exists, query, key); err != nil {
		return false, wrapError(op, "failed to check key in urls table", err)
	}

	return exists, nil
}

func (r *URLRepository) FindByKey(ctx context.Context, key string, activeOnly bool) (*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.FindByKey"
	const query = `SELECT * FROM urls WHERE key = $1 AND (is_active OR NOT $2)`

	var url urlDB

	if err := r.db.GetContext(ctx, &url, query, key, activeOnly); err != nil {
		return nil, wrapError(op, "failed to get row from urls table", err)
	}

	return url.toEntity(), nil
}

func (r *URLRepository) FindBySecretKey(ctx context.Context, secretKey string, activeOnly bool) (*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.FindBySecretKey"
	const query = `SELECT * FROM urls WHERE secret_key = $1 AND (is_active OR NOT $2)`

	var url urlDB

	if err := r.db.GetContext(ctx, &url, query, secretKey, activeOnly); err != nil {
		return nil, wrapError(op, "failed to get row from urls table", err)
	}

	return url.toEntity(), nil
}

func (r *URLRepository) FindAll(ctx context.Context) ([]*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.FindAll"
	const query = `SELECT * FROM urls ORDER BY id`

	var rows []urlDB

	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, wrapError(op, "failed to select from urls table", err)
	}

	urls := make([]*entity.URL, 0, len(rows))
	for i := range rows {
		urls = append(urls, rows[i].toEntity())
	}

	return urls, nil
}

func (r *URLRepository) Insert(ctx context.Context, url *entity.URL) (*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.Insert"
	const query = `INSERT INTO urls(key, secret_key, target_url) VALUES ($1, $2, $3) RETURNING *`

	var row urlDB

	if err := r.db.GetContext(ctx, &row, query, url.Key, url.SecretKey, url.TargetURL); err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrKeyExists)
		}

		return nil, wrapError(op, "failed to insert into urls table", err)
	}

	return row.toEntity(), nil
}

// Save writes target_url and is_active of an active URL. is_active can only go
// from true to false, and a URL deactivated in the meantime is reported as not found.
func (r *URLRepository) Save(ctx context.Context, url *entity.URL) (*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.Save"
	const query = `UPDATE urls
		SET target_url = $1, is_active = is_active AND $2, updated_at = NOW()
		WHERE id = $3 AND is_active
		RETURNING *`

	var row urlDB

	if err := r.db.GetContext(ctx, &row, query, url.TargetURL, url.IsActive, url.ID); err != nil {
		return nil, wrapError(op, "failed to update urls table row", err)
	}

	return row.toEntity(), nil
}

func (r *URLRepository) IncrementClicks(ctx context.Context, key string) (*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.IncrementClicks"
	const query = `UPDATE urls SET clicks = clicks + 1 WHERE key = $1 AND is_active RETURNING *`

	var row urlDB

	if err := r.db.GetContext(ctx, &row, query, key); err != nil {
		return nil, wrapError(op, "failed to get and update urls table row", err)
	}

	return row.toEntity(), nil
}
