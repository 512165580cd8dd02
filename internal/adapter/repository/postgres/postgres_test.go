package postgres

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/vadimbarashkov/redirector/internal/entity"
)

func TestIsUniqueViolationError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "unique violation error",
			err:  &pgconn.PgError{Code: uniqueViolationErrCode},
			want: true,
		},
		{
			name: "not unique violation error",
			err:  &pgconn.PgError{Code: "unknown error code"},
			want: false,
		},
		{
			name: "not PgError",
			err:  errors.New("unknown error"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isUniqueViolationError(tt.err)

			assert.Equal(t, tt.want, got)
		})
	}
}

type URLRepositoryTestSuite struct {
	suite.Suite
	errUnknown error
	errConn    error
	columns    []string
	mock       sqlmock.Sqlmock
	repo       *URLRepository
}

func (suite *URLRepositoryTestSuite) SetupSuite() {
	suite.errUnknown = errors.New("unknown error")
	suite.errConn = &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	suite.columns = []string{"id", "key", "secret_key", "target_url", "is_active", "clicks", "created_at", "updated_at"}
}

func (suite *URLRepositoryTestSuite) SetupSubTest() {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		suite.T().Fatalf("Failed to create mock database: %v", err)
	}
	suite.T().Cleanup(func() {
		mockDB.Close()
	})

	db := sqlx.NewDb(mockDB, "sqlmock")

	suite.mock = mock
	suite.repo = NewURLRepository(db)
}

func (suite *URLRepositoryTestSuite) TearDownSubTest() {
	suite.NoError(suite.mock.ExpectationsWereMet())
}

func (suite *URLRepositoryTestSuite) row(active bool, clicks int64) *sqlmock.Rows {
	return sqlmock.NewRows(suite.columns).
		AddRow(1, "abcde", "abcde_12345678", "https://example.com", active, clicks, time.Time{}, time.Time{})
}

func (suite *URLRepositoryTestSuite) TestKeyExists() {
	suite.Run("store unavailable", func() {
		suite.mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs("abcde").
			WillReturnError(suite.errConn)

		exists, err := suite.repo.KeyExists(context.Background(), "abcde")

		suite.ErrorIs(err, entity.ErrStoreUnavailable)
		suite.False(exists)
	})

	suite.Run("success", func() {
		suite.mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs("abcde").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		exists, err := suite.repo.KeyExists(context.Background(), "abcde")

		suite.NoError(err)
		suite.True(exists)
	})
}

func (suite *URLRepositoryTestSuite) TestFindByKey() {
	suite.Run("url not found", func() {
		suite.mock.ExpectQuery(`SELECT (.+) FROM urls WHERE key`).
			WithArgs("abcde", true).
			WillReturnError(sql.ErrNoRows)

		url, err := suite.repo.FindByKey(context.Background(), "abcde", true)

		suite.ErrorIs(err, entity.ErrURLNotFound)
		suite.Nil(url)
	})

	suite.Run("unknown error", func() {
		suite.mock.ExpectQuery(`SELECT (.+) FROM urls WHERE key`).
			WithArgs("abcde", true).
			WillReturnError(suite.errUnknown)

		url, err := suite.repo.FindByKey(context.Background(), "abcde", true)

		suite.ErrorIs(err, suite.errUnknown)
		suite.NotErrorIs(err, entity.ErrStoreUnavailable)
		suite.Nil(url)
	})

	suite.Run("success", func() {
		suite.mock.ExpectQuery(`SELECT (.+) FROM urls WHERE key`).
			WithArgs("abcde", false).
			WillReturnRows(suite.row(false, 2))

		url, err := suite.repo.FindByKey(context.Background(), "abcde", false)

		suite.NoError(err)
		suite.Equal("abcde", url.Key)
		suite.Equal("abcde_12345678", url.SecretKey)
		suite.False(url.IsActive)
		suite.Equal(int64(2), url.Clicks)
	})
}

func (suite *URLRepositoryTestSuite) TestFindBySecretKey() {
	suite.Run("url not found", func() {
		suite.mock.ExpectQuery(`SELECT (.+) FROM urls WHERE secret_key`).
			WithArgs("abcde_12345678", true).
			WillReturnError(sql.ErrNoRows)

		url, err := suite.repo.FindBySecretKey(context.Background(), "abcde_12345678", true)

		suite.ErrorIs(err, entity.ErrURLNotFound)
		suite.Nil(url)
	})

	suite.Run("success", func() {
		suite.mock.ExpectQuery(`SELECT (.+) FROM urls WHERE secret_key`).
			WithArgs("abcde_12345678", true).
			WillReturnRows(suite.row(true, 0))

		url, err := suite.repo.FindBySecretKey(context.Background(), "abcde_12345678", true)

		suite.NoError(err)
		suite.Equal("abcde", url.Key)
		suite.True(url.IsActive)
	})
}

func (suite *URLRepositoryTestSuite) TestFindAll() {
	suite.Run("unknown error", func() {
		suite.mock.ExpectQuery(`SELECT (.+) FROM urls ORDER BY id`).
			WillReturnError(suite.errUnknown)

		urls, err := suite.repo.FindAll(context.Background())

		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(urls)
	})

	suite.Run("success", func() {
		rows := sqlmock.NewRows(suite.columns).
			AddRow(1, "abcde", "abcde_12345678", "https://example.com", true, 0, time.Time{}, time.Time{}).
			AddRow(2, "fghij", "fghij_12345678", "https://example.org", false, 5, time.Time{}, time.Time{})

		suite.mock.ExpectQuery(`SELECT (.+) FROM urls ORDER BY id`).
			WillReturnRows(rows)

		urls, err := suite.repo.FindAll(context.Background())

		suite.NoError(err)
		suite.Len(urls, 2)
		suite.False(urls[1].IsActive)
	})
}

func (suite *URLRepositoryTestSuite) TestInsert() {
	suite.Run("key exists", func() {
		suite.mock.ExpectQuery(`INSERT INTO urls`).
			WithArgs("abcde", "abcde_12345678", "https://example.com").
			WillReturnError(&pgconn.PgError{Code: uniqueViolationErrCode})

		url, err := suite.repo.Insert(context.Background(), &entity.URL{
			Key:       "abcde",
			SecretKey: "abcde_12345678",
			TargetURL: "https://example.com",
		})

		suite.ErrorIs(err, entity.ErrKeyExists)
		suite.Nil(url)
	})

	suite.Run("unknown error", func() {
		suite.mock.ExpectQuery(`INSERT INTO urls`).
			WithArgs("abcde", "abcde_12345678", "https://example.com").
			WillReturnError(suite.errUnknown)

		url, err := suite.repo.Insert(context.Background(), &entity.URL{
			Key:       "abcde",
			SecretKey: "abcde_12345678",
			TargetURL: "https://example.com",
		})

		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(url)
	})

	suite.Run("success", func() {
		suite.mock.ExpectQuery(`INSERT INTO urls`).
			WithArgs("abcde", "abcde_12345678", "https://example.com").
			WillReturnRows(suite.row(true, 0))

		url, err := suite.repo.Insert(context.Background(), &entity.URL{
			Key:       "abcde",
			SecretKey: "abcde_12345678",
			TargetURL: "https://example.com",
		})

		suite.NoError(err)
		suite.Equal(int64(1), url.ID)
		suite.True(url.IsActive)
		suite.Zero(url.Clicks)
	})
}

func (suite *URLRepositoryTestSuite) TestSave() {
	suite.Run("url not found", func() {
		suite.mock.ExpectQuery(`UPDATE urls`).
			WithArgs("https://example.com", false, int64(1)).
			WillReturnError(sql.ErrNoRows)

		url, err := suite.repo.Save(context.Background(), &entity.URL{ID: 1, TargetURL: "https://example.com"})

		suite.ErrorIs(err, entity.ErrURLNotFound)
		suite.Nil(url)
	})

	suite.Run("only active urls are updated", func() {
		suite.mock.ExpectQuery(`UPDATE urls\s+SET target_url = \$1, is_active = is_active AND \$2, updated_at = NOW\(\)\s+WHERE id = \$3 AND is_active\s+RETURNING \*`).
			WithArgs("https://new.example.com", true, int64(1)).
			WillReturnRows(sqlmock.NewRows(nil))

		url, err := suite.repo.Save(context.Background(), &entity.URL{ID: 1, TargetURL: "https://new.example.com", IsActive: true})

		suite.ErrorIs(err, entity.ErrURLNotFound)
		suite.Nil(url)
	})

	suite.Run("success", func() {
		suite.mock.ExpectQuery(`UPDATE urls`).
			WithArgs("https://example.com", false, int64(1)).
			WillReturnRows(suite.row(false, 3))

		url, err := suite.repo.Save(context.Background(), &entity.URL{ID: 1, TargetURL: "https://example.com"})

		suite.NoError(err)
		suite.False(url.IsActive)
		suite.Equal(int64(3), url.Clicks)
	})
}

func (suite *URLRepositoryTestSuite) TestIncrementClicks() {
	suite.Run("url not found", func() {
		suite.mock.ExpectQuery(`UPDATE urls SET clicks = clicks \+ 1`).
			WithArgs("abcde").
			WillReturnError(sql.ErrNoRows)

		url, err := suite.repo.IncrementClicks(context.Background(), "abcde")

		suite.ErrorIs(err, entity.ErrURLNotFound)
		suite.Nil(url)
	})

	suite.Run("success", func() {
		suite.mock.ExpectQuery(`UPDATE urls SET clicks = clicks \+ 1`).
			WithArgs("abcde").
			WillReturnRows(suite.row(true, 1))

		url, err := suite.repo.IncrementClicks(context.Background(), "abcde")

		suite.NoError(err)
		suite.Equal(int64(1), url.Clicks)
	})
}

func TestURLRepository(t *testing.T) {
	suite.Run(t, new(URLRepositoryTestSuite))
}
