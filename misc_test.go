package gofilterer

import (
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Person struct {
	ID    uint
	Name  string
	Email string
}

var _sqlMockFnList = []func() (string, *gorm.DB, sqlmock.Sqlmock, error){
	newGORMMySQLMock,
	newGORMPostgresMock,
}

func newGORMMySQLMock() (string, *gorm.DB, sqlmock.Sqlmock, error) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		return "", nil, nil, err
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      mockDB,
		SkipInitializeWithVersion: true,
	})

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return "", nil, nil, err
	}

	return "mysql", db.Debug(), mock, nil
}

func newGORMPostgresMock() (string, *gorm.DB, sqlmock.Sqlmock, error) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		return "", nil, nil, err
	}

	dialector := postgres.New(postgres.Config{
		Conn: mockDB,
	})

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return "", nil, nil, err
	}

	return "postgres", db.Debug(), mock, nil
}

// newTestDB returns a mock-backed gorm DB for tests that never hit the database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	_, db, _, err := newGORMMySQLMock()
	require.NoError(t, err)

	return db
}

func newPersonFilterer(db *gorm.DB) *Config {
	return NewConfig().
		WithStartingQuery(func() *gorm.DB { return db.Table("people") }).
		WithParam("name", func(q *gorm.DB, v any) *gorm.DB { return q.Where("name = ?", v) }).
		MustSortOption(Key("name"), Literal("people.name"), SortDefault).
		MustSortOption(Key("id"), OrderingSource{}, 0)
}

// orderByOf renders the ORDER BY columns collected on q.
func orderByOf(t *testing.T, q *gorm.DB) string {
	t.Helper()

	c, ok := q.Statement.Clauses["ORDER BY"]
	if !ok {
		return ""
	}

	orderBy, ok := c.Expression.(clause.OrderBy)
	require.True(t, ok, "unexpected ORDER BY expression %T", c.Expression)

	return strings.Join(lo.Map(orderBy.Columns, func(col clause.OrderByColumn, _ int) string {
		return col.Column.Name
	}), ", ")
}
