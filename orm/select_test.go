package orm

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/coderi421/mvc/orm/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelector_Build(t *testing.T) {
	db := mockDB(t)
	type testCase struct {
		name    string
		q       QueryBuilder
		want    *Query
		wantErr error
	}
	tests := []testCase{
		{
			name: "from",
			q:    NewSelector(db).From("users"),
			want: &Query{
				SQL: "SELECT * FROM `users`;",
			},
		},
		{
			name:    "empty from",
			q:       NewSelector(db).From(""),
			wantErr: errs.ErrEmptyTable,
		},
		{
			name: "with db",
			q:    NewSelector(db).From("test_db.users"),
			want: &Query{
				SQL: "SELECT * FROM `test_db`.`users`;",
			},
		},
		{
			name:    "invalid table",
			q:       NewSelector(db).From("users; DROP TABLE users"),
			wantErr: errs.NewErrInvalidColumn("users; DROP TABLE users"),
		},
		{
			name:    "nil session",
			q:       NewSelector(nil).From("users"),
			wantErr: errs.ErrNilSession,
		},
		{
			name: "single where",
			q:    NewSelector(db).From("users").Where("id", "=", 1),
			want: &Query{
				SQL:  "SELECT * FROM `users` WHERE `id` = ?;",
				Args: []any{1},
			},
		},
		{
			name: "where and",
			q:    NewSelector(db).From("users").Where("age", ">", 18).Where("name", "like", "T%"),
			want: &Query{
				SQL:  "SELECT * FROM `users` WHERE `age` > ? AND `name` LIKE ?;",
				Args: []any{18, "T%"},
			},
		},
		{
			// 同一列出现两次，两个值都要绑定
			name: "same column twice",
			q:    NewSelector(db).From("users").Where("age", ">=", 18).Where("age", "<", 30),
			want: &Query{
				SQL:  "SELECT * FROM `users` WHERE `age` >= ? AND `age` < ?;",
				Args: []any{18, 30},
			},
		},
		{
			name: "not like",
			q:    NewSelector(db).From("users").Where("name", "not  like", "T%"),
			want: &Query{
				SQL:  "SELECT * FROM `users` WHERE `name` NOT LIKE ?;",
				Args: []any{"T%"},
			},
		},
		{
			name: "qualified column",
			q:    NewSelector(db).From("users").Where("users.id", "<>", 1),
			want: &Query{
				SQL:  "SELECT * FROM `users` WHERE `users`.`id` <> ?;",
				Args: []any{1},
			},
		},
		{
			name:    "invalid operator",
			q:       NewSelector(db).From("users").Where("id", "= 1 OR 1 =", 1),
			wantErr: errs.NewErrInvalidOperator("= 1 OR 1 ="),
		},
		{
			name:    "invalid column",
			q:       NewSelector(db).From("users").Where("id; --", "=", 1),
			wantErr: errs.NewErrInvalidColumn("id; --"),
		},
		{
			name: "order by",
			q:    NewSelector(db).From("users").OrderBy("age", "desc").OrderBy("id", ASC),
			want: &Query{
				SQL: "SELECT * FROM `users` ORDER BY `age` DESC,`id` ASC;",
			},
		},
		{
			name:    "invalid direction",
			q:       NewSelector(db).From("users").OrderBy("age", "up"),
			wantErr: errs.NewErrInvalidDirection("up"),
		},
		{
			// GROUP BY 必须在 ORDER BY 之前
			name: "group by and order by",
			q:    NewSelector(db).From("users").OrderBy("age", ASC).GroupBy("age"),
			want: &Query{
				SQL: "SELECT * FROM `users` GROUP BY `age` ORDER BY `age` ASC;",
			},
		},
		{
			name: "limit and offset",
			q:    NewSelector(db).From("users").Offset(20).Limit(10),
			want: &Query{
				SQL:  "SELECT * FROM `users` LIMIT ? OFFSET ?;",
				Args: []any{10, 20},
			},
		},
		{
			name: "limit zero",
			q:    NewSelector(db).From("users").Limit(0),
			want: &Query{
				SQL:  "SELECT * FROM `users` LIMIT ?;",
				Args: []any{0},
			},
		},
		{
			name: "offset zero",
			q:    NewSelector(db).From("users").Offset(0),
			want: &Query{
				SQL: "SELECT * FROM `users`;",
			},
		},
		{
			name:    "negative limit",
			q:       NewSelector(db).From("users").Limit(-1),
			wantErr: errs.NewErrInvalidLimit("limit", -1),
		},
		{
			name:    "negative offset",
			q:       NewSelector(db).From("users").Offset(-5),
			wantErr: errs.NewErrInvalidLimit("offset", -5),
		},
		{
			name: "all clauses",
			q: NewSelector(db).From("users").
				Where("age", ">", 18).
				GroupBy("age").
				OrderBy("age", DESC).
				Limit(5).
				Offset(10),
			want: &Query{
				SQL:  "SELECT * FROM `users` WHERE `age` > ? GROUP BY `age` ORDER BY `age` DESC LIMIT ? OFFSET ?;",
				Args: []any{18, 5, 10},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q, err := tc.q.Build()
			assert.Equal(t, tc.wantErr, err)
			if err != nil {
				return
			}
			assert.Equal(t, tc.want, q)
		})
	}
}

func TestSelector_BuildPostgreSQL(t *testing.T) {
	db := mockDB(t, DBWithDialect(PostgreSQL))
	q, err := NewSelector(db).From("users").
		Where("age", ">", 18).
		Where("name", "=", "Tom").
		Limit(10).
		Offset(10).
		Build()
	require.NoError(t, err)
	assert.Equal(t, &Query{
		SQL:  `SELECT * FROM "users" WHERE "age" > $1 AND "name" = $2 LIMIT $3 OFFSET $4;`,
		Args: []any{18, "Tom", 10, 10},
	}, q)
}

func TestSelector_buildCount(t *testing.T) {
	db := mockDB(t)
	testCases := []struct {
		name string
		s    *Selector
		want *Query
	}{
		{
			// 排序和分页不影响总数
			name: "where",
			s:    NewSelector(db).From("users").Where("age", ">", 18).OrderBy("id", ASC).Limit(10).Offset(10),
			want: &Query{
				SQL:  "SELECT COUNT(*) FROM `users` WHERE `age` > ?;",
				Args: []any{18},
			},
		},
		{
			name: "group by",
			s:    NewSelector(db).From("users").Where("age", ">", 18).GroupBy("age"),
			want: &Query{
				SQL:  "SELECT COUNT(*) FROM (SELECT `age` FROM `users` WHERE `age` > ? GROUP BY `age`) AS `grouped`;",
				Args: []any{18},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := tc.s.buildCount()
			require.NoError(t, err)
			assert.Equal(t, tc.want, q)
		})
	}
}

func TestSelector_Get(t *testing.T) {
	db, mock := mockDBWithMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `users` WHERE `age` > ? ORDER BY `id` ASC;")).
		WithArgs(18).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(1), []byte("Tom")).
			AddRow(int64(2), []byte("Jerry")))

	rows, err := NewSelector(db).From("users").Where("age", ">", 18).OrderBy("id", ASC).Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Row{
		{"id": int64(1), "name": "Tom"},
		{"id": int64(2), "name": "Jerry"},
	}, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelector_First(t *testing.T) {
	testCases := []struct {
		name     string
		mockRows *sqlmock.Rows
		wantRow  Row
		wantErr  error
	}{
		{
			name:     "no rows",
			mockRows: sqlmock.NewRows([]string{"id"}),
			wantErr:  ErrNoRows,
		},
		{
			name:     "first of many",
			mockRows: sqlmock.NewRows([]string{"id"}).AddRow(int64(3)).AddRow(int64(4)),
			wantRow:  Row{"id": int64(3)},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := mockDBWithMock(t)
			mock.ExpectQuery("SELECT .*").WillReturnRows(tc.mockRows)

			row, err := NewSelector(db).From("users").First(context.Background())
			assert.Equal(t, tc.wantErr, err)
			if err != nil {
				return
			}
			assert.Equal(t, tc.wantRow, row)
		})
	}
}

func TestSelector_QueryExecutionError(t *testing.T) {
	db, mock := mockDBWithMock(t)
	driverErr := errors.New("mock driver error")
	mock.ExpectQuery("SELECT .*").WillReturnError(driverErr)

	_, err := NewSelector(db).From("users").Get(context.Background())
	require.Error(t, err)

	var qe *QueryExecutionError
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, "SELECT * FROM `users`;", qe.SQL)
	assert.True(t, errors.Is(err, driverErr))
}

func TestSelector_Paginate(t *testing.T) {
	testCases := []struct {
		name     string
		perPage  int
		page     int
		mockFunc func(mock sqlmock.Sqlmock)
		wantPage *Page
		wantErr  error
	}{
		{
			name:    "second page",
			perPage: 2,
			page:    2,
			mockFunc: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `users` WHERE `age` > ? LIMIT ? OFFSET ?;")).
					WithArgs(18, 2, 2).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)).AddRow(int64(4)))
				mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM `users` WHERE `age` > ?;")).
					WithArgs(18).
					WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(int64(5)))
			},
			wantPage: &Page{
				Data:        []Row{{"id": int64(3)}, {"id": int64(4)}},
				CurrentPage: 2,
				PerPage:     2,
				Total:       5,
				LastPage:    3,
			},
		},
		{
			// 0 代表使用默认值
			name: "default values",
			mockFunc: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `users` WHERE `age` > ? LIMIT ?;")).
					WithArgs(18, 10).
					WillReturnRows(sqlmock.NewRows([]string{"id"}))
				mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM `users` WHERE `age` > ?;")).
					WithArgs(18).
					WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(int64(0)))
			},
			wantPage: &Page{
				Data:        []Row{},
				CurrentPage: 1,
				PerPage:     10,
				Total:       0,
				LastPage:    0,
			},
		},
		{
			name:     "negative per page",
			perPage:  -1,
			page:     1,
			mockFunc: func(mock sqlmock.Sqlmock) {},
			wantErr:  ErrInvalidPerPage,
		},
		{
			name:     "negative page",
			perPage:  10,
			page:     -1,
			mockFunc: func(mock sqlmock.Sqlmock) {},
			wantErr:  ErrInvalidPage,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := mockDBWithMock(t)
			tc.mockFunc(mock)

			p, err := NewSelector(db).From("users").Where("age", ">", 18).
				Paginate(context.Background(), tc.perPage, tc.page)
			assert.Equal(t, tc.wantErr, err)
			if err != nil {
				return
			}
			assert.Equal(t, tc.wantPage, p)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func mockDB(t *testing.T, opts ...DBOption) *DB {
	db, _ := mockDBWithMock(t, opts...)
	return db
}

func mockDBWithMock(t *testing.T, opts ...DBOption) (*DB, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = mockDB.Close()
	})
	db, err := OpenDB(mockDB, opts...)
	require.NoError(t, err)
	return db, mock
}
