package sqlstore

import (
	"context"

	"github.com/doug-martin/goqu/v9"

	"github.com/shelfkeep/library-server/internal/domain"
	"github.com/shelfkeep/library-server/internal/store"
)

const tableUsers = "users"

var userColumns = []any{"id", "name", "email"}

type userRow struct {
	ID    int64  `db:"id"`
	Name  string `db:"name"`
	Email string `db:"email"`
}

func (r *userRow) toDomain() *domain.User {
	return &domain.User{ID: r.ID, Name: r.Name, Email: r.Email}
}

// ListUsers returns all users ordered by id.
func (q *queries) ListUsers(ctx context.Context) ([]*domain.User, error) {
	var rows []userRow
	ds := q.dialect.From(tableUsers).Select(userColumns...).Order(goqu.C("id").Asc())
	if err := q.selectAll(ctx, &rows, ds); err != nil {
		return nil, err
	}

	users := make([]*domain.User, len(rows))
	for i := range rows {
		users[i] = rows[i].toDomain()
	}
	return users, nil
}

// GetUser retrieves a user by id.
func (q *queries) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	var row userRow
	ds := q.dialect.From(tableUsers).Select(userColumns...).Where(goqu.C("id").Eq(id))
	if err := q.get(ctx, &row, ds); err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// GetUserByEmail retrieves a user by exact email.
func (q *queries) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var row userRow
	ds := q.dialect.From(tableUsers).Select(userColumns...).Where(goqu.C("email").Eq(email))
	if err := q.get(ctx, &row, ds); err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// CreateUser inserts u and sets u.ID.
// Returns store.ErrAlreadyExists if the email is taken.
func (q *queries) CreateUser(ctx context.Context, u *domain.User) error {
	id, err := q.insert(ctx, q.dialect.Insert(tableUsers).Rows(goqu.Record{
		"name":  u.Name,
		"email": u.Email,
	}))
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}

// UpdateUser overwrites name and email.
func (q *queries) UpdateUser(ctx context.Context, u *domain.User) error {
	query, args, err := q.dialect.Update(tableUsers).
		Set(goqu.Record{"name": u.Name, "email": u.Email}).
		Where(goqu.C("id").Eq(u.ID)).
		Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	return q.execAffectingOne(ctx, query, args, store.ErrNotFound)
}

// DeleteUser removes a user.
// Returns store.ErrForeignKey while loan records reference the user.
func (q *queries) DeleteUser(ctx context.Context, id int64) error {
	query, args, err := q.dialect.Delete(tableUsers).
		Where(goqu.C("id").Eq(id)).
		Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	return q.execAffectingOne(ctx, query, args, store.ErrNotFound)
}
