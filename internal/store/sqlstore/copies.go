package sqlstore

import (
	"context"

	"github.com/doug-martin/goqu/v9"

	"github.com/shelfkeep/library-server/internal/domain"
	"github.com/shelfkeep/library-server/internal/store"
)

const tableCopies = "book_copies"

var copyColumns = []any{"id", "book_id", "is_available"}

type copyRow struct {
	ID          int64 `db:"id"`
	BookID      int64 `db:"book_id"`
	IsAvailable bool  `db:"is_available"`
}

func (r *copyRow) toDomain() *domain.BookCopy {
	return &domain.BookCopy{ID: r.ID, BookID: r.BookID, IsAvailable: r.IsAvailable}
}

// ListCopies returns all copies ordered by id.
func (q *queries) ListCopies(ctx context.Context) ([]*domain.BookCopy, error) {
	var rows []copyRow
	ds := q.dialect.From(tableCopies).Select(copyColumns...).Order(goqu.C("id").Asc())
	if err := q.selectAll(ctx, &rows, ds); err != nil {
		return nil, err
	}

	copies := make([]*domain.BookCopy, len(rows))
	for i := range rows {
		copies[i] = rows[i].toDomain()
	}
	return copies, nil
}

// GetCopy retrieves a copy by id.
// Returns store.ErrNotFound if the copy does not exist.
func (q *queries) GetCopy(ctx context.Context, id int64) (*domain.BookCopy, error) {
	var row copyRow
	ds := q.dialect.From(tableCopies).Select(copyColumns...).Where(goqu.C("id").Eq(id))
	if err := q.get(ctx, &row, ds); err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// CreateCopy inserts c and sets c.ID.
// Returns store.ErrForeignKey if c.BookID does not exist.
func (q *queries) CreateCopy(ctx context.Context, c *domain.BookCopy) error {
	id, err := q.insert(ctx, q.dialect.Insert(tableCopies).Rows(goqu.Record{
		"book_id":      c.BookID,
		"is_available": c.IsAvailable,
	}))
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

// UpdateCopy overwrites book_id and is_available.
func (q *queries) UpdateCopy(ctx context.Context, c *domain.BookCopy) error {
	query, args, err := q.dialect.Update(tableCopies).
		Set(goqu.Record{"book_id": c.BookID, "is_available": c.IsAvailable}).
		Where(goqu.C("id").Eq(c.ID)).
		Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	return q.execAffectingOne(ctx, query, args, store.ErrNotFound)
}

// DeleteCopy removes a copy.
// Returns store.ErrForeignKey while loan records reference it.
func (q *queries) DeleteCopy(ctx context.Context, id int64) error {
	query, args, err := q.dialect.Delete(tableCopies).
		Where(goqu.C("id").Eq(id)).
		Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	return q.execAffectingOne(ctx, query, args, store.ErrNotFound)
}

// SetCopyAvailable sets the availability flag unconditionally.
func (q *queries) SetCopyAvailable(ctx context.Context, id int64, available bool) error {
	query, args, err := q.dialect.Update(tableCopies).
		Set(goqu.Record{"is_available": available}).
		Where(goqu.C("id").Eq(id)).
		Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	return q.execAffectingOne(ctx, query, args, store.ErrNotFound)
}

// ReserveCopy marks an available copy as lent out.
// The availability check is part of the UPDATE so two concurrent loans cannot both win.
func (q *queries) ReserveCopy(ctx context.Context, id int64) error {
	query, args, err := q.dialect.Update(tableCopies).
		Set(goqu.Record{"is_available": false}).
		Where(goqu.C("id").Eq(id), goqu.C("is_available").Eq(true)).
		Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	return q.execAffectingOne(ctx, query, args, store.ErrNotAvailable)
}

// CountLoansOfCopy returns how many loan records, open or closed, reference copyID.
func (q *queries) CountLoansOfCopy(ctx context.Context, copyID int64) (int, error) {
	return q.count(ctx, q.dialect.From(tableLoans).Where(goqu.C("copy_id").Eq(copyID)))
}
