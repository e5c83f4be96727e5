package sqlstore

import (
	"context"

	"github.com/doug-martin/goqu/v9"

	"github.com/shelfkeep/library-server/internal/domain"
	"github.com/shelfkeep/library-server/internal/store"
)

const tableBooks = "books"

var bookColumns = []any{"id", "title", "author", "genre", "description"}

type bookRow struct {
	ID          int64  `db:"id"`
	Title       string `db:"title"`
	Author      string `db:"author"`
	Genre       string `db:"genre"`
	Description string `db:"description"`
}

func (r *bookRow) toDomain() *domain.Book {
	return &domain.Book{
		ID:          r.ID,
		Title:       r.Title,
		Author:      r.Author,
		Genre:       domain.Genre(r.Genre),
		Description: r.Description,
	}
}

func bookRecord(b *domain.Book) goqu.Record {
	return goqu.Record{
		"title":       b.Title,
		"author":      b.Author,
		"genre":       string(b.Genre),
		"description": b.Description,
	}
}

// ListBooks returns all books ordered by id.
func (q *queries) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	var rows []bookRow
	ds := q.dialect.From(tableBooks).Select(bookColumns...).Order(goqu.C("id").Asc())
	if err := q.selectAll(ctx, &rows, ds); err != nil {
		return nil, err
	}

	books := make([]*domain.Book, len(rows))
	for i := range rows {
		books[i] = rows[i].toDomain()
	}
	return books, nil
}

// GetBook retrieves a book by id.
// Returns store.ErrNotFound if the book does not exist.
func (q *queries) GetBook(ctx context.Context, id int64) (*domain.Book, error) {
	var row bookRow
	ds := q.dialect.From(tableBooks).Select(bookColumns...).Where(goqu.C("id").Eq(id))
	if err := q.get(ctx, &row, ds); err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// FindBook looks a book up by its identity triple.
// Returns store.ErrNotFound if no book matches.
func (q *queries) FindBook(ctx context.Context, title, author string, genre domain.Genre) (*domain.Book, error) {
	var row bookRow
	ds := q.dialect.From(tableBooks).Select(bookColumns...).Where(goqu.Ex{
		"title":  title,
		"author": author,
		"genre":  string(genre),
	})
	if err := q.get(ctx, &row, ds); err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// CreateBook inserts b and sets b.ID.
// Returns store.ErrAlreadyExists on a duplicate (title, author, genre).
func (q *queries) CreateBook(ctx context.Context, b *domain.Book) error {
	id, err := q.insert(ctx, q.dialect.Insert(tableBooks).Rows(bookRecord(b)))
	if err != nil {
		return err
	}
	b.ID = id
	return nil
}

// UpdateBook overwrites every mutable column of b.
// Returns store.ErrNotFound if no row has b.ID.
func (q *queries) UpdateBook(ctx context.Context, b *domain.Book) error {
	query, args, err := q.dialect.Update(tableBooks).
		Set(bookRecord(b)).
		Where(goqu.C("id").Eq(b.ID)).
		Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	return q.execAffectingOne(ctx, query, args, store.ErrNotFound)
}

// DeleteBook removes a book.
// Returns store.ErrForeignKey while copies still reference it.
func (q *queries) DeleteBook(ctx context.Context, id int64) error {
	query, args, err := q.dialect.Delete(tableBooks).
		Where(goqu.C("id").Eq(id)).
		Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	return q.execAffectingOne(ctx, query, args, store.ErrNotFound)
}

// CountCopiesOfBook returns how many copies reference bookID.
func (q *queries) CountCopiesOfBook(ctx context.Context, bookID int64) (int, error) {
	return q.count(ctx, q.dialect.From(tableCopies).Where(goqu.C("book_id").Eq(bookID)))
}
