package repository

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-assistant/library/internal/errs"
	"github.com/Astemirdum/library-assistant/library/internal/model"
)

//go:generate go run github.com/golang/mock/mockgen -source=repository.go -destination=mocks/mock.go

type Repository interface {
	ListBooks(ctx context.Context, filter model.BookFilter) (model.ListBooks, error)
	GetBook(ctx context.Context, id int64) (model.Book, error)
	FindBookByTitle(ctx context.Context, title string) (model.Book, error)
	CreateBook(ctx context.Context, book model.Book) (model.Book, error)
	UpdateBook(ctx context.Context, id int64, req model.UpdateBookRequest) (model.Book, error)
	DeleteBook(ctx context.Context, id int64) error

	ListBorrowRecords(ctx context.Context, filter model.BorrowRecordFilter) (model.ListBorrowRecords, error)
	GetBorrowRecord(ctx context.Context, id int64) (model.BorrowRecord, error)
	CreateBorrowRecord(ctx context.Context, record model.BorrowRecord) (model.BorrowResult, error)
	UpdateBorrowRecord(ctx context.Context, id int64, req model.UpdateBorrowRecordRequest) (model.BorrowRecord, error)
	DeleteBorrowRecord(ctx context.Context, id int64) (model.BorrowRecord, error)
	ReturnBorrowRecord(ctx context.Context, id int64, at time.Time) (model.BorrowRecord, error)
	CountOverdue(ctx context.Context, now time.Time) (int, error)
}

type repository struct {
	db  *pgxpool.Pool
	log *zap.Logger
}

func NewRepository(db *pgxpool.Pool, log *zap.Logger) (*repository, error) {
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

const (
	booksTableName         = `books`
	borrowRecordsTableName = `borrow_records`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var bookColumns = []string{"id", "title", "author", "is_available"}

var recordColumns = []string{
	"r.id", "r.book_id", "b.title as book_title", "r.user_id",
	"r.borrow_date", "r.due_date", "r.return_date",
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func paginate(q sq.SelectBuilder, page, size int) sq.SelectBuilder {
	if page != 0 && size != 0 {
		q = q.Limit(uint64(size)).Offset(uint64((page - 1) * size))
	}
	return q
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation
}

func (r *repository) count(ctx context.Context, q sq.SelectBuilder) (int, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count")
	}
	return n, nil
}

func (r *repository) ListBooks(ctx context.Context, filter model.BookFilter) (model.ListBooks, error) {
	where := sq.And{}
	if filter.Title != "" {
		where = append(where, sq.ILike{"title": containsPattern(filter.Title)})
	}
	if filter.Available != nil {
		where = append(where, sq.Eq{"is_available": *filter.Available})
	}

	q := paginate(qb.Select(bookColumns...).
		From(booksTableName).
		Where(where).
		OrderBy("id"), filter.Page, filter.Size)

	query, args, err := q.ToSql()
	if err != nil {
		return model.ListBooks{}, err
	}
	r.log.Debug("ListBooks", zap.String("query", query), zap.Any("args", args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return model.ListBooks{}, errors.Wrap(err, "ListBooks")
	}
	books, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Book])
	if err != nil {
		return model.ListBooks{}, errors.Wrap(err, "ListBooks collect")
	}

	total, err := r.count(ctx, qb.Select("count(*)").From(booksTableName).Where(where))
	if err != nil {
		return model.ListBooks{}, err
	}

	return model.ListBooks{
		Paging: model.Paging{
			Page:          filter.Page,
			PageSize:      filter.Size,
			TotalElements: total,
		},
		Items: books,
	}, nil
}

func getBook(ctx context.Context, db querier, where sq.Sqlizer, forUpdate bool) (model.Book, error) {
	q := qb.Select(bookColumns...).
		From(booksTableName).
		Where(where).
		OrderBy("id").
		Limit(1)
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}
	query, args, err := q.ToSql()
	if err != nil {
		return model.Book{}, err
	}

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return model.Book{}, err
	}
	book, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Book])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Book{}, errs.ErrNotFound
		}
		return model.Book{}, err
	}
	return book, nil
}

func (r *repository) GetBook(ctx context.Context, id int64) (model.Book, error) {
	return getBook(ctx, r.db, sq.Eq{"id": id}, false)
}

// FindBookByTitle returns the first book (lowest id) whose title contains title, ignoring case.
func (r *repository) FindBookByTitle(ctx context.Context, title string) (model.Book, error) {
	return getBook(ctx, r.db, sq.ILike{"title": containsPattern(title)}, false)
}

func (r *repository) CreateBook(ctx context.Context, book model.Book) (model.Book, error) {
	query, args, err := qb.Insert(booksTableName).
		Columns("title", "author", "is_available").
		Values(book.Title, book.Author, book.IsAvailable).
		Suffix("RETURNING " + strings.Join(bookColumns, ", ")).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return model.Book{}, errors.Wrap(err, "CreateBook")
	}
	created, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Book])
	if err != nil {
		return model.Book{}, errors.Wrap(err, "CreateBook collect")
	}
	return created, nil
}

// UpdateBook changes title and author only. Availability follows the book's borrow records.
func (r *repository) UpdateBook(ctx context.Context, id int64, req model.UpdateBookRequest) (model.Book, error) {
	set := map[string]interface{}{}
	if req.Title != nil {
		set["title"] = *req.Title
	}
	if req.Author != nil {
		set["author"] = *req.Author
	}
	if len(set) == 0 {
		return r.GetBook(ctx, id)
	}

	query, args, err := qb.Update(booksTableName).
		SetMap(set).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(bookColumns, ", ")).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return model.Book{}, errors.Wrap(err, "UpdateBook")
	}
	book, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Book])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Book{}, errs.ErrNotFound
		}
		return model.Book{}, errors.Wrap(err, "UpdateBook collect")
	}
	return book, nil
}

func (r *repository) DeleteBook(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `delete from books where id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "DeleteBook")
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *repository) ListBorrowRecords(ctx context.Context, filter model.BorrowRecordFilter) (model.ListBorrowRecords, error) {
	where := sq.And{}
	if filter.UserID != nil {
		where = append(where, sq.Eq{"r.user_id": *filter.UserID})
	}
	if filter.Active != nil {
		if *filter.Active {
			where = append(where, sq.Eq{"r.return_date": nil})
		} else {
			where = append(where, sq.NotEq{"r.return_date": nil})
		}
	}

	q := paginate(qb.Select(recordColumns...).
		From(borrowRecordsTableName+" r").
		Join(booksTableName+" b on b.id = r.book_id").
		Where(where).
		OrderBy("r.id"), filter.Page, filter.Size)

	query, args, err := q.ToSql()
	if err != nil {
		return model.ListBorrowRecords{}, err
	}
	r.log.Debug("ListBorrowRecords", zap.String("query", query), zap.Any("args", args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return model.ListBorrowRecords{}, errors.Wrap(err, "ListBorrowRecords")
	}
	records, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.BorrowRecord])
	if err != nil {
		return model.ListBorrowRecords{}, errors.Wrap(err, "ListBorrowRecords collect")
	}

	total, err := r.count(ctx, qb.Select("count(*)").From(borrowRecordsTableName+" r").Where(where))
	if err != nil {
		return model.ListBorrowRecords{}, err
	}

	return model.ListBorrowRecords{
		Paging: model.Paging{
			Page:          filter.Page,
			PageSize:      filter.Size,
			TotalElements: total,
		},
		Items: records,
	}, nil
}

func getBorrowRecord(ctx context.Context, db querier, id int64) (model.BorrowRecord, error) {
	query, args, err := qb.Select(recordColumns...).
		From(borrowRecordsTableName + " r").
		Join(booksTableName + " b on b.id = r.book_id").
		Where(sq.Eq{"r.id": id}).
		ToSql()
	if err != nil {
		return model.BorrowRecord{}, err
	}

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return model.BorrowRecord{}, err
	}
	record, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.BorrowRecord])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.BorrowRecord{}, errs.ErrNotFound
		}
		return model.BorrowRecord{}, err
	}
	return record, nil
}

func (r *repository) GetBorrowRecord(ctx context.Context, id int64) (model.BorrowRecord, error) {
	return getBorrowRecord(ctx, r.db, id)
}

// CreateBorrowRecord inserts a record in one transaction. An active record (nil ReturnDate)
// locks the book row, fails with errs.ErrConflict when the book is already borrowed
// and marks the book unavailable.
func (r *repository) CreateBorrowRecord(ctx context.Context, record model.BorrowRecord) (model.BorrowResult, error) {
	var res model.BorrowResult
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		book, err := getBook(ctx, tx, sq.Eq{"id": record.BookID}, true)
		if err != nil {
			return err
		}
		active := record.IsActive()
		if active && !book.IsAvailable {
			return errs.ErrConflict
		}

		query, args, err := qb.Insert(borrowRecordsTableName).
			Columns("book_id", "user_id", "borrow_date", "due_date", "return_date").
			Values(record.BookID, record.UserID, record.BorrowDate, record.DueDate, record.ReturnDate).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return err
		}
		var id int64
		if err := tx.QueryRow(ctx, query, args...).Scan(&id); err != nil {
			if isForeignKeyViolation(err) {
				return errs.ErrNotFound
			}
			return errors.Wrap(err, "insert borrow record")
		}

		if active {
			if _, err := tx.Exec(ctx, `update books set is_available = false where id = $1`, book.ID); err != nil {
				return errors.Wrap(err, "mark book borrowed")
			}
			book.IsAvailable = false
		}

		record.ID = id
		record.BookTitle = book.Title
		res = model.BorrowResult{Record: record, Book: book}
		return nil
	})
	if err != nil {
		return model.BorrowResult{}, err
	}
	return res, nil
}

func (r *repository) UpdateBorrowRecord(ctx context.Context, id int64, req model.UpdateBorrowRecordRequest) (model.BorrowRecord, error) {
	set := map[string]interface{}{}
	if req.UserID != nil {
		set["user_id"] = *req.UserID
	}
	if req.BorrowDate != nil {
		set["borrow_date"] = *req.BorrowDate
	}
	if req.DueDate != nil {
		set["due_date"] = *req.DueDate
	}
	if len(set) == 0 {
		return r.GetBorrowRecord(ctx, id)
	}

	query, args, err := qb.Update(borrowRecordsTableName).
		SetMap(set).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return model.BorrowRecord{}, err
	}
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return model.BorrowRecord{}, errors.Wrap(err, "UpdateBorrowRecord")
	}
	if tag.RowsAffected() == 0 {
		return model.BorrowRecord{}, errs.ErrNotFound
	}
	return r.GetBorrowRecord(ctx, id)
}

// DeleteBorrowRecord removes the record; the book of an active record becomes available again.
func (r *repository) DeleteBorrowRecord(ctx context.Context, id int64) (model.BorrowRecord, error) {
	var deleted model.BorrowRecord
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		record, err := getBorrowRecord(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `delete from borrow_records where id = $1`, id); err != nil {
			return errors.Wrap(err, "delete borrow record")
		}
		if record.IsActive() {
			if _, err := tx.Exec(ctx, `update books set is_available = true where id = $1`, record.BookID); err != nil {
				return errors.Wrap(err, "release book")
			}
		}
		deleted = record
		return nil
	})
	if err != nil {
		return model.BorrowRecord{}, err
	}
	return deleted, nil
}

// ReturnBorrowRecord stamps the return date of an active record and releases its book.
// A missing or already returned record yields errs.ErrNotFound.
func (r *repository) ReturnBorrowRecord(ctx context.Context, id int64, at time.Time) (model.BorrowRecord, error) {
	var returned model.BorrowRecord
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		q := `
update borrow_records
    set return_date = @return_date
where id = @id and return_date is null
returning book_id`
		args := pgx.NamedArgs{
			"id":          id,
			"return_date": at,
		}
		var bookID int64
		if err := tx.QueryRow(ctx, q, args).Scan(&bookID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return errs.ErrNotFound
			}
			return errors.Wrap(err, "stamp return date")
		}
		if _, err := tx.Exec(ctx, `update books set is_available = true where id = $1`, bookID); err != nil {
			return errors.Wrap(err, "release book")
		}
		record, err := getBorrowRecord(ctx, tx, id)
		if err != nil {
			return err
		}
		returned = record
		return nil
	})
	if err != nil {
		return model.BorrowRecord{}, err
	}
	return returned, nil
}

func (r *repository) CountOverdue(ctx context.Context, now time.Time) (int, error) {
	return r.count(ctx, qb.Select("count(*)").
		From(borrowRecordsTableName).
		Where(sq.Eq{"return_date": nil}).
		Where(sq.Lt{"due_date": now}))
}
