package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-assistant/library/internal/errs"
	"github.com/Astemirdum/library-assistant/library/internal/model"
	libraryRepo "github.com/Astemirdum/library-assistant/library/internal/repository"
	"github.com/Astemirdum/library-assistant/pkg/kafka"
)

type Service struct {
	log             *zap.Logger
	repo            libraryRepo.Repository
	publisher       kafka.Publisher
	defaultBorrower int64
	now             func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now as the source of borrow, due and return dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithPublisher(p kafka.Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithDefaultBorrower sets the user id used when a borrow request carries none.
func WithDefaultBorrower(userID int64) Option {
	return func(s *Service) {
		s.defaultBorrower = userID
	}
}

func NewService(repo libraryRepo.Repository, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		log:             log.Named("service"),
		repo:            repo,
		publisher:       kafka.NewPublisher(nil, ""),
		defaultBorrower: 1,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) ListBooks(ctx context.Context, filter model.BookFilter) (model.ListBooks, error) {
	return s.repo.ListBooks(ctx, filter)
}

func (s *Service) GetBook(ctx context.Context, id int64) (model.Book, error) {
	return s.repo.GetBook(ctx, id)
}

func (s *Service) FindBookByTitle(ctx context.Context, title string) (model.Book, error) {
	return s.repo.FindBookByTitle(ctx, title)
}

func (s *Service) CreateBook(ctx context.Context, req model.CreateBookRequest) (model.Book, error) {
	return s.repo.CreateBook(ctx, model.Book{
		Title:       req.Title,
		Author:      req.Author,
		IsAvailable: true,
	})
}

func (s *Service) UpdateBook(ctx context.Context, id int64, req model.UpdateBookRequest) (model.Book, error) {
	return s.repo.UpdateBook(ctx, id, req)
}

func (s *Service) DeleteBook(ctx context.Context, id int64) error {
	return s.repo.DeleteBook(ctx, id)
}

func (s *Service) ListBorrowRecords(ctx context.Context, filter model.BorrowRecordFilter) (model.ListBorrowRecords, error) {
	list, err := s.repo.ListBorrowRecords(ctx, filter)
	if err != nil {
		return model.ListBorrowRecords{}, err
	}
	now := s.now()
	for i := range list.Items {
		list.Items[i].Overdue = list.Items[i].IsOverdue(now)
	}
	return list, nil
}

func (s *Service) GetBorrowRecord(ctx context.Context, id int64) (model.BorrowRecord, error) {
	record, err := s.repo.GetBorrowRecord(ctx, id)
	if err != nil {
		return model.BorrowRecord{}, err
	}
	return s.withOverdue(record), nil
}

// CreateBorrowRecord stores a record. Without a return date it is a borrow: the book must be
// available and becomes unavailable. Missing dates default to now and now plus the loan period.
func (s *Service) CreateBorrowRecord(ctx context.Context, req model.CreateBorrowRecordRequest) (model.BorrowRecord, error) {
	if req.BookID <= 0 {
		return model.BorrowRecord{}, errs.ErrBadRequest
	}
	record := model.BorrowRecord{
		BookID:     req.BookID,
		UserID:     req.UserID,
		BorrowDate: s.now(),
		ReturnDate: req.ReturnDate,
	}
	if record.UserID == 0 {
		record.UserID = s.defaultBorrower
	}
	if req.BorrowDate != nil {
		record.BorrowDate = *req.BorrowDate
	}
	record.DueDate = record.BorrowDate.Add(model.LoanPeriod)
	if req.DueDate != nil {
		record.DueDate = *req.DueDate
	}

	res, err := s.repo.CreateBorrowRecord(ctx, record)
	if err != nil {
		return model.BorrowRecord{}, err
	}
	if res.Record.IsActive() {
		s.publish(ctx, kafka.EventBorrowed, res.Record, res.Record.BorrowDate)
	}
	return s.withOverdue(res.Record), nil
}

func (s *Service) UpdateBorrowRecord(ctx context.Context, id int64, req model.UpdateBorrowRecordRequest) (model.BorrowRecord, error) {
	record, err := s.repo.UpdateBorrowRecord(ctx, id, req)
	if err != nil {
		return model.BorrowRecord{}, err
	}
	return s.withOverdue(record), nil
}

func (s *Service) DeleteBorrowRecord(ctx context.Context, id int64) error {
	record, err := s.repo.DeleteBorrowRecord(ctx, id)
	if err != nil {
		return err
	}
	if record.IsActive() {
		s.publish(ctx, kafka.EventReturned, record, s.now())
	}
	return nil
}

// Borrow lends the book to userID (the default borrower when zero) for the loan period.
// It fails with errs.ErrNotFound for a missing book and errs.ErrConflict when the book is
// already borrowed.
func (s *Service) Borrow(ctx context.Context, bookID, userID int64) (model.BorrowResult, error) {
	if bookID <= 0 {
		return model.BorrowResult{}, errs.ErrBadRequest
	}
	if userID == 0 {
		userID = s.defaultBorrower
	}
	now := s.now()
	res, err := s.repo.CreateBorrowRecord(ctx, model.BorrowRecord{
		BookID:     bookID,
		UserID:     userID,
		BorrowDate: now,
		DueDate:    now.Add(model.LoanPeriod),
	})
	if err != nil {
		return model.BorrowResult{}, err
	}
	s.log.Info("book borrowed",
		zap.Int64("book_id", bookID),
		zap.Int64("user_id", userID),
		zap.Int64("record_id", res.Record.ID))
	s.publish(ctx, kafka.EventBorrowed, res.Record, now)
	return res, nil
}

// ReturnBook closes the active record with the given id and releases its book.
func (s *Service) ReturnBook(ctx context.Context, recordID int64) (model.BorrowRecord, error) {
	now := s.now()
	record, err := s.repo.ReturnBorrowRecord(ctx, recordID, now)
	if err != nil {
		return model.BorrowRecord{}, err
	}
	s.log.Info("book returned",
		zap.Int64("book_id", record.BookID),
		zap.Int64("record_id", record.ID))
	s.publish(ctx, kafka.EventReturned, record, now)
	return s.withOverdue(record), nil
}

func (s *Service) CountOverdue(ctx context.Context) (int, error) {
	n, err := s.repo.CountOverdue(ctx, s.now())
	if err != nil {
		return 0, errors.Wrap(err, "CountOverdue")
	}
	return n, nil
}

func (s *Service) withOverdue(record model.BorrowRecord) model.BorrowRecord {
	record.Overdue = record.IsOverdue(s.now())
	return record
}

func (s *Service) publish(ctx context.Context, typ kafka.EventType, record model.BorrowRecord, at time.Time) {
	event := kafka.NewBorrowEvent(typ, record.ID, record.BookID, record.UserID, at)
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn("publish borrow event",
			zap.String("type", string(typ)),
			zap.Int64("record_id", record.ID),
			zap.Error(err))
	}
}
