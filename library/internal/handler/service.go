package handler

import (
	"context"

	"github.com/Astemirdum/library-assistant/library/internal/chatbot"
	"github.com/Astemirdum/library-assistant/library/internal/model"
	"github.com/Astemirdum/library-assistant/library/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type LibraryService interface {
	ListBooks(ctx context.Context, filter model.BookFilter) (model.ListBooks, error)
	GetBook(ctx context.Context, id int64) (model.Book, error)
	CreateBook(ctx context.Context, req model.CreateBookRequest) (model.Book, error)
	UpdateBook(ctx context.Context, id int64, req model.UpdateBookRequest) (model.Book, error)
	DeleteBook(ctx context.Context, id int64) error

	ListBorrowRecords(ctx context.Context, filter model.BorrowRecordFilter) (model.ListBorrowRecords, error)
	GetBorrowRecord(ctx context.Context, id int64) (model.BorrowRecord, error)
	CreateBorrowRecord(ctx context.Context, req model.CreateBorrowRecordRequest) (model.BorrowRecord, error)
	UpdateBorrowRecord(ctx context.Context, id int64, req model.UpdateBorrowRecordRequest) (model.BorrowRecord, error)
	DeleteBorrowRecord(ctx context.Context, id int64) error
	Borrow(ctx context.Context, bookID, userID int64) (model.BorrowResult, error)
	ReturnBook(ctx context.Context, recordID int64) (model.BorrowRecord, error)
}

type ChatService interface {
	Reply(ctx context.Context, question string) (model.ChatResponse, error)
}

var (
	_ LibraryService = (*service.Service)(nil)
	_ ChatService    = (*chatbot.Assistant)(nil)
)
