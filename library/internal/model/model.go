package model

import (
	"time"
)

// LoanPeriod is how long a borrowed book may be kept.
const LoanPeriod = 14 * 24 * time.Hour

type Paging struct {
	Page          int `json:"page"`
	PageSize      int `json:"pageSize"`
	TotalElements int `json:"totalElements"`
}

type ListBooks struct {
	Paging `json:",inline"`
	Items  []Book `json:"items"`
}

type ListBorrowRecords struct {
	Paging `json:",inline"`
	Items  []BorrowRecord `json:"items"`
}

type Book struct {
	ID          int64  `json:"id" db:"id"`
	Title       string `json:"title" db:"title"`
	Author      string `json:"author" db:"author"`
	IsAvailable bool   `json:"is_available" db:"is_available"`
}

type BookFilter struct {
	Title     string
	Available *bool
	Page      int
	Size      int
}

// CreateBookRequest has no availability: a new book is available, and only borrowing,
// returning or deleting an active record changes that.
type CreateBookRequest struct {
	Title  string `json:"title" validate:"required,max=200"`
	Author string `json:"author" validate:"required,max=100"`
}

// UpdateBookRequest serves both PUT and PATCH; nil fields are left untouched.
type UpdateBookRequest struct {
	Title  *string `json:"title" validate:"omitempty,min=1,max=200"`
	Author *string `json:"author" validate:"omitempty,min=1,max=100"`
}

type BorrowRecord struct {
	ID         int64      `json:"id" db:"id"`
	BookID     int64      `json:"book_id" db:"book_id"`
	BookTitle  string     `json:"book_title" db:"book_title"`
	UserID     int64      `json:"user_id" db:"user_id"`
	BorrowDate time.Time  `json:"borrow_date" db:"borrow_date"`
	DueDate    time.Time  `json:"due_date" db:"due_date"`
	ReturnDate *time.Time `json:"return_date" db:"return_date"`
	Overdue    bool       `json:"is_overdue" db:"-"`
}

// IsActive reports whether the book has not been returned yet.
func (r BorrowRecord) IsActive() bool {
	return r.ReturnDate == nil
}

// IsOverdue reports whether the record is active and its due date is before now.
func (r BorrowRecord) IsOverdue(now time.Time) bool {
	return r.IsActive() && r.DueDate.Before(now)
}

type BorrowRecordFilter struct {
	UserID *int64
	Active *bool
	Page   int
	Size   int
}

type CreateBorrowRecordRequest struct {
	BookID     int64      `json:"book_id" validate:"required,gt=0"`
	UserID     int64      `json:"user_id" validate:"omitempty,gt=0"`
	BorrowDate *time.Time `json:"borrow_date"`
	DueDate    *time.Time `json:"due_date"`
	ReturnDate *time.Time `json:"return_date"`
}

type UpdateBorrowRecordRequest struct {
	UserID     *int64     `json:"user_id" validate:"omitempty,gt=0"`
	BorrowDate *time.Time `json:"borrow_date"`
	DueDate    *time.Time `json:"due_date"`
}

type BorrowRequest struct {
	BookID int64 `json:"book_id"`
	UserID int64 `json:"user_id" validate:"omitempty,gt=0"`
}

type BorrowResponse struct {
	Message  string `json:"message"`
	RecordID int64  `json:"record_id"`
}

// BorrowResult is the outcome of a successful borrow.
type BorrowResult struct {
	Record BorrowRecord
	Book   Book
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ChatRequest struct {
	Question string `json:"question"`
}

type ChatResponse struct {
	Message  string `json:"message"`
	RecordID int64  `json:"record_id,omitempty"`
}
