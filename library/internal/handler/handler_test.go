package handler_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-assistant/library/internal/errs"
	"github.com/Astemirdum/library-assistant/library/internal/handler"
	"github.com/Astemirdum/library-assistant/library/internal/model"
	"github.com/Astemirdum/library-assistant/pkg/validate"

	service_mocks "github.com/Astemirdum/library-assistant/library/internal/handler/mocks"
)

type response struct {
	expectedCode int
	expectedBody string
}

func newTestEcho(t *testing.T) (*echo.Echo, *handler.Handler, *service_mocks.MockLibraryService, *service_mocks.MockChatService) {
	t.Helper()
	c := gomock.NewController(t)
	svc := service_mocks.NewMockLibraryService(c)
	chat := service_mocks.NewMockChatService(c)
	h := handler.New(svc, chat, zap.NewExample().Named("test"))

	e := echo.New()
	e.Validator = validate.NewCustomValidator()
	return e, h, svc, chat
}

func serve(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, http.NoBody)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, r)
	return w
}

func TestHandler_BorrowBook(t *testing.T) {
	t.Parallel()
	type mockBehavior func(r *service_mocks.MockLibraryService)

	var tests = []struct {
		name         string
		body         string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name: "ok",
			body: `{"book_id":2}`,
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().
					Borrow(context.Background(), int64(2), int64(0)).
					Return(model.BorrowResult{Record: model.BorrowRecord{ID: 7, BookID: 2}}, nil)
			},
			response: response{
				expectedCode: http.StatusCreated,
				expectedBody: `{"message":"success","record_id":7}`,
			},
		},
		{
			name: "ok. explicit user",
			body: `{"book_id":2,"user_id":5}`,
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().
					Borrow(context.Background(), int64(2), int64(5)).
					Return(model.BorrowResult{Record: model.BorrowRecord{ID: 8, BookID: 2, UserID: 5}}, nil)
			},
			response: response{
				expectedCode: http.StatusCreated,
				expectedBody: `{"message":"success","record_id":8}`,
			},
		},
		{
			name:         "err. book_id required",
			body:         `{}`,
			mockBehavior: func(r *service_mocks.MockLibraryService) {},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"book_id is required"}`,
			},
		},
		{
			name:         "err. negative user_id",
			body:         `{"book_id":2,"user_id":-3}`,
			mockBehavior: func(r *service_mocks.MockLibraryService) {},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"user_id is invalid"}`,
			},
		},
		{
			name: "err. book not found",
			body: `{"book_id":99}`,
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().
					Borrow(context.Background(), int64(99), int64(0)).
					Return(model.BorrowResult{}, errs.ErrNotFound)
			},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"message":"not found"}`,
			},
		},
		{
			name: "err. already borrowed",
			body: `{"book_id":2}`,
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().
					Borrow(context.Background(), int64(2), int64(0)).
					Return(model.BorrowResult{}, errs.ErrConflict)
			},
			response: response{
				expectedCode: http.StatusConflict,
				expectedBody: `{"message":"book is already borrowed"}`,
			},
		},
		{
			name: "err. internal",
			body: `{"book_id":2}`,
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().
					Borrow(context.Background(), int64(2), int64(0)).
					Return(model.BorrowResult{}, errors.New("db internal"))
			},
			response: response{
				expectedCode: http.StatusInternalServerError,
				expectedBody: `{"message":"db internal"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, h, svc, _ := newTestEcho(t)
			e.POST("/borrow-records/borrow_book", h.BorrowBook)

			tt.mockBehavior(svc)
			w := serve(e, http.MethodPost, "/borrow-records/borrow_book", tt.body)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_ReturnBook(t *testing.T) {
	t.Parallel()
	type mockBehavior func(r *service_mocks.MockLibraryService)

	returned := time.Date(2024, 5, 21, 0, 0, 0, 0, time.UTC)
	var tests = []struct {
		name         string
		id           string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name: "ok",
			id:   "7",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().
					ReturnBook(context.Background(), int64(7)).
					Return(model.BorrowRecord{ID: 7, ReturnDate: &returned}, nil)
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"message":"success"}`,
			},
		},
		{
			name: "err. already returned",
			id:   "7",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().
					ReturnBook(context.Background(), int64(7)).
					Return(model.BorrowRecord{}, errs.ErrNotFound)
			},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"message":"record not found or already returned"}`,
			},
		},
		{
			name:         "err. invalid id",
			id:           "seven",
			mockBehavior: func(r *service_mocks.MockLibraryService) {},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"id is invalid"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, h, svc, _ := newTestEcho(t)
			e.POST("/borrow-records/:id/return_book", h.ReturnBook)

			tt.mockBehavior(svc)
			w := serve(e, http.MethodPost, fmt.Sprintf("/borrow-records/%s/return_book", tt.id), "")

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_Chat(t *testing.T) {
	t.Parallel()
	type mockBehavior func(r *service_mocks.MockChatService)

	var tests = []struct {
		name         string
		body         string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name: "ok. borrow",
			body: `{"question":"borrow ID 2"}`,
			mockBehavior: func(r *service_mocks.MockChatService) {
				r.EXPECT().
					Reply(context.Background(), "borrow ID 2").
					Return(model.ChatResponse{Message: "Successfully borrowed 'LAB_Works', due on 2024-06-03.", RecordID: 3}, nil)
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"message":"Successfully borrowed 'LAB_Works', due on 2024-06-03.","record_id":3}`,
			},
		},
		{
			name: "ok. answer",
			body: `{"question":"How long can I keep a book?"}`,
			mockBehavior: func(r *service_mocks.MockChatService) {
				r.EXPECT().
					Reply(context.Background(), "How long can I keep a book?").
					Return(model.ChatResponse{Message: "Fourteen days."}, nil)
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"message":"Fourteen days."}`,
			},
		},
		{
			name:         "err. empty question",
			body:         `{"question":"  "}`,
			mockBehavior: func(r *service_mocks.MockChatService) {},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"please provide a question"}`,
			},
		},
		{
			name: "err. llm unreachable",
			body: `{"question":"borrow ID 2"}`,
			mockBehavior: func(r *service_mocks.MockChatService) {
				r.EXPECT().
					Reply(context.Background(), "borrow ID 2").
					Return(model.ChatResponse{}, errors.New("llm down"))
			},
			response: response{
				expectedCode: http.StatusInternalServerError,
				expectedBody: `{"message":"An error occurred: llm down"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, h, _, chat := newTestEcho(t)
			e.POST("/chat", h.Chat)

			tt.mockBehavior(chat)
			w := serve(e, http.MethodPost, "/chat", tt.body)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_ListBooks(t *testing.T) {
	t.Parallel()
	type mockBehavior func(r *service_mocks.MockLibraryService)

	available := true
	var tests = []struct {
		name         string
		query        string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name:  "ok",
			query: "?page=1&size=2&title=harry&available=true",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().
					ListBooks(context.Background(), model.BookFilter{Title: "harry", Available: &available, Page: 1, Size: 2}).
					Return(model.ListBooks{
						Paging: model.Paging{Page: 1, PageSize: 2, TotalElements: 1},
						Items:  []model.Book{{ID: 1, Title: "Harry Potter", Author: "J.K. Rowling", IsAvailable: true}},
					}, nil)
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"page":1,"pageSize":2,"totalElements":1,"items":[{"id":1,"title":"Harry Potter","author":"J.K. Rowling","is_available":true}]}`,
			},
		},
		{
			name:         "err. page invalid",
			query:        "?page=first",
			mockBehavior: func(r *service_mocks.MockLibraryService) {},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"page is invalid"}`,
			},
		},
		{
			name:         "err. available invalid",
			query:        "?available=maybe",
			mockBehavior: func(r *service_mocks.MockLibraryService) {},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"available is invalid"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, h, svc, _ := newTestEcho(t)
			e.GET("/books", h.ListBooks)

			tt.mockBehavior(svc)
			w := serve(e, http.MethodGet, "/books"+tt.query, "")

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_Books(t *testing.T) {
	t.Parallel()

	t.Run("create", func(t *testing.T) {
		t.Parallel()
		e, h, svc, _ := newTestEcho(t)
		e.POST("/books", h.CreateBook)
		svc.EXPECT().
			CreateBook(context.Background(), model.CreateBookRequest{Title: "Dune", Author: "Frank Herbert"}).
			Return(model.Book{ID: 9, Title: "Dune", Author: "Frank Herbert", IsAvailable: true}, nil)

		w := serve(e, http.MethodPost, "/books", `{"title":"Dune","author":"Frank Herbert"}`)
		require.Equal(t, http.StatusCreated, w.Code)
		require.Equal(t, `{"id":9,"title":"Dune","author":"Frank Herbert","is_available":true}`, strings.Trim(w.Body.String(), "\n"))
	})

	t.Run("create requires author", func(t *testing.T) {
		t.Parallel()
		e, h, _, _ := newTestEcho(t)
		e.POST("/books", h.CreateBook)

		w := serve(e, http.MethodPost, "/books", `{"title":"Dune"}`)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("put requires title and author", func(t *testing.T) {
		t.Parallel()
		e, h, _, _ := newTestEcho(t)
		e.PUT("/books/:id", h.UpdateBook)

		w := serve(e, http.MethodPut, "/books/9", `{"title":"Dune"}`)
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Equal(t, `{"message":"title and author are required"}`, strings.Trim(w.Body.String(), "\n"))
	})

	t.Run("patch", func(t *testing.T) {
		t.Parallel()
		e, h, svc, _ := newTestEcho(t)
		e.PATCH("/books/:id", h.PatchBook)
		svc.EXPECT().
			UpdateBook(context.Background(), int64(9), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ int64, req model.UpdateBookRequest) (model.Book, error) {
				if req.Title == nil || req.Author != nil {
					return model.Book{}, errors.New("unexpected patch")
				}
				return model.Book{ID: 9, Title: *req.Title, Author: "Frank Herbert", IsAvailable: true}, nil
			})

		w := serve(e, http.MethodPatch, "/books/9", `{"title":"Dune Messiah"}`)
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, `{"id":9,"title":"Dune Messiah","author":"Frank Herbert","is_available":true}`, strings.Trim(w.Body.String(), "\n"))
	})

	t.Run("patch ignores availability", func(t *testing.T) {
		t.Parallel()
		e, h, svc, _ := newTestEcho(t)
		e.PATCH("/books/:id", h.PatchBook)
		svc.EXPECT().
			UpdateBook(context.Background(), int64(9), model.UpdateBookRequest{}).
			Return(model.Book{ID: 9, Title: "Dune", Author: "Frank Herbert", IsAvailable: false}, nil)

		w := serve(e, http.MethodPatch, "/books/9", `{"is_available":true}`)
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, `{"id":9,"title":"Dune","author":"Frank Herbert","is_available":false}`, strings.Trim(w.Body.String(), "\n"))
	})

	t.Run("get not found", func(t *testing.T) {
		t.Parallel()
		e, h, svc, _ := newTestEcho(t)
		e.GET("/books/:id", h.GetBook)
		svc.EXPECT().GetBook(context.Background(), int64(404)).Return(model.Book{}, errs.ErrNotFound)

		w := serve(e, http.MethodGet, "/books/404", "")
		require.Equal(t, http.StatusNotFound, w.Code)
		require.Equal(t, `{"message":"not found"}`, strings.Trim(w.Body.String(), "\n"))
	})

	t.Run("delete", func(t *testing.T) {
		t.Parallel()
		e, h, svc, _ := newTestEcho(t)
		e.DELETE("/books/:id", h.DeleteBook)
		svc.EXPECT().DeleteBook(context.Background(), int64(9)).Return(nil)

		w := serve(e, http.MethodDelete, "/books/9", "")
		require.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestHandler_GetBorrowRecord(t *testing.T) {
	t.Parallel()
	e, h, svc, _ := newTestEcho(t)
	e.GET("/borrow-records/:id", h.GetBorrowRecord)

	borrowed := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	svc.EXPECT().
		GetBorrowRecord(context.Background(), int64(1)).
		Return(model.BorrowRecord{
			ID:         1,
			BookID:     2,
			BookTitle:  "LAB_Works",
			UserID:     1,
			BorrowDate: borrowed,
			DueDate:    borrowed.Add(model.LoanPeriod),
			Overdue:    true,
		}, nil)

	w := serve(e, http.MethodGet, "/borrow-records/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t,
		`{"id":1,"book_id":2,"book_title":"LAB_Works","user_id":1,"borrow_date":"2024-05-01T08:00:00Z","due_date":"2024-05-15T08:00:00Z","return_date":null,"is_overdue":true}`,
		strings.Trim(w.Body.String(), "\n"))
}

func TestHandler_ListBorrowRecords(t *testing.T) {
	t.Parallel()
	e, h, svc, _ := newTestEcho(t)
	e.GET("/borrow-records", h.ListBorrowRecords)

	userID := int64(3)
	active := true
	svc.EXPECT().
		ListBorrowRecords(context.Background(), model.BorrowRecordFilter{UserID: &userID, Active: &active}).
		Return(model.ListBorrowRecords{Items: []model.BorrowRecord{}}, nil)

	w := serve(e, http.MethodGet, "/borrow-records?user_id=3&active=true", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, `{"page":0,"pageSize":0,"totalElements":0,"items":[]}`, strings.Trim(w.Body.String(), "\n"))
}

func TestHandler_Router(t *testing.T) {
	t.Parallel()
	c := gomock.NewController(t)
	svc := service_mocks.NewMockLibraryService(c)
	chat := service_mocks.NewMockChatService(c)
	e := handler.New(svc, chat, zap.NewExample()).NewRouter()

	w := serve(e, http.MethodGet, "/manage/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "OK", w.Body.String())

	svc.EXPECT().
		Borrow(gomock.Any(), int64(4), int64(0)).
		Return(model.BorrowResult{Record: model.BorrowRecord{ID: 12}}, nil)
	w = serve(e, http.MethodPost, "/api/v1/borrow-records/borrow_book", `{"book_id":4}`)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, `{"message":"success","record_id":12}`, strings.Trim(w.Body.String(), "\n"))

	w = serve(e, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "library_http_requests_total")
}

func TestHandler_RoutesDocumented(t *testing.T) {
	t.Parallel()
	_, h, _, _ := newTestEcho(t)
	e := h.NewRouter()

	doc, err := swag.ReadDoc("swagger")
	require.NoError(t, err)
	require.True(t, gjson.Valid(doc))
	paths := gjson.Parse(doc).Get("paths").Map()

	documented := 0
	for _, route := range e.Routes() {
		switch route.Method {
		case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			continue
		}
		if route.Path == "/metrics" || strings.HasPrefix(route.Path, "/swagger") {
			continue
		}
		path := strings.ReplaceAll(route.Path, ":id", "{id}")
		item, ok := paths[path]
		require.Truef(t, ok, "%s is not documented", path)
		require.Truef(t, item.Get(strings.ToLower(route.Method)).Exists(), "%s %s is not documented", route.Method, path)
		documented++
	}
	require.Equal(t, 16, documented)
}
