package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Astemirdum/library-assistant/library/internal/model"
)

// ListBorrowRecords godoc
// @Summary List borrow records
// @Tags borrow-records
// @Produce json
// @Param page query int false "page number, 0 returns all"
// @Param size query int false "page size, 0 returns all"
// @Param user_id query int false "borrower filter"
// @Param active query bool false "true lists records not yet returned"
// @Success 200 {object} model.ListBorrowRecords
// @Failure 400,500 {object} model.MessageResponse
// @Router /api/v1/borrow-records [get]
func (h *Handler) ListBorrowRecords(c echo.Context) error {
	page, size, err := paging(c)
	if err != nil {
		return err
	}
	active, err := queryBool(c, "active")
	if err != nil {
		return err
	}
	filter := model.BorrowRecordFilter{
		Active: active,
		Page:   page,
		Size:   size,
	}
	if v := c.QueryParam("user_id"); v != "" {
		userID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "user_id is invalid")
		}
		filter.UserID = &userID
	}

	records, err := h.librarySvc.ListBorrowRecords(c.Request().Context(), filter)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, records)
}

// GetBorrowRecord godoc
// @Summary Get a borrow record
// @Tags borrow-records
// @Produce json
// @Param id path int true "borrow record id"
// @Success 200 {object} model.BorrowRecord
// @Failure 400,404 {object} model.MessageResponse
// @Router /api/v1/borrow-records/{id} [get]
func (h *Handler) GetBorrowRecord(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	record, err := h.librarySvc.GetBorrowRecord(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, record)
}

// CreateBorrowRecord godoc
// @Summary Create a borrow record
// @Description Without return_date the record borrows the book.
// @Tags borrow-records
// @Accept json
// @Produce json
// @Param request body model.CreateBorrowRecordRequest true "borrow record"
// @Success 201 {object} model.BorrowRecord
// @Failure 400,404,409 {object} model.MessageResponse
// @Router /api/v1/borrow-records [post]
func (h *Handler) CreateBorrowRecord(c echo.Context) error {
	var req model.CreateBorrowRecordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	record, err := h.librarySvc.CreateBorrowRecord(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, record)
}

// UpdateBorrowRecord godoc
// @Summary Update a borrow record
// @Tags borrow-records
// @Accept json
// @Produce json
// @Param id path int true "borrow record id"
// @Param request body model.UpdateBorrowRecordRequest true "borrow record"
// @Success 200 {object} model.BorrowRecord
// @Failure 400,404 {object} model.MessageResponse
// @Router /api/v1/borrow-records/{id} [put]
// @Router /api/v1/borrow-records/{id} [patch]
func (h *Handler) UpdateBorrowRecord(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req model.UpdateBorrowRecordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	record, err := h.librarySvc.UpdateBorrowRecord(c.Request().Context(), id, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, record)
}

// DeleteBorrowRecord godoc
// @Summary Delete a borrow record
// @Description Deleting an active record makes its book available.
// @Tags borrow-records
// @Param id path int true "borrow record id"
// @Success 204
// @Failure 400,404 {object} model.MessageResponse
// @Router /api/v1/borrow-records/{id} [delete]
func (h *Handler) DeleteBorrowRecord(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.librarySvc.DeleteBorrowRecord(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// BorrowBook godoc
// @Summary Borrow a book
// @Tags borrow-records
// @Accept json
// @Produce json
// @Param request body model.BorrowRequest true "book to borrow"
// @Success 201 {object} model.BorrowResponse
// @Failure 400,404,409 {object} model.MessageResponse
// @Router /api/v1/borrow-records/borrow_book [post]
func (h *Handler) BorrowBook(c echo.Context) error {
	var req model.BorrowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.BookID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "book_id is required")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is invalid")
	}

	res, err := h.librarySvc.Borrow(c.Request().Context(), req.BookID, req.UserID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, model.BorrowResponse{
		Message:  "success",
		RecordID: res.Record.ID,
	})
}

// ReturnBook godoc
// @Summary Return a borrowed book
// @Tags borrow-records
// @Produce json
// @Param id path int true "borrow record id"
// @Success 200 {object} model.MessageResponse
// @Failure 404 {object} model.MessageResponse
// @Router /api/v1/borrow-records/{id}/return_book [post]
func (h *Handler) ReturnBook(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if _, err := h.librarySvc.ReturnBook(c.Request().Context(), id); err != nil {
		he := httpError(err)
		if he.Code == http.StatusNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "record not found or already returned")
		}
		return he
	}
	return c.JSON(http.StatusOK, model.MessageResponse{Message: "success"})
}
