package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Astemirdum/library-assistant/library/internal/model"
)

// ListBooks godoc
// @Summary List books
// @Tags books
// @Produce json
// @Param page query int false "page number, 0 returns all"
// @Param size query int false "page size, 0 returns all"
// @Param title query string false "case-insensitive title substring"
// @Param available query bool false "availability filter"
// @Success 200 {object} model.ListBooks
// @Failure 400,500 {object} model.MessageResponse
// @Router /api/v1/books [get]
func (h *Handler) ListBooks(c echo.Context) error {
	page, size, err := paging(c)
	if err != nil {
		return err
	}
	available, err := queryBool(c, "available")
	if err != nil {
		return err
	}

	books, err := h.librarySvc.ListBooks(c.Request().Context(), model.BookFilter{
		Title:     c.QueryParam("title"),
		Available: available,
		Page:      page,
		Size:      size,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, books)
}

// GetBook godoc
// @Summary Get a book
// @Tags books
// @Produce json
// @Param id path int true "book id"
// @Success 200 {object} model.Book
// @Failure 400,404 {object} model.MessageResponse
// @Router /api/v1/books/{id} [get]
func (h *Handler) GetBook(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	book, err := h.librarySvc.GetBook(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, book)
}

// CreateBook godoc
// @Summary Create a book
// @Description New books are available.
// @Tags books
// @Accept json
// @Produce json
// @Param request body model.CreateBookRequest true "book"
// @Success 201 {object} model.Book
// @Failure 400,500 {object} model.MessageResponse
// @Router /api/v1/books [post]
func (h *Handler) CreateBook(c echo.Context) error {
	var req model.CreateBookRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	book, err := h.librarySvc.CreateBook(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, book)
}

// UpdateBook godoc
// @Summary Replace title and author of a book
// @Tags books
// @Accept json
// @Produce json
// @Param id path int true "book id"
// @Param request body model.UpdateBookRequest true "book"
// @Success 200 {object} model.Book
// @Failure 400,404 {object} model.MessageResponse
// @Router /api/v1/books/{id} [put]
func (h *Handler) UpdateBook(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req model.UpdateBookRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.Title == nil || req.Author == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "title and author are required")
	}
	return h.updateBook(c, id, req)
}

// PatchBook godoc
// @Summary Update a book
// @Description Availability is read-only; it follows borrowing and returning.
// @Tags books
// @Accept json
// @Produce json
// @Param id path int true "book id"
// @Param request body model.UpdateBookRequest true "book"
// @Success 200 {object} model.Book
// @Failure 400,404 {object} model.MessageResponse
// @Router /api/v1/books/{id} [patch]
func (h *Handler) PatchBook(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req model.UpdateBookRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	return h.updateBook(c, id, req)
}

func (h *Handler) updateBook(c echo.Context, id int64, req model.UpdateBookRequest) error {
	book, err := h.librarySvc.UpdateBook(c.Request().Context(), id, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, book)
}

// DeleteBook godoc
// @Summary Delete a book and its borrow records
// @Tags books
// @Param id path int true "book id"
// @Success 204
// @Failure 400,404 {object} model.MessageResponse
// @Router /api/v1/books/{id} [delete]
func (h *Handler) DeleteBook(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.librarySvc.DeleteBook(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
