package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-assistant/library/internal/errs"
	"github.com/Astemirdum/library-assistant/pkg/metrics"
	md "github.com/Astemirdum/library-assistant/pkg/middleware"
	"github.com/Astemirdum/library-assistant/pkg/validate"
	_ "github.com/Astemirdum/library-assistant/swagger"
)

type Handler struct {
	librarySvc LibraryService
	chatSvc    ChatService
	log        *zap.Logger
}

func New(librarySvc LibraryService, chatSvc ChatService, log *zap.Logger) *Handler {
	return &Handler{
		librarySvc: librarySvc,
		chatSvc:    chatSvc,
		log:        log.Named("handler"),
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))
	e.Use(metrics.Middleware)

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)
	base.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	base.GET("/swagger/*", echoSwagger.WrapHandler)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig(h.log)),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
	)

	api.GET("/books", h.ListBooks)
	api.POST("/books", h.CreateBook)
	api.GET("/books/:id", h.GetBook)
	api.PUT("/books/:id", h.UpdateBook)
	api.PATCH("/books/:id", h.PatchBook)
	api.DELETE("/books/:id", h.DeleteBook)

	api.GET("/borrow-records", h.ListBorrowRecords)
	api.POST("/borrow-records", h.CreateBorrowRecord)
	api.POST("/borrow-records/borrow_book", h.BorrowBook)
	api.GET("/borrow-records/:id", h.GetBorrowRecord)
	api.PUT("/borrow-records/:id", h.UpdateBorrowRecord)
	api.PATCH("/borrow-records/:id", h.UpdateBorrowRecord)
	api.DELETE("/borrow-records/:id", h.DeleteBorrowRecord)
	api.POST("/borrow-records/:id/return_book", h.ReturnBook)

	api.POST("/chat", h.Chat)

	return e
}

// Health godoc
// @Summary Health check
// @Tags manage
// @Produce plain
// @Success 200 {string} string
// @Router /manage/health [get]
func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, errs.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, errs.ErrBadRequest):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "id is invalid")
	}
	return id, nil
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func queryInt(c echo.Context, name string) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" is invalid")
	}
	return n, nil
}

func queryBool(c echo.Context, name string) (*bool, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, name+" is invalid")
	}
	return &b, nil
}

func paging(c echo.Context) (page, size int, err error) {
	if page, err = queryInt(c, "page"); err != nil {
		return 0, 0, err
	}
	if size, err = queryInt(c, "size"); err != nil {
		return 0, 0, err
	}
	return page, size, nil
}
