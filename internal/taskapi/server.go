package taskapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/ptran999/nodebucket/internal/validate"
)

// MaxBodySize bounds request bodies accepted by the API.
const MaxBodySize = "64K"

const healthTimeout = 2 * time.Second

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	OK      bool   `json:"ok"`
	DB      string `json:"db"`
	Version string `json:"version"`
	Time    string `json:"time"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Type    string          `json:"type"`
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Errors  validate.Errors `json:"errors,omitempty"`
}

// Server provides the HTTP API for nodebucket.
type Server struct {
	service *Service
	addr    string
	echo    *echo.Echo
	logger  *log.Logger
}

// NewServer builds the echo instance with middleware and routes.
func NewServer(service *Service, addr, version string, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.StandardLogger()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler(logger)
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 30 * time.Second

	e.Use(RequestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))
	e.Use(middleware.BodyLimit(MaxBodySize))

	Register(e, service, version)

	return &Server{service: service, addr: addr, echo: e, logger: logger}
}

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, service *Service, version string) {
	e.GET("/employees/:empId", getEmployee(service))
	e.GET("/employees/:empId/tasks", getTasks(service))
	e.POST("/employees/:empId/tasks", createTask(service))
	e.PUT("/employees/:empId/tasks", replaceTasks(service))
	e.DELETE("/employees/:empId/tasks/:taskId", deleteTask(service))
	e.GET("/health", health(service, version))
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on the configured address. It returns http.ErrServerClosed
// after Shutdown.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.addr).Info("starting nodebucket API")
	return s.echo.Start(s.addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func getEmployee(service *Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		e, err := service.GetEmployee(c.Request().Context(), c.Param("empId"))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, e)
	}
}

func getTasks(service *Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		lists, err := service.GetTasks(c.Request().Context(), c.Param("empId"))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, lists)
	}
}

func createTask(service *Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		body, err := readBody(c)
		if err != nil {
			return err
		}
		result, err := service.CreateTask(c.Request().Context(), c.Param("empId"), body)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, result)
	}
}

func replaceTasks(service *Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		body, err := readBody(c)
		if err != nil {
			return err
		}
		if err := service.ReplaceTaskLists(c.Request().Context(), c.Param("empId"), body); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func deleteTask(service *Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := service.DeleteTask(c.Request().Context(), c.Param("empId"), c.Param("taskId")); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func health(service *Service, version string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
		defer cancel()

		resp := HealthResponse{
			OK:      true,
			DB:      "ok",
			Version: version,
			Time:    time.Now().UTC().Format(time.RFC3339),
		}
		status := http.StatusOK
		if err := service.Ping(ctx); err != nil {
			resp.OK = false
			resp.DB = "error: " + err.Error()
			status = http.StatusServiceUnavailable
		}
		return c.JSON(status, resp)
	}
}

func readBody(c echo.Context) ([]byte, error) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return nil, he
		}
		return nil, echo.NewHTTPError(http.StatusBadRequest, "unable to read body")
	}
	return body, nil
}

// ErrorHandler is the single place where errors become HTTP responses.
func ErrorHandler(logger *log.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		resp := ErrorResponse{Type: "error"}
		var apiErr *Error
		var he *echo.HTTPError
		switch {
		case errors.As(err, &apiErr):
			resp.Status = apiErr.Status()
			resp.Message = apiErr.Message
			resp.Errors = apiErr.Fields
		case errors.As(err, &he):
			resp.Status = he.Code
			resp.Message = fmt.Sprint(he.Message)
			if he.Code == http.StatusNotFound {
				resp.Message = "not found"
			}
		default:
			resp.Status = http.StatusInternalServerError
			resp.Message = "internal server error"
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(resp.Status)
		} else {
			werr = c.JSON(resp.Status, resp)
		}
		if werr != nil {
			logger.WithError(werr).Error("failed to write error response")
		}
	}
}

// RequestLogger logs one entry per request. Expected client errors log at
// info, no-op writes at warn and faults at error.
func RequestLogger(logger *log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			fields := log.Fields{
				"method":     req.Method,
				"path":       req.URL.Path,
				"status":     c.Response().Status,
				"latency_ms": time.Since(start).Milliseconds(),
			}
			if empID := c.Param("empId"); empID != "" {
				fields["empId"] = empID
			}
			entry := logger.WithFields(fields)
			if err != nil {
				entry = entry.WithError(err)
			}

			switch {
			case errors.Is(err, ErrNoOp):
				entry.Warn("request completed")
			case c.Response().Status >= http.StatusInternalServerError:
				entry.Error("request failed")
			default:
				entry.Info("request completed")
			}
			return nil
		}
	}
}
