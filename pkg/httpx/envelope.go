// Package httpx holds the JSON response envelope shared by every handler.
package httpx

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Message string `json:"message,omitempty"`
}

type PagedEnvelope struct {
	Envelope
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	TotalPages int   `json:"totalPages"`
}

func OK(c echo.Context, status int, data any) error {
	return c.JSON(status, Envelope{Success: true, Data: data})
}

func List(c echo.Context, data any, count int) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Data: data, Count: &count})
}

func Paged(c echo.Context, data any, count int, total int64, page, totalPages int) error {
	return c.JSON(http.StatusOK, PagedEnvelope{
		Envelope:   Envelope{Success: true, Data: data, Count: &count},
		Total:      total,
		Page:       page,
		TotalPages: totalPages,
	})
}

func Message(c echo.Context, status int, msg string) error {
	return c.JSON(status, Envelope{Success: true, Message: msg})
}

// ErrorHandler renders every error returned by a handler as a failed envelope.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := http.StatusText(code)
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		switch m := he.Message.(type) {
		case string:
			msg = m
		case error:
			msg = m.Error()
		default:
			msg = fmt.Sprintf("%v", m)
		}
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, Envelope{Success: false, Error: msg})
}
