package response

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/heartrisk/heartrisk/internal/model"
)

// OK sends a 200 response with data as the body.
func OK(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, data)
}

// Error sends {"error": message} with the given status.
func Error(c echo.Context, status int, message string) error {
	return c.JSON(status, model.ErrorBody{Error: message})
}

// BadRequest sends 400 with message.
func BadRequest(c echo.Context, message string) error {
	return Error(c, http.StatusBadRequest, message)
}

// InternalError sends 500 with message.
func InternalError(c echo.Context, message string) error {
	return Error(c, http.StatusInternalServerError, message)
}
