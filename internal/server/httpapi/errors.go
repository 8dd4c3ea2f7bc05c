package httpapi

import (
	"errors"
	"net/http"

	"github.com/deferscky/stringeditor/internal/common"
	"github.com/labstack/echo/v4"
)

// writeError maps a service error to a status and a non-sensitive body.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrorWrongPassword):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "wrong password"})
	case errors.Is(err, common.ErrorBadInput):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, common.ErrorUnauthorized):
		return unauthorized(c)
	case errors.Is(err, common.ErrorAlreadyExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "login already taken"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}
