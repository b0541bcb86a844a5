package handler

import (
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/inventory-system/internal/api/middleware"
	"github.com/99minutos/inventory-system/internal/core/domain"
)

var objectIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// currentUserID returns the account id the Auth middleware stored on the context.
func currentUserID(c echo.Context) (string, error) {
	id, _ := c.Get(middleware.ContextUserID).(string)
	if id == "" {
		return "", domain.ErrUnauthorized
	}
	return id, nil
}

// bindAndValidate decodes the JSON body into req and runs struct validation.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return c.Validate(req)
}

// pathID returns the :id parameter, rejecting anything that is not a 24-hex id.
func pathID(c echo.Context) (string, error) {
	id := c.Param("id")
	if !objectIDPattern.MatchString(id) {
		return "", domain.ErrInvalidID
	}
	return id, nil
}

// queryID reads an optional id filter from the query string.
func queryID(c echo.Context, name string, verr *domain.ValidationError) string {
	v := c.QueryParam(name)
	if v != "" && !objectIDPattern.MatchString(v) {
		verr.Add(name, name+" must be a valid id")
	}
	return v
}

// queryDate reads an optional RFC 3339 or YYYY-MM-DD value from the query string.
func queryDate(c echo.Context, name string, verr *domain.ValidationError) time.Time {
	v := c.QueryParam(name)
	if v == "" {
		return time.Time{}
	}
	t, err := parseDate(v)
	if err != nil {
		verr.Add(name, name+" must be a date (YYYY-MM-DD or RFC 3339)")
	}
	return t
}

func queryPositiveInt(c echo.Context, name string, verr *domain.ValidationError) int {
	v := c.QueryParam(name)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		verr.Add(name, name+" must be a positive integer")
		return 0
	}
	return n
}

// parseDate accepts RFC 3339 timestamps or bare dates, which are read as UTC midnight.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse("2006-01-02", s)
}
