package httputil

import (
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/storefront/internal/errors"
)

const (
	defaultLimit = 50
	maxLimit     = 100
)

// ParsePagination parses the offset and limit query parameters.
// Defaults are offset=0 and limit=50; limit cannot exceed 100.
// Errors wrap ErrInvalidInput.
func ParsePagination(c *gin.Context) (offset, limit int, err error) {
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		return 0, 0, apperrors.Wrap(
			apperrors.ErrInvalidInput,
			"invalid offset parameter: must be a non-negative integer",
		)
	}

	limit, err = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit < 1 || limit > maxLimit {
		return 0, 0, apperrors.Wrap(
			apperrors.ErrInvalidInput,
			"invalid limit parameter: must be between 1 and 100",
		)
	}

	return offset, limit, nil
}

// ParsePositiveInt64Query parses a required query parameter that must be an integer > 0.
func ParsePositiveInt64Query(c *gin.Context, name string) (int64, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return 0, apperrors.Wrapf(apperrors.ErrInvalidInput, "missing %s parameter", name)
	}

	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, apperrors.Wrapf(apperrors.ErrInvalidInput, "invalid %s parameter: must be a positive integer", name)
	}

	return value, nil
}
