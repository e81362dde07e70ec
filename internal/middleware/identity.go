package middleware

// identity.go holds helpers shared across middleware files. The rate
// limiter keys buckets by user where possible, so it needs a stable
// string identity even for anonymous callers.

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// currentUserID renders the authenticated user's ID as a string, or
// "anon" when the request carries no valid token. JWTAuth stores the
// sub claim as whatever type the JSON decoder produced, usually
// float64, so all the plausible shapes are handled here.
func currentUserID(c echo.Context) string {
	switch v := c.Get("user_id").(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		return fmt.Sprintf("%.0f", v)
	case uint64:
		return fmt.Sprintf("%d", v)
	case int64:
		return fmt.Sprintf("%d", v)
	}
	return "anon"
}
