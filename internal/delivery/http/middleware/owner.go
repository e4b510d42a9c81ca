package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/itinerary-microservice/internal/pkg/errors"
	"github.com/itinerary-microservice/internal/pkg/utils"
)

const (
	// OwnerHeader carries the id of the caller, already authenticated
	// upstream by the gateway.
	OwnerHeader = "X-User-ID"

	ownerLocalsKey = "owner_id"
)

// Owner - требует заголовок X-User-ID и кладёт его в c.Locals
func Owner() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID := strings.TrimSpace(c.Get(OwnerHeader))
		if ownerID == "" {
			return utils.SendError(c, errors.ErrMissingOwner)
		}
		c.Locals(ownerLocalsKey, ownerID)
		return c.Next()
	}
}

// OwnerID returns the owner stored by Owner.
func OwnerID(c *fiber.Ctx) string {
	id, _ := c.Locals(ownerLocalsKey).(string)
	return id
}
