package session

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/waforge/waforge/internal/chatstore"
	"github.com/waforge/waforge/pkg/log"
	"github.com/waforge/waforge/pkg/router"
)

// ListChats returns every chat known to the local archive, most recently
// active first.
func ListChats(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	chats, err := chatstore.ListChats(ctx)
	if err != nil {
		log.HandlerOp(c, "ListChats").WithError(err).Error("Failed to query chat archive")
		return router.ResponseInternalError(c, err.Error())
	}

	return router.ResponseSuccessWithData(c, "Success list chats", chats)
}
