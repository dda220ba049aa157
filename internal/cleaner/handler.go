package cleaner

import (
	"context"

	"github.com/gofiber/fiber/v2"

	typWaForge "github.com/waforge/waforge/internal/types"
	"github.com/waforge/waforge/pkg/log"
	"github.com/waforge/waforge/pkg/router"
	"github.com/waforge/waforge/pkg/validation"
	pkgWhatsApp "github.com/waforge/waforge/pkg/whatsapp"
)

type whatsAppDeleter struct{}

func (whatsAppDeleter) DeleteMessage(ctx context.Context, chatJID, messageID string) error {
	return pkgWhatsApp.WhatsAppDeleteMessage(ctx, pkgWhatsApp.WhatsAppComposeJID(chatJID), messageID)
}

// CleanMessages revokes the operator's own messages from a chat in batches.
func CleanMessages(c *fiber.Ctx) error {
	var req typWaForge.RequestCleanMessages
	if err := c.BodyParser(&req); err != nil {
		log.HandlerOp(c, "CleanMessages").Warn("Failed to parse body request")
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	if err := validation.ValidateChatJID(req.ChatJID); err != nil {
		return router.ResponseBadRequest(c, err.Error())
	}

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := Run(ctx, whatsAppDeleter{}, Job{
		ChatJID:   req.ChatJID,
		Limit:     req.Limit,
		BatchSize: req.BatchSize,
		DryRun:    req.DryRun,
	})
	if err != nil {
		log.HandlerOp(c, "CleanMessages").WithError(err).Error("Message cleanup failed")
		return router.ResponseInternalError(c, err.Error())
	}

	log.HandlerOp(c, "CleanMessages").
		WithField("chat_jid", req.ChatJID).
		WithField("matched", result.Matched).
		WithField("deleted", result.Deleted).
		WithField("dry_run", result.DryRun).
		Info("Message cleanup finished")

	return router.ResponseSuccessWithData(c, "Success clean messages", result)
}
