package bulkarchive

import (
	"context"

	"github.com/gofiber/fiber/v2"

	typWaForge "github.com/waforge/waforge/internal/types"
	"github.com/waforge/waforge/pkg/log"
	"github.com/waforge/waforge/pkg/router"
	pkgWhatsApp "github.com/waforge/waforge/pkg/whatsapp"
)

type whatsAppArchiver struct{}

func (whatsAppArchiver) ArchiveChat(ctx context.Context, chatJID string, archived bool) error {
	return pkgWhatsApp.WhatsAppArchiveChat(ctx, pkgWhatsApp.WhatsAppComposeJID(chatJID), archived)
}

func (whatsAppArchiver) MuteChat(ctx context.Context, chatJID string, muted bool) error {
	// Zero duration mutes indefinitely.
	return pkgWhatsApp.WhatsAppMuteChat(ctx, pkgWhatsApp.WhatsAppComposeJID(chatJID), muted, 0)
}

// BulkArchive archives every chat matching the request rules. With dry_run
// set it only reports which chats a real run would touch.
func BulkArchive(c *fiber.Ctx) error {
	var req typWaForge.RequestBulkArchive
	if err := c.BodyParser(&req); err != nil {
		log.HandlerOp(c, "BulkArchive").Warn("Failed to parse body request")
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	rules := Rules{
		MutedOnly:    req.MutedOnly,
		GroupsOnly:   req.GroupsOnly,
		InactiveDays: req.InactiveDays,
	}

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := Run(ctx, whatsAppArchiver{}, rules, req.Mute, req.DryRun)
	if err != nil {
		log.HandlerOp(c, "BulkArchive").WithError(err).Error("Bulk archive failed")
		return router.ResponseInternalError(c, err.Error())
	}

	log.HandlerOp(c, "BulkArchive").
		WithField("selected", result.Selected).
		WithField("archived", result.Archived).
		WithField("dry_run", result.DryRun).
		Info("Bulk archive finished")

	return router.ResponseSuccessWithData(c, "Success archive chats", result)
}
