package contacts

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/waforge/waforge/internal/chatstore"
	typWaForge "github.com/waforge/waforge/internal/types"
	"github.com/waforge/waforge/pkg/log"
	"github.com/waforge/waforge/pkg/router"
	pkgWhatsApp "github.com/waforge/waforge/pkg/whatsapp"
)

// ListContacts returns the session's full synced contact directory.
func ListContacts(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	contacts, err := pkgWhatsApp.WhatsAppContactsGetAll(ctx)
	if err != nil {
		log.HandlerOp(c, "ListContacts").WithError(err).Error("Failed to list contacts")
		return router.ResponseInternalError(c, err.Error())
	}

	return router.ResponseSuccessWithData(c, "Success list contacts", contacts)
}

// StaleContacts reports contacts with no recent inbound message.
func StaleContacts(c *fiber.Ctx) error {
	var req typWaForge.RequestStaleContacts
	if err := c.BodyParser(&req); err != nil {
		log.HandlerOp(c, "StaleContacts").Warn("Failed to parse body request")
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	contacts, err := pkgWhatsApp.WhatsAppContactsGetAll(ctx)
	if err != nil {
		log.HandlerOp(c, "StaleContacts").WithError(err).Error("Failed to list contacts")
		return router.ResponseInternalError(c, err.Error())
	}

	lastSeen, err := chatstore.LastSeenBySender(ctx)
	if err != nil {
		log.HandlerOp(c, "StaleContacts").WithError(err).Error("Failed to query chat archive")
		return router.ResponseInternalError(c, err.Error())
	}

	report := BuildStaleReport(contacts, lastSeen, req.InactiveDays, time.Now())

	log.HandlerOp(c, "StaleContacts").
		WithField("total", report.TotalContacts).
		WithField("stale", report.StaleCount).
		Info("Stale contact report built")

	return router.ResponseSuccessWithData(c, "Success build stale contact report", report)
}
