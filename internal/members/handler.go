package members

import (
	"context"

	"github.com/gofiber/fiber/v2"

	typWaForge "github.com/waforge/waforge/internal/types"
	"github.com/waforge/waforge/pkg/log"
	"github.com/waforge/waforge/pkg/router"
	pkgWhatsApp "github.com/waforge/waforge/pkg/whatsapp"
)

// ListGroups returns every group the account participates in.
func ListGroups(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	groups, err := pkgWhatsApp.WhatsAppGroupGet(ctx)
	if err != nil {
		log.HandlerOp(c, "ListGroups").WithError(err).Error("Failed to list groups")
		return router.ResponseInternalError(c, err.Error())
	}

	return router.ResponseSuccessWithData(c, "Success list groups", groups)
}

// ExportMembers writes one group's participants to a CSV file, or returns
// them inline when no output path is given.
func ExportMembers(c *fiber.Ctx) error {
	var req typWaForge.RequestExportMembers
	if err := c.BodyParser(&req); err != nil {
		log.HandlerOp(c, "ExportMembers").Warn("Failed to parse body request")
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	if req.GroupJID == "" {
		return router.ResponseBadRequest(c, "group_jid is required")
	}

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	groupJID := pkgWhatsApp.WhatsAppComposeJID(req.GroupJID)
	group, err := pkgWhatsApp.WhatsAppGroupInfo(ctx, groupJID)
	if err != nil {
		log.HandlerOp(c, "ExportMembers").WithField("group_jid", req.GroupJID).WithError(err).Error("Failed to fetch group info")
		return router.ResponseInternalError(c, err.Error())
	}

	exported := FromGroup(group)

	if req.OutputPath != "" {
		if err := WriteCSV(req.OutputPath, group.Name, exported); err != nil {
			log.HandlerOp(c, "ExportMembers").WithError(err).Error("Failed to write member export")
			return router.ResponseInternalError(c, err.Error())
		}
		log.HandlerOp(c, "ExportMembers").
			WithField("group_jid", req.GroupJID).
			WithField("members", len(exported)).
			WithField("output", req.OutputPath).
			Info("Member export written")
		return router.ResponseSuccessWithData(c, "Success export group members", map[string]interface{}{
			"group":       group.Name,
			"members":     len(exported),
			"output_path": req.OutputPath,
		})
	}

	return router.ResponseSuccessWithData(c, "Success list group members", map[string]interface{}{
		"group":   group.Name,
		"members": exported,
	})
}
