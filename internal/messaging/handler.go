package messaging

import (
	"context"
	"mime"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"

	typWaForge "github.com/waforge/waforge/internal/types"
	"github.com/waforge/waforge/pkg/log"
	"github.com/waforge/waforge/pkg/router"
	pkgWhatsApp "github.com/waforge/waforge/pkg/whatsapp"
)

type whatsAppTextSender struct{}

// groupMemberJIDs lists a group's participants, leaving out the session
// account itself.
func groupMemberJIDs(ctx context.Context, groupJID string) ([]string, error) {
	group, err := pkgWhatsApp.WhatsAppGroupInfo(ctx, pkgWhatsApp.WhatsAppComposeJID(groupJID))
	if err != nil {
		return nil, err
	}

	selfUser := pkgWhatsApp.WhatsAppComposeJID(pkgWhatsApp.WhatsAppSessionJID()).User

	members := make([]string, 0, len(group.Participants))
	for _, participant := range group.Participants {
		if participant.JID.User == selfUser {
			continue
		}
		members = append(members, participant.JID.ToNonAD().String())
	}
	return members, nil
}

func (whatsAppTextSender) SendText(ctx context.Context, chatJID string, message string) (string, error) {
	return pkgWhatsApp.WhatsAppSendText(ctx, chatJID, message)
}

// SendText delivers a single text message to one chat.
func SendText(c *fiber.Ctx) error {
	var req typWaForge.RequestSendMessage
	if err := c.BodyParser(&req); err != nil {
		log.HandlerOp(c, "SendText").Warn("Failed to parse body request")
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	if req.ChatJID == "" {
		return router.ResponseBadRequest(c, "chat_jid is required")
	}
	if req.Message == "" {
		return router.ResponseBadRequest(c, "message is required")
	}

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	msgID, err := pkgWhatsApp.WhatsAppSendText(ctx, req.ChatJID, req.Message)
	if err != nil {
		log.HandlerOp(c, "SendText").WithField("chat_jid", req.ChatJID).WithError(err).Error("Failed to send text message")
		return router.ResponseInternalError(c, err.Error())
	}

	log.HandlerOp(c, "SendText").WithField("chat_jid", req.ChatJID).WithField("message_id", msgID).Info("Text message sent")

	return router.ResponseSuccessWithData(c, "Success send text message", map[string]interface{}{"message_id": msgID})
}

// SendDocumentFile delivers a file from local disk as a document message.
func SendDocumentFile(c *fiber.Ctx) error {
	var req typWaForge.RequestSendDocument
	if err := c.BodyParser(&req); err != nil {
		log.HandlerOp(c, "SendDocumentFile").Warn("Failed to parse body request")
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	if req.ChatJID == "" {
		return router.ResponseBadRequest(c, "chat_jid is required")
	}
	if req.FilePath == "" {
		return router.ResponseBadRequest(c, "file_path is required")
	}

	documentBytes, err := os.ReadFile(req.FilePath)
	if err != nil {
		return router.ResponseBadRequest(c, "cannot read file: "+err.Error())
	}

	fileName := req.FileName
	if fileName == "" {
		fileName = filepath.Base(req.FilePath)
	}
	documentType := mime.TypeByExtension(filepath.Ext(fileName))
	if documentType == "" {
		documentType = "application/octet-stream"
	}

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	msgID, err := pkgWhatsApp.WhatsAppSendDocument(ctx, req.ChatJID, documentBytes, documentType, fileName)
	if err != nil {
		log.HandlerOp(c, "SendDocumentFile").WithField("chat_jid", req.ChatJID).WithError(err).Error("Failed to send document")
		return router.ResponseInternalError(c, err.Error())
	}

	log.HandlerOp(c, "SendDocumentFile").WithField("chat_jid", req.ChatJID).WithField("message_id", msgID).Info("Document sent")

	return router.ResponseSuccessWithData(c, "Success send document", map[string]interface{}{"message_id": msgID})
}

// SendBulkMessage delivers one message to many recipients with pacing.
func SendBulkMessage(c *fiber.Ctx) error {
	var req typWaForge.RequestBulkMessage
	if err := c.BodyParser(&req); err != nil {
		log.HandlerOp(c, "SendBulkMessage").Warn("Failed to parse body request")
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	recipients := req.Recipients
	if req.GroupJID != "" {
		members, err := groupMemberJIDs(ctx, req.GroupJID)
		if err != nil {
			log.HandlerOp(c, "SendBulkMessage").WithField("group_jid", req.GroupJID).WithError(err).Error("Failed to fetch group members")
			return router.ResponseInternalError(c, err.Error())
		}
		recipients = append(recipients, SampleRecipients(members, req.SampleSize)...)
	}

	log.HandlerOp(c, "SendBulkMessage").
		WithField("recipients", len(recipients)).
		WithField("dry_run", req.DryRun).
		Info("Starting bulk send")

	result, err := SendBulk(ctx, BulkJob{
		Recipients:    recipients,
		Message:       req.Message,
		RatePerMinute: req.RatePerMinute,
		JitterSeconds: req.JitterSeconds,
		DryRun:        req.DryRun,
	}, whatsAppTextSender{})
	if err != nil {
		log.HandlerOp(c, "SendBulkMessage").WithError(err).Error("Bulk send failed")
		return router.ResponseInternalError(c, err.Error())
	}

	log.HandlerOp(c, "SendBulkMessage").
		WithField("succeeded", result.Succeeded).
		WithField("failed", result.Failed).
		Info("Bulk send finished")

	return router.ResponseSuccessWithData(c, "Success send bulk message", result)
}
