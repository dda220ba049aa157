package index

import (
	"github.com/gofiber/fiber/v2"

	"github.com/waforge/waforge/pkg/router"
	pkgWhatsApp "github.com/waforge/waforge/pkg/whatsapp"
)

func Index(c *fiber.Ctx) error {
	return router.ResponseSuccess(c, "WAForge is running")
}

// Health reports process liveness plus the WhatsApp session state so
// monitoring can tell "service up" apart from "session down".
func Health(c *fiber.Ctx) error {
	session := "connected"
	if err := pkgWhatsApp.WhatsAppIsClientOK(); err != nil {
		session = err.Error()
	}

	return router.ResponseSuccessWithData(c, "Success get health status", map[string]interface{}{
		"whatsapp_session": session,
		"session_jid":      pkgWhatsApp.WhatsAppSessionJID(),
		"wa_web_version":   pkgWhatsApp.WhatsAppGetWAVersionRefreshStatus(),
	})
}
