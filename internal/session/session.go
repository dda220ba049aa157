// Package session exposes operator authentication and the WhatsApp pairing
// lifecycle for the single account this service drives.
package session

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	typWaForge "github.com/waforge/waforge/internal/types"
	pkgAuth "github.com/waforge/waforge/pkg/auth"
	"github.com/waforge/waforge/pkg/log"
	"github.com/waforge/waforge/pkg/router"
	"github.com/waforge/waforge/pkg/validation"
	pkgWhatsApp "github.com/waforge/waforge/pkg/whatsapp"
)

// AuthLogin exchanges operator credentials for a session JWT.
func AuthLogin(c *fiber.Ctx) error {
	var req typWaForge.RequestAuthLogin
	if err := c.BodyParser(&req); err != nil {
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	if !pkgAuth.CheckCredentials(req.Username, req.Password) {
		log.HandlerOp(c, "AuthLogin").Warn("Rejected login attempt")
		return router.ResponseUnauthorized(c, "Invalid username or password")
	}

	token, err := pkgAuth.GenerateSessionToken(strings.TrimSpace(req.Username))
	if err != nil {
		return router.ResponseInternalError(c, err.Error())
	}

	log.HandlerOp(c, "AuthLogin").Info("Operator logged in")

	return router.ResponseSuccessWithData(c, "Success login", map[string]interface{}{
		"token":      token,
		"expires_in": int(pkgAuth.TokenTTL.Seconds()),
	})
}

// LoginQR starts QR pairing and returns the code as a data-URL PNG. An
// already-paired session just reconnects.
func LoginQR(c *fiber.Ctx) error {
	qrImage, qrTimeout, err := pkgWhatsApp.WhatsAppLogin()
	if err != nil {
		log.HandlerOp(c, "LoginQR").WithError(err).Error("Failed to start QR login")
		return router.ResponseInternalError(c, err.Error())
	}

	if strings.HasPrefix(qrImage, "data:image/png;base64,") {
		return router.ResponseSuccessWithData(c, "Scan the QR code to pair", map[string]interface{}{
			"qr_code":    qrImage,
			"timeout":    qrTimeout,
			"qr_expires": qrTimeout,
		})
	}

	return router.ResponseSuccess(c, qrImage)
}

// LoginCode pairs using a phone-number pairing code instead of a QR scan.
func LoginCode(c *fiber.Ctx) error {
	var req typWaForge.RequestLoginCode
	if err := c.BodyParser(&req); err != nil {
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	if err := validation.ValidatePhone(req.Phone); err != nil {
		return router.ResponseBadRequest(c, err.Error())
	}

	code, timeout, err := pkgWhatsApp.WhatsAppLoginPair(pkgWhatsApp.WhatsAppDecomposeJID(req.Phone))
	if err != nil {
		log.HandlerOp(c, "LoginCode").WithError(err).Error("Failed to start pairing")
		return router.ResponseInternalError(c, err.Error())
	}

	return router.ResponseSuccessWithData(c, "Enter the pairing code on your phone", map[string]interface{}{
		"pair_code": code,
		"timeout":   timeout,
	})
}

// Logout unpairs the account and wipes the stored device.
func Logout(c *fiber.Ctx) error {
	if err := pkgWhatsApp.WhatsAppLogout(); err != nil {
		log.HandlerOp(c, "Logout").WithError(err).Error("Failed to logout")
		return router.ResponseInternalError(c, err.Error())
	}

	log.HandlerOp(c, "Logout").Info("Session logged out")
	return router.ResponseSuccess(c, "Success logout")
}

// Reconnect re-establishes the socket for an already-paired session.
func Reconnect(c *fiber.Ctx) error {
	if err := pkgWhatsApp.WhatsAppReconnect(); err != nil {
		return router.ResponseInternalError(c, err.Error())
	}
	return router.ResponseSuccess(c, "Success reconnect")
}

// Status reports pairing and connection health.
func Status(c *fiber.Ctx) error {
	status := map[string]interface{}{
		"jid":       pkgWhatsApp.WhatsAppSessionJID(),
		"paired":    pkgWhatsApp.WhatsAppSessionJID() != "",
		"connected": pkgWhatsApp.WhatsAppIsClientOK() == nil,
	}
	if err := pkgWhatsApp.WhatsAppIsClientOK(); err != nil {
		status["detail"] = err.Error()
	}
	return router.ResponseSuccessWithData(c, "Session status", status)
}
