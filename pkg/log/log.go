package log

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

var logger = logrus.New()

func Print(c *fiber.Ctx) *logrus.Entry {
	logger.Formatter = &logrus.TextFormatter{
		TimestampFormat: time.RFC3339,
		FullTimestamp:   true,
		DisableColors:   false,
		ForceColors:     true,
	}

	if c == nil {
		return logger.WithFields(logrus.Fields{})
	}

	remoteIP := c.IP()
	if v := c.Locals("remote_ip"); v != nil {
		if ip, ok := v.(string); ok && ip != "" {
			remoteIP = ip
		}
	}
	return logger.WithFields(logrus.Fields{
		"remote_ip": remoteIP,
		"method":    c.Method(),
		"uri":       c.OriginalURL(),
	})
}

// HandlerOp scopes a request-bound entry to a named operation.
func HandlerOp(c *fiber.Ctx, op string) *logrus.Entry {
	return Print(c).WithField("op", op)
}

// Op returns an entry scoped to a named background operation, for code that
// runs outside a request (startup, crons, event handlers, batch workers).
func Op(name string) *logrus.Entry {
	logger.Formatter = &logrus.TextFormatter{
		TimestampFormat: time.RFC3339,
		FullTimestamp:   true,
		DisableColors:   false,
		ForceColors:     true,
	}

	return logger.WithField("op", name)
}
