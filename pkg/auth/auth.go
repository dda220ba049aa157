package auth

import (
	"crypto/subtle"
	"strings"

	"github.com/waforge/waforge/pkg/env"
)

// Operator credentials for the single-account deployment. Both are required;
// the application panics at startup if either is missing.
var (
	Username string
	Password string
)

func init() {
	Username = env.MustGetEnvString("AUTH_USERNAME")
	Password = env.MustGetEnvString("AUTH_PASSWORD")
}

// CheckCredentials compares the supplied credentials against the configured
// operator account in constant time.
func CheckCredentials(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(username)), []byte(Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(Password)) == 1
	return userOK && passOK
}
