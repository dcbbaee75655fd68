package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"creator-hub/domain/dto"
	"creator-hub/infrastructure/logger"
)

// CallbackAuthenticator validates requests from the automation engine.
type CallbackAuthenticator interface {
	Authenticate(r *http.Request) bool
}

// SharedSecretAuthenticator accepts requests carrying the shared secret in
// the X-Automation-Secret header. An empty configured secret rejects
// everything rather than waving everything through.
type SharedSecretAuthenticator struct {
	secret string
}

func NewSharedSecretAuthenticator(secret string) *SharedSecretAuthenticator {
	return &SharedSecretAuthenticator{secret: secret}
}

func (a *SharedSecretAuthenticator) Authenticate(r *http.Request) bool {
	if a.secret == "" {
		return false
	}
	presented := r.Header.Get("X-Automation-Secret")
	return subtle.ConstantTimeCompare([]byte(presented), []byte(a.secret)) == 1
}

// CallbackAuth guards the automation-facing routes.
func CallbackAuth(authenticator CallbackAuthenticator) gin.HandlerFunc {
	var res dto.Res
	res.ResponseCode = "401"
	res.ResponseMessage = "Unauthorized"

	return func(ctx *gin.Context) {
		if !authenticator.Authenticate(ctx.Request) {
			logger.GetLogger().WithField("path", ctx.FullPath()).Warn("automation callback rejected")
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, res)
			return
		}
		ctx.Next()
	}
}
