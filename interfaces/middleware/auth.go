package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"

	"creator-hub/domain/dto"
	"creator-hub/domain/model"
	"creator-hub/domain/repository"
	"creator-hub/infrastructure/configuration"
	"creator-hub/infrastructure/logger"
)

// AuthPolicy decides what happens to requests without a valid session token.
// Strict aborts them; permissive lets them through without a user_id so the
// usecase layer can fall back to non-privileged identity sources.
type AuthPolicy string

const (
	AuthStrict     AuthPolicy = "strict"
	AuthPermissive AuthPolicy = "permissive"
)

func PolicyFromConfig() AuthPolicy {
	if configuration.C.App.AuthMode == string(AuthPermissive) {
		return AuthPermissive
	}
	return AuthStrict
}

// Auth validates the bearer token and stores the creator id under "user_id".
func Auth(userRepository repository.IUser, policy AuthPolicy) gin.HandlerFunc {
	var res dto.Res
	res.ResponseCode = "401"
	res.ResponseMessage = "Unauthorized"

	secretKey := configuration.C.App.SecretKey
	return func(ctx *gin.Context) {
		authorization := ctx.Request.Header.Get("Authorization")
		if !strings.HasPrefix(authorization, "Bearer ") {
			deny(ctx, policy, res)
			return
		}
		tokenString := strings.TrimPrefix(authorization, "Bearer ")

		userClaims, token, err := getClaim(tokenString, secretKey)
		if err != nil || !token.Valid {
			logger.GetLogger().WithField("error", describeTokenError(err)).Debug("token rejected")
			deny(ctx, policy, res)
			return
		}

		if _, err := userRepository.GetByUserName(ctx.Request.Context(), userClaims.UserName); err != nil {
			deny(ctx, policy, res)
			return
		}
		ctx.Set("user_id", userClaims.Issuer)
		ctx.Next()
	}
}

func deny(ctx *gin.Context, policy AuthPolicy, res dto.Res) {
	if policy == AuthPermissive {
		ctx.Next()
		return
	}
	ctx.AbortWithStatusJSON(http.StatusUnauthorized, res)
}

func describeTokenError(err error) string {
	var ve *jwt.ValidationError
	if errors.As(err, &ve) {
		if ve.Errors&jwt.ValidationErrorMalformed != 0 {
			return "malformed token"
		}
		if ve.Errors&(jwt.ValidationErrorExpired|jwt.ValidationErrorNotValidYet) != 0 {
			return "token expired or not active yet"
		}
	}
	return fmt.Sprintf("%v", err)
}

func getClaim(tokenString, secretKey string) (model.UserClaims, *jwt.Token, error) {
	var userClaims model.UserClaims
	token, err := jwt.ParseWithClaims(
		tokenString,
		&userClaims,
		func(token *jwt.Token) (interface{}, error) {
			return []byte(secretKey), nil
		},
	)
	return userClaims, token, err
}
