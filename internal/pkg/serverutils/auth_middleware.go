package serverutils

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const APIKeyHeader = "x-api-key"

// AuthMiddleware accepts either the shared API key in x-api-key or an HS256
// bearer token signed with jwtSecret. With an empty apiKey every request
// passes.
func AuthMiddleware(apiKey, jwtSecret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if apiKey == "" {
			return ctx.Next()
		}

		if got := ctx.Get(APIKeyHeader); got != "" &&
			subtle.ConstantTimeCompare([]byte(got), []byte(apiKey)) == 1 {
			return ctx.Next()
		}

		authHeader := ctx.Get("Authorization")
		if jwtSecret != "" && strings.HasPrefix(authHeader, "Bearer ") {
			if subject, ok := parseServiceToken(authHeader[7:], jwtSecret); ok {
				ctx.Locals("caller", subject)
				return ctx.Next()
			}
		}

		return fiber.NewError(fiber.StatusForbidden, "Could not validate credentials")
	}
}

func parseServiceToken(tokenStr, secret string) (string, bool) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", false
	}
	subject, _ := claims.GetSubject()
	return subject, true
}
