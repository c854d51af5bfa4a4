package middleware

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"leadflow/internal/service"
	"leadflow/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const actorKey = "actor"

// Claims is the identity issued by the auth collaborator
type Claims struct {
	Role       string   `json:"role"`
	Categories []string `json:"categories"`
	jwt.RegisteredClaims
}

// ParseToken validates an HMAC-signed token and returns the actor it identifies
func ParseToken(tokenString string, secret []byte) (service.Actor, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil {
		return service.Actor{}, err
	}
	if !token.Valid {
		return service.Actor{}, jwt.ErrTokenInvalidClaims
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return service.Actor{}, errors.New("subject is not a user id")
	}
	if claims.Role == "" {
		return service.Actor{}, errors.New("role not found in token")
	}

	actor := service.Actor{UserID: userID, Role: claims.Role}
	for _, raw := range claims.Categories {
		id, err := uuid.Parse(raw)
		if err != nil {
			return service.Actor{}, errors.New("invalid category id in token")
		}
		actor.CategoryIDs = append(actor.CategoryIDs, id)
	}
	return actor, nil
}

// bearerToken reads the access token from the cookie, falling back to the
// Authorization header.
func bearerToken(c *gin.Context) (string, string) {
	if token, err := c.Cookie("access_token"); err == nil && token != "" {
		return token, ""
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", "Authorization is missing"
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", "Invalid authorization format. Expected 'Bearer <token>'"
	}
	return parts[1], ""
}

// RequireRole validates the JWT and checks the caller's role is in allowedRoles.
// The resolved actor is stored on the context for handlers.
func RequireRole(secret []byte, allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, problem := bearerToken(c)
		if problem != "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, problem))
			return
		}

		actor, err := ParseToken(tokenString, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token: "+err.Error()))
			return
		}

		if !slices.Contains(allowedRoles, actor.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// CurrentActor returns the actor stored by RequireRole
func CurrentActor(c *gin.Context) (service.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return service.Actor{}, false
	}
	actor, ok := v.(service.Actor)
	return actor, ok
}
