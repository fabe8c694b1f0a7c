package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"elocation/internal/cache"
	"elocation/internal/domain"
	"elocation/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const actorKey = "actor"

var (
	errMissingToken = errors.New("Authorization is missing")
	errBadHeader    = errors.New("Invalid authorization format. Expected 'Bearer <token>'")
)

// PermissionSource loads the permission codes of a role from storage
type PermissionSource interface {
	GetPermissionsByRoleName(ctx context.Context, roleName string) ([]string, error)
}

// Authenticator verifies access tokens and resolves role permissions through a cache
type Authenticator struct {
	secret []byte
	perms  PermissionSource
	cache  cache.PermissionCache
	log    *zap.Logger
}

func NewAuthenticator(secret []byte, perms PermissionSource, permCache cache.PermissionCache, log *zap.Logger) *Authenticator {
	return &Authenticator{secret: secret, perms: perms, cache: permCache, log: log.Named("auth")}
}

// ParseToken verifies an HMAC-signed token and returns the actor in its sub and role claims
func ParseToken(tokenString string, secret []byte) (domain.Actor, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil {
		return domain.Actor{}, err
	}
	if !token.Valid {
		return domain.Actor{}, jwt.ErrTokenInvalidClaims
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Actor{}, jwt.ErrTokenInvalidClaims
	}
	sub, _ := claims["sub"].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return domain.Actor{}, fmt.Errorf("invalid subject claim: %w", err)
	}
	// custom roles are resolved later through the permission source
	role, _ := claims["role"].(string)
	if !domain.Role(role).IsWellFormed() {
		return domain.Actor{}, fmt.Errorf("invalid role claim %q", role)
	}
	return domain.Actor{ID: id, Role: domain.Role(role)}, nil
}

// extractToken tries the access_token cookie first, then the Authorization header
func extractToken(c *gin.Context) (string, error) {
	if token, err := c.Cookie("access_token"); err == nil && token != "" {
		return token, nil
	}
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", errMissingToken
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errBadHeader
	}
	return parts[1], nil
}

func (a *Authenticator) authenticate(c *gin.Context) (domain.Actor, bool) {
	tokenString, err := extractToken(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
		return domain.Actor{}, false
	}
	actor, err := ParseToken(tokenString, a.secret)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token"))
		return domain.Actor{}, false
	}

	c.Set(actorKey, actor)
	c.Set("userID", actor.ID.String())
	c.Set("userRole", string(actor.Role))
	return actor, true
}

// RequireAuth accepts any valid token
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := a.authenticate(c); !ok {
			return
		}
		c.Next()
	}
}

// OptionalAuth sets the actor when a valid token is present and lets anonymous requests through.
// A bad token is treated as anonymous so public pages keep working with an expired cookie.
func (a *Authenticator) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := extractToken(c)
		if err == nil {
			if actor, err := ParseToken(tokenString, a.secret); err == nil {
				c.Set(actorKey, actor)
				c.Set("userID", actor.ID.String())
				c.Set("userRole", string(actor.Role))
			} else {
				a.log.Debug("ignoring invalid token on public route", zap.Error(err))
			}
		}
		c.Next()
	}
}

// RequireRole admits the listed roles. super_admin is always admitted.
func (a *Authenticator) RequireRole(allowed ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := a.authenticate(c)
		if !ok {
			return
		}
		if actor.Role != domain.RoleSuperAdmin && !containsRole(allowed, actor.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
			return
		}
		c.Next()
	}
}

func containsRole(roles []domain.Role, role domain.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// RequirePermission admits actors whose role holds every listed permission code
func (a *Authenticator) RequirePermission(required ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := a.authenticate(c)
		if !ok {
			return
		}
		caps, err := a.Capabilities(c.Request.Context(), actor.Role)
		if err != nil {
			a.log.Error("failed to load permissions", zap.String("role", string(actor.Role)), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to verify permissions"))
			return
		}
		if missing := caps.Missing(required...); missing != "" {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: missing permission '"+missing+"'"))
			return
		}
		c.Next()
	}
}

// Capabilities returns the effective permission set of a role
func (a *Authenticator) Capabilities(ctx context.Context, role domain.Role) (domain.CapabilitySet, error) {
	codes, err := a.permissionsFor(ctx, string(role))
	if err != nil {
		return domain.CapabilitySet{}, err
	}
	return domain.Capabilities(role, codes), nil
}

func (a *Authenticator) permissionsFor(ctx context.Context, role string) ([]string, error) {
	codes, found, err := a.cache.Get(ctx, role)
	if err != nil {
		a.log.Warn("permission cache read failed", zap.String("role", role), zap.Error(err))
	}
	if found {
		return codes, nil
	}

	codes, err = a.perms.GetPermissionsByRoleName(ctx, role)
	if err != nil {
		return nil, err
	}
	if err := a.cache.Set(ctx, role, codes); err != nil {
		a.log.Warn("permission cache write failed", zap.String("role", role), zap.Error(err))
	}
	return codes, nil
}

// ActorFrom returns the actor stored by the auth middleware
func ActorFrom(c *gin.Context) (domain.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return domain.Actor{}, false
	}
	actor, ok := v.(domain.Actor)
	return actor, ok
}
