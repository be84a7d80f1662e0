package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/jwalitptl/appointment-api/internal/model"
	"github.com/jwalitptl/appointment-api/internal/repository"
	"github.com/jwalitptl/appointment-api/pkg/auth"
	"github.com/jwalitptl/appointment-api/pkg/errors"
	"github.com/jwalitptl/appointment-api/pkg/httputil"
)

const ContextUser = "user"

type accountFlags struct {
	role     model.Role
	blocked  bool
	approved bool
}

// AuthMiddleware verifies bearer tokens and builds the caller context from the
// token plus the account's current flags, cached briefly per user.
type AuthMiddleware struct {
	verifier auth.TokenVerifier
	users    repository.UserRepository
	flags    *gocache.Cache
}

func NewAuthMiddleware(verifier auth.TokenVerifier, users repository.UserRepository, cacheTTL time.Duration) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		users:    users,
		flags:    gocache.New(cacheTTL, 2*cacheTTL),
	}
}

// Invalidate drops the cached flags for a user, e.g. right after a block.
func (m *AuthMiddleware) Invalidate(userID uuid.UUID) {
	m.flags.Delete(userID.String())
}

func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			httputil.RespondWithError(c, errors.Unauthorized(nil))
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			httputil.RespondWithError(c, errors.Unauthorized(nil))
			return
		}

		claims, err := m.verifier.Verify(strings.TrimSpace(parts[1]))
		if err != nil {
			httputil.RespondWithError(c, errors.Unauthorized(err))
			return
		}

		flags, err := m.lookup(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.CodeOf(err) == errors.ErrNotFound {
				httputil.RespondWithError(c, errors.Unauthorized(err))
				return
			}
			httputil.RespondWithError(c, err)
			return
		}

		c.Set(ContextUser, &model.UserContext{
			UserID:      claims.UserID,
			Role:        flags.role,
			Permissions: claims.Permissions,
			Blocked:     flags.blocked,
			Approved:    flags.approved,
		})
		c.Next()
	}
}

func (m *AuthMiddleware) lookup(ctx context.Context, userID uuid.UUID) (accountFlags, error) {
	key := userID.String()
	if cached, ok := m.flags.Get(key); ok {
		return cached.(accountFlags), nil
	}

	user, err := m.users.Get(ctx, userID)
	if err != nil {
		return accountFlags{}, err
	}
	flags := accountFlags{role: user.Role, blocked: user.IsBlocked, approved: user.IsApproved}
	m.flags.SetDefault(key, flags)
	return flags, nil
}

// RequireRole rejects callers whose role is not listed.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := CurrentUser(c)
		if caller == nil {
			httputil.RespondWithError(c, errors.Unauthorized(nil))
			return
		}
		for _, r := range roles {
			if caller.Role == r {
				c.Next()
				return
			}
		}
		httputil.RespondWithError(c, errors.NewForbidden("insufficient role", nil))
	}
}

// CurrentUser returns the authenticated caller, or nil.
func CurrentUser(c *gin.Context) *model.UserContext {
	v, ok := c.Get(ContextUser)
	if !ok {
		return nil
	}
	u, _ := v.(*model.UserContext)
	return u
}
