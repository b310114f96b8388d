package middleware

import (
	"context"
	"net/http"
	"strings"

	"vet-backend/internal/auth"
	"vet-backend/internal/models"
	"vet-backend/internal/repositories"
)

type contextKey string

const UserIDKey contextKey = "user_id"
const EmailKey contextKey = "email"
const RoleKey contextKey = "role"
const HasBillingAccessKey contextKey = "has_billing_access"
const OwnerIDKey contextKey = "owner_id"

type AuthMiddleware struct {
	jwtManager *auth.JWTManager
	userRepo   *repositories.UserRepository
}

func NewAuthMiddleware(jwtManager *auth.JWTManager, userRepo *repositories.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		userRepo:   userRepo,
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// authenticate validates the token and re-reads the user so role and
// active-flag changes take effect immediately, not at token expiry.
func (m *AuthMiddleware) authenticate(r *http.Request) (*models.User, int, string) {
	token, ok := bearerToken(r)
	if !ok {
		return nil, http.StatusUnauthorized, "Authorization header required"
	}

	claims, err := m.jwtManager.ValidateToken(token)
	if err != nil {
		return nil, http.StatusUnauthorized, "Invalid or expired token"
	}

	user, err := m.userRepo.Get(r.Context(), claims.UserID)
	if err != nil {
		return nil, http.StatusUnauthorized, "User not found"
	}
	if !user.IsActive {
		return nil, http.StatusForbidden, "Account suspended. Please contact administrator."
	}

	return user, 0, ""
}

func withUser(ctx context.Context, user *models.User) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, user.ID)
	ctx = context.WithValue(ctx, EmailKey, user.Email)
	ctx = context.WithValue(ctx, RoleKey, user.Role)
	ctx = context.WithValue(ctx, HasBillingAccessKey, user.HasBillingAccess)
	return ctx
}

// Authenticate validates staff JWT tokens
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, status, message := m.authenticate(r)
		if user == nil {
			http.Error(w, message, status)
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}

// RequireRole ensures the authenticated user has one of the allowed roles
func (m *AuthMiddleware) RequireRole(allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, status, message := m.authenticate(r)
			if user == nil {
				http.Error(w, message, status)
				return
			}

			hasRole := false
			for _, role := range allowedRoles {
				if user.Role == role {
					hasRole = true
					break
				}
			}
			if !hasRole {
				http.Error(w, "Forbidden: Insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
		})
	}
}

// RequireBillingAccess allows admins and any staff member flagged with
// billing access to reach invoicing and payment endpoints
func (m *AuthMiddleware) RequireBillingAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, status, message := m.authenticate(r)
		if user == nil {
			http.Error(w, message, status)
			return
		}

		if user.Role != models.RoleAdmin && !user.HasBillingAccess {
			http.Error(w, "Forbidden: Billing access required", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}

// RequireAdmin ensures the user has the admin role
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return m.RequireRole(models.RoleAdmin)(next)
}

// AuthenticateOwner validates owner portal tokens
func (m *AuthMiddleware) AuthenticateOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		claims, err := m.jwtManager.ValidateOwnerToken(token)
		if err != nil {
			http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), OwnerIDKey, claims.OwnerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserIDFromContext extracts user ID from request context
func GetUserIDFromContext(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(UserIDKey).(int)
	return userID, ok
}

// GetEmailFromContext extracts email from request context
func GetEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(EmailKey).(string)
	return email, ok
}

// GetRoleFromContext extracts role from request context
func GetRoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(RoleKey).(string)
	return role, ok
}

// GetOwnerIDFromContext extracts the portal owner ID from request context
func GetOwnerIDFromContext(ctx context.Context) (int, bool) {
	ownerID, ok := ctx.Value(OwnerIDKey).(int)
	return ownerID, ok
}
