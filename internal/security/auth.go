package security

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chirino/gina-service/internal/config"
	"github.com/chirino/gina-service/internal/model"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// ContextKeyUserID is the gin context key for the authenticated user ID.
	ContextKeyUserID = "userID"
	// ContextKeyEmail is the gin context key for the authenticated user email.
	ContextKeyEmail = "email"
)

// Identity holds the resolved caller identity from a bearer token.
type Identity struct {
	UserID string
	Email  string
}

// Claims are the session token claims.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// UserProvisioner creates or finds the local user behind an OIDC subject.
type UserProvisioner interface {
	FindOrCreateOIDCUser(ctx context.Context, subject string, email string) (*model.User, error)
}

// TokenResolver issues session tokens and resolves bearer tokens to identities.
// Locally issued HS256 tokens are tried first; when an OIDC issuer is configured,
// tokens that fail local verification are verified against it.
type TokenResolver struct {
	signingKey []byte
	expiry     time.Duration
	verifier   *oidc.IDTokenVerifier
	users      UserProvisioner
	now        func() time.Time
}

var (
	errInvalidJWT      = errors.New("invalid or expired token")
	errMissingIdentity = errors.New("token missing identity claims")
)

// NewTokenResolver creates a TokenResolver from the application config. It performs
// one-time OIDC provider discovery if OIDCIssuer is configured.
func NewTokenResolver(ctx context.Context, cfg *config.Config, users UserProvisioner) (*TokenResolver, error) {
	key, err := cfg.TokenSigningKey()
	if err != nil {
		return nil, fmt.Errorf("session tokens: %w", err)
	}
	expiry := cfg.JWTExpiry
	if expiry <= 0 {
		expiry = 7 * 24 * time.Hour
	}
	r := &TokenResolver{signingKey: key, expiry: expiry, users: users, now: time.Now}

	if cfg.OIDCIssuer != "" {
		r.verifier = newOIDCVerifier(ctx, cfg.OIDCIssuer, cfg.OIDCDiscoveryURL)
	}
	return r, nil
}

func newOIDCVerifier(ctx context.Context, issuer, discoveryURL string) *oidc.IDTokenVerifier {
	expectedIssuer := issuer
	if discoveryURL != "" && discoveryURL != issuer {
		// NewProvider fetches from its issuer arg; accept the mismatched
		// issuer in the discovery document.
		ctx = oidc.InsecureIssuerURLContext(ctx, issuer)
		issuer = discoveryURL
	}
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		log.Error("Failed to initialize OIDC provider; only local tokens will be accepted", "issuer", issuer, "err", err)
		return nil
	}
	if expectedIssuer != issuer {
		var providerClaims struct {
			JWKSURI string `json:"jwks_uri"`
		}
		if err := provider.Claims(&providerClaims); err == nil && providerClaims.JWKSURI != "" {
			keySet := oidc.NewRemoteKeySet(ctx, providerClaims.JWKSURI)
			log.Info("OIDC auth enabled", "issuer", expectedIssuer)
			return oidc.NewVerifier(expectedIssuer, keySet, &oidc.Config{SkipClientIDCheck: true})
		}
	}
	log.Info("OIDC auth enabled", "issuer", expectedIssuer)
	return provider.Verifier(&oidc.Config{SkipClientIDCheck: true})
}

// Issue returns a signed session token for the user.
func (r *TokenResolver) Issue(user *model.User) (string, error) {
	now := r.now()
	claims := Claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(r.expiry)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.signingKey)
}

// Resolve resolves a raw bearer token (without the "Bearer " prefix) into an Identity.
func (r *TokenResolver) Resolve(ctx context.Context, bearerToken string) (*Identity, error) {
	id, localErr := r.resolveLocal(bearerToken)
	if localErr == nil {
		return id, nil
	}
	if r.verifier == nil || r.users == nil {
		return nil, localErr
	}

	idToken, err := r.verifier.Verify(ctx, bearerToken)
	if err != nil {
		return nil, errors.Join(errInvalidJWT, err)
	}
	var claims struct {
		Sub   string `json:"sub"`
		Email string `json:"email"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, errors.Join(errInvalidJWT, err)
	}
	if claims.Sub == "" {
		return nil, errMissingIdentity
	}
	user, err := r.users.FindOrCreateOIDCUser(ctx, claims.Sub, claims.Email)
	if err != nil {
		return nil, fmt.Errorf("provision OIDC user: %w", err)
	}
	return &Identity{UserID: user.ID.String(), Email: user.Email}, nil
}

func (r *TokenResolver) resolveLocal(token string) (*Identity, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return r.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(r.now),
	)
	if err != nil {
		return nil, errors.Join(errInvalidJWT, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errInvalidJWT
	}
	if claims.Subject == "" {
		return nil, errMissingIdentity
	}
	return &Identity{UserID: claims.Subject, Email: claims.Email}, nil
}

// GetUserID returns the authenticated user ID, or "" for anonymous requests.
func GetUserID(c *gin.Context) string {
	return c.GetString(ContextKeyUserID)
}

// GetEmail returns the authenticated user email, or "".
func GetEmail(c *gin.Context) string {
	return c.GetString(ContextKeyEmail)
}

func bearerToken(c *gin.Context) (string, bool) {
	auth := c.GetHeader("Authorization")
	token := strings.TrimPrefix(auth, "Bearer ")
	if auth == "" || token == auth || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// OptionalAuthMiddleware attaches the caller identity when a valid bearer token
// is present. Missing or invalid tokens leave the request anonymous.
func OptionalAuthMiddleware(resolver *TokenResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			id, err := resolver.Resolve(c.Request.Context(), token)
			if err != nil {
				log.Debug("Ignoring invalid bearer token", "path", c.Request.URL.Path, "err", err)
			} else {
				c.Set(ContextKeyUserID, id.UserID)
				c.Set(ContextKeyEmail, id.Email)
			}
		}
		c.Next()
	}
}

// AuthMiddleware rejects requests without a valid bearer token.
func AuthMiddleware(resolver *TokenResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			log.Info("Auth rejected: missing bearer token", "method", c.Request.Method, "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing token"})
			return
		}
		id, err := resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			log.Info("Auth rejected", "method", c.Request.Method, "path", c.Request.URL.Path, "err", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}
		c.Set(ContextKeyUserID, id.UserID)
		c.Set(ContextKeyEmail, id.Email)
		c.Next()
	}
}
