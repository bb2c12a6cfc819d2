package auth

import (
	"context"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// TokenConfig configures the JWT principal resolver.
type TokenConfig struct {
	// Secret is the HS256 signing key.
	Secret []byte

	// Issuer is the expected token issuer (iss claim). Optional.
	Issuer string

	// HeaderName is the header containing the token.
	// Default: "Authorization"
	HeaderName string

	// TokenPrefix is the prefix before the token in the header.
	// Default: "Bearer "
	TokenPrefix string

	// SubjectClaim is the claim containing the user id.
	// Default: "sub"
	SubjectClaim string

	// RolesClaim is the claim containing role names.
	// Default: "roles"
	RolesClaim string

	// CapabilitiesClaim is the claim containing capability names.
	// Default: "caps"
	CapabilitiesClaim string
}

// TokenResolver resolves the principal from a signed bearer token carried in
// the request headers. A missing, malformed, expired or badly signed token
// resolves to no principal; the gate then denies with not_logged_in.
type TokenResolver struct {
	config TokenConfig
}

// NewTokenResolver creates a token resolver.
func NewTokenResolver(config TokenConfig) *TokenResolver {
	if config.HeaderName == "" {
		config.HeaderName = "Authorization"
	}
	if config.TokenPrefix == "" {
		config.TokenPrefix = "Bearer "
	}
	if config.SubjectClaim == "" {
		config.SubjectClaim = "sub"
	}
	if config.RolesClaim == "" {
		config.RolesClaim = "roles"
	}
	if config.CapabilitiesClaim == "" {
		config.CapabilitiesClaim = "caps"
	}
	return &TokenResolver{config: config}
}

// Resolve parses and validates the bearer token from the context headers.
func (r *TokenResolver) Resolve(ctx context.Context) (*Identity, error) {
	header := GetHeader(ctx, r.config.HeaderName)
	if header == "" {
		return nil, nil
	}
	tokenString := strings.TrimPrefix(header, r.config.TokenPrefix)
	if tokenString == header {
		return nil, nil
	}
	tokenString = strings.TrimSpace(tokenString)

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return r.config.Secret, nil
	})
	if err != nil || !token.Valid {
		return nil, nil
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, nil
	}
	if r.config.Issuer != "" {
		if iss, ok := claims["iss"].(string); !ok || iss != r.config.Issuer {
			return nil, nil
		}
	}

	id := r.buildIdentity(claims)
	if id.ID <= 0 {
		return nil, nil
	}
	return id, nil
}

func (r *TokenResolver) buildIdentity(claims jwt.MapClaims) *Identity {
	id := &Identity{}

	switch sub := claims[r.config.SubjectClaim].(type) {
	case string:
		id.ID, _ = strconv.ParseInt(sub, 10, 64)
	case float64:
		id.ID = int64(sub)
	}

	if roles, ok := claims[r.config.RolesClaim].([]any); ok {
		for _, role := range roles {
			if s, ok := role.(string); ok {
				id.Roles = append(id.Roles, Role(s))
			}
		}
	}
	if caps, ok := claims[r.config.CapabilitiesClaim].([]any); ok {
		for _, capability := range caps {
			if s, ok := capability.(string); ok {
				id.Capabilities = append(id.Capabilities, s)
			}
		}
	}
	return id
}

// Ensure TokenResolver implements Resolver
var _ Resolver = (*TokenResolver)(nil)
