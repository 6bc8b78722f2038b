package auth

import (
	"context"
	"fmt"

	"lifeshare/pkg/types"

	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

// JWKVerifier validates Cognito access tokens against the pool's JWK set.
// Only access tokens minted for clientID are accepted.
type JWKVerifier struct {
	cache    *jwk.Cache
	jwksURL  string
	issuer   string
	clientID string
}

func NewJWKVerifier(cache *jwk.Cache, issuer, clientID string) *JWKVerifier {
	return &JWKVerifier{
		cache:    cache,
		jwksURL:  JWKSURL(issuer),
		issuer:   issuer,
		clientID: clientID,
	}
}

func JWKSURL(issuer string) string {
	return fmt.Sprintf("%s/.well-known/jwks.json", issuer)
}

// Verify parses accessToken and returns the session it identifies. The role
// is not part of the token and is left empty.
func (v *JWKVerifier) Verify(ctx context.Context, accessToken string) (types.Session, error) {
	set, err := v.cache.Lookup(ctx, v.jwksURL)
	if err != nil {
		return types.Session{}, fmt.Errorf("failed to fetch JWKS: %w: %w", types.ErrBackendUnavailable, err)
	}

	opts := []jwt.ParseOption{
		jwt.WithKeySet(set),
		jwt.WithValidate(true),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.Parse([]byte(accessToken), opts...)
	if err != nil {
		return types.Session{}, fmt.Errorf("failed to parse JWT: %w: %w", types.ErrInvalidCredentials, err)
	}

	// ID tokens carry token_use "id" and no client_id
	var tokenUse, clientID string
	if err := token.Get("token_use", &tokenUse); err != nil || tokenUse != "access" {
		return types.Session{}, fmt.Errorf("not an access token: %w", types.ErrInvalidCredentials)
	}
	if err := token.Get("client_id", &clientID); err != nil || clientID != v.clientID {
		return types.Session{}, fmt.Errorf("token issued for another client: %w", types.ErrInvalidCredentials)
	}

	// Use Subject() for the standard "sub" claim
	userID, ok := token.Subject()
	if !ok || userID == "" {
		return types.Session{}, fmt.Errorf("no user ID in JWT subject claim: %w", types.ErrInvalidCredentials)
	}

	// email is optional; access tokens only carry username
	var email string
	if err := token.Get("email", &email); err != nil {
		_ = token.Get("username", &email)
	}

	return types.Session{UserID: userID, Email: email}, nil
}
