// Package identity implements the IdentityGateway (C1): it turns an opaque
// bearer token into a stable user id plus a profile snapshot. It is the one
// concrete, in-process stand-in for the identity provider the specification
// treats as an external collaborator.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

// Profile is the stable snapshot returned on successful authentication.
type Profile struct {
	UserID      string
	DisplayName string
	AvatarRef   string
}

// CustomClaims is the JWT claim set issued by the identity provider.
type CustomClaims struct {
	Name   string `json:"name,omitempty"`
	Avatar string `json:"avatar,omitempty"`
	jwt.RegisteredClaims
}

// ErrProfileIncomplete is returned when a token validates but lacks the
// claims needed to build a Profile (maps to error code profile_incomplete).
var ErrProfileIncomplete = errors.New("identity: token valid but profile incomplete")

// Validator turns a bearer token into a Profile.
type Validator interface {
	ValidateToken(ctx context.Context, tokenString string) (Profile, error)
}

// JWKSValidator validates JWTs against a JWKS endpoint, mirroring how a real
// identity provider exposes rotating signing keys. It registers a refreshing
// key cache once at construction time.
type JWKSValidator struct {
	keyFunc  jwt.Keyfunc
	issuer   string
	audience []string
}

// NewJWKSValidator builds a Validator backed by the JWKS document at
// https://<domain>/.well-known/jwks.json, checking the given audience.
func NewJWKSValidator(ctx context.Context, domain, audience string, regOpts ...jwk.RegisterOption) (*JWKSValidator, error) {
	issuerURL, err := url.Parse("https://" + domain + "/")
	if err != nil {
		return nil, fmt.Errorf("identity: parse issuer url: %w", err)
	}
	jwksURL := issuerURL.JoinPath(".well-known/jwks.json").String()

	cache := jwk.NewCache(ctx)
	opts := append([]jwk.RegisterOption{jwk.WithRefreshInterval(1 * time.Hour)}, regOpts...)
	if err := cache.Register(jwksURL, opts...); err != nil {
		return nil, fmt.Errorf("identity: register jwks cache: %w", err)
	}
	if _, err := cache.Refresh(ctx, jwksURL); err != nil {
		return nil, fmt.Errorf("identity: initial jwks fetch: %w", err)
	}

	keyFunc := func(token *jwt.Token) (interface{}, error) {
		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, errors.New("identity: kid header not found")
		}
		keys, err := cache.Get(ctx, jwksURL)
		if err != nil {
			return nil, fmt.Errorf("identity: fetch jwks: %w", err)
		}
		key, found := keys.LookupKeyID(kid)
		if !found {
			return nil, fmt.Errorf("identity: key %s not found", kid)
		}
		var pub interface{}
		if err := key.Raw(&pub); err != nil {
			return nil, fmt.Errorf("identity: decode public key: %w", err)
		}
		return pub, nil
	}

	return &JWKSValidator{keyFunc: keyFunc, issuer: issuerURL.String(), audience: []string{audience}}, nil
}

// ValidateToken implements Validator.
func (v *JWKSValidator) ValidateToken(ctx context.Context, tokenString string) (Profile, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, v.keyFunc,
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience[0]),
	)
	if err != nil {
		return Profile{}, fmt.Errorf("identity: %w", err)
	}
	if !token.Valid {
		return Profile{}, errors.New("identity: token invalid")
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok {
		return Profile{}, errors.New("identity: unexpected claim type")
	}
	if claims.Subject == "" {
		return Profile{}, ErrProfileIncomplete
	}

	return Profile{UserID: claims.Subject, DisplayName: claims.Name, AvatarRef: claims.Avatar}, nil
}

// StaticValidator is a development/test Validator that decodes the JWT
// payload without verifying a signature, trusting the subject claim
// verbatim. Never wired when IdentityGatewayURL is configured.
type StaticValidator struct{}

func (StaticValidator) ValidateToken(_ context.Context, tokenString string) (Profile, error) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return Profile{UserID: tokenString, DisplayName: "Player"}, nil
	}
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return Profile{}, fmt.Errorf("identity: parse unverified token: %w", err)
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return Profile{}, ErrProfileIncomplete
	}
	name, _ := claims["name"].(string)
	avatar, _ := claims["avatar"].(string)
	return Profile{UserID: sub, DisplayName: name, AvatarRef: avatar}, nil
}
