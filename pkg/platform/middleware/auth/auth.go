// Package auth maps bearer tokens to caller addresses. The HTTP transport is
// a stand-in for the host ledger's transaction origin, so the only claim the
// registrar cares about is which address is calling.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/golang-jwt/jwt/v5"
)

type contextKeyCaller struct{}

// ContextKeyCaller is exported for use in handlers.
var ContextKeyCaller = contextKeyCaller{}

// Caller retrieves the authenticated caller address from the context. The
// zero address means the request was not authenticated.
func Caller(ctx context.Context) common.Address {
	addr, ok := ctx.Value(ContextKeyCaller).(common.Address)
	if !ok {
		return common.Address{}
	}
	return addr
}

// WithCaller injects a caller address directly; test use.
func WithCaller(ctx context.Context, addr common.Address) context.Context {
	return context.WithValue(ctx, ContextKeyCaller, addr)
}

// ParseCaller validates an HMAC-signed token and extracts the "addr" claim.
func ParseCaller(tokenString string, signingKey []byte) (common.Address, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return signingKey, nil
	})
	if err != nil {
		return common.Address{}, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return common.Address{}, fmt.Errorf("unexpected claims type")
	}
	raw, _ := claims["addr"].(string)
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("missing or malformed addr claim")
	}
	return common.HexToAddress(raw), nil
}

// Middleware rejects requests without a valid bearer token and stores the
// caller address in the request context.
func Middleware(signingKey []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			tokenString, found := strings.CutPrefix(header, "Bearer ")
			if !found {
				http.Error(w, `{"error":"missing bearer token"}`, http.StatusUnauthorized)
				return
			}
			caller, err := ParseCaller(tokenString, signingKey)
			if err != nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}
