package middleware

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// Токены внешнего провайдера кладут id пользователя в "sub".
const (
	jwtClaimUserID  = "user_id"
	jwtClaimSubject = "sub"
)

func GetUserIDFromContext(ctx context.Context) (uuid.UUID, error) {
	claims, ok := ctx.Value(userContextKey).(jwt.MapClaims)
	if !ok {
		return uuid.Nil, errors.New("user claims not found in context or invalid type")
	}
	return userIDFromClaims(claims)
}

func userIDFromClaims(claims jwt.MapClaims) (uuid.UUID, error) {
	for _, name := range []string{jwtClaimUserID, jwtClaimSubject} {
		raw, ok := claims[name]
		if !ok {
			continue
		}
		s, ok := raw.(string)
		if !ok {
			return uuid.Nil, fmt.Errorf("invalid type for '%s' claim: expected string, got %T", name, raw)
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return uuid.Nil, fmt.Errorf("invalid user id in '%s' claim: %w", name, err)
		}
		if id == uuid.Nil {
			return uuid.Nil, fmt.Errorf("nil user id in '%s' claim", name)
		}
		return id, nil
	}
	return uuid.Nil, fmt.Errorf("missing '%s' claim in token", jwtClaimUserID)
}
