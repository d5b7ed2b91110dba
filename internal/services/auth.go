package services

import (
  "context"
  "fmt"

  "github.com/golang-jwt/jwt/v5"
  "github.com/google/uuid"

  "github.com/orienta-app/orienta-backend/internal/logger"
  "github.com/orienta-app/orienta-backend/internal/requestdata"
  "github.com/orienta-app/orienta-backend/internal/utils"
)

// TokenService validates bearer tokens issued by the auth frontend and
// loads the caller identity into the request context.
type TokenService interface {
  SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
}

type tokenService struct {
  secret []byte
  log    *logger.Logger
}

func NewTokenService(baseLog *logger.Logger) (TokenService, error) {
  svcLog := baseLog.With("service", "TokenService")
  secret := utils.GetEnv("JWT_SECRET", "", svcLog)
  if secret == "" {
    return nil, fmt.Errorf("JWT_SECRET is not set")
  }
  return &tokenService{secret: []byte(secret), log: svcLog}, nil
}

func (s *tokenService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
  claims := &jwt.RegisteredClaims{}
  token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
    if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
      return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
    }
    return s.secret, nil
  })
  if err != nil {
    s.log.Debug("Token rejected", "error", err)
    return ctx, ErrNotAuthenticated
  }
  if !token.Valid || claims.Subject == "" {
    return ctx, ErrNotAuthenticated
  }

  userID, err := uuid.Parse(claims.Subject)
  if err != nil {
    s.log.Debug("Token subject is not a uuid", "subject", claims.Subject)
    return ctx, ErrNotAuthenticated
  }

  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    rd = &requestdata.RequestData{}
  }
  rd.TokenString = tokenString
  rd.UserID = userID
  return requestdata.WithRequestData(ctx, rd), nil
}
