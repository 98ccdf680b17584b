package handlers

import (
	"github.com/storefront-kit/authcore/config"
	"github.com/storefront-kit/authcore/internal/auth"
	"github.com/storefront-kit/authcore/internal/token"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

// Service struct holds all variables common to all handlers.
// That is why members have to be safe for concurrent use and do not cause race conditions!
type Service struct {
	ServiceName    string
	Config         *config.Config
	AuthService    *auth.AuthClient
	TokenIssuer    *token.Issuer
	Logger         *zap.Logger
	TracerProvider *trace.TracerProvider
}
