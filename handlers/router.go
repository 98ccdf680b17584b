package handlers

import (
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	cors "github.com/itsjamie/gin-cors"
)

func SetupRouter(svr *Service) (*gin.Engine, error) {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	router.Use(requestid.New())
	router.Use(cors.Middleware(cors.Config{
		Origins:         "*", // TODO
		Methods:         "GET, PUT, POST, DELETE, HEAD, PATCH",
		RequestHeaders:  "Origin, Authorization, Content-Type, Content-Length",
		ExposedHeaders:  "Correlation-Id",
		MaxAge:          12 * time.Hour,
		Credentials:     false,
		ValidateHeaders: false,
	}))

	// Login and the reset flow stay open: they are how a caller without a
	// valid token gets back in. Everything else requires a bearer token.
	router.GET("/auth/health", svr.Health)
	router.POST("/auth/login", svr.Login)
	router.POST("/auth/passwordreset/request", svr.RequestPasswordReset)
	router.POST("/auth/passwordreset/confirm", svr.ConfirmPasswordReset)

	authed := router.Group("/", svr.RequireAuth)
	authed.PUT("/auth/changepassword", svr.ChangePassword)

	return router, nil
}
