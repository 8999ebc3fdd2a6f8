package handlers

import (
	"log/slog"

	"streamgate/auth"
	"streamgate/config"
	"streamgate/middleware"
	"streamgate/services"
	"streamgate/store"

	"github.com/gin-gonic/gin"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Auth       *services.AuthService
	Reset      *services.ResetService
	Checkout   *services.CheckoutService
	Reconciler *services.Reconciler
	Catalog    *services.CatalogService
	Users      store.UserStore
	Codec      *auth.TokenCodec
	Features   config.Features
	Logger     *slog.Logger
}

type Handler struct {
	Deps
}

func NewRouter(d Deps) *gin.Engine {
	h := &Handler{Deps: d}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(d.Logger))

	r.GET("/healthz", h.Health)

	r.POST("/signup", h.Signup)
	r.POST("/signin", h.Signin)
	r.POST("/forgot-password", h.ForgotPassword)
	r.POST("/reset-password/:token", h.ResetPassword)
	r.POST("/create-checkout-session", h.CreateCheckoutSession)
	r.POST("/webhook", h.Webhook)

	authed := r.Group("/", middleware.Authenticate(d.Codec))
	{
		authed.GET("/profile", h.Profile)
		authed.GET("/verify-token", h.VerifyToken)
		authed.GET("/user", h.GetUser)
		authed.PUT("/user", h.UpdateUser)

		authed.GET("/movies", h.ListMovies)
		authed.GET("/movies/:id", h.GetMovie)
		authed.GET("/movies/:id/watch", middleware.RequireSubscription(d.Users, d.Logger), h.WatchMovie)

		admin := authed.Group("/movies", middleware.RequireAdmin())
		admin.POST("", h.CreateMovie)
		admin.PUT("/:id", h.UpdateMovie)
		admin.DELETE("/:id", h.DeleteMovie)
	}

	return r
}
