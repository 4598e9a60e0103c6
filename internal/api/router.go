package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"cabin-booking-backend/config"
	"cabin-booking-backend/internal/auth"
	"cabin-booking-backend/internal/booking"
	"cabin-booking-backend/internal/mw"
	"cabin-booking-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.ServerConfig, s store.Store, ledger *booking.Ledger, authProvider *auth.Provider, webpushOptions *webpush.Options) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, ledger, authProvider, webpushOptions)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter, handler.Session())
	{
		api.POST("/auth/register", handler.Register)
		api.POST("/auth/login", handler.Login)
		api.POST("/auth/logout", handler.Logout)

		api.GET("/cabins", caching, handler.ListCabins)
		api.GET("/cabins/filter", handler.FilterCabins)
		api.GET("/cabins/:cabin_id/availability", handler.CheckAvailability)
		api.GET("/services", caching, handler.ListServices)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)

		client := api.Group("", handler.RequireClient())
		{
			client.POST("/reservations", handler.CreateReservation)
			client.GET("/subscriptions", handler.GetSubscription)
			client.PUT("/subscriptions", handler.PutSubscription)
			client.DELETE("/subscriptions", handler.DeleteSubscription)
		}

		admin := api.Group("", handler.RequireAdmin())
		{
			admin.POST("/cabins", handler.CreateCabin)
			admin.PUT("/cabins/:cabin_id", handler.UpdateCabin)
			admin.DELETE("/cabins/:cabin_id", handler.DeleteCabin)
			admin.PUT("/cabins/:cabin_id/services", handler.SyncCabinServices)
			admin.GET("/reservations", handler.ListReservations)
			admin.POST("/reservations/:reservation_id/cancel", handler.CancelReservation)
		}
	}

	return r
}
