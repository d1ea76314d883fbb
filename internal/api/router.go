package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"repairdesk-backend/internal/mw"
	"repairdesk-backend/internal/store"
)

// RouterOptions bundles the tunables for NewRouter.
type RouterOptions struct {
	Location        *time.Location
	RateLimitPerSec float64
	RateLimitBurst  int
	CacheTTL        time.Duration
	Webpush         *webpush.Options
	Notifier        Dispatcher
}

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, opts RouterOptions) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, opts.Location, opts.Webpush, opts.Notifier)

	if opts.RateLimitPerSec <= 0 {
		opts.RateLimitPerSec = 10
	}
	if opts.RateLimitBurst <= 0 {
		opts.RateLimitBurst = 5
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}

	rateLimiter := mw.RateLimiter(rate.Limit(opts.RateLimitPerSec), opts.RateLimitBurst)
	cacheStore := cache.New(opts.CacheTTL, 2*opts.CacheTTL)
	caching := mw.Cache(cacheStore, opts.CacheTTL)

	r.Use(rateLimiter)

	// Customer-facing intake surface.
	repair := r.Group("/repair")
	{
		repair.GET("/technicians", caching, handler.GetTechnicians)
		repair.GET("/availability", handler.GetAvailability)
		repair.POST("/requests", handler.CreateRequest)

		repair.GET("/subscriptions", handler.GetSubscription)
		repair.PUT("/subscriptions", handler.PutSubscription)
		repair.DELETE("/subscriptions", handler.DeleteSubscription)
		repair.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	// Staff-facing request views and status writes.
	staff := r.Group("/repairs", mw.RequireRole("admin", "technician"))
	{
		staff.GET("", handler.ListRequests)
		staff.GET("/:id", handler.GetRequest)
		staff.PUT("/:id/status", handler.SetRequestStatus)
	}

	// Acceptance and repair-record management.
	admin := r.Group("/admin", mw.RequireRole("admin", "technician"))
	{
		admin.POST("/accept-repairs", handler.AcceptRequest)
		admin.GET("/repairs", handler.ListRepairs)
		admin.GET("/repairs/records/:id", handler.GetRepair)
		admin.PUT("/repairs/records/:id/status", handler.UpdateRepairStatus)
		admin.PUT("/repairs/records/:id", handler.UpdateRepairDetails)
	}

	return r
}
