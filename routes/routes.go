package routes

import (
	"slotbook/access"
	"slotbook/admin"
	"slotbook/catalog"
	"slotbook/ledger"
	"slotbook/live"
	"slotbook/middleware"
	"slotbook/printout"
	"slotbook/ratelim"

	"github.com/julienschmidt/httprouter"
)

func AddAuthRoutes(router *httprouter.Router, api *access.API, rl *ratelim.RateLimiter) {
	router.POST("/api/auth/login", rl.Limit(api.Login))
}

func AddSlotRoutes(router *httprouter.Router, api *catalog.API) {
	router.GET("/api/slots", middleware.Authenticate(api.GetSlots))
}

func AddBookingRoutes(router *httprouter.Router, api *ledger.API, rl *ratelim.RateLimiter) {
	router.POST("/api/bookings", rl.Limit(middleware.Authenticate(api.BookSlot)))
	router.GET("/api/bookings/mine", middleware.Authenticate(api.GetMyBooking))
}

func AddPrintRoutes(router *httprouter.Router, api *printout.API) {
	router.GET("/api/bookings/mine/confirmation", middleware.Authenticate(api.Confirmation))
}

func AddAdminRoutes(router *httprouter.Router, api *admin.API, rl *ratelim.RateLimiter) {
	router.POST("/api/auth/admin/login", rl.Limit(api.Login))
	router.GET("/api/admin/bookings", middleware.RequireRole("admin", api.GetBookings))
	router.DELETE("/api/admin/bookings/:bookingid", middleware.RequireRole("admin", api.ResetBooking))
	router.POST("/api/admin/reset", middleware.RequireRole("admin", api.ResetAll))
	router.POST("/api/admin/seed", middleware.RequireRole("admin", api.Seed))
	router.POST("/api/admin/approved", middleware.RequireRole("admin", api.UploadApproved))
}

func AddLiveRoutes(router *httprouter.Router, hub *live.Hub) {
	router.GET("/ws/occupancy", live.WebSocketHandler(hub))
}
