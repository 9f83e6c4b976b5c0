package router

import (
	"github.com/gin-gonic/gin"
	"github.com/linkmarket/backend/internal/domain/identity"
	"github.com/linkmarket/backend/internal/interfaces/http/handler"
	"github.com/linkmarket/backend/internal/interfaces/http/middleware"
)

// Handlers groups the HTTP handlers mounted under /api/v1
type Handlers struct {
	Auth         *handler.AuthHandler
	Outlet       *handler.OutletHandler
	Cart         *handler.CartHandler
	Checkout     *handler.CheckoutHandler
	Order        *handler.OrderHandler
	Notification *handler.NotificationHandler
	System       *handler.SystemHandler
}

// Guards are the authentication middlewares for the API groups.
// Auth rejects anonymous callers; OptionalAuth only reads a token when one is sent.
type Guards struct {
	Auth         gin.HandlerFunc
	OptionalAuth gin.HandlerFunc
}

func requireRole(role identity.Role) gin.HandlerFunc {
	return middleware.RequireRole(string(role))
}

// APIGroups builds the marketplace route table
func APIGroups(h Handlers, g Guards) []*DomainGroup {
	authRoutes := NewDomainGroup("auth", "/auth")
	authRoutes.POST("/register", h.Auth.Register).
		POST("/login", h.Auth.Login).
		POST("/refresh", h.Auth.Refresh)
	authRoutes.Group("session", "").Use(g.Auth).
		POST("/logout", h.Auth.Logout).
		GET("/me", h.Auth.Me).
		PUT("/me", h.Auth.UpdateMe).
		PUT("/password", h.Auth.ChangePassword)

	outletRoutes := NewDomainGroup("catalog", "/outlets").Use(g.OptionalAuth)
	outletRoutes.GET("", h.Outlet.List).
		GET("/:id", h.Outlet.Get).
		GET("/:id/quote", h.Outlet.Quote)

	buyer := []gin.HandlerFunc{g.Auth, requireRole(identity.RoleBuyer)}

	cartRoutes := NewDomainGroup("cart", "/cart").Use(buyer...)
	cartRoutes.GET("", h.Cart.Get).
		DELETE("", h.Cart.Clear).
		POST("/items", h.Cart.AddItem).
		PUT("/items/:id", h.Cart.UpdateItem).
		DELETE("/items/:id", h.Cart.RemoveItem).
		POST("/restore", h.Cart.Restore).
		DELETE("/backup", h.Cart.DiscardBackup)

	checkoutRoutes := NewDomainGroup("checkout", "/checkout").Use(buyer...)
	checkoutRoutes.POST("", h.Checkout.Start).
		GET("/current", h.Checkout.Current).
		GET("/:id", h.Checkout.Get).
		PUT("/:id/payment-method", h.Checkout.SelectPaymentMethod).
		PUT("/:id/billing", h.Checkout.SubmitBilling).
		PUT("/:id/content/:lineId", h.Checkout.SubmitContent).
		POST("/:id/content/:lineId/upload-url", h.Checkout.RequestUpload).
		POST("/:id/next", h.Checkout.Next).
		POST("/:id/back", h.Checkout.Back).
		POST("/:id/goto", h.Checkout.GoTo).
		POST("/:id/confirm", h.Checkout.Confirm)

	orderRoutes := NewDomainGroup("order", "/orders").Use(buyer...)
	orderRoutes.GET("", h.Order.ListMine).
		GET("/:id", h.Order.GetMine).
		POST("/:id/cancel", h.Order.Cancel).
		POST("/:id/retry-payment", h.Order.RetryPayment)

	publisherRoutes := NewDomainGroup("publisher", "/publisher").Use(g.Auth, requireRole(identity.RolePublisher))
	publisherRoutes.Group("outlets", "/outlets").
		POST("", h.Outlet.Create).
		GET("", h.Outlet.ListMine).
		PUT("/:id", h.Outlet.Update).
		PUT("/:id/niches/:niche", h.Outlet.SetNicheRule).
		DELETE("/:id/niches/:niche", h.Outlet.RemoveNicheRule)
	publisherRoutes.Group("items", "/items").
		GET("", h.Order.ListItems).
		POST("/:id/accept", h.Order.AcceptItem).
		POST("/:id/reject", h.Order.RejectItem).
		POST("/:id/publish", h.Order.PublishItem)

	adminRoutes := NewDomainGroup("admin", "/admin").Use(g.Auth, requireRole(identity.RoleAdmin))
	adminRoutes.Group("orders", "/orders").
		GET("", h.Order.AdminList).
		GET("/:id", h.Order.AdminGet).
		PUT("/:id/status", h.Order.UpdateStatus).
		POST("/:id/mark-paid", h.Order.MarkPaid).
		POST("/:id/refund", h.Order.Refund)
	adminRoutes.Group("outlets", "/outlets").
		POST("/:id/approve", h.Outlet.Approve).
		POST("/:id/suspend", h.Outlet.Suspend).
		POST("/:id/reactivate", h.Outlet.Reactivate)
	adminRoutes.Group("profiles", "/profiles").
		GET("", h.Auth.ListProfiles).
		PUT("/:id/status", h.Auth.SetProfileStatus)
	adminRoutes.Group("system", "/system").
		GET("/jobs", h.System.JobsStatus).
		POST("/jobs/:name/run", h.System.RunJob)

	notificationRoutes := NewDomainGroup("notification", "/notifications").Use(g.Auth)
	notificationRoutes.GET("", h.Notification.List).
		GET("/unread-count", h.Notification.UnreadCount).
		POST("/read-all", h.Notification.MarkAllRead).
		POST("/:id/read", h.Notification.MarkRead).
		DELETE("/:id", h.Notification.Delete)

	return []*DomainGroup{
		authRoutes, outletRoutes, cartRoutes, checkoutRoutes, orderRoutes,
		publisherRoutes, adminRoutes, notificationRoutes,
	}
}
