package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/boutique/internal/account"
	"github.com/Skotchmaster/boutique/internal/blog"
	"github.com/Skotchmaster/boutique/internal/cart"
	"github.com/Skotchmaster/boutique/internal/catalog"
	"github.com/Skotchmaster/boutique/internal/contact"
	"github.com/Skotchmaster/boutique/internal/content"
	"github.com/Skotchmaster/boutique/internal/order"
	"github.com/Skotchmaster/boutique/internal/review"
	"github.com/Skotchmaster/boutique/internal/session"
	"github.com/Skotchmaster/boutique/internal/upload"
	"github.com/Skotchmaster/boutique/internal/wishlist"
	"github.com/Skotchmaster/boutique/pkg/httpx"
	"github.com/Skotchmaster/boutique/pkg/logging"
	authmw "github.com/Skotchmaster/boutique/pkg/middleware/auth"
	"github.com/Skotchmaster/boutique/pkg/middleware/ratelimit"
)

// Check is one dependency probed by /health/ready.
type Check func(ctx context.Context) error

type Deps struct {
	Auth     *authmw.Authenticator
	Sessions *session.Resolver
	Contact  *ratelimit.Limiter

	Catalog  *catalog.CatalogHTTP
	Reviews  *review.ReviewHTTP
	Cart     *cart.Handler
	Orders   *order.OrderHTTP
	Blogs    *blog.BlogHTTP
	Wishlist *wishlist.WishlistHTTP
	Content  *content.ContentHTTP
	Messages *contact.ContactHTTP
	Accounts *account.AccountHTTP
	Uploads  *upload.UploadHTTP

	UploadDir string
	Ready     map[string]Check
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", d.ready)

	if d.UploadDir != "" {
		e.Static("/uploads", d.UploadDir)
	}

	auth := d.Auth
	catalogPerm := auth.RequirePermission(authmw.PermCatalog)
	contentPerm := auth.RequirePermission(authmw.PermContent)
	ordersPerm := auth.RequirePermission(authmw.PermOrders)
	moderation := auth.RequirePermission(authmw.PermModeration)

	api := e.Group("/api")

	products := api.Group("/products")
	products.GET("", d.Catalog.GetProducts)
	products.GET("/category-counts", d.Catalog.CategoryCounts)
	products.GET("/:id", d.Catalog.GetProduct)
	products.POST("", d.Catalog.CreateProduct, catalogPerm)
	products.PUT("/:id", d.Catalog.UpdateProduct, catalogPerm)
	products.DELETE("/:id", d.Catalog.DeleteProduct, catalogPerm)
	products.GET("/:id/reviews", d.Reviews.ListForProduct)
	products.POST("/:id/reviews", d.Reviews.Create, auth.RequireAuth)

	carts := api.Group("/cart", auth.Optional, d.Sessions.Middleware)
	carts.GET("", d.Cart.GetCart)
	carts.POST("", d.Cart.PutCart)
	carts.DELETE("", d.Cart.ClearCart)
	carts.POST("/items", d.Cart.AddItem)
	carts.PATCH("/items/:productId", d.Cart.UpdateItem)
	carts.DELETE("/items/:productId", d.Cart.RemoveItem)

	orders := api.Group("/orders", auth.Optional, d.Sessions.Middleware)
	orders.GET("", d.Orders.ListOrders)
	orders.GET("/:id", d.Orders.GetOrder)
	orders.POST("", d.Orders.PlaceOrder)

	blogs := api.Group("/blogs")
	blogs.GET("", d.Blogs.List, auth.Optional)
	blogs.POST("", d.Blogs.Create, contentPerm)
	blogs.GET("/:slug", d.Blogs.Get)
	blogs.PUT("/:slug", d.Blogs.Update, contentPerm)
	blogs.DELETE("/:slug", d.Blogs.Delete, contentPerm)
	blogs.GET("/:slug/comments", d.Blogs.Comments)
	blogs.POST("/:slug/comments", d.Blogs.AddComment, auth.RequireAuth)

	wl := api.Group("/wishlist", auth.RequireAuth)
	wl.GET("", d.Wishlist.Get)
	wl.POST("", d.Wishlist.Add)
	wl.DELETE("", d.Wishlist.Remove)
	wl.POST("/toggle", d.Wishlist.Toggle)

	api.GET("/content/:key", d.Content.Get)

	contactPost := []echo.MiddlewareFunc{}
	if d.Contact != nil {
		contactPost = append(contactPost, d.Contact.Middleware)
	}
	api.POST("/contact", d.Messages.Submit, contactPost...)
	api.GET("/contact", d.Messages.List, moderation)

	users := api.Group("/users")
	users.POST("", d.Accounts.Register)
	users.GET("", d.Accounts.Profile, auth.RequireAuth)
	users.PUT("", d.Accounts.UpdateProfile, auth.RequireAuth)

	authg := api.Group("/auth")
	authg.POST("/login", d.Accounts.Login)
	authg.POST("/refresh", d.Accounts.Refresh)
	authg.POST("/logout", d.Accounts.Logout)

	api.POST("/upload", d.Uploads.Upload, auth.RequirePermission(authmw.PermCatalog|authmw.PermContent))

	admin := api.Group("/admin")
	admin.GET("/reviews", d.Reviews.AdminList, moderation)
	admin.DELETE("/reviews/:id", d.Reviews.Delete, moderation)
	admin.GET("/comments", d.Blogs.AdminComments, moderation)
	admin.DELETE("/comments/:id", d.Blogs.DeleteComment, moderation)
	admin.PATCH("/contact/:id", d.Messages.Update, moderation)
	admin.PATCH("/orders/:id/status", d.Orders.UpdateStatus, ordersPerm)
	admin.GET("/carts", d.Cart.AdminList, ordersPerm)
	admin.GET("/wishlists", d.Wishlist.AdminList, catalogPerm)
	admin.GET("/content/:key", d.Content.AdminGet, contentPerm)
	admin.POST("/content/:key", d.Content.Upsert, contentPerm)
	admin.DELETE("/uploads/:fileId", d.Uploads.Delete, auth.RequirePermission(authmw.PermCatalog|authmw.PermContent))
	admin.POST("/admins", d.Accounts.CreateAdmin, auth.RequirePermission(authmw.PermManageAdmins))
}

func (d *Deps) ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()
	l := logging.FromContext(ctx).With("handler", "health.ready")

	failed := map[string]string{}
	for name, check := range d.Ready {
		if err := check(ctx); err != nil {
			l.Warn("dependency_unready", "dependency", name, "error", err)
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		return c.JSON(http.StatusServiceUnavailable, httpx.Envelope{Success: false, Data: failed, Error: "not ready"})
	}
	return c.NoContent(http.StatusOK)
}
