package server

import (
	"context"
	"net/http"
	"time"

	"storefront/database/handler"
	"storefront/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	readTimeout       = 5 * time.Minute
	readHeaderTimeout = 30 * time.Second
	writeTimeout      = 5 * time.Minute
)

type Server struct {
	*gin.Engine
	server *http.Server
}

type Options struct {
	AllowedOrigins []string
	UploadsDir     string
	Logger         *logrus.Logger
	Metrics        *middleware.Metrics
}

func SetupRoutes(h *handler.Handler, tokens *middleware.TokenService, opts Options) *Server {
	routes := gin.New()
	routes.Use(gin.Recovery())
	if opts.Logger != nil {
		routes.Use(middleware.RequestLogger(opts.Logger))
	}
	if opts.Metrics != nil {
		routes.Use(opts.Metrics.Handler())
	}
	routes.Use(cors.New(corsConfig(opts.AllowedOrigins)))
	if opts.UploadsDir != "" {
		routes.Static("/uploads", opts.UploadsDir)
	}

	auth := middleware.Authenticate(tokens)
	admin := middleware.AdminOnly()

	users := routes.Group("/users")
	{
		users.POST("/register", h.Register)
		users.POST("/login", h.Login)
		users.GET("", auth, admin, h.GetAllUsers)
		users.GET("/details", auth, h.GetUserDetails)
		users.PATCH("/:id/set-as-admin", auth, admin, h.SetAsAdmin)
		users.PATCH("/update-password", auth, h.UpdatePassword)
		users.POST("/like/:productId", auth, h.LikeProduct)
		users.POST("/unlike/:productId", auth, h.UnlikeProduct)
		users.GET("/my-likes", auth, h.GetLikes)
	}

	products := routes.Group("/products")
	{
		products.GET("/active", h.GetActiveProducts)
		products.GET("/categories", h.GetCategories)
		products.GET("/category/:category", h.GetProductsByCategory)
		products.GET("/brands", h.GetBrands)
		products.GET("/brand/:brand", h.GetProductsByBrand)
		products.GET("/sale", h.GetSaleProducts)
		products.POST("/search-by-name", h.SearchByName)
		products.POST("/search-by-price", h.SearchByPrice)
		products.GET("/:productId", h.GetProduct)

		products.POST("", auth, admin, h.CreateProduct)
		products.GET("/all", auth, admin, h.GetAllProducts)
		products.GET("/export", auth, admin, h.ExportProducts)
		products.PATCH("/:productId/update", auth, admin, h.UpdateProduct)
		products.PATCH("/:productId/archive", auth, admin, h.ArchiveProduct)
		products.PATCH("/:productId/activate", auth, admin, h.ActivateProduct)
		products.PATCH("/:productId/sale", auth, admin, h.UpdateSale)
		products.DELETE("/:productId", auth, admin, h.DeleteProduct)
	}

	cart := routes.Group("/cart", auth)
	{
		cart.GET("/get-cart", h.GetCart)
		cart.POST("/add-to-cart", h.AddToCart)
		cart.PATCH("/update-cart-quantity", h.UpdateCartQuantity)
		cart.PATCH("/remove-from-cart/:productId", h.RemoveFromCart)
		cart.DELETE("/clear-cart", h.ClearCart)
	}

	orders := routes.Group("/orders", auth)
	{
		orders.POST("/checkout", h.Checkout)
		orders.GET("/my-orders", h.GetMyOrders)
		orders.GET("/all-orders", admin, h.GetAllOrders)
		orders.PATCH("/update-status/:orderId", admin, h.UpdateOrderStatus)
		orders.PATCH("/mark-received/:orderId", h.MarkReceived)
	}

	return &Server{
		Engine: routes,
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", "Idempotency-Key")
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func (srv *Server) Run(port string) error {
	srv.server = &http.Server{
		Addr:              port,
		Handler:           srv.Engine,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
	}
	return srv.server.ListenAndServe()
}

func (srv *Server) Stop(time time.Duration) error {
	if srv.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), time)
	defer cancel()
	return srv.server.Shutdown(ctx)
}
