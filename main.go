package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"bookstore/internal/config"
	"bookstore/internal/database"
	"bookstore/internal/handlers"
	"bookstore/internal/middleware"
	"bookstore/internal/models"
	"bookstore/internal/stock"
	"bookstore/internal/store"
)

func main() {
	config.Load()

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureBookIndexes(db); err != nil {
		log.Printf("book index warning: %v", err)
	}
	if err := database.EnsureUserIndexes(db); err != nil {
		log.Printf("user index warning: %v", err)
	}
	if err := database.EnsureCartIndexes(db); err != nil {
		log.Printf("cart index warning: %v", err)
	}
	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Printf("order index warning: %v", err)
	}

	books := store.NewMongoBookStore(db)
	carts := store.NewMongoCartStore(db)
	orders := store.NewMongoOrderStore(db)
	users := store.NewMongoUserStore(db)
	stockMgr := stock.NewManager(books)

	secret := config.AppEnv.JWTSecret
	accessTTL := config.AppEnv.AccessTokenTTL

	r := gin.Default()

	r.POST("/auth/register", handlers.Register(users, secret, accessTTL))
	r.POST("/auth/login", handlers.Login(users, secret, accessTTL))
	r.GET("/auth/me", middleware.AuthGuard(secret), handlers.GetMe(users))

	r.GET("/books", handlers.GetBooks(books))
	r.GET("/books/featured", handlers.GetFeaturedBooks(books))
	r.GET("/books/:bookId", handlers.GetBookByID(books))
	r.GET("/books/:bookId/reviews", handlers.GetBookReviews(books))

	authed := r.Group("/")
	authed.Use(middleware.AuthGuard(secret))
	{
		authed.GET("/cart", handlers.GetCart(books, carts))
		authed.POST("/cart/add", handlers.AddToCart(books, carts))
		authed.PUT("/cart/update", handlers.UpdateCartItem(books, carts))
		authed.DELETE("/cart/remove/:itemId", handlers.RemoveFromCart(carts))
		authed.DELETE("/cart/clear", handlers.ClearCart(carts))

		authed.POST("/checkout/validate", handlers.ValidateCheckout(books, carts))
		authed.GET("/checkout/shipping-options", handlers.GetShippingOptions(carts))
		authed.POST("/checkout/process", handlers.ProcessCheckout(books, carts, orders, stockMgr))
		authed.POST("/checkout/payment", handlers.ProcessPayment(orders, stockMgr))

		authed.GET("/orders", handlers.GetUserOrders(orders))
		authed.GET("/orders/:orderId", handlers.GetOrderByID(orders))

		authed.POST("/books/:bookId/reviews", handlers.AddReview(books))
		authed.DELETE("/books/:bookId/reviews/:reviewId", handlers.DeleteReview(books))

		authed.GET("/wishlist", handlers.GetWishlist(books, users))
		authed.POST("/wishlist", handlers.AddToWishlist(books, users))
		authed.DELETE("/wishlist/:bookId", handlers.RemoveFromWishlist(users))
	}

	publishers := r.Group("/")
	publishers.Use(middleware.AuthGuard(secret, models.RoleAuthor, models.RoleAdmin))
	{
		publishers.POST("/books", handlers.CreateBook(books))
		publishers.GET("/books/my", handlers.GetMyBooks(books))
		publishers.PUT("/books/:bookId", handlers.UpdateBook(books))
		publishers.DELETE("/books/:bookId", handlers.DeleteBook(books))
	}

	admin := r.Group("/")
	admin.Use(middleware.AuthGuard(secret, models.RoleAdmin))
	{
		admin.GET("/orders/admin/all", handlers.GetAllOrders(orders))
		admin.PUT("/orders/:orderId/status", handlers.UpdateOrderStatus(orders))
		admin.PUT("/orders/:orderId/payment-status", handlers.UpdatePaymentStatus(orders))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r.Run(":" + port)
}
