package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"go-storefront/controllers"
	"go-storefront/payment"
	"go-storefront/routes"
	"go-storefront/storage"
	"go-storefront/utils"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Proceeding with environment variables.")
	}

	// Set the JWT secret key
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		utils.JwtKey = []byte(secret)
	}

	// Connect to MongoDB
	client := utils.ConnectDB()
	defer func() {
		if err := client.Disconnect(context.TODO()); err != nil {
			log.Fatal(err)
		}
	}()

	store := storage.NewMongoStore(client, "ecommerce")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := store.EnsureIndexes(ctx); err != nil {
		cancel()
		log.Fatal("Error creating indexes:", err)
	}
	cancel()

	// Payment processor client
	payments := payment.NewStripeClient(os.Getenv("STRIPE_SECRET_KEY"))

	// Mailer for order confirmations
	var mailer utils.Mailer = utils.NoopMailer{}
	if token := os.Getenv("POSTMARK_API_TOKEN"); token != "" {
		mailer = utils.NewPostmarkMailer(token, os.Getenv("EMAIL_SENDER"))
	}

	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "upload/images"
	}

	// Initialize controllers
	userController := controllers.NewUserController(store)
	productController := controllers.NewProductController(store)
	cartController := controllers.NewCartController(store)
	checkoutController := controllers.NewCheckoutController(store, payments, mailer)
	uploadController, err := controllers.NewUploadController(uploadDir)
	if err != nil {
		log.Fatal("Error creating upload directory:", err)
	}

	// Set up the router
	router := mux.NewRouter()
	routes.RegisterRoutes(router, userController, productController, cartController, checkoutController, uploadController)

	// The browser client sends auth-token and Idempotency-Key headers
	// cross-origin.
	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "auth-token", "Idempotency-Key"}),
	)

	// Start the server
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	log.Printf("Server is running on port %s\n", port)
	log.Fatal(http.ListenAndServe(":"+port, handlers.LoggingHandler(os.Stdout, cors(router))))
}
