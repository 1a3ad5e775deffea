package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"go-storefront/controllers"
	"go-storefront/middleware"
)

// RegisterRoutes sets up all the routes for the application
func RegisterRoutes(router *mux.Router, userController *controllers.UserController, productController *controllers.ProductController, cartController *controllers.CartController, checkoutController *controllers.CheckoutController, uploadController *controllers.UploadController) {
	// Liveness
	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Storefront API is running"))
	}).Methods("GET")

	// Public routes
	router.HandleFunc("/signup", userController.Signup).Methods("POST")
	router.HandleFunc("/login", userController.Login).Methods("POST")

	// Catalog routes
	router.HandleFunc("/allproducts", productController.AllProducts).Methods("GET")
	router.HandleFunc("/addproduct", productController.AddProduct).Methods("POST")
	router.HandleFunc("/removeproduct", productController.RemoveProduct).Methods("POST")

	// Checkout: intent creation is public per the storefront contract; it
	// upgrades to cart-derived amounts when a token is present.
	router.HandleFunc("/create-payment-intent", checkoutController.CreatePaymentIntent).Methods("POST")

	// Image upload + static serving
	router.HandleFunc("/upload", uploadController.Upload).Methods("POST")
	router.PathPrefix("/images/").Handler(
		http.StripPrefix("/images/", http.FileServer(http.Dir(uploadController.Dir))))

	// Protected routes
	protected := router.PathPrefix("/").Subrouter()
	protected.Use(middleware.AuthMiddleware)
	protected.HandleFunc("/addtocart", cartController.AddToCart).Methods("POST")
	protected.HandleFunc("/removefromcart", cartController.RemoveFromCart).Methods("POST")
	protected.HandleFunc("/getcart", cartController.GetCart).Methods("POST")
	protected.HandleFunc("/confirmpayment", checkoutController.ConfirmPayment).Methods("POST")
}
