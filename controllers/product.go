package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"go-storefront/models"
	"go-storefront/storage"
)

// ProductController handles catalog requests.
type ProductController struct {
	Store storage.Store
}

// NewProductController creates a new ProductController.
func NewProductController(store storage.Store) *ProductController {
	return &ProductController{Store: store}
}

// AllProducts returns every product, with relative image names resolved to
// absolute URLs under /images/.
func (pc *ProductController) AllProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	products, err := pc.Store.ListProducts(ctx)
	if err != nil {
		log.Println("Error fetching products:", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	baseURL := imageBaseURL(r)
	for i := range products {
		if !strings.HasPrefix(products[i].Image, "http") {
			products[i].Image = baseURL + products[i].Image
		}
	}

	writeJSON(w, http.StatusOK, products)
}

// AddProduct creates a new product with the next available id.
func (pc *ProductController) AddProduct(w http.ResponseWriter, r *http.Request) {
	var req models.AddProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	product := models.Product{
		Name:      req.Name,
		Image:     req.Image,
		Category:  req.Category,
		NewPrice:  req.NewPrice,
		OldPrice:  req.OldPrice,
		Date:      time.Now(),
		Available: true,
	}
	if req.Available != nil {
		product.Available = *req.Available
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := pc.Store.InsertProduct(ctx, &product); err != nil {
		log.Println("Error creating product:", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"product": product,
	})
}

// RemoveProduct deletes a product by id. Unknown ids are an explicit 404.
func (pc *ProductController) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	var req models.RemoveProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := pc.Store.DeleteProduct(ctx, req.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		log.Println("Error deleting product:", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}
