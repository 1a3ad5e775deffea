package controllers

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const maxUploadBytes = 10 << 20

// UploadController stores product images on disk under timestamped names.
// The files are served back from the /images/ static path.
type UploadController struct {
	Dir string
}

// NewUploadController creates the upload directory if needed.
func NewUploadController(dir string) (*UploadController, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &UploadController{Dir: dir}, nil
}

// Upload accepts a multipart form with an image under the field "product"
// and responds with the absolute URL it will be served from.
func (uc *UploadController) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("product")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image file missing")
		return
	}
	defer file.Close()

	filename := fmt.Sprintf("product_%d%s", time.Now().UnixMilli(), filepath.Ext(header.Filename))
	dst, err := os.Create(filepath.Join(uc.Dir, filename))
	if err != nil {
		log.Println("Error creating image file:", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		log.Println("Error writing image file:", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   1,
		"image_url": imageBaseURL(r) + filename,
	})
}
