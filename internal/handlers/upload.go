package handlers

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/AnshRaj112/recuerdos-backend/pkg/utils"
)

// MaxUploadSize caps uploaded photos at 10MB.
const MaxUploadSize = 10 << 20

// ImageUploader stores a photo and returns its public URL.
type ImageUploader interface {
	UploadImage(ctx context.Context, userID string, file io.Reader) (string, error)
}

// UploadHandler serves POST /api/upload. A nil uploader answers 503.
type UploadHandler struct {
	uploader ImageUploader
}

func NewUploadHandler(uploader ImageUploader) *UploadHandler {
	return &UploadHandler{uploader: uploader}
}

type UploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	URL     string `json:"url,omitempty"`
}

// UploadFile handles image uploads to Cloudinary
func (h *UploadHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	if h.uploader == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error:   ErrorKindUnavailable,
			Message: "La subida de imágenes no está configurada",
		})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		writeValidation(w, "file", "No se pudo leer el formulario (máximo 10MB)")
		return
	}

	userID := strings.TrimSpace(r.FormValue("userId"))
	if userID == "" {
		userID = ownerFromQuery(r)
	}
	if err := uploadOwner(userID); err != nil {
		writeError(w, r, err)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeValidation(w, "file", "No se envió ningún archivo")
		return
	}
	defer file.Close()

	if fileHeader.Size > MaxUploadSize {
		writeValidation(w, "file", "La imagen supera el máximo de 10MB")
		return
	}

	head := make([]byte, 512)
	n, _ := io.ReadFull(file, head)
	head = head[:n]
	if !strings.HasPrefix(http.DetectContentType(head), "image/") {
		writeValidation(w, "file", "El archivo debe ser una imagen")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	url, err := h.uploader.UploadImage(ctx, userID, io.MultiReader(bytes.NewReader(head), file))
	if err != nil {
		log.Printf("❌ Image upload failed: %v", err)
		writeJSON(w, http.StatusBadGateway, ErrorResponse{
			Error:   ErrorKindUnknown,
			Message: "No se pudo subir la imagen",
		})
		return
	}

	writeJSON(w, http.StatusOK, UploadResponse{
		Success: true,
		Message: "Imagen subida correctamente",
		URL:     url,
	})
}

// uploadOwner checks userId before it becomes a Cloudinary folder name.
func uploadOwner(userID string) error {
	if err := utils.Required("userId", userID); err != nil {
		return err
	}
	if err := utils.MaxLength("userId", userID, utils.MaxUserIDLength); err != nil {
		return err
	}
	if strings.ContainsAny(userID, `/\`) || strings.Contains(userID, "..") {
		return &utils.ValidationError{Field: "userId", Message: "El campo userId contiene caracteres no permitidos"}
	}
	return nil
}
