package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

// DefaultImageFolder is used when CLOUDINARY_FOLDER is empty.
const DefaultImageFolder = "recuerdos"

var ErrUploadRejected = errors.New("upload rejected")

// CloudinaryService stores recuerdo photos. Only the returned secure URL is
// kept on the recuerdo.
type CloudinaryService struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryService(cloudName, apiKey, apiSecret, folder string) (*CloudinaryService, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	if folder == "" {
		folder = DefaultImageFolder
	}
	cld.Config.URL.Secure = true

	return &CloudinaryService{
		cld:    cld,
		folder: folder,
	}, nil
}

// UploadImage stores the image under <folder>/<userID>/<uuid> and returns
// its https URL.
func (s *CloudinaryService) UploadImage(ctx context.Context, userID string, file io.Reader) (string, error) {
	folder := s.folder
	if userID != "" {
		folder += "/" + userID
	}
	uploadResult, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		PublicID:     uuid.New().String(),
		Folder:       folder,
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to Cloudinary: %w", err)
	}
	if uploadResult.Error.Message != "" {
		return "", fmt.Errorf("%w: %s", ErrUploadRejected, uploadResult.Error.Message)
	}
	return uploadResult.SecureURL, nil
}
