package utils

import (
	"net/url"
	"strings"

	"github.com/AnshRaj112/recuerdos-backend/internal/common"
)

const (
	MaxTitleLength       = 200
	MaxLocationLength    = 300
	MaxDescriptionLength = 5000
	MaxUserIDLength      = 255
)

// ValidationError names the offending field so the frontend can show the
// message next to it.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is lets errors.Is(err, common.ErrValidation) match any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == common.ErrValidation
}

// Required fails when value is blank.
func Required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Message: "El campo " + field + " es obligatorio"}
	}
	return nil
}

// MaxLength fails when value is longer than max runes.
func MaxLength(field, value string, max int) error {
	if len([]rune(value)) > max {
		return &ValidationError{Field: field, Message: "El campo " + field + " es demasiado largo"}
	}
	return nil
}

// ValidateImageURL accepts an empty string or an absolute http(s) URL.
func ValidateImageURL(field, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return &ValidationError{Field: field, Message: "El campo " + field + " debe ser una URL http(s) válida"}
	}
	return nil
}

// ValidateCoordinates requires latitude and longitude together and in range.
func ValidateCoordinates(lat, lng *float64) error {
	if (lat == nil) != (lng == nil) {
		field := "latitud"
		if lng == nil {
			field = "longitud"
		}
		return &ValidationError{Field: field, Message: "latitud y longitud deben enviarse juntas"}
	}
	if lat == nil {
		return nil
	}
	if *lat < -90 || *lat > 90 {
		return &ValidationError{Field: "latitud", Message: "latitud fuera de rango"}
	}
	if *lng < -180 || *lng > 180 {
		return &ValidationError{Field: "longitud", Message: "longitud fuera de rango"}
	}
	return nil
}
