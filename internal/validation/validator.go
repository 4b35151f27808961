// Package validation wraps a shared go-playground/validator instance and the
// request shapes the handlers bind from forms.
package validation

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	"movie-discovery-likes/internal/apperr"
	"movie-discovery-likes/internal/models"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// GetValidator returns the singleton validator instance.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// LikeRequest is the form posted by a like/unlike toggle. The record fields
// are the denormalised copy stored with the like.
type LikeRequest struct {
	Action      string `form:"action" validate:"required,oneof=like unlike"`
	View        string `form:"view" validate:"omitempty,oneof=button card"`
	Title       string `form:"title" validate:"required_if=Action like,max=500"`
	PosterPath  string `form:"poster_path" validate:"max=500"`
	ReleaseDate string `form:"release_date" validate:"omitempty,datetime=2006-01-02"`
}

// Liked converts the request into the record persisted for userID.
func (r LikeRequest) Liked(userID string, id models.MovieID) models.LikedMovie {
	return models.LikedMovie{
		UserID:      userID,
		MovieID:     id,
		Title:       r.Title,
		PosterPath:  r.PosterPath,
		ReleaseDate: r.ReleaseDate,
	}
}

// ValidateStruct validates s and reports the first failing field as an
// apperr.ValidationError.
func ValidateStruct(s any) error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &apperr.ValidationError{Field: fe.Field(), Message: message(fe)}
	}
	return &apperr.ValidationError{Message: err.Error()}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
