package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	apperrors "lookuply-search-api/internal/errors"
	"lookuply-search-api/internal/models"
	"lookuply-search-api/internal/rag"

	"github.com/go-playground/validator/v10"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// check validates req against its struct tags and turns the first failure
// into a client-safe message.
func (s *Server) check(req interface{}) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperrors.Validation("Invalid request")
	}
	return apperrors.Validation(describe(fieldErrs[0]))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()

	switch fe.Tag() {
	case "required":
		if strings.HasPrefix(field, "source_ids[") {
			return "source_ids must not contain empty ids"
		}
		if field == "source_ids" {
			return "source_ids must not be empty"
		}
		return fmt.Sprintf("%s is required", field)
	case "min":
		if field == "source_ids" {
			return "source_ids must not be empty"
		}
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(rag.SupportedLanguages(), ", "))
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// checkChat reproduces the messages the chat endpoint has always returned.
func (s *Server) checkChat(req *models.ChatRequest) error {
	switch n := utf8.RuneCountInString(req.Query); {
	case n < 2:
		return apperrors.Validation("Query too short")
	case n > 500:
		return apperrors.Validation("Query too long")
	}
	return s.check(req)
}
