package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/itinerary-microservice/internal/domain"
	apperrors "github.com/itinerary-microservice/internal/pkg/errors"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = validate.RegisterValidation("transport_mode", func(fl validator.FieldLevel) bool {
		return domain.TransportMode(fl.Field().String()).IsValid()
	})
	_ = validate.RegisterValidation("optimization_mode", func(fl validator.FieldLevel) bool {
		return domain.OptimizationMode(fl.Field().String()).IsValid()
	})
}

// Validate - валидация структуры. Ошибки валидатора превращаются в
// VALIDATION_ERROR с перечнем полей в details.
func Validate(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.ErrInvalidRequest.WithMessage("%s", err.Error())
	}

	details := make(map[string]interface{}, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = fe.Tag()
	}
	return apperrors.ErrValidation.WithDetails(details)
}

// GetValidator - получить валидатор для кастомной конфигурации
func GetValidator() *validator.Validate {
	return validate
}
