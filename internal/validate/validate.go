package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/erazemk/najdeno/internal/model"
)

// v is the package-level singleton validator. Custom registrations happen in
// init() before the first call to Struct.
var v = validator.New()

var studentIDPattern = regexp.MustCompile(`^s\d{6}$`)

func init() {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("studentid", func(fl validator.FieldLevel) bool {
		return studentIDPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return model.ValidCategory(fl.Field().String())
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

// StudentID reports whether id looks like a school student ID (s + 6 digits).
func StudentID(id string) bool {
	return studentIDPattern.MatchString(id)
}

// Struct validates s using its validate tags. Failures come back as a
// *model.ValidationError keyed by JSON field names.
func Struct(s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}

	out := &model.ValidationError{}
	for _, fe := range ve {
		out.Fields = append(out.Fields, model.FieldError{
			Field:   fe.Field(),
			Message: message(fe),
		})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "email":
		return "must be a valid email address"
	case "studentid":
		return "must be 's' followed by 6 digits"
	case "category":
		return "must be one of: " + strings.Join(model.Categories, ", ")
	default:
		return fmt.Sprintf("failed '%s'", fe.Tag())
	}
}
