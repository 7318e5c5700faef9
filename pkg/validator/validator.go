package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	validate.RegisterValidation("lat", func(fl validator.FieldLevel) bool {
		lat := fl.Field().Float()
		return lat >= -90 && lat <= 90
	})
	validate.RegisterValidation("lng", func(fl validator.FieldLevel) bool {
		lng := fl.Field().Float()
		return lng >= -180 && lng <= 180
	})
	// latlng checks a [lat, lng] pair
	validate.RegisterValidation("latlng", func(fl validator.FieldLevel) bool {
		f := fl.Field()
		if f.Len() != 2 {
			return false
		}
		lat, lng := f.Index(0).Float(), f.Index(1).Float()
		return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
	})
}

// ValidateStruct checks s against its validate tags
func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// Messages flattens a validation error into one message per failing field
func Messages(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}

	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			out = append(out, field+" is required")
		case "lat":
			out = append(out, field+" must be a latitude between -90 and 90")
		case "lng":
			out = append(out, field+" must be a longitude between -180 and 180")
		case "latlng":
			out = append(out, field+" must be a [latitude, longitude] pair")
		case "timezone":
			out = append(out, field+" must be an IANA timezone name")
		default:
			out = append(out, field+" failed "+fe.Tag()+" validation")
		}
	}
	return out
}
