package validator

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/clinic-api/internal/model"
)

// Register installs the custom binding tags on gin's validator and makes
// validation errors report JSON field names.
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return RegisterOn(v)
}

func RegisterOn(v *validator.Validate) error {
	v.RegisterTagNameFunc(jsonName)

	if err := v.RegisterValidation("timeslot", validateTimeSlot); err != nil {
		return err
	}
	return v.RegisterValidation("notblank", validateNotBlank)
}

func jsonName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return field.Name
	}
	return name
}

func validateTimeSlot(fl validator.FieldLevel) bool {
	switch v := fl.Field().Interface().(type) {
	case model.TimeSlot:
		return v.Valid()
	case string:
		return model.TimeSlot(v).Valid()
	}
	return false
}

func validateNotBlank(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return true
	}
	return strings.TrimSpace(fl.Field().String()) != ""
}
