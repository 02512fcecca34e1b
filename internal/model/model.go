package model

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	ErrEmptyField   = "EMPTY"
	ErrInvalidField = "INVALID_VALUE"
)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// maxbytes bounds the UTF-8 length; max counts runes.
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		return err == nil && len(fl.Field().String()) <= n
	})
	return v
}

// validateStruct runs the struct tags and reports failures keyed by json
// field name, using the same EMPTY/INVALID_VALUE codes as hand-written checks.
func validateStruct(dto any) map[string]string {
	errs := make(map[string]string)

	err := validate.Struct(dto)
	if err == nil {
		return errs
	}

	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		errs["_"] = ErrInvalidField
		return errs
	}

	for _, fe := range ve {
		if fe.Tag() == "required" {
			errs[fe.Field()] = ErrEmptyField
			continue
		}
		errs[fe.Field()] = ErrInvalidField
	}

	return errs
}
