package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"connectrpc.com/connect"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// maxAmount caps a single amount so that cent totals stay far inside int64.
var maxAmount = decimal.New(1, 12)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})

	// decimal.Decimal is a struct, so amounts get their own rules instead of gt/gte.
	rules := map[string]validator.Func{
		"positive_decimal": func(fl validator.FieldLevel) bool {
			d, ok := fl.Field().Interface().(decimal.Decimal)
			return ok && d.IsPositive()
		},
		"nonnegative_decimal": func(fl validator.FieldLevel) bool {
			d, ok := fl.Field().Interface().(decimal.Decimal)
			return ok && !d.IsNegative()
		},
		"max_amount": func(fl validator.FieldLevel) bool {
			d, ok := fl.Field().Interface().(decimal.Decimal)
			return ok && d.LessThanOrEqual(maxAmount)
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register %s validation: %v", tag, err))
		}
	}
	return v
}

// validateRequest checks msg against its validate tags and reports every
// failing field in a single InvalidArgument error.
func validateRequest(msg any) error {
	err := validate.Struct(msg)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return connect.NewError(connect.CodeInvalidArgument, err)
	}

	details := make([]string, 0, len(errs))
	for _, fe := range errs {
		details = append(details, fmt.Sprintf("%s %s", fieldPath(fe), validationMessage(fe)))
	}
	return connect.NewError(connect.CodeInvalidArgument, errors.New(strings.Join(details, "; ")))
}

// fieldPath drops the struct name from the namespace: payments[0].amount.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must have at least %s entries", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must have at most %s entries", fe.Param())
	case "email":
		return "must be a valid email"
	case "positive_decimal":
		return "must be greater than zero"
	case "nonnegative_decimal":
		return "must not be negative"
	case "max_amount":
		return "must not exceed " + maxAmount.String()
	}
	return "is invalid"
}
