package customvalidator

import (
	"reflect"

	"equipment-tracker/internal/schedule"
	"equipment-tracker/pkg/constants"

	"github.com/aarondl/null/v8"
	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidations регистрирует все кастомные правила в одном месте.
func RegisterCustomValidations(v *validator.Validate) error {
	registerNullTypes(v)
	if err := v.RegisterValidation("frequency", isKnownFrequency); err != nil {
		return err
	}
	if err := v.RegisterValidation("role", isKnownRole); err != nil {
		return err
	}
	return nil
}

// registerNullTypes учит валидатор "смотреть внутрь" типов null.String, null.Int и т.д.
func registerNullTypes(v *validator.Validate) {
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if val, ok := field.Interface().(null.String); ok {
			if val.Valid {
				return val.String
			}
		}
		return nil // пусть сработает `omitempty`
	}, null.String{})

	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if val, ok := field.Interface().(null.Int); ok {
			if val.Valid {
				return val.Int
			}
		}
		return nil
	}, null.Int{})

	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if val, ok := field.Interface().(null.Uint64); ok {
			if val.Valid {
				return val.Uint64
			}
		}
		return nil
	}, null.Uint64{})
}

// isKnownFrequency принимает известную периодичность или пустую строку —
// пустая означает "регламент не настроен" и ошибкой не является.
func isKnownFrequency(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return schedule.Frequency(value).IsValid()
}

func isKnownRole(fl validator.FieldLevel) bool {
	return constants.IsValidRole(fl.Field().String())
}
