package api

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/jamongadejoa28/sassmall-sub003/internal/domain"
)

var registerOnce = sync.OnceValue(registerValidators)

// validateMaxBytes в отличии от тэга max который проверяет длину рун, - проверят длину байт в поле.
func validateMaxBytes(fl validator.FieldLevel) bool {
	param := fl.Param() // получаем значение из тега
	maxBytes, err := strconv.Atoi(param)
	if err != nil {
		return false
	}

	// нужно убедится что значение поля - строка.
	str, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	return len([]byte(str)) <= maxBytes
}

func validatePaymentMethod(fl validator.FieldLevel) bool {
	method, ok := fl.Field().Interface().(domain.PaymentMethodType)
	return ok && method.IsValid()
}

func validateOrderStatus(fl validator.FieldLevel) bool {
	status, ok := fl.Field().Interface().(domain.OrderStatusType)
	return ok && status.IsValid()
}

func registerValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("validator registration: unexpected engine %T", binding.Validator.Engine())
	}
	validations := map[string]validator.Func{
		"max_bytes":      validateMaxBytes,
		"payment_method": validatePaymentMethod,
		"order_status":   validateOrderStatus,
	}
	for tag, fn := range validations {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("validator registration: %s", err.Error())
		}
	}
	return nil
}
