package validators

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"carrental/internal/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	registerCustomValidations(validate)
}

var customValidations = map[string]validator.Func{
	"object_id":      validateObjectID,
	"payment_method": validatePaymentMethod,
	"booking_status": validateBookingStatus,
	"username":       validateUsername,
}

func registerCustomValidations(v *validator.Validate) {
	for tag, fn := range customValidations {
		// Only fails on an empty tag or nil func.
		_ = v.RegisterValidation(tag, fn)
	}
}

// RegisterGinValidations adds the custom tags to gin's binding engine so
// `binding:"..."` struct tags understand them too.
func RegisterGinValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding engine is not go-playground/validator")
	}
	registerCustomValidations(v)
	return nil
}

type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	messages := make([]string, 0, len(v))
	for _, err := range v {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(messages, "; ")
}

// Details flattens the errors into a field -> message map for API replies.
func (v ValidationErrors) Details() map[string]string {
	details := make(map[string]string, len(v))
	for _, err := range v {
		details[err.Field] = err.Message
	}
	return details
}

// ValidateStruct returns nil when s is valid, otherwise ValidationErrors.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	return FromBindingError(err)
}

// FromBindingError converts validator field errors, such as those returned by
// gin's ShouldBind*, into ValidationErrors. Other errors are returned as is.
func FromBindingError(err error) error {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}

	validationErrors := make(ValidationErrors, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		validationErrors = append(validationErrors, ValidationError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Value:   fmt.Sprintf("%v", fe.Value()),
			Message: getErrorMessage(fe),
		})
	}
	return validationErrors
}

func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", err.Field())
	case "email":
		return "Invalid email format"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", err.Field(), err.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
	case "object_id":
		return "Invalid ID format"
	case "payment_method":
		return "Payment method must be one of credit, debit, cash"
	case "booking_status":
		return "Status must be one of pending, confirmed, cancelled, completed"
	case "username":
		return "Username may contain letters, digits, '.', '_' and '-' only"
	default:
		return fmt.Sprintf("Validation failed for %s", err.Field())
	}
}

// Empty values pass; the required tag handles them.
func validateObjectID(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return primitive.IsValidObjectID(value)
}

func validatePaymentMethod(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.PaymentMethod(value).IsValid()
}

func validateBookingStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.BookingStatus(value).IsValid()
}

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

func validateUsername(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return usernamePattern.MatchString(value)
}
