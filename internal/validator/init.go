package validator

import (
	"ctchen222/tictactoe-solo/internal/bot"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	// Initialize validation
	validate = validator.New(validator.WithRequiredStructEnabled())
	if err := RegisterCustom(validate); err != nil {
		panic(err)
	}
}

func GetValidator() *validator.Validate {
	return validate
}

// RegisterCustom adds the project's custom tags to v.
// Gin keeps its own validator instance, so the server registers there too.
func RegisterCustom(v *validator.Validate) error {
	if err := v.RegisterValidation("difficulty", validateDifficulty); err != nil {
		return fmt.Errorf("register difficulty validation: %w", err)
	}
	return nil
}

func validateDifficulty(fl validator.FieldLevel) bool {
	_, err := bot.ParseDifficulty(fl.Field().String())
	return err == nil
}
