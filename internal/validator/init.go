package validator

import (
	"ctchen222/tictactoe-solo/internal/game"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// "cell" accepts a board index.
	if err := validate.RegisterValidation("cell", func(fl validator.FieldLevel) bool {
		return game.InRange(int(fl.Field().Int()))
	}); err != nil {
		panic(err)
	}
}

func GetValidator() *validator.Validate {
	return validate
}
