package work

import (
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/csbssync/portal/core"
)

var (
	workStateTag  = "workstate"
	workStateText = "state must be one of: " + strings.Join(States, ", ")
)

// InitValidators registers the validators of this package.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(workStateTag, workStateValidation)
	core.RegisterCustomTranslation(validate, translator, workStateTag, workStateText)
}

func workStateValidation(fl validator.FieldLevel) bool {
	return IsValidState(fl.Field().String())
}
