package validation

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	accountModels "github.com/lloydmeta/banques/internal/api/models/account"
	transferModels "github.com/lloydmeta/banques/internal/api/models/transfer"
)

func SetUpValidators() {
	log.Info().Msg("Setting up custom validators")
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		err := v.RegisterValidation(AccountCommandTypeValidatorTag, AccountCommandTypeValidator)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to set up account command type validator")
		}
		err = v.RegisterValidation(TransferCommandTypeValidatorTag, TransferCommandTypeValidator)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to set up transfer command type validator")
		}
	}
}

var AccountCommandTypeValidatorTag = "accountCommandType"
var AccountCommandTypeValidator validator.Func = func(fl validator.FieldLevel) bool {
	commandType, ok := fl.Field().Interface().(accountModels.CommandType)
	if ok {
		return commandType.Known()
	}
	return true
}

var TransferCommandTypeValidatorTag = "transferCommandType"
var TransferCommandTypeValidator validator.Func = func(fl validator.FieldLevel) bool {
	commandType, ok := fl.Field().Interface().(transferModels.CommandType)
	if ok {
		return commandType.Known()
	}
	return true
}
