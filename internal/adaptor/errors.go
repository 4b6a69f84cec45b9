package adaptor

import (
	"errors"
	"net/http"

	"krib-booking/internal/usecase"
	"krib-booking/pkg/utils"

	"go.uber.org/zap"
)

// handleServiceError maps the usecase error taxonomy to HTTP responses
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	var (
		validationErr *usecase.ValidationError
		conflictErr   *usecase.ConflictError
		notFoundErr   *usecase.NotFoundError
		authErr       *usecase.AuthorizationError
		stateErr      *usecase.InvalidStateError
		externalErr   *usecase.ExternalServiceError
	)

	switch {
	case errors.As(err, &validationErr):
		log.Warn(operation+" validation failed", zap.Error(err), zap.String("operation", operation))
		var fields any
		if len(validationErr.Fields) > 0 {
			fields = validationErr.Fields
		}
		utils.ResponseBadRequest(w, validationErr.Reason, fields)

	case errors.As(err, &conflictErr):
		log.Warn(operation+" failed - conflict", zap.Error(err), zap.String("operation", operation))
		utils.ResponseConflict(w, conflictErr.Message)

	case errors.As(err, &notFoundErr):
		log.Warn(operation+" failed - not found", zap.Error(err), zap.String("operation", operation))
		utils.ResponseNotFound(w, notFoundErr.Error())

	case errors.As(err, &authErr):
		log.Warn(operation+" failed - forbidden", zap.Error(err), zap.String("operation", operation))
		utils.ResponseForbidden(w, authErr.Message)

	case errors.As(err, &stateErr):
		log.Warn(operation+" failed - invalid state", zap.Error(err), zap.String("operation", operation))
		utils.ResponseUnprocessable(w, stateErr.Error())

	case errors.As(err, &externalErr):
		log.Error(operation+" failed - external service", zap.Error(err), zap.String("service", externalErr.Service))
		utils.ResponseBadGateway(w, externalErr.Message)

	default:
		log.Error("Failed to "+operation, zap.Error(err), zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
