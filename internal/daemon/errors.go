package daemon

import (
	"errors"
	"net/http"

	"pricingboard/internal/access"
	"pricingboard/internal/archive"
	"pricingboard/internal/attachments"
	"pricingboard/internal/blobstore"
	"pricingboard/internal/board"
	"pricingboard/internal/identity"
	"pricingboard/internal/pipeline"
)

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, identity.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, access.ErrPermissionDenied),
		errors.Is(err, identity.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, board.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, pipeline.ErrBusy),
		errors.Is(err, pipeline.ErrConflict),
		errors.Is(err, archive.ErrNotDone),
		errors.Is(err, archive.ErrNotArchived):
		return http.StatusConflict
	case errors.Is(err, blobstore.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, attachments.ErrUploadFailed),
		errors.Is(err, attachments.ErrReleaseFailed):
		return http.StatusBadGateway
	case errors.Is(err, pipeline.ErrNoOpTransition),
		errors.Is(err, pipeline.ErrUnknownStage),
		errors.Is(err, pipeline.ErrInvalidTask),
		errors.Is(err, pipeline.ErrConfirmationRequired),
		errors.Is(err, attachments.ErrRequired),
		errors.Is(err, attachments.ErrInvalidEdit),
		errors.Is(err, attachments.ErrLinkNotAllowed),
		errors.Is(err, attachments.ErrUnknownAttachment),
		errors.Is(err, blobstore.ErrInvalidLocation),
		errors.Is(err, identity.ErrInvalidRole),
		errors.Is(err, identity.ErrSelfRemoval),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

var errBadRequest = errors.New("bad request")
