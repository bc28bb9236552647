package handlers

import (
	goerrors "errors"
	"fmt"

	"videosplit/internal/api/errors"
	"videosplit/internal/app/encoder"
	"videosplit/internal/app/quota"
	"videosplit/internal/app/repository"
	"videosplit/internal/app/splitter"
)

// mapCoreError translates core-layer errors into API errors. Anything not
// recognized becomes an opaque internal error.
func mapCoreError(err error) *errors.APIError {
	if apiErr, ok := err.(*errors.APIError); ok {
		return apiErr
	}

	var validationErr *splitter.ValidationError
	if goerrors.As(err, &validationErr) {
		return errors.NewBadRequestError(validationErr.Msg)
	}

	var rejection *quota.Rejection
	if goerrors.As(err, &rejection) {
		return errors.NewQuotaExceededError(
			"Monthly processing limit exceeded",
			map[string]string{
				"plan_tier":         string(rejection.PlanTier),
				"minutes_used":      fmt.Sprintf("%.1f", rejection.MinutesUsed),
				"minutes_limit":     fmt.Sprintf("%d", rejection.MinutesLimit),
				"minutes_requested": fmt.Sprintf("%.1f", rejection.MinutesRequested),
			},
		)
	}

	var upstream *encoder.UpstreamError
	if goerrors.As(err, &upstream) {
		return errors.NewUpstreamFailureError("Video processing failed")
	}

	switch {
	case goerrors.Is(err, repository.ErrNotFound):
		return errors.NewNotFoundError("Job")
	case goerrors.Is(err, splitter.ErrAlreadyProcessed):
		return errors.NewConflictError("Job has already been processed")
	case goerrors.Is(err, splitter.ErrSourceMissing):
		return errors.NewNotFoundError("Uploaded file")
	case goerrors.Is(err, splitter.ErrStorageRequired):
		return errors.NewServiceUnavailableError("Direct uploads are not enabled on this deployment")
	}

	return errors.NewInternalError("Internal server error")
}
