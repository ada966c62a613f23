package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/markmdev/networking-copilot/internal/extract"
	"github.com/markmdev/networking-copilot/internal/pipeline"
)

type errorBody struct {
	Kind    pipeline.Kind `json:"kind"`
	Stage   string        `json:"stage,omitempty"`
	Message string        `json:"message"`
}

func httpError(w http.ResponseWriter, code int, kind pipeline.Kind, stage string, format string, args ...any) {
	writeJSON(w, code, map[string]errorBody{
		"error": {Kind: kind, Stage: stage, Message: fmt.Sprintf(format, args...)},
	})
}

// writeError renders a pipeline error with the status for its kind.
func writeError(w http.ResponseWriter, err error) {
	kind := pipeline.KindOf(err)
	stage, msg := "", err.Error()
	var pe *pipeline.Error
	if errors.As(err, &pe) {
		stage, msg = pe.Stage, pe.Err.Error()
	}
	httpError(w, statusFor(err), kind, stage, "%s", msg)
}

func statusFor(err error) int {
	if errors.Is(err, extract.ErrUnsupportedMedia) {
		return http.StatusUnsupportedMediaType
	}
	switch pipeline.KindOf(err) {
	case pipeline.KindValidation:
		return http.StatusUnprocessableEntity
	case pipeline.KindNotFound:
		return http.StatusNotFound
	case pipeline.KindDependency, pipeline.KindData:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func badRequest(w http.ResponseWriter, format string, args ...any) {
	httpError(w, http.StatusBadRequest, pipeline.KindValidation, pipeline.StageInput, format, args...)
}
