package driver

import (
	"context"
	"net/http"

	nethttpmiddleware "github.com/oapi-codegen/nethttp-middleware"
)

// NewRequestValidator returns middleware that rejects requests not described
// by the API document. It expects paths relative to the /api prefix.
func NewRequestValidator(ctx context.Context) (func(http.Handler) http.Handler, error) {
	doc, err := LoadOpenAPI(ctx)
	if err != nil {
		return nil, err
	}
	// match on paths only, the mux strips /api before this runs
	doc.Servers = nil

	return nethttpmiddleware.OapiRequestValidatorWithOptions(doc, &nethttpmiddleware.Options{
		ErrorHandler: func(w http.ResponseWriter, message string, statusCode int) {
			writeError(w, statusCode, message)
		},
	}), nil
}
