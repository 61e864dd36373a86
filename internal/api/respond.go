// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"encoding/json"
	"net/http"

	"github.com/ManuGH/nuvctl/internal/log"
)

// errorBody is the JSON shape of every non-2xx response.
type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil && r != nil {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Warn().Err(err).Str(log.FieldEvent, "api.encode_failed").Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, code int, kind, detail string) {
	writeJSON(w, nil, code, errorBody{Error: kind, Detail: detail})
}

// errString renders err for a JSON body; nil becomes empty.
func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
