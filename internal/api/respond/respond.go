// Package respond writes the JSON envelopes returned by the HTTP API.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/wb-go/wbf/zlog"
)

type envelope struct {
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

func JSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to encode response")
	}
}

func OK(w http.ResponseWriter, result any) {
	JSON(w, http.StatusOK, envelope{Result: result})
}

func Created(w http.ResponseWriter, result any) {
	JSON(w, http.StatusCreated, envelope{Result: result})
}

func Fail(w http.ResponseWriter, status int, err error) {
	JSON(w, status, envelope{Error: err.Error()})
}
