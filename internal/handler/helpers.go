package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/hollyoak/housepoints/internal/points"
)

func parseIDParam(r *http.Request) (int64, error) {
	idStr := r.PathValue("id")
	return strconv.ParseInt(idStr, 10, 64)
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writePointsError maps domain errors from the points and store layers onto
// HTTP statuses. It returns false if err was nil and nothing was written.
func writePointsError(w http.ResponseWriter, err error) bool {
	if err == nil {
		return false
	}

	if denied, ok := points.AsDenied(err); ok {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":  denied.Error(),
			"reason": string(denied.Reason),
		})
		return true
	}

	switch {
	case errors.Is(err, points.ErrInsufficientBalance):
		writeError(w, http.StatusConflict, "insufficient balance")
	case errors.Is(err, points.ErrInvalidState):
		writeError(w, http.StatusConflict, "redemption request is not pending")
	case errors.Is(err, points.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, "amount must be non-zero")
	default:
		return false
	}
	return true
}
