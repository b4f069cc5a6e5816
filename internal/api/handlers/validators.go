package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/terrastories/server/internal/api/respond"
	"github.com/terrastories/server/internal/domain/ids"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// decodeJSON parses and validates a request body. On failure it writes the
// 400 response itself and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		respond.Validation(w, r, err, map[string]string{"body": "malformed JSON"})
		return false
	}
	if err := validate.Struct(dst); err != nil {
		respond.Validation(w, r, err, validationDetails(err))
		return false
	}
	return true
}

func validationDetails(err error) map[string]string {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return nil
	}
	details := make(map[string]string, len(fieldErrors))
	for _, fe := range fieldErrors {
		details[strings.ToLower(fe.Field())] = "failed " + fe.Tag() + " validation"
	}
	return details
}

// uuidParam parses a UUID path parameter, writing a 400 on failure.
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := ids.ParseUUID(r.PathValue(name))
	if err != nil {
		respond.Validation(w, r, err, map[string]string{name: "must be a UUID"})
		return uuid.UUID{}, false
	}
	return id, true
}

// ulidParam validates a ULID path parameter, writing a 400 on failure.
func ulidParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	value := strings.TrimSpace(r.PathValue(name))
	if err := ids.ValidateULID(value); err != nil {
		respond.Validation(w, r, err, map[string]string{name: "must be a ULID"})
		return "", false
	}
	return strings.ToUpper(value), true
}

func queryInt(r *http.Request, name string, fallback int) int {
	value := r.URL.Query().Get(name)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}
