package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/Dosada05/prompt-battle/logger"
	"github.com/Dosada05/prompt-battle/middleware"
	"github.com/Dosada05/prompt-battle/services"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type jsonResponse map[string]interface{}

const maxJSONBodyBytes = 1_048_576 // 1MB

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxJSONBodyBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxJSONBodyBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err) // ошибка программиста: передан не указатель
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.Marshal(data)
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func errorResponse(w http.ResponseWriter, r *http.Request, log *logger.Logger, status int, message interface{}) {
	if err := writeJSON(w, status, jsonResponse{"error": message}, nil); err != nil {
		log.Error("failed to write error response", "path", r.URL.Path, "error", err)
	}
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	log.Error("internal server error", "method", r.Method, "path", r.URL.Path, "error", err)
	errorResponse(w, r, log, http.StatusInternalServerError, genericMessage(http.StatusInternalServerError))
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	errorResponse(w, r, log, http.StatusBadRequest, err.Error())
}

func unauthorizedResponse(w http.ResponseWriter, r *http.Request, log *logger.Logger, message string) {
	errorResponse(w, r, log, http.StatusUnauthorized, message)
}

// statusForKind is the single place service error kinds become HTTP statuses.
func statusForKind(kind services.Kind) int {
	switch kind {
	case services.KindValidation:
		return http.StatusBadRequest
	case services.KindUnauthorized:
		return http.StatusUnauthorized
	case services.KindForbidden:
		return http.StatusForbidden
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindConflict:
		return http.StatusConflict
	case services.KindUpstream, services.KindParse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// mapServiceErrorToHTTP преобразует ошибки сервисного слоя в HTTP-ответы.
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	kind := services.KindOf(err)
	status := statusForKind(kind)
	switch {
	case status >= http.StatusInternalServerError:
		log.Error("request failed", "method", r.Method, "path", r.URL.Path, "kind", kind, "error", err)
	case status == http.StatusBadGateway:
		log.Warn("upstream request failed", "method", r.Method, "path", r.URL.Path, "kind", kind, "error", err)
	}
	msg := services.PublicMessage(err)
	if msg == "" || status == http.StatusInternalServerError {
		msg = genericMessage(status)
	}
	errorResponse(w, r, log, status, msg)
}

func genericMessage(status int) string {
	if status == http.StatusInternalServerError {
		return "the server encountered a problem and could not process your request"
	}
	return strings.ToLower(http.StatusText(status))
}

func getIDFromURL(r *http.Request, paramName string) (uuid.UUID, error) {
	idStr := chi.URLParam(r, paramName)
	if idStr == "" {
		return uuid.Nil, fmt.Errorf("missing %s in URL path", paramName)
	}
	id, err := uuid.Parse(idStr)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("invalid %s format", paramName)
	}
	return id, nil
}

func currentUserID(w http.ResponseWriter, r *http.Request, log *logger.Logger) (uuid.UUID, bool) {
	id, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, log, "failed to identify current user")
		return uuid.Nil, false
	}
	return id, true
}

func readIntQuery(r *http.Request, key string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("query parameter %q must be a non-negative integer", key)
	}
	return v, nil
}

func readPagination(r *http.Request) (limit, offset int, err error) {
	if limit, err = readIntQuery(r, "limit", 20); err != nil {
		return 0, 0, err
	}
	if offset, err = readIntQuery(r, "offset", 0); err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}
