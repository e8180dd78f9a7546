package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/akawula/TaskMatic/internal/tasks"
	"github.com/akawula/TaskMatic/store"
)

const maxBodyBytes = 1 << 20

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{Error: message})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, tasks.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, store.ErrDuplicate),
		errors.Is(err, tasks.ErrTerminalStatus),
		errors.Is(err, tasks.ErrNoTransition),
		errors.Is(err, tasks.ErrStatusChanged):
		return http.StatusConflict
	case errors.Is(err, tasks.ErrUnknownStatus):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

type validation struct {
	validate   *validator.Validate
	translator ut.Translator
}

var (
	vOnce sync.Once
	vSvc  validation
)

func validatorSvc() validation {
	vOnce.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())
		// json tag names in messages
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if tag == "-" || tag == "" {
				return fld.Name
			}
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			return tag
		})
		_ = en_translations.RegisterDefaultTranslations(v, trans)

		vSvc = validation{validate: v, translator: trans}
	})
	return vSvc
}

// decodeJSON reads a single JSON object into T and validates it. The returned
// error message is safe to show to the client.
func decodeJSON[T any](r *http.Request) (T, error) {
	var dst T
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&dst); err != nil {
		return dst, errors.New("Invalid request body")
	}
	if dec.More() {
		return dst, errors.New("Invalid request body")
	}

	svc := validatorSvc()
	if err := svc.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return dst, errors.New(verrs[0].Translate(svc.translator))
		}
		return dst, err
	}
	return dst, nil
}

// pagination reads page and page_size with the 1..100 page size bound.
func pagination(r *http.Request) (page, pageSize int, err error) {
	page, pageSize = 1, 20
	if s := r.URL.Query().Get("page"); s != "" {
		page, err = strconv.Atoi(s)
		if err != nil || page < 1 {
			return 0, 0, errors.New("Invalid page number. Must be a positive integer.")
		}
	}
	if s := r.URL.Query().Get("page_size"); s != "" {
		pageSize, err = strconv.Atoi(s)
		if err != nil || pageSize < 1 || pageSize > 100 {
			return 0, 0, errors.New("Invalid page_size. Must be an integer between 1 and 100.")
		}
	}
	return page, pageSize, nil
}

// period reads start_date/end_date (RFC3339). Missing bounds are filled by
// def, which receives the parsed start or the zero time.
func period(r *http.Request, def func(start time.Time) (time.Time, time.Time)) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error
	if s := r.URL.Query().Get("start_date"); s != "" {
		if start, err = time.Parse(time.RFC3339, s); err != nil {
			return start, end, errors.New("Invalid start_date format. Use RFC3339 (e.g., 2025-04-28T00:00:00Z)")
		}
	}
	if s := r.URL.Query().Get("end_date"); s != "" {
		if end, err = time.Parse(time.RFC3339, s); err != nil {
			return start, end, errors.New("Invalid end_date format. Use RFC3339 (e.g., 2025-05-05T23:59:59Z)")
		}
	}
	defStart, defEnd := def(start)
	if start.IsZero() {
		start = defStart
	}
	if end.IsZero() {
		end = defEnd
	}
	if !start.Before(end) {
		return start, end, errors.New("start_date must be before end_date")
	}
	return start, end, nil
}
