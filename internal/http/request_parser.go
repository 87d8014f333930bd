package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// decodeJSON reads a JSON body into target. Errors raised by the domain types
// while decoding keep their identity so they map to the right status.
func decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(target); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			return fmt.Errorf("%w: malformed JSON body: %v", errBadRequest, err)
		}
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return nil
}

// decodeAndValidate decodes a request DTO and checks its validate tags.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, target any) (map[string]string, error) {
	if err := decodeJSON(w, r, target); err != nil {
		return nil, err
	}
	return validateStruct(target), nil
}

func validateStruct(v any) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fmt.Sprintf("failed on %q", fe.Tag())
	}
	return fields
}

func validationProblem(w http.ResponseWriter, r *http.Request, fields map[string]string) {
	writeProblem(w, r, ProblemDetail{
		Title:  "Validation Failed",
		Status: http.StatusUnprocessableEntity,
		Errors: fields,
	})
}

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int `validate:"min=1970,max=9999"`
	Month int `validate:"min=1,max=12"`
}

// ParseMonthParams extracts year and month from query parameters, using the
// current month as default.
func ParseMonthParams(query url.Values, now time.Time) (MonthParams, error) {
	params := MonthParams{Year: now.Year(), Month: int(now.Month())}
	var err error
	if params.Year, err = intParam(query, "year", params.Year); err != nil {
		return params, err
	}
	if params.Month, err = intParam(query, "month", params.Month); err != nil {
		return params, err
	}
	if fields := validateStruct(params); fields != nil {
		return params, fmt.Errorf("%w: year or month out of range", errBadRequest)
	}
	return params, nil
}

func intParam(query url.Values, key string, def int) (int, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", errBadRequest, key)
	}
	return n, nil
}
