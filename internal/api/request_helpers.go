package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/api/shared"
	"github.com/phrazzld/taskflow-api/internal/domain"
)

// getPathTaskID extracts and parses the task id path parameter. A malformed
// value yields domain.ErrInvalidID.
func getPathTaskID(r *http.Request) (uuid.UUID, error) {
	return domain.ParseTaskID(chi.URLParam(r, "id"))
}

// decodeBody decodes a JSON body, mapping every decoding failure to
// ErrInvalidRequest except an oversized body, which keeps its own error.
func decodeBody(r *http.Request, v any) error {
	err := shared.DecodeJSON(r, v)
	if err == nil {
		return nil
	}
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
}

// validateRequest runs struct validation and converts failures into a
// domain.ValidationError.
func validateRequest(v any) error {
	err := shared.ValidateRequest(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &domain.ValidationError{}
	for _, fe := range verrs {
		out.Add(fe.Field(), validationMessage(fe))
	}
	return out
}

func validationMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "uuid":
		return fmt.Sprintf("Invalid %s", field)
	case "max":
		return fmt.Sprintf("%s is too long", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// parseListParams reads the list query string. Non-numeric page and limit
// values fall back to their defaults; clamping happens in domain.NewTaskQuery.
func parseListParams(r *http.Request) ListTasksParams {
	q := r.URL.Query()
	return ListTasksParams{
		Filter:  q.Get("filter"),
		OwnerID: q.Get("ownerId"),
		Page:    atoiOrZero(q.Get("page")),
		Limit:   atoiOrZero(q.Get("limit")),
	}
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
