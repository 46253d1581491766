package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateCreateRequest checks the fields of a creation body. Step names must
// be unique within the workflow.
func ValidateCreateRequest(req CreateRequest) error {
	if err := validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &ValidationError{
				Field:  jsonPath(fe.Namespace()),
				Reason: fmt.Sprintf("failed %q check", fe.Tag()),
			}
		}
		return &ValidationError{Field: "body", Reason: err.Error()}
	}

	seen := make(map[string]bool, len(req.Steps))
	for _, s := range req.Steps {
		if seen[s.Name] {
			return &ValidationError{Field: "steps", Value: s.Name, Reason: "duplicate step name"}
		}
		seen[s.Name] = true
	}
	return nil
}

// jsonPath turns "CreateRequest.Steps[0].Queue" into "steps[0].queue".
func jsonPath(ns string) string {
	_, rest, found := strings.Cut(ns, ".")
	if !found {
		rest = ns
	}
	parts := strings.Split(rest, ".")
	for i, p := range parts {
		parts[i] = snake(p)
	}
	return strings.Join(parts, ".")
}

func snake(s string) string {
	switch {
	case strings.HasPrefix(s, "AppID"):
		return "app_id" + strings.TrimPrefix(s, "AppID")
	}
	return strings.ToLower(s)
}
