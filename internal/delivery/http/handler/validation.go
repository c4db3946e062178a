package handler

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/gdugdh24/mpit2026-matching/internal/domain"
)

// RegisterValidators adds the domain tags used in request bindings to gin's
// validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	if err := v.RegisterValidation("decision_kind", func(fl validator.FieldLevel) bool {
		return domain.DecisionKind(fl.Field().String()).Valid()
	}); err != nil {
		return fmt.Errorf("failed to register decision_kind: %w", err)
	}
	if err := v.RegisterValidation("status_category", func(fl validator.FieldLevel) bool {
		return domain.StatusCategory(fl.Field().String()).Valid()
	}); err != nil {
		return fmt.Errorf("failed to register status_category: %w", err)
	}
	return nil
}
