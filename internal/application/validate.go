package application

import (
	"fmt"
	"strings"

	"github.com/filsalgado/simpleRGN/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("lineage", func(fl validator.FieldLevel) bool {
		return domain.LineageIndex(fl.Field().String()).Valid()
	})
	return v
}

func (s *RecordService) validateInput(in RecordInput, creating bool) error {
	if err := s.validate.Struct(in); err != nil {
		return invalidInput(err)
	}
	if creating && in.Event.Type == "" {
		return errors.Wrap(domain.ErrInvalidInput, "event type is required")
	}
	if !in.Subjects.Primary.named() {
		return errors.Wrap(domain.ErrInvalidInput, "primary subject name is required")
	}
	return nil
}

func invalidInput(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(domain.ErrInvalidInput, err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return errors.Wrap(domain.ErrInvalidInput, strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "RecordInput.")
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "lineage":
		return fmt.Sprintf("%s %q is not a lineage index", field, fe.Value())
	}
	return fmt.Sprintf("%s failed %s", field, fe.Tag())
}
