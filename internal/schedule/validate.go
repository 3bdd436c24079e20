package schedule

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"ResearchAssistant/internal/domain"
)

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	must := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register %s validation: %v", tag, err))
		}
	}
	must("clock", func(fl validator.FieldLevel) bool {
		return clockPattern.MatchString(fl.Field().String())
	})
	must("dayset", func(fl validator.FieldLevel) bool {
		_, err := ParseDays(fl.Field().String())
		return err == nil
	})
	must("agent", func(fl validator.FieldLevel) bool {
		return domain.Agent(fl.Field().String()).Valid()
	})
	must("schedule_kind", func(fl validator.FieldLevel) bool {
		return domain.ScheduleKind(fl.Field().String()).Valid()
	})
	return v
}

// CreateRequest describes a new schedule. Empty Days means every day, empty
// Agent means max and empty Kind means daily.
type CreateRequest struct {
	Name        string              `validate:"required"`
	Description string
	Kind        domain.ScheduleKind `validate:"schedule_kind"`
	Time        string              `validate:"clock"`
	Days        string              `validate:"dayset"`
	Agent       domain.Agent        `validate:"agent"`
	Prompt      string              `validate:"required"`
	Enabled     *bool
}

func (r CreateRequest) normalized() CreateRequest {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
	r.Time = strings.TrimSpace(r.Time)
	r.Prompt = strings.TrimSpace(r.Prompt)
	r.Agent = domain.Agent(strings.ToLower(strings.TrimSpace(string(r.Agent))))
	if r.Agent == "" {
		r.Agent = domain.AgentMax
	}
	if r.Kind == "" {
		r.Kind = domain.KindDaily
	}
	if strings.TrimSpace(r.Days) == "" {
		r.Days = domain.AllDays
	}
	return r
}

// describe turns the first validator failure into the user-facing message.
func describe(err error, fields map[string]string) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	return fieldError(fe.Field(), fields[fe.Field()])
}

func fieldError(field, value string) error {
	switch field {
	case "Name":
		return domain.Validationf("Schedule name cannot be empty.")
	case "Prompt":
		return domain.Validationf("Prompt cannot be empty.")
	case "Time":
		return domain.Validationf("Invalid time format '%s'. Use HH:MM (24-hour).", value)
	case "Days":
		if _, err := ParseDays(value); err != nil {
			return err
		}
		return domain.Validationf("Invalid days '%s'.", value)
	case "Agent":
		return domain.Validationf("Unknown agent '%s'. Valid: %s (use 'all' for team-wide)", value, agentList())
	case "Kind":
		return domain.Validationf("Invalid type '%s'. Valid: %s", value, kindList())
	default:
		return domain.Validationf("Invalid %s '%s'.", strings.ToLower(field), value)
	}
}

func checkField(field, value, tag string) error {
	if err := validate.Var(value, tag); err != nil {
		return fieldError(field, value)
	}
	return nil
}

func agentList() string {
	names := make([]string, len(domain.Agents))
	for i, a := range domain.Agents {
		names[i] = string(a)
	}
	return strings.Join(names, ", ")
}

func kindList() string {
	names := make([]string, len(domain.ScheduleKinds))
	for i, k := range domain.ScheduleKinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}
