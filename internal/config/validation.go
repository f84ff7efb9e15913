package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their YAML names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterStructValidation(validateTargetAuth, TargetConfig{})
	return v
}

// validateTargetAuth requires exactly one authentication method per target.
func validateTargetAuth(sl validator.StructLevel) {
	t := sl.Current().Interface().(TargetConfig)

	methods := 0
	if t.Password != "" {
		methods++
	}
	if t.KeyFile != "" {
		methods++
	}
	if t.Agent {
		methods++
	}
	if methods != 1 {
		sl.ReportError(t.Agent, "auth", "Auth", "one_auth_method", "")
	}
	if t.Passphrase != "" && t.KeyFile == "" {
		sl.ReportError(t.Passphrase, "passphrase", "Passphrase", "requires_key_file", "")
	}
}

// ValidationError describes an invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (ve ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
}

// ValidationErrors lists every invalid field found in a Config.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (ve ValidationErrors) Error() string {
	messages := make([]string, 0, len(ve))
	for _, e := range ve {
		messages = append(messages, e.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// Validate checks cfg and returns ValidationErrors describing every problem,
// or nil when the configuration is usable.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	err := validate.Struct(cfg)
	if err == nil {
		return validateTargetNames(cfg)
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating config: %w", err)
	}

	result := make(ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		result = append(result, ValidationError{
			Field:   trimNamespace(fe.Namespace()),
			Message: describe(fe),
		})
	}
	return result
}

func validateTargetNames(cfg *Config) error {
	seen := make(map[string]bool, len(cfg.Targets))
	var result ValidationErrors
	for i, t := range cfg.Targets {
		if t.Name == "local" && cfg.Local {
			result = append(result, ValidationError{
				Field:   fmt.Sprintf("targets[%d].name", i),
				Message: `"local" is reserved for the local machine`,
			})
		}
		if seen[t.Name] {
			result = append(result, ValidationError{
				Field:   fmt.Sprintf("targets[%d].name", i),
				Message: fmt.Sprintf("duplicate target name %q", t.Name),
			})
		}
		seen[t.Name] = true
	}
	if !cfg.Local && len(cfg.Targets) == 0 {
		result = append(result, ValidationError{Field: "targets", Message: "nothing to monitor: local is false and no targets are configured"})
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

// trimNamespace drops the leading struct name ("Config.").
func trimNamespace(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fmt.Sprint(fe.Value()))
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "hostname_port":
		return fmt.Sprintf("must be host:port, got %q", fmt.Sprint(fe.Value()))
	case "hostname|ip":
		return fmt.Sprintf("must be a hostname or IP address, got %q", fmt.Sprint(fe.Value()))
	case "one_auth_method":
		return "exactly one of password, key_file or agent must be set"
	case "requires_key_file":
		return "passphrase is only valid with key_file"
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
