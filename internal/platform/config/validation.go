package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalid wraps every validation failure returned by Validate.
var ErrInvalid = errors.New("invalid configuration")

// validate reports fields by their koanf key, so a message names the exact
// YAML path or APP_ variable to fix.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterStructValidation(retryRules, RetryConfig{})
	v.RegisterStructValidation(syncRules, Config{})

	return v
}

// retryRules keeps the backoff cap at or above its starting interval.
func retryRules(sl validator.StructLevel) {
	rc := sl.Current().Interface().(RetryConfig)
	if rc.MaxInterval < rc.InitialInterval {
		sl.ReportError(rc.MaxInterval, "max_interval", "MaxInterval", "gtefield", "initial_interval")
	}
}

// syncRules stops a periodic sync from firing before the previous cycle's
// HTTP call could have timed out.
func syncRules(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(Config)
	if cfg.Sync.Enabled && cfg.Sync.Interval > 0 && cfg.Sync.Interval < cfg.Client.Timeout {
		sl.ReportError(cfg.Sync.Interval, "sync.interval", "Interval", "gtefield", "client.timeout")
	}
}

// Validate checks the loaded configuration. The service refuses to start on
// any error; every failing key is listed.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	lines := make([]string, len(fieldErrs))
	for i, fe := range fieldErrs {
		lines[i] = describe(fe)
	}

	return fmt.Errorf("%w:\n  %s", ErrInvalid, strings.Join(lines, "\n  "))
}

func describe(fe validator.FieldError) string {
	key := keyPath(fe.Namespace())
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return key + " is required"
	case "required_if":
		return fmt.Sprintf("%s is required when %s", key, keyPath(param))
	case "required_unless":
		return fmt.Sprintf("%s is required unless %s", key, keyPath(param))
	case "min":
		return fmt.Sprintf("%s must be at least %s", key, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", key, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", key, param)
	case "url":
		return key + " must be a valid URL"
	case "gtefield":
		return fmt.Sprintf("%s must not be shorter than %s", key, param)
	default:
		return fmt.Sprintf("%s fails %q", key, fe.Tag())
	}
}

// keyPath turns a validator namespace such as "Config.client.retry.max_attempts"
// into the koanf key "client.retry.max_attempts". Struct field names that
// slip through (required_if params) are lowercased.
func keyPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok && strings.HasPrefix(ns, "Config.") {
		ns = rest
	}
	return strings.ToLower(ns)
}
