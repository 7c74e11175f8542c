package logging

import (
	"log/slog"
	"regexp"

	"github.com/m-mizutani/masq"
)

var (
	jwtValue    = regexp.MustCompile(`^eyJ[\w-]*\.eyJ[\w-]*\.[\w-]*$`)
	authzScheme = regexp.MustCompile(`(?i)^(bearer|basic)\s+\S+`)
)

// redactor masks credentials before a record reaches any handler. Struct
// fields tagged masq:"secret" are masked too. Quote text and session IDs are
// logged as-is.
func redactor(extra ...masq.Option) func(groups []string, a slog.Attr) slog.Attr {
	opts := []masq.Option{
		masq.WithFieldName("authorization"),
		masq.WithFieldName("Authorization"),
		masq.WithFieldName("cookie"),
		masq.WithFieldName("Cookie"),
		masq.WithFieldName("set_cookie"),
		masq.WithFieldName("password"),
		masq.WithFieldName("token"),
		masq.WithFieldName("api_key"),
		masq.WithFieldPrefix("secret"),
		masq.WithFieldPrefix("private"),
		masq.WithTag("secret"),
		masq.WithRegex(jwtValue),
		masq.WithRegex(authzScheme),
	}

	return masq.New(append(opts, extra...)...)
}
