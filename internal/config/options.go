package config

import (
	"fmt"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Options holds the environment contract the suite reads. Every field is
// exported to the suite before any module runs and never removed again.
type Options struct {
	Database string `envconfig:"TSTDB" default:"demo"`
	Hostname string `envconfig:"TSTHOSTNAME" default:"localhost"`
	Username string `envconfig:"TSTUSERNAME" default:"monetdb"`
	Password string `envconfig:"TSTPASSWORD" default:"monetdb"`
	Debug    string `envconfig:"TSTDEBUG" default:"no"`
}

// DefaultOptions returns the baked-in values a bare run exports.
func DefaultOptions() Options {
	return Options{
		Database: DefaultDatabase,
		Hostname: DefaultHostname,
		Username: DefaultUsername,
		Password: DefaultPassword,
		Debug:    DefaultDebug,
	}
}

// Validate checks that every exported value is present and non-empty.
func (o Options) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.Database, validation.Required),
		validation.Field(&o.Hostname, validation.Required),
		validation.Field(&o.Username, validation.Required),
		validation.Field(&o.Password, validation.Required),
		validation.Field(&o.Debug, validation.Required),
	)
}

// Pairs returns the exported variables as ordered key/value pairs.
func (o Options) Pairs() [][2]string {
	return [][2]string{
		{EnvDatabase, o.Database},
		{EnvHostname, o.Hostname},
		{EnvUsername, o.Username},
		{EnvPassword, o.Password},
		{EnvDebug, o.Debug},
	}
}

// Environ renders the exported variables in KEY=value form, in export order.
func (o Options) Environ() []string {
	pairs := o.Pairs()
	env := make([]string, 0, len(pairs))
	for _, p := range pairs {
		env = append(env, p[0]+"="+p[1])
	}
	return env
}

// Apply exports every variable into the process environment. Existing
// unrelated variables are left alone, applying twice is a no-op.
func (o Options) Apply() error {
	if err := o.Validate(); err != nil {
		return fmt.Errorf("refusing to export incomplete environment: %w", err)
	}
	for _, p := range o.Pairs() {
		if err := os.Setenv(p[0], p[1]); err != nil {
			return fmt.Errorf("exporting %s: %w", p[0], err)
		}
	}
	return nil
}

// DebugEnabled reports whether the debug switch is set to an affirmative value.
func (o Options) DebugEnabled() bool {
	switch strings.ToLower(strings.TrimSpace(o.Debug)) {
	case "yes", "y", "true", "on", "1":
		return true
	}
	return false
}
