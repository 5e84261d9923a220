package config

import (
	"context"
	"os"

	"github.com/fwojciec/relay"
)

// Interface compliance check.
var _ relay.SecretStore = (*Properties)(nil)

// Properties is a [relay.SecretStore] reading environment variables, then the
// config file's properties section.
type Properties struct {
	Values map[string]string

	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// NewProperties creates Properties over the file values of cfg.
func NewProperties(cfg Config) *Properties {
	return &Properties{Values: cfg.Properties}
}

// Property implements [relay.SecretStore]. An environment variable set to the
// empty string hides the file value.
func (p *Properties) Property(_ context.Context, name string) (string, error) {
	lookup := p.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup(name); ok {
		return v, nil
	}
	return p.Values[name], nil
}
