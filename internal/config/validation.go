package config

import (
	"strings"
)

// ValidationError carries every semantic problem found in a structurally
// loaded configuration. It is fatal at startup unless list-tools mode is on.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

// Validate checks the semantic invariants of a built RuntimeConfig.
func Validate(cfg *RuntimeConfig) error {
	var problems []string

	for _, p := range Products {
		pc := cfg.ProductConfig(p)
		if !pc.Enabled {
			continue
		}
		switch pc.Kind {
		case ServerKindStdio:
			if strings.TrimSpace(pc.Command) == "" {
				problems = append(problems, string(p)+": stdio server has an empty command")
			}
		case ServerKindHTTP:
			if pc.URL == "" {
				problems = append(problems, string(p)+": enabled server has an empty URL")
			}
		}
	}

	if !cfg.AnyLive() && !cfg.ListToolsOnly {
		problems = append(problems, "no product is live and list-tools mode is off")
	}

	if cfg.AnyLive() {
		if cfg.Credentials.Secret == "" {
			problems = append(problems, "credentials are missing for live products")
		}
		if cfg.EffectiveAuthType() == AuthAPIToken && cfg.Credentials.Email == "" {
			problems = append(problems, "API token auth requires an email")
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
