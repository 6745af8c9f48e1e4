package config

import (
	"fmt"
	"strconv"
	"strings"
)

// parseProfiles extracts profile blocks from the merged key map. Profile keys
// use the form profile.<name>.<field> and profile.<name>.server.<product>.<field>;
// profile.active selects the overlay and is not itself a profile.
func parseProfiles(m map[string]string) map[string]*Profile {
	profiles := make(map[string]*Profile)

	get := func(name string) *Profile {
		p, ok := profiles[name]
		if !ok {
			p = &Profile{Name: name, ServerOverrides: make(map[Product]ServerOverride)}
			profiles[name] = p
		}
		return p
	}

	for key, value := range m {
		if !strings.HasPrefix(key, "profile.") || key == "profile.active" {
			continue
		}
		rest := strings.TrimPrefix(key, "profile.")
		parts := strings.SplitN(rest, ".", 2)
		if len(parts) != 2 || parts[0] == "" {
			continue
		}
		name, field := parts[0], parts[1]
		p := get(name)

		v := value
		switch field {
		case "theme":
			p.Theme = &v
		case "logLevel":
			p.LogLevel = &v
		case "maxRetries":
			if n, ok := parseIntStrict(v); ok {
				p.MaxRetries = &n
			}
		case "timeoutSeconds":
			if n, ok := parseIntStrict(v); ok {
				p.TimeoutSeconds = &n
			}
		case "location":
			p.Location = &v
		case "browser":
			p.Browser = &v
		default:
			if strings.HasPrefix(field, "server.") {
				parseServerOverride(p, strings.TrimPrefix(field, "server."), v)
			}
		}
	}
	return profiles
}

func parseServerOverride(p *Profile, field, value string) {
	parts := strings.SplitN(field, ".", 2)
	if len(parts) != 2 {
		return
	}
	product := Product(parts[0])
	ov := p.ServerOverrides[product]
	v := value
	switch parts[1] {
	case "url":
		ov.URL = &v
	case "enabled":
		b := ParseBool(v)
		ov.Enabled = &b
	case "command":
		ov.Command = &v
	}
	p.ServerOverrides[product] = ov
}

// applyProfile overlays only the fields the profile specifies. Server
// overrides may modify declared products only; an override naming an
// undeclared product is a validation failure.
func applyProfile(cfg *RuntimeConfig, p *Profile) error {
	if p.Theme != nil {
		cfg.Preferences.Theme = *p.Theme
	}
	if p.LogLevel != nil {
		cfg.Preferences.LogLevel = *p.LogLevel
	}
	if p.MaxRetries != nil {
		cfg.Preferences.MaxRetries = *p.MaxRetries
	}
	if p.TimeoutSeconds != nil {
		cfg.Preferences.TimeoutSeconds = *p.TimeoutSeconds
	}
	if p.Location != nil {
		cfg.Location = *p.Location
	}
	if p.Browser != nil {
		cfg.Browser = *p.Browser
	}

	for product, ov := range p.ServerOverrides {
		pc, ok := cfg.products[product]
		if !ok {
			return &ValidationError{Problems: []string{
				fmt.Sprintf("profile %q overrides undeclared server %q", p.Name, product),
			}}
		}
		if ov.URL != nil {
			pc.URL = NormalizeURL(*ov.URL)
		}
		if ov.Enabled != nil {
			pc.Enabled = *ov.Enabled
		}
		if ov.Command != nil {
			pc.Command = *ov.Command
		}
		cfg.products[product] = pc
	}
	return nil
}

func parseIntStrict(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return n, true
}
