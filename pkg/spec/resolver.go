package spec

import (
	"regexp"
	"strings"
)

var resolveStringRegexp = regexp.MustCompile(`\$\{([^}]+)\}|\$([a-zA-Z_][a-zA-Z0-9_-]*)`)

// Resolver substitutes variables in pipeline path patterns.
// Variables are referenced as ${name} or $name; unknown variables are
// left in place so a typo shows up in the rendered path.
type Resolver struct {
	vars map[string]string
}

// NewResolver creates a resolver over the given variable map
func NewResolver(vars map[string]string) *Resolver {
	if vars == nil {
		vars = make(map[string]string)
	}
	return &Resolver{vars: vars}
}

// DeviceResolver creates a resolver with the standard per-device variables.
func DeviceResolver(deviceName string) *Resolver {
	return NewResolver(map[string]string{
		"device": deviceName,
	})
}

// SetVar sets a variable value
func (r *Resolver) SetVar(name, value string) {
	r.vars[name] = value
}

// ResolveString resolves variables in a string
func (r *Resolver) ResolveString(s string) string {
	return resolveStringRegexp.ReplaceAllStringFunc(s, func(match string) string {
		var name string
		if strings.HasPrefix(match, "${") {
			name = match[2 : len(match)-1]
		} else {
			name = match[1:]
		}

		if value, ok := r.vars[name]; ok {
			return value
		}
		return match
	})
}

// BackupPathFor renders the backup file path for a device, relative to the
// repository root.
func (p *PipelineSpecFile) BackupPathFor(deviceName string) string {
	return DeviceResolver(deviceName).ResolveString(p.BackupPath)
}

// IntendedPathFor renders the intended-config file path for a device,
// relative to the repository root.
func (p *PipelineSpecFile) IntendedPathFor(deviceName string) string {
	return DeviceResolver(deviceName).ResolveString(p.IntendedPath)
}
