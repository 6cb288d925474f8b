package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Compile Errors (E100-E119)
	// ============================================

	"E103": {
		Category: CategoryCompile,
		Message:  "Invalid route file",
	},
	"E104": {
		Category: CategoryCompile,
		Message:  "Duplicate route pattern",
	},
	"E105": {
		Category: CategoryCompile,
		Message:  "Ambiguous handler export",
	},
	"E106": {
		Category: CategoryCompile,
		Message:  "Catch-all segment not in final position",
	},
	"E107": {
		Category: CategoryCompile,
		Message:  "Invalid path segment",
	},
	"E108": {
		Category: CategoryCompile,
		Message:  "Repeated route parameter",
	},
	"E109": {
		Category: CategoryCompile,
		Message:  "Routes conflict in the router dialect",
	},

	// ============================================
	// Configuration Errors (E120-E129)
	// ============================================

	"E120": {
		Category: CategoryConfig,
		Message:  "Routes directory not found",
	},
	"E121": {
		Category: CategoryConfig,
		Message:  "Invalid exclude pattern",
	},
	"E122": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
	},
	"E123": {
		Category: CategoryConfig,
		Message:  "Malformed configuration file",
	},

	// ============================================
	// Emission Errors (E130-E139)
	// ============================================

	"E130": {
		Category: CategoryEmit,
		Message:  "Cannot write route artifact",
	},
	"E131": {
		Category: CategoryEmit,
		Message:  "Cannot publish route artifact",
	},
	"E132": {
		Category: CategoryEmit,
		Message:  "Route package is not importable",
	},

	// ============================================
	// Runtime Registration Errors (E140-E149)
	// ============================================

	"E140": {
		Category: CategoryRuntime,
		Message:  "Route module failed to load",
	},
	"E141": {
		Category: CategoryRuntime,
		Message:  "Route module has no GET or POST handler",
	},
	"E142": {
		Category: CategoryRuntime,
		Message:  "Host router rejected route",
	},

	// ============================================
	// CLI Errors (E150-E159)
	// ============================================

	"E150": {
		Category: CategoryCLI,
		Message:  "Route artifact is stale",
		Detail:   "The artifact on disk does not match a fresh compilation.",
	},
	"E151": {
		Category: CategoryCLI,
		Message:  "No route matches",
	},
	"E152": {
		Category: CategoryCLI,
		Message:  "Route file already exists",
	},
}

// GetTemplate returns the template registered for code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// GetAllCodes returns every registered code in ascending order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
