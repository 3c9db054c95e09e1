package errors

import "slices"

// docsBase is the prefix of every error documentation link.
const docsBase = "https://github.com/vango-dev/navroute/blob/main/docs/errors.md#"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// Manifest error codes.
const (
	ManifestNotFound    = "E100"
	ManifestParse       = "E101"
	ManifestFormat      = "E102"
	ManifestEntry       = "E103"
	ManifestConflict    = "E104"
	ManifestInvalidTree = "E105"
	ManifestFetch       = "E106"
)

// Config error codes.
const (
	ConfigNotFound = "E200"
	ConfigParse    = "E201"
	ConfigInvalid  = "E202"
)

// Resolution error codes.
const (
	RedirectLoop     = "E300"
	TooManyRedirects = "E301"
	ResolverFailed   = "E302"
	InvalidLocation  = "E303"
)

var registry = map[string]ErrorTemplate{
	// ============================================
	// Manifest Errors (E100-E199)
	// ============================================

	ManifestNotFound: {
		Category: CategoryManifest,
		Message:  "Route manifest not found",
		Detail:   "The route manifest file does not exist or cannot be read.",
		DocURL:   docsBase + "e100",
	},
	ManifestParse: {
		Category: CategoryManifest,
		Message:  "Invalid route manifest syntax",
		Detail:   "The route manifest could not be decoded. Unknown fields are rejected.",
		DocURL:   docsBase + "e101",
	},
	ManifestFormat: {
		Category: CategoryManifest,
		Message:  "Unsupported manifest format",
		Detail:   "Route manifests must be JSON (.json), YAML (.yaml, .yml) or TOML (.toml).",
		DocURL:   docsBase + "e102",
	},
	ManifestEntry: {
		Category: CategoryManifest,
		Message:  "Invalid route entry",
		Detail:   "Each route needs content, a layout or a redirect. Content and redirect are mutually exclusive, and redirects and guard targets must be absolute paths.",
		DocURL:   docsBase + "e103",
	},
	ManifestConflict: {
		Category: CategoryManifest,
		Message:  "Conflicting route definitions",
		Detail:   "Two manifest keys define the same part of the route tree, e.g. \"/docs\" and \"/docs/\".",
		DocURL:   docsBase + "e104",
	},
	ManifestInvalidTree: {
		Category: CategoryManifest,
		Message:  "Invalid route tree",
		Detail:   "The compiled route tree failed verification.",
		DocURL:   docsBase + "e105",
	},
	ManifestFetch: {
		Category: CategoryManifest,
		Message:  "Route manifest fetch failed",
		Detail:   "The route manifest could not be downloaded from object storage.",
		DocURL:   docsBase + "e106",
	},

	// ============================================
	// Config Errors (E200-E299)
	// ============================================

	ConfigNotFound: {
		Category: CategoryConfig,
		Message:  "navroute.json not found",
		Detail:   "No navroute.json was found in the current directory or any parent directory.",
		DocURL:   docsBase + "e200",
	},
	ConfigParse: {
		Category: CategoryConfig,
		Message:  "Invalid navroute.json syntax",
		Detail:   "The configuration file is not valid JSON.",
		DocURL:   docsBase + "e201",
	},
	ConfigInvalid: {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "One or more configuration values are out of range.",
		DocURL:   docsBase + "e202",
	},

	// ============================================
	// Resolution Errors (E300-E399)
	// ============================================

	RedirectLoop: {
		Category: CategoryResolution,
		Message:  "Redirect loop",
		Detail:   "Resolution revisited a location it had already requested.",
		DocURL:   docsBase + "e300",
	},
	TooManyRedirects: {
		Category: CategoryResolution,
		Message:  "Too many redirects",
		Detail:   "Resolution followed more redirects than maxRedirects allows.",
		DocURL:   docsBase + "e301",
	},
	ResolverFailed: {
		Category: CategoryResolution,
		Message:  "Resolver failed",
		Detail:   "A guard or resolver returned an error.",
		DocURL:   docsBase + "e302",
	},
	InvalidLocation: {
		Category: CategoryResolution,
		Message:  "Invalid location",
		Detail:   "The location is not an absolute, same-origin path.",
		DocURL:   docsBase + "e303",
	},
}

// GetAllCodes returns all registered error codes in order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
