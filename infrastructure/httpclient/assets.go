package httpclient

import (
	"strings"
)

// assetFieldMarkers are the key-name substrings that identify an
// image-ish field, matched case-insensitively.
var assetFieldMarkers = []string{"image", "img", "photo", "thumbnail", "banner"}

// storageSegment is the path marker the API uses for uploaded assets.
const storageSegment = "/storage/"

// AssetResolver normalizes asset paths against a fixed asset host.
type AssetResolver struct {
	host string
}

// NewAssetResolver creates a resolver for the given host. The host is
// normalized to scheme://authority with no trailing slash.
func NewAssetResolver(host string) *AssetResolver {
	return &AssetResolver{host: strings.TrimRight(host, "/")}
}

// ResolveURL turns a possibly relative asset path into a fully qualified
// URL. Absolute URLs pass through; paths already containing the storage
// segment are joined to the host as-is; anything else is placed under the
// storage segment. Malformed input falls back to the host root. Pure, no
// I/O.
func (r *AssetResolver) ResolveURL(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return r.host + "/"
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if strings.Contains(path, storageSegment) {
		return r.host + "/" + strings.TrimLeft(path, "/")
	}
	return r.host + storageSegment + strings.TrimLeft(path, "/")
}

// AnnotateAssetFields walks an arbitrary decoded JSON value and returns a
// deep copy in which every string field whose key looks image-ish is
// rewritten through ResolveURL. Empty strings and inline-encoded values
// (data: URIs) are left untouched. The input is never mutated.
func (r *AssetResolver) AnnotateAssetFields(payload interface{}) interface{} {
	switch value := payload.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(value))
		for key, item := range value {
			if s, ok := item.(string); ok && s != "" && isAssetField(key) && !isInlineEncoded(s) {
				out[key] = r.ResolveURL(s)
				continue
			}
			out[key] = r.AnnotateAssetFields(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(value))
		for i, item := range value {
			out[i] = r.AnnotateAssetFields(item)
		}
		return out
	default:
		return payload
	}
}

func isAssetField(key string) bool {
	lower := strings.ToLower(key)
	for _, marker := range assetFieldMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func isInlineEncoded(value string) bool {
	return strings.HasPrefix(value, "data:")
}
