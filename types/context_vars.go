// Package types provides value types shared by the context providers.
package types

import (
	"maps"

	json "github.com/goccy/go-json"
)

// ContextVars is the data a Template provider renders its text/template against.
//
//	vars := ContextVars{
//	    "user": "ada",
//	    "preferences": map[string]string{"language": "en"},
//	}
//
// with a template such as:
//
//	User: {{.user}}
//	Language: {{.preferences.language}}
//
// ContextVars is a map type and is not safe for concurrent modification. The
// Template provider clones the map it is given, so callers may keep mutating
// their own copy and call SetVars again.
type ContextVars map[string]any

// String returns a JSON string representation of the ContextVars.
// If marshaling fails, it returns an empty string.
func (cv ContextVars) String() string {
	jsonData, err := json.Marshal(cv)
	if err != nil {
		return ""
	}
	return string(jsonData)
}

// Clone returns a shallow copy of cv. A nil map clones to an empty map.
func (cv ContextVars) Clone() ContextVars {
	out := make(ContextVars, len(cv))
	maps.Copy(out, cv)
	return out
}

// Merge returns a new ContextVars holding cv overlaid with other.
// Keys in other win.
func (cv ContextVars) Merge(other ContextVars) ContextVars {
	out := cv.Clone()
	maps.Copy(out, other)
	return out
}
