// Package naming maps raw feature labels to identifiers the tracking backend
// accepts (alphanumerics, underscores, dashes, periods, spaces, colons,
// slashes).
package naming

import "strings"

// CleanFeature rewrites a feature label into a metric-safe identifier:
// parentheses become underscores, commas are dropped, runs of underscores
// collapse to one, and leading/trailing underscores are trimmed.
func CleanFeature(name string) string {
	cleaned := strings.NewReplacer("(", "_", ")", "_", ",", "").Replace(name)
	for strings.Contains(cleaned, "__") {
		cleaned = strings.ReplaceAll(cleaned, "__", "_")
	}
	return strings.Trim(cleaned, "_")
}
