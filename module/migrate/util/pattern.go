package util

import (
	"strings"

	"github.com/gobwas/glob"
	"github.com/rs/zerolog/log"
)

/* Patterns support * and ** wildcards:
- * matches a single path segment of a repository name
- ** matches any number of segments
*/

func MatchesPattern(name string, patterns []string) bool {
	normalized := strings.TrimPrefix(name, "/")

	for _, pattern := range patterns {
		normalizedPattern := strings.TrimPrefix(pattern, "/")

		if containsUnsupportedWildcards(normalizedPattern) {
			log.Warn().Str("pattern", pattern).
				Msg("Pattern contains unsupported wildcard characters. Only * and ** are supported.")
			continue
		}

		g, err := glob.Compile(normalizedPattern, '/')
		if err != nil {
			continue
		}
		if g.Match(normalized) {
			return true
		}
	}
	return false
}

// containsUnsupportedWildcards checks if pattern contains unsupported wildcard characters
func containsUnsupportedWildcards(pattern string) bool {
	return strings.ContainsAny(pattern, "?[]{}")
}

// FilterByPatterns keeps names matching any include pattern (all names when there are
// none) and then drops names matching any exclude pattern. Order is preserved.
func FilterByPatterns(names []string, includePatterns, excludePatterns []string) []string {
	if len(includePatterns) == 0 && len(excludePatterns) == 0 {
		return names
	}

	filtered := make([]string, 0, len(names))
	for _, name := range names {
		if len(includePatterns) > 0 && !MatchesPattern(name, includePatterns) {
			continue
		}
		if len(excludePatterns) > 0 && MatchesPattern(name, excludePatterns) {
			continue
		}
		filtered = append(filtered, name)
	}
	return filtered
}
