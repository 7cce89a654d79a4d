package validation

import "strings"

// knownAliases maps a contract principal to other identifiers the upstream
// API reports the same token under. Wrapped STX is the well-known case: swaps
// routed through the wrapper settle against either identifier.
var knownAliases = map[string][]string{
	"SP102V8P0F7JX67ARQ77WEA3D3CFB5XW39REDT0AM.token-wstx": {"stx"},
	"stx": {"SP102V8P0F7JX67ARQ77WEA3D3CFB5XW39REDT0AM.token-wstx"},
}

// StripAssetSuffix removes the ::asset-name suffix from a fully qualified
// asset identifier, leaving the contract principal.
func StripAssetSuffix(identifier string) string {
	if i := strings.Index(identifier, "::"); i >= 0 {
		return identifier[:i]
	}
	return identifier
}

// NormalizeTokenPrincipal expands a token principal into the ordered list of
// identifier variants to try against upstream data: the principal itself
// first, then any known-equivalent aliases. The order is significant because
// callers short-circuit on the first variant that yields data.
func NormalizeTokenPrincipal(principal string) []string {
	base := StripAssetSuffix(principal)
	variants := []string{base}
	seen := map[string]bool{base: true}
	for _, alias := range knownAliases[base] {
		if !seen[alias] {
			variants = append(variants, alias)
			seen[alias] = true
		}
	}
	return variants
}
