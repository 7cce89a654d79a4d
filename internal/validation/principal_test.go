package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripAssetSuffix(t *testing.T) {
	assert.Equal(t, "SP123.token-abc", StripAssetSuffix("SP123.token-abc::abc"))
	assert.Equal(t, "SP123.token-abc", StripAssetSuffix("SP123.token-abc"))
	assert.Equal(t, "stx", StripAssetSuffix("stx"))
}

func TestNormalizeTokenPrincipal_PrincipalFirst(t *testing.T) {
	variants := NormalizeTokenPrincipal("SP123.token-abc")
	assert.Equal(t, []string{"SP123.token-abc"}, variants)
}

func TestNormalizeTokenPrincipal_KnownAlias(t *testing.T) {
	variants := NormalizeTokenPrincipal("SP102V8P0F7JX67ARQ77WEA3D3CFB5XW39REDT0AM.token-wstx")
	assert.Equal(t, []string{
		"SP102V8P0F7JX67ARQ77WEA3D3CFB5XW39REDT0AM.token-wstx",
		"stx",
	}, variants, "the principal itself must come before its aliases")

	reverse := NormalizeTokenPrincipal("stx")
	assert.Equal(t, []string{
		"stx",
		"SP102V8P0F7JX67ARQ77WEA3D3CFB5XW39REDT0AM.token-wstx",
	}, reverse)
}

func TestNormalizeTokenPrincipal_StripsSuffixBeforeLookup(t *testing.T) {
	variants := NormalizeTokenPrincipal("SP102V8P0F7JX67ARQ77WEA3D3CFB5XW39REDT0AM.token-wstx::wstx")
	assert.Len(t, variants, 2)
	assert.Equal(t, "SP102V8P0F7JX67ARQ77WEA3D3CFB5XW39REDT0AM.token-wstx", variants[0])
}
