package naming

import (
	"strings"
	"testing"

	"github.com/azlog-io/azlog/internal/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildName_AbbreviatesKnownTable(t *testing.T) {
	policy := ir.NamingPolicy{
		Prefix:        "dcr-jp-",
		SuffixMode:    ir.SuffixLocation,
		MaxLength:     30,
		HyphenAllowed: true,
	}

	// The unabbreviated form exceeds 30 chars, so the base collapses to CSL.
	got, err := BuildName("CommonSecurityLog", "eastus", policy)
	require.NoError(t, err)
	assert.Equal(t, "dcr-jp-CSL-eastus", got.Value)
	assert.Equal(t, 30-len("dcr-jp-CSL-eastus"), got.LengthBudgetRemaining)
}

func TestBuildName_ShortBasePassesThrough(t *testing.T) {
	policy := ir.NamingPolicy{
		Prefix:        "dcr-",
		SuffixMode:    ir.SuffixLocation,
		MaxLength:     64,
		HyphenAllowed: true,
	}

	got, err := BuildName("Syslog", "westeurope", policy)
	require.NoError(t, err)
	assert.Equal(t, "dcr-Syslog-westeurope", got.Value)
}

func TestBuildName_UnknownBaseTruncatesToSix(t *testing.T) {
	policy := ir.NamingPolicy{
		Prefix:        "dcr-",
		SuffixMode:    ir.SuffixLocation,
		MaxLength:     18,
		HyphenAllowed: true,
	}

	got, err := BuildName("MyVeryLongCustomTable", "eastus", policy)
	require.NoError(t, err)
	assert.Equal(t, "dcr-MyVery-eastus", got.Value)
}

func TestBuildName_StorageCharset(t *testing.T) {
	policy := ir.NamingPolicy{
		Prefix:     "sa",
		SuffixMode: ir.SuffixLocation,
		MaxLength:  24,
		AlnumOnly:  true,
	}

	got, err := BuildName("Cribl-Logs", "East US", policy)
	require.NoError(t, err)
	assert.Equal(t, "sacribllogseastus", got.Value)
	assert.LessOrEqual(t, len(got.Value), 24)
}

func TestBuildName_LengthInvariant(t *testing.T) {
	modes := []ir.SuffixMode{ir.SuffixEmpty, ir.SuffixLocation, ir.SuffixCustom}
	for _, mode := range modes {
		policy := ir.NamingPolicy{
			Prefix:        "dcr-",
			SuffixMode:    mode,
			CustomSuffix:  "prod",
			MaxLength:     30,
			HyphenAllowed: true,
		}
		for n := 1; n <= 200; n++ {
			base := strings.Repeat("x", n)
			got, err := BuildName(base, "eastus", policy)
			require.NoError(t, err, "mode=%s len=%d", mode, n)
			assert.LessOrEqual(t, len(got.Value), policy.MaxLength, "mode=%s len=%d", mode, n)
			assert.Equal(t, policy.MaxLength-len(got.Value), got.LengthBudgetRemaining)
		}
	}
}

func TestBuildName_CustomSuffixIgnoresLocation(t *testing.T) {
	policy := ir.NamingPolicy{
		Prefix:        "dcr-",
		SuffixMode:    ir.SuffixCustom,
		CustomSuffix:  "prod-01",
		MaxLength:     64,
		HyphenAllowed: true,
	}

	first, err := BuildName("SecurityEvent", "eastus", policy)
	require.NoError(t, err)
	second, err := BuildName("SecurityEvent", "westeurope", policy)
	require.NoError(t, err)
	assert.Equal(t, first.Value, second.Value)
	assert.True(t, strings.HasSuffix(first.Value, "prod-01"))
}

func TestBuildName_PolicyViolations(t *testing.T) {
	tests := []struct {
		name   string
		base   string
		policy ir.NamingPolicy
	}{
		{
			name:   "empty base",
			base:   "",
			policy: ir.NamingPolicy{Prefix: "dcr-", MaxLength: 30},
		},
		{
			name:   "max length under prefix",
			base:   "Syslog",
			policy: ir.NamingPolicy{Prefix: "dcr-verylongprefix-", MaxLength: 10},
		},
		{
			name: "prefix plus suffix fills the budget",
			base: "Syslog",
			policy: ir.NamingPolicy{
				Prefix:        "dcr-",
				SuffixMode:    ir.SuffixLocation,
				MaxLength:     11,
				HyphenAllowed: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildName(tt.base, "eastus", tt.policy)
			require.Error(t, err)
			var pv *PolicyViolationError
			assert.ErrorAs(t, err, &pv)
		})
	}
}

func TestReplaceLocationSuffix(t *testing.T) {
	policy := ir.NamingPolicy{Prefix: "dcr-", MaxLength: 64, HyphenAllowed: true}

	// Region suffixes track the new location.
	assert.Equal(t, "dcr-CSL-westeurope", ReplaceLocationSuffix("dcr-CSL-eastus", "westeurope", policy))
	assert.Equal(t, "dcr-CSL-westeurope", ReplaceLocationSuffix("dcr-CSL-eastus2", "westeurope", policy))

	// Custom suffixes are user intent and never rewritten.
	assert.Equal(t, "dcr-CSL-canary", ReplaceLocationSuffix("dcr-CSL-canary", "westeurope", policy))

	// No suffix yet: one is appended.
	assert.Equal(t, "dcrcsl-westeurope", ReplaceLocationSuffix("dcrcsl", "westeurope", policy))

	// Charset without hyphens has no structural suffix to find.
	flat := ir.NamingPolicy{MaxLength: 24, AlnumOnly: true}
	assert.Equal(t, "sacribleastus", ReplaceLocationSuffix("sacribleastus", "westeurope", flat))
}

func TestLooksLikeRegion(t *testing.T) {
	assert.True(t, LooksLikeRegion("eastus"))
	assert.True(t, LooksLikeRegion("EastUS"))
	assert.True(t, LooksLikeRegion("eastus2"))
	assert.False(t, LooksLikeRegion("prod"))
	assert.False(t, LooksLikeRegion("eastus2-canary"))
}
