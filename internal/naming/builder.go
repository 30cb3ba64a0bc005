package naming

import (
	"fmt"
	"strings"

	"github.com/azlog-io/azlog/internal/ir"
)

// truncateBaseTo is the fallback abbreviation: keep the first N characters
// of a base name that has no table entry.
const truncateBaseTo = 6

// abbreviations maps well-known table base names (lowercased) to their
// short forms, used when a composed name exceeds the policy length.
var abbreviations = map[string]string{
	"commonsecuritylog":   "CSL",
	"securityevent":       "SecEvt",
	"windowsevent":        "WinEvt",
	"deviceevents":        "DevEvt",
	"devicenetworkevents": "DevNet",
	"deviceprocessevents": "DevProc",
	"syslog":              "Sys",
	"azureactivity":       "AzAct",
}

// azureRegions is the recognized-region list used to decide whether an
// existing suffix is a location (replaceable) or a user override (kept).
var azureRegions = map[string]bool{
	"australiacentral": true, "australiaeast": true, "australiasoutheast": true,
	"brazilsouth": true, "canadacentral": true, "canadaeast": true,
	"centralindia": true, "centralus": true, "eastasia": true, "eastus": true,
	"francecentral": true, "germanywestcentral": true, "japaneast": true,
	"japanwest": true, "koreacentral": true, "northcentralus": true,
	"northeurope": true, "norwayeast": true, "southafricanorth": true,
	"southcentralus": true, "southeastasia": true, "southindia": true,
	"swedencentral": true, "switzerlandnorth": true, "uaenorth": true,
	"uksouth": true, "ukwest": true, "westcentralus": true, "westeurope": true,
	"westindia": true, "westus": true,
}

// PolicyViolationError reports a naming policy that can never produce a
// valid name. It fails the resource before any provider call is made.
type PolicyViolationError struct {
	Base   string
	Reason string
}

func (e *PolicyViolationError) Error() string {
	return fmt.Sprintf("invalid naming policy for %q: %s", e.Base, e.Reason)
}

// BuildName derives a policy-conforming name from a base identifier and a
// location. It is pure and deterministic: same inputs, same name.
func BuildName(base, location string, policy ir.NamingPolicy) (ir.CandidateName, error) {
	if base == "" {
		return ir.CandidateName{}, &PolicyViolationError{Base: base, Reason: "base name is empty"}
	}
	if policy.MaxLength <= len(policy.Prefix) {
		return ir.CandidateName{}, &PolicyViolationError{
			Base:   base,
			Reason: fmt.Sprintf("max length %d does not fit prefix %q", policy.MaxLength, policy.Prefix),
		}
	}

	suffix := resolveSuffix(location, policy)
	if policy.MaxLength <= len(compose("", policy.Prefix, suffix, policy)) {
		return ir.CandidateName{}, &PolicyViolationError{
			Base:   base,
			Reason: fmt.Sprintf("max length %d does not fit prefix %q and suffix %q", policy.MaxLength, policy.Prefix, suffix),
		}
	}

	name := compose(base, policy.Prefix, suffix, policy)
	if len(name) > policy.MaxLength {
		base = Abbreviate(base)
		name = compose(base, policy.Prefix, suffix, policy)
		// Still over: trim the base from the end. Prefix and suffix are
		// kept intact since the suffix usually carries meaning.
		for len(name) > policy.MaxLength && len(base) > 0 {
			over := len(name) - policy.MaxLength
			if over > len(base) {
				over = len(base)
			}
			base = base[:len(base)-over]
			name = compose(base, policy.Prefix, suffix, policy)
		}
	}

	return ir.CandidateName{
		Value:                 name,
		LengthBudgetRemaining: policy.MaxLength - len(name),
	}, nil
}

// Abbreviate shortens a base name: known table names use their table entry,
// anything else keeps its first six characters. Bases already short enough
// pass through unchanged.
func Abbreviate(base string) string {
	if ab, ok := abbreviations[strings.ToLower(base)]; ok && ab != "" {
		return ab
	}
	if len(base) > truncateBaseTo {
		return base[:truncateBaseTo]
	}
	return base
}

// ReplaceLocationSuffix rewrites the trailing suffix of an existing name for
// a new location, but only when that suffix is absent or structurally looks
// like a known region. A custom suffix is user intent and survives re-runs
// untouched, even when the location changes.
func ReplaceLocationSuffix(name, newLocation string, policy ir.NamingPolicy) string {
	if !policy.HyphenAllowed || name == "" {
		return name
	}
	loc := normalizeLocation(newLocation)

	idx := strings.LastIndex(name, "-")
	if idx < 0 {
		return fitToLength(name+"-"+loc, policy.MaxLength, loc)
	}
	tail := name[idx+1:]
	if tail == "" || LooksLikeRegion(tail) {
		return fitToLength(name[:idx]+"-"+loc, policy.MaxLength, loc)
	}
	return name
}

// LooksLikeRegion reports whether s matches the recognized Azure region
// pattern, including numbered variants like eastus2. The match is
// deliberately fuzzy; an unknown region string is treated as opaque.
func LooksLikeRegion(s string) bool {
	s = strings.ToLower(s)
	if azureRegions[s] {
		return true
	}
	trimmed := strings.TrimRight(s, "0123456789")
	return trimmed != s && azureRegions[trimmed]
}

func resolveSuffix(location string, policy ir.NamingPolicy) string {
	switch policy.SuffixMode {
	case ir.SuffixLocation:
		return normalizeLocation(location)
	case ir.SuffixCustom:
		return policy.CustomSuffix
	default:
		return ""
	}
}

func normalizeLocation(location string) string {
	return strings.ToLower(strings.ReplaceAll(location, " ", ""))
}

// compose joins prefix, base and suffix under the policy's charset rules.
func compose(base, prefix, suffix string, policy ir.NamingPolicy) string {
	name := prefix + base
	if suffix != "" {
		if policy.HyphenAllowed {
			name += "-"
		}
		name += suffix
	}
	if policy.AlnumOnly {
		name = sanitizeAlnum(name)
	}
	return name
}

func sanitizeAlnum(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// fitToLength trims the stem of a hyphen-joined name so the suffix fits.
func fitToLength(name string, maxLength int, suffix string) string {
	if maxLength <= 0 || len(name) <= maxLength {
		return name
	}
	over := len(name) - maxLength
	stemLen := len(name) - len(suffix) - 1
	if stemLen <= over {
		return name[:maxLength]
	}
	return name[:stemLen-over] + "-" + suffix
}
