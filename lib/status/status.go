package status

import (
	"strings"
	"unicode"
)

// Status is a normalized vehicle status label. Most values come from the
// closed canonical set below; unrecognized but meaningful feed text is kept
// as a pass-through label so new vocabulary surfaces instead of vanishing.
type Status string

const (
	Available              Status = "available"
	UnavailableEquipment   Status = "unavailable-equipment"
	UnavailableOperational Status = "unavailable-operational"
	Disinfection           Status = "disinfection-in-progress"
	OnIntervention         Status = "on-intervention"
	ReturningToService     Status = "returning-to-service"
	OutOfService           Status = "out-of-service"
	Unknown                Status = "unknown"
)

// rules is evaluated in order; the first matching predicate wins. Matching is
// case-insensitive but diacritics-sensitive: the feeds this watches are
// French ("matériel", "désinfection") and the accents disambiguate.
//
// To teach the normalizer new vocabulary, add a row; the control flow never
// changes.
var rules = []struct {
	label Status
	match func(s string) bool
}{
	{Available, func(s string) bool {
		return (strings.Contains(s, "disponible") || strings.Contains(s, "available")) &&
			!strings.Contains(s, "indisponible") && !strings.Contains(s, "unavailable")
	}},
	{UnavailableEquipment, func(s string) bool {
		return unavailable(s) && (strings.Contains(s, "matériel") || strings.Contains(s, "equipment"))
	}},
	{UnavailableOperational, unavailable},
	{Disinfection, func(s string) bool {
		return strings.Contains(s, "désinfection") || strings.Contains(s, "disinfection")
	}},
	{OnIntervention, func(s string) bool {
		return strings.Contains(s, "intervention") || strings.Contains(s, "on scene")
	}},
	{ReturningToService, func(s string) bool {
		return strings.Contains(s, "retour") || strings.Contains(s, "returning")
	}},
	{OutOfService, func(s string) bool {
		return strings.Contains(s, "hors service") || strings.Contains(s, "out of service")
	}},
}

func unavailable(s string) bool {
	return strings.Contains(s, "indisponible") || strings.Contains(s, "unavailable")
}

// Normalize maps arbitrary raw feed text onto a Status. It never fails:
// degenerate input becomes Unknown, and unmatched-but-meaningful text becomes
// a capitalized pass-through label.
func Normalize(raw string) Status {
	trimmed := strings.TrimSpace(raw)
	lowered := strings.ToLower(trimmed)

	for _, rule := range rules {
		if rule.match(lowered) {
			return rule.label
		}
	}

	if isDegenerate(trimmed) {
		return Unknown
	}
	return Status(capitalize(trimmed))
}

// IsCanonical reports whether s belongs to the closed label set. Pass-through
// labels are not canonical; a stored non-canonical value forces one
// re-normalization pass on the next poll even when content is unchanged.
func IsCanonical(s Status) bool {
	switch s {
	case Available, UnavailableEquipment, UnavailableOperational,
		Disinfection, OnIntervention, ReturningToService, OutOfService, Unknown:
		return true
	}
	return false
}

// isDegenerate flags text that carries no status information: too short, or
// a feed echoing the vehicle's own name and site code ("FS1 Istres").
// A token is noise when it carries a digit or is fully uppercase; text is
// degenerate when at least one token is noise and no token looks like an
// ordinary lowercase word.
func isDegenerate(s string) bool {
	if len([]rune(s)) < 3 {
		return true
	}

	tokens := strings.Fields(s)
	sawNoise := false
	for _, tok := range tokens {
		switch {
		case isNoiseToken(tok):
			sawNoise = true
		case startsUpper(tok):
			// Capitalized words ("Istres") only count as noise alongside a
			// code token.
		default:
			return false
		}
	}
	return sawNoise
}

func isNoiseToken(tok string) bool {
	hasDigit, hasLower := false, false
	for _, r := range tok {
		if unicode.IsDigit(r) {
			hasDigit = true
		}
		if unicode.IsLower(r) {
			hasLower = true
		}
	}
	return hasDigit || !hasLower
}

func startsUpper(tok string) bool {
	for _, r := range tok {
		return unicode.IsUpper(r)
	}
	return false
}

func capitalize(s string) string {
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
