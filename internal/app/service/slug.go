package service

import (
	"strconv"
	"strings"
	"unicode"
)

// fallbackSlug is used when neither the seed nor the entity id leave any
// usable character.
const fallbackSlug = "link"

// SlugTaken reports whether candidate is already used in the target portal.
type SlugTaken func(candidate string) (bool, error)

// NormalizeSlug trims and lowercases seed, turns each whitespace run into a
// single hyphen and drops everything outside [a-z0-9-].
func NormalizeSlug(seed string) string {
	s := strings.ToLower(strings.TrimSpace(seed))

	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte('-')
				inSpace = true
			}
			continue
		}
		inSpace = false
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SlugBase is the collision-free candidate for seed: the normalised seed, or
// the entity id with underscores as hyphens when the seed normalises away.
func SlugBase(seed, entityID string) string {
	if base := NormalizeSlug(seed); base != "" {
		return base
	}
	if base := NormalizeSlug(strings.ReplaceAll(entityID, "_", "-")); base != "" {
		return base
	}
	return fallbackSlug
}

// GenerateSlug returns the first of base, base-1, base-2, ... that taken
// reports as free, together with the number of candidates tried. The probe
// order is fixed so the same state always yields the same slug.
func GenerateSlug(seed, entityID string, taken SlugTaken) (string, int, error) {
	base := SlugBase(seed, entityID)

	candidate := base
	for n := 1; ; n++ {
		used, err := taken(candidate)
		if err != nil {
			return "", n, err
		}
		if !used {
			return candidate, n, nil
		}
		candidate = base + "-" + strconv.Itoa(n)
	}
}

// takenIn adapts a prefetched slug set to SlugTaken.
func takenIn(set map[string]struct{}) SlugTaken {
	return func(candidate string) (bool, error) {
		_, ok := set[candidate]
		return ok, nil
	}
}
