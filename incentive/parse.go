package incentive

import (
	"strings"
)

// Parse helpers turn boundary strings (JSON, YAML, CLI flags) into the
// closed enums. Matching ignores case, surrounding space, and treats
// spaces and hyphens as underscores, so "First-Author" parses as
// FirstAuthor.

func canonical(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}

func ParseCategory(s string) (Category, error) {
	c := Category(canonical(s))
	if !c.Valid() {
		return "", &InvalidValueError{Field: "category", Value: s}
	}
	return c, nil
}

func ParseKind(s string) (Kind, error) {
	k := Kind(canonical(s))
	if !k.Valid() {
		return "", &InvalidValueError{Field: "kind", Value: s}
	}
	return k, nil
}

func ParseRole(s string) (Role, error) {
	r := Role(canonical(s))
	if !r.Valid() {
		return "", &InvalidValueError{Field: "role", Value: s}
	}
	return r, nil
}

func ParsePublicationType(s string) (PublicationType, error) {
	p := PublicationType(canonical(s))
	if !p.Valid() {
		return "", &InvalidValueError{Field: "publication_type", Value: s}
	}
	return p, nil
}

// ParseQuartile accepts an empty string as QuartileNone.
func ParseQuartile(s string) (Quartile, error) {
	if strings.TrimSpace(s) == "" {
		return QuartileNone, nil
	}
	q := Quartile(s).Normalize()
	if !q.Valid() {
		return "", &InvalidValueError{Field: "quartile", Value: s}
	}
	return q, nil
}

// ParseBookPublicationType accepts an empty string (non-book submissions).
func ParseBookPublicationType(s string) (BookPublicationType, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	b := BookPublicationType(canonical(s))
	if !b.Valid() {
		return "", &InvalidValueError{Field: "book_publication_type", Value: s}
	}
	return b, nil
}

func ParseBookIndexingType(s string) (BookIndexingType, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	b := BookIndexingType(canonical(s))
	if !b.Valid() {
		return "", &InvalidValueError{Field: "book_indexing_type", Value: s}
	}
	return b, nil
}

func ParseConferenceSubType(s string) (ConferenceSubType, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	c := ConferenceSubType(canonical(s))
	if !c.Valid() {
		return "", &InvalidValueError{Field: "conference_sub_type", Value: s}
	}
	return c, nil
}

// ParseScope defaults to National when s is empty.
func ParseScope(s string) (Scope, error) {
	if strings.TrimSpace(s) == "" {
		return National, nil
	}
	sc := Scope(canonical(s))
	if !sc.Valid() {
		return "", &InvalidValueError{Field: "scope", Value: s}
	}
	return sc, nil
}
