package incentive

// ValidateRoster checks the caller-side preconditions Allocate relies on.
// Allocate never calls it: behavior on an invalid roster is undefined,
// so the api and cli reject such rosters before computing anything.
//
// Role rules only apply where roles matter (research papers and Scopus
// conference papers).
func ValidateRoster(sub Submission) error {
	if len(sub.Authors) == 0 {
		return &RosterError{Position: -1, Reason: "at least one author is required"}
	}
	if sub.Authors[0].Category != Internal {
		return &RosterError{Position: 0, Reason: "the submitting author must be internal"}
	}

	for i, a := range sub.Authors {
		if !a.Category.Valid() {
			return &RosterError{Position: i, Reason: "unknown category " + string(a.Category)}
		}
		if !a.Kind.Valid() {
			return &RosterError{Position: i, Reason: "unknown kind " + string(a.Kind)}
		}
	}

	if !usesRoles(sub) {
		return nil
	}

	var first, corresponding, combined int
	for i, a := range sub.Authors {
		switch a.Role {
		case FirstAuthor:
			first++
		case CorrespondingAuthor:
			corresponding++
		case FirstAndCorresponding:
			combined++
		case CoAuthor:
		default:
			return &RosterError{Position: i, Reason: "unknown role " + string(a.Role)}
		}
	}

	switch {
	case first > 1:
		return &RosterError{Position: -1, Reason: "more than one first author"}
	case corresponding > 1:
		return &RosterError{Position: -1, Reason: "more than one corresponding author"}
	case combined > 1:
		return &RosterError{Position: -1, Reason: "more than one first-and-corresponding author"}
	case combined == 1 && (first > 0 || corresponding > 0):
		return &RosterError{Position: -1, Reason: "first-and-corresponding cannot be combined with a separate first or corresponding author"}
	}
	return nil
}

func usesRoles(sub Submission) bool {
	switch sub.PublicationType {
	case ResearchPaper:
		return true
	case ConferencePaper:
		return sub.ConferenceSubType == PaperIndexedScopus
	}
	return false
}
