package roster

import "strings"

// Assignment is the outcome of resolving a therapist for a booking. Matched is
// false when no roster specialty contained the suggested token and the first
// roster entry was used as the fallback, so callers can tell a real match from
// the default.
type Assignment struct {
	Therapist Therapist
	Matched   bool
}

// specialtyAliases folds common recommendation vocabulary onto the closed
// specialty set before the substring scan. The recommendation service emits
// free text, so near-miss wording ("neuro rehab", "cardiac") still lands on
// the intended roster entry.
var specialtyAliases = map[string]string{
	"ortho":       "orthopedic",
	"orthopaedic": "orthopedic",
	"bone":        "orthopedic",
	"joint":       "orthopedic",
	"neuro":       "neurological",
	"nerve":       "neurological",
	"stroke":      "neurological",
	"sport":       "sports",
	"athletic":    "sports",
	"athlete":     "sports",
	"child":       "pediatric",
	"paediatric":  "pediatric",
	"kids":        "pediatric",
	"elderly":     "geriatric",
	"senior":      "geriatric",
	"aging":       "geriatric",
	"cardiac":     "cardiopulmonary",
	"cardio":      "cardiopulmonary",
	"pulmonary":   "cardiopulmonary",
	"respiratory": "cardiopulmonary",
	"lung":        "cardiopulmonary",
}

// Resolver selects a therapist from a fixed roster by specialty.
type Resolver struct {
	roster []Therapist
}

// NewResolver creates a resolver over the given roster. An empty roster falls
// back to the built-in default.
func NewResolver(therapists []Therapist) *Resolver {
	if len(therapists) == 0 {
		therapists = Default()
	}
	return &Resolver{roster: therapists}
}

// Roster returns the resolver's roster entries.
func (r *Resolver) Roster() []Therapist {
	out := make([]Therapist, len(r.roster))
	copy(out, r.roster)
	return out
}

// Assign resolves a therapist for the given condition description and optional
// suggested specialty. The first whitespace token of the suggestion is
// normalized and matched case-insensitively as a substring of each roster
// specialty; the first hit wins. With no suggestion or no hit the first roster
// entry is returned with Matched=false.
func (r *Resolver) Assign(issueText, suggestedSpecialty string) Assignment {
	_ = issueText // kept for future condition-aware ranking

	token := NormalizeSpecialty(suggestedSpecialty)
	if token != "" {
		for _, t := range r.roster {
			if strings.Contains(strings.ToLower(t.Specialty), token) {
				return Assignment{Therapist: t, Matched: true}
			}
		}
	}
	return Assignment{Therapist: r.roster[0], Matched: false}
}

// NormalizeSpecialty reduces a free-text specialty suggestion to the match
// token: first whitespace-delimited word, lower-cased, folded through the
// alias table. Empty input yields an empty token.
func NormalizeSpecialty(suggestion string) string {
	fields := strings.Fields(suggestion)
	if len(fields) == 0 {
		return ""
	}
	token := strings.ToLower(fields[0])
	if canonical, ok := specialtyAliases[token]; ok {
		return canonical
	}
	return token
}
