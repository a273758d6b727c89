package bot

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/ppiankov/freebase2wikidata/internal/model"
	"github.com/ppiankov/freebase2wikidata/internal/wikidata"
)

// Time precision codes compared by IsMorePrecise
const (
	precisionMonth = 10
	precisionDay   = 11
)

var timestampRe = regexp.MustCompile(`^([-+]\d+)-(\d\d)-(\d\d)T(\d\d):(\d\d):(\d\d)Z$`)

// IsMorePrecise reports whether a is as precise as b or more, and agrees with b
// at b's precision. Only time values have a precision; other values must be equal.
func IsMorePrecise(a, b wikidata.Value) bool {
	if a.Kind == wikidata.KindTime && b.Kind == wikidata.KindTime {
		return isTimeMorePrecise(a, b)
	}
	return a == b
}

// isTimeMorePrecise never compares the time of day
func isTimeMorePrecise(a, b wikidata.Value) bool {
	if a.Precision < b.Precision {
		return false
	}
	ma := timestampRe.FindStringSubmatch(a.Time)
	mb := timestampRe.FindStringSubmatch(b.Time)
	if ma == nil || mb == nil {
		return a.Time == b.Time
	}
	yearA, monthA, dayA := ma[1], ma[2], ma[3]
	yearB, monthB, dayB := mb[1], mb[2], mb[3]

	return yearA == yearB &&
		!(b.Precision >= precisionMonth && monthA != monthB) &&
		!(b.Precision >= precisionDay && dayA != dayB)
}

func isSnakMorePrecise(a, b Snak) bool {
	if a.Type == wikidata.SnakValue && b.Type == wikidata.SnakValue {
		return a.Property == b.Property && IsMorePrecise(a.Value, b.Value)
	}
	return a == b
}

// isSubSnakList reports whether every snak of list is in container
func isSubSnakList(list, container []Snak) bool {
	for _, snak := range list {
		if !slices.Contains(container, snak) {
			return false
		}
	}
	return true
}

// HasClaim reports whether an existing statement equals s, main value and qualifiers
func HasClaim(existing []Statement, s Statement) bool {
	for _, candidate := range existing {
		if isSnakMorePrecise(candidate.Main, s.Main) &&
			isSnakMorePrecise(s.Main, candidate.Main) &&
			isSubSnakList(s.Qualifiers, candidate.Qualifiers) &&
			isSubSnakList(candidate.Qualifiers, s.Qualifiers) {
			return true
		}
	}
	return false
}

// FindSubStatement returns the first existing statement s refines: s is at least
// as precise and the existing qualifiers contain those of s
func FindSubStatement(existing []Statement, s Statement) (Statement, bool) {
	for _, candidate := range existing {
		if isSnakMorePrecise(s.Main, candidate.Main) && isSubSnakList(s.Qualifiers, candidate.Qualifiers) {
			return candidate, true
		}
	}
	return Statement{}, false
}

// Action is the outcome of resolving a statement against an item
type Action int

const (
	// ActionSkip drops an exact duplicate
	ActionSkip Action = iota
	// ActionAdd adds a new statement
	ActionAdd
	// ActionRefine replaces a less precise statement in place
	ActionRefine
)

func (a Action) String() string {
	switch a {
	case ActionSkip:
		return "skip"
	case ActionAdd:
		return "add"
	case ActionRefine:
		return "refine"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Resolver decides how a new statement relates to the existing ones
type Resolver struct {
	importedFrom      Snak
	ignoredProperties []string
	ignoredSnaks      []Snak
	newGUID           func(subject string) string
}

// NewResolver builds a resolver from the writer configuration
func NewResolver(cfg model.WriterConfig) *Resolver {
	r := &Resolver{
		importedFrom:      ValueSnak(cfg.ImportedFromProperty, wikidata.EntityValue(cfg.ImportedFromItem)),
		ignoredProperties: cfg.IgnoredReferences,
		newGUID:           NewGUID,
	}
	for _, o := range cfg.IgnoredReferenceSnaks {
		r.ignoredSnaks = append(r.ignoredSnaks, ValueSnak(o.From, wikidata.EntityValue(o.To)))
	}
	return r
}

// NewGUID returns a fresh statement id for subject
func NewGUID(subject string) string {
	return subject + "$" + strings.ToUpper(uuid.NewString())
}

// HasMeaningfulReference reports whether s cites anything besides the ignored
// properties and snaks
func (r *Resolver) HasMeaningfulReference(s Statement) bool {
	for _, reference := range s.References {
		for _, snak := range reference {
			if !slices.Contains(r.ignoredSnaks, snak) && !slices.Contains(r.ignoredProperties, snak.Property) {
				return true
			}
		}
	}
	return false
}

// Resolve compares s with the existing statements of its property on subject.
// Accepted statements get a GUID and the imported-from reference. Any existing
// statement s neither duplicates nor refines is a contradiction.
func (r *Resolver) Resolve(subject string, s Statement, existing []Statement) (Statement, Action, error) {
	if HasClaim(existing, s) {
		return s, ActionSkip, nil
	}

	action := ActionAdd
	if sub, ok := FindSubStatement(existing, s); ok {
		if r.HasMeaningfulReference(sub) {
			return s, ActionSkip, fmt.Errorf("%w: %s", model.ErrSourcedSubStatement, sub.GUID)
		}
		s.GUID = sub.GUID
		action = ActionRefine
	} else if len(existing) > 0 {
		return s, ActionSkip, fmt.Errorf("%w: %s %s has %d other values", model.ErrContradiction, subject, s.Main.Property, len(existing))
	} else {
		s.GUID = r.newGUID(subject)
	}

	s.References = append(slices.Clone(s.References), []Snak{r.importedFrom})
	return s, action, nil
}
