package contract

import "fmt"

// Kind is a resource kind under contract.
type Kind string

const (
	Product Kind = "product"
	Order   Kind = "order"
)

// Liveness tags the state of a referenced resource in the seeded dataset.
type Liveness string

const (
	// Existing is a seeded resource reachable by the caller.
	Existing Liveness = "existing"

	// NotExisting is an identifier with no backing record.
	NotExisting Liveness = "not_existing"

	// Dependent exists but is referenced by other records, so deletion is
	// blocked by referential integrity.
	Dependent Liveness = "dependent"

	// OwnedByOther exists but belongs to a different client; only admins may
	// read it.
	OwnedByOther Liveness = "owned_by_other"
)

// LivenessStates lists every liveness tag, in declaration order.
var LivenessStates = []Liveness{Existing, NotExisting, Dependent, OwnedByOther}

// Ref is a typed numeric identifier scoped to a resource kind.
type Ref struct {
	Kind     Kind
	ID       int64
	Liveness Liveness
}

func (r Ref) String() string {
	return fmt.Sprintf("%s/%d (%s)", r.Kind, r.ID, r.Liveness)
}

// ParseLiveness validates a liveness tag from a scenario file.
func ParseLiveness(s string) (Liveness, error) {
	switch Liveness(s) {
	case Existing, NotExisting, Dependent, OwnedByOther:
		return Liveness(s), nil
	}
	return "", fmt.Errorf("unknown liveness %q (want one of %v)", s, LivenessStates)
}
