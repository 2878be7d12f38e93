package grouping

// A Traverser is one unit of data flowing through a pipeline: a payload, and the number of times
// that payload occurs. A Traverser with a Bulk of 3 must contribute to every aggregate exactly as
// three Traversers with a Bulk of 1 would.
type Traverser struct {
	Value interface{} // Value is the payload carried by this Traverser
	Bulk  int64       // Bulk is the multiplicity of Value
}

// NewTraverser returns a Traverser representing a single occurrence of value
func NewTraverser(value interface{}) Traverser {
	return Traverser{Value: value, Bulk: 1}
}

// Split returns a Traverser carrying a new value with the same Bulk as this one
func (t Traverser) Split(value interface{}) Traverser {
	return Traverser{Value: value, Bulk: t.Bulk}
}

// Requirement describes a property a host must guarantee for every Traverser handed to the engine
type Requirement string

const (
	// RequireObject indicates that Traverser values have equality semantics usable for group keys
	RequireObject Requirement = "object"
	// RequireBulk indicates that the host tracks and honours Traverser multiplicity
	RequireBulk Requirement = "bulk"
)
