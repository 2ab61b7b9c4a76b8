package assembler

// State tracks a dataset through the per-quarter pipeline. Failed is
// terminal and reachable from any non-terminal state.
type State int

const (
	Pending State = iota
	Extracted
	LookupsResolved
	SchemaPlanned
	Denormalized
	Exported
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Extracted:
		return "Extracted"
	case LookupsResolved:
		return "LookupsResolved"
	case SchemaPlanned:
		return "SchemaPlanned"
	case Denormalized:
		return "Denormalized"
	case Exported:
		return "Exported"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Terminal reports whether the state ends a dataset's lifecycle.
func (s State) Terminal() bool {
	return s == Exported || s == Failed
}
