// Package layers defines read-only descriptors of network layers.
//
// A Wrapper carries the kind and numeric parameters of one layer; it never
// computes anything itself. The bounds package consumes wrappers to
// propagate interval bounds through the described operations.
package layers

// Kind identifies one of the supported layer kinds.
// The set is closed: bound propagation dispatches exhaustively over it.
type Kind int

// Supported layer kinds.
const (
	LinearFC Kind = iota
	LinearConv2D
	Monotonic
	BatchNorm
	BatchFlatten
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case LinearFC:
		return "LinearFC"
	case LinearConv2D:
		return "LinearConv2D"
	case Monotonic:
		return "Monotonic"
	case BatchNorm:
		return "BatchNorm"
	case BatchFlatten:
		return "BatchFlatten"
	default:
		return "Unknown"
	}
}
