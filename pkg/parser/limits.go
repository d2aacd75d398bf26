package parser

// Structural limits enforced during type parsing, per spec.md §4.2/§4.8.
// Each is a hard ceiling: the boundary value itself is accepted, one past it
// is rejected (spec.md §8 boundary behaviors).
const (
	MaxMembers     = 50
	MaxLines       = 256
	MaxMethods     = 15
	MaxLineLength  = 120
	MaxNestingTabs = 5
	MaxBodyLines   = 12
	MaxParameters  = 3
)
