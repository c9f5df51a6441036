package interfaces

import "bannergrab/internal/types"

// TargetFeeder produces the sequence of dial targets the Dispatcher
// admits, in input order, and is closed once the underlying stream has
// been fully consumed.
type TargetFeeder interface {
	// Run parses the input stream and sends one Target per well-formed
	// line to out, in input order, closing out when the stream reaches
	// EOF. Malformed lines are skipped and logged; they are never sent.
	Run(out chan<- types.Target)
}
