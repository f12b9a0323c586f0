// Package components holds the bundled event generators and processors.
// They register themselves in sim.DefaultRegistry from init(); import the
// package for its side effect to make them available by name.
package components

// Event kinds exchanged between the bundled generators and the processor.
const (
	KindConnectionRequest = "connection-request"
	KindConnectionRelease = "connection-release"
	KindLinkDown          = "link-down"
	KindLinkUp            = "link-up"

	// generator-internal kinds
	kindNextArrival = "next-arrival"
	kindLinkFail    = "link-fail"
	kindLinkRepair  = "link-repair"
)

// ConnectionRequest is the payload of a connection-request event.
type ConnectionRequest struct {
	ID          int64
	DemandID    int64
	Bandwidth   float64
	HoldingTime float64
}

// ConnectionRelease is the payload of a connection-release event.
type ConnectionRelease struct {
	ID int64
}

// LinkEvent is the payload of link-down and link-up events.
type LinkEvent struct {
	LinkID int64
}
