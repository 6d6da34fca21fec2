package types

// Event is the generic attribute bag surfaced to RPC subscribers and logs.
type Event struct {
	Type       string
	Attributes map[string]string
}
