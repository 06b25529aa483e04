package storage

// Sink receives records emitted by long-running commands.
type Sink interface {
	Put(records ...any) error
}
