package coordinator

import "errors"

var (
	// ErrJoinInFlight is returned while a join for the same session is
	// still awaiting its outcome
	ErrJoinInFlight = errors.New("join already in flight for this session")

	// ErrAlreadyInSession is returned when the user already occupies a
	// different active session; one at a time
	ErrAlreadyInSession = errors.New("already in another active session")

	// ErrNotCreator is returned when a non-creator attempts a
	// creator-only operation
	ErrNotCreator = errors.New("only the session creator may do this")

	// ErrNotInSession is returned when an operation requires the user
	// to be a participant
	ErrNotInSession = errors.New("user is not in this session")

	// ErrSessionUnknown is returned when the session is not in the
	// local set
	ErrSessionUnknown = errors.New("session is not known locally")

	// ErrNoChatOpen is returned when sending chat with no open session
	// chat
	ErrNoChatOpen = errors.New("no chat is open")
)
