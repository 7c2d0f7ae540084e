package session

// State is the Session Framer's state machine (§4.3).
type State int32

const (
	StateConnecting State = iota
	StateAwaitingDummy
	StateHandshakeDH
	StateEstablished
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateAwaitingDummy:
		return "AWAITING_DUMMY"
	case StateHandshakeDH:
		return "HANDSHAKE_DH"
	case StateEstablished:
		return "ESTABLISHED"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}
