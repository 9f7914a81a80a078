package generate

import "time"

// failureKind classifies why a single generate attempt failed.
type failureKind int

const (
	// kindNone means the attempt succeeded.
	kindNone failureKind = iota

	// kindConnectivity covers transport-level failures: the endpoint could
	// not be reached or the connection was dropped mid-request.
	kindConnectivity

	// kindProtocol covers failures where the endpoint answered but the
	// reply was unusable: non-2xx status, undecodable body, or a body
	// missing the answer field.
	kindProtocol
)

// The retry loop is a state machine over these phases. A successful attempt
// returns immediately; each failed attempt moves attempting(n) to
// attempting(n+1) or, once attempts are exhausted, to one of the two
// terminal failure phases. The terminal phases map to distinct sentinel
// strings so callers can tell "service down" from "malformed response".
type phase int

const (
	phaseAttempting phase = iota
	phaseExhaustedConnectivity
	phaseExhaustedProtocol
)

// delay returns how long to wait after a failed attempt before the next one.
// Connectivity failures back off progressively with the attempt number;
// protocol failures use a flat short delay. attempt is 1-based.
func delay(kind failureKind, attempt int, connectUnit, protocolUnit time.Duration) time.Duration {
	switch kind {
	case kindConnectivity:
		return time.Duration(attempt) * connectUnit
	case kindProtocol:
		return protocolUnit
	default:
		return 0
	}
}
