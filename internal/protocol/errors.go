package protocol

const (
	// Transport/message validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Document routing/state.
	ErrNoModel  = "E_NO_MODEL"
	ErrNoStates = "E_NO_STATES"

	ErrInternal = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrNoModel:         {},
	ErrNoStates:        {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
