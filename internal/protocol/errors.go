package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"
	ErrBusy            = "E_BUSY"

	// Game actions.
	ErrBadRequest   = "E_BAD_REQUEST"
	ErrEmptyCache   = "E_EMPTY_CACHE"
	ErrNoCoinHeld   = "E_NO_COIN_HELD"
	ErrUnknownCache = "E_UNKNOWN_CACHE"
	ErrInternal     = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrBusy:            {},
	ErrBadRequest:      {},
	ErrEmptyCache:      {},
	ErrNoCoinHeld:      {},
	ErrUnknownCache:    {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
