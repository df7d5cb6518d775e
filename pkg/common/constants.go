package common

const (
	// RedisKeySessionLock serializes strategy evaluation per session.
	RedisKeySessionLock = "nsplit:session:lock:%s"
	// RedisKeyLastPrice mirrors the simulator's latest price per stock code.
	RedisKeyLastPrice = "nsplit:last_price:%s"

	// HeaderSimulatorAPIKey authenticates calls to the simulator service.
	HeaderSimulatorAPIKey = "X-Simulator-API-Key"
	// HeaderUserID carries the opaque caller identity on the trading API.
	HeaderUserID = "X-User-ID"
)
