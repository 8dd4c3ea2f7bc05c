package common

const (
	// AuthorizationHeader carries the bearer token on authenticated requests.
	AuthorizationHeader = "Authorization"

	// BearerScheme is the only accepted authorization scheme.
	BearerScheme = "Bearer"

	// HistoryLimit caps the number of operation records returned per user.
	HistoryLimit = 50

	// SessionTokenBytes is the amount of randomness in a session token.
	SessionTokenBytes = 32
)
