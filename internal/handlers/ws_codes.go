package handlers

// Custom WebSocket close codes used by the room and game handlers. These
// give clients a more specific reason than the standard codes.
const (
	BadSubprotocolError   = 3000 // Client connected with an unsupported subprotocol.
	InvalidAuthTokenError = 3001 // Provided auth token was invalid or expired.
	InvalidRoomIDError    = 3002 // Target room ID in the WS URL is malformed or unknown.
	InvalidGameIDError    = 3003 // Target game ID in the WS URL is malformed or unknown.
)
