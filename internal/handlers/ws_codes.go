// internal/handlers/ws_codes.go
package handlers

import "github.com/coder/websocket"

// Custom WebSocket close codes used by the game socket.
const (
	BadSubprotocolError websocket.StatusCode = 3000 // Client connected with an unsupported subprotocol.
	RateLimitedError    websocket.StatusCode = 3001 // Client kept flooding after being warned.
	ShuttingDownError   websocket.StatusCode = 3002 // Server is going away.
)

// Error codes carried in protocol.Error events produced by the transport itself.
const (
	codeBadRequest  = "bad_request"
	codeRateLimited = "rate_limited"
)
