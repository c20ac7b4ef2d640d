// Package voice relays WebSocket frames between the browser and the hosted
// realtime voice API. The proxy authenticates the client, dials the
// upstream, and pumps frames in both directions; client frames that arrive
// before the upstream connection is ready are buffered and flushed once it
// is.
package voice

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"arcai/internal/auth"
)

const (
	// tokenSubprotocolPrefix carries the bearer token when browser WebSocket
	// clients cannot set an Authorization header.
	tokenSubprotocolPrefix = "bearer."

	upstreamDialTimeout = 15 * time.Second
	writeTimeout        = 10 * time.Second

	// pendingFrameLimit caps how many client frames are held while the
	// upstream dial is in flight.
	pendingFrameLimit = 64
)

type frame struct {
	messageType int
	data        []byte
}

// Proxy relays authenticated WebSocket connections to the upstream voice API.
type Proxy struct {
	upstreamURL string
	upstreamKey string
	verifier    auth.JWTVerifier
	upgrader    websocket.Upgrader
	logger      *slog.Logger
}

// NewProxy creates a voice relay for the given upstream endpoint.
func NewProxy(upstreamURL, upstreamKey string, verifier auth.JWTVerifier, logger *slog.Logger) *Proxy {
	return &Proxy{
		upstreamURL: upstreamURL,
		upstreamKey: upstreamKey,
		verifier:    verifier,
		logger:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The browser client connects from the app origin; CORS is
			// enforced at the HTTP layer before the upgrade.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP authenticates the request, upgrades it, and relays frames until
// either side closes.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token, subprotocol := extractToken(r)
	if token == "" {
		http.Error(w, "missing bearer token", http.StatusUnauthorized)
		return
	}

	claims, err := p.verifier.VerifyToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	var responseHeader http.Header
	if subprotocol != "" {
		// Echo the token subprotocol so the browser accepts the handshake.
		responseHeader = http.Header{"Sec-WebSocket-Protocol": []string{subprotocol}}
	}

	client, err := p.upgrader.Upgrade(w, r, responseHeader)
	if err != nil {
		p.logger.Warn("voice upgrade failed", "error", err)
		return
	}
	defer client.Close()

	p.logger.Info("voice session opened", "user_id", claims.Subject)
	p.relay(r.Context(), client)
	p.logger.Info("voice session closed", "user_id", claims.Subject)
}

// relay dials the upstream while buffering early client frames, then runs
// one pump per direction until the first error.
func (p *Proxy) relay(ctx context.Context, client *websocket.Conn) {
	pending := make(chan frame, pendingFrameLimit)

	// Read from the client immediately so frames sent during the upstream
	// dial are not lost. Closing pending signals the client side is gone.
	go func() {
		for {
			messageType, data, err := client.ReadMessage()
			if err != nil {
				close(pending)
				return
			}
			select {
			case pending <- frame{messageType, data}:
			default:
				p.logger.Warn("voice client frame dropped, buffer full")
			}
		}
	}()

	upstream, err := p.dialUpstream(ctx)
	if err != nil {
		p.logger.Error("voice upstream dial failed", "error", err)
		msg := websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "upstream unavailable")
		_ = client.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeTimeout))
		return
	}
	defer upstream.Close()

	upstreamDone := make(chan struct{})
	go func() {
		defer close(upstreamDone)
		for {
			messageType, data, err := upstream.ReadMessage()
			if err != nil {
				return
			}
			client.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := client.WriteMessage(messageType, data); err != nil {
				return
			}
		}
	}()

	// Flush buffered frames, then keep forwarding until the client reader
	// closes the channel or the upstream side ends.
	for {
		select {
		case f, ok := <-pending:
			if !ok {
				return
			}
			upstream.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := upstream.WriteMessage(f.messageType, f.data); err != nil {
				return
			}
		case <-upstreamDone:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (p *Proxy) dialUpstream(ctx context.Context) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, upstreamDialTimeout)
	defer cancel()

	header := http.Header{}
	if p.upstreamKey != "" {
		header.Set("Authorization", "Bearer "+p.upstreamKey)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(dialCtx, p.upstreamURL, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return conn, err
}

// extractToken pulls the bearer token from the Authorization header or from
// a "bearer.<token>" WebSocket subprotocol. It returns the matched
// subprotocol (if any) so the handshake can echo it back.
func extractToken(r *http.Request) (token, subprotocol string) {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer "), ""
	}

	for _, proto := range websocket.Subprotocols(r) {
		if strings.HasPrefix(proto, tokenSubprotocolPrefix) {
			return strings.TrimPrefix(proto, tokenSubprotocolPrefix), proto
		}
	}
	return "", ""
}
