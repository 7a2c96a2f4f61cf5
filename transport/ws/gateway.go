package ws

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/duetchat/duet/core"
	"github.com/duetchat/duet/realtime"
)

const (
	defaultSendQueueSize = 256
	defaultWriteTimeout  = 5 * time.Second
)

// Gateway upgrades HTTP requests to websocket channels and wires them into
// the connection registry. The access token is presented as a query
// parameter at handshake time; a request without a valid token is refused
// before any binding is created.
type Gateway struct {
	log      *slog.Logger
	registry *realtime.Registry

	sendQueueSize int
	writeTimeout  time.Duration
}

// NewGateway constructs a gateway with default queue and timeout settings.
func NewGateway(log *slog.Logger, registry *realtime.Registry) *Gateway {
	return &Gateway{
		log:           log,
		registry:      registry,
		sendQueueSize: defaultSendQueueSize,
		writeTimeout:  defaultWriteTimeout,
	}
}

// ServeHTTP handles a channel open request.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims, err := g.registry.Authenticate(r.URL.Query().Get("token"))
	if err != nil {
		g.log.Info("ws.reject", "remote", r.RemoteAddr, "err", err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		g.log.Error("ws.accept_fail", "err", err)
		return
	}

	channelID := realtime.NewChannelID()
	client := realtime.NewClient(claims.IdentityID, channelID, g.sendQueueSize)

	g.registry.Bind(claims.IdentityID, client)
	g.log.Info("ws.connect", "identity", claims.IdentityID, "channel", channelID)

	// The server only pushes; inbound frames are drained for control
	// handling and to detect the peer going away.
	ctx := conn.CloseRead(r.Context())

	defer func() {
		client.Close("connection closed")
		g.registry.Unbind(claims.IdentityID, channelID)
		_ = conn.Close(websocket.StatusNormalClosure, "bye")
		g.log.Info("ws.disconnect", "identity", claims.IdentityID, "channel", channelID)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-client.Done():
			g.drain(conn, client)
			return
		case ev := <-client.Events():
			if err := g.write(conn, ev); err != nil {
				g.log.Info("ws.write_fail", "channel", channelID, "err", err)
				return
			}
		}
	}
}

// drain flushes events enqueued before Close was signalled, so an evicted
// channel still observes its SESSION_TERMINATED event.
func (g *Gateway) drain(conn *websocket.Conn, client *realtime.Client) {
	for {
		select {
		case ev := <-client.Events():
			if err := g.write(conn, ev); err != nil {
				return
			}
		default:
			_ = conn.Close(websocket.StatusPolicyViolation, client.CloseReason())
			return
		}
	}
}

func (g *Gateway) write(conn *websocket.Conn, ev core.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), g.writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, ev)
}
