package handlers

import (
	"net/http"
	"time"

	ws "github.com/coder/websocket"
)

const watchPingInterval = 30 * time.Second

// WatchAccount upgrades to a WebSocket and streams account document
// snapshots until the client disconnects. The first frame is the current
// document so a reconnecting client never acts on a stale snapshot.
func (a *App) WatchAccount(w http.ResponseWriter, r *http.Request) {
	account, ok := a.requireAccount(w, r)
	if !ok {
		return
	}

	conn, err := ws.Accept(w, r, nil)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("websocket accept failed")
		return
	}
	defer conn.Close(ws.StatusNormalClosure, "")

	ch, cancel := a.Hub.Subscribe(account.ID)
	defer cancel()

	ctx := r.Context()

	usage, err := a.Gate.Snapshot(ctx, account.Actor())
	if err == nil {
		a.Hub.Publish(account.ID, buildAccountDocument(account, usage, a.Gate.Limit()))
	}

	// Reads are discarded; the stream is one-way. A read error means the
	// peer went away and ends the handler.
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(watchPingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.Write(ctx, ws.MessageText, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.Ping(ctx); err != nil {
				return
			}
		case <-readDone:
			return
		case <-ctx.Done():
			return
		}
	}
}
