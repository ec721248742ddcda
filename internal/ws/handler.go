package ws

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Origin checks are handled by the CORS layer
	},
}

// ServeWS upgrades the request and subscribes the client to the ladder
// event feed. memberID comes from the auth middleware.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, memberID int) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] Upgrade failed for member %d: %v", memberID, err)
		return
	}

	client := &Client{
		conn:     conn,
		memberID: memberID,
		send:     make(chan []byte, 64),
	}
	h.add(client)

	go client.writePump()
	go client.readPump(h)
}
