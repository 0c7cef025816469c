// Demo collaboration server: one engine and one document per document id,
// all engine access serialized through a single-consumer queue. Applied
// operations fan out to every other participant; this is the reconciliation
// harness the engine expects around it, not a production transport.
package main

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/KlikkAI/flowsync/doc"
	"github.com/KlikkAI/flowsync/engine"
	"github.com/KlikkAI/flowsync/op"
)

type wsMessage struct {
	Type     string        `json:"type"` // op | undo | init | applied | conflict | error
	UserID   string        `json:"userId,omitempty"`
	Op       *op.Operation `json:"op,omitempty"`
	Pending  *op.Operation `json:"pending,omitempty"`
	Document *doc.Document `json:"document,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// room owns one document. Everything that touches the engine or the state
// runs on the room goroutine, which is the serialization the engine requires.
type room struct {
	id      string
	eng     *engine.Engine
	state   *doc.Document
	reqs    chan func()
	clients map[*websocket.Conn]string
}

func newRoom(id string) *room {
	r := &room{
		id:      id,
		state:   doc.New(),
		reqs:    make(chan func(), 64),
		clients: make(map[*websocket.Conn]string),
	}
	r.eng = engine.New(engine.WithHooks(engine.Hooks{
		ConflictDetected: func(incoming, pending op.Operation) {
			log.Printf("CONFLICT: doc=%s incoming=%s pending=%s", id, incoming.ID, pending.ID)
			r.broadcast(nil, wsMessage{Type: "conflict", Op: &incoming, Pending: &pending})
		},
	}))
	go r.run()
	return r
}

func (r *room) run() {
	for fn := range r.reqs {
		fn()
	}
}

// do enqueues fn for the room goroutine.
func (r *room) do(fn func()) {
	r.reqs <- fn
}

// broadcast sends msg to every client except skip. Room goroutine only.
func (r *room) broadcast(skip *websocket.Conn, msg wsMessage) {
	for conn := range r.clients {
		if conn == skip {
			continue
		}
		if err := conn.WriteJSON(msg); err != nil {
			log.Printf("WRITE FAILED: doc=%s err=%v", r.id, err)
		}
	}
}

func (r *room) apply(conn *websocket.Conn, o op.Operation) {
	applied, err := r.eng.Apply(o)
	if err != nil {
		conn.WriteJSON(wsMessage{Type: "error", Error: err.Error()})
		return
	}
	if err := r.state.Apply(applied); err != nil {
		log.Printf("STATE APPLY FAILED: doc=%s op=%s err=%v", r.id, applied.ID, err)
	}
	log.Printf("APPLIED: doc=%s op=%s type=%s user=%s version=%d",
		r.id, applied.ID, applied.Type, applied.UserID, applied.Version)
	conn.WriteJSON(wsMessage{Type: "applied", Op: &applied})
	r.broadcast(conn, wsMessage{Type: "applied", Op: &applied})
}

func (r *room) undo(conn *websocket.Conn, userID string) {
	applied, err := r.eng.Undo(userID)
	if err != nil {
		conn.WriteJSON(wsMessage{Type: "error", Error: err.Error()})
		return
	}
	if applied == nil {
		conn.WriteJSON(wsMessage{Type: "error", Error: "nothing to undo"})
		return
	}
	if err := r.state.Apply(*applied); err != nil {
		log.Printf("STATE APPLY FAILED: doc=%s op=%s err=%v", r.id, applied.ID, err)
	}
	log.Printf("UNDO: doc=%s user=%s op=%s version=%d", r.id, userID, applied.ID, applied.Version)
	conn.WriteJSON(wsMessage{Type: "applied", Op: applied})
	r.broadcast(conn, wsMessage{Type: "applied", Op: applied})
}

type server struct {
	rooms    map[string]*room
	roomReqs chan func()
	upgrader websocket.Upgrader
}

func newServer() *server {
	s := &server{
		rooms:    make(map[string]*room),
		roomReqs: make(chan func(), 16),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	go func() {
		for fn := range s.roomReqs {
			fn()
		}
	}()
	return s
}

func (s *server) room(id string) *room {
	got := make(chan *room, 1)
	s.roomReqs <- func() {
		r, ok := s.rooms[id]
		if !ok {
			r = newRoom(id)
			s.rooms[id] = r
		}
		got <- r
	}
	return <-got
}

func (s *server) handleWebSocket(w http.ResponseWriter, req *http.Request) {
	docID := req.URL.Query().Get("doc")
	userID := req.URL.Query().Get("user")
	if docID == "" || userID == "" {
		http.Error(w, "doc and user query params are required", http.StatusBadRequest)
		return
	}
	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.Printf("UPGRADE FAILED: %v", err)
		return
	}

	r := s.room(docID)
	r.do(func() {
		r.clients[conn] = userID
		conn.WriteJSON(wsMessage{Type: "init", Document: r.state.Clone()})
		log.Printf("CLIENT CONNECTED: doc=%s user=%s total=%d", docID, userID, len(r.clients))
	})

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "op":
			if msg.Op == nil {
				continue
			}
			o := *msg.Op
			if o.UserID == "" {
				o.UserID = userID
			}
			r.do(func() { r.apply(conn, o) })
		case "undo":
			r.do(func() { r.undo(conn, userID) })
		}
	}

	r.do(func() {
		delete(r.clients, conn)
		conn.Close()
		log.Printf("CLIENT DISCONNECTED: doc=%s user=%s remaining=%d", docID, userID, len(r.clients))
	})
}

func (s *server) handleSnapshot(w http.ResponseWriter, req *http.Request) {
	r := s.room(mux.Vars(req)["id"])
	snap := make(chan *doc.Document, 1)
	r.do(func() { snap <- r.state.Clone() })
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(<-snap)
}

func (s *server) handleHistory(w http.ResponseWriter, req *http.Request) {
	r := s.room(mux.Vars(req)["id"])
	entries := make(chan []engine.HistoryEntry, 1)
	r.do(func() { entries <- r.eng.History(0) })
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(<-entries)
}

func main() {
	s := newServer()

	r := mux.NewRouter()
	r.HandleFunc("/ws", s.handleWebSocket)
	r.HandleFunc("/documents/{id}", s.handleSnapshot).Methods(http.MethodGet)
	r.HandleFunc("/documents/{id}/history", s.handleHistory).Methods(http.MethodGet)

	log.Println("collaboration server starting on :8080")
	log.Fatal(http.ListenAndServe(":8080", r))
}
