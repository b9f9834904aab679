// Query Viewer shows voice queries and speech dispatches as they happen.
// It consumes the client's Kafka topics and pushes events to browsers over
// a WebSocket.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/segmentio/kafka-go"
)

// ViewerEvent is the union of voice query and speech events.
type ViewerEvent struct {
	EventType  string `json:"eventType"`
	EventID    string `json:"eventId"`
	SessionID  string `json:"sessionId,omitempty"`
	Language   string `json:"language"`
	Text       string `json:"text,omitempty"`
	Fallback   bool   `json:"fallback,omitempty"`
	Reason     string `json:"reason,omitempty"`
	DurationMs int64  `json:"durationMs,omitempty"`
	Path       string `json:"path,omitempty"`
	Failed     bool   `json:"failed,omitempty"`
	Timestamp  int64  `json:"timestamp"`
}

// Hub manages WebSocket connections
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan ViewerEvent
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mu         sync.Mutex
}

func truncate(s string, maxRunes int) string {
	r := []rune(s)
	if len(r) <= maxRunes {
		return s
	}
	return string(r[:maxRunes]) + "..."
}

func newHub() *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan ViewerEvent, 100),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
	}
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.clients[conn] = true
			n := len(h.clients)
			h.mu.Unlock()
			log.Printf("Client connected. Total: %d", n)

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			n := len(h.clients)
			h.mu.Unlock()
			log.Printf("Client disconnected. Total: %d", n)

		case event := <-h.broadcast:
			h.mu.Lock()
			for conn := range h.clients {
				if err := conn.WriteJSON(event); err != nil {
					log.Printf("Write error: %v", err)
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mu.Unlock()
		}
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local dev only
	},
}

func wsHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade error: %v", err)
			return
		}
		hub.register <- conn

		go func() {
			defer func() {
				hub.unregister <- conn
			}()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}
}

func consumeKafka(ctx context.Context, hub *Hub, brokers, topic string, since time.Duration) {
	// Partition reader without a consumer group works through port-forwards.
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   strings.Split(brokers, ","),
		Topic:     topic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	defer reader.Close()

	if err := reader.SetOffsetAt(ctx, time.Now().Add(-since)); err != nil {
		log.Printf("Could not rewind %s: %v", topic, err)
	}
	log.Printf("Consuming from Kafka topic: %s partition 0 (last %s)", topic, since)

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("Kafka read error on %s: %v", topic, err)
			time.Sleep(time.Second)
			continue
		}

		var event ViewerEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Printf("JSON unmarshal error: %v", err)
			continue
		}

		if event.Path != "" {
			log.Printf("Speech %s via %s (failed: %v)", event.Language, event.Path, event.Failed)
		} else {
			log.Printf("Query %s [%s]: %s", event.SessionID, event.Language, truncate(event.Text, 40))
		}
		hub.broadcast <- event
	}
}

const indexHTML = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>Kisan Voice Queries</title>
<style>
body { font-family: sans-serif; margin: 2rem; background: #f6f8f3; }
li { margin: .4rem 0; padding: .5rem; background: #fff; border-left: 4px solid #4a7c23; }
li.fallback { border-color: #c98a0b; }
li.speech { border-color: #2f6fa3; }
li.failed { border-color: #b3261e; }
small { color: #666; }
</style>
</head>
<body>
<h1>Kisan Voice Queries</h1>
<ul id="events"></ul>
<script>
const list = document.getElementById("events");
const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
ws.onmessage = (msg) => {
  const e = JSON.parse(msg.data);
  const li = document.createElement("li");
  if (e.path) {
    li.className = e.failed ? "speech failed" : "speech";
    li.textContent = "speech [" + e.language + "] via " + e.path;
  } else {
    li.className = e.fallback ? "fallback" : "";
    li.textContent = "[" + e.language + "] " + e.text;
  }
  const meta = document.createElement("small");
  meta.textContent = " " + new Date(e.timestamp).toLocaleTimeString() + (e.sessionId ? " " + e.sessionId : "");
  li.appendChild(meta);
  list.prepend(li);
};
</script>
</body>
</html>`

func main() {
	port := flag.String("port", "8081", "HTTP server port")
	brokers := flag.String("brokers", "localhost:9092", "Kafka brokers (comma-separated)")
	topicQuery := flag.String("topic-query", "kisan.voice.query.v1", "Voice query topic")
	topicSpeech := flag.String("topic-speech", "kisan.voice.speech.v1", "Speech dispatch topic")
	since := flag.Duration("since", time.Hour, "Replay events newer than this")
	flag.Parse()

	hub := newHub()
	go hub.run()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go consumeKafka(ctx, hub, *brokers, *topicQuery, *since)
	go consumeKafka(ctx, hub, *brokers, *topicSpeech, *since)

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(indexHTML))
	})
	http.HandleFunc("/ws", wsHandler(hub))

	log.Printf("Query Viewer starting on http://localhost:%s", *port)
	log.Printf("   Kafka brokers: %s", *brokers)
	log.Printf("   Topics: %s, %s", *topicQuery, *topicSpeech)

	if err := http.ListenAndServe(":"+*port, nil); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
