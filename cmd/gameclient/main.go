// Command gameclient plays one mini-game round against a running server. It
// is a manual smoke test for the game websocket.
package main

import (
	"flag"
	"log"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

type Message struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

func main() {
	var (
		server   = flag.String("server", "ws://localhost:8080/api/v1/game/ws", "game websocket url")
		token    = flag.String("token", "", "session token from POST /api/v1/auth/login")
		hits     = flag.Int("hits", 5, "hits before dropping the ball")
		interval = flag.Duration("interval", time.Second, "delay between frames")
	)
	flag.Parse()

	if *token == "" {
		log.Fatal("-token is required")
	}

	u, err := url.Parse(*server)
	if err != nil {
		log.Fatalf("invalid server url: %v", err)
	}
	q := u.Query()
	q.Set("token", *token)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer conn.Close()

	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			_, p, err := conn.ReadMessage()
			if err != nil {
				log.Println("read error:", err)
				return
			}

			log.Printf("Received:\n%s\n", p)

			var msg Message
			if err = json.Unmarshal(p, &msg); err != nil {
				continue
			}
			if msg.Type == "game_over" {
				return
			}
			if msg.Type == "error" && msg.Payload["next_available_at_unix"] != nil {
				return
			}
		}
	}()

	script := []string{"player_state", "game_start"}
	for i := 0; i < *hits; i++ {
		script = append(script, "ball_hit")
	}
	script = append(script, "ball_dropped")

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for _, msgType := range script {
		select {
		case <-done:
			return
		case <-ticker.C:
		}

		mJson, err := json.MarshalIndent(Message{Type: msgType}, "", "  ")
		if err != nil {
			log.Println("json marshal error:", err)
			continue
		}
		if err = conn.WriteMessage(websocket.TextMessage, mJson); err != nil {
			log.Println("write error:", err)
			return
		}
		log.Printf("Sent:\n%s\n", string(mJson))
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		log.Println("timed out waiting for game_over")
	}

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
