package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/JPKrishna28/yt-sync-backend/internal/domain"
)

var (
	addr = flag.String("addr", "localhost:3001", "http service address")
	room = flag.String("room", "lobby", "room to join")
	name = flag.String("name", "guest", "display name for chat messages")
)

func main() {
	flag.Parse()

	conn := connectWebSocket()
	defer conn.Close()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	done := make(chan struct{})
	go readEvents(conn, done)

	send(conn, domain.EventJoinRoom, domain.JoinRoom{RoomID: *room})

	fmt.Println("Commands: /play <sec>, /pause <sec>, /seek <sec>, anything else is chat. Ctrl-C quits.")
	writeLoop(conn, interrupt, done)
}

func connectWebSocket() *websocket.Conn {
	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Failed to connect to WebSocket server: %v", err)
	}
	log.Println("Connected to WebSocket server.")
	return conn
}

func send(conn *websocket.Conn, evt domain.EventType, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Error encoding %s: %v", evt, err)
		return
	}
	if err := conn.WriteJSON(domain.Envelope{Type: evt, Data: data}); err != nil {
		log.Printf("Error sending %s: %v", evt, err)
	}
}

func readEvents(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		var env domain.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			log.Printf("Error reading event: %v", err)
			return
		}

		switch env.Type {
		case domain.EventRoomJoined:
			var p domain.RoomJoined
			if json.Unmarshal(env.Data, &p) == nil {
				fmt.Printf("\n* joined room %s as %s (first user: %v)\n", p.RoomID, p.UserID, p.IsFirstUser)
			}
		case domain.EventRoomFull:
			var p domain.RoomFull
			if json.Unmarshal(env.Data, &p) == nil {
				fmt.Printf("\n* room %s is full\n", p.RoomID)
			}
		case domain.EventUserConnected, domain.EventUserDisconnected:
			var p domain.RoomPresence
			if json.Unmarshal(env.Data, &p) == nil {
				fmt.Printf("\n* room %s now has %d user(s)\n", p.RoomID, p.UsersCount)
			}
		case domain.EventChatMessage:
			var p domain.ChatMessage
			if json.Unmarshal(env.Data, &p) == nil {
				fmt.Printf("\n[%s] %s\n", p.Username, p.Message)
			}
		case domain.EventVideoAction:
			var p domain.VideoAction
			if json.Unmarshal(env.Data, &p) == nil {
				fmt.Printf("\n* peer %s video at %.1fs\n", p.Action, p.CurrentTime)
			}
		default:
			fmt.Printf("\n* %s: %s\n", env.Type, string(env.Data))
		}
	}
}

func writeLoop(conn *websocket.Conn, interrupt chan os.Signal, done chan struct{}) {
	scanner := bufio.NewScanner(os.Stdin)
	lines := make(chan string)
	go func() {
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Println("Interrupt received, closing connection...")
			err := conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Printf("Error during close: %v", err)
			}
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if line == "" {
				continue
			}
			handleLine(conn, line)
		}
	}
}

func handleLine(conn *websocket.Conn, line string) {
	if action, pos, ok := parseVideoCommand(line); ok {
		send(conn, domain.EventVideoAction, domain.VideoAction{
			RoomID:      *room,
			Action:      action,
			CurrentTime: pos,
		})
		fmt.Printf("[sent] %s at %.1fs\n", action, pos)
		return
	}

	send(conn, domain.EventChatMessage, domain.ChatMessage{
		RoomID:    *room,
		Username:  *name,
		Message:   line,
		Timestamp: time.Now().UnixMilli(),
	})
}

func parseVideoCommand(line string) (action string, pos float64, ok bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", 0, false
	}
	switch fields[0] {
	case "/play", "/pause", "/seek":
		action = strings.TrimPrefix(fields[0], "/")
	default:
		return "", 0, false
	}
	if len(fields) > 1 {
		if v, err := strconv.ParseFloat(fields[1], 64); err == nil {
			pos = v
		}
	}
	return action, pos, true
}
