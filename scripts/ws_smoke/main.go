package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/roomcast/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	server := flag.String("server", "ws://localhost:8080", "server base URL")
	room := flag.String("room", "general", "room name")
	token := flag.String("token", "", "access token (see `roomcast token`)")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	addr := fmt.Sprintf("%s/api/v1/messages/ws/%s?token=%s", *server, url.PathEscape(*room), url.QueryEscape(*token))
	conn, _, err := websocket.Dial(ctx, addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	typing := true
	for _, in := range []proto.Inbound{
		{Type: proto.TypeTyping, IsTyping: &typing},
		{Type: proto.TypeMessage, Content: *text, RoomID: *room},
	} {
		if err := wsjson.Write(ctx, conn, in); err != nil {
			return fmt.Errorf("send: %w", err)
		}
	}

	for {
		var outbound map[string]any
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			if websocket.CloseStatus(err) == websocket.StatusPolicyViolation {
				return errors.New("server refused the token")
			}
			return fmt.Errorf("read: %w", err)
		}

		fmt.Printf("Received outbound: %v\n", outbound)
		if outbound["type"] == proto.TypeMessage && outbound["content"] == *text {
			fmt.Println("Smoke test succeeded")
			return nil
		}
	}
}
