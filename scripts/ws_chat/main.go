package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/roomcast/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	server := flag.String("server", "ws://localhost:8080", "server base URL")
	room := flag.String("room", "general", "room to join")
	token := flag.String("token", "", "access token (see `roomcast token`)")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	addr := fmt.Sprintf("%s/api/v1/messages/ws/%s?token=%s", *server, url.PathEscape(*room), url.QueryEscape(*token))
	conn, _, err := websocket.Dial(ctx, addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	fmt.Printf("Connected to room %s\n", *room)
	fmt.Println("Type messages and press Enter to send. /typing and /stop toggle the typing indicator. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, conn)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			case websocket.StatusPolicyViolation:
				log.Printf("server refused the token")
				return
			}
			log.Printf("read error: %v", err)
			return
		}
		printEvent(data)
	}
}

func printEvent(data []byte) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		log.Printf("decode event: %v", err)
		return
	}

	switch head.Type {
	case proto.TypeMessage:
		var evt proto.Message
		if err := json.Unmarshal(data, &evt); err == nil {
			fmt.Printf("[%s] %s: %s\n", evt.RoomID, evt.SenderName, evt.Content)
		}
	case proto.TypeTyping:
		var evt proto.Typing
		if err := json.Unmarshal(data, &evt); err == nil && evt.IsTyping {
			fmt.Printf("%s is typing...\n", evt.UserName)
		}
	case proto.TypeUserJoined, proto.TypeUserLeft:
		var evt proto.Presence
		if err := json.Unmarshal(data, &evt); err == nil {
			verb := "joined"
			if evt.Type == proto.TypeUserLeft {
				verb = "left"
			}
			fmt.Printf("%s %s\n", evt.UserName, verb)
		}
	case proto.TypeMessageRead:
		var evt proto.MessageRead
		if err := json.Unmarshal(data, &evt); err == nil {
			fmt.Printf("message %d read by %d\n", evt.MessageID, evt.ReaderID)
		}
	case proto.TypeError:
		var evt proto.Error
		if err := json.Unmarshal(data, &evt); err == nil {
			fmt.Printf("error %s: %s\n", evt.Code, evt.Message)
		}
	default:
		fmt.Printf("%s\n", data)
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}

			var in proto.Inbound
			switch text {
			case "/typing", "/stop":
				typing := text == "/typing"
				in = proto.Inbound{Type: proto.TypeTyping, IsTyping: &typing}
			default:
				in = proto.Inbound{Type: proto.TypeMessage, Content: text}
			}
			if err := wsjson.Write(ctx, conn, in); err != nil {
				log.Printf("send error: %v", err)
				return
			}
		}
	}
}
