package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/doodleyaar/client/internal/api"
	"github.com/doodleyaar/client/internal/capture"
	"github.com/doodleyaar/client/internal/client"
	"github.com/doodleyaar/client/internal/protocol"
	"github.com/doodleyaar/client/internal/session"
	"github.com/doodleyaar/client/internal/stroke"
	"github.com/doodleyaar/client/internal/transport"
)

func main() {
	var (
		serverURL = flag.String("server", "ws://localhost:3000/ws", "authority websocket URL")
		nick      = flag.String("nick", "", "nickname (random guest name when empty)")
		code      = flag.String("join", "", "session code to join; creates a new session when empty")
		listen    = flag.String("listen", ":8081", "viewer listen address (empty disables the viewer)")
		width     = flag.Int("width", 800, "canvas width in pixels")
		height    = flag.Int("height", 600, "canvas height in pixels")
	)
	flag.Parse()

	if *nick == "" {
		*nick = "guest-" + uuid.NewString()[:8]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	conn, err := transport.Dial(ctx, *serverURL)
	cancel()
	if err != nil {
		log.Fatalf("Failed to reach the session authority: %v", err)
	}

	c := client.New(conn, *width, *height, client.Callbacks{
		OnSession: func(code, nickname string) {
			log.Printf("🎨 In session %s as %s", code, nickname)
		},
		OnMembers: func(members []session.Member) {
			parts := make([]string, 0, len(members))
			for _, m := range members {
				name := m.Nickname
				if m.Host {
					name += " (host)"
				}
				if m.You {
					name += " (you)"
				}
				parts = append(parts, name)
			}
			log.Printf("Members (%d): %s", len(members), strings.Join(parts, ", "))
		},
		OnChat: func(chat []protocol.ChatMessage) {
			if len(chat) > 0 {
				last := chat[len(chat)-1]
				log.Printf("[chat] %s: %s", last.Nickname, last.Message)
			}
		},
		OnError: func(text string) {
			log.Printf("⚠️ %s", text)
		},
	})
	defer c.Close()

	if *code != "" {
		err = c.JoinSession(*nick, *code)
	} else {
		err = c.CreateSession(*nick)
	}
	if err != nil {
		log.Fatalf("Session request failed: %v", err)
	}

	if *listen != "" {
		viewer := api.New(c)
		go func() {
			log.Printf("🖼️ Viewer on %s", *listen)
			log.Println("  - Canvas: GET /canvas.png")
			log.Println("  - Stats:  GET /stats")
			log.Println("  - Health: GET /health")
			if err := http.ListenAndServe(*listen, viewer.Router()); err != nil {
				log.Printf("Viewer stopped: %v", err)
			}
		}()
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Println("Leaving session...")
		c.Close()
		os.Exit(0)
	}()

	go repl(c, *width, *height)

	<-c.Done()
	log.Println("Connection to the authority ended")
}

// repl reads drawing and chat commands from stdin so the client can be
// driven without a UI.
func repl(c *client.Client, width, height int) {
	fmt.Println("Commands: say <msg> | tool <name> | color <#hex> | size <n> | opacity <0-1> |")
	fmt.Println("          stroke <x,y> <x,y> ... (normalized coords) | undo | clear | quit")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		var err error
		switch fields[0] {
		case "say":
			err = c.SendMessage(strings.Join(fields[1:], " "))
		case "tool":
			if len(fields) == 2 {
				c.SetTool(stroke.Tool(fields[1]))
			}
		case "color":
			if len(fields) == 2 {
				c.SetColor(fields[1])
			}
		case "size":
			if len(fields) == 2 {
				var v float64
				if v, err = strconv.ParseFloat(fields[1], 64); err == nil {
					c.SetSize(v)
				}
			}
		case "opacity":
			if len(fields) == 2 {
				var v float64
				if v, err = strconv.ParseFloat(fields[1], 64); err == nil {
					c.SetOpacity(v)
				}
			}
		case "stroke":
			err = drawStroke(c, fields[1:], width, height)
		case "undo":
			err = c.Undo()
		case "clear":
			err = c.ClearCanvas()
		case "quit":
			c.Close()
			return
		default:
			fmt.Printf("unknown command %q\n", fields[0])
		}
		if err != nil {
			fmt.Printf("error: %v\n", err)
		}
	}
}

// drawStroke replays a point list through the capture pipeline, exactly
// as pointer input would arrive.
func drawStroke(c *client.Client, args []string, width, height int) error {
	if len(args) == 0 {
		return fmt.Errorf("stroke needs at least one x,y point")
	}

	positions := make([]*capture.Position, 0, len(args))
	for _, arg := range args {
		parts := strings.SplitN(arg, ",", 2)
		if len(parts) != 2 {
			return fmt.Errorf("bad point %q, want x,y", arg)
		}
		x, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return err
		}
		y, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return err
		}
		positions = append(positions, &capture.Position{X: x * float64(width), Y: y * float64(height)})
	}

	c.PointerDown(positions[0])
	for _, pos := range positions[1:] {
		c.PointerMove(pos)
	}
	c.PointerUp()
	return nil
}
