// Package main is a terminal chat client for the dev server. It wires a
// protocol client, a store and a session together and prints assistant
// replies as they stream in.
//
// Usage:
//
//	go run ./cmd/chatcli -endpoint http://localhost:8000/threadkit
//
// Commands: /new starts a fresh thread, /threads lists threads,
// /switch <id> resumes one, /quit exits. Anything else is sent as a
// message.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/spetersoncode/threadkit"
	"github.com/spetersoncode/threadkit/client"
	"github.com/spetersoncode/threadkit/session"
	"github.com/spetersoncode/threadkit/store"
)

func main() {
	godotenv.Load()

	endpoint := flag.String("endpoint", "http://localhost:8000/threadkit", "protocol endpoint URL")
	flag.Parse()

	c, err := client.New(client.Config{Endpoint: *endpoint})
	if err != nil {
		slog.Error("create client", "error", err)
		os.Exit(1)
	}

	st := store.New()
	sess := session.New(c, st)

	// Print streamed text as it grows, and one-off events as they land.
	var printed int
	var notices int
	st.Subscribe(func(snap store.Snapshot) {
		cur, ok := snap.Current()
		if ok {
			for _, item := range cur.Pending {
				if item.Type == threadkit.ItemAssistantMessage {
					text := item.Text()
					if len(text) > printed {
						fmt.Print(text[printed:])
						printed = len(text)
					}
				}
			}
		}
		for _, n := range snap.Notices[notices:] {
			fmt.Printf("\n[%s] %s\n", n.Level, n.Message)
		}
		notices = len(snap.Notices)
		if snap.Err != nil && !snap.Streaming {
			fmt.Printf("\n[error] %s\n", snap.Err.Message)
		}
	})

	fmt.Println("Connected to", *endpoint)
	fmt.Println("Type a message, or /new, /threads, /switch <id>, /quit")

	scanner := bufio.NewScanner(os.Stdin)
	ctx := context.Background()
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case line == "/quit":
			return
		case line == "/new":
			sess.NewThread()
			fmt.Println("Started a new thread.")
			continue
		case line == "/threads":
			page, err := c.ListThreads(ctx, client.ListParams{Limit: 20})
			if err != nil {
				fmt.Println("list threads:", err)
				continue
			}
			for _, t := range page.Data {
				fmt.Printf("  %s  %s\n", t.ID, t.Title)
			}
			continue
		case strings.HasPrefix(line, "/switch "):
			id := strings.TrimSpace(strings.TrimPrefix(line, "/switch "))
			if err := sess.SwitchThread(ctx, id); err != nil {
				fmt.Println("switch thread:", err)
				continue
			}
			printed = 0
			fmt.Println("Switched to", id)
			continue
		}

		printed = 0
		if err := sess.Send(ctx, threadkit.UserMessageInput{Text: line}); err != nil {
			fmt.Println("send:", err)
			continue
		}
		fmt.Println()
	}
}
