package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/docupine/docupine-backend/internal/chatclient"
)

func main() {
	var (
		server  = flag.String("server", "http://localhost:8080", "backend base URL")
		token   = flag.String("token", os.Getenv("DOCUPINE_TOKEN"), "bearer token")
		fileID  = flag.String("file", "", "document id to chat with")
		pollKey = flag.String("poll", "", "storage key to wait for instead of -file")
	)
	flag.Parse()

	client, err := chatclient.NewClient(*server, *token, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	target := *fileID
	if *pollKey != "" {
		fmt.Fprintf(os.Stderr, "waiting for %s...\n", *pollKey)
		info, err := chatclient.PollDocument(ctx, client, chatclient.DefaultRetryPolicy(), *pollKey)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "file %s is %s (%d pages)\n", info.Name, info.Status, info.PageCount)
		target = info.ID
	}
	if target == "" {
		fmt.Fprintln(os.Stderr, "error: one of -file or -poll is required")
		os.Exit(1)
	}

	cache := chatclient.NewMessageCache()
	session, err := chatclient.NewSession(target, cache, client, func(notice string) {
		fmt.Fprintf(os.Stderr, "! %s\n", notice)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Type a question and press enter. Ctrl-D to quit.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		session.SetInput(scanner.Text())
		if err := session.Submit(ctx); err != nil {
			if err == chatclient.ErrEmptyMessage {
				continue
			}
			fmt.Fprintf(os.Stderr, "send failed: %v\n", err)
			continue
		}
		msgs := cache.Messages()
		if len(msgs) > 0 {
			last := msgs[len(msgs)-1]
			if !last.IsUserMessage {
				fmt.Println(strings.TrimSpace(last.Text))
			}
		}
	}
}
