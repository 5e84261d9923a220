// Command relay answers single-turn chat messages with Gemini.
//
// Usage:
//
//	GEMINI_API_KEY=... relay ask "こんにちは"
//	GEMINI_API_KEY=... relay chat
//	GEMINI_API_KEY=... relay serve --addr :8080
//	relay init
//	relay prompt set "Be terse."
//	relay log list -n 20
//
// Configuration is read from $RELAY_CONFIG or ~/.relay/config.yaml.
// RELAY_DEBUG=1 enables debug logging.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd(os.Stdin, os.Stdout, os.Stderr, isDebug(os.Getenv("RELAY_DEBUG")))
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "relay: %v\n", err)
		os.Exit(1)
	}
}

func isDebug(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}
