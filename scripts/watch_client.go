// Package main runs a demo client for the watch server's progress stream.
package main

import (
	"log"
	"net/url"
	"os"

	"github.com/gorilla/websocket"
)

func main() {
	addr := os.Getenv("WATCH_ADDR")
	if addr == "" {
		addr = "localhost:9090"
	}
	if len(os.Args) < 2 {
		log.Fatal("usage: watch_client <run-id>")
	}
	runID := os.Args[1]

	u := url.URL{Scheme: "ws", Host: addr, Path: "/watch",
		RawQuery: url.Values{"run": {runID}}.Encode()}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	log.Printf("watching run %s", runID)
	for {
		var evt struct {
			Type string         `json:"Type"`
			Data map[string]any `json:"Data"`
		}
		if err := c.ReadJSON(&evt); err != nil {
			log.Printf("read: %v", err)
			return
		}
		log.Printf("WS <- %s: %v", evt.Type, evt.Data)
		if evt.Type == "run.finished" {
			return
		}
	}
}
