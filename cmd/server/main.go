// Command server runs the YoChat HTTP API, websocket hub and notification workers.
package main

import (
	"log"

	"yochat/internal/transport/http"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if err := http.Run(); err != nil {
		log.Fatalf("[Server] %v", err)
	}
}
