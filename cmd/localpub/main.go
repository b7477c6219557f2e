package main

import (
	"log"

	"github.com/localpub/localpub/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		log.Fatalf("localpub failed to start: %v", err)
	}
	if err := a.Run(); err != nil {
		log.Fatalf("localpub exited with error: %v", err)
	}
}
