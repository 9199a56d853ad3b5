package main

import (
	"log"

	"github.com/wielebenwir/commonsmap/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		log.Fatalf("commonsmap failed to start: %v", err)
	}
	if err := a.Run(); err != nil {
		log.Fatalf("commonsmap failed: %v", err)
	}
}
