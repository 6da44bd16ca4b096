package main

import (
	"log"

	"github.com/MrSnakeDoc/portal/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ portal failed: %v", err)
	}
}
