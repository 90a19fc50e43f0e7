package main

import (
	"context"
	"log"

	"github.com/swiftcourier/courier-api/internal/app/api"
)

func main() {
	if err := api.Run(context.Background()); err != nil {
		log.Fatalf("courier api: %v", err)
	}
}
