package main

import (
	"context"
	"log"

	"github.com/dmarchuk/gatekeep/internal/gateway"
	"github.com/dmarchuk/gatekeep/internal/gateway/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app := gateway.NewApp(cfg)

	if err := app.Run(ctx); err != nil {
		log.Printf("%v", err)
	}

}
