package main

import (
	"context"
	"log"

	"github.com/dmarchuk/gatekeep/internal/userservice"
	"github.com/dmarchuk/gatekeep/internal/userservice/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app := userservice.NewApp(cfg)

	if err := app.Run(ctx); err != nil {
		log.Printf("%v", err)
	}

}
