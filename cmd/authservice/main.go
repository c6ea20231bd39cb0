package main

import (
	"context"
	"log"

	"github.com/dmarchuk/gatekeep/internal/authservice"
	"github.com/dmarchuk/gatekeep/internal/authservice/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app := authservice.NewApp(cfg)

	if err := app.Run(ctx); err != nil {
		log.Printf("%v", err)
	}

}
