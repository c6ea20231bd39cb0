package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/dmarchuk/gatekeep/internal/cli"
)

func main() {

	addr := flag.String("addr", "http://localhost:3000", "gateway address")
	flag.Parse()

	fmt.Println("Gatekeep client. Type 'help' for a list of commands.")

	app := cli.NewApp(*addr)
	app.Run(context.Background())

}
