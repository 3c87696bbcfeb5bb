// Command contactsection serves the portfolio contact section and forwards
// submissions to the configured email transport.
package main

import (
	"context"
	"log"

	"github.com/dalemusser/contactsection/app"
	"github.com/dalemusser/contactsection/internal/app/bootstrap"
)

func main() {
	if err := app.Run(context.Background(), bootstrap.Hooks); err != nil {
		log.Fatal(err)
	}
}
