package main

import (
	"context"
	"log"

	"github.com/MostProject/wslistener/internal/app"
	"github.com/MostProject/wslistener/internal/handlers"
	"github.com/MostProject/wslistener/internal/middleware"
	"github.com/aws/aws-lambda-go/lambda"
)

var (
	a       *app.App
	handler middleware.Handler
)

func init() {
	var err error
	a, err = app.New(context.Background())
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}

	disconnect := handlers.NewDisconnectHandler(a.Store, a.Rule)
	handler = a.Wrap(disconnect.Handle, "disconnect", "closed")
}

func main() {
	lambda.StartWithOptions(handler, lambda.WithEnableSIGTERM(a.Shutdown))
}
