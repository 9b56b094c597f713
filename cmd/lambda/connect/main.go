package main

import (
	"context"
	"log"

	"github.com/MostProject/wslistener/internal/app"
	"github.com/MostProject/wslistener/internal/handlers"
	"github.com/MostProject/wslistener/internal/middleware"
	"github.com/aws/aws-lambda-go/lambda"
)

// Built once at cold start - reused across invocations
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

	connect := handlers.NewConnectHandler(a.Store, a.Rule, nil)
	handler = a.Wrap(connect.Handle, "connect", "new")
}

func main() {
	lambda.StartWithOptions(handler, lambda.WithEnableSIGTERM(a.Shutdown))
}
