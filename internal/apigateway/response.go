package apigateway

import (
	"net/http"

	"github.com/aws/aws-lambda-go/events"
)

// Fixed response bodies
const (
	MsgConnected    = "Connected"
	MsgDisconnected = "Disconnected"
	MsgMissingID    = "Missing connection ID"
)

// Response builds the proxy response returned to API Gateway
func Response(status int, message string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "text/plain"},
		Body:       message,
	}
}

// OK is a 200 response with message
func OK(message string) events.APIGatewayProxyResponse {
	return Response(http.StatusOK, message)
}

// BadRequest is a 400 response with message
func BadRequest(message string) events.APIGatewayProxyResponse {
	return Response(http.StatusBadRequest, message)
}
