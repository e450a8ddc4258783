package handler

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/voyage-finance/voyage-llm-forwarder/models"
)

const errorPrefix = "An error occurred: "

// Headers returns the CORS header set sent with every envelope.
func Headers() map[string]string {
	return map[string]string{
		"Content-Type":                 "application/json",
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": "Content-Type,X-Amz-Date,Authorization,X-Api-Key,X-Amz-Security-Token",
		"Access-Control-Allow-Methods": "OPTIONS,POST",
	}
}

// Success builds the 200 envelope.
func Success(text string, history []models.ConversationTurn) events.APIGatewayProxyResponse {
	return envelope(http.StatusOK, models.ChatResponse{
		Success:             true,
		Response:            text,
		ConversationHistory: history,
	})
}

// Failure builds the 500 envelope. Only err's message is exposed.
func Failure(err error) events.APIGatewayProxyResponse {
	return envelope(http.StatusInternalServerError, models.ChatResponse{
		Success: false,
		Error:   errorPrefix + err.Error(),
	})
}

func envelope(status int, body models.ChatResponse) events.APIGatewayProxyResponse {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	encoded := ""
	if err := enc.Encode(body); err != nil {
		status = http.StatusInternalServerError
		encoded = `{"success":false,"error":"An error occurred: failed to encode response"}`
	} else {
		encoded = string(bytes.TrimRight(buf.Bytes(), "\n"))
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    Headers(),
		Body:       encoded,
	}
}
