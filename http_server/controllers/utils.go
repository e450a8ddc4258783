package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
)

// WriteEnvelope copies a Lambda proxy response onto rw.
func WriteEnvelope(rw http.ResponseWriter, resp events.APIGatewayProxyResponse) {
	for k, v := range resp.Headers {
		rw.Header().Set(k, v)
	}
	rw.WriteHeader(resp.StatusCode)
	_, _ = rw.Write([]byte(resp.Body))
}

func writeJSON(rw http.ResponseWriter, status int, v interface{}) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}
