//go:build ignore

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
)

const baseURL = "http://localhost:3000/api"

func prettyPrint(body []byte) {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		fmt.Println(string(body))
		return
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func post(path string, payload interface{}) []byte {
	b, _ := json.Marshal(payload)
	resp, err := http.Post(baseURL+path, "application/json", bytes.NewReader(b))
	if err != nil {
		log.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("POST %s -> %d\n", path, resp.StatusCode)
	return body
}

func get(path string) []byte {
	resp, err := http.Get(baseURL + path)
	if err != nil {
		log.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("GET %s -> %d\n", path, resp.StatusCode)
	return body
}

func main() {
	ask := map[string]interface{}{
		"user_id":    "dev-user-1",
		"session_id": "dev-session-1",
		"question":   "What is the retention period for audit logs?",
	}

	fmt.Println("== first ask ==")
	prettyPrint(post("/qa/v1/ask", ask))

	fmt.Println("\n== repeated ask (expect from_cache=true) ==")
	prettyPrint(post("/qa/v1/ask", ask))

	threadID := "dev-session-1"
	fmt.Println("\n== checkpoints ==")
	prettyPrint(get("/qa/v1/threads/" + threadID + "/checkpoints"))

	fmt.Println("\n== replay ==")
	prettyPrint(get("/qa/v1/threads/" + threadID + "/replay"))
}
