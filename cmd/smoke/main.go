// Command smoke exercises a running profitgraph server end to end.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "server base URL")
	video := flag.String("video", "", "video id or URL to process; empty runs the next pending transcript")
	wait := flag.Duration("wait", 2*time.Second, "delay before the first request")
	flag.Parse()

	time.Sleep(*wait)
	client := &http.Client{Timeout: 15 * time.Minute}

	fmt.Println("Starting smoke test...")

	fmt.Println("1. Health check...")
	if !sendRequest(client, "GET", *baseURL+"/healthz", nil, http.StatusOK) {
		fmt.Println("FAILED: Health check")
		os.Exit(1)
	}
	fmt.Println("PASSED: Health check")

	fmt.Println("2. Listing pending transcripts...")
	if !sendRequest(client, "GET", *baseURL+"/transcripts/pending", nil, http.StatusOK) {
		fmt.Println("FAILED: Pending list")
		os.Exit(1)
	}
	fmt.Println("PASSED: Pending list")

	fmt.Println("3. Running pipeline...")
	payload := map[string]interface{}{"limit": 1}
	if *video != "" {
		payload = map[string]interface{}{"video": *video}
	}
	if !sendRequest(client, "POST", *baseURL+"/pipeline/runs", payload, http.StatusOK) {
		fmt.Println("FAILED: Pipeline run")
		os.Exit(1)
	}
	fmt.Println("PASSED: Pipeline run")
}

func sendRequest(client *http.Client, method, url string, payload interface{}, want int) bool {
	var body io.Reader
	if payload != nil {
		jsonBytes, _ := json.Marshal(payload)
		body = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		fmt.Printf("Error creating request: %v\n", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error sending request: %v\n", err)
		return false
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != want {
		fmt.Printf("Request failed with status %d: %s\n", resp.StatusCode, string(respBody))
		return false
	}
	fmt.Printf("Response: %s\n", string(respBody))
	return true
}
