// Command lasthandle prints the most recently minted handle, read from
// last_handle.json or from a running mock, or an empty line if none.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"handlemock/internal/lasthandle"
)

func main() {
	file := flag.String("file", lasthandle.DefaultFile, "marker file to read")
	url := flag.String("url", "", "base URL of a running mock; queried instead of the file")
	flag.Parse()

	handle, err := lookup(*file, *url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lasthandle: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(handle)
}

func lookup(file, url string) (string, error) {
	if url == "" {
		return lasthandle.Read(file)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return fetch(ctx, http.DefaultClient, strings.TrimRight(url, "/")+"/api/last-handle")
}

func fetch(ctx context.Context, client *http.Client, endpoint string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to query %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%s: %s: %s", endpoint, resp.Status, strings.TrimSpace(string(body)))
	}

	var out struct {
		Handle string `json:"handle"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return out.Handle, nil
}
