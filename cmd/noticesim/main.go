// Command noticesim posts a synthetic update notice to a running
// otaagentd's Control API, for manual and integration testing without a
// real cloud control plane.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
)

func main() {
	addr := flag.String("addr", "http://127.0.0.1:8088", "otaagentd control API base URL")
	version := flag.Uint("version", 1, "firmware version in the notice")
	size := flag.Uint("size", 0, "expected image size in bytes")
	url := flag.String("url", "", "blob storage URL")
	sas := flag.String("sas", "", "SAS token/query string appended to url")
	sha256Hex := flag.String("sha256", "", "expected SHA-256 digest, hex")
	flag.Parse()

	if *url == "" || *sas == "" || *sha256Hex == "" || *size == 0 {
		fmt.Fprintln(os.Stderr, "noticesim: -url, -sas, -sha256, and -size are required")
		os.Exit(2)
	}

	if err := submit(*addr, *version, uint(*size), *url, *sas, *sha256Hex); err != nil {
		fmt.Fprintln(os.Stderr, "noticesim:", err)
		os.Exit(1)
	}
}

func submit(addr string, version, size uint, url, sas, sha256Hex string) error {
	body, err := json.Marshal(map[string]string{
		"version": fmt.Sprintf("%d", version),
		"size":    fmt.Sprintf("%d", size),
		"url":     url,
		"sas":     sas,
		"sha256":  sha256Hex,
	})
	if err != nil {
		return err
	}

	resp, err := http.Post(addr+"/notice", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post notice: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("notice rejected: %s: %s", resp.Status, respBody)
	}
	fmt.Println("notice accepted")
	return nil
}
