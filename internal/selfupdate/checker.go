// Package selfupdate checks whether a newer build of the agent binary
// itself is available, entirely separate from the ExtMCU firmware
// version the Worker manages — an agent upgrade is applied out of band
// (package manager, image rebuild), never through the OTA state machine.
package selfupdate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Release is the subset of a release channel's response the checker
// needs.
type Release struct {
	TagName string `json:"tag_name"`
	Body    string `json:"body"`
	HTMLURL string `json:"html_url"`
}

// Checker queries a GitHub-style "latest release" endpoint for the agent
// binary's own release channel.
type Checker struct {
	http  *http.Client
	owner string
	repo  string
}

// NewChecker returns a Checker for the given owner/repo release channel.
func NewChecker(owner, repo string) *Checker {
	return &Checker{
		http:  &http.Client{Timeout: 10 * time.Second},
		owner: owner,
		repo:  repo,
	}
}

// CheckForUpdate compares currentVersion against the channel's latest
// release tag, ignoring a leading "v" on either. It returns the release
// when the two tags differ, or (nil, nil) when they are equal. The tags
// are compared for equality only, not ordered, so a latest release older
// than currentVersion is returned as well.
func (c *Checker) CheckForUpdate(ctx context.Context, currentVersion string) (*Release, error) {
	if c.owner == "" || c.repo == "" {
		return nil, fmt.Errorf("selfupdate: owner and repo required")
	}

	url := fmt.Sprintf("https://api.github.com/repos/%s/%s/releases/latest", c.owner, c.repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "otaagent-selfupdate")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("selfupdate: unexpected status %d", resp.StatusCode)
	}

	var rel Release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, err
	}

	current := strings.TrimPrefix(currentVersion, "v")
	remote := strings.TrimPrefix(rel.TagName, "v")
	if current == remote {
		return nil, nil
	}
	return &rel, nil
}
