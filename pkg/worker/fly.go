package worker

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// FlyClient starts one-shot render machines on Fly.io. Each machine pulls
// the film's ordered photos from storage by convention and destroys itself
// when the render finishes; completion arrives later via callback.
type FlyClient struct {
	baseURL    string
	token      string
	app        string
	image      string
	httpClient *http.Client
}

func NewFlyClient(baseURL, token, app, image string) *FlyClient {
	return &FlyClient{
		baseURL: baseURL,
		token:   token,
		app:     app,
		image:   image,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type machineGuest struct {
	CPUKind  string `json:"cpu_kind"`
	CPUs     int    `json:"cpus"`
	MemoryMB int    `json:"memory_mb"`
}

type machineProcess struct {
	Entrypoint []string `json:"entrypoint"`
}

type machineConfig struct {
	Image       string           `json:"image"`
	Guest       machineGuest     `json:"guest"`
	AutoDestroy bool             `json:"auto_destroy"`
	Processes   []machineProcess `json:"processes"`
}

type createMachineRequest struct {
	Config machineConfig `json:"config"`
}

type createMachineResponse struct {
	ID string `json:"id"`
}

// LaunchRender creates a machine that renders the given film. Returns the
// machine id.
func (c *FlyClient) LaunchRender(filmID string) (string, error) {
	if c.token == "" {
		return "", fmt.Errorf("fly token is not configured")
	}

	reqBody := createMachineRequest{
		Config: machineConfig{
			Image: c.image,
			Guest: machineGuest{
				CPUKind:  "performance",
				CPUs:     2,
				MemoryMB: 4096,
			},
			AutoDestroy: true,
			Processes: []machineProcess{
				{Entrypoint: []string{"python", "movilagen.py", filmID}},
			},
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/v1/apps/%s/machines", c.baseURL, c.app)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fly machines request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("fly machines API returned %d: %s", resp.StatusCode, string(body))
	}

	var machine createMachineResponse
	if err := json.NewDecoder(resp.Body).Decode(&machine); err != nil {
		return "", fmt.Errorf("failed to decode fly machines response: %w", err)
	}

	return machine.ID, nil
}
