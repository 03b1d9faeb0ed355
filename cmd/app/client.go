package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	defaultServer = "http://127.0.0.1:8080"
	defaultSocket = "/tmp/rgn.sock"
)

type cliConfig struct {
	Transport     string `json:"transport"`
	Server        string `json:"server"`
	Socket        string `json:"socket"`
	ActorID       uint   `json:"actor_id"`
	ActorParishID *uint  `json:"actor_parish_id,omitempty"`
}

type apiClient struct {
	httpClient    *http.Client
	server        string
	actorID       uint
	actorParishID *uint
}

func newAPIClient(cfg cliConfig) *apiClient {
	return &apiClient{
		httpClient:    &http.Client{Timeout: 20 * time.Second},
		server:        strings.TrimRight(cfg.Server, "/"),
		actorID:       cfg.ActorID,
		actorParishID: cfg.ActorParishID,
	}
}

func (c *apiClient) request(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	switch v := in.(type) {
	case nil:
	case json.RawMessage:
		body = bytes.NewReader(v)
	default:
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(in); err != nil {
			return err
		}
		body = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.server+path, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.actorID != 0 {
		req.Header.Set("X-Actor-ID", strconv.FormatUint(uint64(c.actorID), 10))
	}
	if c.actorParishID != nil {
		req.Header.Set("X-Actor-Parish-ID", strconv.FormatUint(uint64(*c.actorParishID), 10))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		payload, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("api error (%d): %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".rgn", "config.json"), nil
}

func loadConfig() (cliConfig, error) {
	path, err := configPath()
	if err != nil {
		return cliConfig{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cliConfig{Transport: "uds", Server: defaultServer, Socket: defaultSocket}, nil
		}
		return cliConfig{}, err
	}
	var cfg cliConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cliConfig{}, errors.Wrapf(err, "parse %s", path)
	}
	if cfg.Transport == "" {
		cfg.Transport = "uds"
	}
	if cfg.Server == "" {
		cfg.Server = defaultServer
	}
	if cfg.Socket == "" {
		cfg.Socket = defaultSocket
	}
	return cfg, nil
}

func saveConfig(cfg cliConfig) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// readPayload returns the record payload from a file, or stdin for "-".
func readPayload(path string) (json.RawMessage, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, errors.Wrap(err, "read payload")
	}
	if !json.Valid(data) {
		return nil, errors.Errorf("payload %s is not valid JSON", path)
	}
	return json.RawMessage(data), nil
}
