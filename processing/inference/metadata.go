package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

const defaultImageSize = 224

// Metadata describes the classes and input size of a model.
type Metadata struct {
	ModelName string   `json:"modelName"`
	Labels    []string `json:"labels"`
	ImageSize int      `json:"imageSize"`
}

func LoadMetadata(ctx context.Context, client *http.Client, location string) (Metadata, error) {
	var meta Metadata

	data, err := Fetch(ctx, client, location)
	if err != nil {
		return meta, fmt.Errorf("metadata: %w", err)
	}

	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, fmt.Errorf("metadata %s: %w", location, err)
	}

	if len(meta.Labels) == 0 {
		return meta, fmt.Errorf("metadata %s: no labels", location)
	}
	if meta.ImageSize <= 0 {
		meta.ImageSize = defaultImageSize
	}

	return meta, nil
}

// Fetch reads location from an http(s) URL or the local filesystem.
func Fetch(ctx context.Context, client *http.Client, location string) ([]byte, error) {
	if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
		return os.ReadFile(location)
	}

	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", location, resp.Status)
	}

	return io.ReadAll(resp.Body)
}
