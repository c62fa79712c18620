package ai

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

// ModelCatalog lists the models installed on a runtime.
type ModelCatalog interface {
	ListModels(ctx context.Context) ([]string, error)
}

// OllamaCatalog queries an Ollama server for installed models.
type OllamaCatalog struct {
	client *api.Client
}

// NewOllamaCatalog creates a catalog for host, e.g. http://localhost:11434.
func NewOllamaCatalog(host string, timeout time.Duration) (*OllamaCatalog, error) {
	base, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
	}
	return &OllamaCatalog{client: api.NewClient(base, &http.Client{Timeout: timeout})}, nil
}

func (c *OllamaCatalog) ListModels(ctx context.Context) ([]string, error) {
	resp, err := c.client.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		name := m.Name
		if name == "" {
			name = m.Model
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// ResolveModel picks want when installed, otherwise the first model whose name contains family.
func ResolveModel(ctx context.Context, catalog ModelCatalog, want, family string) (string, error) {
	names, err := catalog.ListModels(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: list models: %v", ErrModelUnavailable, err)
	}

	for _, name := range names {
		if name == want {
			return name, nil
		}
	}

	family = strings.ToLower(strings.TrimSpace(family))
	if family != "" {
		for _, name := range names {
			if strings.Contains(strings.ToLower(name), family) {
				return name, nil
			}
		}
	}

	return "", fmt.Errorf("%w: model %q not installed (available: %s)", ErrModelUnavailable, want, strings.Join(names, ", "))
}
