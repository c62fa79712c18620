package ai

import (
	"context"
	"errors"
	"testing"
)

type staticCatalog struct {
	names []string
	err   error
}

func (c staticCatalog) ListModels(context.Context) ([]string, error) {
	return c.names, c.err
}

func TestResolveModelExactMatch(t *testing.T) {
	got, err := ResolveModel(context.Background(), staticCatalog{names: []string{"gemma3:4b", "gemma3n:e4b"}}, "gemma3n:e4b", "gemma")
	if err != nil || got != "gemma3n:e4b" {
		t.Fatalf("expected exact match, got %q err=%v", got, err)
	}
}

func TestResolveModelFamilyFallback(t *testing.T) {
	got, err := ResolveModel(context.Background(), staticCatalog{names: []string{"llama3:8b", "Gemma3:4b"}}, "gemma3n:e4b", "gemma")
	if err != nil || got != "Gemma3:4b" {
		t.Fatalf("expected family match, got %q err=%v", got, err)
	}
}

func TestResolveModelUnavailable(t *testing.T) {
	_, err := ResolveModel(context.Background(), staticCatalog{names: []string{"llama3:8b"}}, "gemma3n:e4b", "gemma")
	if !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}

	_, err = ResolveModel(context.Background(), staticCatalog{err: errors.New("dial tcp: refused")}, "gemma3n:e4b", "gemma")
	if !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable on list failure, got %v", err)
	}
}
