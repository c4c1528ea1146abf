package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/apc/pkg/adapters/memory"
	"github.com/aretw0/apc/pkg/persistence/middleware"
	"github.com/aretw0/apc/pkg/ports"
)

func TestRedactMiddleware(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewStore()
	mw, err := middleware.NewRedactMiddleware(middleware.DefaultRedactPatterns)
	if err != nil {
		t.Fatalf("failed to create middleware: %v", err)
	}
	store := mw(inner)

	c := designContext()
	c.Branch.ScopeSummary = "rotate api_key=abc123 today"
	if err := store.Save(ctx, "s1", c); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if c.Design.SeedContext != "checkout flow for alice@example.com" {
		t.Errorf("caller context was masked in place: %q", c.Design.SeedContext)
	}

	loaded, err := store.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if want := "checkout flow for ***"; loaded.Design.SeedContext != want {
		t.Errorf("seed: got %q, want %q", loaded.Design.SeedContext, want)
	}
	if want := "rotate *** today"; loaded.Branch.ScopeSummary != want {
		t.Errorf("scope: got %q, want %q", loaded.Branch.ScopeSummary, want)
	}
}

func TestRedactMiddleware_InvalidPattern(t *testing.T) {
	if _, err := middleware.NewRedactMiddleware([]string{"("}); err == nil {
		t.Error("expected error for invalid pattern")
	}
}

func TestChain_RedactThenEncrypt(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewStore()
	redact, _ := middleware.NewRedactMiddleware(middleware.DefaultRedactPatterns)
	encrypt, _ := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: newKey(t)})

	store := middleware.Chain(inner, redact, encrypt)
	ports.RunContextStoreContract(t, store)

	if err := store.Save(ctx, "s1", designContext()); err != nil {
		t.Fatal(err)
	}
	loaded, err := store.Load(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Design.SeedContext != "checkout flow for ***" {
		t.Errorf("unexpected seed: %q", loaded.Design.SeedContext)
	}
}
