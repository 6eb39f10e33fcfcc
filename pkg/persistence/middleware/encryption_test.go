package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"testing"

	"github.com/aretw0/rapport/pkg/adapters/memory"
	"github.com/aretw0/rapport/pkg/domain"
	"github.com/aretw0/rapport/pkg/persistence/middleware"
	"github.com/aretw0/rapport/pkg/ports"
	"github.com/aretw0/rapport/pkg/ports/tests"
)

func generateKey(t *testing.T) []byte {
	t.Helper()
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func sealedStore(t *testing.T, backend ports.SessionStore, active []byte, fallbacks ...[]byte) ports.SessionStore {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    active,
		FallbackKeys: fallbacks,
	})
	if err != nil {
		t.Fatalf("NewEncryptionMiddleware failed: %v", err)
	}
	return mw(backend)
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	tests.RunSessionStoreContract(t, sealedStore(t, memory.NewStore(), generateKey(t)))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	backend := memory.NewStore()
	store := sealedStore(t, backend, generateKey(t))
	ctx := context.Background()

	original := domain.NewSession("u1", "age")
	original.Commit("name", domain.TextValue("Ann"))

	if err := store.Save(ctx, "u1", original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	raw, err := backend.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("backend load failed: %v", err)
	}
	if raw.Profile.Has("name") {
		t.Fatal("expected name to be hidden from the backend")
	}
	if raw.CurrentNodeID != "" {
		t.Errorf("expected the envelope to hide the current node, got %q", raw.CurrentNodeID)
	}
	if !raw.Profile.Has(middleware.SealedField) {
		t.Fatal("expected sealed field in envelope")
	}

	loaded, err := store.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Profile.Get("name").Text != "Ann" || loaded.CurrentNodeID != "age" {
		t.Errorf("unexpected decrypted session: %+v", loaded)
	}
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	backend := memory.NewStore()
	oldKey, newKey := generateKey(t), generateKey(t)
	ctx := context.Background()

	oldStore := sealedStore(t, backend, oldKey)
	s := domain.NewSession("u1", "start")
	s.Commit("source", domain.TextValue("old"))
	if err := oldStore.Save(ctx, "u1", s); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	rotated := sealedStore(t, backend, newKey, oldKey)
	loaded, err := rotated.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("Load with fallback key failed: %v", err)
	}
	if loaded.Profile.Get("source").Text != "old" {
		t.Errorf("fallback decryption returned %q", loaded.Profile.Get("source").Text)
	}

	loaded.Commit("source", domain.TextValue("new"))
	if err := rotated.Save(ctx, "u1", loaded); err != nil {
		t.Fatalf("Save with new key failed: %v", err)
	}

	if _, err := oldStore.Load(ctx, "u1"); err == nil {
		t.Error("expected the retired key alone to fail on a re-sealed document")
	}
}

func TestEncryptionMiddleware_PlainDocumentRejected(t *testing.T) {
	backend := memory.NewStore()
	ctx := context.Background()
	if err := backend.Save(ctx, "u1", domain.NewSession("u1", "start")); err != nil {
		t.Fatal(err)
	}

	_, err := sealedStore(t, backend, generateKey(t)).Load(ctx, "u1")
	if !errors.Is(err, middleware.ErrNotSealed) {
		t.Errorf("expected ErrNotSealed, got %v", err)
	}
}

func TestEncryptionMiddleware_NotFoundPassesThrough(t *testing.T) {
	_, err := sealedStore(t, memory.NewStore(), generateKey(t)).Load(context.Background(), "ghost")
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	if _, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")}); err == nil {
		t.Error("expected an error for a short active key")
	}
}

func TestParseKey(t *testing.T) {
	key := generateKey(t)
	parsed, err := middleware.ParseKey(base64.StdEncoding.EncodeToString(key))
	if err != nil {
		t.Fatalf("ParseKey failed: %v", err)
	}
	if string(parsed) != string(key) {
		t.Error("ParseKey returned a different key")
	}

	if _, err := middleware.ParseKey("c2hvcnQ="); err == nil {
		t.Error("expected error for a short key")
	}
}
