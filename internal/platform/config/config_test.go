package config

import (
	"context"
	"errors"
	"testing"
	"time"
)

func baseEnv() map[string]string {
	return map[string]string{
		"API_FIREBASE_PROJECT_ID":   "ruh-al-oud-dev",
		"API_STORAGE_MEDIA_BUCKET":  "ruh-al-oud-media-dev",
		"API_WHATSAPP_PHONE_NUMBER": "918848320553",
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(context.Background(),
		WithEnvFile(""),
		WithoutSystemEnv(),
		WithEnvMap(baseEnv()),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Server.Port)
	}
	if cfg.Firestore.ProjectID != "ruh-al-oud-dev" {
		t.Fatalf("expected firestore project to default to firebase project, got %q", cfg.Firestore.ProjectID)
	}
	if cfg.Firestore.ProductsCollection != "products" {
		t.Fatalf("expected default products collection, got %q", cfg.Firestore.ProductsCollection)
	}
	if cfg.Session.Header != "X-Session-Id" {
		t.Fatalf("expected default session header, got %q", cfg.Session.Header)
	}
	if cfg.Session.TTL != 2*time.Hour {
		t.Fatalf("expected default session ttl, got %v", cfg.Session.TTL)
	}
	if len(cfg.Storage.UploadContentType) != 1 || cfg.Storage.UploadContentType[0] != "image/*" {
		t.Fatalf("expected default upload content types, got %v", cfg.Storage.UploadContentType)
	}
	if cfg.PubSub.ProjectID != "ruh-al-oud-dev" {
		t.Fatalf("expected pubsub project to default to firebase project, got %q", cfg.PubSub.ProjectID)
	}
}

func TestLoadValidatesRequiredFields(t *testing.T) {
	env := baseEnv()
	delete(env, "API_WHATSAPP_PHONE_NUMBER")

	_, err := Load(context.Background(),
		WithEnvFile(""),
		WithoutSystemEnv(),
		WithEnvMap(env),
	)
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	found := false
	for _, field := range validation.Fields() {
		if field == "WhatsApp.PhoneNumber" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected WhatsApp.PhoneNumber in %v", validation.Fields())
	}
}

func TestLoadResolvesSignerKeySecret(t *testing.T) {
	env := baseEnv()
	env["API_STORAGE_SIGNER_KEY"] = "sm://projects/demo/secrets/signer/versions/latest"

	resolver := SecretResolverFunc(func(_ context.Context, ref string) (string, error) {
		if ref != "secret://projects/demo/secrets/signer/versions/latest" {
			return "", errors.New("unexpected ref " + ref)
		}
		return `{"client_email":"svc@demo.iam.gserviceaccount.com"}`, nil
	})

	cfg, err := Load(context.Background(),
		WithEnvFile(""),
		WithoutSystemEnv(),
		WithEnvMap(env),
		WithSecretResolver(resolver),
		WithRequiredSecrets("Storage.SignerKey"),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Storage.SignerKey == "" || cfg.Storage.SignerKey[0] != '{' {
		t.Fatalf("expected resolved signer key JSON, got %q", cfg.Storage.SignerKey)
	}
}

func TestLoadReportsMissingRequiredSecret(t *testing.T) {
	_, err := Load(context.Background(),
		WithEnvFile(""),
		WithoutSystemEnv(),
		WithEnvMap(baseEnv()),
		WithRequiredSecrets("Storage.SignerKey"),
	)
	var missing *MissingSecretsError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingSecretsError, got %v", err)
	}
	if names := missing.Names(); len(names) != 1 || names[0] != "Storage.SignerKey" {
		t.Fatalf("unexpected missing secret names %v", names)
	}
}

func TestLoadEnvMapPrecedesDotEnv(t *testing.T) {
	env := baseEnv()
	env["API_SERVER_PORT"] = "9090"

	cfg, err := Load(context.Background(),
		WithEnvFile(""),
		WithoutSystemEnv(),
		WithEnvMap(env),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("expected env map port override, got %q", cfg.Server.Port)
	}
}
