package storage

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"strings"
	"testing"
	"time"
)

func testSigner(t *testing.T) *ServiceAccountSigner {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	pemBytes := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	payload, err := json.Marshal(map[string]string{
		"client_email": "signer@test.iam.gserviceaccount.com",
		"private_key":  string(pemBytes),
	})
	if err != nil {
		t.Fatalf("marshal service account: %v", err)
	}
	signer, err := NewServiceAccountSignerFromJSON(payload)
	if err != nil {
		t.Fatalf("NewServiceAccountSignerFromJSON: %v", err)
	}
	return signer
}

func TestSignedUploadURLGeneratesPUT(t *testing.T) {
	client, err := NewClient(testSigner(t), WithClock(func() time.Time {
		return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	}))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	result, err := client.SignedUploadURL(context.Background(), "media-bucket", "media/products/p1/bottle.jpg", UploadOptions{
		ContentType:         "image/jpeg",
		AllowedContentTypes: []string{"image/*"},
		MaxSize:             1 << 20,
	})
	if err != nil {
		t.Fatalf("SignedUploadURL: %v", err)
	}
	if result.Method != "PUT" {
		t.Fatalf("expected PUT, got %s", result.Method)
	}
	if !strings.Contains(result.URL, "media-bucket") || !strings.Contains(result.URL, "bottle.jpg") {
		t.Fatalf("unexpected url %s", result.URL)
	}
	if result.Headers["Content-Type"] != "image/jpeg" {
		t.Fatalf("expected content type header, got %v", result.Headers)
	}
	if result.Headers["x-goog-content-length-range"] != "0,1048576" {
		t.Fatalf("expected length range header, got %v", result.Headers)
	}
	if want := time.Date(2026, 3, 1, 12, 15, 0, 0, time.UTC); !result.ExpiresAt.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, result.ExpiresAt)
	}
}

func TestSignedUploadURLRejectsDisallowedContentType(t *testing.T) {
	client, err := NewClient(testSigner(t))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = client.SignedUploadURL(context.Background(), "media-bucket", "media/products/p1/clip.mp4", UploadOptions{
		ContentType:         "video/mp4",
		AllowedContentTypes: []string{"image/*"},
	})
	if err != errContentTypeDenied {
		t.Fatalf("expected errContentTypeDenied, got %v", err)
	}
}

func TestSignedUploadURLRejectsDeleteMethod(t *testing.T) {
	client, err := NewClient(testSigner(t))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = client.SignedUploadURL(context.Background(), "media-bucket", "media/products/p1/bottle.jpg", UploadOptions{
		Method:      "DELETE",
		ContentType: "image/jpeg",
	})
	if err != errMethodNotAllowed {
		t.Fatalf("expected errMethodNotAllowed, got %v", err)
	}
}

func TestNewClientRequiresSigner(t *testing.T) {
	if _, err := NewClient(nil); err != errNoSigner {
		t.Fatalf("expected errNoSigner, got %v", err)
	}
}
