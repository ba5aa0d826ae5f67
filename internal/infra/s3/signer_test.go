package s3

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
)

func TestPhotoSignerPresignsOffline(t *testing.T) {
	client, err := NewClient(Config{
		Endpoint:  "127.0.0.1:9000",
		AccessKey: "minio",
		SecretKey: "minio-secret",
		Region:    "us-east-1",
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	signer := NewPhotoSigner(client, "profile-photos", 0)
	raw, err := signer.PresignGet(context.Background(), "/users/u1/0.jpg")
	if err != nil {
		t.Fatalf("presign: %v", err)
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse presigned url: %v", err)
	}
	if !strings.HasSuffix(parsed.Path, "/profile-photos/users/u1/0.jpg") {
		t.Fatalf("unexpected path: %s", parsed.Path)
	}
	if got := parsed.Query().Get("X-Amz-Expires"); got != "300" {
		t.Fatalf("unexpected expiry: %q", got)
	}
}

func TestPhotoSignerRejectsEmptyKey(t *testing.T) {
	client, err := NewClient(Config{Endpoint: "127.0.0.1:9000", Region: "us-east-1"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if _, err := NewPhotoSigner(client, "b", 0).PresignGet(context.Background(), "  "); !errors.Is(err, ErrEmptyKey) {
		t.Fatalf("expected ErrEmptyKey, got %v", err)
	}
}
