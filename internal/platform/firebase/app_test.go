package firebase

import (
	"context"
	"testing"
)

func TestInitializeClientsSkipsWhenNothingEnabled(t *testing.T) {
	clients, err := InitializeClients(context.Background(), Config{ProjectID: "demo-portfolio"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clients.Auth != nil || clients.Firestore != nil {
		t.Fatalf("expected no clients, got %+v", clients)
	}
}

func TestInitializeClientsMissingCredentialsFile(t *testing.T) {
	_, err := InitializeClients(context.Background(), Config{
		ProjectID:       "demo-portfolio",
		CredentialsFile: "/nonexistent/creds.json",
		EnableAuth:      true,
	})
	if err == nil {
		t.Fatal("expected error for missing credentials file")
	}
}

func TestClientsCloseWithoutFirestore(t *testing.T) {
	if err := (&Clients{}).Close(); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}
