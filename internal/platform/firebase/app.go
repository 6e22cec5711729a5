// Package firebase initializes the Firebase Admin SDK clients the server needs:
// Auth for ID-token verification and, when drafts live in Firestore, a
// Firestore client.
package firebase

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

type Config struct {
	ProjectID       string
	CredentialsFile string // optional service account JSON
	EnableAuth      bool
	EnableFirestore bool
}

type Clients struct {
	Auth      *auth.Client
	Firestore *firestore.Client
}

// InitializeClients builds only the clients cfg enables. Emulator hosts are
// picked up from FIREBASE_AUTH_EMULATOR_HOST and FIRESTORE_EMULATOR_HOST.
func InitializeClients(ctx context.Context, cfg Config) (*Clients, error) {
	clients := &Clients{}
	if !cfg.EnableAuth && !cfg.EnableFirestore {
		return clients, nil
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		creds, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials: %w", err)
		}
		opts = append(opts, option.WithCredentialsJSON(creds))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}

	if cfg.EnableAuth {
		if clients.Auth, err = app.Auth(ctx); err != nil {
			return nil, fmt.Errorf("firebase auth: %w", err)
		}
	}
	if cfg.EnableFirestore {
		if clients.Firestore, err = app.Firestore(ctx); err != nil {
			return nil, fmt.Errorf("firestore: %w", err)
		}
	}
	return clients, nil
}

func (c *Clients) Close() error {
	if c.Firestore != nil {
		return c.Firestore.Close()
	}
	return nil
}
