package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/weiwei-tsao/campus-assets-report/internal/platform/config"
)

const pingTimeout = 5 * time.Second

// Connect opens a client with the configured credentials and verifies the
// project is reachable before returning it.
func Connect(ctx context.Context, cfg config.Config, logger *zap.Logger) (*firestore.Client, error) {
	creds, source, err := cfg.FirebaseCredentialsJSON()
	if err != nil {
		return nil, err
	}

	client, err := firestore.NewClient(ctx, cfg.FirebaseProjectID, option.WithCredentialsJSON(creds))
	if err != nil {
		return nil, fmt.Errorf("init firestore client: %w", err)
	}
	if err := Ping(ctx, client); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("firestore ping: %w", err)
	}

	if logger != nil {
		logger.Info("connected to firestore",
			zap.String("project", cfg.FirebaseProjectID),
			zap.String("credentials", source),
			zap.String("collection", cfg.AssetsCollection),
		)
	}
	return client, nil
}

// Ping lists the first collection. An empty database is still reachable.
func Ping(ctx context.Context, client *firestore.Client) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	_, err := client.Collections(ctx).Next()
	if err == nil || errors.Is(err, iterator.Done) {
		return nil
	}
	return err
}
