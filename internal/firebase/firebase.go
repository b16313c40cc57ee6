package firebase

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"gymstay/backend/internal/config"
)

// NewApp prefers FIREBASE_SERVICE_ACCOUNT_JSON (raw json content). Without it,
// Application Default Credentials are used (GOOGLE_APPLICATION_CREDENTIALS or the
// Cloud Run service account).
func NewApp(ctx context.Context, cfg config.Config) (*firebase.App, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("missing FIREBASE_PROJECT_ID or GOOGLE_CLOUD_PROJECT")
	}

	opts := []option.ClientOption{}
	if cfg.ServiceAccountJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON)))
	}
	return firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
}

func NewAuthClient(ctx context.Context, app *firebase.App) (*auth.Client, error) {
	return app.Auth(ctx)
}
