package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	appconfig "github.com/semmidev/offsite/internal/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// GDriveContainer uses a Drive folder as the container. Drive has no real
// paths, so the object key becomes the file name; an existing file with the
// same name in the folder is updated in place.
type GDriveContainer struct {
	service  *drive.Service
	folderID string
}

func NewGDrive(ctx context.Context, cfg *appconfig.StorageConfig, folderID string) (*GDriveContainer, error) {
	clientOpt, err := gdriveAuth(ctx, cfg)
	if err != nil {
		return nil, err
	}

	service, err := drive.NewService(ctx, clientOpt)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	if _, err := service.Files.Get(folderID).Fields("id").Context(ctx).Do(); err != nil {
		return nil, fmt.Errorf("failed to reach drive folder %q: %w", folderID, err)
	}

	return &GDriveContainer{service: service, folderID: folderID}, nil
}

// gdriveAuth prefers a user refresh token when one is configured and falls
// back to a service-account credentials file.
func gdriveAuth(ctx context.Context, cfg *appconfig.StorageConfig) (option.ClientOption, error) {
	if cfg.ClientSecretFile == "" || cfg.RefreshToken == "" {
		return option.WithCredentialsFile(cfg.CredentialsFile), nil
	}

	b, err := os.ReadFile(cfg.ClientSecretFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret: %w", err)
	}
	oauthCfg, err := google.ConfigFromJSON(b, drive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret: %w", err)
	}

	ts := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})
	return option.WithTokenSource(ts), nil
}

func (g *GDriveContainer) Upload(ctx context.Context, key string, r io.Reader) error {
	existing, err := g.find(ctx, key)
	if err != nil {
		return err
	}

	if existing != "" {
		_, err = g.service.Files.Update(existing, &drive.File{}).Media(r).Context(ctx).Do()
	} else {
		_, err = g.service.Files.Create(&drive.File{
			Name:    key,
			Parents: []string{g.folderID},
		}).Media(r).Context(ctx).Do()
	}
	if err != nil {
		return fmt.Errorf("failed to upload to gdrive: %w", err)
	}

	return nil
}

func (g *GDriveContainer) find(ctx context.Context, name string) (string, error) {
	query := fmt.Sprintf("'%s' in parents and name='%s' and trashed=false",
		g.folderID, strings.ReplaceAll(name, "'", `\'`))

	fileList, err := g.service.Files.List().
		Q(query).
		Fields("files(id)").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to find file: %w", err)
	}
	if len(fileList.Files) == 0 {
		return "", nil
	}
	return fileList.Files[0].Id, nil
}

func (g *GDriveContainer) Close() error {
	return nil
}
