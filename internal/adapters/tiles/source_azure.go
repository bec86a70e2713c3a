package tiles

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	"github.com/JJFrisch/RoadTrip-sub001/internal/domain"
)

// AzureSource reads pre-rendered tiles from an Azure blob container laid
// out as <prefix>/<z>/<x>/<y>.png.
type AzureSource struct {
	client    *azblob.Client
	container string
	prefix    string
}

// AzureConfig holds Azure Blob Storage tile source configuration.
type AzureConfig struct {
	Container        string
	AccountName      string
	AccountKey       string
	ConnectionString string
	Prefix           string
}

// NewAzureSource creates a tile source backed by Azure Blob Storage.
func NewAzureSource(cfg AzureConfig) (*AzureSource, error) {
	if cfg.Container == "" {
		return nil, errors.New("azure container is required")
	}

	var client *azblob.Client
	var err error

	if cfg.ConnectionString != "" {
		client, err = azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
		if err != nil {
			return nil, err
		}
	} else {
		if cfg.AccountName == "" || cfg.AccountKey == "" {
			return nil, fmt.Errorf("%w: azure account name and key are required", domain.ErrMissingCredential)
		}
		url := "https://" + cfg.AccountName + ".blob.core.windows.net/"
		cred, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
		if err != nil {
			return nil, err
		}
		client, err = azblob.NewClientWithSharedKeyCredential(url, cred, nil)
		if err != nil {
			return nil, err
		}
	}

	return &AzureSource{
		client:    client,
		container: cfg.Container,
		prefix:    strings.Trim(cfg.Prefix, "/"),
	}, nil
}

func (s *AzureSource) tileBlob(zoom int, col, row uint32) string {
	name := fmt.Sprintf("%d/%d/%d.png", zoom, col, row)
	if s.prefix != "" {
		name = s.prefix + "/" + name
	}
	return name
}

// FetchTile downloads a single tile blob.
func (s *AzureSource) FetchTile(ctx context.Context, zoom int, col, row uint32) ([]byte, error) {
	resp, err := s.client.DownloadStream(ctx, s.container, s.tileBlob(zoom, col, row), nil)
	if err != nil {
		return nil, &domain.TileError{Zoom: zoom, Col: col, Row: row, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.TileError{Zoom: zoom, Col: col, Row: row, Err: err}
	}
	return data, nil
}

// CheckAccess verifies the container is reachable with the configured
// credentials by listing a single page of blobs.
func (s *AzureSource) CheckAccess(ctx context.Context) error {
	one := int32(1)
	pager := s.client.NewListBlobsFlatPager(s.container, &azblob.ListBlobsFlatOptions{
		MaxResults: &one,
	})
	if pager.More() {
		if _, err := pager.NextPage(ctx); err != nil {
			return fmt.Errorf("%w: azure container %s: %w", domain.ErrMissingCredential, s.container, err)
		}
	}
	return nil
}
