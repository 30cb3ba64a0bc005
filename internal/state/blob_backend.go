package state

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// blobBackend stores the ledger in an Azure Blob container so multiple
// operators can share resolved names. Locking uses a companion lock blob
// created with an If-None-Match: * condition, which the service rejects
// atomically when the blob already exists.
type blobBackend struct {
	account   string
	container string
	blobName  string

	client *azblob.Client
}

func newBlobBackend(config map[string]string) (Backend, error) {
	account := config["account"]
	if account == "" {
		return nil, fmt.Errorf("azblob backend requires 'account' configuration")
	}

	container := config["container"]
	if container == "" {
		container = "azlog-state"
	}

	blobName := config["blob"]
	if blobName == "" {
		blobName = "azlog/ledger.json"
	}

	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain Azure credentials: %w", err)
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", account)
	client, err := azblob.NewClient(serviceURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize blob backend: %w", err)
	}

	return &blobBackend{
		account:   account,
		container: container,
		blobName:  blobName,
		client:    client,
	}, nil
}

func (b *blobBackend) Read(ctx context.Context) (*Ledger, error) {
	resp, err := b.client.DownloadStream(ctx, b.container, b.blobName, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return &Ledger{Version: 1}, nil
		}
		return nil, fmt.Errorf("failed to read ledger from %s/%s: %w", b.container, b.blobName, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger blob body: %w", err)
	}
	return decode(raw)
}

func (b *blobBackend) Write(ctx context.Context, ledger *Ledger) error {
	content, err := encode(ledger)
	if err != nil {
		return err
	}
	if _, err := b.client.UploadBuffer(ctx, b.container, b.blobName, content, nil); err != nil {
		return fmt.Errorf("failed to write ledger to %s/%s: %w", b.container, b.blobName, err)
	}
	return nil
}

func (b *blobBackend) Lock() error {
	opts := &azblob.UploadBufferOptions{
		AccessConditions: &blob.AccessConditions{
			ModifiedAccessConditions: &blob.ModifiedAccessConditions{
				IfNoneMatch: to.Ptr(azcore.ETagAny),
			},
		},
	}
	_, err := b.client.UploadBuffer(context.Background(), b.container, b.lockBlobName(),
		bytes.NewBufferString("locked").Bytes(), opts)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobAlreadyExists, bloberror.ConditionNotMet) {
			return fmt.Errorf("ledger is locked by another process. If this is an error, "+
				"manually delete the blob %q from container %q", b.lockBlobName(), b.container)
		}
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	return nil
}

func (b *blobBackend) Unlock() error {
	_, err := b.client.DeleteBlob(context.Background(), b.container, b.lockBlobName(), nil)
	if err != nil && !bloberror.HasCode(err, bloberror.BlobNotFound) {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

func (b *blobBackend) lockBlobName() string {
	return b.blobName + ".lock"
}
