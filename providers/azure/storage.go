package azure

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/storage/armstorage"
	"github.com/azlog-io/azlog/internal/ir"
	"github.com/azlog-io/azlog/internal/provider"
)

func (p *Provider) getStorageAccount(ctx context.Context, c *clientBundle, run *ir.RunContext, name string) (*ir.ObservedState, error) {
	resp, err := c.accounts.GetProperties(ctx, run.ResourceGroup, name, nil)
	if err != nil {
		if isNotFound(err) {
			return &ir.ObservedState{Exists: false}, nil
		}
		return nil, fmt.Errorf("failed to read storage account %s: %w", name, err)
	}

	snapshot := map[string]any{"id": deref(resp.ID)}
	if resp.SKU != nil && resp.SKU.Name != nil {
		snapshot[ir.AttrSKU] = string(*resp.SKU.Name)
	}
	return &ir.ObservedState{Exists: true, Snapshot: snapshot}, nil
}

// applyStorageAccount claims a name from the global storage namespace. The
// availability check runs first so a taken name surfaces as a ConflictError
// the uniqueness retrier can recover from, instead of a failed deployment.
func (p *Provider) applyStorageAccount(ctx context.Context, c *clientBundle, run *ir.RunContext, decl *ir.ResourceDeclaration, name string) (*provider.Applied, error) {
	avail, err := c.accounts.CheckNameAvailability(ctx, armstorage.AccountCheckNameAvailabilityParameters{
		Name: to.Ptr(name),
		Type: to.Ptr("Microsoft.Storage/storageAccounts"),
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check storage name %s: %w", name, err)
	}
	if avail.NameAvailable != nil && !*avail.NameAvailable {
		return nil, &provider.ConflictError{Name: name, Reason: deref(avail.Message)}
	}

	sku, _ := decl.Attributes[ir.AttrSKU].(string)
	if sku == "" {
		sku = "Standard_LRS"
	}

	poller, err := c.accounts.BeginCreate(ctx, run.ResourceGroup, name, armstorage.AccountCreateParameters{
		Location: to.Ptr(run.Location),
		Kind:     to.Ptr(armstorage.KindStorageV2),
		SKU: &armstorage.SKU{
			Name: to.Ptr(armstorage.SKUName(sku)),
		},
		Properties: &armstorage.AccountPropertiesCreateParameters{
			AllowBlobPublicAccess: to.Ptr(false),
			MinimumTLSVersion:     to.Ptr(armstorage.MinimumTLSVersionTLS12),
		},
	}, nil)
	if err != nil {
		if isNameTaken(err) {
			return nil, &provider.ConflictError{Name: name, Reason: "storage account name already taken"}
		}
		return nil, fmt.Errorf("failed to create storage account %s: %w", name, err)
	}
	resp, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed waiting for storage account %s: %w", name, err)
	}

	container, _ := decl.Attributes[ir.AttrContainer].(string)
	if container != "" {
		_, err = c.containers.Create(ctx, run.ResourceGroup, name, container, armstorage.BlobContainer{}, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create container %s in %s: %w", container, name, err)
		}
	}

	outputs, err := p.storageOutputs(ctx, c, run, name, container)
	if err != nil {
		return nil, err
	}
	outputs["id"] = deref(resp.ID)
	return &provider.Applied{ID: deref(resp.ID), Outputs: outputs}, nil
}

// storageOutputs collects the connection coordinates downstream consumers
// need: flow-log binding and the Cribl blob collector.
func (p *Provider) storageOutputs(ctx context.Context, c *clientBundle, run *ir.RunContext, name, container string) (map[string]any, error) {
	keys, err := c.accounts.ListKeys(ctx, run.ResourceGroup, name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys for %s: %w", name, err)
	}
	if len(keys.Keys) == 0 || keys.Keys[0].Value == nil {
		return nil, fmt.Errorf("storage account %s returned no keys", name)
	}
	key := *keys.Keys[0].Value

	outputs := map[string]any{
		"name":       name,
		"accountKey": key,
		"connectionString": fmt.Sprintf(
			"DefaultEndpointsProtocol=https;AccountName=%s;AccountKey=%s;EndpointSuffix=core.windows.net",
			name, key),
	}
	if container != "" {
		outputs[ir.AttrContainer] = container
	}
	return outputs, nil
}

// resolveStorageID finds the storage account a flow log binds to. The
// account may carry a uniqueness suffix the declaration does not know
// about, so the lookup matches by candidate-name prefix within the group.
func (p *Provider) resolveStorageID(ctx context.Context, c *clientBundle, run *ir.RunContext, candidate string) (string, error) {
	pager := c.accounts.NewListByResourceGroupPager(run.ResourceGroup, nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to list storage accounts in %s: %w", run.ResourceGroup, err)
		}
		for _, acc := range page.Value {
			if strings.HasPrefix(deref(acc.Name), candidate) {
				return deref(acc.ID), nil
			}
		}
	}
	return "", fmt.Errorf("no storage account matching %q found in %s", candidate, run.ResourceGroup)
}
