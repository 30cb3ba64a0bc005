// Package azure implements the cloud provider against ARM using the Azure
// SDK. Each resource type maps to one management-plane client; long-running
// creates poll to completion within the caller's context deadline.
package azure

import (
	"context"
	"fmt"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/monitor/armmonitor"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/operationalinsights/armoperationalinsights/v2"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/storage/armstorage"
	"github.com/azlog-io/azlog/internal/ir"
	"github.com/azlog-io/azlog/internal/logging"
	"github.com/azlog-io/azlog/internal/provider"
)

func init() {
	provider.RegisterFactory("azure", func() provider.Interface { return New() })
}

type Provider struct {
	mu      sync.Mutex
	subID   string
	clients *clientBundle
}

func New() *Provider {
	return &Provider{}
}

// clientBundle holds one management client per resource family, all built
// from the same credential and subscription.
type clientBundle struct {
	groups     *armresources.ResourceGroupsClient
	vnets      *armnetwork.VirtualNetworksClient
	subnets    *armnetwork.SubnetsClient
	nsgs       *armnetwork.SecurityGroupsClient
	publicIPs  *armnetwork.PublicIPAddressesClient
	gateways   *armnetwork.VirtualNetworkGatewaysClient
	bastions   *armnetwork.BastionHostsClient
	watchers   *armnetwork.WatchersClient
	flowLogs   *armnetwork.FlowLogsClient
	accounts   *armstorage.AccountsClient
	containers *armstorage.BlobContainersClient
	workspaces *armoperationalinsights.WorkspacesClient
	tables     *armoperationalinsights.TablesClient
	dces       *armmonitor.DataCollectionEndpointsClient
	dcrs       *armmonitor.DataCollectionRulesClient
}

// ensureClients lazily builds the client bundle for the run's subscription.
// Credentials come from the default chain (env, managed identity, CLI).
func (p *Provider) ensureClients(run *ir.RunContext) (*clientBundle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.clients != nil && p.subID == run.SubscriptionID {
		return p.clients, nil
	}

	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain Azure credentials: %w", err)
	}

	b := &clientBundle{}
	sub := run.SubscriptionID
	if b.groups, err = armresources.NewResourceGroupsClient(sub, cred, nil); err != nil {
		return nil, fmt.Errorf("failed to create resource groups client: %w", err)
	}
	if b.vnets, err = armnetwork.NewVirtualNetworksClient(sub, cred, nil); err != nil {
		return nil, fmt.Errorf("failed to create virtual networks client: %w", err)
	}
	if b.subnets, err = armnetwork.NewSubnetsClient(sub, cred, nil); err != nil {
		return nil, fmt.Errorf("failed to create subnets client: %w", err)
	}
	if b.nsgs, err = armnetwork.NewSecurityGroupsClient(sub, cred, nil); err != nil {
		return nil, fmt.Errorf("failed to create security groups client: %w", err)
	}
	if b.publicIPs, err = armnetwork.NewPublicIPAddressesClient(sub, cred, nil); err != nil {
		return nil, fmt.Errorf("failed to create public IP addresses client: %w", err)
	}
	if b.gateways, err = armnetwork.NewVirtualNetworkGatewaysClient(sub, cred, nil); err != nil {
		return nil, fmt.Errorf("failed to create virtual network gateways client: %w", err)
	}
	if b.bastions, err = armnetwork.NewBastionHostsClient(sub, cred, nil); err != nil {
		return nil, fmt.Errorf("failed to create bastion hosts client: %w", err)
	}
	if b.watchers, err = armnetwork.NewWatchersClient(sub, cred, nil); err != nil {
		return nil, fmt.Errorf("failed to create network watchers client: %w", err)
	}
	if b.flowLogs, err = armnetwork.NewFlowLogsClient(sub, cred, nil); err != nil {
		return nil, fmt.Errorf("failed to create flow logs client: %w", err)
	}
	if b.accounts, err = armstorage.NewAccountsClient(sub, cred, nil); err != nil {
		return nil, fmt.Errorf("failed to create storage accounts client: %w", err)
	}
	if b.containers, err = armstorage.NewBlobContainersClient(sub, cred, nil); err != nil {
		return nil, fmt.Errorf("failed to create blob containers client: %w", err)
	}
	if b.workspaces, err = armoperationalinsights.NewWorkspacesClient(sub, cred, nil); err != nil {
		return nil, fmt.Errorf("failed to create workspaces client: %w", err)
	}
	if b.tables, err = armoperationalinsights.NewTablesClient(sub, cred, nil); err != nil {
		return nil, fmt.Errorf("failed to create tables client: %w", err)
	}
	if b.dces, err = armmonitor.NewDataCollectionEndpointsClient(sub, cred, nil); err != nil {
		return nil, fmt.Errorf("failed to create data collection endpoints client: %w", err)
	}
	if b.dcrs, err = armmonitor.NewDataCollectionRulesClient(sub, cred, nil); err != nil {
		return nil, fmt.Errorf("failed to create data collection rules client: %w", err)
	}

	p.subID = sub
	p.clients = b
	return b, nil
}

// CheckFoundation reports whether the target resource group exists. It
// never creates anything.
func (p *Provider) CheckFoundation(ctx context.Context, run *ir.RunContext) (bool, error) {
	c, err := p.ensureClients(run)
	if err != nil {
		return false, err
	}

	_, err = c.groups.Get(ctx, run.ResourceGroup, nil)
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to read resource group %s: %w", run.ResourceGroup, err)
}

// EnsureFoundation verifies the target resource group exists, creating it
// when absent. A failure here invalidates the whole run.
func (p *Provider) EnsureFoundation(ctx context.Context, run *ir.RunContext) error {
	exists, err := p.CheckFoundation(ctx, run)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	c, err := p.ensureClients(run)
	if err != nil {
		return err
	}
	logging.Info("creating resource group", "name", run.ResourceGroup, "location", run.Location)
	_, err = c.groups.CreateOrUpdate(ctx, run.ResourceGroup, armresources.ResourceGroup{
		Location: to.Ptr(run.Location),
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to create resource group %s: %w", run.ResourceGroup, err)
	}
	return nil
}

func (p *Provider) Get(ctx context.Context, run *ir.RunContext, decl *ir.ResourceDeclaration, name string) (*ir.ObservedState, error) {
	c, err := p.ensureClients(run)
	if err != nil {
		return nil, err
	}

	var observed *ir.ObservedState
	err = retryTransient(ctx, func() error {
		var gerr error
		observed, gerr = p.get(ctx, c, run, decl, name)
		return gerr
	})
	return observed, err
}

func (p *Provider) get(ctx context.Context, c *clientBundle, run *ir.RunContext, decl *ir.ResourceDeclaration, name string) (*ir.ObservedState, error) {
	switch decl.Type {
	case ir.TypeNetworkWatcher:
		return p.getWatcher(ctx, c, run, name)
	case ir.TypeVNet:
		return p.getVNet(ctx, c, run, name)
	case ir.TypeNSG:
		return p.getNSG(ctx, c, run, name)
	case ir.TypePublicIP:
		return p.getPublicIP(ctx, c, run, name)
	case ir.TypeStorageAccount:
		return p.getStorageAccount(ctx, c, run, name)
	case ir.TypeWorkspace:
		return p.getWorkspace(ctx, c, run, name)
	case ir.TypeTable:
		return p.getTable(ctx, c, run, name)
	case ir.TypeDCE:
		return p.getDCE(ctx, c, run, name)
	case ir.TypeDCR:
		return p.getDCR(ctx, c, run, name)
	case ir.TypeFlowLog:
		return p.getFlowLog(ctx, c, run, name)
	case ir.TypeVPNGateway:
		return p.getGateway(ctx, c, run, name)
	case ir.TypeBastion:
		return p.getBastion(ctx, c, run, name)
	default:
		return nil, fmt.Errorf("unsupported resource type %q", decl.Type)
	}
}

func (p *Provider) Apply(ctx context.Context, run *ir.RunContext, decl *ir.ResourceDeclaration, decision *ir.Decision, name string) (*provider.Applied, error) {
	c, err := p.ensureClients(run)
	if err != nil {
		return nil, err
	}

	// Conflicts are not transient: isTransient rejects them, so they
	// propagate straight to the uniqueness retrier.
	var applied *provider.Applied
	err = retryTransient(ctx, func() error {
		var aerr error
		applied, aerr = p.apply(ctx, c, run, decl, decision, name)
		return aerr
	})
	if err != nil {
		return nil, err
	}
	return applied, nil
}

func (p *Provider) apply(ctx context.Context, c *clientBundle, run *ir.RunContext, decl *ir.ResourceDeclaration, decision *ir.Decision, name string) (*provider.Applied, error) {
	switch decl.Type {
	case ir.TypeNetworkWatcher:
		return p.applyWatcher(ctx, c, run, name)
	case ir.TypeVNet:
		return p.applyVNet(ctx, c, run, decl, decision, name)
	case ir.TypeNSG:
		return p.applyNSG(ctx, c, run, decl, name)
	case ir.TypePublicIP:
		return p.applyPublicIP(ctx, c, run, name)
	case ir.TypeStorageAccount:
		return p.applyStorageAccount(ctx, c, run, decl, name)
	case ir.TypeWorkspace:
		return p.applyWorkspace(ctx, c, run, name)
	case ir.TypeTable:
		return p.applyTable(ctx, c, run, decl, decision, name)
	case ir.TypeDCE:
		return p.applyDCE(ctx, c, run, name)
	case ir.TypeDCR:
		return p.applyDCR(ctx, c, run, decl, name)
	case ir.TypeFlowLog:
		return p.applyFlowLog(ctx, c, run, decl, decision, name)
	case ir.TypeVPNGateway:
		return p.applyGateway(ctx, c, run, decl, name)
	case ir.TypeBastion:
		return p.applyBastion(ctx, c, run, decl, name)
	default:
		return nil, fmt.Errorf("unsupported resource type %q", decl.Type)
	}
}

// subnetID builds the ARM resource ID of a subnet inside the run's group.
func (p *Provider) subnetID(run *ir.RunContext, vnetName, subnetName string) string {
	return fmt.Sprintf("/subscriptions/%s/resourceGroups/%s/providers/Microsoft.Network/virtualNetworks/%s/subnets/%s",
		run.SubscriptionID, run.ResourceGroup, vnetName, subnetName)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
