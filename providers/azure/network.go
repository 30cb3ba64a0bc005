package azure

import (
	"context"
	"errors"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork"
	"github.com/azlog-io/azlog/internal/ir"
	"github.com/azlog-io/azlog/internal/logging"
	"github.com/azlog-io/azlog/internal/provider"
)

func (p *Provider) getVNet(ctx context.Context, c *clientBundle, run *ir.RunContext, name string) (*ir.ObservedState, error) {
	resp, err := c.vnets.Get(ctx, run.ResourceGroup, name, nil)
	if err != nil {
		if isNotFound(err) {
			return &ir.ObservedState{Exists: false}, nil
		}
		return nil, fmt.Errorf("failed to read vnet %s: %w", name, err)
	}

	snapshot := map[string]any{"id": deref(resp.ID)}
	if props := resp.Properties; props != nil {
		var subnets []string
		for _, s := range props.Subnets {
			subnets = append(subnets, deref(s.Name))
		}
		snapshot[ir.AttrSubnets] = subnets
		if props.AddressSpace != nil && len(props.AddressSpace.AddressPrefixes) > 0 {
			snapshot[ir.AttrAddressSpace] = deref(props.AddressSpace.AddressPrefixes[0])
		}
	}
	return &ir.ObservedState{Exists: true, Snapshot: snapshot}, nil
}

func (p *Provider) applyVNet(ctx context.Context, c *clientBundle, run *ir.RunContext, decl *ir.ResourceDeclaration, decision *ir.Decision, name string) (*provider.Applied, error) {
	if decision.Action == ir.ActionUpdate {
		return p.addSubnets(ctx, c, run, decision, name)
	}

	addressSpace, _ := decl.Attributes[ir.AttrAddressSpace].(string)
	declared, _ := decl.Attributes[ir.AttrSubnets].([]ir.SubnetSpec)

	subnets := make([]*armnetwork.Subnet, 0, len(declared))
	for _, s := range declared {
		subnets = append(subnets, &armnetwork.Subnet{
			Name: to.Ptr(s.Name),
			Properties: &armnetwork.SubnetPropertiesFormat{
				AddressPrefix: to.Ptr(s.AddressPrefix),
			},
		})
	}

	poller, err := c.vnets.BeginCreateOrUpdate(ctx, run.ResourceGroup, name, armnetwork.VirtualNetwork{
		Location: to.Ptr(run.Location),
		Properties: &armnetwork.VirtualNetworkPropertiesFormat{
			AddressSpace: &armnetwork.AddressSpace{
				AddressPrefixes: []*string{to.Ptr(addressSpace)},
			},
			Subnets: subnets,
		},
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create vnet %s: %w", name, err)
	}
	resp, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed waiting for vnet %s: %w", name, err)
	}
	return &provider.Applied{
		ID:      deref(resp.ID),
		Outputs: map[string]any{"id": deref(resp.ID)},
	}, nil
}

// addSubnets applies an additive vnet update: only the subnets the diff
// carries are created, existing ones are never touched.
func (p *Provider) addSubnets(ctx context.Context, c *clientBundle, run *ir.RunContext, decision *ir.Decision, vnetName string) (*provider.Applied, error) {
	missing, _ := decision.Diff[ir.AttrSubnets].([]ir.SubnetSpec)
	for _, s := range missing {
		logging.Info("adding subnet", "vnet", vnetName, "subnet", s.Name, "prefix", s.AddressPrefix)
		poller, err := c.subnets.BeginCreateOrUpdate(ctx, run.ResourceGroup, vnetName, s.Name, armnetwork.Subnet{
			Properties: &armnetwork.SubnetPropertiesFormat{
				AddressPrefix: to.Ptr(s.AddressPrefix),
			},
		}, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to add subnet %s to %s: %w", s.Name, vnetName, err)
		}
		if _, err := poller.PollUntilDone(ctx, nil); err != nil {
			return nil, fmt.Errorf("failed waiting for subnet %s: %w", s.Name, err)
		}
	}
	id := fmt.Sprintf("/subscriptions/%s/resourceGroups/%s/providers/Microsoft.Network/virtualNetworks/%s",
		run.SubscriptionID, run.ResourceGroup, vnetName)
	return &provider.Applied{ID: id, Outputs: map[string]any{"id": id}}, nil
}

func (p *Provider) getNSG(ctx context.Context, c *clientBundle, run *ir.RunContext, name string) (*ir.ObservedState, error) {
	resp, err := c.nsgs.Get(ctx, run.ResourceGroup, name, nil)
	if err != nil {
		if isNotFound(err) {
			return &ir.ObservedState{Exists: false}, nil
		}
		return nil, fmt.Errorf("failed to read nsg %s: %w", name, err)
	}
	return &ir.ObservedState{Exists: true, Snapshot: map[string]any{"id": deref(resp.ID)}}, nil
}

func (p *Provider) applyNSG(ctx context.Context, c *clientBundle, run *ir.RunContext, decl *ir.ResourceDeclaration, name string) (*provider.Applied, error) {
	declared, _ := decl.Attributes[ir.AttrRules].([]ir.SecurityRuleSpec)
	rules := make([]*armnetwork.SecurityRule, 0, len(declared))
	for _, r := range declared {
		rules = append(rules, &armnetwork.SecurityRule{
			Name: to.Ptr(r.Name),
			Properties: &armnetwork.SecurityRulePropertiesFormat{
				Priority:                 to.Ptr(r.Priority),
				Direction:                to.Ptr(armnetwork.SecurityRuleDirection(r.Direction)),
				Access:                   to.Ptr(armnetwork.SecurityRuleAccess(r.Access)),
				Protocol:                 to.Ptr(armnetwork.SecurityRuleProtocol(r.Protocol)),
				SourceAddressPrefix:      to.Ptr(r.SourcePrefix),
				SourcePortRange:          to.Ptr(r.SourcePortRange),
				DestinationAddressPrefix: to.Ptr(r.DestinationPrefix),
				DestinationPortRange:     to.Ptr(r.DestinationPortRange),
			},
		})
	}

	poller, err := c.nsgs.BeginCreateOrUpdate(ctx, run.ResourceGroup, name, armnetwork.SecurityGroup{
		Location: to.Ptr(run.Location),
		Properties: &armnetwork.SecurityGroupPropertiesFormat{
			SecurityRules: rules,
		},
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create nsg %s: %w", name, err)
	}
	resp, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed waiting for nsg %s: %w", name, err)
	}
	return &provider.Applied{ID: deref(resp.ID), Outputs: map[string]any{"id": deref(resp.ID)}}, nil
}

func (p *Provider) getPublicIP(ctx context.Context, c *clientBundle, run *ir.RunContext, name string) (*ir.ObservedState, error) {
	resp, err := c.publicIPs.Get(ctx, run.ResourceGroup, name, nil)
	if err != nil {
		if isNotFound(err) {
			return &ir.ObservedState{Exists: false}, nil
		}
		return nil, fmt.Errorf("failed to read public ip %s: %w", name, err)
	}
	snapshot := map[string]any{"id": deref(resp.ID)}
	if resp.Properties != nil {
		snapshot["ipAddress"] = deref(resp.Properties.IPAddress)
	}
	return &ir.ObservedState{Exists: true, Snapshot: snapshot}, nil
}

func (p *Provider) applyPublicIP(ctx context.Context, c *clientBundle, run *ir.RunContext, name string) (*provider.Applied, error) {
	poller, err := c.publicIPs.BeginCreateOrUpdate(ctx, run.ResourceGroup, name, armnetwork.PublicIPAddress{
		Location: to.Ptr(run.Location),
		SKU: &armnetwork.PublicIPAddressSKU{
			Name: to.Ptr(armnetwork.PublicIPAddressSKUNameStandard),
		},
		Properties: &armnetwork.PublicIPAddressPropertiesFormat{
			PublicIPAllocationMethod: to.Ptr(armnetwork.IPAllocationMethodStatic),
		},
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create public ip %s: %w", name, err)
	}
	resp, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed waiting for public ip %s: %w", name, err)
	}
	outputs := map[string]any{"id": deref(resp.ID)}
	if resp.Properties != nil {
		outputs["ipAddress"] = deref(resp.Properties.IPAddress)
	}
	return &provider.Applied{ID: deref(resp.ID), Outputs: outputs}, nil
}

func (p *Provider) getGateway(ctx context.Context, c *clientBundle, run *ir.RunContext, name string) (*ir.ObservedState, error) {
	resp, err := c.gateways.Get(ctx, run.ResourceGroup, name, nil)
	if err != nil {
		if isNotFound(err) {
			return &ir.ObservedState{Exists: false}, nil
		}
		return nil, fmt.Errorf("failed to read vpn gateway %s: %w", name, err)
	}
	return &ir.ObservedState{Exists: true, Snapshot: map[string]any{"id": deref(resp.ID)}}, nil
}

// applyGateway issues the create and waits within the caller's deadline.
// Gateway provisioning routinely takes tens of minutes; when the deadline
// expires the create keeps running server-side and the apply reports
// in-progress instead of failing.
func (p *Provider) applyGateway(ctx context.Context, c *clientBundle, run *ir.RunContext, decl *ir.ResourceDeclaration, name string) (*provider.Applied, error) {
	sku, _ := decl.Attributes[ir.AttrSKU].(string)
	vnetName, _ := decl.Attributes[ir.AttrVNetName].(string)
	pipName, _ := decl.Attributes[ir.AttrPublicIPID].(string)

	pip, err := c.publicIPs.Get(ctx, run.ResourceGroup, pipName, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve public ip %s for gateway %s: %w", pipName, name, err)
	}

	poller, err := c.gateways.BeginCreateOrUpdate(ctx, run.ResourceGroup, name, armnetwork.VirtualNetworkGateway{
		Location: to.Ptr(run.Location),
		Properties: &armnetwork.VirtualNetworkGatewayPropertiesFormat{
			GatewayType: to.Ptr(armnetwork.VirtualNetworkGatewayTypeVPN),
			VPNType:     to.Ptr(armnetwork.VPNTypeRouteBased),
			SKU: &armnetwork.VirtualNetworkGatewaySKU{
				Name: to.Ptr(armnetwork.VirtualNetworkGatewaySKUName(sku)),
				Tier: to.Ptr(armnetwork.VirtualNetworkGatewaySKUTier(sku)),
			},
			IPConfigurations: []*armnetwork.VirtualNetworkGatewayIPConfiguration{{
				Name: to.Ptr("default"),
				Properties: &armnetwork.VirtualNetworkGatewayIPConfigurationPropertiesFormat{
					PrivateIPAllocationMethod: to.Ptr(armnetwork.IPAllocationMethodDynamic),
					Subnet: &armnetwork.SubResource{
						ID: to.Ptr(p.subnetID(run, vnetName, "GatewaySubnet")),
					},
					PublicIPAddress: &armnetwork.SubResource{
						ID: pip.ID,
					},
				},
			}},
		},
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create vpn gateway %s: %w", name, err)
	}

	resp, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			logging.Warn("vpn gateway still provisioning at deadline", "name", name)
			return &provider.Applied{Outputs: map[string]any{"provisioningState": "InProgress"}}, nil
		}
		return nil, fmt.Errorf("failed waiting for vpn gateway %s: %w", name, err)
	}
	return &provider.Applied{ID: deref(resp.ID), Outputs: map[string]any{"id": deref(resp.ID)}}, nil
}

func (p *Provider) getBastion(ctx context.Context, c *clientBundle, run *ir.RunContext, name string) (*ir.ObservedState, error) {
	resp, err := c.bastions.Get(ctx, run.ResourceGroup, name, nil)
	if err != nil {
		if isNotFound(err) {
			return &ir.ObservedState{Exists: false}, nil
		}
		return nil, fmt.Errorf("failed to read bastion %s: %w", name, err)
	}
	return &ir.ObservedState{Exists: true, Snapshot: map[string]any{"id": deref(resp.ID)}}, nil
}

func (p *Provider) applyBastion(ctx context.Context, c *clientBundle, run *ir.RunContext, decl *ir.ResourceDeclaration, name string) (*provider.Applied, error) {
	vnetName, _ := decl.Attributes[ir.AttrVNetName].(string)
	pipName, _ := decl.Attributes[ir.AttrPublicIPID].(string)

	pip, err := c.publicIPs.Get(ctx, run.ResourceGroup, pipName, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve public ip %s for bastion %s: %w", pipName, name, err)
	}

	poller, err := c.bastions.BeginCreateOrUpdate(ctx, run.ResourceGroup, name, armnetwork.BastionHost{
		Location: to.Ptr(run.Location),
		Properties: &armnetwork.BastionHostPropertiesFormat{
			IPConfigurations: []*armnetwork.BastionHostIPConfiguration{{
				Name: to.Ptr("default"),
				Properties: &armnetwork.BastionHostIPConfigurationPropertiesFormat{
					Subnet: &armnetwork.SubResource{
						ID: to.Ptr(p.subnetID(run, vnetName, "AzureBastionSubnet")),
					},
					PublicIPAddress: &armnetwork.SubResource{
						ID: pip.ID,
					},
				},
			}},
		},
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create bastion %s: %w", name, err)
	}
	resp, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed waiting for bastion %s: %w", name, err)
	}
	return &provider.Applied{ID: deref(resp.ID), Outputs: map[string]any{"id": deref(resp.ID)}}, nil
}

func (p *Provider) getWatcher(ctx context.Context, c *clientBundle, run *ir.RunContext, name string) (*ir.ObservedState, error) {
	resp, err := c.watchers.Get(ctx, run.ResourceGroup, name, nil)
	if err != nil {
		if isNotFound(err) {
			return &ir.ObservedState{Exists: false}, nil
		}
		return nil, fmt.Errorf("failed to read network watcher %s: %w", name, err)
	}
	return &ir.ObservedState{Exists: true, Snapshot: map[string]any{"id": deref(resp.ID)}}, nil
}

func (p *Provider) applyWatcher(ctx context.Context, c *clientBundle, run *ir.RunContext, name string) (*provider.Applied, error) {
	resp, err := c.watchers.CreateOrUpdate(ctx, run.ResourceGroup, name, armnetwork.Watcher{
		Location: to.Ptr(run.Location),
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create network watcher %s: %w", name, err)
	}
	return &provider.Applied{ID: deref(resp.ID), Outputs: map[string]any{"id": deref(resp.ID)}}, nil
}

func (p *Provider) getFlowLog(ctx context.Context, c *clientBundle, run *ir.RunContext, name string) (*ir.ObservedState, error) {
	resp, err := c.flowLogs.Get(ctx, run.ResourceGroup, watcherName(run), name, nil)
	if err != nil {
		if isNotFound(err) {
			return &ir.ObservedState{Exists: false}, nil
		}
		return nil, fmt.Errorf("failed to read flow log %s: %w", name, err)
	}

	snapshot := map[string]any{"id": deref(resp.ID)}
	if props := resp.Properties; props != nil {
		if props.Enabled != nil {
			snapshot[ir.AttrEnabled] = *props.Enabled
		}
		if props.RetentionPolicy != nil && props.RetentionPolicy.Days != nil {
			snapshot[ir.AttrRetentionDays] = int(*props.RetentionPolicy.Days)
		}
	}
	return &ir.ObservedState{Exists: true, Snapshot: snapshot}, nil
}

func (p *Provider) applyFlowLog(ctx context.Context, c *clientBundle, run *ir.RunContext, decl *ir.ResourceDeclaration, decision *ir.Decision, name string) (*provider.Applied, error) {
	vnetName, _ := decl.Attributes[ir.AttrVNetName].(string)
	storageBase, _ := decl.Attributes[ir.AttrStorageID].(string)
	retention, _ := decl.Attributes[ir.AttrRetentionDays].(int)
	if r, ok := decision.Diff[ir.AttrRetentionDays].(int); ok {
		retention = r
	}

	storageID, err := p.resolveStorageID(ctx, c, run, storageBase)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve flow log storage for %s: %w", name, err)
	}

	vnet, err := c.vnets.Get(ctx, run.ResourceGroup, vnetName, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve flow log target %s: %w", vnetName, err)
	}

	poller, err := c.flowLogs.BeginCreateOrUpdate(ctx, run.ResourceGroup, watcherName(run), name, armnetwork.FlowLog{
		Location: to.Ptr(run.Location),
		Properties: &armnetwork.FlowLogPropertiesFormat{
			TargetResourceID: vnet.ID,
			StorageID:        to.Ptr(storageID),
			Enabled:          to.Ptr(true),
			RetentionPolicy: &armnetwork.RetentionPolicyParameters{
				Enabled: to.Ptr(true),
				Days:    to.Ptr(int32(retention)),
			},
		},
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create flow log %s: %w", name, err)
	}
	resp, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed waiting for flow log %s: %w", name, err)
	}
	return &provider.Applied{ID: deref(resp.ID), Outputs: map[string]any{"id": deref(resp.ID)}}, nil
}

// watcherName is the regional network watcher convention Azure itself uses.
func watcherName(run *ir.RunContext) string {
	return "NetworkWatcher_" + run.Location
}
