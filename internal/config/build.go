package config

import (
	"fmt"
	"time"

	"github.com/azlog-io/azlog/internal/ir"
	"github.com/azlog-io/azlog/internal/naming"
)

// Default per-type naming policies. Max lengths are the Azure platform
// limits for each resource type; a direct DCR (no DCE) is capped at 30.
const (
	maxTableName     = 45
	maxDCRName       = 64
	maxDirectDCRName = 30
	maxDCEName       = 44
	maxStorageName   = 24
	maxNetworkName   = 80
	maxWorkspaceName = 63
)

// Build turns validated configuration into the immutable RunContext and the
// phase-ordered declaration list the orchestrator consumes. Names referenced
// across declarations (the vnet a flow log targets, the table a DCR feeds)
// are resolved here, once, with the same deterministic builder the engine
// uses.
func Build(cfg *Config, schemas []*TableSchema) (*ir.RunContext, []*ir.ResourceDeclaration, error) {
	run := &ir.RunContext{
		SubscriptionID: cfg.SubscriptionID,
		ResourceGroup:  cfg.ResourceGroup,
		Location:       cfg.Location,
		Workspace:      cfg.Workspace,
		SkipExisting:   cfg.SkipExisting,
		AbortOnFailure: cfg.AbortOnFailure,
		Timeout:        time.Duration(cfg.TimeoutMinutes) * time.Minute,
		OutputDir:      cfg.OutputDir,
	}

	b := &declBuilder{cfg: cfg, run: run}
	if err := b.network(); err != nil {
		return nil, nil, err
	}
	if err := b.storage(); err != nil {
		return nil, nil, err
	}
	b.workspace()
	if err := b.tables(schemas); err != nil {
		return nil, nil, err
	}
	if err := b.gatewayAndBastion(); err != nil {
		return nil, nil, err
	}
	return run, b.decls, nil
}

type declBuilder struct {
	cfg   *Config
	run   *ir.RunContext
	decls []*ir.ResourceDeclaration

	vnetName    string
	storageName string
	dceName     string
}

func (b *declBuilder) add(d *ir.ResourceDeclaration) {
	if d.Location == "" {
		d.Location = b.run.Location
	}
	b.decls = append(b.decls, d)
}

// prefixed joins a type prefix with the optional owner tag: "dcr-" plus
// prefix "jp" yields "dcr-jp-".
func (b *declBuilder) prefixed(typePrefix string) string {
	if b.cfg.Prefix == "" {
		return typePrefix
	}
	return typePrefix + b.cfg.Prefix + "-"
}

func (b *declBuilder) network() error {
	net := b.cfg.Network
	if net == nil {
		return nil
	}

	if net.FlowLogs != nil && net.FlowLogs.Enabled {
		b.add(&ir.ResourceDeclaration{
			Type:     ir.TypeNetworkWatcher,
			BaseName: "NetworkWatcher",
			Naming: ir.NamingPolicy{
				SuffixMode:   ir.SuffixCustom,
				CustomSuffix: "_" + b.run.Location,
				MaxLength:    maxNetworkName,
			},
		})
	}

	if net.VNet != nil {
		policy := ir.NamingPolicy{
			Prefix:        b.prefixed("vnet-"),
			SuffixMode:    ir.SuffixLocation,
			MaxLength:     maxNetworkName,
			HyphenAllowed: true,
		}
		name, err := naming.BuildName(net.VNet.BaseName, b.run.Location, policy)
		if err != nil {
			return fmt.Errorf("network.vnet: %w", err)
		}
		b.vnetName = name.Value

		subnets := make([]ir.SubnetSpec, 0, len(net.VNet.Subnets))
		for _, s := range net.VNet.Subnets {
			subnets = append(subnets, ir.SubnetSpec{Name: s.Name, AddressPrefix: s.AddressPrefix})
		}
		b.add(&ir.ResourceDeclaration{
			Type:     ir.TypeVNet,
			BaseName: net.VNet.BaseName,
			Naming:   policy,
			Attributes: map[string]any{
				ir.AttrAddressSpace: net.VNet.AddressSpace,
				ir.AttrSubnets:      subnets,
			},
		})
	}

	if net.NSG != nil {
		rules := make([]ir.SecurityRuleSpec, 0, len(net.NSG.Rules))
		for _, r := range net.NSG.Rules {
			rules = append(rules, ir.SecurityRuleSpec{
				Name:                 r.Name,
				Priority:             r.Priority,
				Direction:            r.Direction,
				Access:               r.Access,
				Protocol:             r.Protocol,
				SourcePrefix:         r.SourcePrefix,
				SourcePortRange:      r.SourcePortRange,
				DestinationPrefix:    r.DestinationPrefix,
				DestinationPortRange: r.DestinationPortRange,
			})
		}
		b.add(&ir.ResourceDeclaration{
			Type:     ir.TypeNSG,
			BaseName: net.NSG.BaseName,
			Naming: ir.NamingPolicy{
				Prefix:        b.prefixed("nsg-"),
				SuffixMode:    ir.SuffixLocation,
				MaxLength:     maxNetworkName,
				HyphenAllowed: true,
			},
			Attributes: map[string]any{
				ir.AttrRules:    rules,
				ir.AttrVNetName: b.vnetName,
			},
		})
	}
	return nil
}

func (b *declBuilder) storage() error {
	st := b.cfg.Storage
	if st == nil {
		return nil
	}
	policy := ir.NamingPolicy{
		Prefix:    "sa",
		MaxLength: maxStorageName,
		AlnumOnly: true,
	}
	name, err := naming.BuildName(st.BaseName, b.run.Location, policy)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	b.storageName = name.Value

	sku := st.SKU
	if sku == "" {
		sku = "Standard_LRS"
	}
	container := st.Container
	if container == "" {
		container = "flowlogs"
	}
	b.add(&ir.ResourceDeclaration{
		Type:           ir.TypeStorageAccount,
		BaseName:       st.BaseName,
		Naming:         policy,
		GloballyUnique: true,
		Attributes: map[string]any{
			ir.AttrSKU:       sku,
			ir.AttrContainer: container,
		},
	})
	return nil
}

func (b *declBuilder) workspace() {
	b.add(&ir.ResourceDeclaration{
		Type:     ir.TypeWorkspace,
		BaseName: b.run.Workspace,
		Naming: ir.NamingPolicy{
			MaxLength:     maxWorkspaceName,
			HyphenAllowed: true,
		},
	})
}

func (b *declBuilder) tables(schemas []*TableSchema) error {
	if len(schemas) == 0 {
		return nil
	}

	ep := b.cfg.Endpoint
	if ep != nil && ep.Enabled {
		policy := ir.NamingPolicy{
			Prefix:        b.prefixed("dce-"),
			SuffixMode:    ir.SuffixLocation,
			MaxLength:     maxDCEName,
			HyphenAllowed: true,
		}
		name, err := naming.BuildName(ep.BaseName, b.run.Location, policy)
		if err != nil {
			return fmt.Errorf("dataCollectionEndpoint: %w", err)
		}
		b.dceName = name.Value
		b.add(&ir.ResourceDeclaration{
			Type:     ir.TypeDCE,
			BaseName: ep.BaseName,
			Naming:   policy,
		})
	}

	for _, schema := range schemas {
		tablePolicy := ir.NamingPolicy{
			SuffixMode:   ir.SuffixCustom,
			CustomSuffix: "_CL",
			MaxLength:    maxTableName,
		}
		tableName, err := naming.BuildName(schema.Name, b.run.Location, tablePolicy)
		if err != nil {
			return fmt.Errorf("table %s: %w", schema.Name, err)
		}

		columns := make([]ir.ColumnSpec, 0, len(schema.Columns))
		for _, c := range schema.Columns {
			columns = append(columns, ir.ColumnSpec{Name: c.Name, Type: c.Type})
		}
		plan := schema.Plan
		if plan == "" {
			plan = "Analytics"
		}
		retention := schema.RetentionDays
		if retention == 0 {
			retention = 30
		}

		b.add(&ir.ResourceDeclaration{
			Type:     ir.TypeTable,
			BaseName: schema.Name,
			Naming:   tablePolicy,
			Attributes: map[string]any{
				ir.AttrColumns:       columns,
				ir.AttrRetentionDays: retention,
				ir.AttrPlan:          plan,
			},
		})

		dcrPolicy := ir.NamingPolicy{
			Prefix:        b.prefixed("dcr-"),
			SuffixMode:    ir.SuffixLocation,
			MaxLength:     maxDCRName,
			HyphenAllowed: true,
		}
		if schema.DirectDCR || b.dceName == "" {
			dcrPolicy.MaxLength = maxDirectDCRName
		}

		attrs := map[string]any{
			ir.AttrTableName:    tableName.Value,
			ir.AttrStreamName:   "Custom-" + tableName.Value,
			ir.AttrColumns:      columns,
			ir.AttrTransformKQL: schema.TransformKQL,
		}
		if !schema.DirectDCR && b.dceName != "" {
			attrs[ir.AttrDCEID] = b.dceName
		}
		b.add(&ir.ResourceDeclaration{
			Type:       ir.TypeDCR,
			BaseName:   schema.Name,
			Naming:     dcrPolicy,
			Attributes: attrs,
		})
	}
	return nil
}

func (b *declBuilder) gatewayAndBastion() error {
	net := b.cfg.Network
	if net == nil {
		return nil
	}

	if net.FlowLogs != nil && net.FlowLogs.Enabled {
		if b.vnetName == "" || b.storageName == "" {
			return fmt.Errorf("network.flowLogs requires both network.vnet and storage to be configured")
		}
		retention := net.FlowLogs.RetentionDays
		if retention == 0 {
			retention = 30
		}
		b.add(&ir.ResourceDeclaration{
			Type:     ir.TypeFlowLog,
			BaseName: net.VNet.BaseName,
			Naming: ir.NamingPolicy{
				Prefix:        b.prefixed("fl-"),
				SuffixMode:    ir.SuffixLocation,
				MaxLength:     maxNetworkName,
				HyphenAllowed: true,
			},
			Attributes: map[string]any{
				ir.AttrEnabled:       true,
				ir.AttrRetentionDays: retention,
				ir.AttrVNetName:      b.vnetName,
				ir.AttrStorageID:     b.storageName,
			},
		})
	}

	if net.Gateway != nil {
		if b.vnetName == "" {
			return fmt.Errorf("network.gateway requires network.vnet to be configured")
		}
		sku := net.Gateway.SKU
		if sku == "" {
			sku = "VpnGw1"
		}
		pipName, err := b.publicIP(net.Gateway.BaseName)
		if err != nil {
			return fmt.Errorf("network.gateway: %w", err)
		}
		b.add(&ir.ResourceDeclaration{
			Type:     ir.TypeVPNGateway,
			BaseName: net.Gateway.BaseName,
			Naming: ir.NamingPolicy{
				Prefix:        b.prefixed("vgw-"),
				SuffixMode:    ir.SuffixLocation,
				MaxLength:     maxNetworkName,
				HyphenAllowed: true,
			},
			Attributes: map[string]any{
				ir.AttrSKU:        sku,
				ir.AttrVNetName:   b.vnetName,
				ir.AttrPublicIPID: pipName,
			},
		})
	}

	if net.Bastion != nil {
		if b.vnetName == "" {
			return fmt.Errorf("network.bastion requires network.vnet to be configured")
		}
		pipName, err := b.publicIP(net.Bastion.BaseName)
		if err != nil {
			return fmt.Errorf("network.bastion: %w", err)
		}
		b.add(&ir.ResourceDeclaration{
			Type:     ir.TypeBastion,
			BaseName: net.Bastion.BaseName,
			Naming: ir.NamingPolicy{
				Prefix:        b.prefixed("bas-"),
				SuffixMode:    ir.SuffixLocation,
				MaxLength:     maxNetworkName,
				HyphenAllowed: true,
			},
			Attributes: map[string]any{
				ir.AttrVNetName:   b.vnetName,
				ir.AttrPublicIPID: pipName,
			},
		})
	}
	return nil
}

// publicIP declares a standard public IP for a gateway or bastion and
// returns its resolved name for the consumer declaration.
func (b *declBuilder) publicIP(base string) (string, error) {
	policy := ir.NamingPolicy{
		Prefix:        b.prefixed("pip-"),
		SuffixMode:    ir.SuffixLocation,
		MaxLength:     maxNetworkName,
		HyphenAllowed: true,
	}
	name, err := naming.BuildName(base, b.run.Location, policy)
	if err != nil {
		return "", err
	}
	b.add(&ir.ResourceDeclaration{
		Type:       ir.TypePublicIP,
		BaseName:   base,
		Naming:     policy,
		Attributes: map[string]any{ir.AttrSKU: "Standard"},
	})
	return name.Value, nil
}
