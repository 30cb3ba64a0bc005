package azure

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/monitor/armmonitor"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/operationalinsights/armoperationalinsights/v2"
	"github.com/azlog-io/azlog/internal/ir"
	"github.com/azlog-io/azlog/internal/provider"
)

func (p *Provider) getWorkspace(ctx context.Context, c *clientBundle, run *ir.RunContext, name string) (*ir.ObservedState, error) {
	resp, err := c.workspaces.Get(ctx, run.ResourceGroup, name, nil)
	if err != nil {
		if isNotFound(err) {
			return &ir.ObservedState{Exists: false}, nil
		}
		return nil, fmt.Errorf("failed to read workspace %s: %w", name, err)
	}

	snapshot := map[string]any{"id": deref(resp.ID)}
	if resp.Properties != nil {
		snapshot["customerId"] = deref(resp.Properties.CustomerID)
	}
	return &ir.ObservedState{Exists: true, Snapshot: snapshot}, nil
}

func (p *Provider) applyWorkspace(ctx context.Context, c *clientBundle, run *ir.RunContext, name string) (*provider.Applied, error) {
	poller, err := c.workspaces.BeginCreateOrUpdate(ctx, run.ResourceGroup, name, armoperationalinsights.Workspace{
		Location: to.Ptr(run.Location),
		Properties: &armoperationalinsights.WorkspaceProperties{
			SKU: &armoperationalinsights.WorkspaceSKU{
				Name: to.Ptr(armoperationalinsights.WorkspaceSKUNameEnumPerGB2018),
			},
			RetentionInDays: to.Ptr[int32](30),
		},
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace %s: %w", name, err)
	}
	resp, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed waiting for workspace %s: %w", name, err)
	}

	outputs := map[string]any{"id": deref(resp.ID)}
	if resp.Properties != nil {
		outputs["customerId"] = deref(resp.Properties.CustomerID)
	}
	return &provider.Applied{ID: deref(resp.ID), Outputs: outputs}, nil
}

func (p *Provider) getTable(ctx context.Context, c *clientBundle, run *ir.RunContext, name string) (*ir.ObservedState, error) {
	resp, err := c.tables.Get(ctx, run.ResourceGroup, run.Workspace, name, nil)
	if err != nil {
		if isNotFound(err) {
			return &ir.ObservedState{Exists: false}, nil
		}
		return nil, fmt.Errorf("failed to read table %s: %w", name, err)
	}

	snapshot := map[string]any{"id": deref(resp.ID)}
	if props := resp.Properties; props != nil {
		if props.RetentionInDays != nil {
			snapshot[ir.AttrRetentionDays] = int(*props.RetentionInDays)
		}
		if props.Schema != nil {
			columns := map[string]string{}
			for _, col := range props.Schema.Columns {
				if col.Type != nil {
					columns[deref(col.Name)] = string(*col.Type)
				}
			}
			snapshot[ir.AttrColumns] = columns
		}
	}
	return &ir.ObservedState{Exists: true, Snapshot: snapshot}, nil
}

// applyTable sends the declared schema whole. Azure merges table schemas
// additively, so an update carrying the declared column set adds what is
// missing without dropping the rest.
func (p *Provider) applyTable(ctx context.Context, c *clientBundle, run *ir.RunContext, decl *ir.ResourceDeclaration, decision *ir.Decision, name string) (*provider.Applied, error) {
	declared, _ := decl.Attributes[ir.AttrColumns].([]ir.ColumnSpec)
	retention, _ := decl.Attributes[ir.AttrRetentionDays].(int)
	plan, _ := decl.Attributes[ir.AttrPlan].(string)
	if plan == "" {
		plan = "Analytics"
	}

	columns := make([]*armoperationalinsights.Column, 0, len(declared))
	for _, col := range declared {
		columns = append(columns, &armoperationalinsights.Column{
			Name: to.Ptr(col.Name),
			Type: to.Ptr(armoperationalinsights.ColumnTypeEnum(col.Type)),
		})
	}

	props := &armoperationalinsights.TableProperties{
		Plan: to.Ptr(armoperationalinsights.TablePlanEnum(plan)),
		Schema: &armoperationalinsights.Schema{
			Name:    to.Ptr(name),
			Columns: columns,
		},
	}
	if retention > 0 {
		props.RetentionInDays = to.Ptr(int32(retention))
	}

	poller, err := c.tables.BeginCreateOrUpdate(ctx, run.ResourceGroup, run.Workspace, name, armoperationalinsights.Table{
		Properties: props,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create table %s: %w", name, err)
	}
	resp, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed waiting for table %s: %w", name, err)
	}
	return &provider.Applied{
		ID:      deref(resp.ID),
		Outputs: map[string]any{"id": deref(resp.ID), ir.AttrTableName: name},
	}, nil
}

func (p *Provider) getDCE(ctx context.Context, c *clientBundle, run *ir.RunContext, name string) (*ir.ObservedState, error) {
	resp, err := c.dces.Get(ctx, run.ResourceGroup, name, nil)
	if err != nil {
		if isNotFound(err) {
			return &ir.ObservedState{Exists: false}, nil
		}
		return nil, fmt.Errorf("failed to read data collection endpoint %s: %w", name, err)
	}

	snapshot := map[string]any{"id": deref(resp.ID)}
	if resp.Properties != nil && resp.Properties.LogsIngestion != nil {
		snapshot["ingestionEndpoint"] = deref(resp.Properties.LogsIngestion.Endpoint)
	}
	return &ir.ObservedState{Exists: true, Snapshot: snapshot}, nil
}

func (p *Provider) applyDCE(ctx context.Context, c *clientBundle, run *ir.RunContext, name string) (*provider.Applied, error) {
	resp, err := c.dces.Create(ctx, run.ResourceGroup, name, &armmonitor.DataCollectionEndpointsClientCreateOptions{
		Body: &armmonitor.DataCollectionEndpointResource{
			Location: to.Ptr(run.Location),
			Properties: &armmonitor.DataCollectionEndpointResourceProperties{
				NetworkACLs: &armmonitor.DataCollectionEndpointNetworkACLs{
					PublicNetworkAccess: to.Ptr(armmonitor.KnownPublicNetworkAccessOptionsEnabled),
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create data collection endpoint %s: %w", name, err)
	}

	outputs := map[string]any{"id": deref(resp.ID)}
	if resp.Properties != nil && resp.Properties.LogsIngestion != nil {
		outputs["ingestionEndpoint"] = deref(resp.Properties.LogsIngestion.Endpoint)
	}
	return &provider.Applied{ID: deref(resp.ID), Outputs: outputs}, nil
}

func (p *Provider) getDCR(ctx context.Context, c *clientBundle, run *ir.RunContext, name string) (*ir.ObservedState, error) {
	resp, err := c.dcrs.Get(ctx, run.ResourceGroup, name, nil)
	if err != nil {
		if isNotFound(err) {
			return &ir.ObservedState{Exists: false}, nil
		}
		return nil, fmt.Errorf("failed to read data collection rule %s: %w", name, err)
	}

	snapshot := map[string]any{"id": deref(resp.ID)}
	if resp.Properties != nil {
		snapshot["immutableId"] = deref(resp.Properties.ImmutableID)
	}
	return &ir.ObservedState{Exists: true, Snapshot: snapshot}, nil
}

func (p *Provider) applyDCR(ctx context.Context, c *clientBundle, run *ir.RunContext, decl *ir.ResourceDeclaration, name string) (*provider.Applied, error) {
	tableName, _ := decl.Attributes[ir.AttrTableName].(string)
	streamName, _ := decl.Attributes[ir.AttrStreamName].(string)
	transform, _ := decl.Attributes[ir.AttrTransformKQL].(string)
	declared, _ := decl.Attributes[ir.AttrColumns].([]ir.ColumnSpec)
	dceName, _ := decl.Attributes[ir.AttrDCEID].(string)
	if transform == "" {
		transform = "source"
	}

	ws, err := c.workspaces.Get(ctx, run.ResourceGroup, run.Workspace, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace %s for rule %s: %w", run.Workspace, name, err)
	}

	columns := make([]*armmonitor.ColumnDefinition, 0, len(declared))
	for _, col := range declared {
		columns = append(columns, &armmonitor.ColumnDefinition{
			Name: to.Ptr(col.Name),
			Type: to.Ptr(armmonitor.KnownColumnDefinitionType(streamColumnType(col.Type))),
		})
	}

	rule := armmonitor.DataCollectionRuleResourceProperties{
		StreamDeclarations: map[string]*armmonitor.StreamDeclaration{
			streamName: {Columns: columns},
		},
		Destinations: &armmonitor.DataCollectionRuleDestinations{
			LogAnalytics: []*armmonitor.LogAnalyticsDestination{{
				Name:                to.Ptr("workspace"),
				WorkspaceResourceID: ws.ID,
			}},
		},
		DataFlows: []*armmonitor.DataFlow{{
			Streams:      []*armmonitor.KnownDataFlowStreams{to.Ptr(armmonitor.KnownDataFlowStreams(streamName))},
			Destinations: []*string{to.Ptr("workspace")},
			OutputStream: to.Ptr(streamName),
			TransformKql: to.Ptr(transform),
		}},
	}

	var ingestionEndpoint string
	if dceName != "" {
		dce, err := c.dces.Get(ctx, run.ResourceGroup, dceName, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve endpoint %s for rule %s: %w", dceName, name, err)
		}
		rule.DataCollectionEndpointID = dce.ID
		if dce.Properties != nil && dce.Properties.LogsIngestion != nil {
			ingestionEndpoint = deref(dce.Properties.LogsIngestion.Endpoint)
		}
	}

	resp, err := c.dcrs.Create(ctx, run.ResourceGroup, name, &armmonitor.DataCollectionRulesClientCreateOptions{
		Body: &armmonitor.DataCollectionRuleResource{
			Location: to.Ptr(run.Location),
			Properties: &rule,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create data collection rule %s: %w", name, err)
	}

	outputs := map[string]any{
		"id":              deref(resp.ID),
		ir.AttrTableName:  tableName,
		ir.AttrStreamName: streamName,
	}
	if resp.Properties != nil {
		outputs["immutableId"] = deref(resp.Properties.ImmutableID)
	}
	if ingestionEndpoint != "" {
		outputs["ingestionEndpoint"] = ingestionEndpoint
	}
	return &provider.Applied{ID: deref(resp.ID), Outputs: outputs}, nil
}

// streamColumnType maps table column types onto the stream declaration
// type set, which has no guid.
func streamColumnType(t string) string {
	if t == "guid" {
		return "string"
	}
	return t
}
