package ir

// Attribute keys shared between config, comparators and providers.
const (
	AttrAddressSpace  = "addressSpace"
	AttrSubnets       = "subnets"
	AttrColumns       = "columns"
	AttrRetentionDays = "retentionDays"
	AttrPlan          = "plan"
	AttrTableName     = "tableName"
	AttrEnabled       = "enabled"
	AttrTargetID      = "targetId"
	AttrStorageID     = "storageId"
	AttrRules         = "rules"
	AttrSKU           = "sku"
	AttrSubnetID      = "subnetId"
	AttrPublicIPID    = "publicIpId"
	AttrVNetName      = "vnetName"
	AttrNSGID         = "nsgId"
	AttrWorkspaceID   = "workspaceId"
	AttrDCEID         = "dceId"
	AttrStreamName    = "streamName"
	AttrTransformKQL  = "transformKql"
	AttrContainer     = "container"
)

// SubnetSpec declares one subnet inside a virtual network.
type SubnetSpec struct {
	Name          string
	AddressPrefix string
}

// ColumnSpec declares one column of a custom Log Analytics table.
type ColumnSpec struct {
	Name string
	Type string
}

// SecurityRuleSpec declares one NSG rule.
type SecurityRuleSpec struct {
	Name                 string
	Priority             int32
	Direction            string
	Access               string
	Protocol             string
	SourcePrefix         string
	SourcePortRange      string
	DestinationPrefix    string
	DestinationPortRange string
}
