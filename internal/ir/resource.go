package ir

// ResourceType identifies the kind of Azure resource a declaration targets.
type ResourceType string

const (
	TypeResourceGroup  ResourceType = "resourceGroup"
	TypeNetworkWatcher ResourceType = "networkWatcher"
	TypeVNet           ResourceType = "vnet"
	TypeSubnet         ResourceType = "subnet"
	TypeNSG            ResourceType = "nsg"
	TypePublicIP       ResourceType = "publicIP"
	TypeStorageAccount ResourceType = "storageAccount"
	TypeWorkspace      ResourceType = "logAnalyticsWorkspace"
	TypeTable          ResourceType = "table"
	TypeDCE            ResourceType = "dce"
	TypeDCR            ResourceType = "dcr"
	TypeFlowLog        ResourceType = "flowLog"
	TypeVPNGateway     ResourceType = "vpnGateway"
	TypeBastion        ResourceType = "bastion"
)

// SuffixMode controls how a name suffix is derived.
type SuffixMode string

const (
	SuffixEmpty    SuffixMode = "empty"
	SuffixLocation SuffixMode = "location"
	SuffixCustom   SuffixMode = "custom"
)

// NamingPolicy describes the naming constraints of one resource type.
type NamingPolicy struct {
	Prefix       string
	SuffixMode   SuffixMode
	CustomSuffix string
	MaxLength    int
	// AlnumOnly forces lowercase alphanumeric output (storage accounts).
	AlnumOnly     bool
	HyphenAllowed bool
}

// CandidateName is a name produced by the builder, guaranteed to satisfy
// the policy it was built under.
type CandidateName struct {
	Value string
	// LengthBudgetRemaining is MaxLength - len(Value), kept for diagnostics.
	LengthBudgetRemaining int
}

// ResourceDeclaration is one desired resource. Declarations are built once
// from configuration and never mutated afterwards.
type ResourceDeclaration struct {
	Type     ResourceType
	BaseName string
	Location string
	Naming   NamingPolicy
	// GloballyUnique marks names claimed from a global namespace
	// (storage accounts); creates go through the uniqueness retrier.
	GloballyUnique bool
	// Attributes holds type-specific desired settings: table columns and
	// retention, vnet address space and subnets, flow-log bindings.
	Attributes map[string]any
}

// Address returns the stable identifier used in outcomes and logs.
func (d *ResourceDeclaration) Address() string {
	return string(d.Type) + "." + d.BaseName
}

// ObservedState is the result of a read-only provider lookup. Absence is
// data here, never an error.
type ObservedState struct {
	Exists bool
	// Snapshot carries the observed fields the comparators care about,
	// e.g. existing subnet names or table columns.
	Snapshot map[string]any
}
