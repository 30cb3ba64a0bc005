// Package config loads and validates the JSON configuration azlog runs
// from: one global parameters file plus a directory of per-table schema
// files. Everything is strongly typed and validated once at load time;
// downstream components never see raw JSON.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/azlog-io/azlog/internal/state"
	"github.com/go-playground/validator/v10"
)

// Config is the global parameters file.
type Config struct {
	SubscriptionID string `json:"subscriptionId" validate:"required,uuid"`
	ResourceGroup  string `json:"resourceGroup" validate:"required,max=90"`
	Location       string `json:"location" validate:"required"`
	Workspace      string `json:"workspace" validate:"required,min=4,max=63"`

	// Prefix is an optional short owner/environment tag folded into
	// resource name prefixes, e.g. "jp" yields "dcr-jp-".
	Prefix string `json:"prefix,omitempty" validate:"omitempty,alphanum,max=8"`

	SkipExisting   bool   `json:"skipExisting"`
	AbortOnFailure bool   `json:"abortOnFailure"`
	TimeoutMinutes int    `json:"timeoutMinutes,omitempty" validate:"omitempty,min=1,max=720"`
	OutputDir      string `json:"outputDir,omitempty"`

	Endpoint *EndpointConfig      `json:"dataCollectionEndpoint,omitempty"`
	Storage  *StorageConfig       `json:"storage,omitempty"`
	Network  *NetworkConfig       `json:"network,omitempty"`
	Ledger   *state.BackendConfig `json:"ledger,omitempty"`
}

// EndpointConfig declares an optional shared Data Collection Endpoint.
// Tables not marked directDcr route ingestion through it.
type EndpointConfig struct {
	Enabled  bool   `json:"enabled"`
	BaseName string `json:"baseName" validate:"omitempty,max=40"`
}

// StorageConfig declares the storage account that backs flow logs and the
// Cribl blob collector.
type StorageConfig struct {
	BaseName  string `json:"baseName" validate:"required,lowercase,alphanum,max=20"`
	SKU       string `json:"sku,omitempty" validate:"omitempty,oneof=Standard_LRS Standard_GRS Standard_ZRS Standard_RAGRS Premium_LRS"`
	Container string `json:"container,omitempty" validate:"omitempty,lowercase,max=63"`
}

// NetworkConfig declares the network estate.
type NetworkConfig struct {
	VNet     *VNetConfig    `json:"vnet,omitempty"`
	NSG      *NSGConfig     `json:"nsg,omitempty"`
	FlowLogs *FlowLogConfig `json:"flowLogs,omitempty"`
	Gateway  *GatewayConfig `json:"gateway,omitempty"`
	Bastion  *BastionConfig `json:"bastion,omitempty"`
}

type VNetConfig struct {
	BaseName     string         `json:"baseName" validate:"required"`
	AddressSpace string         `json:"addressSpace" validate:"required,cidr"`
	Subnets      []SubnetConfig `json:"subnets" validate:"required,min=1,dive"`
}

type SubnetConfig struct {
	Name          string `json:"name" validate:"required"`
	AddressPrefix string `json:"addressPrefix" validate:"required,cidr"`
}

type NSGConfig struct {
	BaseName string       `json:"baseName" validate:"required"`
	Rules    []RuleConfig `json:"rules,omitempty" validate:"dive"`
}

type RuleConfig struct {
	Name                 string `json:"name" validate:"required"`
	Priority             int32  `json:"priority" validate:"required,min=100,max=4096"`
	Direction            string `json:"direction" validate:"required,oneof=Inbound Outbound"`
	Access               string `json:"access" validate:"required,oneof=Allow Deny"`
	Protocol             string `json:"protocol" validate:"required,oneof=Tcp Udp Icmp *"`
	SourcePrefix         string `json:"sourcePrefix" validate:"required"`
	SourcePortRange      string `json:"sourcePortRange" validate:"required"`
	DestinationPrefix    string `json:"destinationPrefix" validate:"required"`
	DestinationPortRange string `json:"destinationPortRange" validate:"required"`
}

type FlowLogConfig struct {
	Enabled       bool `json:"enabled"`
	RetentionDays int  `json:"retentionDays,omitempty" validate:"omitempty,min=1,max=365"`
}

type GatewayConfig struct {
	BaseName string `json:"baseName" validate:"required"`
	SKU      string `json:"sku,omitempty" validate:"omitempty,oneof=Basic VpnGw1 VpnGw2 VpnGw3 VpnGw1AZ VpnGw2AZ VpnGw3AZ"`
}

type BastionConfig struct {
	BaseName string `json:"baseName" validate:"required"`
}

// TableSchema is one per-table schema file.
type TableSchema struct {
	Name          string         `json:"name" validate:"required,max=40"`
	RetentionDays int            `json:"retentionDays,omitempty" validate:"omitempty,min=4,max=730"`
	Plan          string         `json:"plan,omitempty" validate:"omitempty,oneof=Analytics Basic Auxiliary"`
	Columns       []ColumnConfig `json:"columns" validate:"required,min=1,dive"`
	TransformKQL  string         `json:"transformKql,omitempty"`

	// DirectDCR builds a DCR without a DCE dependency. Shorter name
	// limit, no ingestion endpoint.
	DirectDCR bool `json:"directDcr,omitempty"`
}

type ColumnConfig struct {
	Name string `json:"name" validate:"required"`
	Type string `json:"type" validate:"required,oneof=string int long real boolean datetime dynamic guid"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads and validates the global parameters file. Unknown fields are
// rejected so a typo fails here instead of deep inside a provider call.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config %s: %w", path, err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, formatValidation(err))
	}
	if cfg.Endpoint != nil && cfg.Endpoint.Enabled && cfg.Endpoint.BaseName == "" {
		return nil, fmt.Errorf("invalid config %s: dataCollectionEndpoint.baseName is required when enabled", path)
	}
	return &cfg, nil
}

// LoadSchemaDir reads every *.json file in a schema directory, sorted by
// filename so runs are deterministic.
func LoadSchemaDir(dir string) ([]*TableSchema, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list schema directory %s: %w", dir, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no schema files found in %s", dir)
	}
	sort.Strings(matches)

	schemas := make([]*TableSchema, 0, len(matches))
	for _, path := range matches {
		schema, err := loadSchema(path)
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, schema)
	}
	return schemas, nil
}

func loadSchema(path string) (*TableSchema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open schema %s: %w", path, err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()

	var schema TableSchema
	if err := dec.Decode(&schema); err != nil {
		return nil, fmt.Errorf("failed to parse schema %s: %w", path, err)
	}
	// The _CL convention is applied during declaration building; schema
	// authors may write either form.
	schema.Name = strings.TrimSuffix(schema.Name, "_CL")
	if err := validate.Struct(&schema); err != nil {
		return nil, fmt.Errorf("invalid schema %s: %w", path, formatValidation(err))
	}
	return &schema, nil
}

// formatValidation flattens validator errors into one readable line per
// failing field.
func formatValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%s", strings.Join(parts, "; "))
}
