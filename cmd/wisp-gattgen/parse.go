package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// maxValueLen is the longest value an attribute may accept. One byte of each
// 64-byte storage region is reserved for the terminator, so values cap at 63.
const maxValueLen = 63

// RawGattDef represents an attribute table loaded from YAML.
type RawGattDef struct {
	Service RawServiceDef `yaml:"service"`
}

// RawServiceDef represents the single service an attribute table defines.
type RawServiceDef struct {
	Name        string            `yaml:"name"`
	UUID        string            `yaml:"uuid"`
	Description string            `yaml:"description"`
	Attributes  []RawAttributeDef `yaml:"attributes"`
}

// RawAttributeDef represents a single attribute definition.
type RawAttributeDef struct {
	Name        string `yaml:"name"`
	UUID        string `yaml:"uuid"`
	Readable    bool   `yaml:"readable"`
	Writable    bool   `yaml:"writable"`
	MaxLength   int    `yaml:"maxLength"`
	Description string `yaml:"description"`
}

// ParseServiceDef parses and validates an attribute table from YAML bytes.
func ParseServiceDef(data []byte) (*RawServiceDef, error) {
	var def RawGattDef
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parsing attribute table: %w", err)
	}
	if err := validateServiceDef(&def.Service); err != nil {
		return nil, err
	}
	return &def.Service, nil
}

// validateServiceDef checks the constraints the provisioning surface
// depends on.
func validateServiceDef(svc *RawServiceDef) error {
	if svc.Name == "" {
		return fmt.Errorf("service definition missing name")
	}
	if _, err := uuid.Parse(svc.UUID); err != nil {
		return fmt.Errorf("service %s: bad uuid %q: %w", svc.Name, svc.UUID, err)
	}
	if len(svc.Attributes) == 0 {
		return fmt.Errorf("service %s has no attributes", svc.Name)
	}

	seen := map[string]string{svc.UUID: svc.Name}
	for _, attr := range svc.Attributes {
		if attr.Name == "" {
			return fmt.Errorf("service %s: attribute missing name", svc.Name)
		}
		if _, err := uuid.Parse(attr.UUID); err != nil {
			return fmt.Errorf("attribute %s: bad uuid %q: %w", attr.Name, attr.UUID, err)
		}
		if other, dup := seen[attr.UUID]; dup {
			return fmt.Errorf("attribute %s: uuid already used by %s", attr.Name, other)
		}
		seen[attr.UUID] = attr.Name
		if !attr.Readable && !attr.Writable {
			return fmt.Errorf("attribute %s: neither readable nor writable", attr.Name)
		}
		if attr.MaxLength < 1 || attr.MaxLength > maxValueLen {
			return fmt.Errorf("attribute %s: max length %d outside 1..%d", attr.Name, attr.MaxLength, maxValueLen)
		}
	}

	return nil
}

// LoadServiceDef loads and parses an attribute table from a file.
func LoadServiceDef(path string) (*RawServiceDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ParseServiceDef(data)
}
