package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// GenerateAttributeTable renders the Go source for a validated service
// definition. UUIDs are normalized to canonical lowercase form.
func GenerateAttributeTable(def *RawServiceDef) (string, error) {
	norm := *def
	norm.UUID = uuid.MustParse(def.UUID).String()
	norm.Attributes = make([]RawAttributeDef, len(def.Attributes))
	for i, attr := range def.Attributes {
		norm.Attributes[i] = attr
		norm.Attributes[i].UUID = uuid.MustParse(attr.UUID).String()
	}

	var b strings.Builder
	if err := templates.ExecuteTemplate(&b, "attributeTable", &norm); err != nil {
		return "", fmt.Errorf("rendering attribute table: %w", err)
	}
	return b.String(), nil
}
