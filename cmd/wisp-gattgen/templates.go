package main

import (
	"fmt"
	"strings"
	"text/template"
)

// funcMap provides helper functions available to the template.
var funcMap = template.FuncMap{
	"goName": goName,
	"quote":  func(s string) string { return fmt.Sprintf("%q", s) },
}

// templates holds the parsed code generation template.
var templates = template.Must(template.New("").Funcs(funcMap).Parse(attributeTableTmpl))

// goName converts a kebab-case name like "network-name" to "NetworkName".
func goName(name string) string {
	var result strings.Builder
	for _, part := range strings.Split(name, "-") {
		if part == "" {
			continue
		}
		result.WriteString(strings.ToUpper(part[:1]))
		result.WriteString(part[1:])
	}
	return result.String()
}

// The template emits unindented code; writeFormatted runs goimports over it.
const attributeTableTmpl = `{{define "attributeTable"}}// Code generated by wisp-gattgen. DO NOT EDIT.

package provision

import "github.com/google/uuid"

// Provisioning service and attribute identifiers.
var (
// ServiceUUID identifies the {{.Name}} service.
ServiceUUID = uuid.MustParse({{quote .UUID}})
{{range .Attributes}}
// Attr{{goName .Name}} identifies the {{.Name}} attribute.
Attr{{goName .Name}} = uuid.MustParse({{quote .UUID}})
{{end -}}
)

// {{goName .Name}}Service returns the {{.Name}} service definition.
func {{goName .Name}}Service() Service {
return Service{
UUID: ServiceUUID,
Name: {{quote .Name}},
Attributes: []Attribute{
{{- range .Attributes}}
{
UUID: Attr{{goName .Name}},
Name: {{quote .Name}},
{{- if .Readable}}
Readable: true,
{{- end}}
{{- if .Writable}}
Writable: true,
{{- end}}
MaxLen: {{.MaxLength}},
},
{{- end}}
},
}
}
{{end}}`
