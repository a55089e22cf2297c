// Package codegen renders a resolved schema into Go source: service interfaces,
// message records, and a closed-dispatch dispatcher. Shaped after claw's
// internal/render/golang package (text/template over an embed.FS) and
// clawc/internal/render/golang/structwriter (gofmt via go/format.Source before the
// file hits disk, so regeneration is idempotent and byte-identical).
package codegen

import (
	"bytes"
	"embed"
	"fmt"
	"go/format"
	"text/template"
	"unicode"

	"github.com/pkg/errors"

	"github.com/mvp-express/the-framework/internal/field"
	"github.com/mvp-express/the-framework/schema"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("codegen").Funcs(template.FuncMap{
	"goFieldType": goFieldType,
	"export":      export,
	"myraTag":     myraTag,
}).ParseFS(templateFS, "templates/*.tmpl"))

// Assigned carries a Schema plus the numeric ids the allocator resolved for it,
// which is what the templates actually render.
type Assigned struct {
	Package string
	Service schema.Service
	Messages []schema.Message

	ServiceID  int
	MethodIDs  map[string]int // method name -> id
	MessageIDs map[string]int // message name -> id
}

// Generate renders Assigned into formatted Go source for one output file containing
// the service interface, message records, and dispatcher.
func Generate(a Assigned) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "service.go.tmpl", a); err != nil {
		return nil, errors.Wrap(err, "codegen: executing template")
	}

	out, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, errors.Wrapf(err, "codegen: generated source for %s did not gofmt cleanly", a.Service.Name)
	}
	return out, nil
}

// export upper-cases the first rune of a camelCase IDL field name so it can back a
// Go exported struct field.
func export(name string) string {
	r := []rune(name)
	if len(r) == 0 {
		return name
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// goFieldType renders a schema field's Go type, wrapping it in a pointer when the
// field is optional so zero value and "absent" remain distinguishable (mirrors the
// `myra:"<n>,optional"` convention the layout cache reads at runtime).
func goFieldType(f schema.Field) string {
	base := ""
	switch f.Type {
	case field.Bool:
		base = "bool"
	case field.Int8:
		base = "int8"
	case field.Int16:
		base = "int16"
	case field.Int32:
		base = "int32"
	case field.Int64:
		base = "int64"
	case field.Float32:
		base = "float32"
	case field.Float64:
		base = "float64"
	case field.String:
		base = "string"
	case field.Bytes:
		base = "[]byte"
	default:
		base = "any"
	}
	if f.Optional {
		return fmt.Sprintf("*%s", base)
	}
	return base
}

// myraTag renders the `myra:"<n>[,optional]"` struct tag for the field at position i.
func myraTag(i int, f schema.Field) string {
	if f.Optional {
		return fmt.Sprintf("`myra:\"%d,optional\"`", i)
	}
	return fmt.Sprintf("`myra:\"%d\"`", i)
}
