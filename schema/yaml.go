package schema

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/mvp-express/the-framework/internal/errs"
	"github.com/mvp-express/the-framework/internal/field"
)

// rawSchema mirrors the YAML document's shape before type names and defaults are
// resolved into the Schema model.
type rawSchema struct {
	Service string     `yaml:"service"`
	ID      *int       `yaml:"id"`
	Methods []rawMethod `yaml:"methods"`
	Messages []rawMessage `yaml:"messages"`
}

type rawMethod struct {
	Name     string `yaml:"name"`
	ID       *int   `yaml:"id"`
	Request  string `yaml:"request"`
	Response string `yaml:"response"`
}

type rawMessage struct {
	Name   string     `yaml:"name"`
	Fields []rawField `yaml:"fields"`
}

type rawField struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Optional bool   `yaml:"optional"`
	Default  string `yaml:"default"`
}

// ParseFile reads and parses a schema YAML document from path.
func ParseFile(path string) (*Schema, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "schema: reading %s", path)
	}
	return Parse(b)
}

// Parse parses a schema YAML document from raw bytes. Unknown top-level keys
// are ignored, per gopkg.in/yaml.v3's default unmarshal behavior.
func Parse(b []byte) (*Schema, error) {
	var raw rawSchema
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, errs.New(errs.CatUser, errs.TypeSchemaValidation, "schema: "+err.Error())
	}

	s := &Schema{
		Service: Service{
			Name: raw.Service,
			ID:   UnsetID,
		},
	}
	if raw.ID != nil {
		s.Service.ID = *raw.ID
	}

	for _, rm := range raw.Methods {
		m := Method{Name: rm.Name, ID: UnsetID, Request: rm.Request, Response: rm.Response}
		if rm.ID != nil {
			m.ID = *rm.ID
		}
		s.Service.Methods = append(s.Service.Methods, m)
	}

	for _, rmsg := range raw.Messages {
		msg := Message{Name: rmsg.Name, ID: UnsetID}
		for _, rf := range rmsg.Fields {
			ft, err := field.ParseType(rf.Type)
			if err != nil {
				return nil, errs.New(errs.CatUser, errs.TypeUnknownFieldType,
					"schema: message "+rmsg.Name+" field "+rf.Name+": "+err.Error())
			}
			msg.Fields = append(msg.Fields, Field{
				Name:     rf.Name,
				Type:     ft,
				Optional: rf.Optional,
				Default:  rf.Default,
			})
		}
		s.Messages = append(s.Messages, msg)
	}

	return s, nil
}
