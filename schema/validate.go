package schema

import (
	"fmt"

	"github.com/mvp-express/the-framework/internal/errs"
)

// Issue is one validation diagnostic, carrying enough structured data to produce an
// actionable build-driver message.
type Issue struct {
	Path string // dotted path to the offending symbol, e.g. "messages.Account.id"
	Err  error
}

func (i Issue) String() string { return fmt.Sprintf("%s: %s", i.Path, i.Err) }

// Validate performs syntactic checks over s and batches every issue found rather
// than stopping at the first. A nil/empty return means the schema is well-formed.
func Validate(s *Schema) []Issue {
	var issues []Issue

	if s.Service.Name == "" {
		issues = append(issues, Issue{Path: "service", Err: errs.New(errs.CatUser, errs.TypeMissingField, "service name is required")})
	}
	if s.Service.ID != UnsetID && s.Service.ID <= 0 {
		issues = append(issues, Issue{Path: "service.id", Err: errs.New(errs.CatUser, errs.TypeOutOfRange, fmt.Sprintf("service id %d must be positive", s.Service.ID))})
	}
	if len(s.Service.Methods) == 0 {
		issues = append(issues, Issue{Path: "service.methods", Err: errs.New(errs.CatUser, errs.TypeMissingField, "service must declare at least one method")})
	}

	messageNames := map[string]bool{}
	for _, m := range s.Messages {
		if m.Name == "" {
			issues = append(issues, Issue{Path: "messages[]", Err: errs.New(errs.CatUser, errs.TypeMissingField, "message name is required")})
			continue
		}
		if messageNames[m.Name] {
			issues = append(issues, Issue{
				Path: "messages." + m.Name,
				Err:  errs.New(errs.CatUser, errs.TypeDuplicateMessageName, fmt.Sprintf("duplicate message name %q", m.Name)),
			})
		}
		messageNames[m.Name] = true

		if len(m.Fields) == 0 {
			issues = append(issues, Issue{Path: "messages." + m.Name + ".fields", Err: errs.New(errs.CatUser, errs.TypeMissingField, fmt.Sprintf("message %q must declare at least one field", m.Name))})
		}

		fieldNames := map[string]bool{}
		for _, f := range m.Fields {
			path := "messages." + m.Name + ".fields." + f.Name
			if f.Name == "" {
				issues = append(issues, Issue{Path: "messages." + m.Name + ".fields[]", Err: errs.New(errs.CatUser, errs.TypeMissingField, "field name is required")})
				continue
			}
			if fieldNames[f.Name] {
				issues = append(issues, Issue{Path: path, Err: errs.New(errs.CatUser, errs.TypeDuplicateMessageName, fmt.Sprintf("duplicate field name %q", f.Name))})
			}
			fieldNames[f.Name] = true
			if f.Type == 0 { // field.Unknown
				issues = append(issues, Issue{Path: path, Err: errs.New(errs.CatUser, errs.TypeUnknownFieldType, fmt.Sprintf("field %q has no recognized type", f.Name))})
			}
		}
	}

	methodIDs := map[int]string{}
	methodNames := map[string]bool{}
	for _, m := range s.Service.Methods {
		if m.Name == "" {
			issues = append(issues, Issue{Path: "methods[]", Err: errs.New(errs.CatUser, errs.TypeMissingField, "method name is required")})
			continue
		}
		if methodNames[m.Name] {
			issues = append(issues, Issue{Path: "methods." + m.Name, Err: errs.New(errs.CatUser, errs.TypeDuplicateMethodID, fmt.Sprintf("duplicate method name %q", m.Name))})
		}
		methodNames[m.Name] = true

		if m.ID != UnsetID {
			if m.ID <= 0 {
				issues = append(issues, Issue{Path: "methods." + m.Name + ".id", Err: errs.New(errs.CatUser, errs.TypeOutOfRange, fmt.Sprintf("method id %d must be positive", m.ID))})
			} else if owner, ok := methodIDs[m.ID]; ok {
				issues = append(issues, Issue{
					Path: "methods." + m.Name + ".id",
					Err:  errs.New(errs.CatUser, errs.TypeDuplicateMethodID, fmt.Sprintf("method id %d already used by %q", m.ID, owner)),
				})
			}
			methodIDs[m.ID] = m.Name
		}

		if m.Request == "" {
			issues = append(issues, Issue{Path: "methods." + m.Name + ".request", Err: errs.New(errs.CatUser, errs.TypeMissingField, "request message is required")})
		} else if !messageNames[m.Request] {
			issues = append(issues, Issue{
				Path: "methods." + m.Name + ".request",
				Err:  errs.New(errs.CatUser, errs.TypeUndefinedMessageRef, fmt.Sprintf("request message %q is not defined", m.Request)),
			})
		}
		if m.Response == "" {
			issues = append(issues, Issue{Path: "methods." + m.Name + ".response", Err: errs.New(errs.CatUser, errs.TypeMissingField, "response message is required")})
		} else if !messageNames[m.Response] {
			issues = append(issues, Issue{
				Path: "methods." + m.Name + ".response",
				Err:  errs.New(errs.CatUser, errs.TypeUndefinedMessageRef, fmt.Sprintf("response message %q is not defined", m.Response)),
			})
		}
	}

	return issues
}
