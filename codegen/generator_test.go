package codegen

import (
	"strings"
	"testing"

	"github.com/mvp-express/the-framework/internal/field"
	"github.com/mvp-express/the-framework/schema"
)

func sampleAssigned() Assigned {
	return Assigned{
		Package: "accountsvc",
		Service: schema.Service{
			Name: "AccountService",
			Methods: []schema.Method{
				{Name: "GetBalance", Request: "GetBalanceRequest", Response: "GetBalanceResponse"},
			},
		},
		Messages: []schema.Message{
			{Name: "GetBalanceRequest", Fields: []schema.Field{{Name: "accountId", Type: field.String}}},
			{Name: "GetBalanceResponse", Fields: []schema.Field{{Name: "balance", Type: field.Int64}}},
		},
		ServiceID:  100,
		MethodIDs:  map[string]int{"GetBalance": 16},
		MessageIDs: map[string]int{"GetBalanceRequest": 50, "GetBalanceResponse": 51},
	}
}

func TestGenerateProducesCompilableShapedSource(t *testing.T) {
	out, err := Generate(sampleAssigned())
	if err != nil {
		t.Fatalf("Generate(): %s", err)
	}
	src := string(out)

	for _, want := range []string{
		"package accountsvc",
		"type GetBalanceRequest struct",
		"AccountId string `myra:\"0\"`",
		"type AccountService interface",
		"GetBalance(req *GetBalanceRequest) (*GetBalanceResponse, error)",
		"type AccountServiceDispatcher struct",
		"case 16:",
	} {
		if !strings.Contains(src, want) {
			t.Fatalf("generated source missing %q:\n%s", want, src)
		}
	}
}

func TestGenerateIsIdempotent(t *testing.T) {
	a := sampleAssigned()
	first, err := Generate(a)
	if err != nil {
		t.Fatalf("Generate() first pass: %s", err)
	}
	second, err := Generate(a)
	if err != nil {
		t.Fatalf("Generate() second pass: %s", err)
	}
	if string(first) != string(second) {
		t.Fatalf("regeneration was not byte-identical")
	}
}
