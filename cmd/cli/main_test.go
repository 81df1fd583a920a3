package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iho/entityledger/internal/adapter/http/dto"
	"github.com/iho/entityledger/internal/domain"
)

const sample = `2015-01-16,john,mary,125.00
2015-01-17,john,supermarket,20.00
2015-01-17,mary,insurance,100.00
`

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestBalanceCmd(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"current", []string{"balance", "john"}, "-145"},
		{"first day", []string{"balance", "john", "--on", "2015-01-16"}, "-125"},
		{"mary second day", []string{"balance", "mary", "--on", "2015-01-17"}, "25"},
		{"before history", []string{"balance", "mary", "--on", "2015-01-15"}, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, sample, tt.args...)
			if err != nil {
				t.Fatalf("command failed: %v", err)
			}
			if strings.TrimSpace(out) != tt.expected {
				t.Fatalf("expected %s, got %q", tt.expected, out)
			}
		})
	}
}

func TestBalanceCmdErrors(t *testing.T) {
	if _, err := execute(t, sample, "balance", "nobody"); !errors.Is(err, domain.ErrEntityNotFound) {
		t.Fatalf("expected ErrEntityNotFound, got %v", err)
	}

	if _, err := execute(t, sample, "balance", "john", "--on", "16/01/2015"); err == nil {
		t.Fatalf("expected error for bad --on date")
	}

	bad := sample + "2015-01-18,john,,5\n"
	_, err := execute(t, bad, "balance", "john")
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Record != "2015-01-18,john,,5" {
		t.Fatalf("expected validation error for the bad record, got %v", err)
	}
}

func TestBalanceCmdJSON(t *testing.T) {
	out, err := execute(t, sample, "balance", "mary", "--on", "2015-01-16", "--json")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}

	var resp dto.BalanceResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("invalid json output %q: %v", out, err)
	}
	if resp.Entity != "mary" || resp.Balance.String() != "125" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestEntitiesCmdFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.csv")
	if err := os.WriteFile(path, []byte(strings.ReplaceAll(sample, "\n", "\r\n")), 0o600); err != nil {
		t.Fatalf("write records: %v", err)
	}

	out, err := execute(t, "", "entities", "--file", path)
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}

	expected := "insurance\njohn\nmary\nsupermarket\n"
	if out != expected {
		t.Fatalf("unexpected entities output:\n%s", out)
	}
}

func TestEntriesCmd(t *testing.T) {
	out, err := execute(t, sample, "entries", "mary")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}

	expected := "2015-01-16\t125\n2015-01-17\t-100\n"
	if out != expected {
		t.Fatalf("unexpected entries output:\n%q", out)
	}
}

func TestValidateCmd(t *testing.T) {
	out, err := execute(t, sample, "validate")
	if err != nil {
		t.Fatalf("expected clean batch to validate, got %v", err)
	}
	if !strings.Contains(out, "3 records, 0 invalid") {
		t.Fatalf("unexpected output: %q", out)
	}

	bad := "201-01-16,john,mary,1\n" + sample + "2015-01-18,john,,5\n"
	out, err = execute(t, bad, "validate")
	if !errors.Is(err, errInvalidRecords) {
		t.Fatalf("expected errInvalidRecords, got %v", err)
	}
	if !strings.Contains(out, "5 records, 2 invalid") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestConsistencyCmd(t *testing.T) {
	out, err := execute(t, sample, "consistency")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if strings.TrimSpace(out) != "Consistency check PASSED" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := printJSON(&buf, struct {
		A int `json:"a"`
	}{A: 1}); err != nil {
		t.Fatalf("printJSON: %v", err)
	}

	expected := "{\n  \"a\": 1\n}\n"
	if buf.String() != expected {
		t.Fatalf("unexpected json output:\n%s", buf.String())
	}
}
