package tokens

import "testing"

func TestFromAddress(t *testing.T) {
	table, err := NewTable()
	if err != nil {
		t.Fatalf("table: %v", err)
	}

	def, ok := table.FromAddress("0x33B57DC70014FD7AA6E1ED3080EED2B619632B8E")
	if !ok {
		t.Fatalf("expected static definition")
	}
	if def.Symbol != "USDT" || def.Decimals != 6 {
		t.Fatalf("definition mismatch: %+v", def)
	}

	if _, ok := table.FromAddress("0x1111111111111111111111111111111111111111"); ok {
		t.Fatalf("unexpected definition for unknown token")
	}
}

func TestNewTableExtraOverrides(t *testing.T) {
	table, err := NewTable(Definition{
		Address:  "0xfa9343c3897324496a05fc75abed6bac29f8a40f",
		Symbol:   "USDT.m",
		Name:     "Multichain USDT",
		Decimals: 6,
	})
	if err != nil {
		t.Fatalf("table: %v", err)
	}

	def, ok := table.FromAddress("0xfa9343c3897324496a05fc75abed6bac29f8a40f")
	if !ok || def.Symbol != "USDT.m" {
		t.Fatalf("override not applied: %+v", def)
	}
	if meta := def.Meta(); meta.Source != "static" {
		t.Fatalf("meta source mismatch: %s", meta.Source)
	}

	if _, err := NewTable(Definition{Address: "bad"}); err == nil {
		t.Fatalf("expected error for invalid address")
	}
}
