package tokens

import (
	"fmt"

	"priceScope/internal/model"
)

// Definition is hardcoded metadata for tokens whose on-chain calls are non-standard or broken.
type Definition struct {
	Address  string `mapstructure:"address" json:"address"`
	Symbol   string `mapstructure:"symbol" json:"symbol"`
	Name     string `mapstructure:"name" json:"name"`
	Decimals uint8  `mapstructure:"decimals" json:"decimals"`
}

// StaticDefinitions returns the built-in definitions.
func StaticDefinitions() []Definition {
	return []Definition{
		{
			Address:  "0xfa9343c3897324496a05fc75abed6bac29f8a40f",
			Symbol:   "USDT (MULTICHAIN)",
			Name:     "DEPRECATED USDT",
			Decimals: 6,
		},
		{
			Address:  "0x33b57dc70014fd7aa6e1ed3080eed2b619632b8e",
			Symbol:   "USDT",
			Name:     "USDT",
			Decimals: 6,
		},
	}
}

// Table is a read-only address -> Definition lookup.
type Table struct {
	defs map[string]Definition
}

// NewTable builds a table from the built-in definitions plus extra, where extra wins on conflicts.
func NewTable(extra ...Definition) (*Table, error) {
	t := &Table{defs: make(map[string]Definition)}
	for _, def := range append(StaticDefinitions(), extra...) {
		addr, err := model.NormalizeAddress(def.Address)
		if err != nil {
			return nil, fmt.Errorf("static token %q: %w", def.Symbol, err)
		}
		def.Address = addr
		t.defs[addr] = def
	}
	return t, nil
}

// FromAddress returns the definition for address, if any.
func (t *Table) FromAddress(address string) (Definition, bool) {
	if t == nil {
		return Definition{}, false
	}
	addr, err := model.NormalizeAddress(address)
	if err != nil {
		return Definition{}, false
	}
	def, ok := t.defs[addr]
	return def, ok
}

// Meta converts a definition into token metadata.
func (d Definition) Meta() model.TokenMeta {
	return model.TokenMeta{
		Address:  d.Address,
		Decimals: d.Decimals,
		Symbol:   d.Symbol,
		Name:     d.Name,
		Source:   model.MetaSourceStatic,
	}
}
