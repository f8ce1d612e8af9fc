package model

// Token metadata sources.
const (
	MetaSourceChain  = "chain"
	MetaSourceStatic = "static"
)

// TokenMeta captures ERC20 metadata and where it came from.
type TokenMeta struct {
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Source   string `json:"source"`
}
