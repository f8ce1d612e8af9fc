package model

import "github.com/shopspring/decimal"

// BundleID is the id of the singleton native rate record.
const BundleID = "1"

// Bundle holds the process-wide native coin price in USD.
type Bundle struct {
	ID             string          `json:"id"`
	NativePriceUSD decimal.Decimal `json:"native_price_usd"`
}
