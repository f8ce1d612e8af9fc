package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"priceScope/internal/model"
	"priceScope/internal/pricing"
	"priceScope/internal/storage/memory"
)

type nativePriceResponse struct {
	NativeToken    string          `json:"native_token"`
	NativePriceUSD decimal.Decimal `json:"native_price_usd"`
	StoredPriceUSD decimal.Decimal `json:"stored_price_usd"`
}

type tokenPriceResponse struct {
	Token         string          `json:"token"`
	Symbol        string          `json:"symbol,omitempty"`
	Known         bool            `json:"known"`
	DerivedNative decimal.Decimal `json:"derived_native"`
	PriceUSD      decimal.Decimal `json:"price_usd"`
	StoredNative  decimal.Decimal `json:"stored_derived_native"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) engine(snapshot *memory.Store) *pricing.Engine {
	var lookup pricing.PairLookup = snapshot
	if s.opts.Lookup != nil {
		lookup = s.opts.Lookup
	}
	return pricing.NewEngine(snapshot, lookup, s.opts.Rules, s.opts.Metrics, s.logger)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	snapshot := s.opts.Source.Snapshot()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"tokens": len(snapshot.Tokens()),
		"pairs":  len(snapshot.Pairs()),
	})
}

func (s *Server) nativePrice(w http.ResponseWriter, r *http.Request) {
	snapshot := s.opts.Source.Snapshot()
	resp := nativePriceResponse{
		NativeToken:    s.opts.Rules.NativeToken(),
		NativePriceUSD: s.engine(snapshot).Oracle.NativePriceUSD(),
	}
	if bundle, ok := snapshot.LoadBundle(model.BundleID); ok {
		resp.StoredPriceUSD = bundle.NativePriceUSD
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) tokenPrice(w http.ResponseWriter, r *http.Request) {
	address, err := model.NormalizeAddress(mux.Vars(r)["address"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snapshot := s.opts.Source.Snapshot()
	engine := s.engine(snapshot)
	derived := engine.Resolver.FindNativePerToken(r.Context(), address)
	resp := tokenPriceResponse{
		Token:         address,
		DerivedNative: derived,
		PriceUSD:      derived.Mul(engine.Oracle.NativePriceUSD()),
	}
	if token, ok := snapshot.LoadToken(address); ok {
		resp.Known = true
		resp.Symbol = token.Symbol
		resp.StoredNative = token.DerivedNative
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) pair(w http.ResponseWriter, r *http.Request) {
	address, err := model.NormalizeAddress(mux.Vars(r)["address"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	pair, ok := s.opts.Source.Snapshot().LoadPair(address)
	if !ok {
		writeError(w, http.StatusNotFound, "pair not found")
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
