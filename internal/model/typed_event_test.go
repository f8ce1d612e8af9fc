package model

import (
	"encoding/json"
	"testing"
)

func TestSwapEventDataJSONStringFields(t *testing.T) {
	payload := SwapEventData{
		Sender:     "0x1111111111111111111111111111111111111111",
		To:         "0x2222222222222222222222222222222222222222",
		Amount0In:  "12345678901234567890",
		Amount1In:  "0",
		Amount0Out: "0",
		Amount1Out: "42",
	}

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	for _, key := range []string{"amount0_in", "amount1_in", "amount0_out", "amount1_out"} {
		if _, ok := decoded[key].(string); !ok {
			t.Fatalf("%s should be string", key)
		}
	}
}

func TestTypedEventRecordKeepsDecodedRaw(t *testing.T) {
	line := []byte(`{"chain_id":17777,"block_number":10,"address":"0xAbc","event_name":"Sync","timestamp":1700000000,"decoded":{"reserve0":"1000","reserve1":"2000"}}`)

	var record TypedEventRecord
	if err := json.Unmarshal(line, &record); err != nil {
		t.Fatalf("unmarshal record: %v", err)
	}
	if record.EventName != EventSync {
		t.Fatalf("event name mismatch: %s", record.EventName)
	}

	var sync SyncEventData
	if err := json.Unmarshal(record.Decoded, &sync); err != nil {
		t.Fatalf("unmarshal sync: %v", err)
	}
	if sync.Reserve0 != "1000" || sync.Reserve1 != "2000" {
		t.Fatalf("reserves mismatch: %+v", sync)
	}
}
