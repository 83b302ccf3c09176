package model

import (
	"encoding/json"
	"testing"
)

func TestSwapEventDataJSONStringFields(t *testing.T) {
	payload := SwapEventData{
		Owner:       "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM",
		XToY:        true,
		AmountIn:    "18446744073709551615",
		AmountInNet: "18078809192235360283",
		AmountOut:   "42",
		ReserveX:    "11000",
		ReserveY:    "45538",
	}

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	for _, key := range []string{"amount_in", "amount_in_net", "amount_out", "reserve_x", "reserve_y"} {
		if _, ok := decoded[key].(string); !ok {
			t.Fatalf("%s should be string", key)
		}
	}
	if decoded["x_to_y"] != true {
		t.Fatalf("x_to_y should be true")
	}
}

func TestTypedEventRecordKeepsRawDecoded(t *testing.T) {
	event := TypedEvent{
		Sequence:  3,
		Pool:      "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU",
		EventName: EventDeposit,
		Timestamp: 1700000000,
		Decoded:   DepositEventData{Owner: "o", Shares: "8000", AmountX: "10000", AmountY: "50000"},
		PoolMeta:  PoolMeta{FeeBps: 200, Seed: 1111},
	}

	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var record TypedEventRecord
	if err := json.Unmarshal(data, &record); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if record.EventName != EventDeposit || record.PoolMeta.FeeBps != 200 {
		t.Fatalf("record mismatch: %+v", record)
	}

	var deposit DepositEventData
	if err := json.Unmarshal(record.Decoded, &deposit); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if deposit.Shares != "8000" || deposit.AmountY != "50000" {
		t.Fatalf("payload mismatch: %+v", deposit)
	}
}
