package selector

import (
	"testing"

	"github.com/txalkan/basic-bitcoin-syron/internal/txmodel"
)

func utxo(n int, value int64) txmodel.Utxo {
	var txid [32]byte
	txid[0] = byte(n)
	return txmodel.Utxo{
		Outpoint:  txmodel.Outpoint{Txid: txid, Vout: 0},
		ValueSats: value,
	}
}

func TestClassify(t *testing.T) {
	utxos := []txmodel.Utxo{
		utxo(1, 546),
		utxo(2, 10000),
		utxo(3, 599),
		utxo(4, 600),
	}

	feeBearing, inscriptions := Classify(utxos)

	if len(feeBearing) != 2 {
		t.Fatalf("expected 2 fee-bearing UTXOs, got %d", len(feeBearing))
	}
	if len(inscriptions) != 2 {
		t.Fatalf("expected 2 inscription-carrying UTXOs, got %d", len(inscriptions))
	}
	for _, u := range feeBearing {
		if u.ValueSats < DustThresholdSats {
			t.Errorf("fee-bearing UTXO below dust threshold: %d", u.ValueSats)
		}
	}
	for _, u := range inscriptions {
		if u.ValueSats >= DustThresholdSats {
			t.Errorf("inscription UTXO at or above dust threshold: %d", u.ValueSats)
		}
	}
}

func TestSelectReverseOldestFirst(t *testing.T) {
	tests := []struct {
		name       string
		candidates []txmodel.Utxo
		target     int64
		wantErr    bool
		wantFirst  int64 // ValueSats of the first selected element, the last candidate
	}{
		{
			name:       "single candidate sufficient",
			candidates: []txmodel.Utxo{utxo(1, 100000)},
			target:     50000,
			wantFirst:  100000,
		},
		{
			name: "last-first iteration order",
			candidates: []txmodel.Utxo{
				utxo(1, 10000),
				utxo(2, 10000),
				utxo(3, 40000),
			},
			target:    40000,
			wantFirst: 40000,
		},
		{
			name: "requires multiple inputs in reverse order",
			candidates: []txmodel.Utxo{
				utxo(1, 10000),
				utxo(2, 20000),
				utxo(3, 15000),
			},
			target:    30000,
			wantFirst: 15000,
		},
		{
			name:       "empty candidates",
			candidates: nil,
			target:     1000,
			wantErr:    true,
		},
		{
			name: "insufficient funds",
			candidates: []txmodel.Utxo{
				utxo(1, 500),
				utxo(2, 500),
			},
			target:  5000,
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			selected, err := SelectReverseOldestFirst(tc.candidates, tc.target)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got none")
				}
				var insufficient *InsufficientFundsError
				if !asInsufficientFundsError(err, &insufficient) {
					t.Fatalf("expected *InsufficientFundsError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(selected) == 0 {
				t.Fatalf("expected at least one selected UTXO")
			}
			if selected[0].ValueSats != tc.wantFirst {
				t.Errorf("first selected ValueSats = %d, want %d", selected[0].ValueSats, tc.wantFirst)
			}
			var total int64
			for _, u := range selected {
				total += u.ValueSats
			}
			if total < tc.target {
				t.Errorf("selected total %d below target %d", total, tc.target)
			}
		})
	}
}

func asInsufficientFundsError(err error, out **InsufficientFundsError) bool {
	e, ok := err.(*InsufficientFundsError)
	if ok {
		*out = e
	}
	return ok
}
