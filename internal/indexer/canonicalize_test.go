package indexer

import "testing"

func TestCanonicalizeSortsKeys(t *testing.T) {
	raw := []byte(`{"b":1,"a":2,"nested":{"z":3,"y":4}}`)
	got, err := Canonicalize(raw)
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	want := `{"a":2,"b":1,"nested":{"y":4,"z":3}}`
	if string(got) != want {
		t.Errorf("Canonicalize() = %s, want %s", got, want)
	}
}

func TestPointer(t *testing.T) {
	v, err := decodeJSON([]byte(`{"utxo":{"address":"bc1qexample"},"brc20":{"amt":"1.5"}}`))
	if err != nil {
		t.Fatalf("decodeJSON: %v", err)
	}

	addr, ok := Pointer(v, "/utxo/address")
	if !ok || addr != "bc1qexample" {
		t.Errorf("Pointer(/utxo/address) = %v, %v", addr, ok)
	}

	amt, ok := Pointer(v, "/brc20/amt")
	if !ok || amt != "1.5" {
		t.Errorf("Pointer(/brc20/amt) = %v, %v", amt, ok)
	}

	if _, ok := Pointer(v, "/missing/field"); ok {
		t.Errorf("Pointer(/missing/field) should not resolve")
	}
}

func TestDecimalToSats(t *testing.T) {
	tests := []struct {
		decimal string
		want    uint64
		wantErr bool
	}{
		{"1.0", 100000000, false},
		{"1.5", 150000000, false},
		{"0.00000001", 1, false},
		{"123", 12300000000, false},
		{"not-a-number", 0, true},
		{"-1", 0, true},
	}

	for _, tc := range tests {
		got, err := DecimalToSats(tc.decimal)
		if tc.wantErr {
			if err == nil {
				t.Errorf("DecimalToSats(%q) expected error", tc.decimal)
			}
			continue
		}
		if err != nil {
			t.Errorf("DecimalToSats(%q) unexpected error: %v", tc.decimal, err)
			continue
		}
		if got != tc.want {
			t.Errorf("DecimalToSats(%q) = %d, want %d", tc.decimal, got, tc.want)
		}
	}
}
