package hash

import (
	"encoding/hex"
	"testing"
)

func TestDigest(t *testing.T) {
	tests := []struct {
		alg     string
		want    string
		wantErr bool
	}{
		{alg: "SHA-256", want: "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{alg: "sha-256", want: "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{alg: "SHA-384", want: "cb00753f45a35e8bb5a03d699ac65007272c32ab0eded1631a8b605a43ff5bed8086072ba1e7cc2358baeca134c825a7"},
		{alg: "sha-512", want: "ddaf35a193617abacc417349ae20413112e6fa4e89a97ea20a9eeee64b55d39a2192992a274fc1a836ba3c23a3feebbd454d4423643ce80e2a9ac94fa54ca49f"},
		{alg: "MD5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.alg, func(t *testing.T) {
			got, err := Digest([]byte("abc"), tt.alg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Digest() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if hex.EncodeToString(got) != tt.want {
				t.Errorf("Digest() = %x, want %s", got, tt.want)
			}
		})
	}
}
