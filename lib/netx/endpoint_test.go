package netx

import "testing"

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		endpoint string
		network  string
		address  string
		wantErr  bool
	}{
		{"tcp://localhost:6380", "tcp", "localhost:6380", false},
		{"tcp://0.0.0.0:6380", "tcp", "0.0.0.0:6380", false},
		{"localhost:6380", "tcp", "localhost:6380", false},
		{"unix:///tmp/finch.sock", "unix", "/tmp/finch.sock", false},
		{"", "", "", true},
		{"tcp://", "", "", true},
		{"unix://", "", "", true},
		{"http://localhost:8080", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			network, address, err := ParseEndpoint(tt.endpoint)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got (%q, %q)", tt.endpoint, network, address)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error for %q: %v", tt.endpoint, err)
			}
			if network != tt.network || address != tt.address {
				t.Fatalf("ParseEndpoint(%q) = (%q, %q), want (%q, %q)",
					tt.endpoint, network, address, tt.network, tt.address)
			}
		})
	}
}
