package cache

import (
	"testing"
	"time"
)

func TestHashIP_Deterministic(t *testing.T) {
	t.Parallel()

	ip := "192.168.1.100"

	hash1 := hashIP(ip)
	hash2 := hashIP(ip)

	if hash1 != hash2 {
		t.Error("Same IP should produce same hash")
	}
}

func TestHashIP_Length(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ip   string
	}{
		{"IPv4", "192.168.1.1"},
		{"IPv4 localhost", "127.0.0.1"},
		{"IPv6 localhost", "::1"},
		{"IPv6 full", "2001:0db8:85a3:0000:0000:8a2e:0370:7334"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			hash := hashIP(tt.ip)
			// hashIP uses first 8 bytes of SHA256, encoded as 16 hex chars
			if len(hash) != 16 {
				t.Errorf("hashIP(%q) length = %d, want 16", tt.ip, len(hash))
			}
		})
	}
}

func TestHashIP_Different(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ip1  string
		ip2  string
	}{
		{"different IPv4", "192.168.1.1", "192.168.1.2"},
		{"different last octet", "10.0.0.1", "10.0.0.2"},
		{"IPv4 vs IPv6", "127.0.0.1", "::1"},
		{"public vs private", "8.8.8.8", "192.168.1.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			hash1 := hashIP(tt.ip1)
			hash2 := hashIP(tt.ip2)

			if hash1 == hash2 {
				t.Errorf("Different IPs should produce different hashes: %q and %q both produced %s", tt.ip1, tt.ip2, hash1)
			}
		})
	}
}

func TestBucketTTL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		rate  float64
		burst int
		want  int
	}{
		{"fast refill uses floor", 10, 10, 10},
		{"slow refill", 0.25, 5, 20},
		{"fractional rounds up", 0.3, 5, 17},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := bucketTTL(tt.rate, tt.burst); got != tt.want {
				t.Errorf("bucketTTL(%v, %d) = %d, want %d", tt.rate, tt.burst, got, tt.want)
			}
		})
	}
}

func TestDecodeCachedUser(t *testing.T) {
	t.Parallel()

	user, ok := decodeCachedUser([]byte(`{"user_id":"abc","email":"a@example.com"}`))
	if !ok {
		t.Fatal("decodeCachedUser() should accept a valid entry")
	}
	if user.ID != "abc" || user.Email != "a@example.com" {
		t.Errorf("decodeCachedUser() = %+v", user)
	}

	for _, raw := range []string{`not json`, `{}`, `{"email":"a@example.com"}`} {
		if _, ok := decodeCachedUser([]byte(raw)); ok {
			t.Errorf("decodeCachedUser(%q) should be a miss", raw)
		}
	}
}

func TestOptions_WithDefaults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		in           Options
		wantPool     int
		wantTokenTTL time.Duration
	}{
		{"zero values", Options{}, 10, 5 * time.Minute},
		{"negative values", Options{PoolSize: -1, TokenTTL: -time.Second}, 10, 5 * time.Minute},
		{"explicit values", Options{PoolSize: 25, TokenTTL: time.Minute}, 25, time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := tt.in.withDefaults()
			if got.PoolSize != tt.wantPool {
				t.Errorf("PoolSize = %d, want %d", got.PoolSize, tt.wantPool)
			}
			if got.TokenTTL != tt.wantTokenTTL {
				t.Errorf("TokenTTL = %s, want %s", got.TokenTTL, tt.wantTokenTTL)
			}
		})
	}
}
