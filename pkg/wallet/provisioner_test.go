package wallet

import (
	"strings"
	"testing"
)

func TestGenerateIsDeterministic(t *testing.T) {
	p := NewProvisioner("server-secret")

	addr1, key1 := p.Generate("alice@example.com_1_seed")
	addr2, key2 := p.Generate("alice@example.com_1_seed")

	if addr1 != addr2 || key1 != key2 {
		t.Fatal("same seed and secret must derive the same pair")
	}
}

func TestGenerateShapes(t *testing.T) {
	p := NewProvisioner("server-secret")
	addr, key := p.Generate("seed")

	// 20-byte address, 32-byte key, both 0x-prefixed hex.
	if !strings.HasPrefix(addr, "0x") || len(addr) != 42 {
		t.Fatalf("unexpected address shape %q", addr)
	}
	if !strings.HasPrefix(key, "0x") || len(key) != 66 {
		t.Fatalf("unexpected key shape %q", key)
	}
}

func TestGenerateVariesWithSeedAndSecret(t *testing.T) {
	p := NewProvisioner("server-secret")

	addr1, key1 := p.Generate("seed-a")
	addr2, key2 := p.Generate("seed-b")
	if addr1 == addr2 || key1 == key2 {
		t.Fatal("different seeds must derive different pairs")
	}

	addr3, key3 := NewProvisioner("other-secret").Generate("seed-a")
	if addr1 == addr3 || key1 == key3 {
		t.Fatal("different secrets must derive different pairs")
	}
}
