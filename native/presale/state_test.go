package presale

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestIterationKeyEncoding(t *testing.T) {
	key := iterationKey(3)
	if !bytes.HasPrefix(key, []byte("ITERATION_")) {
		t.Fatalf("unexpected key prefix: %q", key)
	}
	suffix := key[len("ITERATION_"):]
	if len(suffix) != 2 {
		t.Fatalf("expected two-byte id suffix, got %d", len(suffix))
	}
	if binary.LittleEndian.Uint16(suffix) != 3 {
		t.Fatalf("expected little-endian id 3, got %v", suffix)
	}

	// Negative ids encode through their two's-complement bit pattern.
	negative := iterationKey(-1)
	if !bytes.Equal(negative[len("ITERATION_"):], []byte{0xFF, 0xFF}) {
		t.Fatalf("unexpected encoding for -1: %v", negative)
	}
	if bytes.Equal(iterationKey(-7), iterationKey(7)) {
		t.Fatal("distinct ids must map to distinct keys")
	}
}

func TestEntityKeysAreDisjoint(t *testing.T) {
	var owner [20]byte
	copy(owner[:], []byte("ITERATION_AAAAAAAAAA"))
	if bytes.Equal(buyerKey(owner), iterationKey(0)) {
		t.Fatal("buyer and iteration key collision")
	}
	if bytes.Equal(adviserKey("x"), buyerKey(owner)) {
		t.Fatal("adviser and buyer key collision")
	}
}

func TestAdviserEscrowAddressIsStable(t *testing.T) {
	first := AdviserEscrowAddress("partner")
	second := AdviserEscrowAddress("partner")
	if first != second {
		t.Fatal("escrow address must be deterministic")
	}
	if first == AdviserEscrowAddress("other") {
		t.Fatal("different codes must not share an escrow account")
	}
	var zero [20]byte
	if first == zero {
		t.Fatal("escrow address must not be the zero address")
	}
}

func TestAdviserRecordRoundTrip(t *testing.T) {
	engine := newTestEngine(t)
	initPresale(t, engine)
	if err := engine.InitAdviser(testAuthority, "partner", 150_000_000, 100_000_000); err != nil {
		t.Fatalf("init adviser: %v", err)
	}

	stored, ok, err := engine.loadAdviser("partner")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ok {
		t.Fatal("expected stored adviser")
	}
	stored.ClaimNonce = 5
	stored.Enabled = false
	if err := engine.saveAdviser(stored); err != nil {
		t.Fatalf("save: %v", err)
	}

	reloaded, ok, err := engine.loadAdviser("partner")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !ok {
		t.Fatal("expected stored adviser")
	}
	if reloaded.ClaimNonce != 5 || reloaded.Enabled {
		t.Fatalf("round trip lost fields: nonce=%d enabled=%v", reloaded.ClaimNonce, reloaded.Enabled)
	}
	if reloaded.NativeReward == nil || reloaded.TokenReward == nil {
		t.Fatal("round trip must materialise zero balances")
	}
}
