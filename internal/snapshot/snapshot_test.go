package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/golang-sql/civil"
)

func TestSignVerifyRoundtrip(t *testing.T) {
	signer, err := NewSigner()
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	hash := ContentHash([]byte("graph dump bytes"))
	sig := signer.Sign("pkg.Foo", hash, []byte("graph dump bytes"))

	r := &Record{Key: "pkg.Foo", ContentHash: hash, Dump: []byte("graph dump bytes"), Signature: sig}
	ok, err := Verify(signer.PublicKey(), r)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatal("Verify rejected a genuine signature")
	}
}

func TestVerifyRejectsTamperedDump(t *testing.T) {
	signer, err := NewSigner()
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	hash := ContentHash([]byte("original"))
	sig := signer.Sign("pkg.Foo", hash, []byte("original"))

	r := &Record{Key: "pkg.Foo", ContentHash: hash, Dump: []byte("tampered!"), Signature: sig}
	ok, err := Verify(signer.PublicKey(), r)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok {
		t.Fatal("Verify accepted a signature over a different dump than the one recorded")
	}
}

func TestFreshComparesContentHash(t *testing.T) {
	dumpA := []byte("graph A")
	dumpB := []byte("graph B")
	r := &Record{ContentHash: ContentHash(dumpA)}

	if !Fresh(r, dumpA) {
		t.Error("Fresh should be true when the current dump matches the cached hash")
	}
	if Fresh(r, dumpB) {
		t.Error("Fresh should be false when the current dump differs")
	}
	if Fresh(nil, dumpA) {
		t.Error("Fresh(nil, ...) should be false: a nil record is always a cache miss")
	}
}

func TestStorePutGetRoundtrip(t *testing.T) {
	s, err := Open(DriverPureSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	dump := []byte("node dump for pkg.Foo")
	rec := Record{
		Key:         "pkg.Foo",
		ContentHash: ContentHash(dump),
		Dump:        dump,
		CompiledOn:  civil.DateOf(time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)),
		Signature:   []byte("sig-bytes"),
	}
	if err := s.Put(ctx, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get(ctx, "pkg.Foo")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("Get returned a miss for a key that was just Put")
	}
	if got.ContentHash != rec.ContentHash {
		t.Error("round-tripped ContentHash mismatch")
	}
	if string(got.Dump) != string(dump) {
		t.Error("round-tripped Dump mismatch")
	}
}

func TestStoreGetMissReturnsNilNil(t *testing.T) {
	s, err := Open(DriverPureSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	got, err := s.Get(context.Background(), "never.put")
	if err != nil {
		t.Fatalf("Get on a miss returned an error: %v", err)
	}
	if got != nil {
		t.Fatal("Get on a miss should return (nil, nil)")
	}
}
