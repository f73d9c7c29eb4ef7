package message

import (
	"bytes"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/rpcpool/richat/internal/geyser"
)

func sampleAccount() *AccountEvent {
	return &AccountEvent{
		Slot: 42,
		Account: &geyser.ReplicaAccountInfoV3{
			Pubkey:       bytes.Repeat([]byte{0xAA}, 32),
			Lamports:     1_000_000,
			Owner:        bytes.Repeat([]byte{0xBB}, 32),
			Executable:   false,
			RentEpoch:    361,
			Data:         []byte("account-data"),
			WriteVersion: 7,
		},
	}
}

func TestEncodeDeterministic(t *testing.T) {
	ev := sampleAccount()
	for _, enc := range []Encoding{EncodingRaw, EncodingProtobuf} {
		a := Encode(ev, enc)
		b := Encode(ev, enc)
		if !bytes.Equal(a.Data, b.Data) {
			t.Fatalf("%s: two encodes differ", enc)
		}
		if a.Size() != len(a.Data) {
			t.Fatalf("%s: size mismatch", enc)
		}
		if a.Kind != KindAccount {
			t.Fatalf("%s: kind %v", enc, a.Kind)
		}
	}
}

func TestRawFrameVerifies(t *testing.T) {
	parent := uint64(41)
	events := []Event{
		sampleAccount(),
		&SlotEvent{Slot: 42, Parent: &parent, Status: geyser.SlotConfirmed},
		&TransactionEvent{Slot: 42, Transaction: &geyser.ReplicaTransactionInfoV3{
			Signature: bytes.Repeat([]byte{1}, 64), Transaction: []byte("tx"), Meta: []byte("meta"), Index: 3,
		}},
		&EntryEvent{Entry: &geyser.ReplicaEntryInfoV2{Slot: 42, Index: 1, NumHashes: 12800, Hash: bytes.Repeat([]byte{2}, 32)}},
		&BlockMetaEvent{BlockInfo: &geyser.ReplicaBlockInfoV4{Slot: 42, ParentSlot: 41, Blockhash: "hash", ParentBlockhash: "parent"}},
	}
	for _, ev := range events {
		m := Encode(ev, EncodingRaw)
		kind, ok := VerifyRaw(m.Data)
		if !ok {
			t.Fatalf("%v: crc check failed", ev.Kind())
		}
		if kind != ev.Kind() {
			t.Fatalf("kind: got %v want %v", kind, ev.Kind())
		}
	}
}

func TestRawFrameRejectsCorruption(t *testing.T) {
	m := Encode(sampleAccount(), EncodingRaw)
	m.Data[len(m.Data)/2] ^= 0xFF
	if _, ok := VerifyRaw(m.Data); ok {
		t.Fatalf("corrupted frame passed crc check")
	}
}

// Decode the protobuf envelope with protowire to confirm the frozen field
// numbers and that the nested slot survives a round trip.
func TestProtobufEnvelope(t *testing.T) {
	m := Encode(&SlotEvent{Slot: 42, Status: geyser.SlotRooted}, EncodingProtobuf)

	num, typ, n := protowire.ConsumeTag(m.Data)
	if n < 0 {
		t.Fatalf("consume tag: %v", protowire.ParseError(n))
	}
	if num != fieldSlot || typ != protowire.BytesType {
		t.Fatalf("envelope tag: field=%d type=%v", num, typ)
	}
	inner, n2 := protowire.ConsumeBytes(m.Data[n:])
	if n2 < 0 {
		t.Fatalf("consume bytes: %v", protowire.ParseError(n2))
	}

	var gotSlot, gotStatus uint64
	for len(inner) > 0 {
		fnum, _, adv := protowire.ConsumeTag(inner)
		if adv < 0 {
			t.Fatalf("inner tag: %v", protowire.ParseError(adv))
		}
		inner = inner[adv:]
		v, adv2 := protowire.ConsumeVarint(inner)
		if adv2 < 0 {
			t.Fatalf("inner varint: %v", protowire.ParseError(adv2))
		}
		inner = inner[adv2:]
		switch fnum {
		case 1:
			gotSlot = v
		case 3:
			gotStatus = v
		}
	}
	if gotSlot != 42 {
		t.Fatalf("slot: %d", gotSlot)
	}
	if geyser.SlotStatus(gotStatus) != geyser.SlotRooted {
		t.Fatalf("status: %d", gotStatus)
	}
}

func TestParseEncoding(t *testing.T) {
	if e, err := ParseEncoding("raw"); err != nil || e != EncodingRaw {
		t.Fatalf("raw: %v %v", e, err)
	}
	if e, err := ParseEncoding("protobuf"); err != nil || e != EncodingProtobuf {
		t.Fatalf("protobuf: %v %v", e, err)
	}
	if _, err := ParseEncoding("bincode"); err == nil {
		t.Fatalf("expected error for unknown encoding")
	}
}
