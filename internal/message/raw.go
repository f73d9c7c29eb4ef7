package message

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/rpcpool/richat/internal/geyser"
)

// Raw framing: kind(1B) | body | crc32c(body)(4B BE).
//
// Body fields appear in struct declaration order: unsigned ints as uvarint,
// signed ints as zigzag varint, bools as one byte, byte slices and strings
// uvarint-length-prefixed, optional fields behind a one-byte presence flag.

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

func encodeRaw(ev Event) []byte {
	body := make([]byte, 0, rawSizeHint(ev))
	body = append(body, byte(ev.Kind()))
	switch m := ev.(type) {
	case *AccountEvent:
		body = appendUvarint(body, m.Slot)
		body = appendRawAccount(body, m.Account)
	case *SlotEvent:
		body = appendUvarint(body, m.Slot)
		body = appendOptUvarint(body, m.Parent)
		body = appendUvarint(body, uint64(m.Status))
	case *TransactionEvent:
		body = appendUvarint(body, m.Slot)
		body = appendBytes(body, m.Transaction.Signature)
		body = appendBool(body, m.Transaction.IsVote)
		body = appendBytes(body, m.Transaction.Transaction)
		body = appendBytes(body, m.Transaction.Meta)
		body = appendUvarint(body, m.Transaction.Index)
	case *EntryEvent:
		e := m.Entry
		body = appendUvarint(body, e.Slot)
		body = appendUvarint(body, e.Index)
		body = appendUvarint(body, e.NumHashes)
		body = appendBytes(body, e.Hash)
		body = appendUvarint(body, e.ExecutedTransactionCount)
		body = appendUvarint(body, e.StartingTransactionIndex)
	case *BlockMetaEvent:
		b := m.BlockInfo
		body = appendUvarint(body, b.Slot)
		body = appendBytes(body, []byte(b.Blockhash))
		body = appendUvarint(body, b.ParentSlot)
		body = appendBytes(body, []byte(b.ParentBlockhash))
		body = appendBytes(body, b.Rewards)
		body = appendVarint(body, b.BlockTime)
		body = appendOptUvarint(body, b.BlockHeight)
		body = appendUvarint(body, b.ExecutedTransactionCount)
		body = appendUvarint(body, b.EntryCount)
	}
	crc := crc32.Checksum(body, castagnoli)
	var crcb [4]byte
	binary.BigEndian.PutUint32(crcb[:], crc)
	return append(body, crcb[:]...)
}

func appendRawAccount(dst []byte, a *geyser.ReplicaAccountInfoV3) []byte {
	dst = appendBytes(dst, a.Pubkey)
	dst = appendUvarint(dst, a.Lamports)
	dst = appendBytes(dst, a.Owner)
	dst = appendBool(dst, a.Executable)
	dst = appendUvarint(dst, a.RentEpoch)
	dst = appendBytes(dst, a.Data)
	dst = appendUvarint(dst, a.WriteVersion)
	if a.TxnSignature != nil {
		dst = append(dst, 1)
		dst = appendBytes(dst, a.TxnSignature)
	} else {
		dst = append(dst, 0)
	}
	return dst
}

// rawSizeHint keeps the single body allocation close to final size; account
// data dominates in practice.
func rawSizeHint(ev Event) int {
	const fixed = 64
	switch m := ev.(type) {
	case *AccountEvent:
		return fixed + len(m.Account.Data) + len(m.Account.Pubkey) + len(m.Account.Owner) + len(m.Account.TxnSignature)
	case *TransactionEvent:
		return fixed + len(m.Transaction.Transaction) + len(m.Transaction.Meta) + len(m.Transaction.Signature)
	case *EntryEvent:
		return fixed + len(m.Entry.Hash)
	case *BlockMetaEvent:
		return fixed + len(m.BlockInfo.Blockhash) + len(m.BlockInfo.ParentBlockhash) + len(m.BlockInfo.Rewards)
	default:
		return fixed
	}
}

func appendUvarint(dst []byte, v uint64) []byte {
	return binary.AppendUvarint(dst, v)
}

func appendVarint(dst []byte, v int64) []byte {
	return binary.AppendVarint(dst, v)
}

func appendBool(dst []byte, v bool) []byte {
	if v {
		return append(dst, 1)
	}
	return append(dst, 0)
}

func appendBytes(dst, b []byte) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(b)))
	return append(dst, b...)
}

func appendOptUvarint(dst []byte, v *uint64) []byte {
	if v == nil {
		return append(dst, 0)
	}
	dst = append(dst, 1)
	return binary.AppendUvarint(dst, *v)
}

// VerifyRaw checks a raw frame's checksum and returns its kind. Consumers
// that share this module use it before trusting a frame from the wire.
func VerifyRaw(b []byte) (Kind, bool) {
	if len(b) < 1+4 {
		return 0, false
	}
	body, tail := b[:len(b)-4], b[len(b)-4:]
	if crc32.Checksum(body, castagnoli) != binary.BigEndian.Uint32(tail) {
		return 0, false
	}
	return Kind(body[0]), true
}
