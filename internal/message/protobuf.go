package message

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/rpcpool/richat/internal/geyser"
)

// Protobuf wire schema. The envelope is a oneof-style update message:
//
//	message Update {
//	  oneof update {
//	    AccountUpdate  account     = 2;
//	    SlotUpdate     slot        = 3;
//	    Transaction    transaction = 4;
//	    BlockMeta      block_meta  = 7;
//	    Entry          entry       = 8;
//	  }
//	}
//
// Field numbers are frozen: external consumers decode these frames without
// access to this module.
const (
	fieldAccount     = 2
	fieldSlot        = 3
	fieldTransaction = 4
	fieldBlockMeta   = 7
	fieldEntry       = 8
)

func encodeProtobuf(ev Event) []byte {
	var inner []byte
	var field protowire.Number
	switch m := ev.(type) {
	case *AccountEvent:
		field = fieldAccount
		inner = pbAccountUpdate(m)
	case *SlotEvent:
		field = fieldSlot
		inner = pbSlotUpdate(m)
	case *TransactionEvent:
		field = fieldTransaction
		inner = pbTransactionUpdate(m)
	case *EntryEvent:
		field = fieldEntry
		inner = pbEntry(m.Entry)
	case *BlockMetaEvent:
		field = fieldBlockMeta
		inner = pbBlockMeta(m.BlockInfo)
	default:
		return nil
	}
	out := make([]byte, 0, len(inner)+2+protowire.SizeVarint(uint64(len(inner))))
	out = protowire.AppendTag(out, field, protowire.BytesType)
	out = protowire.AppendBytes(out, inner)
	return out
}

// AccountUpdate: account_info=1, slot=2.
// AccountInfo: pubkey=1, lamports=2, owner=3, executable=4, rent_epoch=5,
// data=6, write_version=7, txn_signature=8 (optional).
func pbAccountUpdate(m *AccountEvent) []byte {
	info := pbAccountInfo(m.Account)
	b := make([]byte, 0, len(info)+16)
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendBytes(b, info)
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, m.Slot)
	return b
}

func pbAccountInfo(a *geyser.ReplicaAccountInfoV3) []byte {
	b := make([]byte, 0, 64+len(a.Pubkey)+len(a.Owner)+len(a.Data)+len(a.TxnSignature))
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendBytes(b, a.Pubkey)
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, a.Lamports)
	b = protowire.AppendTag(b, 3, protowire.BytesType)
	b = protowire.AppendBytes(b, a.Owner)
	if a.Executable {
		b = protowire.AppendTag(b, 4, protowire.VarintType)
		b = protowire.AppendVarint(b, 1)
	}
	b = protowire.AppendTag(b, 5, protowire.VarintType)
	b = protowire.AppendVarint(b, a.RentEpoch)
	b = protowire.AppendTag(b, 6, protowire.BytesType)
	b = protowire.AppendBytes(b, a.Data)
	b = protowire.AppendTag(b, 7, protowire.VarintType)
	b = protowire.AppendVarint(b, a.WriteVersion)
	if a.TxnSignature != nil {
		b = protowire.AppendTag(b, 8, protowire.BytesType)
		b = protowire.AppendBytes(b, a.TxnSignature)
	}
	return b
}

// SlotUpdate: slot=1, parent=2 (optional), status=3.
func pbSlotUpdate(m *SlotEvent) []byte {
	b := make([]byte, 0, 24)
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, m.Slot)
	if m.Parent != nil {
		b = protowire.AppendTag(b, 2, protowire.VarintType)
		b = protowire.AppendVarint(b, *m.Parent)
	}
	b = protowire.AppendTag(b, 3, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.Status))
	return b
}

// Transaction: transaction_info=1, slot=2.
// TransactionInfo: signature=1, is_vote=2, transaction=3, meta=4, index=5.
func pbTransactionUpdate(m *TransactionEvent) []byte {
	t := m.Transaction
	info := make([]byte, 0, 32+len(t.Signature)+len(t.Transaction)+len(t.Meta))
	info = protowire.AppendTag(info, 1, protowire.BytesType)
	info = protowire.AppendBytes(info, t.Signature)
	if t.IsVote {
		info = protowire.AppendTag(info, 2, protowire.VarintType)
		info = protowire.AppendVarint(info, 1)
	}
	info = protowire.AppendTag(info, 3, protowire.BytesType)
	info = protowire.AppendBytes(info, t.Transaction)
	info = protowire.AppendTag(info, 4, protowire.BytesType)
	info = protowire.AppendBytes(info, t.Meta)
	info = protowire.AppendTag(info, 5, protowire.VarintType)
	info = protowire.AppendVarint(info, t.Index)

	b := make([]byte, 0, len(info)+16)
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendBytes(b, info)
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, m.Slot)
	return b
}

// Entry: slot=1, index=2, num_hashes=3, hash=4,
// executed_transaction_count=5, starting_transaction_index=6.
func pbEntry(e *geyser.ReplicaEntryInfoV2) []byte {
	b := make([]byte, 0, 48+len(e.Hash))
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, e.Slot)
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, e.Index)
	b = protowire.AppendTag(b, 3, protowire.VarintType)
	b = protowire.AppendVarint(b, e.NumHashes)
	b = protowire.AppendTag(b, 4, protowire.BytesType)
	b = protowire.AppendBytes(b, e.Hash)
	b = protowire.AppendTag(b, 5, protowire.VarintType)
	b = protowire.AppendVarint(b, e.ExecutedTransactionCount)
	b = protowire.AppendTag(b, 6, protowire.VarintType)
	b = protowire.AppendVarint(b, e.StartingTransactionIndex)
	return b
}

// BlockMeta: slot=1, blockhash=2, rewards=3, block_time=4, block_height=5,
// parent_slot=6, parent_blockhash=7, executed_transaction_count=8,
// entry_count=9.
func pbBlockMeta(bi *geyser.ReplicaBlockInfoV4) []byte {
	b := make([]byte, 0, 64+len(bi.Blockhash)+len(bi.ParentBlockhash)+len(bi.Rewards))
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, bi.Slot)
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	b = protowire.AppendString(b, bi.Blockhash)
	b = protowire.AppendTag(b, 3, protowire.BytesType)
	b = protowire.AppendBytes(b, bi.Rewards)
	b = protowire.AppendTag(b, 4, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(bi.BlockTime))
	if bi.BlockHeight != nil {
		b = protowire.AppendTag(b, 5, protowire.VarintType)
		b = protowire.AppendVarint(b, *bi.BlockHeight)
	}
	b = protowire.AppendTag(b, 6, protowire.VarintType)
	b = protowire.AppendVarint(b, bi.ParentSlot)
	b = protowire.AppendTag(b, 7, protowire.BytesType)
	b = protowire.AppendString(b, bi.ParentBlockhash)
	b = protowire.AppendTag(b, 8, protowire.VarintType)
	b = protowire.AppendVarint(b, bi.ExecutedTransactionCount)
	b = protowire.AppendTag(b, 9, protowire.VarintType)
	b = protowire.AppendVarint(b, bi.EntryCount)
	return b
}
