package message

import "github.com/rpcpool/richat/internal/geyser"

// Kind discriminates the event union.
type Kind uint8

const (
	KindAccount Kind = iota + 1
	KindSlot
	KindTransaction
	KindEntry
	KindBlockMeta
)

// String returns the kind's metrics label.
func (k Kind) String() string {
	switch k {
	case KindAccount:
		return "account"
	case KindSlot:
		return "slot"
	case KindTransaction:
		return "transaction"
	case KindEntry:
		return "entry"
	case KindBlockMeta:
		return "block_meta"
	default:
		return "unknown"
	}
}

// Event is the stable internal representation of a host callback. Events are
// immutable once constructed; the adapter copies nothing — the host's buffers
// are referenced only for the duration of the synchronous encode.
type Event interface {
	Kind() Kind
}

// AccountEvent is an account write at a slot.
type AccountEvent struct {
	Slot    uint64
	Account *geyser.ReplicaAccountInfoV3
}

// SlotEvent is a slot-status transition.
type SlotEvent struct {
	Slot   uint64
	Parent *uint64
	Status geyser.SlotStatus
}

// TransactionEvent is a processed transaction at a slot.
type TransactionEvent struct {
	Slot        uint64
	Transaction *geyser.ReplicaTransactionInfoV3
}

// EntryEvent is a ledger entry.
type EntryEvent struct {
	Entry *geyser.ReplicaEntryInfoV2
}

// BlockMetaEvent is per-block metadata produced at block completion.
type BlockMetaEvent struct {
	BlockInfo *geyser.ReplicaBlockInfoV4
}

func (*AccountEvent) Kind() Kind     { return KindAccount }
func (*SlotEvent) Kind() Kind        { return KindSlot }
func (*TransactionEvent) Kind() Kind { return KindTransaction }
func (*EntryEvent) Kind() Kind       { return KindEntry }
func (*BlockMetaEvent) Kind() Kind   { return KindBlockMeta }
