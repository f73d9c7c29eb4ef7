package geyser

// Version-tagged payload unions. Each union is a marker-method interface;
// the concrete types enumerate the structural versions the host can supply.
// Only the newest version of each union carries fields — the legacy shapes
// exist so the adapter can name them in UnsupportedVersionError rather than
// misread memory it does not understand.

// ReplicaAccountInfo is the account-update payload union.
type ReplicaAccountInfo interface{ replicaAccountInfo() }

// ReplicaAccountInfoV1 and V2 are legacy shapes, not accepted.
type ReplicaAccountInfoV1 struct{}
type ReplicaAccountInfoV2 struct{}

// ReplicaAccountInfoV3 is the current account-update payload.
type ReplicaAccountInfoV3 struct {
	Pubkey       []byte
	Lamports     uint64
	Owner        []byte
	Executable   bool
	RentEpoch    uint64
	Data         []byte
	WriteVersion uint64
	// TxnSignature is set when the write came from a transaction.
	TxnSignature []byte
}

func (*ReplicaAccountInfoV1) replicaAccountInfo() {}
func (*ReplicaAccountInfoV2) replicaAccountInfo() {}
func (*ReplicaAccountInfoV3) replicaAccountInfo() {}

// ReplicaTransactionInfo is the transaction-notify payload union.
type ReplicaTransactionInfo interface{ replicaTransactionInfo() }

type ReplicaTransactionInfoV1 struct{}
type ReplicaTransactionInfoV2 struct{}

// ReplicaTransactionInfoV3 is the current transaction payload. Transaction
// and Meta hold the host's serialized forms; their byte-level schema belongs
// to the host, not this plugin.
type ReplicaTransactionInfoV3 struct {
	Signature   []byte
	IsVote      bool
	Transaction []byte
	Meta        []byte
	Index       uint64
}

func (*ReplicaTransactionInfoV1) replicaTransactionInfo() {}
func (*ReplicaTransactionInfoV2) replicaTransactionInfo() {}
func (*ReplicaTransactionInfoV3) replicaTransactionInfo() {}

// ReplicaEntryInfo is the ledger-entry payload union.
type ReplicaEntryInfo interface{ replicaEntryInfo() }

type ReplicaEntryInfoV1 struct{}

// ReplicaEntryInfoV2 is the current entry payload.
type ReplicaEntryInfoV2 struct {
	Slot                     uint64
	Index                    uint64
	NumHashes                uint64
	Hash                     []byte
	ExecutedTransactionCount uint64
	StartingTransactionIndex uint64
}

func (*ReplicaEntryInfoV1) replicaEntryInfo() {}
func (*ReplicaEntryInfoV2) replicaEntryInfo() {}

// ReplicaBlockInfo is the block-metadata payload union.
type ReplicaBlockInfo interface{ replicaBlockInfo() }

type ReplicaBlockInfoV1 struct{}
type ReplicaBlockInfoV2 struct{}
type ReplicaBlockInfoV3 struct{}

// ReplicaBlockInfoV4 is the current block-metadata payload. Rewards holds
// the host's serialized rewards-and-partitions structure.
type ReplicaBlockInfoV4 struct {
	ParentSlot               uint64
	ParentBlockhash          string
	Slot                     uint64
	Blockhash                string
	Rewards                  []byte
	BlockTime                int64
	BlockHeight              *uint64
	ExecutedTransactionCount uint64
	EntryCount               uint64
}

func (*ReplicaBlockInfoV1) replicaBlockInfo() {}
func (*ReplicaBlockInfoV2) replicaBlockInfo() {}
func (*ReplicaBlockInfoV3) replicaBlockInfo() {}
func (*ReplicaBlockInfoV4) replicaBlockInfo() {}
