package geyser

import "fmt"

// SlotStatus mirrors the host's slot-status transitions.
type SlotStatus int32

const (
	SlotProcessed SlotStatus = iota
	SlotRooted
	SlotConfirmed
	SlotFirstShredReceived
	SlotCompleted
	SlotCreatedBank
	SlotDead
)

// String returns the host-side spelling of the status.
func (s SlotStatus) String() string {
	switch s {
	case SlotProcessed:
		return "processed"
	case SlotRooted:
		return "rooted"
	case SlotConfirmed:
		return "confirmed"
	case SlotFirstShredReceived:
		return "first_shred_received"
	case SlotCompleted:
		return "completed"
	case SlotCreatedBank:
		return "created_bank"
	case SlotDead:
		return "dead"
	default:
		return fmt.Sprintf("slot_status(%d)", int32(s))
	}
}

// UnsupportedVersionError reports a callback payload in a structural version
// older than this plugin supports. The host must not be crashed over it.
type UnsupportedVersionError struct {
	Kind    string
	Version string
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported %s schema version %s", e.Kind, e.Version)
}

// Plugin is the callback surface the host drives. All notification methods
// may be called from the validator's latency-critical paths and must not
// block.
type Plugin interface {
	Name() string

	OnLoad(configPath string) error
	OnUnload()

	UpdateAccount(account ReplicaAccountInfo, slot uint64, isStartup bool) error
	UpdateSlotStatus(slot uint64, parent *uint64, status SlotStatus) error
	NotifyTransaction(transaction ReplicaTransactionInfo, slot uint64) error
	NotifyEntry(entry ReplicaEntryInfo) error
	NotifyBlockMetadata(blockInfo ReplicaBlockInfo) error

	// Capability queries the host polls to decide whether to invoke the
	// corresponding callbacks at all.
	AccountDataNotificationsEnabled() bool
	AccountDataSnapshotNotificationsEnabled() bool
	TransactionNotificationsEnabled() bool
	EntryNotificationsEnabled() bool
}
