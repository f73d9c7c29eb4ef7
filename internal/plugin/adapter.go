package plugin

import (
	"github.com/rpcpool/richat/internal/geyser"
	"github.com/rpcpool/richat/internal/message"
)

// The host callback surface. Every notification narrows the versioned
// payload union to the newest shape, applies the configured filters, and
// hands the event to the channel. The channel encodes synchronously and
// never blocks, so these are safe to call from the host's hot paths.

var _ geyser.Plugin = (*Plugin)(nil)

// UpdateAccount handles an account write. Startup snapshot writes are
// acknowledged without producing an event.
func (p *Plugin) UpdateAccount(account geyser.ReplicaAccountInfo, slot uint64, isStartup bool) error {
	in := p.loaded()
	if in == nil {
		return ErrNotLoaded
	}
	if isStartup {
		return nil
	}
	acc, ok := account.(*geyser.ReplicaAccountInfoV3)
	if !ok {
		return &geyser.UnsupportedVersionError{Kind: "account info", Version: accountVersion(account)}
	}
	if limit := in.filters.MaxAccountDataSize; limit != nil && uint64(len(acc.Data)) > uint64(*limit) {
		return nil
	}
	in.ch.Push(&message.AccountEvent{Slot: slot, Account: acc})
	return nil
}

// UpdateSlotStatus handles a slot-status transition.
func (p *Plugin) UpdateSlotStatus(slot uint64, parent *uint64, status geyser.SlotStatus) error {
	in := p.loaded()
	if in == nil {
		return ErrNotLoaded
	}
	in.ch.Push(&message.SlotEvent{Slot: slot, Parent: parent, Status: status})
	return nil
}

// NotifyTransaction handles a processed transaction.
func (p *Plugin) NotifyTransaction(transaction geyser.ReplicaTransactionInfo, slot uint64) error {
	in := p.loaded()
	if in == nil {
		return ErrNotLoaded
	}
	tx, ok := transaction.(*geyser.ReplicaTransactionInfoV3)
	if !ok {
		return &geyser.UnsupportedVersionError{Kind: "transaction info", Version: transactionVersion(transaction)}
	}
	in.ch.Push(&message.TransactionEvent{Slot: slot, Transaction: tx})
	return nil
}

// NotifyEntry handles a ledger entry.
func (p *Plugin) NotifyEntry(entry geyser.ReplicaEntryInfo) error {
	in := p.loaded()
	if in == nil {
		return ErrNotLoaded
	}
	ent, ok := entry.(*geyser.ReplicaEntryInfoV2)
	if !ok {
		return &geyser.UnsupportedVersionError{Kind: "entry info", Version: entryVersion(entry)}
	}
	in.ch.Push(&message.EntryEvent{Entry: ent})
	return nil
}

// NotifyBlockMetadata handles block-completion metadata.
func (p *Plugin) NotifyBlockMetadata(blockInfo geyser.ReplicaBlockInfo) error {
	in := p.loaded()
	if in == nil {
		return ErrNotLoaded
	}
	block, ok := blockInfo.(*geyser.ReplicaBlockInfoV4)
	if !ok {
		return &geyser.UnsupportedVersionError{Kind: "block info", Version: blockVersion(blockInfo)}
	}
	in.ch.Push(&message.BlockMetaEvent{BlockInfo: block})
	return nil
}

// AccountDataNotificationsEnabled reports whether the host should deliver
// account updates at all.
func (p *Plugin) AccountDataNotificationsEnabled() bool {
	in := p.loaded()
	return in != nil && in.filters.EnableAccountUpdate
}

// AccountDataSnapshotNotificationsEnabled is always false: startup snapshot
// writes are never streamed.
func (p *Plugin) AccountDataSnapshotNotificationsEnabled() bool { return false }

// TransactionNotificationsEnabled reports whether the host should deliver
// transaction notifications.
func (p *Plugin) TransactionNotificationsEnabled() bool {
	in := p.loaded()
	return in != nil && in.filters.EnableTransactionUpdate
}

// EntryNotificationsEnabled reports whether the host should deliver entry
// notifications. Entries are always wanted while loaded.
func (p *Plugin) EntryNotificationsEnabled() bool { return p.loaded() != nil }

func accountVersion(account geyser.ReplicaAccountInfo) string {
	switch account.(type) {
	case *geyser.ReplicaAccountInfoV1:
		return "V1"
	case *geyser.ReplicaAccountInfoV2:
		return "V2"
	default:
		return "unknown"
	}
}

func transactionVersion(transaction geyser.ReplicaTransactionInfo) string {
	switch transaction.(type) {
	case *geyser.ReplicaTransactionInfoV1:
		return "V1"
	case *geyser.ReplicaTransactionInfoV2:
		return "V2"
	default:
		return "unknown"
	}
}

func entryVersion(entry geyser.ReplicaEntryInfo) string {
	switch entry.(type) {
	case *geyser.ReplicaEntryInfoV1:
		return "V1"
	default:
		return "unknown"
	}
}

func blockVersion(blockInfo geyser.ReplicaBlockInfo) string {
	switch blockInfo.(type) {
	case *geyser.ReplicaBlockInfoV1:
		return "V1"
	case *geyser.ReplicaBlockInfoV2:
		return "V2"
	case *geyser.ReplicaBlockInfoV3:
		return "V3"
	default:
		return "unknown"
	}
}
