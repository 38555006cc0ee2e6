// Package protocol defines the message kinds exchanged over a session, the
// registry of required fields per inbound kind, typed payloads and the
// outbound message shapes. Every message is one flat JSON object carrying a
// "kind" field.
package protocol

type Kind string

// Inbound kinds.
const (
	KindAuthNew      Kind = "auth-new"
	KindAuthExisting Kind = "auth-existing"

	KindGroupCreate       Kind = "group-create"
	KindGroupDelete       Kind = "group-delete"
	KindGroupTransfer     Kind = "group-transfer"
	KindGroupAddMember    Kind = "group-add-member"
	KindGroupRemoveMember Kind = "group-remove-member"
	KindGroupLeave        Kind = "group-leave"
	KindGroupInfo         Kind = "group-info"
	KindGroupList         Kind = "group-list"

	KindInventoryAdd    Kind = "inventory-add"
	KindInventoryRemove Kind = "inventory-remove"

	KindItemGet      Kind = "item-get"
	KindItemAdd      Kind = "item-add"
	KindItemRemove   Kind = "item-remove"
	KindItemDelete   Kind = "item-delete"
	KindItemTransfer Kind = "item-transfer"

	KindProjectViewAll     Kind = "project-view-all"
	KindProjectViewOne     Kind = "project-view-one"
	KindProjectCreate      Kind = "project-create"
	KindProjectDelete      Kind = "project-delete"
	KindProjectTransfer    Kind = "project-transfer"
	KindProjectScope       Kind = "project-scope"
	KindProjectItemTrack   Kind = "project-item-track"
	KindProjectItemUntrack Kind = "project-item-untrack"
	KindProjectItemReserve Kind = "project-item-reserve"
	KindProjectItemRelease Kind = "project-item-release"
)

// Outbound kinds. group-info is both a request and its reply.
const (
	KindAuthKey           Kind = "auth-key"
	KindAuthSuccess       Kind = "auth-success"
	KindError             Kind = "error"
	KindGroupSuccess      Kind = "group-success"
	KindInventorySuccess  Kind = "inventory-success"
	KindItemInfo          Kind = "item-info"
	KindProjectItemInfo   Kind = "project-item-info"
	KindProjectInfoAll    Kind = "project-info-all"
	KindProjectInfoSingle Kind = "project-info-single"
	KindProjectSuccess    Kind = "project-success"
)

type schema struct {
	kind   Kind
	fields []string
}

// registry lists every inbound kind with its required fields in declaration
// order. Missing fields are reported in this order.
var registry = []schema{
	{KindAuthNew, []string{"display_name"}},
	{KindAuthExisting, []string{"display_name", "key"}},

	{KindGroupCreate, []string{"group_name"}},
	{KindGroupDelete, []string{"group_id"}},
	{KindGroupTransfer, []string{"group_id", "new_owner_name"}},
	{KindGroupAddMember, []string{"group_id", "member_name"}},
	{KindGroupRemoveMember, []string{"group_id", "member_name"}},
	{KindGroupLeave, []string{"group_id"}},
	{KindGroupInfo, []string{"group_id"}},
	{KindGroupList, nil},

	{KindInventoryAdd, []string{"external_id"}},
	{KindInventoryRemove, []string{"external_id"}},

	{KindItemGet, []string{"external_id"}},
	{KindItemAdd, []string{"external_id", "item_id", "item_qty"}},
	{KindItemRemove, []string{"external_id", "item_id", "item_qty"}},
	{KindItemDelete, []string{"external_id", "item_id"}},
	{KindItemTransfer, []string{"item_id", "item_qty", "source_id", "target_id"}},

	{KindProjectViewAll, nil},
	{KindProjectViewOne, []string{"project_id"}},
	{KindProjectCreate, []string{"name", "scope", "desc", "group_id"}},
	{KindProjectDelete, []string{"project_id"}},
	{KindProjectTransfer, []string{"project_id", "new_owner_name"}},
	{KindProjectScope, []string{"project_id", "scope", "group_id"}},
	{KindProjectItemTrack, []string{"project_id", "item_id", "item_qty"}},
	{KindProjectItemUntrack, []string{"project_id", "item_id"}},
	{KindProjectItemReserve, []string{"target_project_id", "item_id", "item_qty", "external_id", "source_project_id"}},
	{KindProjectItemRelease, []string{"project_id", "item_id", "item_qty", "external_id"}},
}

var requiredByKind = func() map[Kind][]string {
	m := make(map[Kind][]string, len(registry))
	for _, s := range registry {
		m[s.kind] = s.fields
	}
	return m
}()

// RequiredFields returns the required field names of an inbound kind.
func RequiredFields(kind Kind) ([]string, bool) {
	f, ok := requiredByKind[kind]
	if !ok {
		return nil, false
	}
	return append([]string(nil), f...), true
}

// InboundKinds returns every inbound kind in declaration order.
func InboundKinds() []Kind {
	out := make([]Kind, len(registry))
	for i, s := range registry {
		out[i] = s.kind
	}
	return out
}

// IsHandshake reports whether kind is one of the two authentication kinds.
func IsHandshake(kind Kind) bool {
	return kind == KindAuthNew || kind == KindAuthExisting
}
