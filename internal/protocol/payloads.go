package protocol

// Inbound payloads. Optional fields are pointers; a nil project id means the
// unattributed bucket. item_qty is capped at MaxInt32 per message.

type AuthNew struct {
	DisplayName string `json:"display_name" validate:"required,max=16"`
}

type AuthExisting struct {
	DisplayName string `json:"display_name" validate:"required,max=16"`
	Key         string `json:"key"          validate:"required"`
}

type GroupCreate struct {
	GroupName string `json:"group_name" validate:"required,max=32"`
}

// GroupRef serves group-delete, group-leave and group-info.
type GroupRef struct {
	GroupID int64 `json:"group_id" validate:"required"`
}

type GroupTransfer struct {
	GroupID      int64  `json:"group_id"       validate:"required"`
	NewOwnerName string `json:"new_owner_name" validate:"required"`
}

// GroupMember serves group-add-member and group-remove-member.
type GroupMember struct {
	GroupID    int64  `json:"group_id"    validate:"required"`
	MemberName string `json:"member_name" validate:"required"`
}

// Empty is the payload of kinds without fields.
type Empty struct{}

// InventoryRef serves inventory-add, inventory-remove and item-get.
type InventoryRef struct {
	ExternalID string `json:"external_id" validate:"required,max=64"`
}

// ItemChange serves item-add and item-remove.
type ItemChange struct {
	ExternalID string `json:"external_id" validate:"required,max=64"`
	ItemID     string `json:"item_id"     validate:"required,max=64"`
	Qty        int64  `json:"item_qty"    validate:"gt=0,max=2147483647"`
	ProjectID  *int64 `json:"project_id"`
}

type ItemDelete struct {
	ExternalID string `json:"external_id" validate:"required,max=64"`
	ItemID     string `json:"item_id"     validate:"required,max=64"`
	ProjectID  *int64 `json:"project_id"`
}

type ItemTransfer struct {
	ItemID          string `json:"item_id"   validate:"required,max=64"`
	Qty             int64  `json:"item_qty"  validate:"gt=0,max=2147483647"`
	SourceID        string `json:"source_id" validate:"required,max=64"`
	TargetID        string `json:"target_id" validate:"required,max=64"`
	SourceProjectID *int64 `json:"source_project_id"`
	TargetProjectID *int64 `json:"target_project_id"`
}

// ProjectRef serves project-view-one and project-delete.
type ProjectRef struct {
	ProjectID int64 `json:"project_id" validate:"required"`
}

type ProjectCreate struct {
	Name    string `json:"name"  validate:"required,max=64"`
	Scope   string `json:"scope" validate:"oneof=PUBLIC PRIVATE GROUP"`
	Desc    string `json:"desc"`
	GroupID *int64 `json:"group_id"`
}

type ProjectTransfer struct {
	ProjectID    int64  `json:"project_id"     validate:"required"`
	NewOwnerName string `json:"new_owner_name" validate:"required"`
}

type ProjectScope struct {
	ProjectID int64  `json:"project_id" validate:"required"`
	Scope     string `json:"scope"      validate:"oneof=PUBLIC PRIVATE GROUP"`
	GroupID   *int64 `json:"group_id"`
}

type ProjectTrack struct {
	ProjectID int64  `json:"project_id" validate:"required"`
	ItemID    string `json:"item_id"    validate:"required,max=64"`
	Qty       int64  `json:"item_qty"   validate:"gt=0,max=2147483647"`
}

type ProjectUntrack struct {
	ProjectID int64  `json:"project_id" validate:"required"`
	ItemID    string `json:"item_id"    validate:"required,max=64"`
}

// ProjectReserve moves stock of one inventory into the target project. A null
// source_project_id takes it from unattributed stock.
type ProjectReserve struct {
	TargetProjectID int64  `json:"target_project_id" validate:"required"`
	ItemID          string `json:"item_id"           validate:"required,max=64"`
	Qty             int64  `json:"item_qty"          validate:"gt=0,max=2147483647"`
	ExternalID      string `json:"external_id"       validate:"required,max=64"`
	SourceProjectID *int64 `json:"source_project_id"`
}

type ProjectRelease struct {
	ProjectID  int64  `json:"project_id"  validate:"required"`
	ItemID     string `json:"item_id"     validate:"required,max=64"`
	Qty        int64  `json:"item_qty"    validate:"gt=0,max=2147483647"`
	ExternalID string `json:"external_id" validate:"required,max=64"`
}
