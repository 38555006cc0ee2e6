package protocol

// Outbound messages. Constructors fill in Kind.

type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func NewError(msg string) Error { return Error{Kind: KindError, Message: msg} }

type AuthKey struct {
	Kind Kind   `json:"kind"`
	Key  string `json:"key"`
}

func NewAuthKey(key string) AuthKey { return AuthKey{Kind: KindAuthKey, Key: key} }

type AuthSuccess struct {
	Kind        Kind   `json:"kind"`
	DisplayName string `json:"display_name"`
}

func NewAuthSuccess(name string) AuthSuccess {
	return AuthSuccess{Kind: KindAuthSuccess, DisplayName: name}
}

type GroupSuccess struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	GroupID *int64 `json:"group_id,omitempty"`
}

func NewGroupSuccess(msg string, groupID *int64) GroupSuccess {
	return GroupSuccess{Kind: KindGroupSuccess, Message: msg, GroupID: groupID}
}

type MemberInfo struct {
	Name   string `json:"username"`
	UserID string `json:"uuid,omitempty"`
}

// GroupDetails is the info of a group-info reply.
type GroupDetails struct {
	GroupID   int64        `json:"group_id,omitempty"`
	Name      string       `json:"group_name"`
	OwnerName string       `json:"owner_name"`
	Members   []MemberInfo `json:"members,omitempty"`
}

// GroupInfo answers both group-info (a single group) and group-list.
type GroupInfo struct {
	Kind Kind `json:"kind"`
	Info any  `json:"info"`
}

func NewGroupInfo(info GroupDetails) GroupInfo { return GroupInfo{Kind: KindGroupInfo, Info: info} }

func NewGroupList(groups []GroupDetails) GroupInfo {
	if groups == nil {
		groups = []GroupDetails{}
	}
	return GroupInfo{Kind: KindGroupInfo, Info: groups}
}

type InventorySuccess struct {
	Kind       Kind   `json:"kind"`
	Message    string `json:"message"`
	ExternalID string `json:"external_id"`
}

func NewInventorySuccess(msg, externalID string) InventorySuccess {
	return InventorySuccess{Kind: KindInventorySuccess, Message: msg, ExternalID: externalID}
}

type StockEntry struct {
	ItemID    string `json:"item_id"`
	Qty       int64  `json:"item_qty"`
	ProjectID *int64 `json:"project_id"`
}

// ItemInfo reports quantities after an item operation or the full contents
// of an inventory for item-get. Unused fields are omitted.
type ItemInfo struct {
	Kind       Kind         `json:"kind"`
	ExternalID string       `json:"external_id,omitempty"`
	ItemID     string       `json:"item_id,omitempty"`
	Qty        *int64       `json:"item_qty,omitempty"`
	ProjectID  *int64       `json:"project_id,omitempty"`
	Deleted    bool         `json:"deleted,omitempty"`
	Items      []StockEntry `json:"items,omitempty"`

	SourceID  string `json:"source_id,omitempty"`
	SourceQty *int64 `json:"source_qty,omitempty"`
	TargetID  string `json:"target_id,omitempty"`
	TargetQty *int64 `json:"target_qty,omitempty"`
}

func NewItemContents(externalID string, items []StockEntry) ItemInfo {
	if items == nil {
		items = []StockEntry{}
	}
	return ItemInfo{Kind: KindItemInfo, ExternalID: externalID, Items: items}
}

func NewItemQty(externalID, itemID string, qty int64, projectID *int64) ItemInfo {
	return ItemInfo{Kind: KindItemInfo, ExternalID: externalID, ItemID: itemID, Qty: &qty, ProjectID: projectID}
}

func NewItemDeleted(externalID, itemID string, projectID *int64) ItemInfo {
	return ItemInfo{Kind: KindItemInfo, ExternalID: externalID, ItemID: itemID, ProjectID: projectID, Deleted: true}
}

func NewItemTransfer(itemID, sourceID string, sourceQty int64, targetID string, targetQty int64) ItemInfo {
	return ItemInfo{
		Kind:      KindItemInfo,
		ItemID:    itemID,
		SourceID:  sourceID,
		SourceQty: &sourceQty,
		TargetID:  targetID,
		TargetQty: &targetQty,
	}
}

// ProjectItemInfo reports a reserve or release: what is left in the source
// bucket and the new total of the destination bucket.
type ProjectItemInfo struct {
	Kind       Kind   `json:"kind"`
	ExternalID string `json:"external_id"`
	ItemID     string `json:"item_id"`
	ProjectID  int64  `json:"project_id"`
	Reserved   int64  `json:"reserved"`
	Available  int64  `json:"available"`
}

func NewProjectItemInfo(externalID, itemID string, projectID, reserved, available int64) ProjectItemInfo {
	return ProjectItemInfo{
		Kind:       KindProjectItemInfo,
		ExternalID: externalID,
		ItemID:     itemID,
		ProjectID:  projectID,
		Reserved:   reserved,
		Available:  available,
	}
}

type ProjectSummary struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Desc    string `json:"desc"`
	Scope   string `json:"scope"`
	GroupID *int64 `json:"group_id,omitempty"`
}

type ReservedEntry struct {
	InventoryID int64  `json:"inventory"`
	ItemID      string `json:"id"`
	Count       int64  `json:"count"`
}

type ProjectDetails struct {
	ProjectSummary
	Goals map[string]int64 `json:"goals"`
	Items []ReservedEntry  `json:"items"`
}

type ProjectInfoAll struct {
	Kind     Kind             `json:"kind"`
	Projects []ProjectSummary `json:"projects"`
}

func NewProjectInfoAll(projects []ProjectSummary) ProjectInfoAll {
	if projects == nil {
		projects = []ProjectSummary{}
	}
	return ProjectInfoAll{Kind: KindProjectInfoAll, Projects: projects}
}

type ProjectInfoSingle struct {
	Kind    Kind           `json:"kind"`
	Project ProjectDetails `json:"project"`
}

func NewProjectInfoSingle(p ProjectDetails) ProjectInfoSingle {
	if p.Goals == nil {
		p.Goals = map[string]int64{}
	}
	if p.Items == nil {
		p.Items = []ReservedEntry{}
	}
	return ProjectInfoSingle{Kind: KindProjectInfoSingle, Project: p}
}

type ProjectSuccess struct {
	Kind      Kind   `json:"kind"`
	Message   string `json:"message"`
	ProjectID *int64 `json:"project_id,omitempty"`
}

func NewProjectSuccess(msg string, projectID *int64) ProjectSuccess {
	return ProjectSuccess{Kind: KindProjectSuccess, Message: msg, ProjectID: projectID}
}
