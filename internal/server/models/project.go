package models

// Scope controls who can see a project.
type Scope string

const (
	ScopePublic  Scope = "PUBLIC"
	ScopePrivate Scope = "PRIVATE"
	ScopeGroup   Scope = "GROUP"
)

func (s Scope) Valid() bool {
	switch s {
	case ScopePublic, ScopePrivate, ScopeGroup:
		return true
	}
	return false
}

type Project struct {
	ID          int64
	Name        string
	Description string
	Scope       Scope
	OwnerID     string
	GroupID     *int64
}

// Goal is the collection target of one item for a project.
type Goal struct {
	ProjectID int64
	ItemID    string
	Quantity  int64
}
