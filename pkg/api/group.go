package api

type CreateGroupRequest struct {
	Name     string   `json:"name" validate:"required,max=100"`
	Currency string   `json:"currency,omitempty" validate:"max=8"`
	Members  []string `json:"members" validate:"required,min=1,max=50,dive,required,max=100"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type GetGroupRequest struct {
	GroupID string `json:"group_id" validate:"required"`
}

// GetGroupResponse carries the group with its settlement plan and balances,
// both computed from every recorded expense at request time.
type GetGroupResponse struct {
	Group       *Group       `json:"group"`
	Settlements []Settlement `json:"settlements"`
	Balances    []Balance    `json:"balances"`
}

type ListMyGroupsRequest struct{}

type ListMyGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

type DeleteGroupRequest struct {
	GroupID string `json:"group_id" validate:"required"`
}

type DeleteGroupResponse struct{}
