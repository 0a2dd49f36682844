package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/metrics"
	"github.com/mmynk/settleup/internal/middleware"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/pkg/api"
	"github.com/mmynk/settleup/pkg/api/apiconnect"
)

var _ apiconnect.GroupServiceHandler = (*GroupService)(nil)

// GroupService implements the Connect GroupService.
type GroupService struct {
	stores  *Stores
	metrics *metrics.Metrics
}

// NewGroupService creates a new GroupService. m may be nil.
func NewGroupService(stores *Stores, m *metrics.Metrics) *GroupService {
	return &GroupService{stores: stores, metrics: m}
}

// CreateGroup creates a group owned by the caller. Member names must be unique
// within the group because settlement instructions refer to members by name.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	slog.Info("CreateGroup request received",
		"name", req.Msg.Name,
		"members_count", len(req.Msg.Members),
	)

	userID, err := middleware.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	members, err := memberNames(req.Msg.Members)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	group := &models.Group{
		Name:      strings.TrimSpace(req.Msg.Name),
		Currency:  strings.TrimSpace(req.Msg.Currency),
		CreatorID: userID,
		Members:   members,
	}

	// Save to storage (generates IDs and CreatedAt)
	if err := s.stores.For(ctx).CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Group created", "group_id", group.ID, "guest", middleware.IsGuest(ctx))

	return connect.NewResponse(&api.CreateGroupResponse{Group: groupToAPI(group)}), nil
}

// GetGroup returns a group with its balances and the transfers that settle them.
// Anyone holding the group ID may read it.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	slog.Info("GetGroup request received", "group_id", req.Msg.GroupID)

	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	store := s.stores.For(ctx)
	group, err := store.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Warn("GetGroup failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	expenses, err := store.ListExpensesByGroup(ctx, group.ID)
	if err != nil {
		slog.Error("GetGroup failed to list expenses", "group_id", group.ID, "error", err)
		return nil, toConnectError(err)
	}

	members, forBalance := calculatorInput(group, expenses)
	balances, err := calculator.CalculateBalances(members, forBalance)
	if err != nil {
		slog.Error("GetGroup failed to calculate balances", "group_id", group.ID, "error", err)
		return nil, toConnectError(err)
	}
	settlements := calculator.MatchDebts(balances)
	s.metrics.ObserveSettlement(len(settlements))

	slog.Info("GetGroup successful",
		"group_id", group.ID,
		"expenses", len(expenses),
		"settlements", len(settlements),
	)

	return connect.NewResponse(&api.GetGroupResponse{
		Group:       groupToAPI(group),
		Settlements: settlementsToAPI(settlements),
		Balances:    balancesToAPI(balances),
	}), nil
}

// ListMyGroups returns the groups the caller created, newest first.
func (s *GroupService) ListMyGroups(ctx context.Context, req *connect.Request[api.ListMyGroupsRequest]) (*connect.Response[api.ListMyGroupsResponse], error) {
	userID, err := middleware.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("ListMyGroups request received", "user_id", userID)

	groups, err := s.stores.For(ctx).ListGroupsByCreator(ctx, userID)
	if err != nil {
		slog.Error("ListMyGroups failed", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*api.Group, len(groups))
	for i, g := range groups {
		out[i] = groupToAPI(g)
	}

	return connect.NewResponse(&api.ListMyGroupsResponse{Groups: out}), nil
}

// DeleteGroup removes a group and its expenses. Only the creator may delete it.
func (s *GroupService) DeleteGroup(ctx context.Context, req *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error) {
	userID, err := middleware.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("DeleteGroup request received", "group_id", req.Msg.GroupID, "user_id", userID)

	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	if err := s.stores.For(ctx).DeleteGroup(ctx, req.Msg.GroupID, userID); err != nil {
		slog.Warn("DeleteGroup failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Group deleted", "group_id", req.Msg.GroupID)
	return connect.NewResponse(&api.DeleteGroupResponse{}), nil
}

// memberNames trims the names and rejects case-insensitive duplicates.
func memberNames(names []string) ([]models.Member, error) {
	seen := make(map[string]bool, len(names))
	members := make([]models.Member, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, errors.New("member names must not be blank")
		}
		key := strings.ToLower(name)
		if seen[key] {
			return nil, fmt.Errorf("duplicate member name %q", name)
		}
		seen[key] = true
		members = append(members, models.Member{Name: name})
	}
	return members, nil
}
