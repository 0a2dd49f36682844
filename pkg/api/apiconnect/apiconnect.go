// Package apiconnect wires the SettleUp services to Connect handlers and clients.
// It mirrors the shape of generated Connect code for the messages in package api.
package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/pkg/api"
)

const (
	// AuthServiceName is the fully-qualified name of the AuthService service.
	AuthServiceName = "settleup.v1.AuthService"
	// GroupServiceName is the fully-qualified name of the GroupService service.
	GroupServiceName = "settleup.v1.GroupService"
	// ExpenseServiceName is the fully-qualified name of the ExpenseService service.
	ExpenseServiceName = "settleup.v1.ExpenseService"
)

// Procedure names. Each is the HTTP path the procedure is served on.
const (
	AuthServiceRegisterProcedure          = "/settleup.v1.AuthService/Register"
	AuthServiceLoginProcedure             = "/settleup.v1.AuthService/Login"
	AuthServiceStartGuestSessionProcedure = "/settleup.v1.AuthService/StartGuestSession"
	AuthServiceGetCurrentUserProcedure    = "/settleup.v1.AuthService/GetCurrentUser"

	GroupServiceCreateGroupProcedure  = "/settleup.v1.GroupService/CreateGroup"
	GroupServiceGetGroupProcedure     = "/settleup.v1.GroupService/GetGroup"
	GroupServiceListMyGroupsProcedure = "/settleup.v1.GroupService/ListMyGroups"
	GroupServiceDeleteGroupProcedure  = "/settleup.v1.GroupService/DeleteGroup"

	ExpenseServiceAddExpenseProcedure        = "/settleup.v1.ExpenseService/AddExpense"
	ExpenseServiceListExpensesProcedure      = "/settleup.v1.ExpenseService/ListExpenses"
	ExpenseServiceSetExpenseSettledProcedure = "/settleup.v1.ExpenseService/SetExpenseSettled"
	ExpenseServiceDeleteExpenseProcedure     = "/settleup.v1.ExpenseService/DeleteExpense"
)

// AuthServiceHandler is implemented by the server side of AuthService.
type AuthServiceHandler interface {
	Register(context.Context, *connect.Request[api.RegisterRequest]) (*connect.Response[api.RegisterResponse], error)
	Login(context.Context, *connect.Request[api.LoginRequest]) (*connect.Response[api.LoginResponse], error)
	StartGuestSession(context.Context, *connect.Request[api.StartGuestSessionRequest]) (*connect.Response[api.StartGuestSessionResponse], error)
	GetCurrentUser(context.Context, *connect.Request[api.GetCurrentUserRequest]) (*connect.Response[api.GetCurrentUserResponse], error)
}

// GroupServiceHandler is implemented by the server side of GroupService.
type GroupServiceHandler interface {
	CreateGroup(context.Context, *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error)
	GetGroup(context.Context, *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error)
	ListMyGroups(context.Context, *connect.Request[api.ListMyGroupsRequest]) (*connect.Response[api.ListMyGroupsResponse], error)
	DeleteGroup(context.Context, *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error)
}

// ExpenseServiceHandler is implemented by the server side of ExpenseService.
type ExpenseServiceHandler interface {
	AddExpense(context.Context, *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.AddExpenseResponse], error)
	ListExpenses(context.Context, *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error)
	SetExpenseSettled(context.Context, *connect.Request[api.SetExpenseSettledRequest]) (*connect.Response[api.SetExpenseSettledResponse], error)
	DeleteExpense(context.Context, *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error)
}

// handlerOptions puts the JSON codec ahead of the caller's options.
func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)
}

func clientOptions(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(JSONCodec{})}, opts...)
}

// routeHandler dispatches on the request path to one handler per procedure.
func routeHandler(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := handlers[r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}

// NewAuthServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewAuthServiceHandler(svc AuthServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return "/" + AuthServiceName + "/", routeHandler(map[string]http.Handler{
		AuthServiceRegisterProcedure:          connect.NewUnaryHandler(AuthServiceRegisterProcedure, svc.Register, opts...),
		AuthServiceLoginProcedure:             connect.NewUnaryHandler(AuthServiceLoginProcedure, svc.Login, opts...),
		AuthServiceStartGuestSessionProcedure: connect.NewUnaryHandler(AuthServiceStartGuestSessionProcedure, svc.StartGuestSession, opts...),
		AuthServiceGetCurrentUserProcedure:    connect.NewUnaryHandler(AuthServiceGetCurrentUserProcedure, svc.GetCurrentUser, opts...),
	})
}

// NewGroupServiceHandler builds an HTTP handler from the service implementation.
func NewGroupServiceHandler(svc GroupServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return "/" + GroupServiceName + "/", routeHandler(map[string]http.Handler{
		GroupServiceCreateGroupProcedure:  connect.NewUnaryHandler(GroupServiceCreateGroupProcedure, svc.CreateGroup, opts...),
		GroupServiceGetGroupProcedure:     connect.NewUnaryHandler(GroupServiceGetGroupProcedure, svc.GetGroup, opts...),
		GroupServiceListMyGroupsProcedure: connect.NewUnaryHandler(GroupServiceListMyGroupsProcedure, svc.ListMyGroups, opts...),
		GroupServiceDeleteGroupProcedure:  connect.NewUnaryHandler(GroupServiceDeleteGroupProcedure, svc.DeleteGroup, opts...),
	})
}

// NewExpenseServiceHandler builds an HTTP handler from the service implementation.
func NewExpenseServiceHandler(svc ExpenseServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return "/" + ExpenseServiceName + "/", routeHandler(map[string]http.Handler{
		ExpenseServiceAddExpenseProcedure:        connect.NewUnaryHandler(ExpenseServiceAddExpenseProcedure, svc.AddExpense, opts...),
		ExpenseServiceListExpensesProcedure:      connect.NewUnaryHandler(ExpenseServiceListExpensesProcedure, svc.ListExpenses, opts...),
		ExpenseServiceSetExpenseSettledProcedure: connect.NewUnaryHandler(ExpenseServiceSetExpenseSettledProcedure, svc.SetExpenseSettled, opts...),
		ExpenseServiceDeleteExpenseProcedure:     connect.NewUnaryHandler(ExpenseServiceDeleteExpenseProcedure, svc.DeleteExpense, opts...),
	})
}

// AuthServiceClient is a client for the settleup.v1.AuthService service.
type AuthServiceClient struct {
	register          *connect.Client[api.RegisterRequest, api.RegisterResponse]
	login             *connect.Client[api.LoginRequest, api.LoginResponse]
	startGuestSession *connect.Client[api.StartGuestSessionRequest, api.StartGuestSessionResponse]
	getCurrentUser    *connect.Client[api.GetCurrentUserRequest, api.GetCurrentUserResponse]
}

// NewAuthServiceClient constructs a client for AuthService. baseURL is the
// server's scheme and host, for example http://localhost:8080.
func NewAuthServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AuthServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &AuthServiceClient{
		register:          connect.NewClient[api.RegisterRequest, api.RegisterResponse](httpClient, baseURL+AuthServiceRegisterProcedure, opts...),
		login:             connect.NewClient[api.LoginRequest, api.LoginResponse](httpClient, baseURL+AuthServiceLoginProcedure, opts...),
		startGuestSession: connect.NewClient[api.StartGuestSessionRequest, api.StartGuestSessionResponse](httpClient, baseURL+AuthServiceStartGuestSessionProcedure, opts...),
		getCurrentUser:    connect.NewClient[api.GetCurrentUserRequest, api.GetCurrentUserResponse](httpClient, baseURL+AuthServiceGetCurrentUserProcedure, opts...),
	}
}

func (c *AuthServiceClient) Register(ctx context.Context, req *connect.Request[api.RegisterRequest]) (*connect.Response[api.RegisterResponse], error) {
	return c.register.CallUnary(ctx, req)
}

func (c *AuthServiceClient) Login(ctx context.Context, req *connect.Request[api.LoginRequest]) (*connect.Response[api.LoginResponse], error) {
	return c.login.CallUnary(ctx, req)
}

func (c *AuthServiceClient) StartGuestSession(ctx context.Context, req *connect.Request[api.StartGuestSessionRequest]) (*connect.Response[api.StartGuestSessionResponse], error) {
	return c.startGuestSession.CallUnary(ctx, req)
}

func (c *AuthServiceClient) GetCurrentUser(ctx context.Context, req *connect.Request[api.GetCurrentUserRequest]) (*connect.Response[api.GetCurrentUserResponse], error) {
	return c.getCurrentUser.CallUnary(ctx, req)
}

// GroupServiceClient is a client for the settleup.v1.GroupService service.
type GroupServiceClient struct {
	createGroup  *connect.Client[api.CreateGroupRequest, api.CreateGroupResponse]
	getGroup     *connect.Client[api.GetGroupRequest, api.GetGroupResponse]
	listMyGroups *connect.Client[api.ListMyGroupsRequest, api.ListMyGroupsResponse]
	deleteGroup  *connect.Client[api.DeleteGroupRequest, api.DeleteGroupResponse]
}

// NewGroupServiceClient constructs a client for GroupService.
func NewGroupServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *GroupServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &GroupServiceClient{
		createGroup:  connect.NewClient[api.CreateGroupRequest, api.CreateGroupResponse](httpClient, baseURL+GroupServiceCreateGroupProcedure, opts...),
		getGroup:     connect.NewClient[api.GetGroupRequest, api.GetGroupResponse](httpClient, baseURL+GroupServiceGetGroupProcedure, opts...),
		listMyGroups: connect.NewClient[api.ListMyGroupsRequest, api.ListMyGroupsResponse](httpClient, baseURL+GroupServiceListMyGroupsProcedure, opts...),
		deleteGroup:  connect.NewClient[api.DeleteGroupRequest, api.DeleteGroupResponse](httpClient, baseURL+GroupServiceDeleteGroupProcedure, opts...),
	}
}

func (c *GroupServiceClient) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	return c.createGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	return c.getGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) ListMyGroups(ctx context.Context, req *connect.Request[api.ListMyGroupsRequest]) (*connect.Response[api.ListMyGroupsResponse], error) {
	return c.listMyGroups.CallUnary(ctx, req)
}

func (c *GroupServiceClient) DeleteGroup(ctx context.Context, req *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error) {
	return c.deleteGroup.CallUnary(ctx, req)
}

// ExpenseServiceClient is a client for the settleup.v1.ExpenseService service.
type ExpenseServiceClient struct {
	addExpense        *connect.Client[api.AddExpenseRequest, api.AddExpenseResponse]
	listExpenses      *connect.Client[api.ListExpensesRequest, api.ListExpensesResponse]
	setExpenseSettled *connect.Client[api.SetExpenseSettledRequest, api.SetExpenseSettledResponse]
	deleteExpense     *connect.Client[api.DeleteExpenseRequest, api.DeleteExpenseResponse]
}

// NewExpenseServiceClient constructs a client for ExpenseService.
func NewExpenseServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *ExpenseServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &ExpenseServiceClient{
		addExpense:        connect.NewClient[api.AddExpenseRequest, api.AddExpenseResponse](httpClient, baseURL+ExpenseServiceAddExpenseProcedure, opts...),
		listExpenses:      connect.NewClient[api.ListExpensesRequest, api.ListExpensesResponse](httpClient, baseURL+ExpenseServiceListExpensesProcedure, opts...),
		setExpenseSettled: connect.NewClient[api.SetExpenseSettledRequest, api.SetExpenseSettledResponse](httpClient, baseURL+ExpenseServiceSetExpenseSettledProcedure, opts...),
		deleteExpense:     connect.NewClient[api.DeleteExpenseRequest, api.DeleteExpenseResponse](httpClient, baseURL+ExpenseServiceDeleteExpenseProcedure, opts...),
	}
}

func (c *ExpenseServiceClient) AddExpense(ctx context.Context, req *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.AddExpenseResponse], error) {
	return c.addExpense.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	return c.listExpenses.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) SetExpenseSettled(ctx context.Context, req *connect.Request[api.SetExpenseSettledRequest]) (*connect.Response[api.SetExpenseSettledResponse], error) {
	return c.setExpenseSettled.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	return c.deleteExpense.CallUnary(ctx, req)
}
