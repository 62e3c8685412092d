package service

import (
	"strconv"

	"stellarcade/internal/domain"
	"stellarcade/internal/repository"
)

const (
	collRoutes        = "routes"
	collRoutedRequest = "routed_requests"
)

type routerConfig struct {
	Admin domain.Address `json:"admin"`
}

// ContractRouter registers directed routes between contracts and carries
// dispatch/acknowledge messages over them exactly once per request id.
type ContractRouter struct {
	addr domain.Address
}

func NewContractRouter(addr domain.Address) *ContractRouter {
	return &ContractRouter{addr: addr}
}

func (rt *ContractRouter) Address() domain.Address { return rt.addr }

func (rt *ContractRouter) routeKey(id uint64) repository.Key {
	return repository.IDKey(rt.addr, collRoutes, id)
}

func (rt *ContractRouter) requestKey(id string) repository.Key {
	return repository.Key{Contract: rt.addr, Collection: collRoutedRequest, ID: id}
}

func (rt *ContractRouter) Init(tx repository.Tx, admin domain.Address) error {
	if admin.IsZero() {
		return domain.ErrInvalidInput
	}
	key := repository.InstanceKey(rt.addr, "config")
	exists, err := repository.Has(tx, key)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrAlreadyInitialized
	}
	if err := tx.Put(key, routerConfig{Admin: admin}); err != nil {
		return err
	}
	if err := tx.Put(repository.InstanceKey(rt.addr, "next_route_id"), uint64(0)); err != nil {
		return err
	}
	return tx.Emit(rt.addr, domain.EventRouterInitialized, nil, map[string]any{"admin": admin})
}

func (rt *ContractRouter) config(r repository.Reader) (routerConfig, error) {
	var cfg routerConfig
	ok, err := r.Get(repository.InstanceKey(rt.addr, "config"), &cfg)
	if err != nil {
		return cfg, err
	}
	if !ok {
		return cfg, domain.ErrNotInitialized
	}
	return cfg, nil
}

// RegisterRoute assigns the next route id, starting at 1.
func (rt *ContractRouter) RegisterRoute(tx repository.Tx, caller, source, target domain.Address, selector string) (uint64, error) {
	cfg, err := rt.config(tx)
	if err != nil {
		return 0, err
	}
	if err := domain.RequireAdmin(caller, cfg.Admin); err != nil {
		return 0, err
	}
	if source.IsZero() || target.IsZero() || selector == "" {
		return 0, domain.ErrInvalidInput
	}
	if source == target {
		return 0, domain.ErrSameEndpoint
	}

	seqKey := repository.InstanceKey(rt.addr, "next_route_id")
	var last uint64
	if _, err := tx.Get(seqKey, &last); err != nil {
		return 0, err
	}
	if last == ^uint64(0) {
		return 0, domain.ErrOverflow
	}
	id := last + 1

	route := domain.Route{RouteID: id, Source: source, Target: target, Selector: selector}
	if err := tx.Put(rt.routeKey(id), route); err != nil {
		return 0, err
	}
	if err := tx.Put(seqKey, id); err != nil {
		return 0, err
	}
	return id, tx.Emit(rt.addr, domain.EventRouterRouteRegistered,
		map[string]string{"route_id": strconv.FormatUint(id, 10), "source": string(source), "target": string(target)},
		map[string]string{"selector": selector},
	)
}

// Route returns a registered route.
func (rt *ContractRouter) Route(r repository.Reader, routeID uint64) (domain.Route, error) {
	var route domain.Route
	ok, err := r.Get(rt.routeKey(routeID), &route)
	if err != nil {
		return route, err
	}
	if !ok {
		return route, domain.ErrUnknownRoute
	}
	return route, nil
}

// Request returns a dispatched request.
func (rt *ContractRouter) Request(r repository.Reader, requestID string) (domain.RoutedRequest, error) {
	var req domain.RoutedRequest
	ok, err := r.Get(rt.requestKey(requestID), &req)
	if err != nil {
		return req, err
	}
	if !ok {
		return req, domain.ErrUnknownRequest
	}
	return req, nil
}

// Dispatch records a pending request on a route. Only the admin or the
// route's source may dispatch; a request id is accepted once.
func (rt *ContractRouter) Dispatch(tx repository.Tx, caller domain.Address, requestID string, routeID uint64, payload string) error {
	cfg, err := rt.config(tx)
	if err != nil {
		return err
	}
	if requestID == "" {
		return domain.ErrInvalidInput
	}
	route, err := rt.Route(tx, routeID)
	if err != nil {
		return err
	}
	if caller.IsZero() || (caller != cfg.Admin && caller != route.Source) {
		return domain.ErrUnauthorized
	}
	exists, err := repository.Has(tx, rt.requestKey(requestID))
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrDuplicateRequest
	}

	req := domain.RoutedRequest{
		RequestID: requestID,
		RouteID:   routeID,
		Status:    domain.RequestPending,
		Payload:   payload,
	}
	if err := tx.Put(rt.requestKey(requestID), req); err != nil {
		return err
	}
	return tx.Emit(rt.addr, domain.EventRouterDispatched,
		map[string]string{"request_id": requestID, "route_id": strconv.FormatUint(routeID, 10)},
		map[string]string{"payload": payload},
	)
}

// Acknowledge completes a pending request. Only the admin or the route's
// target may acknowledge, and only once.
func (rt *ContractRouter) Acknowledge(tx repository.Tx, caller domain.Address, requestID, result string) error {
	cfg, err := rt.config(tx)
	if err != nil {
		return err
	}
	req, err := rt.Request(tx, requestID)
	if err != nil {
		return err
	}
	if req.Status == domain.RequestAcknowledged {
		return domain.ErrAlreadyAcknowledged
	}
	route, err := rt.Route(tx, req.RouteID)
	if err != nil {
		return err
	}
	if caller.IsZero() || (caller != cfg.Admin && caller != route.Target) {
		return domain.ErrUnauthorized
	}

	req.Status = domain.RequestAcknowledged
	req.Result = result
	if err := tx.Put(rt.requestKey(requestID), req); err != nil {
		return err
	}
	return tx.Emit(rt.addr, domain.EventRouterAcknowledged,
		map[string]string{"request_id": requestID, "route_id": strconv.FormatUint(req.RouteID, 10)},
		map[string]string{"result": result},
	)
}
