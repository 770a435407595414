package sim

import "errors"

// Configuration defects. A request that hits one of these cannot be routed
// under the current design; the simulator drops it and keeps running.
var (
	ErrNoTier         = errors.New("no tier serves role")
	ErrEmptyTier      = errors.New("tier has no compute nodes")
	ErrNoRoute        = errors.New("no network route")
	ErrEmptyRoleChain = errors.New("workflow has no server roles with service time")
)

// Design construction and lookup errors.
var (
	ErrInvalidDesign      = errors.New("invalid design")
	ErrZoneNotFound       = errors.New("network zone not found")
	ErrConnectionNotFound = errors.New("network connection not found")
	ErrNodeNotFound       = errors.New("compute node not found")
	ErrTierNotFound       = errors.New("tier not found")
	ErrInvalidAdvance     = errors.New("advance must be a positive number of seconds")
)
