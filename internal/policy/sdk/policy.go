// Package sdk defines the contract a weight policy — builtin or an
// out-of-process plugin — implements to supply the objective weights used
// by internal/clinic/objective (§4.5, §11.2).
//
// Adapted from the teacher's internal/engine/sdk.Engine interface: the
// same shape (Metadata/Initialize/HealthCheck/Shutdown plus one
// domain-specific call), generalized from "execute a scheduling engine
// request" to "return today's objective weights."
package sdk

import "context"

// PolicyType names a weight policy implementation, mirroring the
// teacher's EngineType.
type PolicyType string

// Metadata describes a policy implementation for discovery and logging.
type Metadata struct {
	Type        PolicyType
	Name        string
	Version     string
	Description string
}

// Weights is the objective weight table from §4.5. Every field is a
// nonnegative integer penalty-per-unit; a plugin is free to return values
// other than the builtin defaults, but may not change which terms exist or
// what quantity each multiplies.
type Weights struct {
	// CoverageGapPerSlot is applied to the soft-phase uncov_c term.
	CoverageGapPerSlot int64

	// BalanceExcessPerSlot penalizes a higher-ranked therapist outworking a
	// lower-ranked one.
	BalanceExcessPerSlot int64

	// TeamTier is indexed by domain.Tier's result (0, 1, 2, 3); there is no
	// entry for tier 4 (∞), since it is excluded from eligibility before the
	// objective ever sees it.
	TeamTier [4]int64

	// NoteCountPerSession penalizes each active ABA session, discouraging
	// fragmentation into many small sessions.
	NoteCountPerSession int64
}

// Policy is implemented by every weight-policy provider: the two builtin
// strategies in internal/policy/builtin, and any out-of-process plugin
// loaded through internal/policy/rpcplugin.
type Policy interface {
	Metadata() Metadata

	// Initialize is called once after the policy is loaded, before any
	// Weights call. config is implementation-specific and may be empty.
	Initialize(ctx context.Context, config map[string]string) error

	// Weights returns the objective weight table for one solve. date is
	// the selected date ("YYYY-MM-DD"); a policy may vary its weights by
	// calendar context (e.g. looser balance penalties near a holiday) but
	// most implementations ignore it and return a constant table.
	Weights(ctx context.Context, date string) (Weights, error)

	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
