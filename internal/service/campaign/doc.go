// Package campaign implements campaign lifecycle management and quota-gated
// action execution.
//
// The service layer contains all business logic for creating campaigns,
// discovering and scoring targets, executing actions, and aggregating run
// results. It depends on repository interfaces defined in this package and
// should never import from api/.
//
// Repository implementations live in repository/postgres/ and
// repository/memory/.
package campaign
