package distributor

import (
	"crypto/ed25519"
)

// Stats summarises the claim progress of one distributor. Amounts are in the
// smallest token unit.
type Stats struct {
	Address            ed25519.PublicKey
	TotalClaimed       uint64
	RemainingClaimable uint64
	TotalEligible      uint64
	TotalClaimedCount  uint64
}

// FleetStats sums Stats across distributors.
type FleetStats struct {
	TotalClaimed       uint64
	RemainingClaimable uint64
	TotalEligible      uint64
	TotalClaimedCount  uint64

	Distributors []Stats
}

// UnclaimedCount is the number of eligible claimants that have not claimed.
func (s *FleetStats) UnclaimedCount() uint64 {
	if s.TotalClaimedCount > s.TotalEligible {
		return 0
	}
	return s.TotalEligible - s.TotalClaimedCount
}

func StatsFor(address ed25519.PublicKey, d *Distributor) Stats {
	stats := Stats{
		Address:           address,
		TotalClaimed:      d.TotalAmountClaimed,
		TotalEligible:     d.MaxNumNodes,
		TotalClaimedCount: d.NumNodesClaimed,
	}

	// A stale account may briefly report more claimed than the maximum.
	if d.MaxTotalClaim > d.TotalAmountClaimed {
		stats.RemainingClaimable = d.MaxTotalClaim - d.TotalAmountClaimed
	}

	return stats
}

// Aggregate sums the stats of every result. It fails on the first result
// without a distributor.
func Aggregate(results []Result) (*FleetStats, error) {
	fleet := &FleetStats{
		Distributors: make([]Stats, 0, len(results)),
	}

	for _, result := range results {
		if result.Distributor == nil {
			return nil, &NotFoundError{Address: result.Address}
		}

		stats := StatsFor(result.Address, result.Distributor)
		fleet.TotalClaimed += stats.TotalClaimed
		fleet.RemainingClaimable += stats.RemainingClaimable
		fleet.TotalEligible += stats.TotalEligible
		fleet.TotalClaimedCount += stats.TotalClaimedCount
		fleet.Distributors = append(fleet.Distributors, stats)
	}

	return fleet, nil
}
