package fusion

import (
	"strings"

	"github.com/mwhitfield/carematch/internal/types"
)

// softMatchMinSignals is how many independent identity signals must
// agree before two records without a shared identifier are merged. Two
// is the floor that keeps "Oakwood House, GU1" from merging with every
// other Oakwood in the country.
const softMatchMinSignals = 2

// addressOverlapThreshold is the token-overlap ratio at which two
// address lines count as the same address.
const addressOverlapThreshold = 0.75

// softKey carries one record's normalised identity signals.
type softKey struct {
	name       string
	postcode   string
	address    string
	addrTokens []string
	phone      string
}

func softKeyOf(rec *types.CandidateRecord) softKey {
	addr := NormalizeAddress(rec.AddressLine)
	return softKey{
		name:       NormalizeName(rec.Name),
		postcode:   NormalizePostcode(rec.Postcode),
		address:    addr,
		addrTokens: strings.Fields(addr),
		phone:      NormalizePhone(rec.Phone),
	}
}

// agreeingSignals counts identity signals present on both sides that
// agree. An empty signal on either side neither agrees nor disagrees.
func agreeingSignals(a, b softKey) int {
	n := 0
	if a.name != "" && a.name == b.name {
		n++
	}
	if a.postcode != "" && a.postcode == b.postcode {
		n++
	}
	if a.address != "" && b.address != "" {
		if a.address == b.address || tokenOverlap(a.addrTokens, b.addrTokens) >= addressOverlapThreshold {
			n++
		}
	}
	if a.phone != "" && a.phone == b.phone {
		n++
	}
	return n
}

// isSoftMatch reports whether two unlinked records describe the same
// home: at least two independent signals must agree.
func isSoftMatch(a, b softKey) bool {
	return agreeingSignals(a, b) >= softMatchMinSignals
}
