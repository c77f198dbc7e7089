package plan

import "strings"

// Depth selects how thorough a workflow run is. Deeper levels run strict
// supersets of the shallower levels' stages.
type Depth string

const (
	DepthStandard      Depth = "standard"
	DepthDeep          Depth = "deep"
	DepthComprehensive Depth = "comprehensive"
	DepthExperimental  Depth = "experimental"
)

var depthRank = map[Depth]int{
	DepthStandard:      0,
	DepthDeep:          1,
	DepthComprehensive: 2,
	DepthExperimental:  3,
}

// ParseDepth normalizes a depth label. Unrecognized values fall back to
// DepthStandard; that fallback is documented behavior, not an error.
func ParseDepth(value string) Depth {
	switch Depth(strings.ToLower(strings.TrimSpace(value))) {
	case DepthDeep:
		return DepthDeep
	case DepthComprehensive:
		return DepthComprehensive
	case DepthExperimental:
		return DepthExperimental
	default:
		return DepthStandard
	}
}

// Rank returns the total-order position of d: standard < deep <
// comprehensive < experimental.
func (d Depth) Rank() int {
	return depthRank[ParseDepth(string(d))]
}

// AtLeast reports whether d is at least as deep as other.
func (d Depth) AtLeast(other Depth) bool {
	return d.Rank() >= other.Rank()
}

// Narrower returns the next shallower depth, used when recovery narrows the
// effective depth of the remaining plan. Standard narrows to itself.
func (d Depth) Narrower() Depth {
	switch ParseDepth(string(d)) {
	case DepthExperimental:
		return DepthComprehensive
	case DepthComprehensive:
		return DepthDeep
	case DepthDeep:
		return DepthStandard
	default:
		return DepthStandard
	}
}

func (d Depth) String() string { return string(ParseDepth(string(d))) }
