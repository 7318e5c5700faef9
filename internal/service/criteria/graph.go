// internal/service/criteria/graph.go

package criteria

// node identifies a raw input or a derived value of the model
type node uint8

const (
	nodeStartDate node = iota
	nodeStartTime
	nodeEndDate
	nodeEndTime
	nodeUseLocalTime
	nodeTimezone
	nodeCenter
	nodeNorthEast
	nodeSouthWest
	nodeStream

	nodeRawStart
	nodeRawEnd
	nodeMapOffset
	nodeStart
	nodeEnd
	nodeRadius
	nodeTimeError
	nodeMapError
	nodeErrors

	nodeCount
)

// upstream lists, for every derived node, the nodes it reads
var upstream = map[node][]node{
	nodeRawStart:  {nodeStartDate, nodeStartTime, nodeTimezone},
	nodeRawEnd:    {nodeEndDate, nodeEndTime, nodeTimezone},
	nodeMapOffset: {nodeCenter, nodeRawStart, nodeTimezone},
	nodeStart:     {nodeRawStart, nodeUseLocalTime, nodeMapOffset},
	nodeEnd:       {nodeRawEnd, nodeUseLocalTime, nodeMapOffset},
	nodeRadius:    {nodeCenter, nodeNorthEast},
	nodeTimeError: {nodeStart, nodeEnd},
	nodeMapError:  {nodeNorthEast, nodeSouthWest, nodeRadius},
	nodeErrors: {
		nodeStartDate, nodeStartTime, nodeEndDate, nodeEndTime,
		nodeRawStart, nodeRawEnd, nodeStream, nodeTimeError, nodeMapError,
	},
}

// dependents[n] is the bitmask of every derived node that transitively reads n
var dependents [nodeCount]uint32

func init() {
	for n := node(0); n < nodeCount; n++ {
		dependents[n] = closure(n)
	}
}

func closure(n node) uint32 {
	var mask uint32
	for derived, ups := range upstream {
		for _, u := range ups {
			if u == n {
				mask |= bit(derived) | closure(derived)
				break
			}
		}
	}
	return mask
}

func bit(n node) uint32 {
	return 1 << n
}
