package chunks

import "github.com/samcharles93/tilesave/pkg/saveload"

// Save format history. Each step names the first version carrying the change.
const (
	VInitial      saveload.Version = 1
	VHeightMap    saveload.Version = 2 // MAP2 chunk
	VObjectColour saveload.Version = 3
	VStationFlows saveload.Version = 4 // flow sub-list, u64 tick counter
	VNoDateFract  saveload.Version = 5
	VTerminator   saveload.Version = 6
	VFeatureBlock saveload.Version = 7
	VUTF8Strings  saveload.Version = 8
	VTables       saveload.Version = 9
)

// Format is the version ladder written into and accepted from save files.
var Format = saveload.Format{
	Current:           VTables,
	Oldest:            VInitial,
	TerminatorSince:   VTerminator,
	FeatureBlockSince: VFeatureBlock,
	TableSince:        VTables,
	UTF8StringsSince:  VUTF8Strings,
}

// tableSince lists the chunks that moved from Array to Table framing and the
// version they moved at. Chunks not listed keep Array framing.
var tableSince = map[saveload.Tag]saveload.Version{
	TagStations: VTables,
	TagPlans:    VTables,
}

func framing(c *saveload.Context, tag saveload.Tag) saveload.ChunkType {
	if v, ok := tableSince[tag]; ok && c.Version >= v && c.TablesAllowed() {
		return saveload.TypeTable
	}
	return saveload.TypeArray
}

// Extension features recorded in the feature block.
const (
	FeaturePlans        = "plans"
	FeatureSignalStyle  = "signal_style"
	FeatureDayLength    = "day_length"
	FeatureFlowRestrict = "flow_restrict"
)

// Features lists every extension this build understands at its current revision.
var Features = []saveload.FeatureSpec{
	{Name: FeaturePlans, Current: 2},
	{Name: FeatureSignalStyle, Current: 1},
	{Name: FeatureDayLength, Current: 1},
	{Name: FeatureFlowRestrict, Current: 1},
}
