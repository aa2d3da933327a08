package chunks

import (
	sl "github.com/samcharles93/tilesave/pkg/saveload"

	"github.com/samcharles93/tilesave/internal/world"
)

var dateTable = sl.NewTable("date",
	sl.Int("calendar", sl.KindI32, func(d *world.Date) *int32 { return &d.Calendar }),
	sl.Null[world.Date](2).Until(VNoDateFract-1),
	sl.Int("tick_counter", sl.KindU16, func(d *world.Date) *uint64 { return &d.TickCounter }).Until(VStationFlows-1),
	sl.Int("tick_counter", sl.KindU64, func(d *world.Date) *uint64 { return &d.TickCounter }).Since(VStationFlows),
	sl.Int("tick_skip", sl.KindU8, func(d *world.Date) *uint8 { return &d.TickSkip }).When(sl.Feature(FeatureDayLength, 1)),
)

var objectTable = sl.NewTable("object",
	sl.Int("type", sl.KindU16, func(o *world.Object) *uint16 { return &o.Type }),
	sl.Int("location", sl.KindU32, func(o *world.Object) *uint32 { return &o.Location }),
	sl.Int("width", sl.KindU8, func(o *world.Object) *uint8 { return &o.Width }),
	sl.Int("height", sl.KindU8, func(o *world.Object) *uint8 { return &o.Height }),
	sl.Int("build_date", sl.KindI32, func(o *world.Object) *int32 { return &o.BuildDate }),
	sl.Int("colour", sl.KindU8, func(o *world.Object) *uint8 { return &o.Colour }).Since(VObjectColour),
	sl.Int("station", sl.KindU16, func(o *world.Object) *uint16 { return &o.StationID }),
)

var flowTable = sl.NewTable("flow",
	sl.Int("via", sl.KindU16, func(f *world.FlowStat) *uint16 { return &f.Via }),
	sl.Int("share", sl.KindU32, func(f *world.FlowStat) *uint32 { return &f.Share }),
	sl.Bool("restricted", func(f *world.FlowStat) *bool { return &f.Restricted }).When(sl.Feature(FeatureFlowRestrict, 1)),
)

var goodsTable = sl.NewTable("goods",
	sl.Int("cargo", sl.KindU8, func(g *world.GoodsEntry) *uint8 { return &g.Cargo }),
	sl.Int("status", sl.KindU8, func(g *world.GoodsEntry) *uint8 { return &g.Status }),
	sl.Int("rating", sl.KindU8, func(g *world.GoodsEntry) *uint8 { return &g.Rating }),
	sl.StructList("flows", flowTable, func(g *world.GoodsEntry) *[]world.FlowStat { return &g.Flows }).Since(VStationFlows),
)

var stationTable = sl.NewTable("station",
	sl.String("name", func(s *world.Station) *string { return &s.Name }),
	sl.Int("xy", sl.KindU32, func(s *world.Station) *uint32 { return &s.XY }),
	sl.Int("owner", sl.KindU8, func(s *world.Station) *uint8 { return &s.Owner }),
	sl.Int("facilities", sl.KindU8, func(s *world.Station) *uint8 { return &s.Facilities }),
	sl.Int("build_date", sl.KindI32, func(s *world.Station) *int32 { return &s.BuildDate }),
	sl.StructList("goods", goodsTable, func(s *world.Station) *[]world.GoodsEntry { return &s.Goods }),
)

var planLineTable = sl.NewTable("plan_line",
	sl.Bool("visible", func(l *world.PlanLine) *bool { return &l.Visible }),
	// Revision 1 stored an unused flag byte here.
	sl.Null[world.PlanLine](1).When(sl.FeatureRange(FeaturePlans, 1, 1)),
	sl.Int("colour", sl.KindU8, func(l *world.PlanLine) *uint8 { return &l.Colour }).When(sl.Feature(FeaturePlans, 2)),
	sl.List("tiles", sl.KindU32, func(l *world.PlanLine) *[]uint32 { return &l.Tiles }),
)

var planTable = sl.NewTable("plan",
	sl.Int("owner", sl.KindU8, func(p *world.Plan) *uint8 { return &p.Owner }),
	sl.Bool("visible", func(p *world.Plan) *bool { return &p.Visible }),
	sl.String("name", func(p *world.Plan) *string { return &p.Name }).When(sl.Feature(FeaturePlans, 2)),
	sl.StructList("lines", planLineTable, func(p *world.Plan) *[]world.PlanLine { return &p.Lines }),
)

var instructionTable = sl.NewTable("instruction",
	sl.Int("op", sl.KindU8, func(i *world.Instruction) *uint8 { return &i.Op }),
	sl.Int("arg", sl.KindU32, func(i *world.Instruction) *uint32 { return &i.Arg }),
).Strict()

var signalTable = sl.NewTable("signal_program",
	sl.Int("tile", sl.KindU32, func(s *world.SignalProgram) *uint32 { return &s.Tile }),
	sl.Int("track", sl.KindU8, func(s *world.SignalProgram) *uint8 { return &s.Track }),
	sl.Int("style", sl.KindU8, func(s *world.SignalProgram) *uint8 { return &s.Style }).When(sl.Feature(FeatureSignalStyle, 1)),
	sl.StructList("instructions", instructionTable, func(s *world.SignalProgram) *[]world.Instruction { return &s.Instructions }),
)
