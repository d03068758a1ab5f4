package sequencer

import (
	"math"
	"strings"
	"testing"

	"github.com/lithoforge/maskforge/pkg/errors"
	"github.com/lithoforge/maskforge/pkg/geom"
)

const eps = 1e-9

func approx(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func TestStraight(t *testing.T) {
	opts := DefaultOptions()
	opts.DefaultWidth = 0.5

	g, err := New([]Command{S(10)}, opts).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(g.Polygons) != 1 {
		t.Fatalf("polygons = %d, want 1", len(g.Polygons))
	}
	box := g.BoundingBox(nil)
	if !approx(box.Width(), 10) || !approx(box.Height(), 0.5) {
		t.Errorf("bbox = %gx%g, want 10x0.5", box.Width(), box.Height())
	}
	if !approx(box.MinY, -0.25) {
		t.Errorf("segment not centered on the axis: MinY = %g", box.MinY)
	}
}

func TestTaperUpdatesWidth(t *testing.T) {
	opts := DefaultOptions()
	opts.DefaultWidth = 0.2

	// Taper to 1.0, then a straight: the straight must use the new width.
	g, err := New([]Command{T(2, 1.0), S(5)}, opts).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(g.Polygons) != 2 {
		t.Fatalf("polygons = %d, want 2", len(g.Polygons))
	}

	straight := g.Polygons[1]
	sb := (&geom.Group{Polygons: []geom.Polygon{straight}}).BoundingBox(nil)
	if !approx(sb.Height(), 1.0) {
		t.Errorf("straight after taper has height %g, want 1.0", sb.Height())
	}
	if !approx(sb.MinX, 2) || !approx(sb.MaxX, 7) {
		t.Errorf("straight spans [%g, %g], want [2, 7]", sb.MinX, sb.MaxX)
	}

	taper := g.Polygons[0]
	tb := (&geom.Group{Polygons: []geom.Polygon{taper}}).BoundingBox(nil)
	if !approx(tb.Height(), 1.0) || !approx(tb.MinX, 0) || !approx(tb.MaxX, 2) {
		t.Errorf("taper bbox = %+v", tb)
	}
}

func TestCurveAdvancesPosition(t *testing.T) {
	opts := DefaultOptions()
	opts.DefaultWidth = 0.3

	g, err := New([]Command{C(-2.5, 3), S(4)}, opts).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// The straight after the curve starts at (3, -2.5).
	straight := g.Polygons[1]
	sb := (&geom.Group{Polygons: []geom.Polygon{straight}}).BoundingBox(nil)
	if !approx(sb.MinX, 3) || !approx(sb.MaxX, 7) {
		t.Errorf("straight spans x [%g, %g], want [3, 7]", sb.MinX, sb.MaxX)
	}
	wantMidY := -2.5
	if !approx((sb.MinY+sb.MaxY)/2, wantMidY) {
		t.Errorf("straight centered at y = %g, want %g", (sb.MinY+sb.MaxY)/2, wantMidY)
	}
}

func TestCurveEndsFlat(t *testing.T) {
	opts := DefaultOptions()
	opts.DefaultWidth = 0.4
	opts.CurveResolution = 64

	g, err := New([]Command{C(1, 5)}, opts).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Zero slope at both ends: the band height at the endpoints equals the
	// width exactly (the edge offset is purely vertical there).
	p := g.Polygons[0]
	first, lastBot := p.Pts[0], p.Pts[len(p.Pts)/2-1]
	firstTop := p.Pts[len(p.Pts)-1]
	if !approx(first.X, firstTop.X) {
		t.Errorf("start edge not vertical: x %g vs %g", first.X, firstTop.X)
	}
	if !approx(firstTop.Y-first.Y, 0.4) {
		t.Errorf("start width = %g, want 0.4", firstTop.Y-first.Y)
	}
	if !approx(lastBot.X, 5) {
		t.Errorf("end x = %g, want 5", lastBot.X)
	}
}

func TestCenterReanchors(t *testing.T) {
	opts := DefaultOptions()

	// Emit a taper of length 1, then declare its end to be the origin.
	// The emitted geometry shifts to [-1, 0].
	g, err := New([]Command{T(1, 0.3), Center(0, 0), S(2)}, opts).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	tb := (&geom.Group{Polygons: []geom.Polygon{g.Polygons[0]}}).BoundingBox(nil)
	if !approx(tb.MinX, -1) || !approx(tb.MaxX, 0) {
		t.Errorf("taper spans [%g, %g], want [-1, 0]", tb.MinX, tb.MaxX)
	}
	sb := (&geom.Group{Polygons: []geom.Polygon{g.Polygons[1]}}).BoundingBox(nil)
	if !approx(sb.MinX, 0) || !approx(sb.MaxX, 2) {
		t.Errorf("straight spans [%g, %g], want [0, 2]", sb.MinX, sb.MaxX)
	}
}

func TestStateOnlySequenceEmitsNothing(t *testing.T) {
	opts := DefaultOptions()

	g, err := New([]Command{
		State("w", 2.5),
		Center(3, 4),
		State("mode", "deep"),
	}, opts).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !g.IsEmpty() {
		t.Errorf("state-only sequence emitted %d nodes", g.Len())
	}
}

func TestStateVariablesRecorded(t *testing.T) {
	s := New([]Command{State("w", 2.5), State("tag", "grating")}, DefaultOptions())
	if _, err := s.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if s.Vars["w"] != 2.5 {
		t.Errorf("Vars[w] = %v, want 2.5", s.Vars["w"])
	}
	if s.Vars["tag"] != "grating" {
		t.Errorf("Vars[tag] = %v, want grating", s.Vars["tag"])
	}
}

func TestStateCommandsAreTransparent(t *testing.T) {
	opts := DefaultOptions()
	opts.DefaultWidth = 0.3

	plain, err := New([]Command{T(1, 0.5), S(3)}, opts).Run()
	if err != nil {
		t.Fatal(err)
	}
	interleaved, err := New([]Command{
		State("a", 1),
		T(1, 0.5),
		State("b", 2),
		S(3),
		State("c", 3),
	}, opts).Run()
	if err != nil {
		t.Fatal(err)
	}

	pb, ib := plain.BoundingBox(nil), interleaved.BoundingBox(nil)
	if pb != ib {
		t.Errorf("state commands changed geometry: %+v vs %+v", pb, ib)
	}
	if len(plain.Polygons) != len(interleaved.Polygons) {
		t.Errorf("polygon counts differ: %d vs %d", len(plain.Polygons), len(interleaved.Polygons))
	}
}

func TestUnknownCommand(t *testing.T) {
	cmds := []Command{
		S(1),
		{Op: "SPIRAL", Args: []float64{3}},
		S(2),
	}
	g, err := New(cmds, DefaultOptions()).Run()
	if !errors.Is(err, errors.ErrCodeSeqUnknownCommand) {
		t.Fatalf("expected SEQ_UNKNOWN_COMMAND, got %v", err)
	}
	if !strings.Contains(err.Error(), "index 1") {
		t.Errorf("error should name the offending index: %v", err)
	}
	if !strings.Contains(err.Error(), "SPIRAL") {
		t.Errorf("error should name the offending tag: %v", err)
	}
	if g != nil {
		t.Error("no geometry may be returned on a command fault")
	}
}

func TestMalformedOperands(t *testing.T) {
	cmds := []Command{{Op: OpTaper, Args: []float64{1}}}
	_, err := New(cmds, DefaultOptions()).Run()
	if !errors.Is(err, errors.ErrCodeSeqBadOperands) {
		t.Fatalf("expected SEQ_BAD_OPERANDS, got %v", err)
	}
	if !strings.Contains(err.Error(), "index 0") {
		t.Errorf("error should name the offending index: %v", err)
	}
}

func TestCommandString(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{T(1, 0.3), "[T 1 0.3]"},
		{S(20), "[S 20]"},
		{C(-2.5, 3), "[C -2.5 3]"},
		{Center(0, 0), "[CENTER 0 0]"},
		{State("w", 2.5), "[STATE w 2.5]"},
	}
	for _, tt := range tests {
		if got := tt.cmd.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
