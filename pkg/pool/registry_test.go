package pool

import (
	"fmt"
	"sync"
	"testing"

	"github.com/lithoforge/maskforge/pkg/errors"
	"github.com/lithoforge/maskforge/pkg/geom"
)

func TestPutCellWriteOnce(t *testing.T) {
	r := NewRegistry()
	a := geom.MakeRect(0, 0, 1, 1, geom.AnchorSW, 1)
	b := geom.MakeRect(0, 0, 2, 2, geom.AnchorSW, 1)

	if err := r.PutCell("CELL_1", a); err != nil {
		t.Fatalf("first PutCell: %v", err)
	}

	// Same name, same geometry: no-op.
	if err := r.PutCell("CELL_1", a.Copy()); err != nil {
		t.Errorf("identical re-register should succeed: %v", err)
	}

	// Same name, different geometry: consistency violation, never overwrite.
	err := r.PutCell("CELL_1", b)
	if !errors.Is(err, errors.ErrCodeCacheConsistency) {
		t.Fatalf("expected CACHE_CONSISTENCY, got %v", err)
	}
	got, _ := r.Cell("CELL_1")
	if len(got.Polygons) != 1 || got.Polygons[0].Pts[1].X != 1 {
		t.Error("conflicting PutCell overwrote the layout pool entry")
	}
}

func TestPutCellValidatesName(t *testing.T) {
	r := NewRegistry()
	g := geom.NewGroup()
	if err := r.PutCell("bad name", g); err == nil {
		t.Error("PutCell should reject invalid cell names")
	}
	if err := r.PutCell("OK", nil); err == nil {
		t.Error("PutCell should reject nil geometry")
	}
}

func TestDevicePool(t *testing.T) {
	r := NewRegistry()

	if _, ok := r.Device("deadbeef"); ok {
		t.Error("empty pool should miss")
	}

	if err := r.PutDevice("deadbeef", "DCPL_1"); err != nil {
		t.Fatalf("PutDevice: %v", err)
	}
	cell, ok := r.Device("deadbeef")
	if !ok || cell != "DCPL_1" {
		t.Errorf("Device = %q, %v", cell, ok)
	}

	if err := r.PutDevice("deadbeef", "DCPL_1"); err != nil {
		t.Errorf("idempotent PutDevice failed: %v", err)
	}
	if err := r.PutDevice("deadbeef", "DCPL_2"); !errors.Is(err, errors.ErrCodeCacheConsistency) {
		t.Errorf("remap should fail with CACHE_CONSISTENCY, got %v", err)
	}
}

func TestLocalPool(t *testing.T) {
	r := NewRegistry()

	type state struct{ Ports []string }

	if err := r.PutLocal("h1", state{Ports: []string{"p1", "p2"}}); err != nil {
		t.Fatalf("PutLocal: %v", err)
	}
	got, ok := r.Local("h1")
	if !ok {
		t.Fatal("Local miss after put")
	}
	if s := got.(state); len(s.Ports) != 2 {
		t.Errorf("local state = %+v", s)
	}

	if err := r.PutLocal("h1", state{Ports: []string{"p9"}}); !errors.Is(err, errors.ErrCodeCacheConsistency) {
		t.Errorf("differing local state should fail, got %v", err)
	}
}

func TestNextCount(t *testing.T) {
	r := NewRegistry()
	if n := r.NextCount("DCPL"); n != 1 {
		t.Errorf("first count = %d, want 1", n)
	}
	if n := r.NextCount("DCPL"); n != 2 {
		t.Errorf("second count = %d, want 2", n)
	}
	if n := r.NextCount("CMARK"); n != 1 {
		t.Errorf("independent type count = %d, want 1", n)
	}
}

func TestNextCountConcurrent(t *testing.T) {
	r := NewRegistry()
	const workers = 16
	const perWorker = 50

	var wg sync.WaitGroup
	seen := make(chan int, workers*perWorker)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				seen <- r.NextCount("T")
			}
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[int]bool)
	for n := range seen {
		if unique[n] {
			t.Fatalf("counter value %d minted twice", n)
		}
		unique[n] = true
	}
	if len(unique) != workers*perWorker {
		t.Errorf("minted %d values, want %d", len(unique), workers*perWorker)
	}
}

func TestVerify(t *testing.T) {
	r := NewRegistry()
	g := geom.MakeRect(0, 0, 1, 1, geom.AnchorSW, 1)

	// Fully consistent entry.
	if err := r.PutCell("T_1", g); err != nil {
		t.Fatal(err)
	}
	if err := r.PutBoundingBox("T_1", g.BoundingBox(nil)); err != nil {
		t.Fatal(err)
	}
	if err := r.PutLocal("h", "state"); err != nil {
		t.Fatal(err)
	}
	if err := r.PutDevice("h", "T_1"); err != nil {
		t.Fatal(err)
	}
	if err := r.Verify(); err != nil {
		t.Errorf("consistent registry failed Verify: %v", err)
	}

	// Device entry pointing at a missing cell is corruption.
	if err := r.PutDevice("h2", "MISSING"); err != nil {
		t.Fatal(err)
	}
	if err := r.Verify(); !errors.Is(err, errors.ErrCodeCacheConsistency) {
		t.Errorf("expected CACHE_CONSISTENCY from Verify, got %v", err)
	}
}

func TestResetClearsEverything(t *testing.T) {
	r := NewRegistry()
	g := geom.NewGroup()
	g.AddPolygon(geom.Polygon{Layer: 1, Pts: []geom.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}})

	if err := r.PutCell("A_1", g); err != nil {
		t.Fatal(err)
	}
	if err := r.PutDevice("h", "A_1"); err != nil {
		t.Fatal(err)
	}
	r.NextCount("A")
	r.Reset()

	s := r.Stats()
	if s.Cells != 0 || s.Devices != 0 || s.Locals != 0 || s.BBoxes != 0 {
		t.Errorf("Reset left entries behind: %+v", s)
	}
	// Counters restart too, so cell names mint from _1 again in the fresh namespace.
	if n := r.NextCount("A"); n != 1 {
		t.Errorf("count after reset = %d, want 1", n)
	}
}

func TestCellNamesSorted(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"B_1", "A_2", "A_1"} {
		if err := r.PutCell(name, geom.NewGroup()); err != nil {
			t.Fatal(err)
		}
	}
	names := r.CellNames()
	want := []string{"A_1", "A_2", "B_1"}
	if fmt.Sprint(names) != fmt.Sprint(want) {
		t.Errorf("CellNames = %v, want %v", names, want)
	}
}
