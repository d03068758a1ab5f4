package gds

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/lithoforge/maskforge/pkg/errors"
	"github.com/lithoforge/maskforge/pkg/geom"
)

type record struct {
	tag  uint16
	data []byte
}

func parseStream(t *testing.T, data []byte) []record {
	t.Helper()
	var recs []record
	for len(data) > 0 {
		if len(data) < 4 {
			t.Fatalf("truncated record header, %d bytes left", len(data))
		}
		length := int(binary.BigEndian.Uint16(data[0:2]))
		tag := binary.BigEndian.Uint16(data[2:4])
		if length < 4 || length > len(data) {
			t.Fatalf("record %04x has bad length %d", tag, length)
		}
		recs = append(recs, record{tag: tag, data: data[4:length]})
		data = data[length:]
	}
	return recs
}

func findRecords(recs []record, tag uint16) []record {
	var out []record
	for _, r := range recs {
		if r.tag == tag {
			out = append(out, r)
		}
	}
	return out
}

func decodeReal8(b []byte) float64 {
	if len(b) != 8 {
		return math.NaN()
	}
	sign := 1.0
	if b[0]&0x80 != 0 {
		sign = -1
	}
	exp := int(b[0]&0x7f) - 64
	var mantissa uint64
	for _, c := range b[1:] {
		mantissa = mantissa<<8 | uint64(c)
	}
	return sign * float64(mantissa) / (1 << 56) * math.Pow(16, float64(exp))
}

type mapResolver map[string]*geom.Group

func (m mapResolver) Cell(name string) (*geom.Group, bool) {
	g, ok := m[name]
	return g, ok
}

func micronLibrary() Library {
	return Library{Name: "TESTLIB", UserUnit: 1e-6, DatabaseUnit: 1e-9}
}

func TestWriteLibraryScaffolding(t *testing.T) {
	r := mapResolver{"empty": geom.NewGroup()}
	var buf bytes.Buffer
	if err := Write(&buf, micronLibrary(), r, []string{"empty"}); err != nil {
		t.Fatal(err)
	}
	recs := parseStream(t, buf.Bytes())

	if recs[0].tag != recHeader {
		t.Errorf("first record = %04x, want HEADER", recs[0].tag)
	}
	if recs[len(recs)-1].tag != recEndLib {
		t.Errorf("last record = %04x, want ENDLIB", recs[len(recs)-1].tag)
	}

	names := findRecords(recs, recLibName)
	if len(names) != 1 || string(bytes.TrimRight(names[0].data, "\x00")) != "TESTLIB" {
		t.Errorf("LIBNAME records = %v", names)
	}

	units := findRecords(recs, recUnits)
	if len(units) != 1 || len(units[0].data) != 16 {
		t.Fatalf("UNITS record malformed: %v", units)
	}
	dbPerUser := decodeReal8(units[0].data[:8])
	dbMeters := decodeReal8(units[0].data[8:])
	if math.Abs(dbPerUser-1e-3) > 1e-12 {
		t.Errorf("db/user = %g, want 1e-3", dbPerUser)
	}
	if math.Abs(dbMeters-1e-9) > 1e-18 {
		t.Errorf("db unit = %g m, want 1e-9", dbMeters)
	}

	if n := len(findRecords(recs, recBgnStr)); n != 1 {
		t.Errorf("%d BGNSTR records, want 1", n)
	}
}

func TestWriteBoundary(t *testing.T) {
	g := geom.MakeRect(0, 0, 2, 1, geom.AnchorSW, 5)
	r := mapResolver{"rect": g}
	var buf bytes.Buffer
	if err := Write(&buf, micronLibrary(), r, []string{"rect"}); err != nil {
		t.Fatal(err)
	}
	recs := parseStream(t, buf.Bytes())

	layers := findRecords(recs, recLayer)
	if len(layers) != 1 || int16(binary.BigEndian.Uint16(layers[0].data)) != 5 {
		t.Errorf("LAYER records = %v", layers)
	}

	xys := findRecords(recs, recXY)
	if len(xys) != 1 {
		t.Fatalf("%d XY records, want 1", len(xys))
	}
	coords := xys[0].data
	// Four corners plus the closing point, two int32 each.
	if len(coords) != 5*8 {
		t.Fatalf("XY data is %d bytes, want 40", len(coords))
	}
	getPt := func(i int) (int32, int32) {
		x := int32(binary.BigEndian.Uint32(coords[i*8:]))
		y := int32(binary.BigEndian.Uint32(coords[i*8+4:]))
		return x, y
	}
	// Micron coordinates scale by 1000 onto the nanometer grid.
	if x, y := getPt(0); x != 0 || y != 0 {
		t.Errorf("first point = (%d, %d), want (0, 0)", x, y)
	}
	if x, y := getPt(2); x != 2000 || y != 1000 {
		t.Errorf("third point = (%d, %d), want (2000, 1000)", x, y)
	}
	fx, fy := getPt(0)
	if lx, ly := getPt(4); lx != fx || ly != fy {
		t.Error("boundary ring not closed")
	}
}

func TestWriteSRef(t *testing.T) {
	child := geom.MakeRect(0, 0, 1, 1, geom.AnchorSW, 1)
	parent := geom.NewGroup()
	parent.Refs = append(parent.Refs, geom.Ref{
		Cell: "child", X: 10, Y: -5, Angle: 90, Reflect: true, Mag: 1,
	})
	r := mapResolver{"child": child, "parent": parent}
	var buf bytes.Buffer
	if err := Write(&buf, micronLibrary(), r, []string{"child", "parent"}); err != nil {
		t.Fatal(err)
	}
	recs := parseStream(t, buf.Bytes())

	if n := len(findRecords(recs, recSRef)); n != 1 {
		t.Fatalf("%d SREF records, want 1", n)
	}
	snames := findRecords(recs, recSName)
	if len(snames) != 1 || string(bytes.TrimRight(snames[0].data, "\x00")) != "child" {
		t.Errorf("SNAME = %v", snames)
	}
	strans := findRecords(recs, recStrans)
	if len(strans) != 1 || binary.BigEndian.Uint16(strans[0].data)&0x8000 == 0 {
		t.Error("STRANS reflection bit not set")
	}
	angles := findRecords(recs, recAngle)
	if len(angles) != 1 || math.Abs(decodeReal8(angles[0].data)-90) > 1e-9 {
		t.Errorf("ANGLE = %v", angles)
	}
	if n := len(findRecords(recs, recMag)); n != 0 {
		t.Errorf("%d MAG records for unit magnification, want 0", n)
	}
}

func TestWriteARef(t *testing.T) {
	child := geom.MakeRect(0, 0, 1, 1, geom.AnchorSW, 1)
	parent := geom.NewGroup()
	parent.Refs = append(parent.Refs, geom.Ref{
		Cell: "child", Columns: 4, Rows: 2, PitchX: 10, PitchY: 20,
	})
	r := mapResolver{"child": child, "parent": parent}
	var buf bytes.Buffer
	if err := Write(&buf, micronLibrary(), r, []string{"child", "parent"}); err != nil {
		t.Fatal(err)
	}
	recs := parseStream(t, buf.Bytes())

	if n := len(findRecords(recs, recARef)); n != 1 {
		t.Fatalf("%d AREF records, want 1", n)
	}
	colrows := findRecords(recs, recColRow)
	if len(colrows) != 1 {
		t.Fatal("COLROW missing")
	}
	cols := binary.BigEndian.Uint16(colrows[0].data[0:2])
	rows := binary.BigEndian.Uint16(colrows[0].data[2:4])
	if cols != 4 || rows != 2 {
		t.Errorf("COLROW = %dx%d, want 4x2", cols, rows)
	}

	// AREF XY carries origin, column edge and row edge.
	var arefXY []byte
	for i, r := range recs {
		if r.tag == recARef {
			for _, rr := range recs[i:] {
				if rr.tag == recXY {
					arefXY = rr.data
					break
				}
			}
		}
	}
	if len(arefXY) != 3*8 {
		t.Fatalf("AREF XY is %d bytes, want 24", len(arefXY))
	}
	colX := int32(binary.BigEndian.Uint32(arefXY[8:]))
	if colX != 40000 {
		t.Errorf("column edge x = %d, want 40000", colX)
	}
}

func TestWriteUnknownCell(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, micronLibrary(), mapResolver{}, []string{"ghost"})
	if err == nil {
		t.Fatal("unknown cell accepted")
	}
	if code := errors.GetCode(err); code != errors.ErrCodeNotFound {
		t.Errorf("error code = %s, want %s", code, errors.ErrCodeNotFound)
	}
}

func TestWriteRejectsBadUnits(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, Library{UserUnit: 0, DatabaseUnit: 1e-9}, mapResolver{}, nil)
	if err == nil {
		t.Fatal("zero user unit accepted")
	}
}

func TestReal8RoundTrip(t *testing.T) {
	values := []float64{0, 1, -1, 0.001, 1e-9, 90, 270, 0.0625, 1234.5}
	for _, v := range values {
		got := decodeReal8(real8(v))
		tol := math.Abs(v) * 1e-12
		if tol == 0 {
			tol = 1e-15
		}
		if math.Abs(got-v) > tol {
			t.Errorf("real8 round trip of %g = %g", v, got)
		}
	}
}
