// Package gds writes GDSII stream format, the interchange format mask
// foundries consume. Only the record types needed for polygon layouts with
// cell references are emitted: boundaries, SREF/AREF placements and the
// library scaffolding around them.
package gds

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"time"

	"github.com/lithoforge/maskforge/pkg/errors"
	"github.com/lithoforge/maskforge/pkg/geom"
)

// GDSII record tags: record type in the high byte, data type in the low.
const (
	recHeader   = 0x0002
	recBgnLib   = 0x0102
	recLibName  = 0x0206
	recUnits    = 0x0305
	recEndLib   = 0x0400
	recBgnStr   = 0x0502
	recStrName  = 0x0606
	recEndStr   = 0x0700
	recBoundary = 0x0800
	recSRef     = 0x0A00
	recARef     = 0x0B00
	recLayer    = 0x0D02
	recDatatype = 0x0E02
	recXY       = 0x1003
	recEndEl    = 0x1100
	recSName    = 0x1206
	recColRow   = 0x1302
	recStrans   = 0x1A01
	recMag      = 0x1B05
	recAngle    = 0x1C05
)

const gdsVersion = 600

// maxXYPoints keeps each XY record below the 16-bit record length limit.
const maxXYPoints = 8100

// Library describes the stream library being written. Units are in meters;
// all geometry coordinates are interpreted in user units and snapped to the
// database grid.
type Library struct {
	Name         string
	UserUnit     float64
	DatabaseUnit float64
}

// Write streams the named cells, resolving them through r. Cells referenced
// by the listed cells must also be listed; the writer does not chase
// references.
func Write(w io.Writer, lib Library, r geom.Resolver, cells []string) error {
	if lib.UserUnit <= 0 || lib.DatabaseUnit <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "library units must be positive")
	}
	if lib.Name == "" {
		lib.Name = "MASKFORGE"
	}

	sw := &streamWriter{
		w:     bufio.NewWriter(w),
		scale: lib.UserUnit / lib.DatabaseUnit,
	}

	now := time.Now()
	sw.record(recHeader, int16Data(gdsVersion))
	sw.record(recBgnLib, timestampData(now))
	sw.record(recLibName, stringData(lib.Name))
	sw.record(recUnits, append(real8(lib.DatabaseUnit/lib.UserUnit), real8(lib.DatabaseUnit)...))

	for _, name := range cells {
		g, ok := r.Cell(name)
		if !ok {
			return errors.New(errors.ErrCodeNotFound, "cell %q not in layout pool", name)
		}
		if err := sw.cell(name, g, now); err != nil {
			return err
		}
	}

	sw.record(recEndLib, nil)
	if sw.err != nil {
		return errors.Wrap(errors.ErrCodeInternal, sw.err, "write stream")
	}
	return sw.w.Flush()
}

type streamWriter struct {
	w     *bufio.Writer
	scale float64
	err   error
}

func (sw *streamWriter) cell(name string, g *geom.Group, now time.Time) error {
	sw.record(recBgnStr, timestampData(now))
	sw.record(recStrName, stringData(name))

	for _, p := range g.Polygons {
		if len(p.Pts) < 3 {
			return errors.New(errors.ErrCodeInvalidInput,
				"cell %q has a boundary with %d points", name, len(p.Pts))
		}
		if len(p.Pts)+1 > maxXYPoints {
			return errors.New(errors.ErrCodeInvalidInput,
				"cell %q has a boundary with %d points, exceeding the record limit", name, len(p.Pts))
		}
		sw.record(recBoundary, nil)
		sw.record(recLayer, int16Data(int16(p.Layer)))
		sw.record(recDatatype, int16Data(0))
		sw.record(recXY, sw.xyData(p.Pts, true))
		sw.record(recEndEl, nil)
	}

	for _, ref := range g.Refs {
		if err := sw.reference(ref); err != nil {
			return err
		}
	}

	sw.record(recEndStr, nil)
	return nil
}

func (sw *streamWriter) reference(ref geom.Ref) error {
	array := ref.Columns > 1 || ref.Rows > 1
	if array {
		sw.record(recARef, nil)
	} else {
		sw.record(recSRef, nil)
	}
	sw.record(recSName, stringData(ref.Cell))

	// STRANS/MAG/ANGLE only when the placement is transformed. Bit 15 of
	// STRANS is reflection about the x axis before rotation.
	if ref.Reflect || ref.Angle != 0 || (ref.Mag != 0 && ref.Mag != 1) {
		var flags uint16
		if ref.Reflect {
			flags |= 0x8000
		}
		sw.record(recStrans, []byte{byte(flags >> 8), byte(flags)})
		if ref.Mag != 0 && ref.Mag != 1 {
			sw.record(recMag, real8(ref.Mag))
		}
		if ref.Angle != 0 {
			sw.record(recAngle, real8(ref.Angle))
		}
	}

	if array {
		cols, rows := ref.Columns, ref.Rows
		if cols < 1 {
			cols = 1
		}
		if rows < 1 {
			rows = 1
		}
		colrow := make([]byte, 4)
		binary.BigEndian.PutUint16(colrow[0:], uint16(cols))
		binary.BigEndian.PutUint16(colrow[2:], uint16(rows))
		sw.record(recColRow, colrow)
		// Origin, column edge, row edge.
		pts := []geom.Point{
			{X: ref.X, Y: ref.Y},
			{X: ref.X + float64(cols)*ref.PitchX, Y: ref.Y},
			{X: ref.X, Y: ref.Y + float64(rows)*ref.PitchY},
		}
		sw.record(recXY, sw.xyData(pts, false))
	} else {
		sw.record(recXY, sw.xyData([]geom.Point{{X: ref.X, Y: ref.Y}}, false))
	}

	sw.record(recEndEl, nil)
	return nil
}

// record writes one length-prefixed record. Errors are sticky.
func (sw *streamWriter) record(tag uint16, data []byte) {
	if sw.err != nil {
		return
	}
	var hdr [4]byte
	binary.BigEndian.PutUint16(hdr[0:], uint16(4+len(data)))
	binary.BigEndian.PutUint16(hdr[2:], tag)
	if _, err := sw.w.Write(hdr[:]); err != nil {
		sw.err = err
		return
	}
	if _, err := sw.w.Write(data); err != nil {
		sw.err = err
	}
}

// xyData converts points to database-unit int32 pairs, closing the ring
// when asked.
func (sw *streamWriter) xyData(pts []geom.Point, closeRing bool) []byte {
	n := len(pts)
	if closeRing {
		n++
	}
	data := make([]byte, 0, n*8)
	put := func(p geom.Point) []byte {
		var buf [8]byte
		binary.BigEndian.PutUint32(buf[0:], uint32(int32(math.Round(p.X*sw.scale))))
		binary.BigEndian.PutUint32(buf[4:], uint32(int32(math.Round(p.Y*sw.scale))))
		return buf[:]
	}
	for _, p := range pts {
		data = append(data, put(p)...)
	}
	if closeRing {
		data = append(data, put(pts[0])...)
	}
	return data
}

func int16Data(v int16) []byte {
	return []byte{byte(uint16(v) >> 8), byte(uint16(v))}
}

// stringData pads to even length with a trailing NUL, per the stream spec.
func stringData(s string) []byte {
	b := []byte(s)
	if len(b)%2 == 1 {
		b = append(b, 0)
	}
	return b
}

// timestampData encodes modification and access times as twelve int16
// fields.
func timestampData(t time.Time) []byte {
	data := make([]byte, 0, 24)
	for i := 0; i < 2; i++ {
		for _, v := range []int{t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second()} {
			data = append(data, int16Data(int16(v))...)
		}
	}
	return data
}

// real8 encodes an 8-byte excess-64 base-16 real, the GDSII float format.
func real8(f float64) []byte {
	out := make([]byte, 8)
	if f == 0 {
		return out
	}
	sign := byte(0)
	if f < 0 {
		sign = 0x80
		f = -f
	}
	exp := 64
	for f >= 1 {
		f /= 16
		exp++
	}
	for f < 1.0/16 {
		f *= 16
		exp--
	}
	mantissa := uint64(f * (1 << 56))
	out[0] = sign | byte(exp)
	for i := 7; i >= 1; i-- {
		out[i] = byte(mantissa)
		mantissa >>= 8
	}
	return out
}
