package panscale

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/esimov/panscale/viewport"
)

var stateMagic = [4]byte{'P', 'S', 'V', '1'}

// encodeState appends the viewport r to the host state super.
func encodeState(super []byte, r viewport.Rect) []byte {
	buf := make([]byte, 0, len(stateMagic)+4+len(super)+4*8)
	buf = append(buf, stateMagic[:]...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(super)))
	buf = append(buf, super...)
	for _, f := range [4]float64{r.Left, r.Top, r.Right, r.Bottom} {
		buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(f))
	}
	return buf
}

// decodeState splits data into the host state and the saved viewport. ok is
// false when data is not a viewport record.
func decodeState(data []byte) (super []byte, r viewport.Rect, ok bool) {
	header := len(stateMagic) + 4
	if len(data) < header || !bytes.Equal(data[:len(stateMagic)], stateMagic[:]) {
		return data, r, false
	}
	n := int(binary.BigEndian.Uint32(data[len(stateMagic):header]))
	if n < 0 || len(data) != header+n+4*8 {
		return data, r, false
	}
	super = data[header : header+n]
	rest := data[header+n:]
	var f [4]float64
	for i := range f {
		f[i] = math.Float64frombits(binary.BigEndian.Uint64(rest[i*8:]))
	}
	return super, viewport.Rect{Left: f[0], Top: f[1], Right: f[2], Bottom: f[3]}, true
}

// SaveState returns super followed by the current viewport, bit exact.
func (v *View) SaveState(super []byte) []byte {
	return encodeState(super, v.model.Rect())
}

// RestoreState restores a viewport saved by SaveState and returns the host
// state stored with it. Data that is not a viewport record is returned as is.
func (v *View) RestoreState(data []byte) ([]byte, error) {
	super, r, ok := decodeState(data)
	if !ok {
		return data, nil
	}
	v.interp.Cancel()
	if err := v.model.Restore(r); err != nil {
		return super, fmt.Errorf("could not restore viewport %v: %w", r, err)
	}
	if v.pictureReady {
		v.updateRatio()
	}
	return super, nil
}
