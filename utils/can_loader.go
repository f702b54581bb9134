package utils

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

//go:embed mqb_can_map.csv
var defaultMQBMap []byte

var requiredColumns = []string{
	"direction", "frame_id", "frame_name", "cycle_ms", "dlc",
	"signal_name", "start_bit", "bit_length", "endianness",
	"signed", "factor", "offset", "min", "max", "default", "unit", "comment",
}

// LoadCANMap reads a CAN map CSV from disk.
func LoadCANMap(csvPath string) (*CANMap, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return nil, errors.Wrap(err, "open can map")
	}
	defer f.Close()

	return ParseCANMap(f)
}

// LoadDefaultCANMap returns the MQB map compiled into the binary.
func LoadDefaultCANMap() (*CANMap, error) {
	return ParseCANMap(bytes.NewReader(defaultMQBMap))
}

// ParseCANMap builds a CANMap from CSV rows, one row per signal.
func ParseCANMap(src io.Reader) (*CANMap, error) {
	r := csv.NewReader(src)
	r.TrimLeadingSpace = true
	r.Comment = '#'

	header, err := r.Read()
	if err != nil {
		return nil, errors.Wrap(err, "read can map header")
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}

	for _, k := range requiredColumns {
		if _, ok := idx[k]; !ok {
			return nil, errors.Errorf("can map missing required column: %q", k)
		}
	}

	m := &CANMap{
		ByID:   map[uint32]*FrameDef{},
		ByName: map[string]*FrameDef{},
	}

	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		frameID, err := parseHexOrDecUint32(rec[idx["frame_id"]])
		if err != nil {
			return nil, errors.Wrapf(err, "invalid frame_id %q", rec[idx["frame_id"]])
		}

		frameName := strings.TrimSpace(rec[idx["frame_name"]])
		direction := strings.ToLower(strings.TrimSpace(rec[idx["direction"]]))
		switch direction {
		case DirectionTX, DirectionRX, DirectionBoth:
		default:
			return nil, errors.Errorf("frame %s: unknown direction %q", frameName, direction)
		}

		signalName := strings.TrimSpace(rec[idx["signal_name"]])
		var cellErr error
		intCell := func(col string) int {
			v, err := parseIntCell(rec[idx[col]])
			if err != nil && cellErr == nil {
				cellErr = errors.Wrapf(err, "frame %s signal %s: %s", frameName, signalName, col)
			}
			return v
		}
		floatCell := func(col string) float64 {
			v, err := parseFloatCell(rec[idx[col]])
			if err != nil && cellErr == nil {
				cellErr = errors.Wrapf(err, "frame %s signal %s: %s", frameName, signalName, col)
			}
			return v
		}

		cycleMS := intCell("cycle_ms")
		dlc := intCell("dlc")

		sig := SignalDef{
			Name:       signalName,
			StartBit:   intCell("start_bit"),
			BitLength:  intCell("bit_length"),
			Endianness: strings.TrimSpace(rec[idx["endianness"]]),
			Signed:     mustBool(rec[idx["signed"]]),
			Factor:     floatCell("factor"),
			Offset:     floatCell("offset"),
			Min:        floatCell("min"),
			Max:        floatCell("max"),
			Default:    floatCell("default"),
			Unit:       strings.TrimSpace(rec[idx["unit"]]),
			Comment:    strings.TrimSpace(rec[idx["comment"]]),
		}
		if cellErr != nil {
			return nil, cellErr
		}

		if sig.Endianness != "" && sig.Endianness != "little" {
			return nil, errors.Errorf("frame %s signal %s: unsupported endianness %q (only little supported)",
				frameName, sig.Name, sig.Endianness)
		}
		if sig.BitLength <= 0 || sig.BitLength > 64 {
			return nil, errors.Errorf("frame %s signal %s: invalid bit_length %d", frameName, sig.Name, sig.BitLength)
		}
		if sig.Factor == 0 {
			return nil, errors.Errorf("frame %s signal %s: factor must be non-zero", frameName, sig.Name)
		}
		if dlc <= 0 || dlc > 8 {
			return nil, errors.Errorf("frame %s (0x%X): invalid dlc %d", frameName, frameID, dlc)
		}
		if sig.StartBit < 0 || sig.StartBit+sig.BitLength > dlc*8 {
			return nil, errors.Errorf("frame %s signal %s: bits %d..%d exceed dlc %d",
				frameName, sig.Name, sig.StartBit, sig.StartBit+sig.BitLength-1, dlc)
		}

		fd, ok := m.ByID[frameID]
		if !ok {
			fd = &FrameDef{
				ID:        frameID,
				Name:      frameName,
				DLC:       dlc,
				Direction: direction,
				CycleMS:   cycleMS,
				Signals:   []SignalDef{},
			}
			m.ByID[frameID] = fd
			m.ByName[frameName] = fd
		}

		if fd.DLC != dlc {
			return nil, errors.Errorf("frame %s (0x%X) has inconsistent DLC (%d vs %d)", frameName, frameID, fd.DLC, dlc)
		}
		if fd.Name != frameName {
			return nil, errors.Errorf("frame id 0x%X used by both %s and %s", frameID, fd.Name, frameName)
		}

		fd.Signals = append(fd.Signals, sig)
	}

	for _, fd := range m.ByID {
		sort.Slice(fd.Signals, func(i, j int) bool { return fd.Signals[i].StartBit < fd.Signals[j].StartBit })
		for i := 1; i < len(fd.Signals); i++ {
			prev, cur := fd.Signals[i-1], fd.Signals[i]
			if prev.StartBit+prev.BitLength > cur.StartBit {
				return nil, errors.Errorf("frame %s: signals %s and %s overlap", fd.Name, prev.Name, cur.Name)
			}
		}
	}

	return m, nil
}

func (m *CANMap) FrameByName(name string) (*FrameDef, error) {
	fd, ok := m.ByName[name]
	if !ok {
		return nil, errors.Errorf("unknown frame %q (available: %v)", name, m.FrameNames())
	}
	return fd, nil
}

func (m *CANMap) FrameByID(id uint32) (*FrameDef, error) {
	fd, ok := m.ByID[id]
	if !ok {
		return nil, errors.Errorf("unknown frame id 0x%X", id)
	}
	return fd, nil
}

func errMissingSignal(frame, signal string) error {
	return errors.Errorf("frame %s has no signal %q", frame, signal)
}

func parseHexOrDecUint32(s string) (uint32, error) {
	ss := strings.TrimSpace(s)
	base := 10
	if strings.HasPrefix(ss, "0x") || strings.HasPrefix(ss, "0X") {
		base = 16
		ss = ss[2:]
	}
	u, err := strconv.ParseUint(ss, base, 32)
	if err != nil {
		return 0, err
	}
	return uint32(u), nil
}

// parseIntCell reads a numeric cell; an empty cell is zero.
func parseIntCell(s string) (int, error) {
	ss := strings.TrimSpace(s)
	if ss == "" {
		return 0, nil
	}
	return strconv.Atoi(ss)
}

func parseFloatCell(s string) (float64, error) {
	ss := strings.TrimSpace(s)
	if ss == "" {
		return 0, nil
	}
	return strconv.ParseFloat(ss, 64)
}

func mustBool(s string) bool {
	ss := strings.TrimSpace(strings.ToLower(s))
	return ss == "true" || ss == "1" || ss == "yes"
}
