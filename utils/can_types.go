package utils

import "sort"

// Frame directions as they appear in the map's direction column.
const (
	DirectionTX   = "tx"
	DirectionRX   = "rx"
	DirectionBoth = "both"
)

type SignalDef struct {
	Name       string
	StartBit   int
	BitLength  int
	Signed     bool
	Factor     float64
	Offset     float64
	Min        float64
	Max        float64
	Default    float64
	Unit       string
	Comment    string
	Endianness string // only "little" supported
}

type FrameDef struct {
	ID        uint32
	Name      string
	DLC       int
	Direction string
	CycleMS   int
	Signals   []SignalDef
}

// Transmits reports whether the frame may be sent by this node.
func (fd *FrameDef) Transmits() bool {
	return fd.Direction == DirectionTX || fd.Direction == DirectionBoth
}

// Receives reports whether the frame is expected from the vehicle.
func (fd *FrameDef) Receives() bool {
	return fd.Direction == DirectionRX || fd.Direction == DirectionBoth
}

// Signal returns the named signal definition.
func (fd *FrameDef) Signal(name string) (SignalDef, bool) {
	for _, s := range fd.Signals {
		if s.Name == name {
			return s, true
		}
	}
	return SignalDef{}, false
}

type CANMap struct {
	ByID   map[uint32]*FrameDef
	ByName map[string]*FrameDef
}

func (m *CANMap) FrameNames() []string {
	out := make([]string, 0, len(m.ByName))
	for k := range m.ByName {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Require checks that every named frame is present and carries every listed signal.
func (m *CANMap) Require(frames map[string][]string) error {
	for name, signals := range frames {
		fd, err := m.FrameByName(name)
		if err != nil {
			return err
		}
		for _, s := range signals {
			if _, ok := fd.Signal(s); !ok {
				return errMissingSignal(fd.Name, s)
			}
		}
	}
	return nil
}
