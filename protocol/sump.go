package protocol

import (
	"encoding/binary"

	"gosump/capture"
	"gosump/core"
)

// Flags is the value of the flags register
type Flags uint32

const (
	FlagDemux          Flags = 1 << 0
	FlagNoiseFilter    Flags = 1 << 1
	FlagDisableGroup1  Flags = 1 << 2
	FlagDisableGroup2  Flags = 1 << 3
	FlagDisableGroup3  Flags = 1 << 4
	FlagDisableGroup4  Flags = 1 << 5
	FlagExternalClock  Flags = 1 << 6
	FlagInvertExtClock Flags = 1 << 7
	FlagRLE            Flags = 1 << 8
)

// Has reports whether every bit of b is set
func (f Flags) Has(b Flags) bool {
	return f&b == b
}

// GroupEnabled reports whether channel group g (1-4) is transmitted
func (f Flags) GroupEnabled(g int) bool {
	if g < 1 || g > 4 {
		return false
	}
	return f&(FlagDisableGroup1<<(g-1)) == 0
}

// GroupMask returns the sample bits covered by the enabled groups 1 and 2
func (f Flags) GroupMask() uint16 {
	var mask uint16
	if f.GroupEnabled(1) {
		mask |= 0x00ff
	}
	if f.GroupEnabled(2) {
		mask |= 0xff00
	}
	return mask
}

// Command is what one Read produced
type Command uint8

const (
	CommandNone Command = iota
	CommandReset
	CommandRun
	CommandID
	CommandMetadata
	CommandRegister
	CommandUnknown
)

// Command opcodes
const (
	opReset       = 0x00
	opRun         = 0x01
	opID          = 0x02
	opMetadata    = 0x04
	opDivisor     = 0x80
	opLegacySize  = 0x81
	opFlags       = 0x82
	opSampleCount = 0x83
	opPreTrigger  = 0x84
)

// Metadata tags
const (
	tagEnd             = 0x00
	tagDeviceName      = 0x01
	tagVersion         = 0x02
	tagSampleMemory    = 0x21
	tagSampleRate      = 0x23
	tagProbes          = 0x40
	tagProtocolVersion = 0x41
)

// Interpreter parses host commands one at a time and keeps the protocol
// registers. It is driven from the main sequence only.
type Interpreter struct {
	port Port
	boot core.BootConfig

	stages  [StageCount]Stage
	divisor uint32
	flags   Flags

	cfg     capture.Config
	dropped int
}

// NewInterpreter creates an interpreter talking over port
func NewInterpreter(port Port, boot core.BootConfig) *Interpreter {
	return &Interpreter{
		port: port,
		boot: boot,
		cfg: capture.Config{
			Channels: boot.Channels,
			Rate:     ClockRate,
		},
	}
}

// Config returns the capture configuration built by the last run command
func (p *Interpreter) Config() capture.Config {
	return p.cfg
}

// Flags returns the flags register
func (p *Interpreter) Flags() Flags {
	return p.flags
}

// Stage returns stage register set i
func (p *Interpreter) Stage(i int) Stage {
	return p.stages[i]
}

// Dropped returns how many triggers the last run command had to drop
func (p *Interpreter) Dropped() int {
	return p.dropped
}

// Reset clears the stage registers, the divisor and the flags. The
// sample counts and rate keep their last values.
func (p *Interpreter) Reset() {
	p.stages = [StageCount]Stage{}
	p.divisor = 0
	p.flags = 0
}

// Read handles at most one pending command byte without waiting for one.
// Register payloads are read with a bounded wait per byte.
func (p *Interpreter) Read() Command {
	c, ok := p.port.TryReadByte()
	if !ok {
		return CommandNone
	}

	switch c {
	case opReset:
		core.DebugBlock("Reset (" + core.Hex(uint32(c)) + ")")
		return CommandReset

	case opRun:
		core.DebugBlock("Run (" + core.Hex(uint32(c)) + ")...")
		p.prepareCapture()
		return CommandRun

	case opID:
		p.reply("ID", []byte(DeviceID))
		core.DebugBlock("Send ID (" + core.Hex(uint32(c)) + ")")
		return CommandID

	case opMetadata:
		p.reply("metadata", p.metadata())
		if core.IsDebugEnabled() {
			core.DebugBlock("Send metadata (" + core.Hex(uint32(c)) + "):" +
				" Name: " + DeviceName +
				" Version: " + DeviceVersion +
				" Max samples: " + core.Utoa(MaxTotalSamples) +
				" Max rate: " + core.Utoa(MaxSampleRate) +
				" Probes: " + core.Utoa(p.cfg.Channels) +
				" Protocol: " + core.Itoa(ProtocolVersion))
		}
		return CommandMetadata

	case opDivisor:
		p.divisor = p.readUint32()
		core.DebugBlock("Read divisor (" + core.Hex(uint32(c)) + "): " + core.Utoa(p.divisor))
		return CommandRegister

	case opLegacySize:
		v := p.readUint32()
		p.cfg.TotalSamples = uint32(uint16(v))*4 + 4
		p.cfg.PreTriggerSamples = p.cfg.TotalSamples - ((v>>16)*4 + 4)
		p.logSizes(c)
		return CommandRegister

	case opFlags:
		p.flags = Flags(p.readUint32())
		p.cfg.Rate = RateFor(p.divisor, p.flags)
		p.logFlags(c)
		return CommandRegister

	case opSampleCount:
		p.cfg.TotalSamples = p.readUint32()
		core.DebugBlock("Read samples (" + core.Hex(uint32(c)) + "): " + core.Utoa(p.cfg.TotalSamples))
		return CommandRegister

	case opPreTrigger:
		v := p.readUint32()
		p.cfg.PreTriggerSamples = p.cfg.TotalSamples - (uint32(uint16(v))*4 + 4)
		core.DebugBlock("Read pre trigger samples (" + core.Hex(uint32(c)) + "): " + core.Utoa(p.cfg.PreTriggerSamples))
		return CommandRegister
	}

	if stage, reg, ok := stageRegister(c); ok {
		v := p.readUint32()
		s := &p.stages[stage]
		name := ""
		switch reg {
		case 0:
			s.Mask = v
			name = "mask"
		case 1:
			s.Values = v
			name = "values"
		case 2:
			s.Config = v
			name = "configuration"
		}
		core.DebugBlock("Read trigger stage " + core.Itoa(stage) + " " + name +
			" (" + core.Hex(uint32(c)) + "): " + core.Hex(v))
		return CommandRegister
	}

	core.DebugBlock("Unknown command: " + core.Hex(uint32(c)))
	return CommandUnknown
}

func (p *Interpreter) reply(what string, b []byte) {
	if _, err := p.port.Write(b); err != nil {
		core.Debug("Send " + what + " failed: " + err.Error())
	}
}

// stageRegister decodes 0xC0-0xCE: bits 2-3 select the stage and bits
// 0-1 the register (mask, values, configuration)
func stageRegister(c byte) (stage int, reg int, ok bool) {
	if c&0xf0 != 0xc0 || c&0x03 == 0x03 {
		return 0, 0, false
	}
	return int(c>>2) & 0x03, int(c & 0x03), true
}

// RateFor derives the sample rate from the divisor register and the
// demultiplex flag
func RateFor(divisor uint32, flags Flags) uint32 {
	if flags.Has(FlagDemux) {
		return uint32(2 * uint64(ClockRate) / (uint64(divisor) + 1))
	}
	return uint32(uint64(ClockRate) / (uint64(divisor) + 1))
}

func (p *Interpreter) prepareCapture() {
	p.cfg.Channels = p.boot.Channels
	p.cfg.Triggers, p.dropped = TranslateStages(p.stages, p.boot.Channels, p.boot.TriggerEdge)
}

// readUint32 reads a little-endian register payload. A byte that does not
// arrive in time reads as zero.
func (p *Interpreter) readUint32() uint32 {
	var v uint32
	for i := 0; i < 4; i++ {
		b, _ := p.port.ReadByteTimeout(ByteTimeout)
		v |= uint32(b) << (8 * i)
	}
	return v
}

func (p *Interpreter) metadata() []byte {
	buf := make([]byte, 0, 40)
	buf = append(buf, tagDeviceName)
	buf = append(buf, DeviceName...)
	buf = append(buf, 0)
	buf = append(buf, tagVersion)
	buf = append(buf, DeviceVersion...)
	buf = append(buf, 0)
	buf = append(buf, tagSampleMemory)
	buf = binary.LittleEndian.AppendUint32(buf, MaxTotalSamples)
	buf = append(buf, tagSampleRate)
	buf = binary.LittleEndian.AppendUint32(buf, MaxSampleRate)
	buf = append(buf, tagProbes, byte(p.cfg.Channels))
	buf = append(buf, tagProtocolVersion, ProtocolVersion)
	buf = append(buf, tagEnd)
	return buf
}

func (p *Interpreter) logSizes(c byte) {
	core.DebugBlock("Read samples (" + core.Hex(uint32(c)) + "): " + core.Utoa(p.cfg.TotalSamples))
	core.DebugBlock("Read pre trigger samples (" + core.Hex(uint32(c)) + "): " + core.Utoa(p.cfg.PreTriggerSamples))
}

func (p *Interpreter) logFlags(c byte) {
	if !core.IsDebugEnabled() {
		return
	}
	f := p.flags
	core.DebugBlock("Read flags (" + core.Hex(uint32(c)) + "): " + core.Hex(uint32(f)) +
		" Demux: " + core.EnabledString(f.Has(FlagDemux)) +
		" -> Rate: " + core.Utoa(p.cfg.Rate) +
		" RLE: " + core.EnabledString(f.Has(FlagRLE)) +
		" Channel group 1: " + core.EnabledString(f.GroupEnabled(1)) +
		" Channel group 2: " + core.EnabledString(f.GroupEnabled(2)) +
		" Channel group 3: " + core.EnabledString(f.GroupEnabled(3)) +
		" Channel group 4: " + core.EnabledString(f.GroupEnabled(4)))
}
