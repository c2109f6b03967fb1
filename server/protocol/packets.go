package protocol

import (
	"io"

	jerrors "github.com/juju/errors"

	"github.com/zhukovaskychina/xmysql-proto/server/common"
	"github.com/zhukovaskychina/xmysql-proto/server/sqltypes"
	"github.com/zhukovaskychina/xmysql-proto/util"
)

// Packets frames logical packets over a byte stream: a 3-byte little-endian
// length plus a 1-byte sequence id per chunk. It owns the stream exclusively
// and carries the per-cycle sequence counter together with the capability
// and status bits that shape response packets.
type Packets struct {
	sequenceID  uint8
	capability  uint32
	statusFlags uint16
	stream      io.ReadWriter
}

func NewPackets(stream io.ReadWriter) *Packets {
	return &Packets{stream: stream}
}

func (p *Packets) SetCapability(capability uint32) { p.capability = capability }

func (p *Packets) Capability() uint32 { return p.capability }

func (p *Packets) SetStatusFlags(flags uint16) { p.statusFlags = flags }

func (p *Packets) StatusFlags() uint16 { return p.statusFlags }

// ResetSequence starts a new command cycle.
func (p *Packets) ResetSequence() { p.sequenceID = 0 }

func (p *Packets) SequenceID() uint8 { return p.sequenceID }

// readHeader consumes one 4-byte chunk header, enforces the sequence
// discipline and returns the 24-bit payload length.
func (p *Packets) readHeader() (int, error) {
	var header [4]byte
	if _, err := io.ReadFull(p.stream, header[:]); err != nil {
		return 0, jerrors.Trace(err)
	}
	if header[3] != p.sequenceID {
		return 0, jerrors.Annotatef(ErrInvalidSequence,
			"expected %d, got %d", p.sequenceID, header[3])
	}
	p.sequenceID++
	return int(header[0]) | int(header[1])<<8 | int(header[2])<<16, nil
}

func (p *Packets) readContent(length int) ([]byte, error) {
	data := make([]byte, length)
	if _, err := io.ReadFull(p.stream, data); err != nil {
		return nil, jerrors.Trace(err)
	}
	return data, nil
}

func (p *Packets) readOnePacket() ([]byte, error) {
	length, err := p.readHeader()
	if err != nil {
		return nil, err
	}
	if length == 0 {
		return nil, nil
	}
	return p.readContent(length)
}

// readBatchPackets appends continuation fragments to data until a fragment
// shorter than the maximum (including an empty trailer) ends the chain.
func (p *Packets) readBatchPackets(data []byte) ([]byte, error) {
	for {
		next, err := p.readOnePacket()
		if err != nil {
			return nil, err
		}
		if len(next) == 0 {
			return data, nil
		}
		data = append(data, next...)
		if len(next) < common.MAX_PACKET_SIZE {
			return data, nil
		}
	}
}

// ReadEphemeralPacket reads one logical packet, reassembling oversize
// chains. A zero-length packet yields an empty payload, not an error; the
// caller decides whether content was required.
func (p *Packets) ReadEphemeralPacket() ([]byte, error) {
	data, err := p.readOnePacket()
	if err != nil {
		return nil, err
	}
	if len(data) < common.MAX_PACKET_SIZE {
		return data, nil
	}
	return p.readBatchPackets(data)
}

// ReadEphemeralPacketDirect reads one logical packet that must fit in a
// single chunk; the handshake response is the only caller.
func (p *Packets) ReadEphemeralPacketDirect() ([]byte, error) {
	length, err := p.readHeader()
	if err != nil {
		return nil, err
	}
	if length == 0 {
		return nil, nil
	}
	if length >= common.MAX_PACKET_SIZE {
		return nil, jerrors.Trace(ErrMultiPacketNotSupport)
	}
	return p.readContent(length)
}

// ReadPackets is the peer-side mirror of WritePacket, used by round-trip
// tests and diagnostics.
func (p *Packets) ReadPackets() ([]byte, error) {
	data, err := p.readOnePacket()
	if err != nil {
		return nil, err
	}
	if len(data) < common.MAX_PACKET_SIZE {
		return data, nil
	}
	return p.readBatchPackets(data)
}

// WritePacket frames data into chunks of at most MAX_PACKET_SIZE bytes. A
// payload whose final chunk is exactly the maximum is terminated with an
// empty trailer chunk.
func (p *Packets) WritePacket(data []byte) error {
	index := 0
	length := len(data)
	for {
		chunk := length
		if chunk > common.MAX_PACKET_SIZE {
			chunk = common.MAX_PACKET_SIZE
		}
		header := [4]byte{
			byte(chunk),
			byte(chunk >> 8),
			byte(chunk >> 16),
			p.sequenceID,
		}
		if _, err := p.stream.Write(header[:]); err != nil {
			return jerrors.Trace(err)
		}
		if _, err := p.stream.Write(data[index : index+chunk]); err != nil {
			return jerrors.Trace(err)
		}
		p.sequenceID++
		length -= chunk
		if length == 0 {
			if chunk == common.MAX_PACKET_SIZE {
				trailer := [4]byte{0, 0, 0, p.sequenceID}
				if _, err := p.stream.Write(trailer[:]); err != nil {
					return jerrors.Trace(err)
				}
				p.sequenceID++
			}
			return nil
		}
		index += chunk
	}
}

// WriteOKPacket sends an OK response.
func (p *Packets) WriteOKPacket(affectedRows, lastInsertID uint64, flags uint16, warnings uint16) error {
	return p.writeOKBody(common.OK_PACKET, affectedRows, lastInsertID, flags, warnings)
}

// WriteOKPacketWithEOFHeader sends an OK body under the 0xFE header byte,
// the result-set terminator when DEPRECATE_EOF is in effect.
func (p *Packets) WriteOKPacketWithEOFHeader(affectedRows, lastInsertID uint64, flags uint16, warnings uint16) error {
	return p.writeOKBody(common.EOF_PACKET, affectedRows, lastInsertID, flags, warnings)
}

func (p *Packets) writeOKBody(header byte, affectedRows, lastInsertID uint64, flags uint16, warnings uint16) error {
	data := make([]byte, 0, 1+util.GetLength(affectedRows)+util.GetLength(lastInsertID)+4)
	data = util.WriteByte(data, header)
	data = util.WriteLength(data, affectedRows)
	data = util.WriteLength(data, lastInsertID)
	data = util.WriteUB2(data, flags)
	data = util.WriteUB2(data, warnings)
	return p.WritePacket(data)
}

// WriteEOFPacket sends a 4.1 EOF packet. flags may differ from the
// connection's status flags (MORE_RESULTS is OR-ed in by callers).
func (p *Packets) WriteEOFPacket(flags uint16, warnings uint16) error {
	data := make([]byte, 0, 5)
	data = util.WriteByte(data, common.EOF_PACKET)
	data = util.WriteUB2(data, warnings)
	data = util.WriteUB2(data, flags)
	return p.WritePacket(data)
}

// WriteErrPacket sends an ERR response. The sql state must be exactly five
// ASCII bytes; an empty state defaults to HY000.
func (p *Packets) WriteErrPacket(errCode uint16, sqlState string, errMsg string) error {
	if sqlState == "" {
		sqlState = common.SSUnknownSQLState
	}
	if len(sqlState) != 5 {
		return jerrors.Errorf("sql state %q must be 5 bytes", sqlState)
	}
	data := make([]byte, 0, 1+2+1+5+len(errMsg))
	data = util.WriteByte(data, common.ERR_PACKET)
	data = util.WriteUB2(data, errCode)
	data = util.WriteByte(data, '#')
	data = util.WriteBytes(data, []byte(sqlState))
	data = util.WriteBytes(data, []byte(errMsg))
	return p.WritePacket(data)
}

// WriteErrPacketFromError reports a handler failure the client can see.
func (p *Packets) WriteErrPacketFromError() error {
	return p.WriteErrPacket(common.ERUnknownError, common.SSUnknownSQLState, "Unknown error")
}

// WriteFields sends the field-count packet and one ColumnDefinition41 per
// field, then the mid-result EOF unless DEPRECATE_EOF is in effect.
func (p *Packets) WriteFields(result *sqltypes.Result) error {
	count := util.WriteLength(nil, uint64(len(result.Fields)))
	if err := p.WritePacket(count); err != nil {
		return err
	}
	for _, f := range result.Fields {
		column, err := writeColumnDefinition(f)
		if err != nil {
			return err
		}
		if err := p.WritePacket(column); err != nil {
			return err
		}
	}
	if p.capability&common.CLIENT_DEPRECATE_EOF == 0 {
		return p.WriteEOFPacket(p.statusFlags, 0)
	}
	return nil
}

func writeColumnDefinition(field *sqltypes.Field) ([]byte, error) {
	typ, flags, err := sqltypes.TypeToMySQL(field.Typ)
	if err != nil {
		return nil, err
	}
	if field.Flags != 0 {
		flags = uint16(field.Flags)
	}
	capacity := 4 +
		util.GetLengthBytes([]byte(field.Database)) +
		util.GetLengthBytes([]byte(field.Table)) +
		util.GetLengthBytes([]byte(field.OrgTable)) +
		util.GetLengthBytes([]byte(field.Name)) +
		util.GetLengthBytes([]byte(field.OrgName)) +
		1 + // length of fixed length fields
		2 + // character set
		4 + // column length
		1 + // type
		2 + // flags
		1 + // decimals
		2 // filler
	data := make([]byte, 0, capacity)
	data = util.WriteWithLength(data, []byte("def"))
	data = util.WriteWithLength(data, []byte(field.Database))
	data = util.WriteWithLength(data, []byte(field.Table))
	data = util.WriteWithLength(data, []byte(field.OrgTable))
	data = util.WriteWithLength(data, []byte(field.Name))
	data = util.WriteWithLength(data, []byte(field.OrgName))
	data = util.WriteByte(data, 0x0C)
	data = util.WriteUB2(data, uint16(field.Charset))
	data = util.WriteUB4(data, field.ColumnLen)
	data = util.WriteByte(data, typ)
	data = util.WriteUB2(data, flags)
	data = util.WriteByte(data, byte(field.Decimals))
	data = util.WriteUB2(data, 0x0000)
	return data, nil
}

// WriteRows sends one framed packet per row. NULL cells serialize as a
// single 0xFB byte, everything else as a length-encoded string.
func (p *Packets) WriteRows(result *sqltypes.Result) error {
	for _, row := range result.Rows {
		if err := p.writeRow(row); err != nil {
			return err
		}
	}
	return nil
}

func (p *Packets) writeRow(row []sqltypes.Value) error {
	var data []byte
	for _, val := range row {
		if val.IsNull() {
			data = util.WriteByte(data, 0xFB)
		} else {
			data = util.WriteWithLength(data, val.Val)
		}
	}
	return p.WritePacket(data)
}

// WriteEndResult terminates a result set: an EOF packet, or an OK body with
// the EOF header when DEPRECATE_EOF is in effect.
func (p *Packets) WriteEndResult(more bool, affectedRows, lastInsertID uint64, warnings uint16) error {
	flags := p.statusFlags
	if more {
		flags |= common.SERVER_MORE_RESULTS_EXISTS
	}
	if p.capability&common.CLIENT_DEPRECATE_EOF == 0 {
		return p.WriteEOFPacket(flags, warnings)
	}
	return p.WriteOKPacketWithEOFHeader(affectedRows, lastInsertID, flags, warnings)
}
