package edcb

import (
	"encoding/binary"
	"fmt"
	"unicode/utf16"
)

// encoder builds CtrlCmd payloads. All integers are little-endian.
type encoder struct {
	buf []byte
}

func (e *encoder) writeUint16(v uint16) {
	e.buf = binary.LittleEndian.AppendUint16(e.buf, v)
}

func (e *encoder) writeUint32(v uint32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
}

// writeString writes a size-prefixed, NUL-terminated UTF-16LE string.
// The size includes the 4-byte prefix itself.
func (e *encoder) writeString(s string) {
	units := utf16.Encode([]rune(s))
	e.writeUint32(uint32(4 + 2*len(units) + 2))
	for _, u := range units {
		e.writeUint16(u)
	}
	e.writeUint16(0)
}

// writeStringVector writes a vector header (total size, count) followed by the strings.
func (e *encoder) writeStringVector(items []string) {
	start := len(e.buf)
	e.writeUint32(0)
	e.writeUint32(uint32(len(items)))
	for _, s := range items {
		e.writeString(s)
	}
	binary.LittleEndian.PutUint32(e.buf[start:], uint32(len(e.buf)-start))
}

// decoder reads CtrlCmd payloads. Every read is bounded by end so a
// malformed struct size cannot make the decoder run past its parent.
type decoder struct {
	buf []byte
	pos int
}

func (d *decoder) readUint16(end int) (uint16, error) {
	if end-d.pos < 2 {
		return 0, fmt.Errorf("%w: short read at offset %d", ErrProtocol, d.pos)
	}
	v := binary.LittleEndian.Uint16(d.buf[d.pos:])
	d.pos += 2
	return v, nil
}

func (d *decoder) readInt32(end int) (int32, error) {
	if end-d.pos < 4 {
		return 0, fmt.Errorf("%w: short read at offset %d", ErrProtocol, d.pos)
	}
	v := int32(binary.LittleEndian.Uint32(d.buf[d.pos:]))
	d.pos += 4
	return v, nil
}

// readStructIntro reads a struct size prefix and returns the offset where the struct ends.
func (d *decoder) readStructIntro(end int) (int, error) {
	size, err := d.readInt32(end)
	if err != nil {
		return 0, err
	}
	if size < 4 || end-d.pos+4 < int(size) {
		return 0, fmt.Errorf("%w: bad struct size %d at offset %d", ErrProtocol, size, d.pos-4)
	}
	return d.pos - 4 + int(size), nil
}

func (d *decoder) readString(end int) (string, error) {
	strEnd, err := d.readStructIntro(end)
	if err != nil {
		return "", err
	}
	// strEnd-2 drops the NUL terminator
	n := (strEnd - d.pos - 2) / 2
	units := make([]uint16, 0, max(n, 0))
	for i := 0; i < n; i++ {
		units = append(units, binary.LittleEndian.Uint16(d.buf[d.pos+2*i:]))
	}
	d.pos = strEnd
	return string(utf16.Decode(units)), nil
}

func (d *decoder) readFileData(end int) (FileData, error) {
	structEnd, err := d.readStructIntro(end)
	if err != nil {
		return FileData{}, err
	}
	name, err := d.readString(structEnd)
	if err != nil {
		return FileData{}, err
	}
	dataSize, err := d.readInt32(structEnd)
	if err != nil {
		return FileData{}, err
	}
	// status, unused
	if _, err := d.readInt32(structEnd); err != nil {
		return FileData{}, err
	}
	if dataSize < 0 || structEnd-d.pos < int(dataSize) {
		return FileData{}, fmt.Errorf("%w: bad file data size %d for %q", ErrProtocol, dataSize, name)
	}
	data := make([]byte, dataSize)
	copy(data, d.buf[d.pos:d.pos+int(dataSize)])
	d.pos = structEnd
	return FileData{Name: name, Data: data}, nil
}

func (d *decoder) readFileDataVector(end int) ([]FileData, error) {
	vecEnd, err := d.readStructIntro(end)
	if err != nil {
		return nil, err
	}
	count, err := d.readInt32(vecEnd)
	if err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, fmt.Errorf("%w: negative vector length %d", ErrProtocol, count)
	}
	// each item carries at least a 4 byte size prefix
	if int(count) > (vecEnd-d.pos)/4 {
		return nil, fmt.Errorf("%w: vector length %d exceeds %d remaining bytes", ErrProtocol, count, vecEnd-d.pos)
	}
	files := make([]FileData, 0, count)
	for i := int32(0); i < count; i++ {
		f, err := d.readFileData(vecEnd)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	d.pos = vecEnd
	return files, nil
}
