package modelstore

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"github.com/goccy/go-json"

	"github.com/kailas-cloud/gamerec/internal/domain"
)

// Blob layout:
//
//	magic "GREC" | version u16 | kind u8 | header length u32 | header JSON |
//	sections (little-endian, in header order) | SHA-256 of everything before
const (
	magic         = "GREC"
	formatVersion = uint16(1)
	prefixLen     = len(magic) + 2 + 1 + 4
	checksumLen   = sha256.Size
)

// Kind tells the two blobs of a pair apart.
type Kind uint8

// Artifact kinds.
const (
	KindExtractor Kind = 1
	KindEngine    Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindExtractor:
		return "extractor"
	case KindEngine:
		return "engine"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Section dtypes.
const (
	dtypeF64 = "f64"
	dtypeF32 = "f32"
)

// Section describes one raw array following the header.
type Section struct {
	Name  string `json:"name"`
	DType string `json:"dtype"`
	Rows  int    `json:"rows"`
	Cols  int    `json:"cols"`
}

// size returns the byte length of the section. Shapes that would need more
// than limit bytes are rejected before multiplying, so a forged header cannot
// overflow the length.
func (s Section) size(limit int) (int, error) {
	if s.Rows < 0 || s.Cols < 0 {
		return 0, fmt.Errorf("section %s: negative shape %dx%d", s.Name, s.Rows, s.Cols)
	}
	var elem int
	switch s.DType {
	case dtypeF64:
		elem = 8
	case dtypeF32:
		elem = 4
	default:
		return 0, fmt.Errorf("section %s: unknown dtype %q", s.Name, s.DType)
	}
	if s.Rows == 0 || s.Cols == 0 {
		return 0, nil
	}
	if s.Rows > limit/elem/s.Cols {
		return 0, fmt.Errorf("section %s: shape %dx%d exceeds %d bytes", s.Name, s.Rows, s.Cols, limit)
	}
	return s.Rows * s.Cols * elem, nil
}

// Header is the JSON metadata block of a blob.
type Header struct {
	ModelID   string          `json:"model_id"`
	CreatedAt time.Time       `json:"created_at"`
	Metadata  json.RawMessage `json:"metadata"`
	Sections  []Section       `json:"sections"`
}

type section struct {
	desc Section
	f64  []float64
	f32  []float32
}

func f64Section(name string, rows, cols int, data []float64) section {
	return section{desc: Section{Name: name, DType: dtypeF64, Rows: rows, Cols: cols}, f64: data}
}

func f32Section(name string, rows, cols int, data []float32) section {
	return section{desc: Section{Name: name, DType: dtypeF32, Rows: rows, Cols: cols}, f32: data}
}

// blob is a decoded artifact.
type blob struct {
	kind     Kind
	header   Header
	sections map[string]section
	checksum string
}

func encode(kind Kind, h Header, sections []section) ([]byte, error) {
	h.Sections = h.Sections[:0]
	for _, s := range sections {
		n, err := s.desc.size(math.MaxInt)
		if err != nil {
			return nil, err
		}
		got := len(s.f64) * 8
		if s.desc.DType == dtypeF32 {
			got = len(s.f32) * 4
		}
		if got != n {
			return nil, fmt.Errorf("section %s: %d bytes of data for shape %dx%d", s.desc.Name, got, s.desc.Rows, s.desc.Cols)
		}
		h.Sections = append(h.Sections, s.desc)
	}
	hdr, err := json.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("marshal header: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(magic)
	buf.Write(binary.LittleEndian.AppendUint16(nil, formatVersion))
	buf.WriteByte(byte(kind))
	buf.Write(binary.LittleEndian.AppendUint32(nil, uint32(len(hdr))))
	buf.Write(hdr)

	var word [8]byte
	for _, s := range sections {
		for _, v := range s.f64 {
			binary.LittleEndian.PutUint64(word[:], math.Float64bits(v))
			buf.Write(word[:])
		}
		for _, v := range s.f32 {
			binary.LittleEndian.PutUint32(word[:4], math.Float32bits(v))
			buf.Write(word[:4])
		}
	}
	sum := sha256.Sum256(buf.Bytes())
	buf.Write(sum[:])
	return buf.Bytes(), nil
}

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrArtifactCorrupt, fmt.Sprintf(format, args...))
}

func decode(data []byte, want Kind) (*blob, error) {
	if len(data) < prefixLen+checksumLen {
		return nil, corrupt("%d bytes is shorter than the fixed prefix", len(data))
	}
	body, trailer := data[:len(data)-checksumLen], data[len(data)-checksumLen:]
	sum := sha256.Sum256(body)
	if !bytes.Equal(sum[:], trailer) {
		return nil, corrupt("checksum mismatch")
	}
	if string(body[:4]) != magic {
		return nil, corrupt("bad magic %q", body[:4])
	}
	if v := binary.LittleEndian.Uint16(body[4:6]); v != formatVersion {
		return nil, corrupt("unsupported format version %d", v)
	}
	if k := Kind(body[6]); k != want {
		return nil, corrupt("expected %s artifact, got %s", want, k)
	}
	hlen := int(binary.LittleEndian.Uint32(body[7:11]))
	if hlen > len(body)-prefixLen {
		return nil, corrupt("header length %d exceeds blob", hlen)
	}

	b := &blob{kind: want, sections: make(map[string]section), checksum: hex.EncodeToString(trailer)}
	if err := json.Unmarshal(body[prefixLen:prefixLen+hlen], &b.header); err != nil {
		return nil, corrupt("header: %v", err)
	}

	raw := body[prefixLen+hlen:]
	for _, desc := range b.header.Sections {
		n, err := desc.size(len(raw))
		if err != nil {
			return nil, corrupt("%v", err)
		}
		s := section{desc: desc}
		switch desc.DType {
		case dtypeF64:
			s.f64 = make([]float64, n/8)
			for i := range s.f64 {
				s.f64[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:]))
			}
		case dtypeF32:
			s.f32 = make([]float32, n/4)
			for i := range s.f32 {
				s.f32[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
			}
		}
		b.sections[desc.Name] = s
		raw = raw[n:]
	}
	if len(raw) != 0 {
		return nil, corrupt("%d trailing bytes after sections", len(raw))
	}
	return b, nil
}

func (b *blob) section(name, dtype string) (section, error) {
	s, ok := b.sections[name]
	if !ok {
		return section{}, corrupt("%s artifact has no %s section", b.kind, name)
	}
	if s.desc.DType != dtype {
		return section{}, corrupt("section %s has dtype %s, want %s", name, s.desc.DType, dtype)
	}
	return s, nil
}

func checksumOf(data []byte) string {
	return hex.EncodeToString(data[len(data)-checksumLen:])
}
