package iso8583

// Direction records which way a message travelled through a channel.
type Direction int

const (
	DirectionNone Direction = iota
	DirectionIncoming
	DirectionOutgoing
)

func (d Direction) String() string {
	switch d {
	case DirectionIncoming:
		return "incoming"
	case DirectionOutgoing:
		return "outgoing"
	default:
		return "none"
	}
}

// HeaderOrder selects whether a tagged field writes its tag before or after
// its length prefix.
type HeaderOrder int

const (
	TagFirst HeaderOrder = iota
	LengthFirst
)

// BitmapEncoding selects the wire representation of a presence bitmap.
type BitmapEncoding int

const (
	BitmapBinary    BitmapEncoding = iota // raw bytes
	BitmapASCIIHex                        // two ASCII hex digits per byte
	BitmapEBCDICHex                       // two EBCDIC hex digits per byte
)

func (e BitmapEncoding) String() string {
	switch e {
	case BitmapASCIIHex:
		return "ascii-hex"
	case BitmapEBCDICHex:
		return "ebcdic-hex"
	default:
		return "binary"
	}
}

type TLVType int

const (
	TLVStandard TLVType = iota // 1 byte tag, 1 byte length
	TLVEMV                     // BER-TLV as used by EMV (DE 55)
	TLVASCII                   // fixed width ASCII tag and length
)

type TLV struct {
	Tag    []byte
	Length int
	Value  []byte
}

const (
	DefaultBufferSize = 8192

	// MTIField holds the message type indicator of a top-level message.
	MTIField = 0
	// BitmapField is the conventional slot of the primary bitmap.
	BitmapField = 1

	bitmapBlockSize = 8
)
