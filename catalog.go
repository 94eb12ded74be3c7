package iso8583

import (
	"sort"
	"strings"
	"sync"
)

// The constructors below name the classic field classes. IFA uses ASCII,
// IFB packed BCD or raw binary, IFE EBCDIC; the L run gives the number of
// length digits; IFT classes prefix the field with its own number.

// IFANumeric is a fixed length ASCII numeric field, zero padded on the left.
func IFANumeric(length int, description string) *LeafPackager {
	return NewLeafPackager(length, description, ASCIIInterpreter, NullPrefixer, ZeroPadder)
}

func IFALLNum(length int, description string) *LeafPackager {
	return NewLeafPackager(length, description, ASCIIInterpreter, ASCIIPrefixers.LL, NullPadder)
}

func IFALLLNum(length int, description string) *LeafPackager {
	return NewLeafPackager(length, description, ASCIIInterpreter, ASCIIPrefixers.LLL, NullPadder)
}

// IFChar is a fixed length ASCII character field, blank padded on the right.
func IFChar(length int, description string) *LeafPackager {
	return NewLeafPackager(length, description, ASCIIInterpreter, NullPrefixer, SpacePadder)
}

// IFTChar is IFChar that truncates long values.
func IFTChar(length int, description string) *LeafPackager {
	return NewLeafPackager(length, description, ASCIIInterpreter, NullPrefixer, SpaceTPadder)
}

func IFALChar(length int, description string) *LeafPackager {
	return NewLeafPackager(length, description, ASCIIInterpreter, ASCIIPrefixers.L, NullPadder)
}

func IFALLChar(length int, description string) *LeafPackager {
	return NewLeafPackager(length, description, ASCIIInterpreter, ASCIIPrefixers.LL, NullPadder)
}

func IFALLLChar(length int, description string) *LeafPackager {
	return NewLeafPackager(length, description, ASCIIInterpreter, ASCIIPrefixers.LLL, NullPadder)
}

func IFALLLLChar(length int, description string) *LeafPackager {
	return NewLeafPackager(length, description, ASCIIInterpreter, ASCIIPrefixers.LLLL, NullPadder)
}

// IFABinary is a fixed length binary field written as ASCII hex; length
// counts bytes.
func IFABinary(length int, description string) *LeafPackager {
	return NewLeafPackager(length, description, ASCIIHexInterpreter, NullPrefixer, NullPadder, AsBinary())
}

func IFALLBinary(length int, description string) *LeafPackager {
	return NewLeafPackager(length, description, ASCIIHexInterpreter, ASCIIPrefixers.LL, NullPadder, AsBinary())
}

func IFALLLBinary(length int, description string) *LeafPackager {
	return NewLeafPackager(length, description, ASCIIHexInterpreter, ASCIIPrefixers.LLL, NullPadder, AsBinary())
}

// IFAAmount is a fixed length ASCII amount with a leading C or D sign.
func IFAAmount(length int, description string) *LeafPackager {
	return NewLeafPackager(length, description, NewAmountInterpreter(ASCIIInterpreter, ASCIIInterpreter), NullPrefixer, NullPadder)
}

// IFBAmount keeps the sign in ASCII and packs the digits as BCD.
func IFBAmount(length int, description string) *LeafPackager {
	return NewLeafPackager(length, description, NewAmountInterpreter(ASCIIInterpreter, BCDLeftPadded), NullPrefixer, NullPadder)
}

// IFBNumeric is a fixed length packed BCD field. padLeft places the spare
// nibble of an odd length first.
func IFBNumeric(length int, description string, padLeft bool) *LeafPackager {
	return NewLeafPackager(length, description, bcdInterpreterFor(padLeft), NullPrefixer, ZeroPadder)
}

func IFBLLNum(length int, description string, padLeft bool) *LeafPackager {
	return NewLeafPackager(length, description, bcdInterpreterFor(padLeft), BCDPrefixers.LL, NullPadder)
}

func IFBLLLNum(length int, description string, padLeft bool) *LeafPackager {
	return NewLeafPackager(length, description, bcdInterpreterFor(padLeft), BCDPrefixers.LLL, NullPadder)
}

// IFBLLHNum packs BCD digits behind a one byte binary digit count.
func IFBLLHNum(length int, description string, padLeft bool) *LeafPackager {
	return NewLeafPackager(length, description, bcdInterpreterFor(padLeft), BinaryPrefixerB, NullPadder)
}

func bcdInterpreterFor(padLeft bool) Interpreter {
	if padLeft {
		return BCDLeftPadded
	}
	return BCDRightPadded
}

func IFBLLChar(length int, description string) *LeafPackager {
	return NewLeafPackager(length, description, ASCIIInterpreter, BCDPrefixers.LL, NullPadder)
}

func IFBLLLChar(length int, description string) *LeafPackager {
	return NewLeafPackager(length, description, ASCIIInterpreter, BCDPrefixers.LLL, NullPadder)
}

func IFBLLHChar(length int, description string) *LeafPackager {
	return NewLeafPackager(length, description, ASCIIInterpreter, BinaryPrefixerB, NullPadder)
}

func IFBBinary(length int, description string) *LeafPackager {
	return NewLeafPackager(length, description, BinaryInterpreter, NullPrefixer, NullPadder, AsBinary())
}

func IFBLLBinary(length int, description string) *LeafPackager {
	return NewLeafPackager(length, description, BinaryInterpreter, BCDPrefixers.LL, NullPadder, AsBinary())
}

func IFBLLLBinary(length int, description string) *LeafPackager {
	return NewLeafPackager(length, description, BinaryInterpreter, BCDPrefixers.LLL, NullPadder, AsBinary())
}

func IFBLLHBinary(length int, description string) *LeafPackager {
	return NewLeafPackager(length, description, BinaryInterpreter, BinaryPrefixerB, NullPadder, AsBinary())
}

func IFBLLLHBinary(length int, description string) *LeafPackager {
	return NewLeafPackager(length, description, BinaryInterpreter, BinaryPrefixerBB, NullPadder, AsBinary())
}

// IFENumeric is a fixed length EBCDIC numeric field, zero padded.
func IFENumeric(length int, description string) *LeafPackager {
	return NewLeafPackager(length, description, EBCDICInterpreter, NullPrefixer, ZeroPadder)
}

// IFELNum is an EBCDIC numeric field with a one digit EBCDIC length.
func IFELNum(length int, description string) *LeafPackager {
	return NewLeafPackager(length, description, EBCDICInterpreter, EBCDICPrefixers.L, NullPadder)
}

func IFELLNum(length int, description string) *LeafPackager {
	return NewLeafPackager(length, description, EBCDICInterpreter, EBCDICPrefixers.LL, NullPadder)
}

func IFELLLNum(length int, description string) *LeafPackager {
	return NewLeafPackager(length, description, EBCDICInterpreter, EBCDICPrefixers.LLL, NullPadder)
}

func IFEChar(length int, description string) *LeafPackager {
	return NewLeafPackager(length, description, EBCDICInterpreter, NullPrefixer, SpacePadder)
}

func IFELChar(length int, description string) *LeafPackager {
	return NewLeafPackager(length, description, EBCDICInterpreter, EBCDICPrefixers.L, NullPadder)
}

func IFELLChar(length int, description string) *LeafPackager {
	return NewLeafPackager(length, description, EBCDICInterpreter, EBCDICPrefixers.LL, NullPadder)
}

func IFELLLChar(length int, description string) *LeafPackager {
	return NewLeafPackager(length, description, EBCDICInterpreter, EBCDICPrefixers.LLL, NullPadder)
}

// IFEBinary is a fixed length binary field written as EBCDIC hex.
func IFEBinary(length int, description string) *LeafPackager {
	return NewLeafPackager(length, description, EBCDICHexInterpreter, NullPrefixer, NullPadder, AsBinary())
}

func IFELLBinary(length int, description string) *LeafPackager {
	return NewLeafPackager(length, description, EBCDICHexInterpreter, EBCDICPrefixers.LL, NullPadder, AsBinary())
}

// IFTANumeric is IFANumeric preceded by its field number as two ASCII
// digits.
func IFTANumeric(length int, description string) *LeafPackager {
	return NewLeafPackager(length, description, ASCIIInterpreter, NullPrefixer, ZeroPadder,
		WithTag(ASCIIPrefixers.LL, TagFirst))
}

// IFTALLChar is IFALLChar preceded by its field number as two ASCII digits.
func IFTALLChar(length int, description string) *LeafPackager {
	return NewLeafPackager(length, description, ASCIIInterpreter, ASCIIPrefixers.LL, NullPadder,
		WithTag(ASCIIPrefixers.LL, TagFirst))
}

func IFTALLLChar(length int, description string) *LeafPackager {
	return NewLeafPackager(length, description, ASCIIInterpreter, ASCIIPrefixers.LLL, NullPadder,
		WithTag(ASCIIPrefixers.LL, TagFirst))
}

// IFBBitmap is a binary bitmap of up to length bytes.
func IFBBitmap(length int, description string) *BitmapPackager {
	return NewBitmapPackager(length, description, BitmapBinary)
}

// IFABitmap is an ASCII hex bitmap of up to length binary bytes.
func IFABitmap(length int, description string) *BitmapPackager {
	return NewBitmapPackager(length, description, BitmapASCIIHex)
}

// IFEBitmap is an EBCDIC hex bitmap of up to length binary bytes.
func IFEBitmap(length int, description string) *BitmapPackager {
	return NewBitmapPackager(length, description, BitmapEBCDICHex)
}

// FieldTypeFunc builds a field packager of a named class.
type FieldTypeFunc func(length int, description string) FieldPackager

func leaf[T FieldPackager](fn func(int, string) T) FieldTypeFunc {
	return func(length int, description string) FieldPackager {
		return fn(length, description)
	}
}

func bcd(fn func(int, string, bool) *LeafPackager, padLeft bool) FieldTypeFunc {
	return func(length int, description string) FieldPackager {
		return fn(length, description, padLeft)
	}
}

var (
	fieldTypesMu sync.RWMutex
	fieldTypes   = map[string]FieldTypeFunc{
		"IFA_NUMERIC":    leaf(IFANumeric),
		"IFA_LLNUM":      leaf(IFALLNum),
		"IFA_LLLNUM":     leaf(IFALLLNum),
		"IF_CHAR":        leaf(IFChar),
		"IF_TCHAR":       leaf(IFTChar),
		"IFA_LCHAR":      leaf(IFALChar),
		"IFA_LLCHAR":     leaf(IFALLChar),
		"IFA_LLLCHAR":    leaf(IFALLLChar),
		"IFA_LLLLCHAR":   leaf(IFALLLLChar),
		"IFA_BINARY":     leaf(IFABinary),
		"IFA_LLBINARY":   leaf(IFALLBinary),
		"IFA_LLLBINARY":  leaf(IFALLLBinary),
		"IFA_AMOUNT":     leaf(IFAAmount),
		"IFB_AMOUNT":     leaf(IFBAmount),
		"IFA_BITMAP":     leaf(IFABitmap),
		"IFB_NUMERIC":    bcd(IFBNumeric, true),
		"IFB_NUMERIC_R":  bcd(IFBNumeric, false),
		"IFB_LLNUM":      bcd(IFBLLNum, true),
		"IFB_LLNUM_R":    bcd(IFBLLNum, false),
		"IFB_LLLNUM":     bcd(IFBLLLNum, true),
		"IFB_LLLNUM_R":   bcd(IFBLLLNum, false),
		"IFB_LLHNUM":     bcd(IFBLLHNum, true),
		"IFB_LLCHAR":     leaf(IFBLLChar),
		"IFB_LLLCHAR":    leaf(IFBLLLChar),
		"IFB_LLHCHAR":    leaf(IFBLLHChar),
		"IFB_BINARY":     leaf(IFBBinary),
		"IFB_LLBINARY":   leaf(IFBLLBinary),
		"IFB_LLLBINARY":  leaf(IFBLLLBinary),
		"IFB_LLHBINARY":  leaf(IFBLLHBinary),
		"IFB_LLLHBINARY": leaf(IFBLLLHBinary),
		"IFB_BITMAP":     leaf(IFBBitmap),
		"IFE_NUMERIC":    leaf(IFENumeric),
		"IFE_LNUM":       leaf(IFELNum),
		"IFE_LLNUM":      leaf(IFELLNum),
		"IFE_LLLNUM":     leaf(IFELLLNum),
		"IFE_CHAR":       leaf(IFEChar),
		"IFE_LCHAR":      leaf(IFELChar),
		"IFE_LLCHAR":     leaf(IFELLChar),
		"IFE_LLLCHAR":    leaf(IFELLLChar),
		"IFE_BINARY":     leaf(IFEBinary),
		"IFE_LLBINARY":   leaf(IFELLBinary),
		"IFE_BITMAP":     leaf(IFEBitmap),
		"IFTA_NUMERIC":   leaf(IFTANumeric),
		"IFTA_LLCHAR":    leaf(IFTALLChar),
		"IFTA_LLLCHAR":   leaf(IFTALLLChar),
	}
)

// LookupFieldType returns the constructor registered under a class name
// such as "IFA_LLNUM". Names are case insensitive.
func LookupFieldType(name string) (FieldTypeFunc, bool) {
	fieldTypesMu.RLock()
	defer fieldTypesMu.RUnlock()
	fn, ok := fieldTypes[strings.ToUpper(name)]
	return fn, ok
}

// RegisterFieldType adds or replaces a named class, typically from an init
// function.
func RegisterFieldType(name string, fn FieldTypeFunc) {
	fieldTypesMu.Lock()
	defer fieldTypesMu.Unlock()
	fieldTypes[strings.ToUpper(name)] = fn
}

// FieldTypes lists the registered class names.
func FieldTypes() []string {
	fieldTypesMu.RLock()
	defer fieldTypesMu.RUnlock()
	names := make([]string, 0, len(fieldTypes))
	for name := range fieldTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
