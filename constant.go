package iso8583

type fieldKind int

const (
	kindNumeric fieldKind = iota
	kindLLNum
	kindLLLNum
	kindChar
	kindLLChar
	kindLLLChar
	kindBinary
	kindAmount
)

type fieldSpec struct {
	kind        fieldKind
	length      int
	description string
}

// iso87Fields lists data elements 2 to 128 of ISO 8583:1987. Element 65
// is the continuation bit of the secondary bitmap and has no entry.
var iso87Fields = map[int]fieldSpec{
	2:   {kindLLNum, 19, "PAN - PRIMARY ACCOUNT NUMBER"},
	3:   {kindNumeric, 6, "PROCESSING CODE"},
	4:   {kindNumeric, 12, "AMOUNT, TRANSACTION"},
	5:   {kindNumeric, 12, "AMOUNT, SETTLEMENT"},
	6:   {kindNumeric, 12, "AMOUNT, CARDHOLDER BILLING"},
	7:   {kindNumeric, 10, "TRANSMISSION DATE AND TIME"},
	8:   {kindNumeric, 8, "AMOUNT, CARDHOLDER BILLING FEE"},
	9:   {kindNumeric, 8, "CONVERSION RATE, SETTLEMENT"},
	10:  {kindNumeric, 8, "CONVERSION RATE, CARDHOLDER BILLING"},
	11:  {kindNumeric, 6, "SYSTEM TRACE AUDIT NUMBER"},
	12:  {kindNumeric, 6, "TIME, LOCAL TRANSACTION"},
	13:  {kindNumeric, 4, "DATE, LOCAL TRANSACTION"},
	14:  {kindNumeric, 4, "DATE, EXPIRATION"},
	15:  {kindNumeric, 4, "DATE, SETTLEMENT"},
	16:  {kindNumeric, 4, "DATE, CONVERSION"},
	17:  {kindNumeric, 4, "DATE, CAPTURE"},
	18:  {kindNumeric, 4, "MERCHANTS TYPE"},
	19:  {kindNumeric, 3, "ACQUIRING INSTITUTION COUNTRY CODE"},
	20:  {kindNumeric, 3, "PAN EXTENDED COUNTRY CODE"},
	21:  {kindNumeric, 3, "FORWARDING INSTITUTION COUNTRY CODE"},
	22:  {kindNumeric, 3, "POINT OF SERVICE ENTRY MODE"},
	23:  {kindNumeric, 3, "CARD SEQUENCE NUMBER"},
	24:  {kindNumeric, 3, "NETWORK INTERNATIONAL IDENTIFIER"},
	25:  {kindNumeric, 2, "POINT OF SERVICE CONDITION CODE"},
	26:  {kindNumeric, 2, "POINT OF SERVICE PIN CAPTURE CODE"},
	27:  {kindNumeric, 1, "AUTHORIZATION IDENTIFICATION RESP LEN"},
	28:  {kindAmount, 9, "AMOUNT, TRANSACTION FEE"},
	29:  {kindAmount, 9, "AMOUNT, SETTLEMENT FEE"},
	30:  {kindAmount, 9, "AMOUNT, TRANSACTION PROCESSING FEE"},
	31:  {kindAmount, 9, "AMOUNT, SETTLEMENT PROCESSING FEE"},
	32:  {kindLLNum, 11, "ACQUIRING INSTITUTION IDENT CODE"},
	33:  {kindLLNum, 11, "FORWARDING INSTITUTION IDENT CODE"},
	34:  {kindLLChar, 28, "PAN EXTENDED"},
	35:  {kindLLNum, 37, "TRACK 2 DATA"},
	36:  {kindLLLChar, 104, "TRACK 3 DATA"},
	37:  {kindChar, 12, "RETRIEVAL REFERENCE NUMBER"},
	38:  {kindChar, 6, "AUTHORIZATION IDENTIFICATION RESPONSE"},
	39:  {kindChar, 2, "RESPONSE CODE"},
	40:  {kindChar, 3, "SERVICE RESTRICTION CODE"},
	41:  {kindChar, 8, "CARD ACCEPTOR TERMINAL IDENTIFICATION"},
	42:  {kindChar, 15, "CARD ACCEPTOR IDENTIFICATION CODE"},
	43:  {kindChar, 40, "CARD ACCEPTOR NAME/LOCATION"},
	44:  {kindLLChar, 25, "ADDITIONAL RESPONSE DATA"},
	45:  {kindLLChar, 76, "TRACK 1 DATA"},
	46:  {kindLLLChar, 999, "ADDITIONAL DATA - ISO"},
	47:  {kindLLLChar, 999, "ADDITIONAL DATA - NATIONAL"},
	48:  {kindLLLChar, 999, "ADDITIONAL DATA - PRIVATE"},
	49:  {kindChar, 3, "CURRENCY CODE, TRANSACTION"},
	50:  {kindChar, 3, "CURRENCY CODE, SETTLEMENT"},
	51:  {kindChar, 3, "CURRENCY CODE, CARDHOLDER BILLING"},
	52:  {kindBinary, 8, "PIN DATA"},
	53:  {kindNumeric, 16, "SECURITY RELATED CONTROL INFORMATION"},
	54:  {kindLLLChar, 120, "ADDITIONAL AMOUNTS"},
	55:  {kindLLLChar, 999, "RESERVED ISO"},
	56:  {kindLLLChar, 999, "RESERVED ISO"},
	57:  {kindLLLChar, 999, "RESERVED NATIONAL"},
	58:  {kindLLLChar, 999, "RESERVED NATIONAL"},
	59:  {kindLLLChar, 999, "RESERVED NATIONAL"},
	60:  {kindLLLChar, 999, "RESERVED PRIVATE"},
	61:  {kindLLLChar, 999, "RESERVED PRIVATE"},
	62:  {kindLLLChar, 999, "RESERVED PRIVATE"},
	63:  {kindLLLChar, 999, "RESERVED PRIVATE"},
	64:  {kindBinary, 8, "MESSAGE AUTHENTICATION CODE FIELD"},
	66:  {kindNumeric, 1, "SETTLEMENT CODE"},
	67:  {kindNumeric, 2, "EXTENDED PAYMENT CODE"},
	68:  {kindNumeric, 3, "RECEIVING INSTITUTION COUNTRY CODE"},
	69:  {kindNumeric, 3, "SETTLEMENT INSTITUTION COUNTRY CODE"},
	70:  {kindNumeric, 3, "NETWORK MANAGEMENT INFORMATION CODE"},
	71:  {kindNumeric, 4, "MESSAGE NUMBER"},
	72:  {kindNumeric, 4, "MESSAGE NUMBER LAST"},
	73:  {kindNumeric, 6, "DATE ACTION"},
	74:  {kindNumeric, 10, "CREDITS NUMBER"},
	75:  {kindNumeric, 10, "CREDITS REVERSAL NUMBER"},
	76:  {kindNumeric, 10, "DEBITS NUMBER"},
	77:  {kindNumeric, 10, "DEBITS REVERSAL NUMBER"},
	78:  {kindNumeric, 10, "TRANSFER NUMBER"},
	79:  {kindNumeric, 10, "TRANSFER REVERSAL NUMBER"},
	80:  {kindNumeric, 10, "INQUIRIES NUMBER"},
	81:  {kindNumeric, 10, "AUTHORIZATION NUMBER"},
	82:  {kindNumeric, 12, "CREDITS, PROCESSING FEE AMOUNT"},
	83:  {kindNumeric, 12, "CREDITS, TRANSACTION FEE AMOUNT"},
	84:  {kindNumeric, 12, "DEBITS, PROCESSING FEE AMOUNT"},
	85:  {kindNumeric, 12, "DEBITS, TRANSACTION FEE AMOUNT"},
	86:  {kindNumeric, 16, "CREDITS, AMOUNT"},
	87:  {kindNumeric, 16, "CREDITS, REVERSAL AMOUNT"},
	88:  {kindNumeric, 16, "DEBITS, AMOUNT"},
	89:  {kindNumeric, 16, "DEBITS, REVERSAL AMOUNT"},
	90:  {kindNumeric, 42, "ORIGINAL DATA ELEMENTS"},
	91:  {kindChar, 1, "FILE UPDATE CODE"},
	92:  {kindChar, 2, "FILE SECURITY CODE"},
	93:  {kindChar, 5, "RESPONSE INDICATOR"},
	94:  {kindChar, 7, "SERVICE INDICATOR"},
	95:  {kindChar, 42, "REPLACEMENT AMOUNTS"},
	96:  {kindBinary, 8, "MESSAGE SECURITY CODE"},
	97:  {kindAmount, 17, "AMOUNT, NET SETTLEMENT"},
	98:  {kindChar, 25, "PAYEE"},
	99:  {kindLLNum, 11, "SETTLEMENT INSTITUTION IDENT CODE"},
	100: {kindLLNum, 11, "RECEIVING INSTITUTION IDENT CODE"},
	101: {kindLLChar, 17, "FILE NAME"},
	102: {kindLLChar, 28, "ACCOUNT IDENTIFICATION 1"},
	103: {kindLLChar, 28, "ACCOUNT IDENTIFICATION 2"},
	104: {kindLLLChar, 100, "TRANSACTION DESCRIPTION"},
	128: {kindBinary, 8, "MAC 2"},
}

func init() {
	for n := 105; n <= 127; n++ {
		desc := "RESERVED ISO USE"
		switch {
		case n >= 120:
			desc = "RESERVED PRIVATE USE"
		case n >= 112:
			desc = "RESERVED NATIONAL USE"
		}
		iso87Fields[n] = fieldSpec{kindLLLChar, 999, desc}
	}
}

// mtiPackager is a fixed four digit field that rejects short MTIs instead
// of padding them.
func mtiPackager(interpreter Interpreter) FieldPackager {
	return NewLeafPackager(4, "MESSAGE TYPE INDICATOR", interpreter, NullPrefixer, NullPadder)
}

func iso87Packager(description string, mti, bitmap FieldPackager, build func(fieldSpec) FieldPackager) *MessagePackager {
	fields := make([]FieldPackager, 129)
	fields[MTIField] = mti
	fields[BitmapField] = bitmap
	for n, spec := range iso87Fields {
		fields[n] = build(spec)
	}
	return NewMessagePackager(fields, WithDescription(description))
}

// ISO87APackager returns the ISO 8583:1987 layout with every element in
// ASCII and an ASCII hex bitmap.
func ISO87APackager() *MessagePackager {
	return iso87Packager("ISO 8583:1987 ASCII",
		mtiPackager(ASCIIInterpreter),
		IFABitmap(16, "BIT MAP"),
		func(s fieldSpec) FieldPackager {
			switch s.kind {
			case kindNumeric:
				return IFANumeric(s.length, s.description)
			case kindLLNum:
				return IFALLNum(s.length, s.description)
			case kindLLLNum:
				return IFALLLNum(s.length, s.description)
			case kindLLChar:
				return IFALLChar(s.length, s.description)
			case kindLLLChar:
				return IFALLLChar(s.length, s.description)
			case kindBinary:
				return IFABinary(s.length, s.description)
			case kindAmount:
				return IFAAmount(s.length, s.description)
			default:
				return IFChar(s.length, s.description)
			}
		})
}

// ISO87BPackager returns the ISO 8583:1987 layout with numeric elements in
// packed BCD, binary elements raw and a binary bitmap.
func ISO87BPackager() *MessagePackager {
	return iso87Packager("ISO 8583:1987 binary",
		mtiPackager(BCDLeftPadded),
		IFBBitmap(16, "BIT MAP"),
		func(s fieldSpec) FieldPackager {
			switch s.kind {
			case kindNumeric:
				return IFBNumeric(s.length, s.description, true)
			case kindLLNum:
				return IFBLLNum(s.length, s.description, true)
			case kindLLLNum:
				return IFBLLLNum(s.length, s.description, true)
			case kindLLChar:
				return IFBLLChar(s.length, s.description)
			case kindLLLChar:
				return IFBLLLChar(s.length, s.description)
			case kindBinary:
				return IFBBinary(s.length, s.description)
			case kindAmount:
				return IFBAmount(s.length, s.description)
			default:
				return IFChar(s.length, s.description)
			}
		})
}
