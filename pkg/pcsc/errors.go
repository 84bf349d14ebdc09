package pcsc

import (
	"errors"
	"fmt"
)

// Status word constants for PC/SC storage card responses
const (
	SWSuccess              = 0x9000 // success
	SWOperationFailed      = 0x6300 // operation failed (e.g. authentication)
	SWWrongLength          = 0x6700 // wrong length
	SWSecurityNotSatisfied = 0x6982 // security status not satisfied (need auth)
	SWFileNotFound         = 0x6A82 // block / file not found
	SWWrongP1P2            = 0x6A86 // incorrect P1/P2 parameters
	SWInsNotSupported      = 0x6D00 // instruction not supported
	SWClaNotSupported      = 0x6E00 // class not supported
	SWWrongLe              = 0x6C00 // wrong Le (mask: 0x6C00, correct Le in SW2)
)

// SWError represents a status word error from the card.
type SWError struct {
	Cmd byte   // Command INS byte
	SW  uint16 // Status word
}

func (e *SWError) Error() string {
	return fmt.Sprintf("card command 0x%02X failed with SW=0x%04X (%s)", e.Cmd, e.SW, swDescription(e.SW))
}

// swDescription returns a human-readable description of a status word.
func swDescription(sw uint16) string {
	switch sw {
	case SWSuccess:
		return "success"
	case SWOperationFailed:
		return "operation failed"
	case SWWrongLength:
		return "wrong length"
	case SWSecurityNotSatisfied:
		return "security not satisfied"
	case SWFileNotFound:
		return "not found"
	case SWWrongP1P2:
		return "wrong P1/P2"
	case SWInsNotSupported:
		return "instruction not supported"
	case SWClaNotSupported:
		return "class not supported"
	default:
		if (sw & 0xFF00) == SWWrongLe {
			return fmt.Sprintf("wrong Le (correct Le=%d)", sw&0xFF)
		}
		return "unknown error"
	}
}

// IsNotFound checks if an error reports a missing block.
func IsNotFound(err error) bool {
	var swErr *SWError
	return errors.As(err, &swErr) && swErr.SW == SWFileNotFound
}

// IsAuthError checks if an error is an authentication-related status word error.
func IsAuthError(err error) bool {
	var swErr *SWError
	return errors.As(err, &swErr) && (swErr.SW == SWOperationFailed || swErr.SW == SWSecurityNotSatisfied)
}

// SwOK checks if a status word indicates success.
func SwOK(sw uint16) bool {
	return sw == SWSuccess
}

// Status encodes sw as the two trailing response bytes.
func Status(sw uint16) []byte {
	return []byte{byte(sw >> 8), byte(sw)}
}
