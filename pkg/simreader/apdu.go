package simreader

import (
	"github.com/chaosAD/FakeMFRC552/pkg/mifare"
	"github.com/chaosAD/FakeMFRC552/pkg/pcsc"
)

// Transmit answers PC/SC storage card APDUs against the presented card, so
// code written for pcsc.Card can run on the simulator. Supported:
//
//	FF CA 00 00 Le          GET DATA (UID)
//	FF B0 00 <blk> 10       READ BINARY
//	FF D6 00 <blk> 10 <16>  UPDATE BINARY, then the write callback
//	FF 82 ..                LOAD KEY (accepted, keys are not checked)
//	FF 86 ..                GENERAL AUTHENTICATE (always succeeds)
//
// Transmit returns ErrNoCard when no card is presented, like a reader whose
// field is empty.
func (r *Reader) Transmit(apdu []byte) ([]byte, error) {
	if len(apdu) < 5 {
		return pcsc.Status(pcsc.SWWrongLength), nil
	}
	if apdu[0] != pcsc.CLA {
		return pcsc.Status(pcsc.SWClaNotSupported), nil
	}
	c := r.slot.Snapshot()
	if c == nil {
		return nil, mifare.ErrNoCard
	}

	switch apdu[1] {
	case pcsc.InsGetData:
		if apdu[2] != 0x00 || apdu[3] != 0x00 {
			return pcsc.Status(pcsc.SWWrongP1P2), nil
		}
		uid, err := r.uid(c)
		if err != nil {
			return r.blockStatus(err)
		}
		raw := uid.Bytes()
		return append(raw[:], pcsc.Status(pcsc.SWSuccess)...), nil

	case pcsc.InsReadBinary:
		block, ok := blockAddress(apdu)
		if !ok {
			return pcsc.Status(pcsc.SWWrongP1P2), nil
		}
		if len(apdu) != 5 || (apdu[4] != 0 && apdu[4] != mifare.BlockSize) {
			return pcsc.Status(pcsc.SWWrongLength), nil
		}
		b, err := r.readBlock(c, block)
		if err != nil {
			return r.blockStatus(err)
		}
		return append(b, pcsc.Status(pcsc.SWSuccess)...), nil

	case pcsc.InsUpdateBinary:
		block, ok := blockAddress(apdu)
		if !ok {
			return pcsc.Status(pcsc.SWWrongP1P2), nil
		}
		if apdu[4] != mifare.BlockSize || len(apdu) != 5+mifare.BlockSize {
			return pcsc.Status(pcsc.SWWrongLength), nil
		}
		err := c.Transaction(func() error {
			if err := r.writeBlock(c, block, apdu[5:]); err != nil {
				return err
			}
			return r.persist()
		})
		if err != nil {
			return r.blockStatus(err)
		}
		return pcsc.Status(pcsc.SWSuccess), nil

	case pcsc.InsLoadKey, pcsc.InsAuthenticate:
		return pcsc.Status(pcsc.SWSuccess), nil

	default:
		return pcsc.Status(pcsc.SWInsNotSupported), nil
	}
}

// blockAddress extracts the block number from P1/P2.
func blockAddress(apdu []byte) (int, bool) {
	if apdu[2] != 0x00 || int(apdu[3]) >= mifare.BlockCount {
		return 0, false
	}
	return int(apdu[3]), true
}

// blockStatus turns a missing block into SW 6A82; other errors are returned.
func (r *Reader) blockStatus(err error) ([]byte, error) {
	if mifare.IsMissingBlock(err) {
		return pcsc.Status(pcsc.SWFileNotFound), nil
	}
	return nil, err
}
