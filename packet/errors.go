package packet

import "errors"

var (
	errMissingOrigin = errors.New("ls packet: missing origin field")
	errNegativeSeq   = errors.New("ls packet: negative sequence number")
)
