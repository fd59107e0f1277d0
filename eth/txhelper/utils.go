package ethtxhelper

import (
	"errors"
	"io"
	"net"
	"strings"

	"github.com/Giveth/giveth-bridge/common"
)

var retryableMessages = []string{
	"replacement tx underpriced",
	"intrinsic gas too low",
	"tx with the same nonce is already present",
}

func IsRetryableEthError(err error) bool {
	if err == nil || common.IsContextDoneErr(err) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return containsAny(err, retryableMessages...)
}

// IsKnownTxError reports a node which already holds the very same signed tx
func IsKnownTxError(err error) bool {
	return err != nil && containsAny(err, "already known", "known transaction")
}

func IsNonceTooLowError(err error) bool {
	return err != nil && containsAny(err, "nonce too low")
}

// IsBroadcastUncertainError reports transport errors after which the request may have reached the node.
// Failed dials never reached it.
func IsBroadcastUncertainError(err error) bool {
	if err == nil || common.IsContextDoneErr(err) {
		return false
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return false
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr)
}

func containsAny(err error, messages ...string) bool {
	errStr := err.Error()

	for _, msg := range messages {
		if strings.Contains(errStr, msg) {
			return true
		}
	}

	return false
}
