package usbdevice

import "time"

// TransferTimeout is the wait bound for transfers issued once a session is
// established (§4.3.3, §5).
const TransferTimeout = 1 * time.Second
