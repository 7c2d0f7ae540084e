package session

import (
	"fmt"

	"github.com/la2go/mmocore/internal/protoerr"
)

var errMailboxFull = fmt.Errorf("%w: outbound mailbox full", protoerr.ErrCapacity)
