//go:build unix

package lifecycle

import (
	"os"
	"syscall"
)

func lifecycleSignals() []os.Signal {
	return []os.Signal{syscall.SIGUSR1, syscall.SIGUSR2, syscall.SIGCONT}
}

// statesFor maps SIGUSR1 to background, SIGUSR2 to active and SIGCONT (the
// process was stopped and resumed) to a background/active round trip.
func statesFor(sig os.Signal) []State {
	switch sig {
	case syscall.SIGUSR1:
		return []State{Background}
	case syscall.SIGUSR2:
		return []State{Active}
	case syscall.SIGCONT:
		return []State{Background, Active}
	default:
		return nil
	}
}
