//go:build !unix

package lifecycle

import "os"

func lifecycleSignals() []os.Signal { return nil }

func statesFor(os.Signal) []State { return nil }
