// control/default.go
// Author: momentics <momentics@gmail.com>

package control

import "time"

// Default configuration values.
const (
	DefaultPort       = 9000
	DefaultBacklog    = 1024
	DefaultMaxConns   = 65536
	DefaultTimeSlot   = 5 * time.Second
	DefaultDocRoot    = "./root"
	DefaultIndex      = "index.html"
	DefaultReadBuffer = 64 * 1024

	DefaultWorkers = 8
	DefaultQueue   = 10000

	DefaultStoreConns = 8
	DefaultStoreCost  = 10

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultLogBuffer = 1000
)

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Server: ServerSection{
			Port:       DefaultPort,
			Backlog:    DefaultBacklog,
			MaxConns:   DefaultMaxConns,
			TimeSlot:   DefaultTimeSlot,
			DocRoot:    DefaultDocRoot,
			Index:      DefaultIndex,
			ReadBuffer: DefaultReadBuffer,
		},
		Dispatch: DispatchSection{
			Strategy: StrategyProactor,
			Workers:  DefaultWorkers,
			Queue:    DefaultQueue,
		},
		Log: LogSection{
			Enabled: true,
			Level:   DefaultLogLevel,
			Format:  DefaultLogFormat,
			Buffer:  DefaultLogBuffer,
		},
		Store: StoreSection{
			Conns: DefaultStoreConns,
			Cost:  DefaultStoreCost,
		},
	}
}
