package logging

import (
	"time"
)

// Common field constructors
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Component field helpers for common component names
func Component(name string) Field {
	return String("component", name)
}

// SiteIndex tags an entry with the central site being processed.
func SiteIndex(i int) Field {
	return Int("site", i)
}

// Symbol tags an entry with a coordination geometry symbol.
func Symbol(s string) Field {
	return String("symbol", s)
}

// CSM tags an entry with a continuous symmetry measure value.
func CSM(v float64) Field {
	return Float64("csm", v)
}

// CoordinationNumber tags an entry with an apparent coordination number.
func CoordinationNumber(cn int) Field {
	return Int("cn", cn)
}

// RunID tags an entry with the identifier of one engine run.
func RunID(id string) Field {
	return String("run_id", id)
}

func Operation(op string) Field {
	return String("operation", op)
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}

func Count(n int) Field {
	return Int("count", n)
}
