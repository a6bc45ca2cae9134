package logging

import "time"

// Generic field constructors.

func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Error carries err under the "error" key, null for a nil error.
func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}

func Count(n int) Field {
	return Int("count", n)
}

// Domain field constructors, one per recurring entity so entries stay
// uniformly keyed across the module.

func Network(name string) Field {
	return String("network", name)
}

func Node(name string) Field {
	return String("node", name)
}

func Commodity(name string) Field {
	return String("commodity", name)
}

func Problem(id string) Field {
	return String("problem", id)
}

func Vars(n int) Field {
	return Int("variables", n)
}

func Constraints(n int) Field {
	return Int("constraints", n)
}

func Status(s string) Field {
	return String("status", s)
}

func Objective(v float64) Field {
	return Float64("objective", v)
}
