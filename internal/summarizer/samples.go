package summarizer

import (
	"fmt"
	"math/rand"
	"time"
)

// distinctValues returns the distinct non-null values in first-seen order.
func distinctValues(values []any) []any {
	seen := make(map[string]struct{}, len(values))
	out := make([]any, 0, len(values))
	for _, v := range values {
		if v == nil {
			continue
		}
		k := distinctKey(v)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}

func distinctKey(v any) string {
	switch x := v.(type) {
	case string:
		return "s:" + x
	case float64:
		return fmt.Sprintf("f:%v", x)
	case int64:
		return fmt.Sprintf("i:%d", x)
	case bool:
		return fmt.Sprintf("b:%t", x)
	case time.Time:
		return fmt.Sprintf("t:%d", x.UnixNano())
	case []byte:
		return "x:" + string(x)
	default:
		return fmt.Sprintf("%T:%v", v, v)
	}
}

// drawSamples picks up to n distinct values without replacement. Columns
// with n or fewer distinct values return all of them.
func drawSamples(values []any, n int, rng *rand.Rand) []any {
	pool := distinctValues(values)
	if n <= 0 {
		return []any{}
	}
	if n >= len(pool) {
		return pool
	}
	for i := 0; i < n; i++ {
		j := i + rng.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n:n]
}
