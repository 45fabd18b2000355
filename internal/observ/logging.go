package observ

import (
	"encoding/json"
	"fmt"
	"time"
)

// Log emits a single structured JSON event to stdout.
// Every event carries a UTC timestamp and an event name; callers attach
// whatever context they have (request_id, provider, symbol, ...).
func Log(event string, kv map[string]any) {
	if kv == nil {
		kv = map[string]any{}
	}
	kv["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	kv["event"] = event
	b, _ := json.Marshal(kv)
	fmt.Println(string(b))
}
