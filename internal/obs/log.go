package obs

import (
	"encoding/json"
	"log"
	"os"
	"sync"
)

// The governance API logs one JSON object per line to stdout; the request
// middleware and the audit trail both write through this logger so lines
// never interleave mid-record.
var sharedLogger = sync.OnceValue(func() *log.Logger {
	return log.New(os.Stdout, "", 0)
})

// Logger returns the process-wide line logger for civicgov-api.
func Logger() *log.Logger {
	return sharedLogger()
}

// LogRequest emits one access-log line for a handled HTTP request.
func LogRequest(entry map[string]any) {
	data, err := json.Marshal(entry)
	if err != nil {
		Logger().Println(`{"type":"http","error":"log entry marshal failed"}`)
		return
	}
	Logger().Println(string(data))
}
