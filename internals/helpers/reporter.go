package helper

import (
	"log"

	"github.com/rollbar/rollbar-go"
)

var reportingEnabled bool

// InitReporter wires error reporting to Rollbar. An empty token leaves it off.
func InitReporter(token, env, codeVersion string) {
	if token == "" {
		rollbar.SetEnabled(false)
		reportingEnabled = false
		log.Println("[INFO] rollbar disabled (ROLLBAR_TOKEN empty)")
		return
	}
	rollbar.SetToken(token)
	rollbar.SetEnvironment(env)
	rollbar.SetCodeVersion(codeVersion)
	rollbar.SetServerRoot("campusorbit_backend")
	rollbar.SetEnabled(true)
	reportingEnabled = true
	log.Printf("[INFO] rollbar enabled (env=%s)", env)
}

// Report forwards err to Rollbar when enabled.
func Report(err error, extras map[string]interface{}) {
	if !reportingEnabled || err == nil {
		return
	}
	if extras != nil {
		rollbar.Error(err, extras)
		return
	}
	rollbar.Error(err)
}

func ReportPanic(v interface{}) {
	if !reportingEnabled {
		return
	}
	rollbar.Critical(v)
}

func CloseReporter() {
	if reportingEnabled {
		rollbar.Close()
	}
}
