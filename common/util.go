package common

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type TimeItKey int

type TimeItType struct {
	timers  map[string]time.Time
	results string
}

// IsValidUUID check if the uuid is valid
func IsValidUUID(u string) bool {
	_, err := uuid.Parse(u)
	return err == nil
}

// Contains search an element in an array
func Contains(a []string, x string) bool {
	for _, n := range a {
		if x == n {
			return true
		}
	}
	return false
}

// TimeItContext returns a context able to record named timers, see TimeIt and TimeEnd
func TimeItContext(ctx context.Context) context.Context {
	value := &TimeItType{
		timers: make(map[string]time.Time),
	}
	return context.WithValue(ctx, TimeItKey(0), value)
}

func timeItValue(ctx context.Context) *TimeItType {
	value, _ := ctx.Value(TimeItKey(0)).(*TimeItType)
	return value
}

// TimeIt starts the timer name, no-op on a context without timers
func TimeIt(ctx context.Context, name string) {
	ctxValue := timeItValue(ctx)
	if ctxValue == nil {
		return
	}
	if _, present := ctxValue.timers[name]; present {
		return
	}
	ctxValue.timers[name] = time.Now()
}

// TimeEnd stops the timer name and returns its duration in ms
func TimeEnd(ctx context.Context, name string) int64 {
	ctxValue := timeItValue(ctx)
	if ctxValue == nil {
		return 0
	}
	start, present := ctxValue.timers[name]
	if !present {
		return 0
	}
	delete(ctxValue.timers, name)
	dur := time.Since(start).Milliseconds()
	if len(ctxValue.results) == 0 {
		ctxValue.results = fmt.Sprintf("%s:%dms", name, dur)
	} else {
		ctxValue.results = fmt.Sprintf("%s %s:%dms", ctxValue.results, name, dur)
	}
	return dur
}

// TimeResults the stopped timers as "name:12ms other:3ms"
func TimeResults(ctx context.Context) string {
	ctxValue := timeItValue(ctx)
	if ctxValue == nil {
		return ""
	}
	return ctxValue.results
}
