package xlog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

const (
	colorReset   = "\033[0m"
	colorDebug   = "\033[1;36m"
	colorWarning = "\033[1;33m"
	colorError   = "\033[1;31m"
)

var reservedKeys = map[string]bool{
	"app": true, "time": true, "level": true, "msg": true, "file": true, "logger": true,
}

func levelColor(level string) (string, string) {
	switch level {
	case "debug":
		return colorDebug, colorReset
	case "warn":
		return colorWarning, colorReset
	case "error", "fatal":
		return colorError, colorReset
	}
	return "", ""
}

// consoleWriter renders the json entries produced by zap as one human line on stdout.
type consoleWriter struct {
	color bool
}

func (c *consoleWriter) Write(p []byte) (int, error) {
	entry := map[string]interface{}{}
	if err := json.Unmarshal(p, &entry); err != nil {
		return len(p), nil
	}

	keys := make([]string, 0, len(entry))
	for k := range entry {
		if !reservedKeys[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	extra := ""
	for _, k := range keys {
		extra += fmt.Sprintf("%s:%v ", k, entry[k])
	}
	if extra != "" {
		extra = "{ " + extra + "}"
	}

	pre, sub := "", ""
	if c.color {
		pre, sub = levelColor(fmt.Sprint(entry["level"]))
	}

	ts := fmt.Sprint(entry["time"])
	if t, err := time.Parse("2006-01-02T15:04:05.999Z07:00", ts); err == nil {
		ts = t.Format("2006/01/02 15:04:05")
	}

	fname, _ := entry["file"].(string)
	if len(fname) < 20 {
		fname += strings.Repeat(" ", 20-len(fname))
	} else if len(fname) > 20 {
		fname = fname[len(fname)-20:]
	}

	fmt.Fprintf(os.Stdout, pre+"[%s] %s %s: %s %s"+sub+"\n", entry["app"], ts, fname, entry["msg"], extra)
	return len(p), nil
}
