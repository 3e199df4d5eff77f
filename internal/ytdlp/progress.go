package ytdlp

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// EventKind classifies an interpreted output line.
type EventKind int

const (
	// EventNone marks a line with no progress information.
	EventNone EventKind = iota
	// EventProgress carries a percentage for the current file.
	EventProgress
	// EventFile marks the start of a new file transfer.
	EventFile
)

// Event is the interpretation of a single yt-dlp output line. The exact line
// format is the tool's own versioned contract, so parsing is best-effort and
// unrecognized lines come back as EventNone.
type Event struct {
	Kind    EventKind
	Percent float64 // valid for EventProgress; -1 when absent
	Speed   string  // e.g. "1.50MiB/s", may be empty
	ETA     *time.Duration

	Destination string // valid for EventFile when a Destination line was seen
	Item, Total int    // valid for EventFile on "Downloading item i of n"
}

var itemOfRe = regexp.MustCompile(`^\[download\] Downloading item (\d+) of (\d+)$`)

// ParseLine interprets one line of yt-dlp console output.
func ParseLine(line string) Event {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "[download]") {
		return Event{Kind: EventNone}
	}

	if m := itemOfRe.FindStringSubmatch(line); m != nil {
		item, _ := strconv.Atoi(m[1])
		total, _ := strconv.Atoi(m[2])
		return Event{Kind: EventFile, Item: item, Total: total}
	}

	rest := strings.TrimSpace(strings.TrimPrefix(line, "[download]"))
	if dest, ok := strings.CutPrefix(rest, "Destination: "); ok {
		return Event{Kind: EventFile, Destination: strings.TrimSpace(dest)}
	}

	// e.g. "[download]  45.2% of 10.00MiB at  1.50MiB/s ETA 00:04"
	idx := strings.Index(rest, "%")
	if idx == -1 {
		return Event{Kind: EventNone}
	}
	pct, err := strconv.ParseFloat(strings.TrimSpace(rest[:idx]), 64)
	if err != nil {
		return Event{Kind: EventNone}
	}

	ev := Event{Kind: EventProgress, Percent: pct}
	if at := strings.Index(rest, " at "); at != -1 {
		speed := strings.TrimSpace(rest[at+4:])
		if sp := strings.IndexByte(speed, ' '); sp != -1 {
			speed = speed[:sp]
		}
		ev.Speed = speed
	}
	if eta := strings.Index(rest, "ETA "); eta != -1 {
		s := strings.TrimSpace(rest[eta+4:])
		if sp := strings.IndexByte(s, ' '); sp != -1 {
			s = s[:sp]
		}
		if d, err := parseClock(s); err == nil {
			ev.ETA = &d
		}
	}
	return ev
}

// parseClock parses durations like "00:04", "01:23:45" or plain seconds.
func parseClock(s string) (time.Duration, error) {
	parts := strings.Split(s, ":")
	var total int
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, err
		}
		total = total*60 + n
	}
	return time.Duration(total) * time.Second, nil
}
