package vcs

import (
	"strconv"
	"strings"
)

// progressParser interprets the human-readable progress a git server sends
// over the sideband channel into TransferProgress updates. Lines arrive
// terminated by \r (live updates) or \n (final form), possibly split
// across writes. Counters only ever grow, and once delta resolution
// starts the object phase is pinned complete.
type progressParser struct {
	buf        strings.Builder
	current    TransferProgress
	deltaPhase bool
	emit       func(TransferProgress)
}

func newProgressParser(emit func(TransferProgress)) *progressParser {
	return &progressParser{emit: emit}
}

func (p *progressParser) Write(data []byte) (int, error) {
	for _, c := range data {
		if c == '\r' || c == '\n' {
			if p.buf.Len() > 0 {
				p.line(p.buf.String())
				p.buf.Reset()
			}
			continue
		}
		p.buf.WriteByte(c)
	}
	return len(data), nil
}

func (p *progressParser) line(line string) {
	line = strings.TrimSpace(line)
	var updated bool
	switch {
	case strings.HasPrefix(line, "Enumerating objects:"):
		if n, ok := leadingInt(strings.TrimSpace(strings.TrimPrefix(line, "Enumerating objects:"))); ok {
			updated = p.setTotalObjects(n)
		}
	case strings.HasPrefix(line, "Counting objects:"):
		if _, total, ok := fraction(line); ok {
			updated = p.setTotalObjects(total)
		}
	case strings.HasPrefix(line, "Receiving objects:"):
		if done, total, ok := fraction(line); ok {
			updated = p.setReceived(done, total)
		}
		if n, ok := byteCount(line); ok {
			updated = p.setBytes(n) || updated
		}
	case strings.HasPrefix(line, "Resolving deltas:"):
		if done, total, ok := fraction(line); ok {
			updated = p.setDeltas(done, total)
		}
	case strings.HasPrefix(line, "Total "):
		updated = p.totalLine(line)
	}
	if updated && p.emit != nil {
		p.emit(p.current)
	}
}

func (p *progressParser) setTotalObjects(n int) bool {
	if p.deltaPhase {
		return false
	}
	if n > p.current.TotalObjects {
		p.current.TotalObjects = n
		return true
	}
	return false
}

// setReceived ignores stale object lines once the delta phase has begun:
// the phase switch is one-way.
func (p *progressParser) setReceived(done, total int) bool {
	if p.deltaPhase {
		return false
	}
	changed := p.setTotalObjects(total)
	if done > p.current.TotalObjects {
		done = p.current.TotalObjects
	}
	if done > p.current.ReceivedObjects {
		p.current.ReceivedObjects = done
		p.current.IndexedObjects = done
		changed = true
	}
	return changed
}

func (p *progressParser) setBytes(n int64) bool {
	if n > p.current.ReceivedBytes {
		p.current.ReceivedBytes = n
		return true
	}
	return false
}

// setDeltas also pins the object phase: deltas only resolve after every
// object has been received, and the phase must not revert.
func (p *progressParser) setDeltas(done, total int) bool {
	var changed bool
	if total > p.current.TotalDeltas {
		p.current.TotalDeltas = total
		changed = true
	}
	if done > p.current.IndexedDeltas {
		p.current.IndexedDeltas = done
		changed = true
	}
	return p.finishObjects() || changed
}

// totalLine handles the pack trailer, e.g.
// "Total 5 (delta 1), reused 5 (delta 1), pack-reused 0".
func (p *progressParser) totalLine(line string) bool {
	var changed bool
	fields := strings.Fields(line)
	if len(fields) >= 2 {
		if n, ok := leadingInt(fields[1]); ok {
			changed = p.setTotalObjects(n)
			// The trailer arrives once the pack is fully streamed.
			changed = p.finishObjects() || changed
		}
	}
	if i := strings.Index(line, "(delta "); i >= 0 {
		if n, ok := leadingInt(line[i+len("(delta "):]); ok && n > p.current.TotalDeltas {
			p.current.TotalDeltas = n
			changed = true
		}
	}
	return changed
}

// finishObjects latches the delta phase and marks every object received.
// Both the delta lines and the pack trailer mean the pack has fully
// streamed, so later object-count lines are stale.
func (p *progressParser) finishObjects() bool {
	p.deltaPhase = true
	if p.current.ReceivedObjects < p.current.TotalObjects {
		p.current.ReceivedObjects = p.current.TotalObjects
		p.current.IndexedObjects = p.current.TotalObjects
		return true
	}
	return false
}

// fraction extracts the "(done/total)" clause of a progress line.
func fraction(line string) (done, total int, ok bool) {
	open := strings.IndexByte(line, '(')
	if open < 0 {
		return 0, 0, false
	}
	rest := line[open+1:]
	end := strings.IndexByte(rest, ')')
	if end < 0 {
		return 0, 0, false
	}
	parts := strings.SplitN(rest[:end], "/", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	done, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	total, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil || done < 0 || total < 0 {
		return 0, 0, false
	}
	return done, total, true
}

func leadingInt(s string) (int, bool) {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// byteCount parses the transfer size clause following the fraction,
// e.g. ", 10.52 MiB | 1.20 MiB/s".
func byteCount(line string) (int64, bool) {
	after := line
	if i := strings.IndexByte(after, ')'); i >= 0 {
		after = after[i+1:]
	}
	fields := strings.Fields(strings.ReplaceAll(after, ",", " "))
	for i := 0; i+1 < len(fields); i++ {
		val, err := strconv.ParseFloat(fields[i], 64)
		if err != nil || val < 0 {
			continue
		}
		if mult, ok := sizeUnit(fields[i+1]); ok {
			return int64(val * float64(mult)), true
		}
	}
	return 0, false
}

func sizeUnit(s string) (int64, bool) {
	switch s {
	case "bytes", "B":
		return 1, true
	case "KiB":
		return 1 << 10, true
	case "MiB":
		return 1 << 20, true
	case "GiB":
		return 1 << 30, true
	}
	return 0, false
}
