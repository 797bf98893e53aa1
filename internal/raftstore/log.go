package raftstore

// Log is an ordered, densely indexed sequence of log entries. Positions are
// 0-based offsets into the stored slice; mapping positions to global log
// indices is the caller's bookkeeping. Entries are immutable once appended
// and leave the log only through truncation.
type Log struct {
	entries []LogEntry
}

// Append adds e at the end of the log.
func (l *Log) Append(e LogEntry) {
	l.entries = append(l.entries, e)
}

// Entry returns the entry at pos, or false if pos is out of range.
// An out-of-range position is not fatal: the caller decides whether it
// means "compacted into the snapshot" or "not received yet".
func (l *Log) Entry(pos int) (LogEntry, bool) {
	if pos < 0 || pos >= len(l.entries) {
		return LogEntry{}, false
	}
	return l.entries[pos], true
}

// EntriesFrom returns a contiguous view of the log from pos to the end.
// The slice aliases the log's storage and is invalidated by mutation.
func (l *Log) EntriesFrom(pos int) []LogEntry {
	if pos < 0 {
		pos = 0
	}
	if pos > len(l.entries) {
		pos = len(l.entries)
	}
	return l.entries[pos:]
}

// Len reports the number of stored entries.
func (l *Log) Len() int {
	return len(l.entries)
}

// TruncatePrefix drops all entries at positions < pos, after the entries
// became obsolete through a snapshot. No-op for pos <= 0.
func (l *Log) TruncatePrefix(pos int) {
	if pos <= 0 {
		return
	}
	if pos > len(l.entries) {
		pos = len(l.entries)
	}
	remaining := len(l.entries) - pos
	copy(l.entries, l.entries[pos:])
	l.entries = l.entries[:remaining]
}

// TruncateSuffix drops all entries at positions >= pos, when a conflicting
// suffix is overwritten by a new leader. No-op for pos >= Len.
func (l *Log) TruncateSuffix(pos int) {
	if pos >= len(l.entries) {
		return
	}
	if pos < 0 {
		pos = 0
	}
	l.entries = l.entries[:pos]
}

// LastConfigIndex returns the position of the most recent configuration
// change entry, or false if none survives since the last truncation.
// Config entries are rare, so a backward scan beats indexing them.
func (l *Log) LastConfigIndex() (int, bool) {
	for i := len(l.entries) - 1; i >= 0; i-- {
		if l.entries[i].Type == EntryConfig {
			return i, true
		}
	}
	return 0, false
}
