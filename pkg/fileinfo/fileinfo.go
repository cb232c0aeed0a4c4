package fileinfo

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/nethoundsh/dedupe/pkg/record"
)

// Meta is the subset of a stat result an entry carries.
type Meta struct {
	Size     int64
	Modified time.Time
}

func New(fi os.FileInfo) Meta {
	return Meta{
		Size:     fi.Size(),
		Modified: fi.ModTime(),
	}
}

// SizeText is the decimal byte count stored in record.Entry.Size.
func (m Meta) SizeText() string {
	return strconv.FormatInt(m.Size, 10)
}

// ModifiedText is the local-time stamp stored in record.Entry.Modified.
func (m Meta) ModifiedText() string {
	return m.Modified.Local().Format(record.TimeLayout)
}

// Human renders a decimal size string like "1.2 MB". Empty and
// unparsable input is returned unchanged.
func Human(size string) string {
	n, err := strconv.ParseUint(size, 10, 64)
	if err != nil {
		return size
	}
	return humanize.Bytes(n)
}

// Bytes parses a decimal size string; empty input is zero.
func Bytes(size string) int64 {
	n, err := strconv.ParseInt(size, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// ParseSize accepts "0", "512", "10KB", "1.5 MiB" and similar.
func ParseSize(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	return int64(n), nil
}
