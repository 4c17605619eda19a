// Package filedb is an append-only journal of the commands a worker received, one json
// entry per line, which can be followed live with Follow.
package filedb

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"trademan/pkg/bus"

	"github.com/nxadm/tail"
)

// Entry is one journal line.
type Entry struct {
	Time     time.Time       `json:"time"`
	Exchange string          `json:"exchange"`
	Instance string          `json:"instance,omitempty"`
	Action   string          `json:"action"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

type Filedb struct {
	FilePath string

	mu   sync.Mutex
	file *os.File
}

func New(filePath string) (fdb *Filedb, err error) {
	fdb = &Filedb{
		FilePath: filePath,
	}
	err = fdb.Open()
	return
}

// JournalPath is the journal file of an exchange under dir.
func JournalPath(dir, exchange string) string {
	return filepath.Join(dir, strings.ToLower(exchange)+".journal")
}

func (f *Filedb) Open() (err error) {
	err = os.MkdirAll(filepath.Dir(f.FilePath), 0755)
	if err != nil {
		return
	}

	f.file, err = os.OpenFile(f.FilePath, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	return
}

func (f *Filedb) Close() (err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return
	}
	err = f.file.Close()
	f.file = nil
	return
}

// Append writes one entry for cmd.
func (f *Filedb) Append(exchange, instance string, cmd bus.Command) (err error) {
	b, err := json.Marshal(Entry{
		Time:     time.Now().UTC(),
		Exchange: strings.ToLower(exchange),
		Instance: instance,
		Action:   cmd.Action,
		Payload:  cmd.Payload,
	})
	if err != nil {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return os.ErrClosed
	}
	_, err = f.file.Write(append(b, '\n'))
	return
}

// ReadLastLine reads the last non-empty line of the file
func (f *Filedb) ReadLastLine() (s string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stat, err := f.file.Stat()
	if err != nil {
		return
	}

	// entries are short, the last one fits in the trailing 4KB
	var off int64
	size := stat.Size()
	n := size
	if size > 4096 {
		n = 4096
		off = size - 4096
	}
	b := make([]byte, n)
	_, err = f.file.ReadAt(b, off)
	if err != nil {
		return
	}

	txt := strings.Trim(string(b), " \n")
	txts := strings.Split(txt, "\n")
	s = txts[len(txts)-1]
	return
}

// Last decodes the newest entry, nil for an empty journal.
func (f *Filedb) Last() (*Entry, error) {
	line, err := f.ReadLastLine()
	if err != nil || line == "" {
		return nil, err
	}
	e := &Entry{}
	if err = json.Unmarshal([]byte(line), e); err != nil {
		return nil, err
	}
	return e, nil
}

// Follow passes every entry, existing ones first, to fn until ctx is done or a line
// fails to read.
func Follow(ctx context.Context, filePath string, fn func(Entry)) (err error) {
	ta, err := tail.TailFile(filePath, tail.Config{
		Follow:        true,
		ReOpen:        true,
		MustExist:     false,
		CompleteLines: true,
		Logger:        tail.DiscardingLogger,
	})
	if err != nil {
		return
	}
	defer ta.Cleanup()
	defer ta.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-ta.Lines:
			if !ok {
				return ta.Err()
			}
			if line.Err != nil {
				// stop rather than skip, a skipped line would reorder the journal
				return line.Err
			}
			if strings.TrimSpace(line.Text) == "" {
				continue
			}
			e := Entry{}
			if err = json.Unmarshal([]byte(line.Text), &e); err != nil {
				return
			}
			fn(e)
		}
	}
}
