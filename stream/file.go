package stream

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jangala-dev/logflux-relay/config"
	"github.com/jangala-dev/logflux-relay/message"
)

func init() {
	RegisterAdapter(config.TypeFile, newFileStream)
}

// fileStream opens (creates/truncates) a file named
// "<YYYY-MM-DD_HHMMSS>_<name>", writes a header line, then one line per
// inbound message (spec.md §4.2, §6).
type fileStream struct {
	base
	fcfg config.FileConfig
}

func newFileStream(cfg config.StreamConfig, tick time.Duration, log logrus.FieldLogger) (Adapter, error) {
	fcfg := config.FileConfig{}
	if cfg.TypeConfig.File != nil {
		fcfg = *cfg.TypeConfig.File
	}
	return &fileStream{base: newBase(cfg, tick, log), fcfg: fcfg}, nil
}

func (s *fileStream) Start() error {
	out, err := s.core.InternalOutputReceiver()
	if err != nil {
		return err
	}

	name := s.fcfg.FileName
	if name == "" {
		name = time.Now().Format("2006-01-02_150405") + "_" + s.cfg.Name
	}
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("file stream %q: open %s: %w", s.cfg.Name, name, err)
	}
	w := bufio.NewWriter(f)
	fmt.Fprint(w, formatFileHeader(s.cfg.Name))
	w.Flush()

	s.wgIO.Add(1)
	go s.runIO(out, f, w)
	return s.startCore()
}

func (s *fileStream) Stop() error { return s.stopIOAndCore() }

func (s *fileStream) runIO(out <-chan message.Message, f *os.File, w *bufio.Writer) {
	defer s.wgIO.Done()
	defer f.Close()
	defer w.Flush()

	for {
		select {
		case <-s.stopIO:
			return
		case m := <-out:
			fmt.Fprint(w, formatFileLine(m))
			if err := w.Flush(); err != nil {
				s.log.WithError(err).Warn("file stream: write failed")
			}
		}
	}
}

// formatFileHeader renders the single line written at file open
// (spec.md §4.2, §6).
func formatFileHeader(name string) string {
	return fmt.Sprintf("'%s'\n", name)
}

// formatFileLine renders one inbound message as a file record
// (spec.md §4.2, §6).
func formatFileLine(m message.Message) string {
	return fmt.Sprintf("'%s' - %s - '%s'\n", m.Originator, message.FormatTimestamp(m.TimestampMs), m.Text)
}
