package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/KaramelBytes/engage-cli/internal/logging"
)

// LoadOptions controls how delimited files are read.
type LoadOptions struct {
	// Delimiter for CSV. If 0, sniffs among ',', ';', '\t'.
	Delimiter rune
	// Fallback names the legacy encoding tried when the file is not valid UTF-8.
	// Empty disables the fallback.
	Fallback string
	Logger   *slog.Logger
}

// DefaultLoadOptions reads comma/semicolon/tab files with a Latin-1 fallback.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{Fallback: "latin1"}
}

var legacyEncodings = map[string]encoding.Encoding{
	"latin1":       charmap.ISO8859_1,
	"latin-1":      charmap.ISO8859_1,
	"iso-8859-1":   charmap.ISO8859_1,
	"iso8859-1":    charmap.ISO8859_1,
	"latin9":       charmap.ISO8859_15,
	"iso-8859-15":  charmap.ISO8859_15,
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
}

// LookupEncoding resolves a legacy encoding name.
func LookupEncoding(name string) (encoding.Encoding, bool) {
	enc, ok := legacyEncodings[strings.ToLower(strings.TrimSpace(name))]
	return enc, ok
}

// Load reads a delimited file into a table of text cells. Empty fields are
// null. The file is decoded as UTF-8 first and, if that fails, with the
// configured legacy encoding. Every call re-reads the file.
func Load(path string, opt LoadOptions) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Path: path}
		}
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return Parse(path, raw, opt)
}

// Parse decodes and parses delimited bytes the way Load does; name is used for
// delimiter sniffing and error messages.
func Parse(name string, raw []byte, opt LoadOptions) (*Table, error) {
	log := logging.OrDiscard(opt.Logger)
	text, enc, err := decode(name, raw, opt.Fallback)
	if err != nil {
		return nil, err
	}
	log.Debug("dataset decoded", "path", name, "encoding", enc, "bytes", len(raw))

	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(name, text)
	}
	t, err := parseDelimited(text, delim)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	log.Info("dataset loaded", "path", name, "rows", t.Len(), "columns", len(t.Columns), "encoding", enc)
	return t, nil
}

func decode(path string, raw []byte, fallback string) (string, string, error) {
	body := bytes.TrimPrefix(raw, []byte("\xEF\xBB\xBF"))
	if utf8.Valid(body) {
		return string(body), "utf-8", nil
	}
	primaryErr := &DecodeError{Path: path, Encoding: "utf-8", Err: errors.New("invalid UTF-8 byte sequence")}
	if strings.TrimSpace(fallback) == "" {
		return "", "", primaryErr
	}
	enc, ok := LookupEncoding(fallback)
	if !ok {
		return "", "", &DecodeError{Path: path, Encoding: fallback, Err: fmt.Errorf("unsupported encoding (after %v)", primaryErr.Err)}
	}
	out, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return "", "", &DecodeError{Path: path, Encoding: fallback, Err: err}
	}
	if bytes.ContainsRune(out, utf8.RuneError) {
		return "", "", &DecodeError{Path: path, Encoding: fallback, Err: errors.New("undefined characters")}
	}
	return string(out), fallback, nil
}

func parseDelimited(text string, delim rune) (*Table, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.Comma = delim
	// TrimLeadingSpace would swallow empty tab-separated cells.
	r.TrimLeadingSpace = delim != '\t'

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &Table{Rows: []Row{}}, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	t := &Table{Columns: make([]Column, len(header)), Rows: []Row{}}
	for i, h := range header {
		t.Columns[i] = Column{Name: strings.TrimSpace(h), Kind: Text}
	}
	line := 1
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", line+1, err)
		}
		line++
		row := make(Row, len(header))
		for j := range row {
			if j >= len(rec) {
				continue
			}
			v := strings.TrimSpace(rec[j])
			if v == "" {
				continue
			}
			row[j] = String(v)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// sniffDelimiter picks tab for .tsv files and otherwise the most frequent of
// ',', ';' and '\t' in the header line.
func sniffDelimiter(path, text string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	head := text
	if i := strings.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}
	best, bestN := ',', strings.Count(head, ",")
	for _, d := range []rune{';', '\t'} {
		if n := strings.Count(head, string(d)); n > bestN {
			best, bestN = d, n
		}
	}
	return best
}
