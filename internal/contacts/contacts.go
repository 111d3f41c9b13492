package contacts

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

// UnknownName is rendered when a sender cannot be matched to a contact.
const UnknownName = "Desconhecido"

// Book maps phone numbers to display names. Lookups are informational only,
// so a failed load degrades to an empty book rather than an error.
type Book struct {
	matchLast8 bool
	logPath    string

	mu       sync.Mutex
	byNumber map[string]string
	seen     map[string]struct{}
}

func NewBook(matchLast8 bool, logPath string) *Book {
	return &Book{
		matchLast8: matchLast8,
		logPath:    logPath,
		byNumber:   make(map[string]string),
		seen:       make(map[string]struct{}),
	}
}

// LoadURL ingests a published-sheet CSV export. Any failure leaves the book
// as it was.
func (b *Book) LoadURL(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("contacts fetch status %d", resp.StatusCode)
	}
	return b.LoadCSV(resp.Body)
}

func (b *Book) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return b.LoadCSV(f)
}

// LoadCSV reads "name,phone" rows. The first row is treated as a header and
// skipped; rows without both columns are ignored.
func (b *Book) LoadCSV(r io.Reader) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	rows, err := cr.ReadAll()
	if err != nil {
		return fmt.Errorf("contacts csv: %w", err)
	}

	loaded := make(map[string]string)
	for i, row := range rows {
		if i == 0 || len(row) < 2 {
			continue
		}
		name := strings.TrimSpace(row[0])
		number := Digits(row[1])
		if name == "" || number == "" {
			continue
		}
		loaded[number] = name
	}

	b.mu.Lock()
	b.byNumber = loaded
	b.mu.Unlock()

	slog.Info("contacts loaded", "count", len(loaded))
	return nil
}

// Lookup resolves a display name: exact match first, then last-8-digit
// suffix match when enabled. Empty string means unknown. The suffix match
// can mis-attribute across area codes; accepted, forwards are informational.
func (b *Book) Lookup(number string) string {
	digits := Digits(number)

	b.mu.Lock()
	defer b.mu.Unlock()

	if name, ok := b.byNumber[digits]; ok {
		return name
	}

	if b.matchLast8 && len(digits) >= 8 {
		suffix := digits[len(digits)-8:]
		for num, name := range b.byNumber {
			if strings.HasSuffix(num, suffix) {
				return name
			}
		}
	}
	return ""
}

func (b *Book) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.byNumber)
}

// LogObserved appends one line per sender per process run to the observed
// contacts log. I/O errors are logged and swallowed.
func (b *Book) LogObserved(name, number string) {
	digits := Digits(number)

	b.mu.Lock()
	if _, ok := b.seen[digits]; ok {
		b.mu.Unlock()
		return
	}
	b.seen[digits] = struct{}{}
	b.mu.Unlock()

	if b.logPath == "" {
		return
	}

	f, err := os.OpenFile(b.logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		slog.Warn("contacts log open failed", "path", b.logPath, "error", err)
		return
	}
	defer f.Close()

	line := fmt.Sprintf("%s;%s;%s\n", name, digits, time.Now().Format(time.RFC3339))
	if _, err := f.WriteString(line); err != nil {
		slog.Warn("contacts log write failed", "path", b.logPath, "error", err)
	}
}

// Digits strips everything but 0-9 from a number.
func Digits(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// FormatPhone renders an E.164 number for display:
// 5534984044040 -> "55 34 98404-4040". Numbers shorter than 11 digits are
// returned as bare digits.
func FormatPhone(number string) string {
	digits := Digits(number)
	if len(digits) < 11 {
		return digits
	}
	ddi := digits[:2]
	ddd := digits[2:4]
	middle := digits[4:9]
	end := digits[9:]
	return fmt.Sprintf("%s %s %s-%s", ddi, ddd, middle, end)
}
