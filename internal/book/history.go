package book

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	tickHeader = "dateTime,bid,ask,bidSize,askSize"
	tobHeader  = "dateTime,bid,ask"
)

var symbolSanitizer = strings.NewReplacer("/", "", "\\", "", ":", "")

// SanitizeSymbol strips separator characters so a symbol can key a file name.
func SanitizeSymbol(symbol string) string {
	return symbolSanitizer.Replace(symbol)
}

// TickFilePath returns the tick history file for a symbol.
func TickFilePath(dir, symbol string) string {
	return filepath.Join(dir, SanitizeSymbol(symbol)+".csv")
}

// TOBFilePath returns the top-of-book history file for a symbol.
func TOBFilePath(dir, symbol string) string {
	return filepath.Join(dir, SanitizeSymbol(symbol)+"_TOB.csv")
}

// WriteTickHistory rewrites the symbol's full tick log. Each flush replaces
// the file; the logs are append-only in memory so the rewrite is a superset
// of the previous one.
func WriteTickHistory(dir, symbol string, ticks []Tick) error {
	var sb strings.Builder
	sb.WriteString(tickHeader)
	sb.WriteByte('\n')
	for _, t := range ticks {
		sb.WriteString(t.Time.UTC().Format(timestampLayout))
		sb.WriteByte(',')
		sb.WriteString(formatPrice(t.Bid))
		sb.WriteByte(',')
		sb.WriteString(formatPrice(t.Ask))
		sb.WriteByte(',')
		sb.WriteString(strconv.Itoa(t.BidSize))
		sb.WriteByte(',')
		sb.WriteString(strconv.Itoa(t.AskSize))
		sb.WriteByte('\n')
	}
	return writeFile(TickFilePath(dir, symbol), sb.String())
}

// WriteTOBHistory rewrites the symbol's full top-of-book log.
func WriteTOBHistory(dir, symbol string, ticks []TOBTick) error {
	var sb strings.Builder
	sb.WriteString(tobHeader)
	sb.WriteByte('\n')
	for _, t := range ticks {
		sb.WriteString(t.Time.UTC().Format(timestampLayout))
		sb.WriteByte(',')
		sb.WriteString(formatPrice(t.Bid))
		sb.WriteByte(',')
		sb.WriteString(formatPrice(t.Ask))
		sb.WriteByte('\n')
	}
	return writeFile(TOBFilePath(dir, symbol), sb.String())
}

const timestampLayout = "20060102-15:04:05.000"

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func writeFile(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	return nil
}
