package gallery

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"

	"github.com/lookbook-app/lookbook/internal/models"
)

// Formats lists the supported output formats
var Formats = []string{"text", "json", "csv", "yaml", "parquet"}

// DefaultFormat picks text for terminals and json for everything else
func DefaultFormat(w io.Writer) string {
	file, ok := w.(*os.File)
	if !ok {
		return "json"
	}
	fd := file.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return "text"
	}
	return "json"
}

// Render writes items to w in the given format
func Render(w io.Writer, items []models.Item, format string) error {
	switch format {
	case "text":
		return renderText(w, items)
	case "json":
		return renderJSON(w, items)
	case "csv":
		return renderCSV(w, items)
	case "yaml":
		return renderYAML(w, items)
	case "parquet":
		return renderParquet(w, items)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func renderText(w io.Writer, items []models.Item) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "No items to show.")
		return err
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Category", "Name", "Description", "URL"})
	for i, item := range items {
		tw.AppendRow(table.Row{
			i + 1,
			item.Category,
			item.Name,
			truncate(item.Description, 60),
			item.URL,
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	_, err := fmt.Fprintln(w, tw.Render())
	return err
}

func renderJSON(w io.Writer, items []models.Item) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(items)
}

func renderCSV(w io.Writer, items []models.Item) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"index", "id", "category", "name", "description", "url"}); err != nil {
		return err
	}
	for i, item := range items {
		row := []string{strconv.Itoa(i + 1), item.ID, item.Category, item.Name, item.Description, item.URL}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func renderYAML(w io.Writer, items []models.Item) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(map[string][]models.Item{"items": items}); err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return encoder.Close()
}

func renderParquet(w io.Writer, items []models.Item) error {
	writer := parquet.NewGenericWriter[models.Item](w)
	if _, err := writer.Write(items); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

// truncate shortens s to maxLen runes so multi-byte text is never split
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
