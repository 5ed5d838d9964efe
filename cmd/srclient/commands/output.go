package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/simplyrestful-client/internal/constants"
	"github.com/fivetwenty-io/simplyrestful-client/pkg/simplyrestful"
)

// outputFormat returns the configured output format. Without one, terminals
// get a table and everything else gets JSON.
func outputFormat() (string, error) {
	format := strings.ToLower(viper.GetString("output"))

	switch format {
	case constants.FormatTable, constants.FormatJSON, constants.FormatYAML:
		return format, nil
	case "":
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return constants.FormatTable, nil
		}

		return constants.FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", constants.ErrInvalidOutputFormat, format)
	}
}

// encode writes value as JSON or YAML. It reports false for the table format.
func encode(out io.Writer, format string, value interface{}) (bool, error) {
	switch format {
	case constants.FormatJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")

		return true, encoder.Encode(value)
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(out)
		defer func() { _ = encoder.Close() }()

		return true, encoder.Encode(value)
	default:
		return false, nil
	}
}

// renderProperties renders key/value pairs as a two column table.
func renderProperties(out io.Writer, rows [][2]string) error {
	table := tablewriter.NewWriter(out)
	table.Header("Property", "Value")

	for _, row := range rows {
		_ = table.Append(row[0], row[1])
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// renderDocument renders one resource with its fields sorted by name.
func renderDocument(out io.Writer, doc simplyrestful.Document) error {
	keys := make([]string, 0, len(doc))
	for key := range doc {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	rows := make([][2]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, [2]string{key, formatValue(doc[key])})
	}

	return renderProperties(out, rows)
}

// renderDocuments renders a page of resources, one row each. The columns are
// the self link followed by the most common scalar fields.
func renderDocuments(out io.Writer, docs []simplyrestful.Document, total int64) error {
	columns := tableColumns(docs)

	title := cases.Title(language.English)

	headers := make([]interface{}, 0, len(columns)+1)
	headers = append(headers, "Self")

	for _, column := range columns {
		headers = append(headers, title.String(column))
	}

	table := tablewriter.NewWriter(out)
	table.Header(headers...)

	for _, doc := range docs {
		self := constants.NotAvailable
		if link := doc.SelfLink(); link != nil {
			self = link.Href
		}

		cells := make([]interface{}, 0, len(columns)+1)
		cells = append(cells, self)

		for _, column := range columns {
			cells = append(cells, formatValue(doc[column]))
		}

		_ = table.Append(cells...)
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	if total == simplyrestful.UnknownTotal {
		_, err = fmt.Fprintf(out, "\n%d resources shown, total unknown\n", len(docs))
	} else {
		_, err = fmt.Fprintf(out, "\n%d of %d resources shown\n", len(docs), total)
	}

	return err
}

// tableColumns picks the scalar fields shared by most documents, most common
// first and then by name.
func tableColumns(docs []simplyrestful.Document) []string {
	counts := make(map[string]int)

	for _, doc := range docs {
		for key, value := range doc {
			if key == "self" || !isScalar(value) {
				continue
			}

			counts[key]++
		}
	}

	columns := make([]string, 0, len(counts))
	for key := range counts {
		columns = append(columns, key)
	}

	sort.Slice(columns, func(i, j int) bool {
		if counts[columns[i]] != counts[columns[j]] {
			return counts[columns[i]] > counts[columns[j]]
		}

		return columns[i] < columns[j]
	})

	if len(columns) > constants.MaxTableColumns {
		columns = columns[:constants.MaxTableColumns]
	}

	return columns
}

func isScalar(value interface{}) bool {
	switch value.(type) {
	case map[string]interface{}, []interface{}:
		return false
	default:
		return true
	}
}

// formatValue renders a field for a table cell, truncating long values.
func formatValue(value interface{}) string {
	var text string

	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		text = typed
	case map[string]interface{}, []interface{}:
		data, err := json.Marshal(typed)
		if err != nil {
			return fmt.Sprint(typed)
		}

		text = string(data)
	default:
		text = fmt.Sprint(typed)
	}

	runes := []rune(text)
	if len(runes) > constants.StringTruncationLimit {
		return string(runes[:constants.StringTruncationLimit-3]) + "..."
	}

	return text
}
