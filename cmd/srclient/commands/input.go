package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/simplyrestful-client/internal/constants"
	"github.com/fivetwenty-io/simplyrestful-client/pkg/simplyrestful"
)

// readDocument reads a resource from --data or --file. Both JSON and YAML
// are accepted since YAML is a superset of JSON. A file of "-" is stdin.
func readDocument(cmd *cobra.Command) (simplyrestful.Document, error) {
	data, _ := cmd.Flags().GetString("data")
	file, _ := cmd.Flags().GetString("file")

	if data != "" && file != "" {
		return nil, fmt.Errorf("%w: use either --data or --file", constants.ErrConflictingInput)
	}

	var raw []byte

	switch {
	case data != "":
		raw = []byte(data)
	case file == "-":
		content, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read resource from stdin: %w", err)
		}

		raw = content
	case file != "":
		// #nosec G304
		content, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read resource file: %w", err)
		}

		raw = content
	default:
		return nil, constants.ErrNoResourceData
	}

	var value interface{}

	err := yaml.Unmarshal(raw, &value)
	if err != nil {
		return nil, fmt.Errorf("failed to parse resource: %w", err)
	}

	doc, ok := normalize(value).(map[string]interface{})
	if !ok {
		return nil, constants.ErrResourceNotAnObject
	}

	return simplyrestful.Document(doc), nil
}

// normalize converts YAML decoded maps into the JSON compatible shape.
func normalize(value interface{}) interface{} {
	switch typed := value.(type) {
	case map[string]interface{}:
		for key, item := range typed {
			typed[key] = normalize(item)
		}

		return typed
	case map[interface{}]interface{}:
		converted := make(map[string]interface{}, len(typed))
		for key, item := range typed {
			converted[fmt.Sprint(key)] = normalize(item)
		}

		return converted
	case []interface{}:
		for i, item := range typed {
			typed[i] = normalize(item)
		}

		return typed
	default:
		return value
	}
}

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("data", "d", "", "resource as JSON or YAML")
	cmd.Flags().StringP("file", "f", "", "file holding the resource as JSON or YAML, '-' for stdin")
}

// confirm asks the user for confirmation. Without a terminal on the input
// there is nobody to ask, so it fails.
func confirm(cmd *cobra.Command, prompt string) (bool, error) {
	in := cmd.InOrStdin()

	file, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return false, constants.ErrConfirmationRequired
	}

	_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", prompt)
	if err != nil {
		return false, err
	}

	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}

	answer = strings.ToLower(strings.TrimSpace(answer))

	return answer == "y" || answer == "yes", nil
}
