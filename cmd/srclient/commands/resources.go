package commands

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/simplyrestful-client/internal/constants"
	"github.com/fivetwenty-io/simplyrestful-client/pkg/simplyrestful"
)

// NewDiscoverCommand creates the discover command.
func NewDiscoverCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "Discover the resource URI template",
		Long:  "Read the service document and OpenAPI description to find where the resource lives",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient()
			if err != nil {
				return err
			}

			headers, err := requestHeaders()
			if err != nil {
				return err
			}

			err = client.DiscoverAPI(cmd.Context(), headers)
			if err != nil {
				return fmt.Errorf("failed to discover the API: %w", err)
			}

			template, _ := client.ResourceURITemplate()

			format, err := outputFormat()
			if err != nil {
				return err
			}

			done, err := encode(cmd.OutOrStdout(), format, map[string]string{"resourceUriTemplate": template})
			if done || err != nil {
				return err
			}

			return renderProperties(cmd.OutOrStdout(), [][2]string{
				{"Media Type", formatConfigValue(viper.GetString("media-type"))},
				{"Resource URI Template", template},
			})
		},
	}
}

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	var (
		pageStart int
		pageSize  int
		fields    []string
		query     string
		sorts     []string
		params    []string
		all       bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List resources",
		Long:    "List a page of resources, or every resource with --all",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient()
			if err != nil {
				return err
			}

			opts, err := listOptions(pageStart, pageSize, fields, query, sorts, params)
			if err != nil {
				return err
			}

			var docs []simplyrestful.Document

			if all {
				docs, err = listAll(cmd.Context(), client, opts)
				if err != nil {
					return fmt.Errorf("failed to list resources: %w", err)
				}
			} else {
				docs, err = client.List(cmd.Context(), opts)
				if err != nil {
					return fmt.Errorf("failed to list resources: %w", err)
				}
			}

			total := client.TotalAmountOfLastRetrievedCollection()

			format, err := outputFormat()
			if err != nil {
				return err
			}

			if docs == nil {
				docs = []simplyrestful.Document{}
			}

			done, err := encode(cmd.OutOrStdout(), format, map[string]interface{}{"total": total, "item": docs})
			if done || err != nil {
				return err
			}

			return renderDocuments(cmd.OutOrStdout(), docs, total)
		},
	}

	cmd.Flags().IntVar(&pageStart, "page-start", 0, "index of the first resource")
	cmd.Flags().IntVar(&pageSize, "page-size", constants.DefaultPageSize, "number of resources per page")
	cmd.Flags().StringSliceVar(&fields, "fields", nil, "fields to return for each resource")
	cmd.Flags().StringVarP(&query, "query", "q", "", "filter expression")
	cmd.Flags().StringArrayVar(&sorts, "sort", nil, "sort on a field, as 'field[:asc|desc]'")
	cmd.Flags().StringArrayVar(&params, "param", nil, "additional query parameter, as 'name=value'")
	cmd.Flags().BoolVar(&all, "all", false, "request page after page until every resource is retrieved")

	return cmd
}

// listAll requests consecutive pages until one comes back short or the
// declared total is reached. A page holding only resources already seen
// also ends the listing.
func listAll(ctx context.Context, client simplyrestful.ResourceClient[simplyrestful.Document], opts *simplyrestful.ListOptions) ([]simplyrestful.Document, error) {
	if opts.PageSize <= 0 {
		opts.PageSize = constants.DefaultPageSize
	}

	var docs []simplyrestful.Document

	seen := make(map[string]struct{})

	for range constants.MaxListPages {
		count, fresh := 0, 0

		for doc, err := range client.Stream(ctx, opts) {
			if err != nil {
				return nil, err
			}

			count++

			if self := doc.SelfLink(); self != nil {
				if _, ok := seen[self.Href]; ok {
					continue
				}

				seen[self.Href] = struct{}{}
			}

			docs = append(docs, doc)
			fresh++
		}

		opts.PageStart += count

		total := client.TotalAmountOfLastRetrievedCollection()
		if fresh == 0 || count < opts.PageSize || (total != simplyrestful.UnknownTotal && int64(opts.PageStart) >= total) {
			return docs, nil
		}
	}

	return nil, fmt.Errorf("%w of %d", constants.ErrTooManyPages, constants.MaxListPages)
}

func listOptions(pageStart, pageSize int, fields []string, query string, sorts, params []string) (*simplyrestful.ListOptions, error) {
	headers, err := requestHeaders()
	if err != nil {
		return nil, err
	}

	opts := &simplyrestful.ListOptions{
		PageStart: pageStart,
		PageSize:  pageSize,
		Fields:    fields,
		Query:     query,
		Headers:   headers,
	}

	for _, raw := range sorts {
		order, err := parseSortOrder(raw)
		if err != nil {
			return nil, err
		}

		opts.Sort = append(opts.Sort, order)
	}

	if len(params) > 0 {
		opts.AdditionalQueryParameters = make(url.Values)

		for _, raw := range params {
			name, value, found := strings.Cut(raw, "=")
			if !found || name == "" {
				return nil, fmt.Errorf("%w: %q", constants.ErrInvalidQueryParam, raw)
			}

			opts.AdditionalQueryParameters.Add(name, value)
		}
	}

	return opts, nil
}

func parseSortOrder(raw string) (simplyrestful.SortOrder, error) {
	field, direction, _ := strings.Cut(raw, ":")
	if field == "" {
		return simplyrestful.SortOrder{}, fmt.Errorf("%w: %q", constants.ErrInvalidSortOrder, raw)
	}

	switch strings.ToLower(direction) {
	case "", "asc":
		return simplyrestful.SortOrder{FieldName: field, Ascending: true}, nil
	case "desc":
		return simplyrestful.SortOrder{FieldName: field}, nil
	default:
		return simplyrestful.SortOrder{}, fmt.Errorf("%w: %q", constants.ErrInvalidSortOrder, raw)
	}
}

// NewGetCommand creates the get command.
func NewGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get IDENTIFIER",
		Short: "Get a resource",
		Long:  "Get a resource by its URI or by its UUID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient()
			if err != nil {
				return err
			}

			opts, err := requestOptions()
			if err != nil {
				return err
			}

			doc, err := readResource(cmd, client, args[0], opts)
			if err != nil {
				return err
			}

			return printDocument(cmd, doc)
		},
	}
}

// readResource reads by UUID when the identifier is one and by URI otherwise.
func readResource(cmd *cobra.Command, client simplyrestful.ResourceClient[simplyrestful.Document], identifier string, opts *simplyrestful.RequestOptions) (simplyrestful.Document, error) {
	var (
		doc simplyrestful.Document
		err error
	)

	if uuid.Validate(identifier) == nil {
		doc, err = client.ReadWithUUID(cmd.Context(), identifier, opts)
	} else {
		doc, err = client.Read(cmd.Context(), identifier, opts)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get resource %s: %w", identifier, err)
	}

	return doc, nil
}

func printDocument(cmd *cobra.Command, doc simplyrestful.Document) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	done, err := encode(cmd.OutOrStdout(), format, doc)
	if done || err != nil {
		return err
	}

	return renderDocument(cmd.OutOrStdout(), doc)
}

// NewCreateCommand creates the create command.
func NewCreateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a resource",
		Long:  "Create a resource from JSON or YAML and print its location",
		Example: `  srclient create --data '{"name": "example"}'
  srclient create --file resource.yml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd)
			if err != nil {
				return err
			}

			client, err := createClient()
			if err != nil {
				return err
			}

			opts, err := requestOptions()
			if err != nil {
				return err
			}

			location, err := client.Create(cmd.Context(), doc, opts)
			if err != nil {
				return fmt.Errorf("failed to create resource: %w", err)
			}

			format, err := outputFormat()
			if err != nil {
				return err
			}

			done, err := encode(cmd.OutOrStdout(), format, map[string]string{"location": location})
			if done || err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s Created %s\n", constants.CheckMarkSymbol, location)

			return err
		},
	}

	addInputFlags(cmd)

	return cmd
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update IDENTIFIER",
		Short: "Update a resource",
		Long: `Update a resource by its URI or UUID.

The current resource is read first and the given fields are merged into it,
so only the fields that change need to be passed.`,
		Example: `  srclient update /widgets/1 --data '{"color": "blue"}'`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			changes, err := readDocument(cmd)
			if err != nil {
				return err
			}

			client, err := createClient()
			if err != nil {
				return err
			}

			opts, err := requestOptions()
			if err != nil {
				return err
			}

			doc, err := readResource(cmd, client, args[0], opts)
			if err != nil {
				return err
			}

			for key, value := range changes {
				if key == "self" {
					continue
				}

				doc[key] = value
			}

			err = client.Update(cmd.Context(), doc, opts)
			if err != nil {
				return fmt.Errorf("failed to update resource %s: %w", args[0], err)
			}

			return printDocument(cmd, doc)
		},
	}

	addInputFlags(cmd)

	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete IDENTIFIER",
		Short: "Delete a resource",
		Long:  "Delete a resource by its URI or by its UUID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			identifier := args[0]

			if !force {
				confirmed, err := confirm(cmd, fmt.Sprintf("Really delete %s?", identifier))
				if err != nil {
					return err
				}

				if !confirmed {
					_, err = fmt.Fprintln(cmd.OutOrStdout(), "Delete cancelled")

					return err
				}
			}

			client, err := createClient()
			if err != nil {
				return err
			}

			opts, err := requestOptions()
			if err != nil {
				return err
			}

			if uuid.Validate(identifier) == nil {
				_, err = client.DeleteWithUUID(cmd.Context(), identifier, opts)
			} else {
				_, err = client.Delete(cmd.Context(), identifier, opts)
			}

			if err != nil {
				if simplyrestful.IsNotFound(err) {
					return fmt.Errorf("resource %s does not exist: %w", identifier, err)
				}

				return fmt.Errorf("failed to delete resource %s: %w", identifier, err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s Deleted %s\n", constants.CheckMarkSymbol, identifier)

			return err
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "delete without confirmation")

	return cmd
}
