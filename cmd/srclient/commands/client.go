package commands

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/viper"

	"github.com/fivetwenty-io/simplyrestful-client/internal/constants"
	"github.com/fivetwenty-io/simplyrestful-client/pkg/simplyrestful"
	"github.com/fivetwenty-io/simplyrestful-client/pkg/srclient"
)

// createClient builds a document client from the effective configuration.
func createClient() (simplyrestful.ResourceClient[simplyrestful.Document], error) {
	api := viper.GetString("api")
	if api == "" {
		return nil, constants.ErrNoAPIConfigured
	}

	mediaType := viper.GetString("media-type")
	if mediaType == "" {
		return nil, constants.ErrNoMediaTypeConfigured
	}

	log := logger()
	verbose := viper.GetBool("verbose")

	config := &simplyrestful.Config{
		BaseAPIURI:          api,
		ResourceMediaType:   mediaType,
		ResourceURITemplate: viper.GetString("template"),
		ServerURL:           viper.GetString("server"),
		HTTPTimeout:         viper.GetDuration("timeout"),
		Debug:               verbose,
		Logger:              simplyrestful.NewZerologLogger(log),
		SkipTLSVerify:       viper.GetBool("skip-ssl-validation"),
	}

	if verbose {
		chain := simplyrestful.NewInterceptorChain()
		chain.AddRequestInterceptor(simplyrestful.LoggingInterceptor(config.Logger))
		chain.AddResponseInterceptor(simplyrestful.LoggingResponseInterceptor(config.Logger))
		config.Interceptors = chain
	}

	client, err := srclient.NewDocumentClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return client, nil
}

// requestHeaders parses the configured "Name: value" headers.
func requestHeaders() (http.Header, error) {
	headers := make(http.Header)

	for _, raw := range viper.GetStringSlice("header") {
		name, value, found := strings.Cut(raw, ":")

		name = strings.TrimSpace(name)
		if !found || name == "" {
			return nil, fmt.Errorf("%w: %q", constants.ErrInvalidHeader, raw)
		}

		headers.Add(name, strings.TrimSpace(value))
	}

	return headers, nil
}

func requestOptions() (*simplyrestful.RequestOptions, error) {
	headers, err := requestHeaders()
	if err != nil {
		return nil, err
	}

	return &simplyrestful.RequestOptions{Headers: headers}, nil
}
