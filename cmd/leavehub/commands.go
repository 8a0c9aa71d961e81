package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/venkateshmergu-svg/LMS-ORG-01-sub000/internal/leavehub/app"
	"github.com/venkateshmergu-svg/LMS-ORG-01-sub000/pkg/authsdk"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "leavehub",
		Short: "Loopback session agent for the leave management API",
		Long: `leavehub runs on the user's machine, signs the user in through the
identity provider and forwards /api calls to the leave management API with
the session's access token attached.

Settings are read from the environment and from a .env file in the working
directory. Run "leavehub config" to see the effective values.`,
		SilenceUsage: true,
	}

	root.AddCommand(newServeCmd(), newConfigCmd(), newCheckCmd(), newVersionCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the session agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.New(app.LoadConfig())
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			return application.Run()
		},
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.LoadConfig()
			if err := cfg.Validate(); err != nil {
				return err
			}
			return writeConfig(cmd.OutOrStdout(), cfg)
		},
	}
}

func newCheckCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Probe the backend health route",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.LoadConfig()
			if err := cfg.Validate(); err != nil {
				return err
			}

			client := authsdk.NewSDKClient(cfg.APIBaseURL, cfg.ClientID, nil)
			client.HealthPath = cfg.APIHealthPath

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			health, err := client.Health(ctx)
			if err != nil {
				return fmt.Errorf("backend %s: %w", cfg.APIBaseURL, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "backend %s: %s\n", cfg.APIBaseURL, health.Status)
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "probe timeout")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), app.BuildVersion)
		},
	}
}

type configView struct {
	APIBaseURL        string   `json:"api_base_url"`
	APIHealthPath     string   `json:"api_health_path"`
	AuthorizeEndpoint string   `json:"authorize_endpoint"`
	ClientID          string   `json:"client_id"`
	RedirectURI       string   `json:"redirect_uri"`
	Scopes            []string `json:"scopes"`
	UIURL             string   `json:"ui_url"`
	RouteRoles        []string `json:"route_roles,omitempty"`
	AllowedOrigins    []string `json:"allowed_origins,omitempty"`
	PKCE              bool     `json:"pkce"`
	Swagger           bool     `json:"swagger"`
	StateTTL          string   `json:"state_ttl"`
	HTTPTimeout       string   `json:"http_timeout"`
	RequestTimeout    string   `json:"request_timeout"`
	Listen            string   `json:"listen"`
	Env               string   `json:"env"`
}

func writeConfig(w io.Writer, cfg app.Config) error {
	view := configView{
		APIBaseURL:        cfg.APIBaseURL,
		APIHealthPath:     cfg.APIHealthPath,
		AuthorizeEndpoint: cfg.AuthorizeEndpoint(),
		ClientID:          cfg.ClientID,
		RedirectURI:       cfg.RedirectURI,
		Scopes:            cfg.Scopes,
		UIURL:             cfg.UIURL,
		AllowedOrigins:    cfg.AllowedOrigins,
		PKCE:              cfg.FeaturePKCE,
		Swagger:           cfg.FeatureSwagger,
		StateTTL:          cfg.StateTTL.String(),
		HTTPTimeout:       cfg.HTTPTimeout.String(),
		RequestTimeout:    cfg.RequestTimeout.String(),
		Listen:            cfg.Addr(),
		Env:               cfg.Env,
	}
	for _, rr := range cfg.RouteRoles {
		view.RouteRoles = append(view.RouteRoles, rr.String())
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}
