package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/goliatone/go-banklink/adapters/gocommand"
	banklinkcommand "github.com/goliatone/go-banklink/command"
	"github.com/goliatone/go-banklink/core"
	"github.com/goliatone/go-banklink/identifier"
	banklinkquery "github.com/goliatone/go-banklink/query"
	"github.com/spf13/cobra"
)

// RootOptions is shared by every subcommand. A nil Environ reads os.Environ.
type RootOptions struct {
	Environ []string
}

type userFlags struct {
	ID          string
	FirstName   string
	LastName    string
	Email       string
	Address1    string
	City        string
	State       string
	PostalCode  string
	DateOfBirth string
	SSN         string
	CustomerURL string
}

func (f *userFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.ID, "user-id", "", "user id (required)")
	cmd.Flags().StringVar(&f.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&f.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&f.Email, "email", "", "email address")
	cmd.Flags().StringVar(&f.Address1, "address", "", "street address")
	cmd.Flags().StringVar(&f.City, "city", "", "city")
	cmd.Flags().StringVar(&f.State, "state", "", "two-letter state code")
	cmd.Flags().StringVar(&f.PostalCode, "postal-code", "", "postal code")
	cmd.Flags().StringVar(&f.DateOfBirth, "dob", "", "date of birth (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.SSN, "ssn", "", "last four of ssn")
	cmd.Flags().StringVar(&f.CustomerURL, "customer-url", "", "existing payment customer url")
}

func (f userFlags) identity() (core.UserIdentity, error) {
	user := core.UserIdentity{
		ID:          f.ID,
		FirstName:   f.FirstName,
		LastName:    f.LastName,
		Email:       f.Email,
		Address1:    f.Address1,
		City:        f.City,
		State:       f.State,
		PostalCode:  f.PostalCode,
		DateOfBirth: f.DateOfBirth,
		SSN:         core.Secret(f.SSN),
	}
	if f.CustomerURL == "" {
		return user, nil
	}
	customerID, err := identifier.New().ExtractCustomerID(f.CustomerURL)
	if err != nil {
		return core.UserIdentity{}, err
	}
	return user.WithPaymentCustomer(customerID, f.CustomerURL), nil
}

func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "banklink",
		Short:         "Link bank accounts through Plaid and Dwolla",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewLinkTokenCommand(opts))
	cmd.AddCommand(NewLinkCommand(opts))
	cmd.AddCommand(NewAccountsCommand(opts))

	return cmd
}

func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply bank account migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := LoadAppConfig(rootOpts.Environ)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			client, err := openDatabase(ctx, cfg)
			if err != nil {
				return err
			}
			defer client.Close()
			if err := client.Migrate(ctx); err != nil {
				return fmt.Errorf("banklink: migrate: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrations applied (%s)\n", cfg.DatabaseDriver)
			return nil
		},
	}
}

func NewLinkTokenCommand(rootOpts *RootOptions) *cobra.Command {
	user := &userFlags{}
	cmd := &cobra.Command{
		Use:   "link-token",
		Short: "Create a Plaid Link token for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			identity, err := user.identity()
			if err != nil {
				return err
			}
			return withApp(cmd, rootOpts, func(a *app) error {
				token, err := gocommand.CreateLinkToken(cmd.Context(), banklinkcommand.CreateLinkTokenMessage{User: identity})
				if err != nil {
					return renderError(err)
				}
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"link_token": token.Token,
					"expiration": token.Expiration,
					"request_id": token.RequestID,
				})
			})
		},
	}
	user.bind(cmd)
	return cmd
}

func NewLinkCommand(rootOpts *RootOptions) *cobra.Command {
	user := &userFlags{}
	var publicToken string
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Link the first account of a public token to the user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			identity, err := user.identity()
			if err != nil {
				return err
			}
			return withApp(cmd, rootOpts, func(a *app) error {
				completion, err := gocommand.LinkAccount(cmd.Context(), banklinkcommand.LinkAccountMessage{
					User:        identity,
					PublicToken: publicToken,
				})
				if err != nil {
					return renderError(err)
				}
				return writeJSON(cmd.OutOrStdout(), map[string]any{"status": completion.Status})
			})
		},
	}
	user.bind(cmd)
	cmd.Flags().StringVar(&publicToken, "public-token", "", "public token from Plaid Link (required)")
	return cmd
}

func NewAccountsCommand(rootOpts *RootOptions) *cobra.Command {
	var userID string
	var sharableID string
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List a user's linked accounts or resolve one by sharable id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (userID == "") == (sharableID == "") {
				return fmt.Errorf("banklink: exactly one of --user-id or --sharable-id is required")
			}
			return withApp(cmd, rootOpts, func(a *app) error {
				if sharableID != "" {
					view, err := gocommand.GetLinkedAccount(cmd.Context(), banklinkquery.GetLinkedAccountMessage{SharableID: sharableID})
					if err != nil {
						return renderError(err)
					}
					return writeJSON(cmd.OutOrStdout(), view)
				}
				views, err := gocommand.ListLinkedAccounts(cmd.Context(), banklinkquery.ListLinkedAccountsMessage{UserID: userID})
				if err != nil {
					return renderError(err)
				}
				return writeJSON(cmd.OutOrStdout(), views)
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user-id", "", "list accounts for this user")
	cmd.Flags().StringVar(&sharableID, "sharable-id", "", "resolve a single account")
	return cmd
}

func withApp(cmd *cobra.Command, rootOpts *RootOptions, run func(a *app) error) error {
	cfg, rawService, err := LoadAppConfig(rootOpts.Environ)
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg, rawService)
	if err != nil {
		return err
	}
	defer a.Close()
	return run(a)
}

// renderError reduces any failure to its service envelope so provider
// details never reach the terminal.
func renderError(err error) error {
	mapped := core.MapError(err)
	if mapped == nil {
		return err
	}
	return fmt.Errorf("%s: %s", mapped.TextCode, mapped.Message)
}

func writeJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
